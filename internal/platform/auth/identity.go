package auth

import (
	"context"
)

// Identity is the operator behind an admin request.
type Identity struct {
	Subject string
	Email   string
	Roles   []string
}

func (i Identity) Can(p Permission) bool {
	return Can(i.Roles, p)
}

// Operador is the name shown on the listing and stored as audit actor.
func (i Identity) Operador() string {
	if i.Email != "" {
		return i.Email
	}
	return i.Subject
}

type ctxKeyIdentity struct{}

func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity{}, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(ctxKeyIdentity{}).(Identity)
	return v, ok
}
