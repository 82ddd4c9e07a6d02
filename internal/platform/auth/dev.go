package auth

import (
	"context"
	"net/http"
)

type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (Identity, error)
}

// StaticAuthenticator admits every request as the same operator. It backs
// AUTH_MODE=dev and AUTH_MODE=disabled.
type StaticAuthenticator struct {
	Identity Identity
}

func NewDevAuthenticator(cfg Config) StaticAuthenticator {
	return StaticAuthenticator{Identity: cfg.Dev}
}

// NewDisabledAuthenticator treats every caller as an anonymous admin.
func NewDisabledAuthenticator() StaticAuthenticator {
	return StaticAuthenticator{Identity: Identity{Subject: "anonymous", Roles: []string{RoleAdmin}}}
}

func (a StaticAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	return a.Identity, nil
}
