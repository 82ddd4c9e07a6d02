package auth

import (
	"errors"
	"net/http"
	"slices"
	"strings"
)

var ErrForbidden = errors.New("forbidden")

// Operator roles. Gestores follow their own uploads in the listing; only
// admins confirm signatures.
const (
	RoleGestor = "gestor"
	RoleAdmin  = "admin"
)

// Permission is one thing an operator can do on the upload listing.
type Permission string

const (
	PermListarUploads  Permission = "uploads.listar"
	PermMarcarAssinado Permission = "uploads.marcar_assinado"
)

var rolePermissions = map[string][]Permission{
	RoleGestor: {PermListarUploads},
	RoleAdmin:  {PermListarUploads, PermMarcarAssinado},
}

// Can reports whether any of roles grants p. Unknown roles grant nothing.
func Can(roles []string, p Permission) bool {
	for _, role := range roles {
		if slices.Contains(rolePermissions[strings.ToLower(strings.TrimSpace(role))], p) {
			return true
		}
	}
	return false
}

// PermissionForRequest maps listing routes to permissions: reads list and
// download, anything else changes the signed flag.
func PermissionForRequest(r *http.Request) Permission {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return PermListarUploads
	default:
		return PermMarcarAssinado
	}
}

// ListagemAuthorizer guards the admin listing routes.
func ListagemAuthorizer() AuthorizeFunc {
	return func(r *http.Request, identity Identity) error {
		if identity.Can(PermissionForRequest(r)) {
			return nil
		}
		return ErrForbidden
	}
}
