package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCan(t *testing.T) {
	cases := []struct {
		roles []string
		perm  Permission
		want  bool
	}{
		{[]string{RoleGestor}, PermListarUploads, true},
		{[]string{RoleGestor}, PermMarcarAssinado, false},
		{[]string{" ADMIN "}, PermMarcarAssinado, true},
		{[]string{"viewer", RoleGestor}, PermListarUploads, true},
		{[]string{"viewer"}, PermListarUploads, false},
		{nil, PermListarUploads, false},
	}
	for _, tc := range cases {
		if got := Can(tc.roles, tc.perm); got != tc.want {
			t.Fatalf("Can(%v, %s)=%v, want %v", tc.roles, tc.perm, got, tc.want)
		}
	}
}

func TestListagemAuthorizer(t *testing.T) {
	authorize := ListagemAuthorizer()
	gestor := Identity{Subject: "g", Roles: []string{RoleGestor}}
	admin := Identity{Subject: "a", Roles: []string{RoleAdmin}}

	listar := httptest.NewRequest(http.MethodGet, "/listar-pdf?uf=PE", nil)
	abrir := httptest.NewRequest(http.MethodGet, "/listar-pdf/arquivo/1234567_termo.pdf", nil)
	marcar := httptest.NewRequest(http.MethodPost, "/listar-pdf/assinado", nil)

	for _, r := range []*http.Request{listar, abrir} {
		if err := authorize(r, gestor); err != nil {
			t.Fatalf("gestor %s %s err=%v", r.Method, r.URL.Path, err)
		}
	}
	if err := authorize(marcar, gestor); err != ErrForbidden {
		t.Fatalf("gestor marking signed err=%v, want ErrForbidden", err)
	}
	if err := authorize(marcar, admin); err != nil {
		t.Fatalf("admin marking signed err=%v", err)
	}
}

func TestIdentityOperador(t *testing.T) {
	if got := (Identity{Subject: "sub-1", Email: "ana@saude.gov.br"}).Operador(); got != "ana@saude.gov.br" {
		t.Fatalf("Operador()=%q, want email", got)
	}
	if got := (Identity{Subject: "sub-1"}).Operador(); got != "sub-1" {
		t.Fatalf("Operador()=%q, want subject", got)
	}
}

func TestDisabledAuthenticatorIsAdmin(t *testing.T) {
	id, err := NewDisabledAuthenticator().Authenticate(t.Context(), httptest.NewRequest(http.MethodPost, "/listar-pdf/assinado", nil))
	if err != nil {
		t.Fatalf("Authenticate() err=%v", err)
	}
	if !id.Can(PermMarcarAssinado) || id.Subject != "anonymous" {
		t.Fatalf("identity=%+v, want anonymous admin", id)
	}
}
