package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fixedAuthenticator struct {
	identity Identity
	err      error
	calls    int
}

func (a *fixedAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	a.calls++
	return a.identity, a.err
}

func TestMiddleware_ListagemRoutes(t *testing.T) {
	gestor := Identity{Subject: "g-1", Roles: []string{RoleGestor}}
	admin := Identity{Subject: "a-1", Email: "ana@saude.gov.br", Roles: []string{RoleAdmin}}

	cases := []struct {
		name      string
		method    string
		path      string
		identity  Identity
		err       error
		wantCode  int
		wantError string
	}{
		{"no session", http.MethodGet, "/listar-pdf", Identity{}, ErrUnauthenticated, http.StatusUnauthorized, "unauthorized"},
		{"bad token", http.MethodGet, "/listar-pdf", Identity{}, errors.New("token expired"), http.StatusUnauthorized, "invalid_token"},
		{"gestor lists", http.MethodGet, "/listar-pdf?uf=PE", gestor, nil, http.StatusNoContent, ""},
		{"gestor opens file", http.MethodGet, "/listar-pdf/arquivo/1234567_termo.pdf", gestor, nil, http.StatusNoContent, ""},
		{"gestor marks signed", http.MethodPost, "/listar-pdf/assinado", gestor, nil, http.StatusForbidden, "forbidden"},
		{"admin marks signed", http.MethodPost, "/listar-pdf/assinado", admin, nil, http.StatusNoContent, ""},
		{"no portal role", http.MethodGet, "/listar-pdf", Identity{Subject: "x", Roles: []string{"offline_access"}}, nil, http.StatusForbidden, "forbidden"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen Identity
			h := Middleware{
				Authenticator: &fixedAuthenticator{identity: tc.identity, err: tc.err},
				Authorize:     ListagemAuthorizer(),
			}.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = IdentityFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(tc.method, "http://portal.test"+tc.path, nil)
			req.Header.Set("X-Request-Id", "rid-"+tc.name)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tc.wantCode {
				t.Fatalf("status=%d, want %d", rec.Code, tc.wantCode)
			}
			if tc.wantError == "" {
				if seen.Subject != tc.identity.Subject {
					t.Fatalf("identity=%+v, want %+v", seen, tc.identity)
				}
				return
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal response: %v", err)
			}
			if body["error"] != tc.wantError || body["request_id"] != "rid-"+tc.name {
				t.Fatalf("body=%v, want error %s", body, tc.wantError)
			}
		})
	}
}

func TestMiddleware_SkipPrefix(t *testing.T) {
	authn := &fixedAuthenticator{err: ErrUnauthenticated}
	h := Middleware{
		Authenticator: authn,
		SkipPrefixes:  []string{"/auth/"},
	}.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://portal.test/auth/callback", nil))

	if rec.Code != http.StatusOK || authn.calls != 0 {
		t.Fatalf("status=%d calls=%d, want 200 without authentication", rec.Code, authn.calls)
	}
}

func TestMiddleware_DenyIsAudited(t *testing.T) {
	var events []DenyEvent
	h := Middleware{
		Authenticator: &fixedAuthenticator{identity: Identity{Subject: "g-1", Email: "g@pe.gov.br", Roles: []string{RoleGestor}}},
		Authorize:     ListagemAuthorizer(),
		Audit: func(ctx context.Context, event DenyEvent) error {
			events = append(events, event)
			return errors.New("audit store down")
		},
	}.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "http://portal.test/listar-pdf/assinado", nil)
	req.Header.Set("X-Request-Id", "rid-4")
	req.RemoteAddr = "10.0.0.7:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d, want 403 even when audit fails", rec.Code)
	}
	if len(events) != 1 {
		t.Fatalf("audit calls=%d, want 1", len(events))
	}
	got := events[0]
	if got.Reason != "forbidden" || got.Subject != "g-1" || got.Email != "g@pe.gov.br" || got.Path != "/listar-pdf/assinado" || got.RequestID != "rid-4" {
		t.Fatalf("event=%+v", got)
	}
}

func TestMiddleware_RedirectsBrowserToLogin(t *testing.T) {
	h := Middleware{
		Authenticator: &fixedAuthenticator{err: ErrUnauthenticated},
		LoginPath:     "/auth/login",
	}.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "http://portal.test/listar-pdf?uf=PE", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status=%d, want 302", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/auth/login?return_to=%2Flistar-pdf%3Fuf%3DPE" {
		t.Fatalf("Location=%q", got)
	}

	post := httptest.NewRequest(http.MethodPost, "http://portal.test/listar-pdf/assinado", nil)
	post.Header.Set("Accept", "text/html")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, post)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("POST status=%d, want 401", rec.Code)
	}
}
