package auth

import (
	"strings"
	"testing"
	"time"
)

func TestConfigFromEnv_Dev(t *testing.T) {
	t.Setenv("AUTH_MODE", "dev")
	t.Setenv("DEV_AUTH_SUBJECT", "operador-1")
	t.Setenv("DEV_AUTH_ROLES", "Gestor, admin, gestor")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if cfg.Mode != ModeDev || cfg.Dev.Subject != "operador-1" {
		t.Fatalf("cfg=%+v", cfg)
	}
	if len(cfg.Dev.Roles) != 2 || cfg.Dev.Roles[0] != RoleGestor || cfg.Dev.Roles[1] != RoleAdmin {
		t.Fatalf("Dev.Roles=%v, want [gestor admin]", cfg.Dev.Roles)
	}
	if cfg.Cookie.MaxAge != 8*time.Hour {
		t.Fatalf("Cookie.MaxAge=%v, want 8h", cfg.Cookie.MaxAge)
	}
}

func TestConfigFromEnv_DevUnknownRole(t *testing.T) {
	t.Setenv("AUTH_MODE", "dev")
	t.Setenv("DEV_AUTH_ROLES", "editor")

	_, err := ConfigFromEnv()
	if err == nil || !strings.Contains(err.Error(), `"editor"`) {
		t.Fatalf("err=%v, want unknown role", err)
	}
}

func TestConfigFromEnv_OIDCNeedsLoginClient(t *testing.T) {
	t.Setenv("AUTH_MODE", "oidc")
	t.Setenv("OIDC_ISSUER_URL", "https://sso.saude.gov.br/realms/mme")
	t.Setenv("OIDC_CLIENT_ID", "portal-mme")
	t.Setenv("OIDC_CLIENT_SECRET", "")
	t.Setenv("OIDC_REDIRECT_URL", "https://mme.saude.gov.br/auth/callback")

	_, err := ConfigFromEnv()
	if err == nil || !strings.Contains(err.Error(), "OIDC_CLIENT_SECRET") {
		t.Fatalf("err=%v, want missing client secret", err)
	}

	t.Setenv("OIDC_CLIENT_SECRET", "s3cret")
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if len(cfg.OIDC.Scopes) != 3 || cfg.OIDC.RolesClaim != "roles" {
		t.Fatalf("OIDC=%+v", cfg.OIDC)
	}
}

func TestConfigFromEnv_UnknownMode(t *testing.T) {
	t.Setenv("AUTH_MODE", "basic")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatalf("expected error for AUTH_MODE=basic")
	}
}
