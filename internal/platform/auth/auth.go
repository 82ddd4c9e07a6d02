package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sgtes/maismedicos-go/internal/platform/env"
)

// Mode selects how operators of the upload listing are identified.
type Mode string

const (
	ModeOIDC     Mode = "oidc"
	ModeDev      Mode = "dev"
	ModeDisabled Mode = "disabled"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// CookieConfig shapes the operator session cookie and the short-lived login
// cookies.
type CookieConfig struct {
	Name     string
	Secure   bool
	MaxAge   time.Duration
	SameSite string
}

// OIDCConfig is the authorization-code client registered for the portal.
// RolesClaim may be a dotted path such as realm_access.roles.
type OIDCConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	RolesClaim   string
	EmailClaim   string
}

type Config struct {
	Mode   Mode
	Cookie CookieConfig
	OIDC   OIDCConfig
	Dev    Identity
}

func ConfigFromEnv() (Config, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(env.String("AUTH_MODE", string(ModeOIDC)))))

	secure, err := env.Bool("AUTH_SESSION_COOKIE_SECURE", true)
	if err != nil {
		return Config{}, err
	}
	maxAgeSeconds, err := env.Int("AUTH_SESSION_MAX_AGE_SECONDS", 8*3600)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Mode: mode,
		Cookie: CookieConfig{
			Name:     env.String("AUTH_SESSION_COOKIE_NAME", "mme_admin_session"),
			Secure:   secure,
			MaxAge:   time.Duration(maxAgeSeconds) * time.Second,
			SameSite: env.String("AUTH_SESSION_COOKIE_SAMESITE", "Lax"),
		},
		OIDC: OIDCConfig{
			IssuerURL:    env.String("OIDC_ISSUER_URL", ""),
			ClientID:     env.String("OIDC_CLIENT_ID", ""),
			ClientSecret: env.String("OIDC_CLIENT_SECRET", ""),
			RedirectURL:  env.String("OIDC_REDIRECT_URL", ""),
			Scopes:       strings.Fields(env.String("OIDC_SCOPES", "openid profile email")),
			RolesClaim:   env.String("AUTH_ROLES_CLAIM", "roles"),
			EmailClaim:   env.String("AUTH_EMAIL_CLAIM", "email"),
		},
		Dev: Identity{
			Subject: env.String("DEV_AUTH_SUBJECT", "dev-operador"),
			Email:   env.String("DEV_AUTH_EMAIL", "dev-operador@saude.gov.br"),
			Roles:   parseRoles(env.String("DEV_AUTH_ROLES", RoleAdmin)),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Cookie.Name) == "" {
		return errors.New("AUTH_SESSION_COOKIE_NAME is required")
	}
	if c.Cookie.MaxAge <= 0 {
		return errors.New("AUTH_SESSION_MAX_AGE_SECONDS must be positive")
	}

	switch c.Mode {
	case ModeOIDC:
		required := []struct{ name, value string }{
			{"OIDC_ISSUER_URL", c.OIDC.IssuerURL},
			{"OIDC_CLIENT_ID", c.OIDC.ClientID},
			{"OIDC_CLIENT_SECRET", c.OIDC.ClientSecret},
			{"OIDC_REDIRECT_URL", c.OIDC.RedirectURL},
			{"AUTH_ROLES_CLAIM", c.OIDC.RolesClaim},
		}
		for _, field := range required {
			if strings.TrimSpace(field.value) == "" {
				return fmt.Errorf("%s is required when AUTH_MODE=oidc", field.name)
			}
		}
		if len(c.OIDC.Scopes) == 0 {
			return errors.New("OIDC_SCOPES must be non-empty")
		}
	case ModeDev:
		if strings.TrimSpace(c.Dev.Subject) == "" {
			return errors.New("DEV_AUTH_SUBJECT is required when AUTH_MODE=dev")
		}
		for _, role := range c.Dev.Roles {
			if _, ok := rolePermissions[role]; !ok {
				return fmt.Errorf("DEV_AUTH_ROLES: unknown role %q (want %s or %s)", role, RoleGestor, RoleAdmin)
			}
		}
		if len(c.Dev.Roles) == 0 {
			return errors.New("DEV_AUTH_ROLES must be non-empty when AUTH_MODE=dev")
		}
	case ModeDisabled:
	default:
		return fmt.Errorf("AUTH_MODE must be one of: oidc, dev, disabled (got %q)", c.Mode)
	}
	return nil
}

// parseRoles splits a comma separated role list, lowercased and deduplicated.
func parseRoles(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		role := strings.ToLower(strings.TrimSpace(part))
		if role == "" || slices.Contains(out, role) {
			continue
		}
		out = append(out, role)
	}
	return out
}
