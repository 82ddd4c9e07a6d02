package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const (
	stateCookie    = "mme_oidc_state"
	verifierCookie = "mme_oidc_verifier"
	nonceCookie    = "mme_oidc_nonce"
	returnCookie   = "mme_return_to"

	loginCookieTTL = 10 * time.Minute
)

// OIDCService signs operators into the upload listing with the
// authorization-code flow (PKCE and nonce). The verified ID token is kept in
// the session cookie and re-verified on every request.
type OIDCService struct {
	cfg          Config
	verifier     *oidc.IDTokenVerifier
	oauth2Config oauth2.Config
}

func NewOIDCService(ctx context.Context, cfg Config) (*OIDCService, error) {
	if cfg.Mode != ModeOIDC {
		return nil, fmt.Errorf("auth mode must be oidc (got %q)", cfg.Mode)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	provider, err := oidc.NewProvider(ctx, cfg.OIDC.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}
	return &OIDCService{
		cfg:      cfg,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.OIDC.ClientID}),
		oauth2Config: oauth2.Config{
			ClientID:     cfg.OIDC.ClientID,
			ClientSecret: cfg.OIDC.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.OIDC.RedirectURL,
			Scopes:       cfg.OIDC.Scopes,
		},
	}, nil
}

func (s *OIDCService) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	rawToken := cookieValue(r, s.cfg.Cookie.Name)
	if rawToken == "" {
		return Identity{}, ErrUnauthenticated
	}
	idToken, err := s.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Identity{}, err
	}
	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return Identity{}, err
	}
	return identityFromClaims(claims, s.cfg.OIDC), nil
}

func (s *OIDCService) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var values [3]string
		for i := range values {
			v, err := randomBase64URL()
			if err != nil {
				http.Error(w, "Não foi possível iniciar o login.", http.StatusInternalServerError)
				return
			}
			values[i] = v
		}
		state, verifier, nonce := values[0], values[1], values[2]

		s.setCookie(w, stateCookie, state, loginCookieTTL)
		s.setCookie(w, verifierCookie, verifier, loginCookieTTL)
		s.setCookie(w, nonceCookie, nonce, loginCookieTTL)
		s.setCookie(w, returnCookie, safeReturnTo(r.URL.Query().Get("return_to")), loginCookieTTL)

		http.Redirect(w, r, s.oauth2Config.AuthCodeURL(
			state,
			oauth2.AccessTypeOnline,
			oauth2.S256ChallengeOption(verifier),
			oidc.Nonce(nonce),
		), http.StatusFound)
	}
}

func (s *OIDCService) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.URL.Query().Get("state")
		code := r.URL.Query().Get("code")
		if state == "" || code == "" || state != cookieValue(r, stateCookie) {
			http.Error(w, "Login inválido ou expirado.", http.StatusBadRequest)
			return
		}
		codeVerifier := cookieValue(r, verifierCookie)
		nonce := cookieValue(r, nonceCookie)
		if codeVerifier == "" || nonce == "" {
			http.Error(w, "Login inválido ou expirado.", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		token, err := s.oauth2Config.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
		if err != nil {
			http.Error(w, "Falha ao concluir o login.", http.StatusUnauthorized)
			return
		}
		rawIDToken, _ := token.Extra("id_token").(string)
		if rawIDToken == "" {
			http.Error(w, "Falha ao concluir o login.", http.StatusUnauthorized)
			return
		}
		idToken, err := s.verifier.Verify(ctx, rawIDToken)
		if err != nil || idToken.Nonce != nonce {
			http.Error(w, "Falha ao concluir o login.", http.StatusUnauthorized)
			return
		}

		s.setCookie(w, s.cfg.Cookie.Name, rawIDToken, s.cfg.Cookie.MaxAge)
		for _, name := range []string{stateCookie, verifierCookie, nonceCookie} {
			s.setCookie(w, name, "", -1)
		}
		returnTo := safeReturnTo(cookieValue(r, returnCookie))
		s.setCookie(w, returnCookie, "", -1)
		http.Redirect(w, r, returnTo, http.StatusFound)
	}
}

func (s *OIDCService) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.setCookie(w, s.cfg.Cookie.Name, "", -1)
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// setCookie writes an HttpOnly cookie; a negative ttl deletes it.
func (s *OIDCService) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	maxAge := -1
	if ttl >= 0 {
		maxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cfg.Cookie.Secure,
		SameSite: parseSameSite(s.cfg.Cookie.SameSite),
	})
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func randomBase64URL() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// safeReturnTo keeps post-login redirects on the listing pages.
func safeReturnTo(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/listar-pdf") {
		return "/listar-pdf"
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}

func parseSameSite(raw string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func identityFromClaims(claims map[string]any, cfg OIDCConfig) Identity {
	subject, _ := claims["sub"].(string)
	email, _ := claimPath(claims, cfg.EmailClaim).(string)
	var roles []string
	switch typed := claimPath(claims, cfg.RolesClaim).(type) {
	case []any:
		for _, item := range typed {
			if s, ok := item.(string); ok {
				roles = append(roles, s)
			}
		}
		roles = parseRoles(strings.Join(roles, ","))
	case string:
		roles = parseRoles(typed)
	}
	return Identity{Subject: subject, Email: email, Roles: roles}
}

// claimPath resolves a dotted claim name through nested objects.
func claimPath(claims map[string]any, path string) any {
	var cur any = claims
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}
