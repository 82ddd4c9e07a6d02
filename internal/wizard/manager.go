package wizard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sgtes/maismedicos-go/internal/platform/env"
)

const CookieName = "mme_wizard"

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Store        string
	TTL          time.Duration
	CookieSecure bool
}

func ConfigFromEnv() (Config, error) {
	ttl, err := env.Duration("MME_SESSION_TTL", 2*time.Hour)
	if err != nil {
		return Config{}, err
	}
	secure, err := env.Bool("MME_COOKIE_SECURE", false)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Store:        strings.ToLower(strings.TrimSpace(env.String("MME_SESSION_STORE", StoreMemory))),
		TTL:          ttl,
		CookieSecure: secure,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Store != StoreMemory && c.Store != StorePostgres {
		return fmt.Errorf("MME_SESSION_STORE must be %q or %q", StoreMemory, StorePostgres)
	}
	if c.TTL <= 0 {
		return errors.New("MME_SESSION_TTL must be positive")
	}
	return nil
}

// Session is one browser's wizard state.
type Session struct {
	ID    string
	State State
}

// Manager binds sessions to the wizard cookie. Every save pushes the expiry
// forward by the configured TTL.
type Manager struct {
	store  Store
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(store Store, cfg Config) *Manager {
	return &Manager{store: store, ttl: cfg.TTL, secure: cfg.CookieSecure, now: time.Now}
}

func (m *Manager) Store() Store { return m.store }

// Load returns the request's session, or a fresh one when the cookie is
// missing, malformed or points at an expired session.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return m.fresh(), nil
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Value))
	if err != nil {
		return m.fresh(), nil
	}
	st, err := m.store.Load(r.Context(), id.String())
	if errors.Is(err, ErrNotFound) {
		return m.fresh(), nil
	}
	if err != nil {
		return nil, err
	}
	return &Session{ID: id.String(), State: st}, nil
}

func (m *Manager) fresh() *Session {
	return &Session{ID: uuid.NewString()}
}

func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if err := m.store.Save(ctx, s.ID, s.State, m.now().Add(m.ttl)); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Destroy deletes the stored state and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if err := m.store.Delete(ctx, s.ID); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
