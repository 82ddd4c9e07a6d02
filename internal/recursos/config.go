package recursos

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sgtes/maismedicos-go/internal/platform/env"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

func ConfigFromEnv() (Config, error) {
	timeout, err := env.Duration("MME_API_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		BaseURL: strings.TrimSpace(env.String("MME_API_URL", "http://localhost:3000")),
		Timeout: timeout,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("MME_API_URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("MME_API_URL invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("MME_API_URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("MME_API_URL host is required")
	}
	if c.Timeout <= 0 {
		return errors.New("MME_API_TIMEOUT must be > 0")
	}
	return nil
}
