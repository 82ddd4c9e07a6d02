package ratelimit

import (
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sgtes/maismedicos-go/internal/platform/env"
)

type Config struct {
	Enabled            bool
	RPS                float64
	Burst              int
	TrustXForwardedFor bool
}

func ConfigFromEnv() (Config, error) {
	enabled, err := env.Bool("MME_RATELIMIT_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	burst, err := env.Int("MME_RATELIMIT_BURST", 10)
	if err != nil {
		return Config{}, err
	}
	rpsRaw := env.String("MME_RATELIMIT_RPS", "2")
	rps, err := strconv.ParseFloat(rpsRaw, 64)
	if err != nil {
		return Config{}, err
	}
	trustXFF, err := env.Bool("MME_RATELIMIT_TRUST_XFF", false)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{Enabled: enabled, RPS: rps, Burst: burst, TrustXForwardedFor: trustXFF}
	if cfg.Enabled && (cfg.RPS <= 0 || cfg.Burst < 1) {
		return Config{}, errors.New("MME_RATELIMIT_RPS must be positive and MME_RATELIMIT_BURST >= 1")
	}
	return cfg, nil
}

type KeyFunc func(r *http.Request) string

type Options struct {
	Store              *Store
	KeyFn              KeyFunc
	TrustXForwardedFor bool
	// Methods limits which methods are counted; empty means all.
	Methods  []string
	OnReject http.HandlerFunc
}

func DefaultKeyFunc(trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if trustXFF {
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				ip := strings.TrimSpace(strings.Split(xff, ",")[0])
				if ip != "" {
					return ip
				}
			}
		}

		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.TrustXForwardedFor)
	}
	counted := make(map[string]struct{}, len(opts.Methods))
	for _, m := range opts.Methods {
		counted[strings.ToUpper(m)] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		if opts.Store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(counted) > 0 {
				if _, ok := counted[r.Method]; !ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			res := opts.Store.Get(opts.KeyFn(r)).Reserve()
			if !res.OK() {
				reject(w, r, opts, time.Second)
				return
			}
			if delay := res.Delay(); delay > 0 {
				res.Cancel()
				reject(w, r, opts, delay)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, opts Options, retryAfter time.Duration) {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	if opts.OnReject != nil {
		opts.OnReject(w, r)
		return
	}
	http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
}
