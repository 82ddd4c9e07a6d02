package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/sgtes/maismedicos-go/internal/documentos"
	"github.com/sgtes/maismedicos-go/internal/platform/auditlog"
	"github.com/sgtes/maismedicos-go/internal/platform/auth"
	"github.com/sgtes/maismedicos-go/internal/platform/cache"
	"github.com/sgtes/maismedicos-go/internal/platform/env"
	"github.com/sgtes/maismedicos-go/internal/platform/httpserver"
	"github.com/sgtes/maismedicos-go/internal/platform/objectstore"
	"github.com/sgtes/maismedicos-go/internal/platform/postgres"
	"github.com/sgtes/maismedicos-go/internal/platform/ratelimit"
	"github.com/sgtes/maismedicos-go/internal/recursos"
	"github.com/sgtes/maismedicos-go/internal/termo"
	"github.com/sgtes/maismedicos-go/internal/wizard"
)

const service = "portal"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configFile := env.String("MME_CONFIG_FILE", "")
	if err := env.LoadFile(configFile); err != nil {
		logger.Error("invalid config file", "error", err)
		os.Exit(2)
	}
	if keys := env.FileKeys(); len(keys) > 0 {
		logger.Info("config file loaded", "path", configFile, "keys", keys)
	}

	httpCfg, err := httpserver.ConfigFromEnv(service, ":8080")
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}
	portalCfg, err := portalConfigFromEnv()
	if err != nil {
		logger.Error("invalid portal config", "error", err)
		os.Exit(2)
	}
	apiCfg, err := recursos.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid api config", "error", err)
		os.Exit(2)
	}
	sessionCfg, err := wizard.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid session config", "error", err)
		os.Exit(2)
	}
	cacheCfg, err := cache.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid cache config", "error", err)
		os.Exit(2)
	}
	limitCfg, err := ratelimit.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid rate limit config", "error", err)
		os.Exit(2)
	}
	purgeEvery, err := env.Duration("MME_SESSION_PURGE_EVERY", 10*time.Minute)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}

	var checks []httpserver.ReadinessCheck

	var db *sql.DB
	if sessionCfg.Store == wizard.StorePostgres || portalCfg.AuditDatabase {
		dbCfg, err := postgres.ConfigFromEnv()
		if err != nil {
			logger.Error("invalid database config", "error", err)
			os.Exit(2)
		}
		db, err = postgres.Open(ctx, dbCfg)
		if err != nil {
			logger.Error("database unavailable", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		if err := postgres.Migrate(ctx, db); err != nil {
			logger.Error("database migration failed", "error", err)
			os.Exit(1)
		}
		checks = append(checks, httpserver.ReadinessCheck{Name: "postgres", Check: postgres.Ping(db)})
	}

	var refCache cache.Cache = cache.NewMemoryCache()
	if cacheCfg.RedisAddr != "" {
		rdb := cache.NewRedisClient(cacheCfg)
		defer func() { _ = rdb.Close() }()
		redisCache := cache.NewRedisCache(rdb, cacheCfg.Prefix)
		refCache = redisCache
		checks = append(checks, httpserver.ReadinessCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
				defer cancel()
				return redisCache.Ping(checkCtx)
			},
		})
	}

	client, err := recursos.New(apiCfg)
	if err != nil {
		logger.Error("api client init failed", "error", err)
		os.Exit(2)
	}
	rec := recursos.NewCached(client, refCache, cacheCfg.TTL, logger)

	catalog, err := termo.NewCatalogStore(portalCfg.CatalogPath)
	if err != nil {
		logger.Error("clause catalogue unavailable", "path", portalCfg.CatalogPath, "error", err)
		os.Exit(2)
	}
	if err := catalog.Watch(ctx, logger); err != nil {
		logger.Warn("clause catalogue watch disabled", "path", portalCfg.CatalogPath, "error", err)
	}
	brasao, err := termo.LoadBrasao(portalCfg.BrasaoPath)
	if err != nil {
		logger.Warn("brasao unavailable, annexes render without it", "path", portalCfg.BrasaoPath, "error", err)
	}
	renderer := termo.NewRenderer(catalog, brasao, logger)

	archive, minioCheck, err := openArchive(ctx, portalCfg)
	if err != nil {
		logger.Error("document storage unavailable", "error", err)
		os.Exit(1)
	}
	if minioCheck != nil {
		checks = append(checks, *minioCheck)
	}

	var sessionStore wizard.Store = wizard.NewMemoryStore()
	if sessionCfg.Store == wizard.StorePostgres {
		sessionStore = wizard.NewPostgresStore(db)
	}
	sessions := wizard.NewManager(sessionStore, sessionCfg)
	go purgeSessions(ctx, logger, sessionStore, purgeEvery)

	recorder := auditlog.Recorder{Logger: logger}
	if portalCfg.AuditDatabase {
		recorder.DB = db
	}

	views, err := loadViews()
	if err != nil {
		logger.Error("templates invalid", "error", err)
		os.Exit(2)
	}
	api := newPortalAPI(logger, portalCfg, rec, sessions, renderer, archive, recorder, views)

	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid auth config", "error", err)
		os.Exit(2)
	}
	var authenticator auth.Authenticator
	var oidcService *auth.OIDCService
	switch authCfg.Mode {
	case auth.ModeDev:
		authenticator = auth.NewDevAuthenticator(authCfg)
	case auth.ModeOIDC:
		svc, err := auth.NewOIDCService(ctx, authCfg)
		if err != nil {
			logger.Error("oidc init failed", "error", err)
			os.Exit(1)
		}
		oidcService = svc
		authenticator = svc
	case auth.ModeDisabled:
		authenticator = auth.NewDisabledAuthenticator()
	default:
		logger.Error("unsupported auth mode", "mode", authCfg.Mode)
		os.Exit(2)
	}

	admin := func(handler http.Handler) http.Handler {
		m := auth.Middleware{
			Logger:        logger,
			Authenticator: authenticator,
			Authorize:     auth.ListagemAuthorizer(),
			Audit:         recorder.AuthDenyFunc(750 * time.Millisecond),
		}
		if oidcService != nil {
			m.LoginPath = "/auth/login"
		}
		return m.Wrap(handler)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Healthz(service))
	mux.HandleFunc("/readyz", httpserver.ReadyzWithChecks(service, checks...))
	registerAuthRoutes(mux, authCfg, oidcService, admin)
	api.register(mux, admin)

	var handler http.Handler = mux
	if limitCfg.Enabled {
		store := ratelimit.NewStore(limitCfg.RPS, limitCfg.Burst)
		store.StartJanitor(ctx)
		handler = ratelimit.Middleware(ratelimit.Options{
			Store:              store,
			TrustXForwardedFor: limitCfg.TrustXForwardedFor,
			Methods:            []string{http.MethodPost},
			OnReject: func(w http.ResponseWriter, r *http.Request) {
				api.renderError(w, r, http.StatusTooManyRequests, "Muitas requisições. Aguarde alguns segundos e tente novamente.")
			},
		})(handler)
	}

	logger.Info("portal configured",
		"session_store", sessionCfg.Store,
		"document_store", portalCfg.DocumentStore,
		"auth_mode", authCfg.Mode,
		"redis", cacheCfg.RedisAddr != "",
		"api_base_url", client.BaseURL(),
	)
	if err := httpserver.Run(ctx, logger, httpCfg, httpserver.Wrap(logger, service, handler)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// openArchive builds the annex archive on the configured object store. The
// MinIO backend also yields its readiness check.
func openArchive(ctx context.Context, cfg portalConfig) (*documentos.Archive, *httpserver.ReadinessCheck, error) {
	if cfg.DocumentStore != documentStoreMinio {
		return documentos.NewArchive(objectstore.NewMemoryStore(), "termos"), nil, nil
	}
	storeCfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		return nil, nil, err
	}
	client, err := objectstore.NewMinIOClient(storeCfg)
	if err != nil {
		return nil, nil, err
	}
	if err := objectstore.EnsureBucket(ctx, client, storeCfg); err != nil {
		return nil, nil, err
	}
	store, err := objectstore.NewMinioStoreWithClient(client)
	if err != nil {
		return nil, nil, err
	}
	check := minioReadiness(client, storeCfg)
	return documentos.NewArchive(store, storeCfg.BucketTermos), &check, nil
}

func minioReadiness(client *minio.Client, cfg objectstore.Config) httpserver.ReadinessCheck {
	return httpserver.ReadinessCheck{
		Name: "minio",
		Check: func(ctx context.Context) error {
			checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
			defer cancel()
			return objectstore.CheckBucket(checkCtx, client, cfg)
		},
	}
}

// purgeSessions drops expired wizard sessions until ctx is done.
func purgeSessions(ctx context.Context, logger *slog.Logger, store wizard.Store, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.PurgeExpired(ctx, now)
			if err != nil {
				logger.Warn("session purge failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("sessions purged", "count", n)
			}
		}
	}
}

// registerAuthRoutes mounts the operator login flow used by the upload listing.
func registerAuthRoutes(mux *http.ServeMux, cfg auth.Config, oidcService *auth.OIDCService, admin func(http.Handler) http.Handler) {
	notConfigured := func(w http.ResponseWriter, r *http.Request) {
		httpserver.WriteJSON(w, http.StatusNotImplemented, map[string]any{"error": "login_not_configured"})
	}
	mux.Handle("GET /auth/session", admin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, _ := auth.IdentityFromContext(r.Context())
		httpserver.WriteJSON(w, http.StatusOK, map[string]any{
			"subject": identity.Subject,
			"email":   identity.Email,
			"roles":   identity.Roles,
			"mode":    string(cfg.Mode),
		})
	})))

	if oidcService == nil {
		mux.HandleFunc("/auth/login", notConfigured)
		mux.HandleFunc("/auth/callback", notConfigured)
		mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
		})
		return
	}

	mux.HandleFunc("/auth/login", oidcService.LoginHandler())
	mux.HandleFunc("/auth/callback", oidcService.CallbackHandler())
	mux.HandleFunc("/auth/logout", oidcService.LogoutHandler())
}
