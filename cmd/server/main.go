package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"secdash/config"
	"secdash/internal/backend"
	"secdash/internal/handlers"
	"secdash/internal/locale"
	"secdash/internal/logger"
	"secdash/internal/metrics"
	"secdash/internal/records"
	"secdash/internal/session"
	"secdash/internal/storage"
	"secdash/internal/uploads"
	"secdash/internal/version"
	"secdash/middleware"
)

const (
	defaultBodyLimit     int64 = 1 << 20
	uploadBodyOverhead   int64 = 1 << 20
	localeJanitorPeriod        = time.Minute
	shutdownTimeout            = 10 * time.Second
	serverReadTimeout          = 15 * time.Minute
	serverWriteTimeout         = 15 * time.Minute
	serverIdleTimeout          = 60 * time.Second
	serverReadHeaderTimeout    = 10 * time.Second
)

// routerDeps are the long-lived components the router serves from.
type routerDeps struct {
	Backend  backend.Client
	Store    *storage.Store
	DB       *sql.DB
	Uploads  *uploads.Repository
	Loader   locale.Loader
	Locales  *locale.Registry
	Sessions *session.Manager
	Registry *prometheus.Registry
	Observer handlers.RecordsObserver
	Settings *handlers.SettingsStore
	WebFS    fs.FS
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(logger.Options{})
		logger.Get().Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(logger.Options{
		Level:    cfg.LogLevel,
		Format:   cfg.LogFormat,
		Output:   cfg.LogOutput,
		FilePath: cfg.LogFilePath,
	})
	log := logger.Get()

	log.Info().
		Str("version", version.Version).
		Msg("Security dashboard starting")

	log.Info().
		Str("env", string(cfg.Env)).
		Str("log_level", cfg.LogLevel).
		Str("log_format", cfg.LogFormat).
		Bool("demo_backend", cfg.Backend.Demo()).
		Msg("Configuration loaded")

	store, err := storage.Open(cfg.Storage.ClientsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Storage.ClientsPath).Msg("Failed to open client storage")
	}

	db, err := uploads.Open(cfg.Storage.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Storage.DatabasePath).Msg("Failed to open upload database")
	}
	repo := uploads.NewRepository(db)

	client, err := newBackendClient(cfg.Backend)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize backend client")
	}
	log.Info().
		Str("backend_url", cfg.Backend.URL).
		Dur("backend_timeout", cfg.Backend.Timeout).
		Msg("Backend client initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loader := locale.NewDefaultLoader(cfg.Locale.Dir, cfg.Locale.CacheTTL)
	loader.StartJanitor(ctx, localeJanitorPeriod)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	localeMetrics, err := metrics.NewLocaleMetrics(registry)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register locale metrics")
	}
	resolvers := locale.NewRegistry(ctx, loader, cfg.Locale.MaxClients, locale.WithObserver(localeMetrics))
	collector := metrics.NewCollector(client, repo, store, resolvers.Len)
	registry.MustRegister(collector)

	webFS, err := fs.Sub(embeddedWeb, "web")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize embedded web filesystem")
	}

	router, err := buildRouter(cfg, routerDeps{
		Backend:  client,
		Store:    store,
		DB:       db,
		Uploads:  repo,
		Loader:   loader,
		Locales:  resolvers,
		Sessions: session.NewManager(store, cfg.SessionTTL, cfg.IsProd()),
		Registry: registry,
		Observer: collector,
		Settings: handlers.NewSettingsStore(cfg.SettingsPath),
		WebFS:    webFS,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build router")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       serverReadTimeout,
		ReadHeaderTimeout: serverReadHeaderTimeout,
		WriteTimeout:      serverWriteTimeout,
		IdleTimeout:       serverIdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	cancel()
	client.Shutdown()
	if err := db.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close upload database")
	}
	if err := store.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close client storage")
	}

	log.Info().Msg("Server stopped")
}

func newBackendClient(cfg config.BackendConfig) (backend.Client, error) {
	if cfg.Demo() {
		logger.Get().Warn().Msg("BACKEND_URL is empty, serving the built-in demo backend")
		return backend.NewDemoClient(backend.DefaultDemoCredentials)
	}
	return backend.NewHTTPClient(backend.HTTPConfig{
		BaseURL:  cfg.URL,
		Timeout:  cfg.Timeout,
		CacheTTL: cfg.CacheTTL,
	})
}

// buildRouter assembles the middleware chain, the operational endpoints and
// the dashboard routes.
func buildRouter(cfg config.Config, deps routerDeps) (http.Handler, error) {
	if deps.WebFS == nil {
		return nil, fmt.Errorf("web filesystem is nil")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session manager is nil")
	}
	assetsFS, err := fs.Sub(deps.WebFS, "assets")
	if err != nil {
		return nil, fmt.Errorf("assets filesystem: %w", err)
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.CORS.AllowedOrigins
	corsConfig.AllowCredentials = cfg.CORS.AllowCredentials

	r := chi.NewRouter()

	// Middleware must be registered before any routes
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.CSRFProtection)
	r.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
	r.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		Default: defaultBodyLimit,
		Overrides: []middleware.BodyLimitOverride{
			{Method: http.MethodPost, Suffix: "/upload", Limit: records.MaxUploadSize + uploadBodyOverhead},
			{Method: http.MethodPost, Suffix: "/avatar", Limit: records.MaxAvatarSize + uploadBodyOverhead},
		},
	}))

	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS))))

	// Health and readiness
	r.Get("/api/health", handlers.HealthCheck)
	r.Get("/api/ready", handlers.ReadinessCheck(readinessChecks(deps)))
	r.Get("/api/status", newStatusHandler(cfg, deps.Backend))
	r.Get("/api/version", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(version.Info())
	})
	r.Get("/api/config", handlers.GetConfig(cfg))
	if deps.Registry != nil {
		r.Get("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}).ServeHTTP)
	}
	if deps.Loader != nil {
		handlers.RegisterI18nRoutes(r, deps.Loader)
	}

	var uploadStore handlers.UploadStore
	if deps.Uploads != nil {
		uploadStore = deps.Uploads
	}
	h := handlers.New(handlers.Dependencies{
		Backend:  deps.Backend,
		Sessions: deps.Sessions,
		Locales:  deps.Locales,
		Uploads:  uploadStore,
		Observer: deps.Observer,
		Settings: deps.Settings,
		WebFS:    deps.WebFS,
	})
	r.Group(func(r chi.Router) {
		r.Use(deps.Sessions.Middleware)
		h.Register(r)
	})
	return r, nil
}

func readinessChecks(deps routerDeps) map[string]handlers.DependencyCheck {
	checks := make(map[string]handlers.DependencyCheck, 3)
	if deps.Store != nil {
		checks["storage"] = deps.Store.Ping
	}
	if deps.DB != nil {
		checks["database"] = deps.DB.PingContext
	}
	if deps.Backend != nil {
		checks["backend"] = deps.Backend.CheckConnection
	}
	return checks
}

type statusResponse struct {
	Version          string `json:"version"`
	BackendConnected bool   `json:"backend_connected"`
	BackendError     string `json:"backend_error,omitempty"`
	DemoBackend      bool   `json:"demo_backend"`
}

func newStatusHandler(cfg config.Config, client backend.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		response := statusResponse{Version: version.Version, DemoBackend: cfg.Backend.Demo()}
		switch {
		case client == nil:
			response.BackendError = "backend client is not configured"
		default:
			if err := client.CheckConnection(req.Context()); err != nil {
				response.BackendError = err.Error()
			} else {
				response.BackendConnected = true
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}
}
