package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Lelo88/inventory-api-golang/internal/config"
	"github.com/Lelo88/inventory-api-golang/internal/db"
	"github.com/Lelo88/inventory-api-golang/internal/docs"
	"github.com/Lelo88/inventory-api-golang/internal/drafts"
	"github.com/Lelo88/inventory-api-golang/internal/entry"
	"github.com/Lelo88/inventory-api-golang/internal/health"
	"github.com/Lelo88/inventory-api-golang/internal/httpx"
	"github.com/Lelo88/inventory-api-golang/internal/items"
	"github.com/Lelo88/inventory-api-golang/internal/store"
	"github.com/Lelo88/inventory-api-golang/internal/telemetry"
)

// appPool es lo que la app usa del pool de PostgreSQL.
type appPool interface {
	items.DB
	db.Execer
	Ping(ctx context.Context) error
	Close()
}

type appDeps struct {
	loadConfig     func() (config.Config, error)
	newPool        func(ctx context.Context, url string) (appPool, error)
	newDrafts      func(ctx context.Context, redisURL string, ttl time.Duration) (drafts.Store, error)
	setupTelemetry func(ctx context.Context, cfg telemetry.Config) (telemetry.ShutdownFunc, error)
	listenAndServe func(addr string, handler http.Handler) error
	logf           func(format string, args ...any)
}

// application es lo que necesita el router ya armado.
type application struct {
	repository   items.RepositoryAPI
	store        health.Pinger
	drafts       drafts.Store
	draftsPinger health.Pinger
	logger       *slog.Logger
	serviceName  string
}

var (
	loadConfigFn = config.Load
	newPoolFn    = func(ctx context.Context, url string) (appPool, error) {
		pool, err := db.NewPool(ctx, url)
		if err != nil {
			return nil, err
		}
		return pool, nil
	}
	newDraftsFn      = drafts.NewStore
	setupTelemetryFn = telemetry.Setup
	listenAndServeFn = http.ListenAndServe
	logfFn           = log.Printf
	fatalf           = log.Fatal
)

func main() {
	deps := appDeps{
		loadConfig:     loadConfigFn,
		newPool:        newPoolFn,
		newDrafts:      newDraftsFn,
		setupTelemetry: setupTelemetryFn,
		listenAndServe: listenAndServeFn,
		logf:           logfFn,
	}

	if err := run(context.Background(), deps); err != nil {
		fatalf(err)
	}
}

func run(ctx context.Context, deps appDeps) error {
	cfg, err := deps.loadConfig()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	shutdown, err := deps.setupTelemetry(ctx, telemetry.Config{
		Exporter:    cfg.OTelExporter,
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: cfg.OTelServiceName,
	})
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}()

	repository, storePinger, closeStore, err := openStore(ctx, cfg, deps)
	if err != nil {
		return err
	}
	defer closeStore()

	draftStore, err := deps.newDrafts(ctx, cfg.RedisURL, cfg.DraftTTL)
	if err != nil {
		return err
	}
	if closer, ok := draftStore.(io.Closer); ok {
		defer closer.Close()
	}
	var draftsPinger health.Pinger
	if cfg.RedisURL != "" {
		draftsPinger = draftStore
	}

	router := buildRouter(application{
		repository:   repository,
		store:        storePinger,
		drafts:       draftStore,
		draftsPinger: draftsPinger,
		logger:       logger,
		serviceName:  cfg.OTelServiceName,
	})

	addr := ":" + cfg.Port
	deps.logf("listening on %s", addr)
	return deps.listenAndServe(addr, router)
}

// openStore elige el repositorio de items según STORE.
// Con PostgreSQL también aplica el esquema.
func openStore(ctx context.Context, cfg config.Config, deps appDeps) (items.RepositoryAPI, health.Pinger, func(), error) {
	switch cfg.Store {
	case "", config.StorePostgres:
		pool, err := deps.newPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		deps.logf("using postgres store")
		return items.NewRepository(pool), pool, pool.Close, nil
	case config.StoreMemory, config.StoreFile:
		local, err := store.NewStore(cfg.Store, cfg.StoreFile)
		if err != nil {
			return nil, nil, nil, err
		}
		deps.logf("using %s store", cfg.Store)
		return local, local, func() {}, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown store: %s", cfg.Store)
	}
}

func buildRouter(app application) http.Handler {
	r := chi.NewRouter()

	// Middlewares base para trazabilidad y estabilidad.
	r.Use(telemetry.Middleware(app.serviceName))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	// Errores de routing se manejan a nivel router.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, r, http.StatusNotFound, "not_found", "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	healthHandler := health.New(app.store, app.draftsPinger)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	docs.RegisterRoutes(r)

	items.RegisterRoutes(r, items.NewHandler(items.NewService(app.repository)))

	manager := entry.NewManager(app.repository, app.drafts, app.logger)
	entry.RegisterRoutes(r, entry.NewHandler(manager))

	return r
}
