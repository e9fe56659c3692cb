package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"blogapi/internal/assets"
	"blogapi/internal/config"
	"blogapi/internal/content"
	"blogapi/internal/handlers"
	"blogapi/internal/middleware"
	"blogapi/internal/router"
	"blogapi/internal/storage"
	"blogapi/internal/storage/sqlite"
	"blogapi/internal/telemetry"
)

const (
	serviceVersion = "1.0.0"
	workerCount    = 4
)

type App struct {
	Server *http.Server
	Logger *slog.Logger
	Config *config.Config
}

func NewApp(cfg *config.Config, logger *slog.Logger, handler http.Handler) *App {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.Timeouts.Read,
		WriteTimeout: cfg.HTTP.Timeouts.Write,
		IdleTimeout:  cfg.HTTP.Timeouts.Idle,
	}

	return &App{
		Server: server,
		Logger: logger,
		Config: cfg,
	}
}

func (a *App) Run(ctx context.Context) error {
	srvErrChan := make(chan error, 1)

	go func() {
		a.Logger.Info("server starting", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErrChan <- err
		}
	}()

	select {
	case err := <-srvErrChan:
		return fmt.Errorf("server startup failed: %w", err)
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	}

	// attempt clean shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.HTTP.Timeouts.Shutdown)
	defer cancel()

	a.Logger.Info("draining connections...")
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		// graceful shutdown timed out
		if closeErr := a.Server.Close(); closeErr != nil {
			return fmt.Errorf("graceful shutdown failed: %w", errors.Join(err, closeErr))
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	a.Logger.Info("server stopped")
	return nil
}

func newProvider(cfg *config.Config) (storage.Provider, error) {
	switch cfg.Storage.Backend {
	case "s3":
		return storage.NewS3Store(cfg.S3)
	case "local":
		return storage.NewLocalStorage(cfg.Storage.UploadsDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func main() {
	// .env is optional, real deployments set the environment directly
	godotenv.Load()

	cfg := config.LoadWithDefaults()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("invalid configuration: %v", err))
	}

	logHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Logger.Level})
	logger := slog.New(logHandler).With("app", cfg.App.Name)

	logger.Info("application starting", "pid", os.Getpid())
	logger.Info("configuration loaded",
		"name", cfg.App.Name,
		"env", cfg.App.Environment,
		"port", cfg.HTTP.Port,
		"db", cfg.DB.Path,
		"storage_backend", cfg.Storage.Backend,
		"rate_limit_rps", cfg.Limiter.RPS,
		"trusted_proxy", cfg.Proxy.Trusted,
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Init(rootCtx, cfg.App.Name, serviceVersion, cfg.App.Environment, cfg.Telemetry.OtelEndpoint, cfg.Telemetry.EnableTelemetry, logger)
	if err != nil {
		logger.Error("could not initialise telemetry", "err", err)
		os.Exit(1)
	}
	defer tel.Shutdown(context.Background())

	metrics, err := telemetry.NewMetrics(tel.Meter)
	if err != nil {
		logger.Error("could not create metrics", "err", err)
		os.Exit(1)
	}

	provider, err := newProvider(cfg)
	if err != nil {
		logger.Error("could not initialise asset storage", "err", err)
		os.Exit(1)
	}

	store, err := sqlite.NewStore(cfg.DB.Path)
	if err != nil {
		logger.Error("could not open database", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Migrate(cfg.DB.MigrationsPath); err != nil {
		logger.Error("could not run migrations", "err", err)
		os.Exit(1)
	}

	processor := content.NewProcessor(rootCtx, provider, workerCount, logger)
	assetStore := assets.NewStore(provider, assets.DefaultCategories(), cfg.Storage.PublicBaseURL, processor, logger)

	ingestor := content.NewIngestor(
		assetStore,
		content.NewExtractor(assetStore, logger),
		content.NewSanitizer(content.DefaultSanitizerRules()),
		store,
		logger,
		metrics,
	)

	limiter := middleware.NewIPRateLimiter(rootCtx, cfg.Limiter.RPS, cfg.Limiter.Burst, cfg.Proxy.Trusted, metrics)

	blogHandler := handlers.NewBlogHandler(ingestor, store, cfg.Upload.MaxFormMemory, cfg.Upload.MaxRequestSize, logger)
	assetHandler := &handlers.AssetHandler{
		Provider: provider,
		Variants: processor,
		Tracer:   tel.Tracer,
		Metrics:  metrics,
		Logger:   logger,
	}

	handler := router.NewRouter(router.RouterDependencies{
		Cfg:          cfg,
		Logger:       logger,
		BlogHandler:  blogHandler,
		AssetHandler: assetHandler,
		Limiter:      limiter,
		Tracer:       tel.Tracer,
		Metrics:      metrics,
		Telemetry:    tel,
	})

	app := NewApp(cfg, logger, handler)

	if err := app.Run(rootCtx); err != nil {
		logger.Error("server crashed", "err", err)
		os.Exit(1)
	}

	logger.Info("application exited successfully")
}
