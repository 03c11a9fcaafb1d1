package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"

	"github.com/vadim/comments-fetcher/internal/config"
	httpcontroller "github.com/vadim/comments-fetcher/internal/controller/http"
	"github.com/vadim/comments-fetcher/internal/database"
	commentsvc "github.com/vadim/comments-fetcher/internal/domain/comment/service"
	jobdao "github.com/vadim/comments-fetcher/internal/domain/job/dao"
	jobpolicy "github.com/vadim/comments-fetcher/internal/domain/job/policy"
	jobsvc "github.com/vadim/comments-fetcher/internal/domain/job/service"
	resultdao "github.com/vadim/comments-fetcher/internal/domain/result/dao"
	"github.com/vadim/comments-fetcher/internal/domain/result/scheduler"
	resultsvc "github.com/vadim/comments-fetcher/internal/domain/result/service"
	"github.com/vadim/comments-fetcher/internal/events"
	"github.com/vadim/comments-fetcher/internal/httpx/response"
	"github.com/vadim/comments-fetcher/internal/httpx/upstream/youtube"
	"github.com/vadim/comments-fetcher/internal/metrics"
	"github.com/vadim/comments-fetcher/internal/storage"
)

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger

	// Infrastructure, each nil when not configured
	pg   *pgxpool.Pool
	s3   *storage.S3Storage
	nats *nats.Conn
	js   nats.JetStreamContext

	metrics *metrics.Metrics
	auth    *httpcontroller.Authenticator

	// Domain layers
	results   *resultsvc.Service
	jobPolicy *jobpolicy.Policy

	// Scheduler for deleting expired results
	scheduler *scheduler.Scheduler
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Log.Level),
	}))

	// Initialize router with middleware
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-Key", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	app := &App{
		cfg:     cfg,
		router:  r,
		logger:  logger,
		metrics: metrics.New(),
	}

	// Initialize infrastructure
	if err := app.initInfrastructure(ctx); err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("initializing infrastructure: %w", err)
	}

	// Initialize domain layers
	if err := app.initDomains(ctx); err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("initializing domains: %w", err)
	}

	// Register routes
	app.registerRoutes()

	// Initialize HTTP server
	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Initialize scheduler
	if cfg.Retention.Enabled {
		app.scheduler = scheduler.New(app.results, cfg.Retention.Interval, cfg.Retention.MaxAge, logger)
	}

	return app, nil
}

// initInfrastructure connects the optional backing services
func (a *App) initInfrastructure(ctx context.Context) error {
	if a.cfg.Database.PostgresDSN != "" {
		pool, err := database.NewPostgresPool(ctx, database.PoolConfig{
			DSN:      a.cfg.Database.PostgresDSN,
			MaxConns: a.cfg.Database.MaxConns,
			MinConns: a.cfg.Database.MinConns,
		})
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		a.pg = pool
		a.logger.Info("connected to postgres")
	} else {
		a.logger.Warn("DATABASE_URL not set, result index kept in memory")
	}

	if a.cfg.S3.Bucket != "" {
		s3, err := storage.NewS3Storage(storage.S3Config{
			Endpoint:        a.cfg.S3.Endpoint,
			AccessKeyID:     a.cfg.S3.AccessKeyID,
			SecretAccessKey: a.cfg.S3.SecretAccessKey,
			Bucket:          a.cfg.S3.Bucket,
			Region:          a.cfg.S3.Region,
		})
		if err != nil {
			return fmt.Errorf("creating s3 client: %w", err)
		}
		a.s3 = s3
		a.logger.Info("using s3 result storage", "bucket", a.cfg.S3.Bucket)
	} else {
		a.logger.Warn("S3_BUCKET not set, result payloads kept in memory")
	}

	if a.cfg.NATS.URL != "" {
		nc, js, err := events.Connect(a.cfg.NATS.URL)
		if err != nil {
			return err
		}
		a.nats, a.js = nc, js
		a.logger.Info("connected to nats", "stream", events.StreamName)
	}

	users, err := a.cfg.Auth.Users()
	if err != nil {
		return fmt.Errorf("parsing api keys: %w", err)
	}
	if len(users) == 0 && a.cfg.Auth.AdminKey == "" {
		a.logger.Warn("no api keys configured, every api request will be rejected")
	}
	a.auth = httpcontroller.NewAuthenticator(users, a.cfg.Auth.AdminKey)

	return nil
}

// initDomains initializes domain layers (DAO, Service, Policy)
func (a *App) initDomains(ctx context.Context) error {
	var meta resultdao.MetadataRepository = resultdao.NewMetadataMemory()
	if a.pg != nil {
		repo := resultdao.NewMetadataPostgres(a.pg)
		if err := repo.Migrate(ctx); err != nil {
			return err
		}
		meta = repo
	}

	var payloads resultdao.PayloadStore = resultdao.NewPayloadMemory()
	if a.s3 != nil {
		payloads = resultdao.NewPayloadS3(a.s3)
	}

	a.results = resultsvc.New(meta, payloads, a.logger, resultsvc.WithDeleteRecorder(a.metrics))

	ytClient := youtube.New(
		youtube.WithBaseURL(a.cfg.YouTube.BaseURL),
		youtube.WithAPIKey(a.cfg.YouTube.APIKey),
		youtube.WithRateLimit(a.cfg.YouTube.RequestsPerSecond, a.cfg.YouTube.Burst),
	)

	analyzer := commentsvc.New(commentsvc.WithBatchSize(a.cfg.Analysis.BatchSize))
	status := jobdao.NewStatusMemory()

	jobs := jobsvc.New(ytClient, analyzer, a.results, status, a.logger,
		jobsvc.WithAnalysisTimeout(a.cfg.Analysis.Timeout),
	)

	a.jobPolicy = jobpolicy.New(jobs, status, events.New(a.js, a.logger), a.metrics, a.logger, jobpolicy.Config{
		Workers:        a.cfg.Analysis.Workers,
		MaxUploadBytes: a.cfg.Analysis.MaxUploadBytes,
		MaxPages:       a.cfg.YouTube.MaxPages,
	})

	return nil
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() {
	// Health check
	a.router.Get("/healthz", a.healthHandler)
	a.router.Get("/readyz", a.readyHandler)
	a.router.Handle("/metrics", a.metrics.Handler())

	// Swagger UI documentation
	swaggerHandler := httpcontroller.NewSwaggerHandler("YouTube Comments Fetcher API", OpenAPISpec)
	swaggerHandler.RegisterRoutes(a.router)

	authHandler := httpcontroller.NewAuthHandler(a.auth)

	// API v1
	a.router.Route("/api/v1", func(r chi.Router) {
		authHandler.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(a.auth.Middleware)

			authHandler.RegisterRoutes(r)

			jobHandler := httpcontroller.NewJobHandler(a.jobPolicy, a.cfg.Analysis.MaxUploadBytes)
			jobHandler.RegisterRoutes(r)

			resultHandler := httpcontroller.NewResultHandler(a.results)
			resultHandler.RegisterRoutes(r)
		})
	})
}

// healthHandler handles health check requests
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// readyHandler checks the configured backing services
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	ready := true

	if a.pg != nil {
		checks["postgres"] = "ok"
		if err := a.pg.Ping(ctx); err != nil {
			checks["postgres"] = err.Error()
			ready = false
		}
	}
	if a.s3 != nil {
		checks["s3"] = "ok"
		if err := a.s3.Ping(ctx); err != nil {
			checks["s3"] = err.Error()
			ready = false
		}
	}
	if a.nats != nil {
		checks["nats"] = a.nats.Status().String()
		if !a.nats.IsConnected() {
			ready = false
		}
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not ready", http.StatusServiceUnavailable
	}

	response.JSON(w, code, map[string]any{"status": status, "checks": checks})
}

// Run starts the application and blocks until shutdown signal
func (a *App) Run(ctx context.Context) error {
	// Start scheduler if enabled
	if a.scheduler != nil {
		a.scheduler.Start(ctx)
	}

	// Channel to receive errors from server
	errCh := make(chan error, 1)

	// Start HTTP server in goroutine
	go func() {
		a.logger.Info("starting HTTP server", "addr", a.cfg.Server.Address())
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	// Graceful shutdown
	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	// Stop scheduler
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	// Let running jobs finish, canceling them at the deadline
	if err := a.jobPolicy.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("jobs canceled during shutdown", "error", err)
	}

	a.closeInfrastructure()

	a.logger.Info("shutdown complete")
	return nil
}

func (a *App) closeInfrastructure() {
	if a.nats != nil {
		if err := a.nats.Drain(); err != nil {
			a.logger.Warn("failed to drain nats connection", "error", err)
		}
	}
	if a.pg != nil {
		a.pg.Close()
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
