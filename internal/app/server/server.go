package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"scorecard/internal/domain/audit"
	"scorecard/internal/domain/auth"
	"scorecard/internal/domain/directory"
	"scorecard/internal/domain/evaluations"
	"scorecard/internal/domain/finalscores"
	"scorecard/internal/domain/notifications"
	"scorecard/internal/domain/scores"
	"scorecard/internal/platform/cache"
	"scorecard/internal/platform/config"
	"scorecard/internal/platform/crypto"
	"scorecard/internal/platform/db"
	"scorecard/internal/platform/email"
	"scorecard/internal/platform/jobs"
	"scorecard/internal/platform/metrics"
	audithandler "scorecard/internal/transport/http/handlers/audit"
	authhandler "scorecard/internal/transport/http/handlers/auth"
	directoryhandler "scorecard/internal/transport/http/handlers/directory"
	evaluationshandler "scorecard/internal/transport/http/handlers/evaluations"
	finalscoreshandler "scorecard/internal/transport/http/handlers/finalscores"
	jobshandler "scorecard/internal/transport/http/handlers/jobs"
	notificationshandler "scorecard/internal/transport/http/handlers/notifications"
	scoreshandler "scorecard/internal/transport/http/handlers/scores"
	"scorecard/internal/transport/http/middleware"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Config  config.Config
	DB      *db.Pool
	Router  http.Handler
	Cache   cache.Cache
	Jobs    *jobs.Service
	Metrics *metrics.Collector
	Sealer  *crypto.Sealer
}

// New connects storage, applies migrations and seed data, and assembles the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, db.Migrations()); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	sealer, err := crypto.New(cfg.ReportKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("report encryption: %w", err)
	}

	app := &App{
		Config:  cfg,
		DB:      pool,
		Cache:   cache.New(cfg),
		Metrics: metrics.New(),
		Sealer:  sealer,
	}
	app.Router = app.routes()
	return app, nil
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	perms := auth.PolicyTable{}
	auditSvc := audit.New(a.DB)

	directorySvc := directory.NewService(directory.NewStore(a.DB))
	notificationSvc := notifications.New(notifications.NewStore(a.DB), email.New(cfg))
	scoreSvc := scores.NewService(scores.NewStore(a.DB), directorySvc)
	evaluationSvc := evaluations.NewService(evaluations.NewStore(a.DB), directorySvc, notificationSvc)
	finalScoreSvc := finalscores.NewService(
		finalscores.NewStore(a.DB),
		directorySvc,
		finalscores.WithCache(a.Cache),
		finalscores.WithNotifier(notificationSvc),
		finalscores.WithObserver(a.Metrics),
	)
	if cfg.RankingCacheTTL > 0 {
		finalScoreSvc.RankingTTL = cfg.RankingCacheTTL
	}
	a.Jobs = jobs.New(jobs.NewStore(a.DB), finalScoreSvc, a.Metrics, cfg.JobQueueSize, cfg.RecomputeInterval)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(slog.Default(), a.Metrics))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", a.handleReady)
	if cfg.MetricsEnabled {
		router.Handle("/metrics", a.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		authhandler.NewHandler(auth.NewService(auth.NewStore(a.DB), cfg.JWTSecret, cfg.TokenTTL), directorySvc, auditSvc).RegisterRoutes(r)
		directoryhandler.NewHandler(directorySvc, perms, auditSvc).RegisterRoutes(r)
		scoreshandler.NewHandler(scoreSvc, perms, auditSvc).RegisterRoutes(r)
		evaluationshandler.NewHandler(evaluationSvc, perms, auditSvc).RegisterRoutes(r)
		finalscoreshandler.NewHandler(finalScoreSvc, a.Jobs, perms, auditSvc, cfg.ReportDir, a.Sealer).RegisterRoutes(r)
		notificationshandler.NewHandler(notificationSvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc, perms).RegisterRoutes(r)
		jobshandler.NewHandler(a.Jobs, perms).RegisterRoutes(r)
	})

	return router
}

func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.DB.Ping(ctx); err != nil {
		http.Error(w, "db not ready", http.StatusServiceUnavailable)
		return
	}
	if err := a.Cache.Ping(ctx); err != nil {
		http.Error(w, "cache not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Serve starts the job runner and the HTTP server and blocks until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	jobsCtx, stopJobs := context.WithCancel(ctx)
	defer stopJobs()
	a.Jobs.Start(jobsCtx)

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("scorecard server listening", "addr", a.Config.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	stopJobs()
	a.Jobs.Wait()
	return err
}

func (a *App) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			slog.Warn("cache close failed", "err", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// NewLogger builds the JSON logger used across the process.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// Run is the process entrypoint: it installs the logger, builds the app and
// serves until SIGINT or SIGTERM.
func Run(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	slog.SetDefault(NewLogger(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Serve(ctx)
}
