// Package main is the entrypoint for the QualityLens API server.
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
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kiranshivaraju/qualitylens/internal/ai"
	"github.com/kiranshivaraju/qualitylens/internal/analysis"
	"github.com/kiranshivaraju/qualitylens/internal/api"
	"github.com/kiranshivaraju/qualitylens/internal/api/handler"
	mw "github.com/kiranshivaraju/qualitylens/internal/api/middleware"
	"github.com/kiranshivaraju/qualitylens/internal/api/response"
	"github.com/kiranshivaraju/qualitylens/internal/cache"
	"github.com/kiranshivaraju/qualitylens/internal/config"
	"github.com/kiranshivaraju/qualitylens/internal/domain"
	"github.com/kiranshivaraju/qualitylens/internal/intelligence"
	"github.com/kiranshivaraju/qualitylens/internal/intent"
	"github.com/kiranshivaraju/qualitylens/internal/orchestrator"
	"github.com/kiranshivaraju/qualitylens/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	slog.SetDefault(newLogger(slog.LevelInfo))

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(newLogger(cfg.Server.LogLevel))
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	if err := store.RunMigrations(cfg.Database.URL); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	provider, err := ai.NewProvider(ctx, cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	reasoner := ai.NewService(provider, redisCache, cfg.AI)
	slog.Info("AI provider initialized", "provider", reasoner.Name())

	classifier, err := loadClassifier(cfg.Analysis.IntentModelPath)
	if err != nil {
		return fmt.Errorf("load intent model: %w", err)
	}
	slog.Info("intent classifier ready", "labels", len(classifier.Labels()))

	pgStore := store.NewPostgresStore(pool)
	tables := domain.Default()

	engine := analysis.NewEngine(analysis.Config{
		Tables:          tables,
		Topics:          reasoner,
		Local:           classifier,
		TopicSampleSize: cfg.Analysis.TopicSampleSize,
		TopicMinRows:    cfg.Analysis.TopicMinRows,
	})
	orch := orchestrator.New(orchestrator.Config{
		Detector: intent.NewDetector(reasoner, classifier),
		Engine:   engine,
		Insight:  reasoner,
	})
	intel := intelligence.NewService(intelligence.Config{
		Orchestrator: orch,
		Records:      pgStore,
		Reports:      pgStore,
		Status:       redisCache,
	})
	inspector := intelligence.NewInspector(tables, pgStore, nil)

	auth := mw.NewAuth(pgStore)
	checklists := handler.NewChecklists(pgStore, inspector)
	production := handler.NewProduction(pgStore)
	keys := handler.NewKeys(pgStore)

	router := api.NewRouter(api.Dependencies{
		Auth:      auth,
		RateLimit: mw.NewRateLimit(redisCache, cfg.RateLimit),

		HealthHandler:  healthHandler(pgStore, redisCache),
		MetricsHandler: promhttp.Handler(),

		AnalysisHandler:  handler.NewAnalysisHandler(intel, handler.NewSessions(cfg.Analysis.MemoryCapacity, cfg.Analysis.MaxSessions)),
		GetReportHandler: handler.NewGetReportHandler(pgStore, redisCache),

		CreateChecklist:   checklists.Create,
		ListChecklists:    checklists.List,
		GetChecklist:      checklists.Get,
		CompleteChecklist: checklists.Complete,

		CreateProduction: production.Create,
		ListProduction:   production.List,

		CreateKeyHandler: keys.Create,
		ListKeysHandler:  keys.List,
		RevokeKeyHandler: keys.Revoke,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Report jobs and inspections hold the pool and cache; drain them
	// before the deferred closes run.
	if !waitAll(shutdownCtx, intel.Wait, inspector.Wait, auth.Wait) {
		slog.Warn("background jobs still running at shutdown deadline")
	}

	slog.Info("server stopped gracefully")
	return nil
}

// loadClassifier reads a trained intent model from path, or trains one
// from the embedded corpus when path is empty.
func loadClassifier(path string) (*intent.Classifier, error) {
	if path == "" {
		return intent.TrainDefault()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return intent.Load(f)
}

// waitAll runs every wait function and reports whether all returned
// before ctx expired.
func waitAll(ctx context.Context, waits ...func()) bool {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, w := range waits {
			w()
		}
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// healthHandler checks database and cache connectivity.
func healthHandler(db, c pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := db.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
