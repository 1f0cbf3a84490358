package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/hairhealth/internal/adapters/artifacts"
	"github.com/okian/hairhealth/internal/adapters/http/api"
	"github.com/okian/hairhealth/internal/adapters/http/swagger"
	"github.com/okian/hairhealth/internal/adapters/report"
	"github.com/okian/hairhealth/internal/adapters/repository"
	service "github.com/okian/hairhealth/internal/app"
	"github.com/okian/hairhealth/internal/config"
	"github.com/okian/hairhealth/pkg/logger"
	"github.com/okian/hairhealth/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 30 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "server exited", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// A missing .env is fine; the process environment still applies.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.InitWith(os.Stdout, cfg.LogFormat); err != nil {
		return err
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	sessions := repository.NewMemoryStore(
		repository.WithTTL(cfg.SessionTTL()),
		repository.WithMaxEntries(cfg.SessionMaxEntries),
	)
	sessions.Start(ctx)
	defer func() { _ = sessions.Close() }()

	srv, err := newHTTPServer(ctx, cfg, sessions)
	if err != nil {
		return err
	}

	go startSystemMetricsUpdater(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newHTTPServer loads the trained artifacts and wires the web application.
// Startup fails when the models cannot be loaded.
func newHTTPServer(ctx context.Context, cfg *config.Config, sessions repository.Store) (*http.Server, error) {
	log := logger.Get()

	store := artifacts.NewStore(cfg.ArtifactDir, artifacts.WithLogger(log))
	b, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load models from %s: %w", cfg.ArtifactDir, err)
	}
	publishTrainingReport(ctx, store)

	svc, err := service.New(
		service.WithBundle(b),
		service.WithThreshold(cfg.ScoreThreshold),
		service.WithLogger(log.Named("service")),
	)
	if err != nil {
		return nil, err
	}

	apiServer, err := api.NewServer(svc,
		api.WithSessions(sessions),
		api.WithReports(report.NewPDFRenderer(
			report.WithTitle(cfg.ReportTitle),
			report.WithFont(cfg.ReportFont, cfg.ReportFontSize),
		)),
		api.WithLogger(log.Named("http")),
		api.WithCookie(api.CookieConfig{
			Name:     cfg.SessionCookieName,
			HashKey:  []byte(cfg.SessionHashKey),
			BlockKey: []byte(cfg.SessionBlockKey),
			MaxAge:   cfg.SessionTTL(),
		}),
	)
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Routes(swagger.Register),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}, nil
}

// publishTrainingReport exposes the held-out metrics of the loaded models.
// Models trained without a report still serve.
func publishTrainingReport(ctx context.Context, store *artifacts.Store) {
	rep, err := store.LoadReport(ctx)
	if err != nil {
		if errors.Is(err, artifacts.ErrNoReport) {
			logger.Get().Warn(ctx, "no training report found; holdout metrics unavailable")
			return
		}
		logger.Get().Warn(ctx, "failed to read training report", logger.Error(err))
		return
	}
	metrics.SetHoldoutMetrics(rep.Score.RMSE, rep.Score.MAE, rep.Score.R2, rep.Risk.Accuracy, rep.Rows)
	logger.Get().Info(ctx, "models loaded",
		logger.String("trained_at", rep.TrainedAt.Format(time.RFC3339)),
		logger.Int("rows", rep.Rows),
		logger.Float64("rmse", rep.Score.RMSE),
		logger.Float64("accuracy", rep.Risk.Accuracy),
	)
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
