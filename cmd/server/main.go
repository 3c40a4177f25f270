package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/db-bootstrap-api/internal/api"
	"github.com/couchcryptid/db-bootstrap-api/internal/config"
	"github.com/couchcryptid/db-bootstrap-api/internal/database"
	"github.com/couchcryptid/db-bootstrap-api/internal/model"
	"github.com/couchcryptid/db-bootstrap-api/internal/observability"
	"github.com/couchcryptid/db-bootstrap-api/internal/secrets"
	"github.com/couchcryptid/db-bootstrap-api/internal/startup"
	"golang.org/x/sync/errgroup"
)

const poolStatsInterval = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger, metrics); err != nil {
		cancel()
		logger.Error("service failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// run starts the service and blocks until ctx is cancelled. It returns
// before binding the listener when startup fails.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	provider, err := secrets.NewProvider(ctx, cfg, logger)
	if err != nil {
		return err
	}

	coord := startup.New(provider, func(c model.ConnectionConfig) *database.Manager {
		return database.NewManager(c, cfg.RetryPolicy(), metrics, logger,
			database.WithProbeTimeout(cfg.ProbeTimeout),
			database.WithOpener(database.PoolOpener(cfg.DBSSLMode, cfg.PoolMaxConns)),
		)
	}, metrics, logger)
	defer func() {
		if mgr := coord.Manager(); mgr != nil {
			mgr.Close()
		}
	}()

	// The listener is only bound once the database is reachable.
	if err := coord.Run(ctx); err != nil {
		return err
	}
	mgr := coord.Manager()

	router := api.NewRouter(api.Options{
		State:       coord,
		Readiness:   mgr,
		Metrics:     metrics,
		Logger:      logger,
		MaxInFlight: cfg.MaxInFlight,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           http.TimeoutHandler(router, 25*time.Second, `{"error":"request timeout"}`),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return mgr.CollectPoolStats(gctx, poolStatsInterval)
	})

	if cfg.MonitorInterval > 0 {
		g.Go(func() error {
			return mgr.Monitor(gctx, cfg.MonitorInterval)
		})
	}

	g.Go(func() error {
		logger.Info("server started", "port", cfg.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
