// Package startup runs the one-shot startup pipeline (resolve configuration,
// connect to the database, mark ready) and owns the readiness flag the HTTP
// layer reports.
package startup

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/db-bootstrap-api/internal/database"
	"github.com/couchcryptid/db-bootstrap-api/internal/model"
	"github.com/couchcryptid/db-bootstrap-api/internal/observability"
	"github.com/couchcryptid/db-bootstrap-api/internal/secrets"
)

var errAlreadyRun = errors.New("startup already run")

// ManagerFactory builds the connectivity manager for a resolved configuration.
type ManagerFactory func(cfg model.ConnectionConfig) *database.Manager

// Coordinator sequences startup. Readiness moves from false to true at most
// once and is never reset.
type Coordinator struct {
	provider   secrets.Provider
	newManager ManagerFactory
	metrics    *observability.Metrics
	logger     *slog.Logger
	startedAt  time.Time

	started atomic.Bool
	ready   atomic.Bool
	manager atomic.Pointer[database.Manager]
}

// New returns a coordinator. Uptime is measured from this call.
func New(provider secrets.Provider, newManager ManagerFactory, m *observability.Metrics, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		provider:   provider,
		newManager: newManager,
		metrics:    m,
		logger:     logger,
		startedAt:  time.Now(),
	}
}

// Run resolves the configuration, connects, and marks the service ready.
// Errors from either step are returned unchanged and leave the service not
// ready. Run may only be called once.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return errAlreadyRun
	}

	source := c.provider.Source()
	cfg, err := c.provider.Resolve(ctx)
	if err != nil {
		c.metrics.ConfigResolutions.WithLabelValues(source, "failure").Inc()
		return err
	}
	c.metrics.ConfigResolutions.WithLabelValues(source, "success").Inc()
	c.logger.Info("database config resolved", "source", source, "target", cfg.Redacted())

	mgr := c.newManager(cfg)
	c.manager.Store(mgr)
	if err := mgr.Connect(ctx); err != nil {
		return err
	}

	c.markReady()
	return nil
}

func (c *Coordinator) markReady() {
	if c.ready.CompareAndSwap(false, true) {
		c.metrics.AppReady.Set(1)
		c.logger.Info("service ready", "startup_duration", time.Since(c.startedAt))
	}
}

// Ready reports whether startup completed.
func (c *Coordinator) Ready() bool {
	return c.ready.Load()
}

// IsConnected reports the connectivity manager's state; false before Run
// has created one.
func (c *Coordinator) IsConnected() bool {
	mgr := c.manager.Load()
	return mgr != nil && mgr.IsConnected()
}

// Uptime is the time since the coordinator was created.
func (c *Coordinator) Uptime() time.Duration {
	return time.Since(c.startedAt)
}

// StartedAt returns when the coordinator was created.
func (c *Coordinator) StartedAt() time.Time {
	return c.startedAt
}

// Manager returns the connectivity manager, nil until Run has resolved a configuration.
func (c *Coordinator) Manager() *database.Manager {
	return c.manager.Load()
}
