package database

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/db-bootstrap-api/internal/model"
	"github.com/couchcryptid/db-bootstrap-api/internal/observability"
	"github.com/couchcryptid/db-bootstrap-api/internal/retry"
)

const probeSQL = "SELECT 1"

// State is the connectivity state of the datastore.
type State int32

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	if s == StateConnected {
		return "connected"
	}
	return "disconnected"
}

// Manager owns the connection pool and the connectivity state. Connect is
// called once; every other method is safe for concurrent use after it returns.
type Manager struct {
	cfg          model.ConnectionConfig
	policy       retry.Policy
	clock        retry.Clock
	probeTimeout time.Duration
	open         OpenFunc
	metrics      *observability.Metrics
	logger       *slog.Logger

	pool  Pool
	state atomic.Int32
}

// Option customises a Manager.
type Option func(*Manager)

// WithClock replaces the clock the retry loop waits on.
func WithClock(c retry.Clock) Option { return func(m *Manager) { m.clock = c } }

// WithProbeTimeout bounds each probe query.
func WithProbeTimeout(d time.Duration) Option { return func(m *Manager) { m.probeTimeout = d } }

// WithOpener replaces the pool allocator.
func WithOpener(open OpenFunc) Option { return func(m *Manager) { m.open = open } }

// NewManager creates a manager for cfg. Nothing is allocated until Connect.
func NewManager(cfg model.ConnectionConfig, policy retry.Policy, m *observability.Metrics, logger *slog.Logger, opts ...Option) *Manager {
	mgr := &Manager{
		cfg:          cfg,
		policy:       policy,
		clock:        retry.RealClock,
		probeTimeout: 5 * time.Second,
		open:         PoolOpener("disable", 4),
		metrics:      m,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(mgr)
	}
	return mgr
}

// Connect allocates the pool and probes the database until it answers or the
// retry policy is exhausted. Failed probes are logged and swallowed; only
// exhaustion is returned, as a *ConnectivityError.
func (m *Manager) Connect(ctx context.Context) error {
	if err := m.cfg.Validate(); err != nil {
		return &ConnectivityError{Err: err}
	}
	pool, err := m.open(ctx, m.cfg)
	if err != nil {
		return &ConnectivityError{Err: err}
	}
	m.pool = pool

	m.logger.Info("connecting to database",
		"target", m.cfg.Redacted(),
		"max_attempts", m.policy.MaxAttempts,
		"interval", m.policy.Interval,
	)

	_, err = retry.Do(ctx, m.policy, m.clock, func(ctx context.Context, _ int) (struct{}, error) {
		return struct{}{}, m.probe(ctx)
	}, func(attempt int, err error) {
		m.metrics.DBConnectAttempts.WithLabelValues("failure").Inc()
		m.logger.Warn("database connection failed",
			"attempt", attempt,
			"max_attempts", m.policy.MaxAttempts,
			"error", err,
		)
	})
	if err != nil {
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			return &ConnectivityError{Attempts: exhausted.Attempts, Err: exhausted.Last}
		}
		return &ConnectivityError{Err: err}
	}

	m.metrics.DBConnectAttempts.WithLabelValues("success").Inc()
	m.setState(StateConnected)
	m.logger.Info("connected to database", "address", m.cfg.Address(), "database", m.cfg.Database)
	return nil
}

// IsConnected reports the last known state. It never blocks or reconnects.
func (m *Manager) IsConnected() bool {
	return m.State() == StateConnected
}

// State returns the current connectivity state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Pool returns the underlying pool, nil before Connect.
func (m *Manager) Pool() Pool {
	return m.pool
}

// Close releases the pool.
func (m *Manager) Close() {
	if m.pool == nil {
		return
	}
	m.pool.Close()
	m.setState(StateDisconnected)
}

func (m *Manager) probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()
	_, err := m.pool.Exec(ctx, probeSQL)
	return err
}

func (m *Manager) setState(s State) State {
	prev := State(m.state.Swap(int32(s)))
	if s == StateConnected {
		m.metrics.DBConnected.Set(1)
	} else {
		m.metrics.DBConnected.Set(0)
	}
	return prev
}
