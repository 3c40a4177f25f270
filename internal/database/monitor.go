package database

import (
	"context"
	"time"
)

// Monitor re-probes the database every interval and flips the connectivity
// state on change, so a lost datastore shows up in health checks. It blocks
// until ctx is cancelled. Connect must have succeeded first.
func (m *Manager) Monitor(ctx context.Context, interval time.Duration) error {
	if m.pool == nil {
		return errNotConnected
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.checkOnce(ctx)
		}
	}
}

func (m *Manager) checkOnce(ctx context.Context) {
	err := m.probe(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		if prev := m.setState(StateDisconnected); prev == StateConnected {
			m.logger.Warn("database connection lost", "error", err)
		}
		return
	}
	if prev := m.setState(StateConnected); prev == StateDisconnected {
		m.logger.Info("database connection restored")
	}
}

// CollectPoolStats exports pool statistics every interval until ctx is cancelled.
func (m *Manager) CollectPoolStats(ctx context.Context, interval time.Duration) error {
	if m.pool == nil {
		return errNotConnected
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.recordPoolStats()
		}
	}
}

func (m *Manager) recordPoolStats() {
	stats := m.pool.Stats()
	m.metrics.DBPoolConnections.WithLabelValues("idle").Set(float64(stats.Idle))
	m.metrics.DBPoolConnections.WithLabelValues("active").Set(float64(stats.Acquired))
	m.metrics.DBPoolConnections.WithLabelValues("total").Set(float64(stats.Total))
}
