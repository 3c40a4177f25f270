package database

import "context"

// CheckReadiness pings the database to verify live connectivity. Unlike
// IsConnected it performs I/O.
func (m *Manager) CheckReadiness(ctx context.Context) error {
	if m.pool == nil || !m.IsConnected() {
		return errNotConnected
	}
	return m.pool.Ping(ctx)
}
