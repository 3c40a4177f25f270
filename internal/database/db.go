package database

import (
	"context"
	"fmt"

	"github.com/couchcryptid/db-bootstrap-api/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolStats is a snapshot of pool connection counts.
type PoolStats struct {
	Idle     int32
	Acquired int32
	Total    int32
}

// Pool is the connection pool surface the manager depends on.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Stats() PoolStats
	Close()
}

// OpenFunc allocates a pool for cfg.
type OpenFunc func(ctx context.Context, cfg model.ConnectionConfig) (Pool, error)

type pgxPool struct {
	*pgxpool.Pool
}

func (p pgxPool) Stats() PoolStats {
	stat := p.Stat()
	return PoolStats{
		Idle:     stat.IdleConns(),
		Acquired: stat.AcquiredConns(),
		Total:    stat.TotalConns(),
	}
}

// PoolOpener returns an OpenFunc backed by pgxpool. Allocation is lazy: no
// connection is made until the first query.
func PoolOpener(sslMode string, maxConns int32) OpenFunc {
	return func(ctx context.Context, cfg model.ConnectionConfig) (Pool, error) {
		poolCfg, err := pgxpool.ParseConfig(cfg.ConnString(sslMode))
		if err != nil {
			return nil, fmt.Errorf("parse pool config: %w", err)
		}
		poolCfg.MaxConns = maxConns
		poolCfg.MinConns = 0

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("create pool: %w", err)
		}
		return pgxPool{Pool: pool}, nil
	}
}
