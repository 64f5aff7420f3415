// Package postgres holds the PostgreSQL plumbing for the audit trail:
// the connection pool, error mapping, transactions and migrations.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/dictionary-writing-system/internal/config"
)

const applicationName = "dws-audit"

// NewPool opens a pgx pool for the audit database and pings it, so a bad
// DSN or unreachable server fails at startup.
func NewPool(ctx context.Context, cfg config.AuditConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse audit DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	if _, ok := poolCfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, MapError(err, "pool", "create")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, MapError(err, "pool", "ping")
	}
	return pool, nil
}
