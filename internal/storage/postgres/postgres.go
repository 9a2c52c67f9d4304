// Package postgres is the PostgreSQL backend of the player stats store,
// built on pgx v5. The schema is applied separately by cmd/migrate.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/partygames/mafia/internal/config"
)

const applicationName = "mafia-gameserver"

// Store is a stats.Store backed by PostgreSQL. It owns its connection pool.
type Store struct {
	*PlayerRepository
	pool *pgxpool.Pool
}

// Open connects to the stats database described by cfg.
//
// Precondition: The players table must already be migrated.
// Postcondition: Returns a Store whose pool answered a ping, or a non-nil
// error with no pool left open.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing stats database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating stats pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging stats database %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &Store{PlayerRepository: NewPlayerRepository(pool), pool: pool}, nil
}

// Health pings the stats database, giving up after timeout.
func (s *Store) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("stats database unreachable: %w", err)
	}
	return nil
}

// Close releases the pool. Stats calls fail afterwards.
func (s *Store) Close() {
	s.pool.Close()
}
