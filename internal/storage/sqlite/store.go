// Package sqlite provides an embedded SQLite player statistics store for
// single-host deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/partygames/mafia/internal/stats"
	"github.com/partygames/mafia/internal/storage/sqlite/migrations"
)

// Store persists player statistics in SQLite. It implements stats.Store.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens the SQLite database at path and applies embedded migrations.
//
// Precondition: path must be a file path; the file is created if missing.
// Postcondition: Returns a ready Store or a non-nil error.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	cleanPath := filepath.Clean(path)

	if err := applyMigrations(cleanPath); err != nil {
		return nil, err
	}

	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

func applyMigrations(path string) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite://"+path)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// UpsertPlayer creates a zeroed record for name if none exists.
func (s *Store) UpsertPlayer(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("player name is required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO players (name, avatar, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (name) DO NOTHING`,
		name, stats.DefaultAvatar, s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert player %s: %w", name, err)
	}
	return nil
}

// IncrementPlayerStats adds d to the record of name.
func (s *Store) IncrementPlayerStats(ctx context.Context, name string, d stats.Delta) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE players
		 SET wins = wins + ?, losses = losses + ?, seconds_played = seconds_played + ?, updated_at = ?
		 WHERE name = ?`,
		d.Wins, d.Losses, d.SecondsPlayed, s.now().UTC().UnixMilli(), name,
	)
	if err != nil {
		return fmt.Errorf("increment stats for %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment stats for %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", stats.ErrPlayerNotFound, name)
	}
	return nil
}

// Get returns the record of name.
func (s *Store) Get(ctx context.Context, name string) (stats.Record, error) {
	var rec stats.Record
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT name, avatar, wins, losses, seconds_played FROM players WHERE name = ?`,
		name,
	).Scan(&rec.Name, &rec.Avatar, &rec.Wins, &rec.Losses, &rec.SecondsPlayed)
	if errors.Is(err, sql.ErrNoRows) {
		return stats.Record{}, fmt.Errorf("%w: %s", stats.ErrPlayerNotFound, name)
	}
	if err != nil {
		return stats.Record{}, fmt.Errorf("get player %s: %w", name, err)
	}
	return rec, nil
}

// List returns every record ordered by name.
func (s *Store) List(ctx context.Context) ([]stats.Record, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT name, avatar, wins, losses, seconds_played FROM players ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var out []stats.Record
	for rows.Next() {
		var rec stats.Record
		if err := rows.Scan(&rec.Name, &rec.Avatar, &rec.Wins, &rec.Losses, &rec.SecondsPlayed); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return out, nil
}

// UpdateAvatar replaces the avatar of name.
func (s *Store) UpdateAvatar(ctx context.Context, name, avatar string) (stats.Record, error) {
	var rec stats.Record
	err := s.sqlDB.QueryRowContext(ctx,
		`UPDATE players SET avatar = ?, updated_at = ? WHERE name = ?
		 RETURNING name, avatar, wins, losses, seconds_played`,
		avatar, s.now().UTC().UnixMilli(), name,
	).Scan(&rec.Name, &rec.Avatar, &rec.Wins, &rec.Losses, &rec.SecondsPlayed)
	if errors.Is(err, sql.ErrNoRows) {
		return stats.Record{}, fmt.Errorf("%w: %s", stats.ErrPlayerNotFound, name)
	}
	if err != nil {
		return stats.Record{}, fmt.Errorf("update avatar for %s: %w", name, err)
	}
	return rec, nil
}
