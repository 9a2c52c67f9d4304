package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/partygames/mafia/internal/stats"
)

// PlayerRepository persists player statistics. It implements stats.Store.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository creates a PlayerRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool with the players
// table migrated.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// UpsertPlayer creates a zeroed record for name if none exists.
//
// Precondition: name must be non-empty.
// Postcondition: A record for name exists; an existing record is unchanged.
func (r *PlayerRepository) UpsertPlayer(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("player name must not be empty")
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO players (name, avatar)
		 VALUES ($1, $2)
		 ON CONFLICT (name) DO NOTHING`,
		name, stats.DefaultAvatar,
	)
	if err != nil {
		return fmt.Errorf("upserting player %s: %w", name, err)
	}
	return nil
}

// IncrementPlayerStats adds d to the record of name in a single statement.
//
// Postcondition: Returns stats.ErrPlayerNotFound if no record exists.
func (r *PlayerRepository) IncrementPlayerStats(ctx context.Context, name string, d stats.Delta) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE players
		 SET wins = wins + $2,
		     losses = losses + $3,
		     seconds_played = seconds_played + $4,
		     updated_at = NOW()
		 WHERE name = $1`,
		name, d.Wins, d.Losses, d.SecondsPlayed,
	)
	if err != nil {
		return fmt.Errorf("incrementing stats for %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", stats.ErrPlayerNotFound, name)
	}
	return nil
}

// Get returns the record of name.
//
// Postcondition: Returns stats.ErrPlayerNotFound if no record exists.
func (r *PlayerRepository) Get(ctx context.Context, name string) (stats.Record, error) {
	var rec stats.Record
	err := r.db.QueryRow(ctx,
		`SELECT name, avatar, wins, losses, seconds_played
		 FROM players WHERE name = $1`,
		name,
	).Scan(&rec.Name, &rec.Avatar, &rec.Wins, &rec.Losses, &rec.SecondsPlayed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stats.Record{}, fmt.Errorf("%w: %s", stats.ErrPlayerNotFound, name)
		}
		return stats.Record{}, fmt.Errorf("querying player %s: %w", name, err)
	}
	return rec, nil
}

// List returns every record ordered by name.
func (r *PlayerRepository) List(ctx context.Context) ([]stats.Record, error) {
	rows, err := r.db.Query(ctx,
		`SELECT name, avatar, wins, losses, seconds_played
		 FROM players ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	defer rows.Close()

	var out []stats.Record
	for rows.Next() {
		var rec stats.Record
		if err := rows.Scan(&rec.Name, &rec.Avatar, &rec.Wins, &rec.Losses, &rec.SecondsPlayed); err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating players: %w", err)
	}
	return out, nil
}

// UpdateAvatar replaces the avatar of name.
//
// Postcondition: Returns the updated record, or stats.ErrPlayerNotFound if
// no record exists.
func (r *PlayerRepository) UpdateAvatar(ctx context.Context, name, avatar string) (stats.Record, error) {
	var rec stats.Record
	err := r.db.QueryRow(ctx,
		`UPDATE players SET avatar = $2, updated_at = NOW()
		 WHERE name = $1
		 RETURNING name, avatar, wins, losses, seconds_played`,
		name, avatar,
	).Scan(&rec.Name, &rec.Avatar, &rec.Wins, &rec.Losses, &rec.SecondsPlayed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stats.Record{}, fmt.Errorf("%w: %s", stats.ErrPlayerNotFound, name)
		}
		return stats.Record{}, fmt.Errorf("updating avatar for %s: %w", name, err)
	}
	return rec, nil
}
