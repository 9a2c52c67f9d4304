// Package stats defines the player statistics collaborator: the record kept
// per player name and the interfaces the game server reports results through.
package stats

import (
	"context"
	"errors"
	"time"
)

// DefaultAvatar is the avatar assigned to a newly created record.
const DefaultAvatar = "img.png"

// ErrPlayerNotFound is returned when no record exists for a name.
var ErrPlayerNotFound = errors.New("player not found")

// Record is the persisted statistics of one player.
type Record struct {
	Name          string
	Avatar        string
	Wins          int64
	Losses        int64
	SecondsPlayed float64
}

// Delta is an increment applied to a Record after a finished game.
type Delta struct {
	Wins          int64
	Losses        int64
	SecondsPlayed float64
}

// GameDelta returns the increment for one seat of a finished game.
//
// Postcondition: Exactly one of Wins and Losses is 1.
func GameDelta(won bool, played time.Duration) Delta {
	d := Delta{SecondsPlayed: played.Seconds()}
	if won {
		d.Wins = 1
	} else {
		d.Losses = 1
	}
	return d
}

// Recorder is the write side used by the game server.
type Recorder interface {
	// UpsertPlayer creates a zeroed record for name if none exists.
	UpsertPlayer(ctx context.Context, name string) error
	// IncrementPlayerStats adds d to the record of name. Returns
	// ErrPlayerNotFound when the record does not exist.
	IncrementPlayerStats(ctx context.Context, name string, d Delta) error
}

// Store is a Recorder that can also be read back.
type Store interface {
	Recorder
	// Get returns the record of name or ErrPlayerNotFound.
	Get(ctx context.Context, name string) (Record, error)
	// List returns every record ordered by name.
	List(ctx context.Context) ([]Record, error)
	// UpdateAvatar replaces the avatar of name and returns the updated
	// record, or ErrPlayerNotFound.
	UpdateAvatar(ctx context.Context, name, avatar string) (Record, error)
}

// Nop is a Store that persists nothing.
type Nop struct{}

func (Nop) UpsertPlayer(context.Context, string) error                { return nil }
func (Nop) IncrementPlayerStats(context.Context, string, Delta) error { return nil }
func (Nop) Get(context.Context, string) (Record, error)               { return Record{}, ErrPlayerNotFound }
func (Nop) List(context.Context) ([]Record, error)                    { return nil, nil }
func (Nop) UpdateAvatar(context.Context, string, string) (Record, error) {
	return Record{}, ErrPlayerNotFound
}
