package gameserver

import (
	"sync"

	"github.com/google/uuid"

	"github.com/partygames/mafia/internal/game/mafia"
)

// GameStore holds the games of this process, keyed by id and remembered in
// creation order.
type GameStore struct {
	mu    sync.RWMutex
	games map[uuid.UUID]*mafia.Game
	order []uuid.UUID
}

// NewGameStore creates an empty GameStore.
func NewGameStore() *GameStore {
	return &GameStore{games: make(map[uuid.UUID]*mafia.Game)}
}

// Add stores g. Adding an id twice replaces the game but keeps its position.
func (s *GameStore) Add(g *mafia.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.games[g.ID()]; !exists {
		s.order = append(s.order, g.ID())
	}
	s.games[g.ID()] = g
}

// Get returns the game with the given id.
func (s *GameStore) Get(id uuid.UUID) (*mafia.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	return g, ok
}

// Remove discards the game with the given id, if present.
func (s *GameStore) Remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return
	}
	delete(s.games, id)
	for i, gid := range s.order {
		if gid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// All returns a snapshot of every game, oldest first.
func (s *GameStore) All() []*mafia.Game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*mafia.Game, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.games[id])
	}
	return out
}

// Len returns the number of stored games.
func (s *GameStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}
