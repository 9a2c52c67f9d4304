package gameserver

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/partygames/mafia/internal/game/mafia"
	"github.com/partygames/mafia/internal/game/session"
)

// ErrNotAssignable is returned when a session is inactive or already seated.
var ErrNotAssignable = errors.New("session cannot be assigned to a game")

// GameFactory creates an empty game with the given id and seat count.
type GameFactory func(id uuid.UUID, capacity int) *mafia.Game

// NewGameFactory returns the production GameFactory: roles are shuffled with
// crypto randomness and each game logs through logger.
func NewGameFactory(logger *zap.Logger) GameFactory {
	return func(id uuid.UUID, capacity int) *mafia.Game {
		return mafia.NewGame(id, capacity, mafia.WithLogger(logger))
	}
}

// MatchMaker seats game-less active sessions, filling open games oldest
// first and opening a new game when none has room.
type MatchMaker struct {
	registry *session.Registry
	games    *GameStore
	router   *NotificationRouter
	capacity int
	newGame  GameFactory
	logger   *zap.Logger
}

// NewMatchMaker creates a MatchMaker that opens games with capacity seats.
//
// Precondition: capacity must have an entry in mafia.RoleTable; all other
// arguments must be non-nil.
func NewMatchMaker(registry *session.Registry, games *GameStore, router *NotificationRouter, capacity int, newGame GameFactory, logger *zap.Logger) *MatchMaker {
	return &MatchMaker{
		registry: registry,
		games:    games,
		router:   router,
		capacity: capacity,
		newGame:  newGame,
		logger:   logger,
	}
}

// Assign seats the session in a game.
//
// Precondition: The session must be active and have no game.
// Postcondition: Returns the id of the game the session now sits in, or
// ErrNotAssignable. Existing members learn of the join and the joiner learns
// of every existing member.
func (m *MatchMaker) Assign(id uuid.UUID) (uuid.UUID, error) {
	sess, ok := m.registry.Get(id)
	if !ok || !sess.Active || sess.InGame() {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrNotAssignable, id)
	}

	game, joined := m.joinOpen(sess.Name)
	if !joined {
		game = m.newGame(uuid.New(), m.capacity)
		game.AddPlayer(sess.Name)
		m.games.Add(game)
		m.logger.Info("game created",
			zap.Stringer("game", game.ID()),
			zap.Int("capacity", game.Capacity()),
			zap.String("first_player", sess.Name),
		)
	}

	if err := m.registry.AssignGame(sess.ID, game.ID()); err != nil {
		_ = game.Withdraw(sess.Name)
		return uuid.Nil, err
	}
	if current, _ := m.registry.Get(sess.ID); !current.Active {
		// Left while being seated.
		_ = game.Withdraw(sess.Name)
		m.registry.ClearGame(sess.Name, game.ID())
		return uuid.Nil, fmt.Errorf("%w: %s", ErrNotAssignable, id)
	}

	if joined {
		for _, member := range game.Members() {
			if member == sess.Name {
				continue
			}
			if other, ok := m.registry.ActiveByName(member); ok && other.GameID == game.ID() {
				m.router.Join(member, sess.Name)
			}
			m.router.Join(sess.Name, member)
		}
	}

	m.logger.Info("player seated",
		zap.String("player", sess.Name),
		zap.Stringer("game", game.ID()),
		zap.Bool("new_game", !joined),
	)
	return game.ID(), nil
}

func (m *MatchMaker) joinOpen(name string) (*mafia.Game, bool) {
	for _, g := range m.games.All() {
		if g.Open() && g.AddPlayer(name) {
			return g, true
		}
	}
	return nil, false
}
