// Package client implements the bot player: it hosts mafia.v1.PlayerService,
// registers with the game server and acts on the prompts it receives.
package client

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/partygames/mafia/internal/config"
	"github.com/partygames/mafia/internal/game/deck"
	"github.com/partygames/mafia/internal/game/mafia"
	"github.com/partygames/mafia/internal/gameserver/mafiav1"
)

// ErrNotRegistered is returned by calls that need a session id.
var ErrNotRegistered = errors.New("bot is not registered")

// Bot is a player that picks a random offered action, with a random target
// among the other players it knows of, once per action interval.
// All methods are safe for concurrent use.
type Bot struct {
	mafiav1.UnimplementedPlayerServiceServer

	cfg    config.ClientConfig
	server mafiav1.GameServiceClient
	src    deck.Source
	logger *zap.Logger

	mu      sync.Mutex
	id      string
	role    string
	offered []string
	players map[string]struct{}
}

// NewBot creates an unregistered Bot. An empty cfg.Name is replaced by a
// generated one.
//
// Precondition: server, src and logger must be non-nil.
func NewBot(cfg config.ClientConfig, server mafiav1.GameServiceClient, src deck.Source, logger *zap.Logger) *Bot {
	if cfg.Name == "" {
		cfg.Name = "bot-" + uuid.NewString()[:8]
	}
	return &Bot{
		cfg:     cfg,
		server:  server,
		src:     src,
		logger:  logger.With(zap.String("player", cfg.Name)),
		players: make(map[string]struct{}),
	}
}

// Name returns the display name the bot registers under.
func (b *Bot) Name() string { return b.cfg.Name }

// ID returns the session id, empty until Register succeeds.
func (b *Bot) ID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.id
}

// Role returns the role of the current game, empty outside a game.
func (b *Bot) Role() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.role
}

// Players returns the other players of the current game, sorted.
func (b *Bot) Players() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playersLocked()
}

func (b *Bot) playersLocked() []string {
	out := make([]string, 0, len(b.players))
	for name := range b.players {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Register announces the bot to the server. port is the port its
// PlayerService actually listens on.
//
// Postcondition: On success ID returns the assigned session id.
func (b *Bot) Register(ctx context.Context, port int) error {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.RegisterTimeout)
	defer cancel()
	resp, err := b.server.Register(ctx, &mafiav1.RegisterRequest{
		Host: b.cfg.Host,
		Port: int32(port),
		Name: b.cfg.Name,
	})
	if err != nil {
		return fmt.Errorf("registering %s: %w", b.cfg.Name, err)
	}
	b.mu.Lock()
	b.id = resp.Id
	b.mu.Unlock()
	b.logger.Info("registered", zap.String("id", resp.Id))
	return nil
}

// Leave withdraws the bot's session.
func (b *Bot) Leave(ctx context.Context) error {
	id := b.ID()
	if id == "" {
		return ErrNotRegistered
	}
	ctx, cancel := context.WithTimeout(ctx, b.cfg.RegisterTimeout)
	defer cancel()
	if _, err := b.server.Leave(ctx, &mafiav1.LeaveRequest{Id: id}); err != nil {
		return fmt.Errorf("leaving: %w", err)
	}
	b.logger.Info("left the server")
	return nil
}

// Step submits one action if a prompt is pending.
//
// Postcondition: Returns false when there was nothing to do. A rejected
// action is replaced by the set the server reported as available.
func (b *Bot) Step(ctx context.Context) (bool, error) {
	b.mu.Lock()
	id := b.id
	if id == "" || len(b.offered) == 0 {
		b.mu.Unlock()
		return false, nil
	}
	action := deck.Pick(b.offered, b.src)
	var target string
	if mafia.Action(action).NeedsTarget() {
		others := b.playersLocked()
		if len(others) == 0 {
			b.mu.Unlock()
			return false, nil
		}
		target = deck.Pick(others, b.src)
	}
	b.offered = nil
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, b.cfg.RegisterTimeout)
	defer cancel()
	_, err := b.server.PerformAction(ctx, &mafiav1.PerformActionRequest{Id: id, Action: action, TargetName: target})
	if err != nil {
		if available, ok := mafiav1.AvailableFromStatus(err); ok {
			b.setOffered(available)
		}
		return true, fmt.Errorf("performing %s: %w", action, err)
	}
	b.logger.Debug("action submitted", zap.String("action", action), zap.String("target", target))
	return true, nil
}

// Run steps every action interval until ctx is cancelled. Rejected actions
// are logged and the loop continues.
func (b *Bot) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.cfg.ActionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := b.Step(ctx); err != nil {
				b.logger.Info("action rejected", zap.Error(err))
			}
		}
	}
}

func (b *Bot) setOffered(actions []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.offered = slices.Clone(actions)
}

// NotifyJoin implements mafiav1.PlayerServiceServer.
func (b *Bot) NotifyJoin(_ context.Context, req *mafiav1.JoinNotification) (*emptypb.Empty, error) {
	b.mu.Lock()
	if req.Player != b.cfg.Name {
		b.players[req.Player] = struct{}{}
	}
	players := b.playersLocked()
	b.mu.Unlock()
	b.logger.Info("player joined", zap.String("joined", req.Player), zap.Strings("players", players))
	return &emptypb.Empty{}, nil
}

// NotifyLeave implements mafiav1.PlayerServiceServer. Its own leave marks
// the end of the bot's game.
func (b *Bot) NotifyLeave(_ context.Context, req *mafiav1.LeaveNotification) (*emptypb.Empty, error) {
	b.mu.Lock()
	if req.Player == b.cfg.Name {
		b.role = ""
		b.offered = nil
	}
	delete(b.players, req.Player)
	players := b.playersLocked()
	b.mu.Unlock()
	b.logger.Info("player left", zap.String("left", req.Player), zap.Strings("players", players))
	return &emptypb.Empty{}, nil
}

// NotifyAction implements mafiav1.PlayerServiceServer.
func (b *Bot) NotifyAction(_ context.Context, req *mafiav1.ActionNotification) (*emptypb.Empty, error) {
	b.logger.Info(req.Notification)
	return &emptypb.Empty{}, nil
}

// SendRole implements mafiav1.PlayerServiceServer.
func (b *Bot) SendRole(_ context.Context, req *mafiav1.RoleMessage) (*emptypb.Empty, error) {
	b.mu.Lock()
	b.role = req.Role
	b.mu.Unlock()
	b.logger.Info("role dealt", zap.String("role", req.Role))
	return &emptypb.Empty{}, nil
}

// SendAvailableActions implements mafiav1.PlayerServiceServer. The latest
// prompt replaces any earlier one.
func (b *Bot) SendAvailableActions(_ context.Context, req *mafiav1.AvailableActions) (*emptypb.Empty, error) {
	b.setOffered(req.Actions)
	b.logger.Debug("actions offered", zap.Strings("actions", req.Actions))
	return &emptypb.Empty{}, nil
}

// Livez implements mafiav1.PlayerServiceServer.
func (b *Bot) Livez(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return &emptypb.Empty{}, nil
}
