package gameserver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/partygames/mafia/internal/config"
	"github.com/partygames/mafia/internal/game/mafia"
	"github.com/partygames/mafia/internal/game/session"
	"github.com/partygames/mafia/internal/stats"
)

const statsTimeout = 5 * time.Second

var (
	// ErrInvalidName is returned when registering without a display name.
	ErrInvalidName = errors.New("name must not be empty")
	// ErrNoGame is returned when a session is not seated in a live game.
	ErrNoGame = errors.New("session is not seated in a game")
)

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithOrchestratorClock replaces time.Now for the start gate cooldown.
func WithOrchestratorClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator owns every session and game of the server. Client requests
// mutate state directly; everything else happens on the periodic Tick.
type Orchestrator struct {
	cfg      config.GameServerConfig
	registry *session.Registry
	games    *GameStore
	router   *NotificationRouter
	matcher  *MatchMaker
	dialer   Dialer
	stats    stats.Recorder
	logger   *zap.Logger

	now func() time.Time

	// tickMu serializes ticks; lastStartEval is only touched under it.
	tickMu        sync.Mutex
	lastStartEval time.Time

	background sync.WaitGroup
}

// NewOrchestrator wires an Orchestrator around registry.
//
// Precondition: cfg must be valid; registry, dialer, recorder, newGame and
// logger must be non-nil.
// Postcondition: The start gate cooldown starts counting from construction.
func NewOrchestrator(
	cfg config.GameServerConfig,
	registry *session.Registry,
	dialer Dialer,
	recorder stats.Recorder,
	newGame GameFactory,
	logger *zap.Logger,
	opts ...OrchestratorOption,
) *Orchestrator {
	games := NewGameStore()
	router := NewNotificationRouter(registry, logger)
	o := &Orchestrator{
		cfg:      cfg,
		registry: registry,
		games:    games,
		router:   router,
		matcher:  NewMatchMaker(registry, games, router, cfg.GameCapacity, newGame, logger),
		dialer:   dialer,
		stats:    recorder,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.lastStartEval = o.now()
	return o
}

// Games returns the orchestrator's game store.
func (o *Orchestrator) Games() *GameStore { return o.games }

// Registry returns the orchestrator's session registry.
func (o *Orchestrator) Registry() *session.Registry { return o.registry }

// Register dials the client's PlayerService and records a new active session.
//
// Postcondition: Returns the session, ErrInvalidName, or
// session.ErrAlreadyRegistered. The player's stats record is created in
// the background.
func (o *Orchestrator) Register(ctx context.Context, name, host string, port int) (session.Session, error) {
	if strings.TrimSpace(name) == "" {
		return session.Session{}, ErrInvalidName
	}
	if _, taken := o.registry.GetByName(name); taken {
		return session.Session{}, fmt.Errorf("%w: %s", session.ErrAlreadyRegistered, name)
	}

	client, err := o.dialer.Dial(host, port)
	if err != nil {
		return session.Session{}, err
	}
	sess, err := o.registry.Register(name, host, port, client)
	if err != nil {
		_ = client.Close()
		return session.Session{}, err
	}

	o.inBackground(func(ctx context.Context) {
		if err := o.stats.UpsertPlayer(ctx, name); err != nil {
			o.logger.Warn("creating stats record", zap.String("player", name), zap.Error(err))
		}
	})
	return sess, nil
}

// Leave withdraws a session. Leaving twice is a no-op.
//
// Postcondition: Returns session.ErrUnknownSession for unknown ids.
func (o *Orchestrator) Leave(ctx context.Context, id uuid.UUID) error {
	return o.detach(id, "left")
}

// PerformAction submits an action for the session's player.
//
// Postcondition: On success the action's outcome is queued for its
// audience. Errors are session.ErrUnknownSession, session.ErrInactive,
// ErrNoGame, or the game's rejection (*mafia.ActionUnavailableError,
// mafia.ErrTargetRequired, mafia.ErrInvalidTarget).
func (o *Orchestrator) PerformAction(ctx context.Context, id uuid.UUID, action, target string) error {
	sess, ok := o.registry.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", session.ErrUnknownSession, id)
	}
	if !sess.Active {
		return fmt.Errorf("%w: %s", session.ErrInactive, sess.Name)
	}
	if !sess.InGame() {
		return fmt.Errorf("%w: %s", ErrNoGame, sess.Name)
	}
	game, ok := o.games.Get(sess.GameID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoGame, sess.Name)
	}

	out, err := game.SubmitAction(sess.Name, mafia.Action(action), target)
	if err != nil {
		return err
	}
	o.router.Action(out.Audience, out.Text)
	o.logger.Debug("action performed",
		zap.String("player", sess.Name),
		zap.String("action", action),
		zap.String("target", target),
		zap.Stringer("game", game.ID()),
	)
	return nil
}

// Run ticks every configured interval until ctx is cancelled, then waits for
// background stats reports.
func (o *Orchestrator) Run(ctx context.Context) error {
	ticker := time.NewTicker(o.cfg.TickInterval)
	defer ticker.Stop()
	o.logger.Info("orchestrator running",
		zap.Duration("tick_interval", o.cfg.TickInterval),
		zap.Duration("start_cooldown", o.cfg.StartCooldown),
	)
	for {
		select {
		case <-ctx.Done():
			o.Wait()
			return nil
		case <-ticker.C:
			o.Tick(ctx)
		}
	}
}

// Wait blocks until background stats reports have finished.
func (o *Orchestrator) Wait() {
	o.background.Wait()
}

// Tick runs one reconciliation pass. Every step works on a snapshot taken at
// its start, so a slow or skipped tick leaves state consistent.
func (o *Orchestrator) Tick(ctx context.Context) {
	o.tickMu.Lock()
	defer o.tickMu.Unlock()

	start := time.Now()
	o.sweepLiveness(ctx)
	o.teardownFinished()
	o.matchmake()
	o.startReadyGames()
	o.flushNotifications()
	o.flushPrompts()

	o.logger.Debug("tick complete",
		zap.Int("active_sessions", o.registry.ActiveCount()),
		zap.Int("games", o.games.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (o *Orchestrator) sweepLiveness(ctx context.Context) {
	active := o.registry.Active()
	if len(active) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.ProbeConcurrency)
	var mu sync.Mutex
	var unreachable []session.Session
	for _, sess := range active {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, o.cfg.RPCTimeout)
			defer cancel()
			if err := sess.Client.Livez(pctx); err != nil {
				o.logger.Info("liveness probe failed", zap.String("client", sess.Name), zap.Error(err))
				mu.Lock()
				unreachable = append(unreachable, sess)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return
	}
	for _, sess := range unreachable {
		if err := o.detach(sess.ID, "unreachable"); err != nil {
			o.logger.Warn("demoting client", zap.String("client", sess.Name), zap.Error(err))
		}
	}
}

// detach marks a session inactive and releases its seat: before the start
// the seat is freed, during play the player is eliminated. Remaining members
// are told the player left.
func (o *Orchestrator) detach(id uuid.UUID, reason string) error {
	sess, wasActive, err := o.registry.MarkInactive(id)
	if err != nil {
		return err
	}
	if !wasActive {
		return nil
	}
	o.logger.Info("client detached", zap.String("client", sess.Name), zap.String("reason", reason))
	if !sess.InGame() {
		return nil
	}

	game, ok := o.games.Get(sess.GameID)
	if !ok {
		o.registry.ClearGame(sess.Name, sess.GameID)
		return nil
	}
	if err := game.Withdraw(sess.Name); err != nil && !errors.Is(err, mafia.ErrUnknownPlayer) {
		o.logger.Warn("withdrawing player", zap.String("player", sess.Name), zap.Error(err))
	}
	if _, seated := game.Player(sess.Name); !seated {
		o.registry.ClearGame(sess.Name, game.ID())
	}
	for _, member := range game.Members() {
		if member != sess.Name {
			o.router.Leave(member, sess.Name)
		}
	}
	return nil
}

func (o *Orchestrator) teardownFinished() {
	for _, game := range o.games.All() {
		if !game.Finished() {
			continue
		}
		winner, _ := game.Winner()
		members := game.Members()
		texts := append(game.DrainNotifications(), fmt.Sprintf("Game finished, %s won", winner))

		for _, member := range members {
			o.router.Action([]string{member}, texts...)
			for _, seat := range members {
				o.router.Leave(member, seat)
			}
			o.registry.ClearGame(member, game.ID())
		}

		o.reportResults(winner, game.Players(), game.Duration())
		o.games.Remove(game.ID())
		o.logger.Info("game torn down",
			zap.Stringer("game", game.ID()),
			zap.String("winner", string(winner)),
			zap.Duration("played", game.Duration()),
		)
	}
}

func (o *Orchestrator) reportResults(winner mafia.Role, players []mafia.Player, played time.Duration) {
	o.inBackground(func(ctx context.Context) {
		for _, p := range players {
			if err := o.stats.UpsertPlayer(ctx, p.Name); err != nil {
				o.logger.Warn("creating stats record", zap.String("player", p.Name), zap.Error(err))
				continue
			}
			delta := stats.GameDelta(p.Role.Team() == winner, played)
			if err := o.stats.IncrementPlayerStats(ctx, p.Name, delta); err != nil {
				o.logger.Warn("reporting game result", zap.String("player", p.Name), zap.Error(err))
			}
		}
	})
}

func (o *Orchestrator) inBackground(fn func(ctx context.Context)) {
	o.background.Add(1)
	go func() {
		defer o.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (o *Orchestrator) matchmake() {
	for _, sess := range o.registry.Unassigned() {
		if _, err := o.matcher.Assign(sess.ID); err != nil {
			o.logger.Debug("skipping assignment", zap.String("client", sess.Name), zap.Error(err))
		}
	}
}

func (o *Orchestrator) startReadyGames() {
	now := o.now()
	if now.Sub(o.lastStartEval) < o.cfg.StartCooldown {
		return
	}
	o.lastStartEval = now

	for _, game := range o.games.All() {
		if !game.ReadyToStart() || !game.Start() {
			continue
		}
		for _, p := range game.Players() {
			o.router.Role(p.Name, p.Role)
		}
		o.logger.Info("game started", zap.Stringer("game", game.ID()), zap.Strings("players", game.Members()))
	}
}

func (o *Orchestrator) flushNotifications() {
	for _, game := range o.games.All() {
		if !game.Running() {
			continue
		}
		if texts := game.DrainNotifications(); len(texts) > 0 {
			o.router.Action(game.Members(), texts...)
		}
	}
}

func (o *Orchestrator) flushPrompts() {
	for _, game := range o.games.All() {
		if !game.Running() {
			continue
		}
		for _, p := range game.Players() {
			if !p.Alive {
				continue
			}
			if _, ok := o.registry.ActiveByName(p.Name); !ok {
				continue
			}
			if actions := game.AvailableActions(p.Name); len(actions) > 0 {
				o.router.Prompt(p.Name, actions)
			}
		}
	}
}
