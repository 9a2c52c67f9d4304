package mafia

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/partygames/mafia/internal/game/deck"
)

// Player is one seat in a game.
type Player struct {
	Name   string
	Role   Role
	Alive  bool
	Asleep bool
}

// Outcome is the result of a submitted action: the text describing it and
// the names of the players who should see that text.
type Outcome struct {
	Text     string
	Audience []string
}

// Option configures a Game at construction.
type Option func(*Game)

// WithSource sets the randomness used to shuffle the role deck.
func WithSource(src deck.Source) Option {
	return func(g *Game) { g.src = src }
}

// WithClock replaces time.Now for start and end timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Game) { g.now = now }
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Game) { g.logger = logger }
}

// Game holds the complete rule state of one Mafia game.
// All methods are safe for concurrent use.
//
// Invariant: aliveMafia and aliveCivilians always equal the number of living
// players on each team once the game has started.
type Game struct {
	mu       sync.Mutex
	id       uuid.UUID
	capacity int
	src      deck.Source
	now      func() time.Time
	logger   *zap.Logger

	players map[string]*Player
	order   []string // join order; roles are dealt along it
	mafia   map[string]*Player
	cop     *Player

	phase    Phase
	firstDay bool
	started  bool
	finished bool
	winner   Role

	timeStart time.Time
	timeEnd   time.Time

	aliveMafia     int
	aliveCivilians int
	done           int
	dayVotes       map[string]int
	nightVotes     map[string]int
	actions        map[string]map[Action]struct{}
	foundMafia     *Player

	notifications []string
}

// NewGame creates an empty, unstarted game.
//
// Precondition: capacity should have an entry in RoleTable; values <= 0
// fall back to DefaultCapacity.
// Postcondition: Returns a game accepting up to capacity players.
func NewGame(id uuid.UUID, capacity int, opts ...Option) *Game {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	g := &Game{
		id:         id,
		capacity:   capacity,
		src:        deck.NewCryptoSource(),
		now:        time.Now,
		logger:     zap.NewNop(),
		players:    make(map[string]*Player),
		mafia:      make(map[string]*Player),
		firstDay:   true,
		dayVotes:   make(map[string]int),
		nightVotes: make(map[string]int),
		actions:    make(map[string]map[Action]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(zap.Stringer("game_id", id))
	g.logger.Info("game created", zap.Int("capacity", capacity))
	return g
}

// ID returns the game's identifier.
func (g *Game) ID() uuid.UUID { return g.id }

// Capacity returns the number of seats.
func (g *Game) Capacity() int { return g.capacity }

// AddPlayer seats a new player.
//
// Postcondition: Returns false when the game has started or finished, is
// full, the name is empty, or the name is already seated.
func (g *Game) AddPlayer(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started || g.finished || len(g.players) >= g.capacity || name == "" {
		return false
	}
	if _, exists := g.players[name]; exists {
		return false
	}
	g.players[name] = &Player{Name: name, Alive: true}
	g.order = append(g.order, name)
	g.logger.Info("player seated", zap.String("player", name), zap.Int("seated", len(g.players)))
	return true
}

// ReadyToStart reports whether every seat is taken and the game has not run yet.
func (g *Game) ReadyToStart() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.readyLocked()
}

func (g *Game) readyLocked() bool {
	return len(g.players) >= g.capacity && !g.started && !g.finished
}

// Open reports whether the game still accepts players.
func (g *Game) Open() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.started && !g.finished && len(g.players) < g.capacity
}

// Start deals roles and begins the first round.
//
// Postcondition: Returns false if the game already started or is not ready.
// On success every player holds exactly one role, the deck composition
// matches RoleTable, and the game is in the NIGHT phase.
func (g *Game) Start() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started || !g.readyLocked() {
		return false
	}

	roles, err := buildDeck(len(g.players))
	if err != nil {
		g.logger.Error("cannot deal roles", zap.Error(err))
		return false
	}
	deck.Shuffle(roles, g.src)

	for i, name := range g.order {
		p := g.players[name]
		p.Role = roles[i]
		switch p.Role {
		case RoleMafia:
			g.mafia[name] = p
		case RoleCop:
			g.cop = p
		}
	}

	g.aliveMafia = RoleTable[len(g.players)][RoleMafia]
	g.aliveCivilians = len(g.players) - g.aliveMafia
	g.started = true
	g.timeStart = g.now()

	g.logger.Info("game started",
		zap.Strings("players", g.order),
		zap.Int("mafia", g.aliveMafia),
		zap.Int("civilians", g.aliveCivilians),
	)

	g.beginDay()
	return true
}

// AvailableActions returns the actions the named player may take right now,
// sorted by name.
//
// Postcondition: Empty for unknown or dead players and for games that are
// not running. Never contains an action already taken this phase.
func (g *Game) AvailableActions(name string) []Action {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.availableLocked(name)
}

func (g *Game) availableLocked(name string) []Action {
	p, ok := g.players[name]
	if !ok || !p.Alive || !g.started || g.finished {
		return nil
	}

	var offered []Action
	switch g.phase {
	case PhaseDay:
		offered = append(offered, ActionSleep, ActionVote)
		if g.foundMafia != nil && g.cop != nil && g.cop.Name == name {
			offered = append(offered, ActionShowMafia)
		}
	case PhaseNight:
		if p.Role == RoleMafia {
			offered = append(offered, ActionKill)
		} else if g.cop != nil && g.cop.Name == name {
			offered = append(offered, ActionCheck)
		}
	}

	taken := g.actions[name]
	out := offered[:0]
	for _, a := range offered {
		if _, done := taken[a]; !done {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return nil
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SubmitAction validates and applies one action, then advances the phase if
// every eligible player has acted. Validation, effect and phase transition
// happen under a single critical section.
//
// Postcondition: On error the game state is unchanged. On success the
// returned Outcome describes the action; notifications produced by a phase
// transition are queued for DrainNotifications.
func (g *Game) SubmitAction(name string, action Action, target string) (Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.players[name]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, name)
	}

	available := g.availableLocked(name)
	if !slices.Contains(available, action) {
		return Outcome{}, &ActionUnavailableError{Player: name, Action: action, Available: available}
	}

	if action.NeedsTarget() {
		if target == "" {
			return Outcome{}, fmt.Errorf("%s: %w", action, ErrTargetRequired)
		}
		t, ok := g.players[target]
		if !ok || !t.Alive {
			return Outcome{}, fmt.Errorf("%w: %s is not a living player of this game", ErrInvalidTarget, target)
		}
		if target == name {
			return Outcome{}, fmt.Errorf("%w: %s cannot target themselves", ErrInvalidTarget, name)
		}
	}

	if g.actions[name] == nil {
		g.actions[name] = make(map[Action]struct{})
	}
	g.actions[name][action] = struct{}{}

	var out Outcome
	switch action {
	case ActionSleep:
		p.Asleep = true
		g.done++
		out = Outcome{Text: fmt.Sprintf("Player %s goes to sleep", name), Audience: g.membersLocked()}
	case ActionVote:
		g.dayVotes[target]++
		out = Outcome{
			Text:     fmt.Sprintf("Player %s voted for %s. %s now has %d votes", name, target, target, g.dayVotes[target]),
			Audience: g.membersLocked(),
		}
	case ActionShowMafia:
		out = Outcome{Text: fmt.Sprintf("Cop %s found mafia: %s", name, g.foundMafia.Name), Audience: g.membersLocked()}
	case ActionKill:
		g.nightVotes[target]++
		g.done++
		out = Outcome{Text: fmt.Sprintf("Mafia %s wants to kill %s this night", name, target), Audience: g.mafiaNamesLocked()}
	case ActionCheck:
		g.done++
		if m, isMafia := g.mafia[target]; isMafia {
			g.foundMafia = m
			out = Outcome{Text: fmt.Sprintf("%s is mafia", target)}
		} else {
			out = Outcome{Text: fmt.Sprintf("%s is not mafia", target)}
		}
		out.Audience = []string{name}
	}

	g.logger.Debug("action applied",
		zap.String("player", name),
		zap.String("action", string(action)),
		zap.String("target", target),
		zap.Int("done", g.done),
		zap.String("phase", string(g.phase)),
	)

	g.advanceIfComplete()
	return out, nil
}

// KillPlayer eliminates a living player and evaluates the end of the game.
//
// Postcondition: Returns ErrNotRunning if the game is not running and
// ErrUnknownPlayer for names not seated. Killing a dead player is a no-op.
func (g *Game) KillPlayer(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started || g.finished {
		return ErrNotRunning
	}
	if _, ok := g.players[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, name)
	}
	g.killLocked(name, "%s was killed")
	return nil
}

// Withdraw handles a player leaving. Before the start their seat is freed;
// during play they are eliminated and the phase is re-evaluated so the
// remaining players are not left waiting on them. An action they already took
// this phase no longer counts toward its completion.
//
// Postcondition: Returns ErrUnknownPlayer for names not seated.
func (g *Game) Withdraw(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.players[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, name)
	}
	if !g.started {
		delete(g.players, name)
		g.order = slices.DeleteFunc(g.order, func(n string) bool { return n == name })
		g.logger.Info("player unseated", zap.String("player", name))
		return nil
	}
	if g.finished || !p.Alive {
		return nil
	}
	g.retractLocked(name)
	g.killLocked(name, "%s left the game")
	g.advanceIfComplete()
	return nil
}

// retractLocked takes back the player's share of the phase completion count
// so the remaining eligible players still have to act. Caller must hold g.mu.
func (g *Game) retractLocked(name string) {
	taken := g.actions[name]
	counted := ActionSleep
	if g.phase == PhaseNight {
		counted = ActionKill
		if g.cop != nil && g.cop.Name == name {
			counted = ActionCheck
		}
	}
	if _, ok := taken[counted]; ok {
		g.done--
	}
	delete(g.actions, name)
}

// CheckGameEnd reports the winning team once the game is decided.
// Civilians win when no mafia remain; mafia win when their number equals the
// number of living civilians.
//
// Postcondition: Once a winner is returned, every later call returns the same
// winner and the end timestamp never moves.
func (g *Game) CheckGameEnd() (Role, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.checkGameEndLocked()
}

func (g *Game) checkGameEndLocked() (Role, bool) {
	if g.finished {
		return g.winner, true
	}
	if !g.started {
		return "", false
	}

	var winner Role
	switch {
	case g.aliveMafia == 0:
		winner = RoleCivilian
	case g.aliveMafia == g.aliveCivilians:
		winner = RoleMafia
	default:
		return "", false
	}

	g.finished = true
	g.winner = winner
	if g.timeEnd.IsZero() {
		g.timeEnd = g.now()
	}
	g.logger.Info("game finished",
		zap.String("winner", string(winner)),
		zap.Duration("played", g.timeEnd.Sub(g.timeStart)),
	)
	return winner, true
}

// DrainNotifications returns the queued notifications in order and empties
// the queue.
func (g *Game) DrainNotifications() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := g.notifications
	g.notifications = nil
	return out
}

// Started reports whether roles have been dealt.
func (g *Game) Started() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.started
}

// Finished reports whether a winner has been decided.
func (g *Game) Finished() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.finished
}

// Running reports whether the game has started and is not finished.
func (g *Game) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.started && !g.finished
}

// Phase returns the current phase; PhaseNone before the start.
func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// Winner returns the decided winner without evaluating the end condition.
func (g *Game) Winner() (Role, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.winner, g.finished
}

// Duration returns how long the game has been played: start to end for a
// finished game, start to now for a running one, zero before the start.
func (g *Game) Duration() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case !g.started:
		return 0
	case g.finished:
		return g.timeEnd.Sub(g.timeStart)
	default:
		return g.now().Sub(g.timeStart)
	}
}

// Members returns the seated names in join order.
func (g *Game) Members() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.membersLocked()
}

func (g *Game) membersLocked() []string {
	return append([]string(nil), g.order...)
}

// Players returns copies of every seat in join order.
func (g *Game) Players() []Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Player, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, *g.players[name])
	}
	return out
}

// Player returns a copy of the named seat.
func (g *Game) Player(name string) (Player, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.players[name]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// MafiaNames returns the names dealt the mafia role, sorted.
func (g *Game) MafiaNames() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mafiaNamesLocked()
}

func (g *Game) mafiaNamesLocked() []string {
	out := make([]string, 0, len(g.mafia))
	for name := range g.mafia {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// CopName returns the cop's name, if one was dealt.
func (g *Game) CopName() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cop == nil {
		return "", false
	}
	return g.cop.Name, true
}

// AliveCounts returns the number of living mafia and living civilians.
func (g *Game) AliveCounts() (mafia, civilians int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.aliveMafia, g.aliveCivilians
}

// String implements fmt.Stringer for log output.
func (g *Game) String() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	parts := make([]string, 0, len(g.order))
	for _, name := range g.order {
		p := g.players[name]
		parts = append(parts, fmt.Sprintf("%s(%s,alive=%t)", p.Name, p.Role, p.Alive))
	}
	return fmt.Sprintf("game %s phase=%s done=%d [%s]", g.id, g.phase, g.done, strings.Join(parts, " "))
}

// advanceIfComplete runs the phase transition once everyone eligible has acted.
// The night requirement counts the cop as a boolean, so it is one short when
// the cop is dead. Caller must hold g.mu.
func (g *Game) advanceIfComplete() {
	if g.finished {
		return
	}
	switch g.phase {
	case PhaseDay:
		if g.done >= g.aliveMafia+g.aliveCivilians {
			g.beginNight()
		}
	case PhaseNight:
		required := g.aliveMafia
		if g.cop != nil && g.cop.Alive {
			required++
		}
		if g.done >= required {
			g.beginDay()
		}
	}
}

// beginDay is the night to day transition. The very first day is skipped
// so the opening round has no vote. Caller must hold g.mu.
func (g *Game) beginDay() {
	for _, p := range g.players {
		p.Asleep = false
	}
	g.phase = PhaseDay

	if g.firstDay {
		g.firstDay = false
		g.phase = PhaseNight
		g.notify("New night started!")
		return
	}

	if victim, ok := g.liveLeader(g.nightVotes); ok {
		g.killLocked(victim, "%s was killed by mafia")
	} else {
		g.notify("No one was killed tonight")
	}
	g.resetPhase()
	if !g.finished {
		g.notify("New day started!")
	}
}

// beginNight is the day to night transition. A tied vote eliminates nobody.
// Caller must hold g.mu.
func (g *Game) beginNight() {
	g.phase = PhaseNight

	if victim, ok := g.liveLeader(g.dayVotes); ok {
		g.killLocked(victim, "%s was eliminated by vote")
	} else {
		g.notify("No one was killed today")
	}
	g.resetPhase()
	if !g.finished {
		g.notify("New night started!")
	}
}

// resetPhase clears every phase-scoped tally. Caller must hold g.mu.
func (g *Game) resetPhase() {
	g.done = 0
	g.dayVotes = make(map[string]int)
	g.nightVotes = make(map[string]int)
	g.actions = make(map[string]map[Action]struct{})
}

// killLocked flips a living player to dead, keeps the alive counters in
// step and announces a winner if this decided the game. Caller must hold g.mu.
func (g *Game) killLocked(name, format string) {
	p := g.players[name]
	if p == nil || !p.Alive {
		return
	}
	p.Alive = false
	if p.Role == RoleMafia {
		g.aliveMafia--
	} else {
		g.aliveCivilians--
	}
	g.notify(fmt.Sprintf(format, name))
	g.logger.Info("player eliminated",
		zap.String("player", name),
		zap.Int("alive_mafia", g.aliveMafia),
		zap.Int("alive_civilians", g.aliveCivilians),
	)

	wasFinished := g.finished
	if winner, ok := g.checkGameEndLocked(); ok && !wasFinished {
		g.notify(fmt.Sprintf("%s won the game %s", winner, g.id))
	}
}

func (g *Game) notify(text string) {
	g.notifications = append(g.notifications, text)
}

// liveLeader is leader over the votes cast for players still alive.
// Caller must hold g.mu.
func (g *Game) liveLeader(votes map[string]int) (string, bool) {
	live := make(map[string]int, len(votes))
	for name, n := range votes {
		if p := g.players[name]; p != nil && p.Alive {
			live[name] = n
		}
	}
	return leader(live)
}

// leader returns the name with strictly the most votes. Ties and empty
// tallies have no leader.
func leader(votes map[string]int) (string, bool) {
	best, bestCount, tied := "", 0, false
	for name, n := range votes {
		switch {
		case n > bestCount:
			best, bestCount, tied = name, n, false
		case n == bestCount:
			tied = true
		}
	}
	if best == "" || tied {
		return "", false
	}
	return best, true
}
