package gameserver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/partygames/mafia/internal/config"
	"github.com/partygames/mafia/internal/game/deck"
	"github.com/partygames/mafia/internal/game/mafia"
	"github.com/partygames/mafia/internal/game/session"
	"github.com/partygames/mafia/internal/stats"
)

// fakeClient records every call made on it as "kind:payload".
type fakeClient struct {
	mu       sync.Mutex
	events   []string
	livezErr error
	closed   bool
}

func (c *fakeClient) record(kind, payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, kind+":"+payload)
	return nil
}

func (c *fakeClient) NotifyJoin(_ context.Context, p string) error  { return c.record("join", p) }
func (c *fakeClient) NotifyLeave(_ context.Context, p string) error { return c.record("leave", p) }
func (c *fakeClient) NotifyAction(_ context.Context, t string) error {
	return c.record("action", t)
}
func (c *fakeClient) SendRole(_ context.Context, r string) error { return c.record("role", r) }
func (c *fakeClient) SendAvailableActions(_ context.Context, a []string) error {
	return c.record("prompt", strings.Join(a, ","))
}
func (c *fakeClient) Livez(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.livezErr
}
func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeClient) setUnreachable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.livezErr = errors.New("connection refused")
}

func (c *fakeClient) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.events...)
}

// has reports whether event was recorded.
func (c *fakeClient) has(event string) bool {
	for _, e := range c.snapshot() {
		if e == event {
			return true
		}
	}
	return false
}

// fakeDialer hands out one fakeClient per port.
type fakeDialer struct {
	mu      sync.Mutex
	clients map[int]*fakeClient
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{clients: make(map[int]*fakeClient)}
}

func (d *fakeDialer) Dial(_ string, port int) (session.Notifier, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := &fakeClient{}
	d.clients[port] = c
	return c, nil
}

func (d *fakeDialer) client(port int) *fakeClient {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clients[port]
}

// memStats is an in-memory stats.Store.
type memStats struct {
	mu      sync.Mutex
	records map[string]stats.Record
}

func newMemStats() *memStats {
	return &memStats{records: make(map[string]stats.Record)}
}

func (m *memStats) UpsertPlayer(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[name]; !ok {
		m.records[name] = stats.Record{Name: name, Avatar: stats.DefaultAvatar}
	}
	return nil
}

func (m *memStats) IncrementPlayerStats(_ context.Context, name string, d stats.Delta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[name]
	if !ok {
		return fmt.Errorf("%w: %s", stats.ErrPlayerNotFound, name)
	}
	rec.Wins += d.Wins
	rec.Losses += d.Losses
	rec.SecondsPlayed += d.SecondsPlayed
	m.records[name] = rec
	return nil
}

func (m *memStats) Get(_ context.Context, name string) (stats.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[name]
	if !ok {
		return stats.Record{}, stats.ErrPlayerNotFound
	}
	return rec, nil
}

func (m *memStats) List(context.Context) ([]stats.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]stats.Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStats) UpdateAvatar(_ context.Context, name, avatar string) (stats.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[name]
	if !ok {
		return stats.Record{}, stats.ErrPlayerNotFound
	}
	rec.Avatar = avatar
	m.records[name] = rec
	return rec, nil
}

// manualClock is a settable clock.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testGameServerConfig() config.GameServerConfig {
	return config.GameServerConfig{
		GRPCHost:         "127.0.0.1",
		GRPCPort:         50051,
		TickInterval:     10 * time.Millisecond,
		StartCooldown:    20 * time.Second,
		RPCTimeout:       time.Second,
		GameCapacity:     4,
		OutboxSize:       256,
		ProbeConcurrency: 4,
	}
}

// identityGames deals roles in deck order: for four seats the first two
// joiners are civilians, the third is mafia and the fourth is the cop.
func identityGames(t *testing.T) GameFactory {
	return func(id uuid.UUID, capacity int) *mafia.Game {
		vals := make([]int, 0, capacity)
		for i := capacity - 1; i >= 1; i-- {
			vals = append(vals, i)
		}
		return mafia.NewGame(id, capacity,
			mafia.WithSource(deck.NewFixedSource(vals...)),
			mafia.WithLogger(zaptest.NewLogger(t)),
		)
	}
}

type harness struct {
	orch   *Orchestrator
	dialer *fakeDialer
	stats  *memStats
	clock  *manualClock
	ids    map[string]uuid.UUID
	ports  map[string]int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	cfg := testGameServerConfig()
	registry := session.NewRegistry(cfg.OutboxSize, cfg.RPCTimeout, logger)
	t.Cleanup(registry.Close)

	h := &harness{
		dialer: newFakeDialer(),
		stats:  newMemStats(),
		clock:  &manualClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
		ids:    make(map[string]uuid.UUID),
		ports:  make(map[string]int),
	}
	h.orch = NewOrchestrator(cfg, registry, h.dialer, h.stats, identityGames(t), logger,
		WithOrchestratorClock(h.clock.Now))
	t.Cleanup(h.orch.Wait)
	return h
}

func (h *harness) register(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		port := 60000 + len(h.ports)
		sess, err := h.orch.Register(context.Background(), name, "127.0.0.1", port)
		require.NoError(t, err)
		h.ids[name] = sess.ID
		h.ports[name] = port
	}
}

func (h *harness) client(name string) *fakeClient {
	return h.dialer.client(h.ports[name])
}

func (h *harness) act(t *testing.T, name string, action mafia.Action, target string) {
	t.Helper()
	require.NoError(t, h.orch.PerformAction(context.Background(), h.ids[name], string(action), target))
}

// startGame registers the players, seats them and opens the start gate.
func (h *harness) startGame(t *testing.T, names ...string) *mafia.Game {
	t.Helper()
	h.register(t, names...)
	h.orch.Tick(context.Background())
	h.clock.Advance(testGameServerConfig().StartCooldown)
	h.orch.Tick(context.Background())

	sess, ok := h.orch.Registry().GetByName(names[0])
	require.True(t, ok)
	game, ok := h.orch.Games().Get(sess.GameID)
	require.True(t, ok)
	require.True(t, game.Running())
	return game
}

func eventually(t *testing.T, cond func() bool, msgAndArgs ...any) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond, msgAndArgs...)
}
