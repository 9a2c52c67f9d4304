package gameserver

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partygames/mafia/internal/game/mafia"
	"github.com/partygames/mafia/internal/game/session"
)

func TestOrchestrator_Register_RejectsDuplicateName(t *testing.T) {
	h := newHarness(t)
	h.register(t, "Alice")

	_, err := h.orch.Register(context.Background(), "Alice", "127.0.0.1", 61000)
	require.ErrorIs(t, err, session.ErrAlreadyRegistered)
	assert.Equal(t, 1, h.orch.Registry().Count())
	assert.Nil(t, h.dialer.client(61000), "a taken name must not dial the client")
}

func TestOrchestrator_Register_RejectsEmptyName(t *testing.T) {
	h := newHarness(t)
	_, err := h.orch.Register(context.Background(), "  ", "127.0.0.1", 61000)
	require.ErrorIs(t, err, ErrInvalidName)
	assert.Zero(t, h.orch.Registry().Count())
}

func TestOrchestrator_Register_CreatesStatsRecord(t *testing.T) {
	h := newHarness(t)
	h.register(t, "Alice")
	h.orch.Wait()

	rec, err := h.stats.Get(context.Background(), "Alice")
	require.NoError(t, err)
	assert.Zero(t, rec.Wins)
	assert.Zero(t, rec.Losses)
}

func TestOrchestrator_Tick_SeatsPlayersAndAnnouncesJoins(t *testing.T) {
	h := newHarness(t)
	h.register(t, "A", "B", "C", "D")
	h.orch.Tick(context.Background())

	require.Equal(t, 1, h.orch.Games().Len())
	game := h.orch.Games().All()[0]
	assert.Equal(t, []string{"A", "B", "C", "D"}, game.Members())
	assert.False(t, game.Started(), "start gate cooldown has not elapsed")

	for _, name := range []string{"A", "B", "C", "D"} {
		sess, ok := h.orch.Registry().GetByName(name)
		require.True(t, ok)
		assert.Equal(t, game.ID(), sess.GameID)
	}

	// Every member learns of every other member exactly through joins.
	eventually(t, func() bool {
		return h.client("A").has("join:B") && h.client("A").has("join:D") &&
			h.client("D").has("join:A") && h.client("D").has("join:C")
	})
}

func TestOrchestrator_Tick_FullGameOpensSecondGame(t *testing.T) {
	h := newHarness(t)
	h.register(t, "A", "B", "C", "D", "E")
	h.orch.Tick(context.Background())

	require.Equal(t, 2, h.orch.Games().Len())
	games := h.orch.Games().All()
	assert.Equal(t, []string{"A", "B", "C", "D"}, games[0].Members())
	assert.Equal(t, []string{"E"}, games[1].Members())
}

func TestOrchestrator_StartGate_WaitsForCooldown(t *testing.T) {
	h := newHarness(t)
	h.register(t, "A", "B", "C", "D")
	h.orch.Tick(context.Background())
	game := h.orch.Games().All()[0]

	h.clock.Advance(10 * time.Second)
	h.orch.Tick(context.Background())
	assert.False(t, game.Started())

	h.clock.Advance(10 * time.Second)
	h.orch.Tick(context.Background())
	assert.True(t, game.Started())
}

func TestOrchestrator_StartGate_SkipsPartialGames(t *testing.T) {
	h := newHarness(t)
	h.register(t, "A", "B", "C")
	h.orch.Tick(context.Background())
	h.clock.Advance(time.Minute)
	h.orch.Tick(context.Background())

	game := h.orch.Games().All()[0]
	assert.False(t, game.Started())
	assert.True(t, game.Open())
}

func TestOrchestrator_Start_SendsRolesNotificationsAndPrompts(t *testing.T) {
	h := newHarness(t)
	h.startGame(t, "A", "B", "C", "D")

	eventually(t, func() bool {
		return h.client("A").has("role:CIVILIAN") &&
			h.client("B").has("role:CIVILIAN") &&
			h.client("C").has("role:MAFIA") &&
			h.client("D").has("role:COP")
	}, "roles")
	eventually(t, func() bool {
		for _, n := range []string{"A", "B", "C", "D"} {
			if !h.client(n).has("action:New night started!") {
				return false
			}
		}
		return true
	}, "first night announced to everyone")
	eventually(t, func() bool {
		return h.client("C").has("prompt:KILL") && h.client("D").has("prompt:CHECK")
	}, "night prompts")

	for _, e := range h.client("A").snapshot() {
		assert.NotContains(t, e, "prompt:", "civilians have nothing to do at night")
	}
}

func TestOrchestrator_PerformAction_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.orch.PerformAction(ctx, uuid.New(), "SLEEP", "")
	assert.ErrorIs(t, err, session.ErrUnknownSession)

	h.register(t, "A", "B", "C", "D")
	err = h.orch.PerformAction(ctx, h.ids["A"], "SLEEP", "")
	assert.ErrorIs(t, err, ErrNoGame, "registered but not yet seated")

	h.orch.Tick(ctx)
	err = h.orch.PerformAction(ctx, h.ids["A"], "SLEEP", "")
	var unavailable *mafia.ActionUnavailableError
	require.ErrorAs(t, err, &unavailable, "seated but the game has not started")
	assert.Empty(t, unavailable.Available)

	require.NoError(t, h.orch.Leave(ctx, h.ids["A"]))
	err = h.orch.PerformAction(ctx, h.ids["A"], "SLEEP", "")
	assert.ErrorIs(t, err, session.ErrInactive)
}

func TestOrchestrator_PerformAction_RejectionListsAvailable(t *testing.T) {
	h := newHarness(t)
	h.startGame(t, "A", "B", "C", "D")

	err := h.orch.PerformAction(context.Background(), h.ids["C"], "VOTE", "A")
	var unavailable *mafia.ActionUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []mafia.Action{mafia.ActionKill}, unavailable.Available)

	err = h.orch.PerformAction(context.Background(), h.ids["C"], "DANCE", "")
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []mafia.Action{mafia.ActionKill}, unavailable.Available)

	err = h.orch.PerformAction(context.Background(), h.ids["C"], "KILL", "")
	assert.ErrorIs(t, err, mafia.ErrTargetRequired)

	err = h.orch.PerformAction(context.Background(), h.ids["C"], "KILL", "Nobody")
	assert.ErrorIs(t, err, mafia.ErrInvalidTarget)
}

func TestOrchestrator_FullGame_CiviliansWinAndStatsRecorded(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	game := h.startGame(t, "A", "B", "C", "D")
	gameID := game.ID()

	// Night one: mafia kills A, cop finds C.
	h.act(t, "C", mafia.ActionKill, "A")
	h.act(t, "D", mafia.ActionCheck, "C")
	eventually(t, func() bool { return h.client("C").has("action:Mafia C wants to kill A this night") })
	eventually(t, func() bool { return h.client("D").has("action:C is mafia") })
	assert.False(t, h.client("A").has("action:C is mafia"), "check results are private to the cop")

	require.Equal(t, mafia.PhaseDay, game.Phase())
	h.orch.Tick(ctx)
	eventually(t, func() bool {
		return h.client("B").has("action:A was killed by mafia") && h.client("B").has("action:New day started!")
	})
	eventually(t, func() bool { return h.client("D").has("prompt:SHOW_MAFIA,SLEEP,VOTE") })

	// Day one: C is voted out.
	h.act(t, "B", mafia.ActionVote, "C")
	h.act(t, "D", mafia.ActionVote, "C")
	h.act(t, "C", mafia.ActionVote, "B")
	h.act(t, "B", mafia.ActionSleep, "")
	h.act(t, "C", mafia.ActionSleep, "")
	h.act(t, "D", mafia.ActionSleep, "")

	winner, finished := game.Winner()
	require.True(t, finished)
	assert.Equal(t, mafia.RoleCivilian, winner)

	h.orch.Tick(ctx)
	_, stillThere := h.orch.Games().Get(gameID)
	assert.False(t, stillThere, "finished games are torn down")

	for _, name := range []string{"A", "B", "C", "D"} {
		c := h.client(name)
		eventually(t, func() bool {
			return c.has("action:C was eliminated by vote") &&
				c.has(fmt.Sprintf("action:CIVILIAN won the game %s", gameID)) &&
				c.has("action:Game finished, CIVILIAN won") &&
				c.has("leave:A") && c.has("leave:D")
		}, "teardown notifications for %s", name)

		sess, ok := h.orch.Registry().GetByName(name)
		require.True(t, ok)
		assert.NotEqual(t, gameID, sess.GameID, "%s released from the finished game", name)
		assert.True(t, sess.Active)
	}

	h.orch.Wait()
	for name, wantWin := range map[string]bool{"A": true, "B": true, "C": false, "D": true} {
		rec, err := h.stats.Get(ctx, name)
		require.NoError(t, err)
		if wantWin {
			assert.Equal(t, int64(1), rec.Wins, name)
			assert.Zero(t, rec.Losses, name)
		} else {
			assert.Zero(t, rec.Wins, name)
			assert.Equal(t, int64(1), rec.Losses, name)
		}
	}
}

func TestOrchestrator_Leave_BeforeStartFreesSeat(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "A", "B", "C", "D")
	h.orch.Tick(ctx)
	game := h.orch.Games().All()[0]

	require.NoError(t, h.orch.Leave(ctx, h.ids["B"]))
	assert.Equal(t, []string{"A", "C", "D"}, game.Members())
	assert.True(t, game.Open())

	sess, ok := h.orch.Registry().Get(h.ids["B"])
	require.True(t, ok)
	assert.False(t, sess.Active)
	assert.False(t, sess.InGame())

	for _, name := range []string{"A", "C", "D"} {
		c := h.client(name)
		eventually(t, func() bool { return c.has("leave:B") })
	}
	eventually(t, h.client("B").isClosed)

	h.register(t, "E")
	h.orch.Tick(ctx)
	assert.Equal(t, []string{"A", "C", "D", "E"}, game.Members())

	require.NoError(t, h.orch.Leave(ctx, h.ids["B"]), "leaving twice is a no-op")
}

func TestOrchestrator_Leave_DuringPlayEliminates(t *testing.T) {
	h := newHarness(t)
	game := h.startGame(t, "A", "B", "C", "D")

	require.NoError(t, h.orch.Leave(context.Background(), h.ids["A"]))
	p, ok := game.Player("A")
	require.True(t, ok)
	assert.False(t, p.Alive)

	mafiaAlive, civiliansAlive := game.AliveCounts()
	assert.Equal(t, 1, mafiaAlive)
	assert.Equal(t, 2, civiliansAlive)
	assert.True(t, game.Running())

	h.orch.Tick(context.Background())
	eventually(t, func() bool {
		return h.client("B").has("leave:A") && h.client("B").has("action:A left the game")
	})
}

func TestOrchestrator_Leave_UnknownSession(t *testing.T) {
	h := newHarness(t)
	err := h.orch.Leave(context.Background(), uuid.New())
	assert.ErrorIs(t, err, session.ErrUnknownSession)
}

func TestOrchestrator_Liveness_DemotesUnreachableClient(t *testing.T) {
	h := newHarness(t)
	game := h.startGame(t, "A", "B", "C", "D")

	h.client("D").setUnreachable()
	h.orch.Tick(context.Background())

	sess, ok := h.orch.Registry().Get(h.ids["D"])
	require.True(t, ok)
	assert.False(t, sess.Active)

	p, ok := game.Player("D")
	require.True(t, ok)
	assert.False(t, p.Alive, "unreachable players are eliminated during play")

	// With the cop gone a single mafia kill completes the night.
	h.act(t, "C", mafia.ActionKill, "A")
	assert.Equal(t, mafia.PhaseDay, game.Phase())
}

func TestOrchestrator_Liveness_UnseatsBeforeStart(t *testing.T) {
	h := newHarness(t)
	h.register(t, "A", "B")
	h.orch.Tick(context.Background())
	game := h.orch.Games().All()[0]

	h.client("B").setUnreachable()
	h.orch.Tick(context.Background())

	assert.Equal(t, []string{"A"}, game.Members())
	assert.Equal(t, 1, h.orch.Registry().ActiveCount())
	assert.Equal(t, 1, h.orch.Games().Len(), "the open game is reused")
}

func TestOrchestrator_Run_StopsOnCancel(t *testing.T) {
	h := newHarness(t)
	h.register(t, "A")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.orch.Run(ctx) }()

	eventually(t, func() bool { return h.orch.Games().Len() == 1 }, "ticks run matchmaking")
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
