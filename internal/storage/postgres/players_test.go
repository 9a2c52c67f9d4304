package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/partygames/mafia/internal/config"
	"github.com/partygames/mafia/internal/stats"
	"github.com/partygames/mafia/internal/storage/postgres"
	"github.com/partygames/mafia/internal/testutil"
)

func setupPlayerRepo(t *testing.T) *postgres.PlayerRepository {
	t.Helper()
	return testutil.RunContainer(t).PlayerRepository
}

func TestPlayerRepository_UpsertCreatesZeroedRecord(t *testing.T) {
	repo := setupPlayerRepo(t)
	ctx := context.Background()

	name := testutil.UniqueName("alice")
	require.NoError(t, repo.UpsertPlayer(ctx, name))

	rec, err := repo.Get(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, stats.Record{Name: name, Avatar: stats.DefaultAvatar}, rec)
}

func TestPlayerRepository_UpsertKeepsExisting(t *testing.T) {
	repo := setupPlayerRepo(t)
	ctx := context.Background()

	name := testutil.UniqueName("bob")
	require.NoError(t, repo.UpsertPlayer(ctx, name))
	require.NoError(t, repo.IncrementPlayerStats(ctx, name, stats.Delta{Wins: 1, SecondsPlayed: 30}))
	require.NoError(t, repo.UpsertPlayer(ctx, name))

	rec, err := repo.Get(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Wins)
	assert.InDelta(t, 30.0, rec.SecondsPlayed, 1e-9)
}

func TestPlayerRepository_UpsertEmptyName(t *testing.T) {
	repo := setupPlayerRepo(t)
	assert.Error(t, repo.UpsertPlayer(context.Background(), ""))
}

func TestPlayerRepository_IncrementUnknown(t *testing.T) {
	repo := setupPlayerRepo(t)
	err := repo.IncrementPlayerStats(context.Background(), "nobody", stats.Delta{Wins: 1})
	assert.ErrorIs(t, err, stats.ErrPlayerNotFound)
}

func TestPlayerRepository_GetUnknown(t *testing.T) {
	repo := setupPlayerRepo(t)
	_, err := repo.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, stats.ErrPlayerNotFound)
}

func TestPlayerRepository_ConcurrentIncrements(t *testing.T) {
	repo := setupPlayerRepo(t)
	ctx := context.Background()
	name := testutil.UniqueName("carol")
	require.NoError(t, repo.UpsertPlayer(ctx, name))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(won bool) {
			defer wg.Done()
			d := stats.Delta{SecondsPlayed: 1}
			if won {
				d.Wins = 1
			} else {
				d.Losses = 1
			}
			assert.NoError(t, repo.IncrementPlayerStats(ctx, name, d))
		}(i%2 == 0)
	}
	wg.Wait()

	rec, err := repo.Get(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, int64(10), rec.Wins)
	assert.Equal(t, int64(10), rec.Losses)
	assert.InDelta(t, 20.0, rec.SecondsPlayed, 1e-9)
}

func TestPlayerRepository_UpdateAvatar(t *testing.T) {
	repo := setupPlayerRepo(t)
	ctx := context.Background()
	name := testutil.UniqueName("dana")
	require.NoError(t, repo.UpsertPlayer(ctx, name))

	rec, err := repo.UpdateAvatar(ctx, name, name+".png")
	require.NoError(t, err)
	assert.Equal(t, stats.Record{Name: name, Avatar: name + ".png"}, rec)

	got, err := repo.Get(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, name+".png", got.Avatar)

	_, err = repo.UpdateAvatar(ctx, "nobody", "x.png")
	assert.ErrorIs(t, err, stats.ErrPlayerNotFound)
}

func TestStore_HealthAndClose(t *testing.T) {
	store := testutil.RunContainer(t)
	ctx := context.Background()
	require.NoError(t, store.Health(ctx, 5*time.Second))

	var s stats.Store = store
	require.NoError(t, s.UpsertPlayer(ctx, testutil.UniqueName("erin")))

	store.Close()
	assert.Error(t, store.Health(ctx, time.Second))
}

func TestOpen_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := postgres.Open(ctx, config.DatabaseConfig{
		Host: "127.0.0.1", Port: 1, User: "x", Password: "x", Name: "x", SSLMode: "disable", MaxConns: 1,
	})
	assert.Error(t, err)
}

func TestPlayerRepository_ListOrdered(t *testing.T) {
	repo := setupPlayerRepo(t)
	ctx := context.Background()
	for _, n := range []string{"zed", "amy", "mia"} {
		require.NoError(t, repo.UpsertPlayer(ctx, n))
	}
	list, err := repo.List(ctx)
	require.NoError(t, err)
	var names []string
	for _, r := range list {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"amy", "mia", "zed"}, names)
}

// Property: the stored record equals the sum of every applied delta.
func TestPropertyIncrementsAccumulate(t *testing.T) {
	repo := setupPlayerRepo(t)
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		name := testutil.UniqueName("prop")
		if err := repo.UpsertPlayer(ctx, name); err != nil {
			rt.Fatalf("upsert: %v", err)
		}
		var want stats.Record
		results := rapid.SliceOfN(rapid.Bool(), 0, 8).Draw(rt, "results")
		for i, won := range results {
			d := stats.GameDelta(won, time.Duration(i+1)*time.Second)
			want.Wins += d.Wins
			want.Losses += d.Losses
			want.SecondsPlayed += d.SecondsPlayed
			if err := repo.IncrementPlayerStats(ctx, name, d); err != nil {
				rt.Fatalf("increment: %v", err)
			}
		}
		got, err := repo.Get(ctx, name)
		if err != nil {
			rt.Fatalf("get: %v", err)
		}
		if got.Wins != want.Wins || got.Losses != want.Losses || got.SecondsPlayed != want.SecondsPlayed {
			rt.Fatalf("got %+v, want %+v", got, want)
		}
	})
}

func TestMigrate_RejectsBadArguments(t *testing.T) {
	_, err := postgres.Migrate("postgres://x@localhost/x", "sideways", 0)
	assert.Error(t, err)
	_, err = postgres.Migrate("postgres://x@localhost/x", "up", -1)
	assert.Error(t, err)
}
