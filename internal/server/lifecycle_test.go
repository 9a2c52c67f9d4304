package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockService struct {
	started atomic.Bool
	stopped atomic.Bool
	startFn func(ctx context.Context) error
	onStop  func()
}

func (m *mockService) Start(ctx context.Context) error {
	m.started.Store(true)
	if m.startFn != nil {
		return m.startFn(ctx)
	}
	<-ctx.Done()
	return nil
}

func (m *mockService) Stop() {
	m.stopped.Store(true)
	if m.onStop != nil {
		m.onStop()
	}
}

func waitStarted(t *testing.T, svcs ...*mockService) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, s := range svcs {
			if !s.started.Load() {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond, "services did not start in time")
}

func TestLifecycleStartsAndStopsServices(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))

	svc1 := &mockService{}
	svc2 := &mockService{}
	lc.Add("svc1", svc1)
	lc.Add("svc2", svc2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()

	waitStarted(t, svc1, svc2)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
	}
	assert.True(t, svc1.stopped.Load())
	assert.True(t, svc2.stopped.Load())
}

func TestLifecycleStopsInReverseOrder(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))

	var mu sync.Mutex
	var order []string
	record := func(name string) func() {
		return func() {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}
	first := &mockService{onStop: record("first")}
	second := &mockService{onStop: record("second")}
	lc.Add("first", first)
	lc.Add("second", second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()
	waitStarted(t, first, second)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []string{"second", "first"}, order)
}

func TestLifecycleServiceErrorTriggersShutdown(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))

	boom := errors.New("listener closed")
	failing := &mockService{startFn: func(context.Context) error { return boom }}
	healthy := &mockService{}
	lc.Add("healthy", healthy)
	lc.Add("failing", failing)

	done := make(chan error, 1)
	go func() { done <- lc.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "service failing")
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down after service error")
	}
	assert.True(t, healthy.stopped.Load())
	assert.True(t, failing.stopped.Load())
}

func TestFuncService(t *testing.T) {
	var stopped bool
	svc := &FuncService{
		StartFn: func(ctx context.Context) error { return ctx.Err() },
		StopFn:  func() { stopped = true },
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, svc.Start(ctx), context.Canceled)
	svc.Stop()
	assert.True(t, stopped)

	(&FuncService{StartFn: func(context.Context) error { return nil }}).Stop()
}
