package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestOutbox_PushAndDrainInOrder(t *testing.T) {
	o := NewOutbox("alice", 8)
	var mu sync.Mutex
	var got []string
	for _, s := range []string{"one", "two", "three"} {
		require.NoError(t, o.Push(Delivery{Kind: "test", Send: func(context.Context) error {
			mu.Lock()
			got = append(got, s)
			mu.Unlock()
			return nil
		}}))
	}
	o.Start(time.Second, zaptest.NewLogger(t))
	require.NoError(t, o.Close())

	select {
	case <-o.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("outbox did not drain")
	}
	assert.Equal(t, []string{"one", "two", "three"}, got)
}

func TestOutbox_PushClosed(t *testing.T) {
	o := NewOutbox("alice", 4)
	require.NoError(t, o.Close())
	assert.True(t, o.IsClosed())
	err := o.Push(Delivery{Send: func(context.Context) error { return nil }})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outbox alice is closed")
}

func TestOutbox_PushFull(t *testing.T) {
	o := NewOutbox("alice", 1)
	require.NoError(t, o.Push(Delivery{Send: func(context.Context) error { return nil }}))
	err := o.Push(Delivery{Send: func(context.Context) error { return nil }})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "buffer full")
}

func TestOutbox_CloseIdempotent(t *testing.T) {
	o := NewOutbox("alice", 4)
	require.NoError(t, o.Close())
	require.NoError(t, o.Close())
	assert.True(t, o.IsClosed())
}

func TestOutbox_TimeoutBoundsDelivery(t *testing.T) {
	o := NewOutbox("slow", 4)
	o.Start(20*time.Millisecond, zaptest.NewLogger(t))
	errCh := make(chan error, 1)
	require.NoError(t, o.Push(Delivery{Kind: "slow", Send: func(ctx context.Context) error {
		<-ctx.Done()
		errCh <- ctx.Err()
		return ctx.Err()
	}}))
	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	case <-time.After(2 * time.Second):
		t.Fatal("delivery was not cancelled by the timeout")
	}
	require.NoError(t, o.Close())
}

func TestOutbox_FailureDoesNotStopQueue(t *testing.T) {
	o := NewOutbox("alice", 4)
	o.Start(time.Second, zaptest.NewLogger(t))
	delivered := make(chan struct{})
	require.NoError(t, o.Push(Delivery{Kind: "fail", Send: func(context.Context) error { return errors.New("unreachable") }}))
	require.NoError(t, o.Push(Delivery{Kind: "ok", Send: func(context.Context) error { close(delivered); return nil }}))
	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("second delivery not attempted")
	}
	require.NoError(t, o.Close())
}
