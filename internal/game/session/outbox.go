// Package session tracks registered clients: their identity, reachability,
// game assignment, and an ordered outbound delivery queue per client.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Delivery is one outbound call to a client. It must honour ctx.
type Delivery struct {
	// Kind names the call for logging, e.g. "NotifyAction".
	Kind string
	Send func(ctx context.Context) error
}

// Outbox serializes deliveries to one client. Pushes never block; a
// single goroutine drains the queue, bounding each call by a timeout.
// Deliveries leave in the order they were pushed.
type Outbox struct {
	owner      string
	deliveries chan Delivery
	mu         sync.Mutex
	closed     bool
	done       chan struct{}
}

// NewOutbox creates an Outbox for the given client name.
//
// Precondition: owner must be non-empty.
// Postcondition: Returns an open Outbox; call Start to begin draining.
func NewOutbox(owner string, bufferSize int) *Outbox {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Outbox{
		owner:      owner,
		deliveries: make(chan Delivery, bufferSize),
		done:       make(chan struct{}),
	}
}

// Push enqueues a delivery.
//
// Postcondition: The delivery is queued, or an error is returned if the
// outbox is closed or its buffer is full. Dropped deliveries are not retried.
func (o *Outbox) Push(d Delivery) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return fmt.Errorf("outbox %s is closed", o.owner)
	}
	select {
	case o.deliveries <- d:
		return nil
	default:
		return fmt.Errorf("outbox %s delivery buffer full", o.owner)
	}
}

// Start launches the draining goroutine. Each delivery runs with the given
// timeout; failures are logged at warn and dropped.
//
// Postcondition: The goroutine exits after Close once the queue is drained.
func (o *Outbox) Start(timeout time.Duration, logger *zap.Logger) {
	go func() {
		defer close(o.done)
		for d := range o.deliveries {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			start := time.Now()
			err := d.Send(ctx)
			cancel()
			if err != nil {
				logger.Warn("delivery failed",
					zap.String("client", o.owner),
					zap.String("kind", d.Kind),
					zap.Duration("elapsed", time.Since(start)),
					zap.Error(err),
				)
			}
		}
	}()
}

// Close stops accepting deliveries. Queued deliveries are still attempted.
//
// Postcondition: Further Push calls return an error. Close is idempotent.
func (o *Outbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		o.closed = true
		close(o.deliveries)
	}
	return nil
}

// IsClosed reports whether the outbox has been closed.
func (o *Outbox) IsClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// Done is closed once a started outbox has drained after Close.
func (o *Outbox) Done() <-chan struct{} {
	return o.done
}
