package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrAlreadyRegistered is returned when a display name is taken.
	ErrAlreadyRegistered = errors.New("name already registered")
	// ErrUnknownSession is returned for ids that were never registered.
	ErrUnknownSession = errors.New("unknown session")
	// ErrInactive is returned when delivering to a session that is not active.
	ErrInactive = errors.New("session is not active")
)

// Notifier is the set of calls the server makes on a client.
// Implementations must honour ctx deadlines.
type Notifier interface {
	NotifyJoin(ctx context.Context, player string) error
	NotifyLeave(ctx context.Context, player string) error
	NotifyAction(ctx context.Context, text string) error
	SendRole(ctx context.Context, role string) error
	SendAvailableActions(ctx context.Context, actions []string) error
	Livez(ctx context.Context) error
	Close() error
}

// Session is a snapshot of one registered client.
type Session struct {
	ID     uuid.UUID
	Name   string
	Host   string
	Port   int
	Active bool
	// GameID is uuid.Nil while the client is not seated in a game.
	GameID uuid.UUID
	Client Notifier
	Outbox *Outbox
}

// InGame reports whether the session is assigned to a game.
func (s Session) InGame() bool {
	return s.GameID != uuid.Nil
}

// Registry maps client identity to transport and tracks which registered
// clients are currently active and which game each one sits in.
// All methods are safe for concurrent use and return copies.
type Registry struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]*Session
	byName     map[string]uuid.UUID
	outboxSize int
	timeout    time.Duration
	logger     *zap.Logger
}

// NewRegistry creates an empty Registry. Every session's outbox is buffered
// to outboxSize and bounds each delivery by timeout.
//
// Precondition: timeout > 0; logger must be non-nil.
func NewRegistry(outboxSize int, timeout time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		byID:       make(map[uuid.UUID]*Session),
		byName:     make(map[string]uuid.UUID),
		outboxSize: outboxSize,
		timeout:    timeout,
		logger:     logger,
	}
}

// Register records a new active client.
//
// Precondition: name must be non-empty; client must be non-nil.
// Postcondition: Returns the new session, or ErrAlreadyRegistered if the
// name is taken (by an active or inactive session).
func (r *Registry) Register(name, host string, port int, client Notifier) (Session, error) {
	if name == "" {
		return Session{}, errors.New("name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byName[name]; taken {
		return Session{}, fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}

	outbox := NewOutbox(name, r.outboxSize)
	outbox.Start(r.timeout, r.logger)

	sess := &Session{
		ID:     uuid.New(),
		Name:   name,
		Host:   host,
		Port:   port,
		Active: true,
		Client: client,
		Outbox: outbox,
	}
	r.byID[sess.ID] = sess
	r.byName[name] = sess.ID

	r.logger.Info("client registered",
		zap.String("name", name),
		zap.Stringer("id", sess.ID),
		zap.String("host", host),
		zap.Int("port", port),
	)
	return *sess, nil
}

// MarkInactive removes a session from the active subset while keeping its
// registration. The outbox is closed and the transport released once the
// outbox has drained.
//
// Postcondition: Returns the session and whether it was active before the
// call, or ErrUnknownSession.
func (r *Registry) MarkInactive(id uuid.UUID) (Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.byID[id]
	if !ok {
		return Session{}, false, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	wasActive := sess.Active
	if wasActive {
		sess.Active = false
		_ = sess.Outbox.Close()
		outbox, client := sess.Outbox, sess.Client
		go func() {
			<-outbox.Done()
			_ = client.Close()
		}()
		r.logger.Info("client marked inactive", zap.String("name", sess.Name), zap.Stringer("id", id))
	}
	return *sess, wasActive, nil
}

// Get returns the session with the given id.
func (r *Registry) Get(id uuid.UUID) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.byID[id]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// GetByName returns the registered session with the given name.
func (r *Registry) GetByName(name string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		return Session{}, false
	}
	return *r.byID[id], true
}

// ActiveByName returns the named session only if it is active.
func (r *Registry) ActiveByName(name string) (Session, bool) {
	sess, ok := r.GetByName(name)
	if !ok || !sess.Active {
		return Session{}, false
	}
	return sess, true
}

// Active returns every active session, sorted by name.
func (r *Registry) Active() []Session {
	return r.filter(func(s *Session) bool { return s.Active })
}

// Unassigned returns the active sessions not seated in any game, sorted by name.
func (r *Registry) Unassigned() []Session {
	return r.filter(func(s *Session) bool { return s.Active && s.GameID == uuid.Nil })
}

func (r *Registry) filter(keep func(*Session) bool) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Session
	for _, s := range r.byID {
		if keep(s) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AssignGame records the game a session is seated in.
//
// Postcondition: Returns ErrUnknownSession for unregistered ids.
func (r *Registry) AssignGame(id, gameID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	sess.GameID = gameID
	return nil
}

// ClearGame detaches the named session from gameID. Sessions seated in a
// different game, or in none, are left alone.
//
// Postcondition: Returns whether the assignment was cleared.
func (r *Registry) ClearGame(name string, gameID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byName[name]
	if !ok || r.byID[id].GameID != gameID || gameID == uuid.Nil {
		return false
	}
	r.byID[id].GameID = uuid.Nil
	return true
}

// Deliver queues a call on the named session's outbox.
//
// Postcondition: Returns ErrInactive when the session is unknown or not
// active, or the outbox error when the queue refuses the delivery.
func (r *Registry) Deliver(name, kind string, send func(ctx context.Context, n Notifier) error) error {
	sess, ok := r.ActiveByName(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrInactive, name)
	}
	client := sess.Client
	return sess.Outbox.Push(Delivery{
		Kind: kind,
		Send: func(ctx context.Context) error { return send(ctx, client) },
	})
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// ActiveCount returns the number of active sessions.
func (r *Registry) ActiveCount() int {
	return len(r.Active())
}

// Close marks every session inactive, releasing outboxes and transports.
func (r *Registry) Close() {
	r.mu.RLock()
	ids := make([]uuid.UUID, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	for _, id := range ids {
		_, _, _ = r.MarkInactive(id)
	}
}
