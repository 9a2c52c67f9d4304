package gameserver

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/partygames/mafia/internal/game/mafia"
	"github.com/partygames/mafia/internal/game/session"
)

// NotificationRouter queues client calls on the recipients' outboxes. It
// never blocks on the network; recipients that are not active are skipped.
type NotificationRouter struct {
	registry *session.Registry
	logger   *zap.Logger
}

// NewNotificationRouter creates a NotificationRouter.
//
// Precondition: registry and logger must be non-nil.
func NewNotificationRouter(registry *session.Registry, logger *zap.Logger) *NotificationRouter {
	return &NotificationRouter{registry: registry, logger: logger}
}

// Action delivers each text, in order, to every named recipient.
func (r *NotificationRouter) Action(recipients []string, texts ...string) {
	for _, name := range recipients {
		for _, text := range texts {
			r.deliver(name, "NotifyAction", func(ctx context.Context, n session.Notifier) error {
				return n.NotifyAction(ctx, text)
			})
		}
	}
}

// Join tells recipient that player joined its game.
func (r *NotificationRouter) Join(recipient, player string) {
	r.deliver(recipient, "NotifyJoin", func(ctx context.Context, n session.Notifier) error {
		return n.NotifyJoin(ctx, player)
	})
}

// Leave tells recipient that player left its game.
func (r *NotificationRouter) Leave(recipient, player string) {
	r.deliver(recipient, "NotifyLeave", func(ctx context.Context, n session.Notifier) error {
		return n.NotifyLeave(ctx, player)
	})
}

// Role tells recipient its role.
func (r *NotificationRouter) Role(recipient string, role mafia.Role) {
	r.deliver(recipient, "SendRole", func(ctx context.Context, n session.Notifier) error {
		return n.SendRole(ctx, string(role))
	})
}

// Prompt offers recipient the actions it may take.
func (r *NotificationRouter) Prompt(recipient string, actions []mafia.Action) {
	wire := mafia.ActionStrings(actions)
	r.deliver(recipient, "SendAvailableActions", func(ctx context.Context, n session.Notifier) error {
		return n.SendAvailableActions(ctx, wire)
	})
}

func (r *NotificationRouter) deliver(name, kind string, send func(ctx context.Context, n session.Notifier) error) {
	err := r.registry.Deliver(name, kind, send)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrInactive):
		r.logger.Debug("skipping inactive recipient", zap.String("client", name), zap.String("kind", kind))
	default:
		r.logger.Warn("dropping delivery", zap.String("client", name), zap.String("kind", kind), zap.Error(err))
	}
}
