// Package notify delivers user notifications for activity events. Delivery
// is best-effort: callers hand events to a Notifier and never wait on or
// fail because of it.
package notify

import (
	"context"

	"github.com/google/uuid"

	"gocial/backend/internal/model"
)

type Event struct {
	UserID  uuid.UUID              `json:"user_id"`
	ActorID *uuid.UUID             `json:"actor_id,omitempty"`
	Type    model.NotificationType `json:"type"`
	Title   string                 `json:"title"`
	Body    string                 `json:"body,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Notifier accepts events without blocking.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// Sink performs the actual delivery of one event.
type Sink interface {
	Deliver(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}

// RoutingKey is the broker routing key of an event type.
func RoutingKey(t model.NotificationType) string {
	return "notification." + string(t)
}
