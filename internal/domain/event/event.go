// internal/domain/event/event.go
package event

import (
	"context"
	"maps"
	"time"

	"gym-admin-service/internal/domain/payment"
	"gym-admin-service/internal/domain/subscription"

	"github.com/google/uuid"
)

// Type doubles as the broker routing key.
type Type string

const (
	SubscriptionWalkInCreated Type = "subscription.walk_in_created"
	SubscriptionActivated     Type = "subscription.activated"
	SubscriptionCancelled     Type = "subscription.cancelled"
	SubscriptionExtended      Type = "subscription.extended"
	PaymentCompleted          Type = "payment.completed"
	PaymentRetried            Type = "payment.retried"
	PaymentFailed             Type = "payment.failed"
	PaymentCancelled          Type = "payment.cancelled"
)

// Event describes a lifecycle change that has already been committed.
type Event struct {
	ID           string                         `json:"id"`
	Type         Type                           `json:"type"`
	OccurredAt   time.Time                      `json:"occurred_at"`
	ActorID      int64                          `json:"actor_id,omitempty"`
	Subscription *subscription.UserSubscription `json:"subscription,omitempty"`
	Payment      *payment.Transaction           `json:"payment,omitempty"`
}

// New snapshots sub and pay so the event never shares memory with records
// the caller keeps using. The subscription status is the one observed at the
// time of the event.
func New(t Type, sub *subscription.UserSubscription, pay *payment.Transaction) Event {
	e := Event{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
	}
	if sub != nil {
		s := *sub
		s.Observe(e.OccurredAt)
		e.Subscription = &s
	}
	if pay != nil {
		p := *pay
		p.GatewayResponse = maps.Clone(pay.GatewayResponse)
		e.Payment = &p
	}
	return e
}

// Publisher delivers committed events. Delivery is best effort; failures are
// the publisher's to log and never reach the caller.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Fanout delivers each event to every publisher in order.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) {
	for _, p := range f {
		if p != nil {
			p.Publish(ctx, e)
		}
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) {}
