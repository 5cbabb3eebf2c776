// internal/websocket/handler/subscription.go
package handler

import (
	"context"
	"fmt"

	"gym-admin-service/internal/domain/payment"
	"gym-admin-service/internal/domain/subscription"
	wstypes "gym-admin-service/internal/domain/websocket"
	ws "gym-admin-service/internal/websocket"
)

type SubscriptionReader interface {
	Get(ctx context.Context, id int64) (*subscription.UserSubscription, error)
}

type PaymentReader interface {
	ListForSubscription(ctx context.Context, subscriptionID int64) ([]payment.Transaction, error)
}

// SubscriptionHandler lets a dashboard pull the current state of a
// subscription after it sees a lifecycle event for it.
type SubscriptionHandler struct {
	subscriptions SubscriptionReader
	payments      PaymentReader
}

func NewSubscriptionHandler(subscriptions SubscriptionReader, payments PaymentReader) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptions: subscriptions,
		payments:      payments,
	}
}

func (h *SubscriptionHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{
		wstypes.EventTypeSubscriptionGet,
		wstypes.EventTypePaymentList,
	}
}

func (h *SubscriptionHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	var req wstypes.LookupRequest
	if err := ws.DecodeData(msg.Data, &req); err != nil {
		return fmt.Errorf("invalid lookup request: %w", err)
	}
	if req.SubscriptionID <= 0 {
		return fmt.Errorf("subscription_id is required")
	}

	switch msg.Type {
	case wstypes.EventTypeSubscriptionGet:
		sub, err := h.subscriptions.Get(ctx, req.SubscriptionID)
		if err != nil {
			return err
		}
		client.SendMessage(reply(msg, sub))

	case wstypes.EventTypePaymentList:
		payments, err := h.payments.ListForSubscription(ctx, req.SubscriptionID)
		if err != nil {
			return err
		}
		client.SendMessage(reply(msg, payments))

	default:
		return fmt.Errorf("unsupported event type: %s", msg.Type)
	}
	return nil
}

// reply echoes the request id so the dashboard can match the answer.
func reply(req *wstypes.WSMessage, data interface{}) *wstypes.WSMessage {
	out := wstypes.NewMessage(req.Type, data)
	out.Metadata = map[string]interface{}{"request_id": req.ID}
	return out
}
