// internal/service/notification/service.go
package notification

import (
	"context"
	"fmt"
	"html"
	"time"

	"gym-admin-service/internal/domain/event"
	"gym-admin-service/internal/domain/plan"
	"gym-admin-service/internal/domain/user"
	"gym-admin-service/internal/pkg/metrics"

	"go.uber.org/zap"
)

const sinkEmail = "email"

// Mailer sends one HTML message.
type Mailer interface {
	Send(to, subject, bodyHTML string) error
}

// ReceiptService emails members a receipt for committed walk-ins and
// completed payments. It is an event.Publisher; delivery happens on the
// goroutine running Run.
type ReceiptService struct {
	users  user.Repository
	plans  plan.Repository
	mailer Mailer
	queue  chan event.Event
	logger *zap.Logger
}

func NewReceiptService(users user.Repository, plans plan.Repository, mailer Mailer, buffer int, logger *zap.Logger) *ReceiptService {
	if buffer <= 0 {
		buffer = 64
	}
	return &ReceiptService{
		users:  users,
		plans:  plans,
		mailer: mailer,
		queue:  make(chan event.Event, buffer),
		logger: logger,
	}
}

// Publish queues receipt-worthy events. A full queue drops the event.
func (s *ReceiptService) Publish(_ context.Context, e event.Event) {
	if !wantsReceipt(e) {
		return
	}
	select {
	case s.queue <- e:
	default:
		metrics.EventsPublished.WithLabelValues(sinkEmail, "dropped").Inc()
		s.logger.Warn("receipt queue full, dropping event",
			zap.String("event_id", e.ID),
			zap.String("event_type", string(e.Type)),
		)
	}
}

// Run delivers queued receipts until ctx is done.
func (s *ReceiptService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-s.queue:
			result := "ok"
			if err := s.Deliver(ctx, e); err != nil {
				result = "error"
				s.logger.Warn("failed to send receipt",
					zap.String("event_id", e.ID),
					zap.String("event_type", string(e.Type)),
					zap.Error(err),
				)
			}
			metrics.EventsPublished.WithLabelValues(sinkEmail, result).Inc()
		}
	}
}

// Deliver renders and sends the receipt for e.
func (s *ReceiptService) Deliver(ctx context.Context, e event.Event) error {
	if !wantsReceipt(e) {
		return nil
	}

	member, err := s.users.FindByID(ctx, e.Subscription.UserID)
	if err != nil {
		return fmt.Errorf("failed to load member: %w", err)
	}
	p, err := s.plans.FindByID(ctx, e.Subscription.PlanID)
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}

	subject := fmt.Sprintf("Payment receipt %s", e.Payment.PaymentReference)
	if err := s.mailer.Send(member.Email, subject, renderReceipt(member, p, e)); err != nil {
		return err
	}

	s.logger.Info("receipt sent",
		zap.Int64("user_id", member.ID),
		zap.String("payment_reference", e.Payment.PaymentReference),
	)
	return nil
}

func wantsReceipt(e event.Event) bool {
	if e.Subscription == nil || e.Payment == nil {
		return false
	}
	return e.Type == event.SubscriptionWalkInCreated || e.Type == event.PaymentCompleted
}

func renderReceipt(member *user.User, p *plan.Plan, e event.Event) string {
	validUntil := "pending activation"
	if e.Subscription.EndDate != nil {
		validUntil = e.Subscription.EndDate.Format("02 Jan 2006")
	}
	paidAt := e.OccurredAt
	if e.Payment.PaidAt != nil {
		paidAt = *e.Payment.PaidAt
	}

	return fmt.Sprintf(`
		<p>Hello %s,</p>
		<p>We have received your payment. Your membership details:</p>
		<table class="receipt">
			<tr><td>Plan</td><td>%s</td></tr>
			<tr><td>Amount</td><td>%s %s</td></tr>
			<tr><td>Method</td><td>%s</td></tr>
			<tr><td>Paid on</td><td>%s</td></tr>
			<tr><td>Valid until</td><td>%s</td></tr>
			<tr><td>Subscription</td><td>%s</td></tr>
			<tr><td>Payment</td><td>%s</td></tr>
		</table>
	`,
		html.EscapeString(member.FullName),
		html.EscapeString(p.Name),
		e.Payment.Amount.StringFixed(2), e.Payment.Currency,
		html.EscapeString(e.Payment.PaymentMethod),
		paidAt.Format(time.RFC1123),
		validUntil,
		e.Subscription.SubscriptionReference,
		e.Payment.PaymentReference,
	)
}
