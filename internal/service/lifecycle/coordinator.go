// internal/service/lifecycle/coordinator.go
package lifecycle

import (
	"context"
	"time"

	"gym-admin-service/internal/domain/event"
	"gym-admin-service/internal/domain/payment"
	"gym-admin-service/internal/domain/subscription"
	xerrors "gym-admin-service/internal/pkg/errors"
	"gym-admin-service/internal/pkg/metrics"
	"gym-admin-service/internal/pkg/requestctx"
	paymentsvc "gym-admin-service/internal/service/payment"
	subscriptionsvc "gym-admin-service/internal/service/subscription"

	"go.uber.org/zap"
)

const (
	OpWalkIn             = "walk_in"
	OpCompletePayment    = "complete_payment"
	OpCancelSubscription = "cancel_subscription"
	OpExtendSubscription = "extend_subscription"
	OpRetryPayment       = "retry_payment"
	OpFailPayment        = "fail_payment"
	OpCancelPayment      = "cancel_payment"
)

type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Coordinator is the only writer that changes a subscription and a payment in
// the same unit of work. Every lifecycle mutation goes through it so events
// are published once, after commit.
type Coordinator struct {
	tx            Transactor
	subscriptions *subscriptionsvc.Ledger
	payments      *paymentsvc.Ledger
	publisher     event.Publisher
	logger        *zap.Logger
}

func NewCoordinator(
	tx Transactor,
	subscriptions *subscriptionsvc.Ledger,
	payments *paymentsvc.Ledger,
	publisher event.Publisher,
	logger *zap.Logger,
) *Coordinator {
	if publisher == nil {
		publisher = event.Discard{}
	}
	return &Coordinator{
		tx:            tx,
		subscriptions: subscriptions,
		payments:      payments,
		publisher:     publisher,
		logger:        logger,
	}
}

// CompletionResult is the outcome of settling a pending payment. Subscription
// is always the owning subscription; Activated reports whether it moved from
// pending to active in the same unit of work.
type CompletionResult struct {
	Payment      *payment.Transaction           `json:"payment"`
	Subscription *subscription.UserSubscription `json:"subscription,omitempty"`
	Activated    bool                           `json:"activated"`
}

// CreateWalkInSubscription signs up a member at the desk. The subscription
// and its completed payment are written together or not at all.
func (c *Coordinator) CreateWalkInSubscription(ctx context.Context, req *subscription.WalkInRequest) (*subscription.WalkInResult, error) {
	if req.AmountPaid == nil || req.AmountPaid.IsNegative() {
		c.record(OpWalkIn, xerrors.ErrInvalidAmount)
		return nil, xerrors.ErrInvalidAmount
	}
	method := req.PaymentMethod
	if method == "" {
		method = payment.MethodCash
	}

	result := &subscription.WalkInResult{}
	err := c.tx.RunInTx(ctx, func(ctx context.Context) error {
		sub, err := c.subscriptions.Create(ctx, req.UserID, req.PlanID, *req.AmountPaid, "", req.AutoRenew)
		if err != nil {
			return err
		}

		pay, err := c.payments.RecordForSubscription(ctx, sub.ID, sub.AmountPaid, sub.Currency, method)
		if err != nil {
			return err
		}

		result.Subscription = sub
		result.Payment = pay
		return nil
	})
	c.record(OpWalkIn, err)
	if err != nil {
		c.logger.Warn("walk-in subscription failed",
			zap.Int64("user_id", req.UserID),
			zap.Int64("plan_id", req.PlanID),
			zap.Error(err),
		)
		return nil, err
	}

	c.publish(ctx, event.SubscriptionWalkInCreated, result.Subscription, result.Payment)
	return result, nil
}

// CompletePendingPayment settles a payment. When its subscription is still
// pending it is activated in the same unit of work; an active subscription is
// left as it is.
func (c *Coordinator) CompletePendingPayment(ctx context.Context, paymentID int64, req *payment.CompletePaymentRequest) (*CompletionResult, error) {
	if req.AmountPaid == nil {
		c.record(OpCompletePayment, xerrors.ErrInvalidAmount)
		return nil, xerrors.ErrInvalidAmount
	}
	result := &CompletionResult{}

	err := c.tx.RunInTx(ctx, func(ctx context.Context) error {
		pay, err := c.payments.Lock(ctx, paymentID)
		if err != nil {
			return err
		}
		sub, err := c.subscriptions.Lock(ctx, pay.SubscriptionID)
		if err != nil {
			return err
		}

		if err := c.payments.ApplyCompleted(ctx, pay, *req.AmountPaid, req.PaymentMethod, req.Notes); err != nil {
			return err
		}

		activated, err := c.subscriptions.Activate(ctx, sub, pay.Amount)
		if err != nil {
			return err
		}

		result.Payment = pay
		result.Subscription = sub
		result.Activated = activated
		return nil
	})
	c.record(OpCompletePayment, err)
	if err != nil {
		c.logger.Warn("payment completion failed", zap.Int64("payment_id", paymentID), zap.Error(err))
		return nil, err
	}

	c.logger.Info("pending payment completed",
		zap.Int64("payment_id", result.Payment.ID),
		zap.Int64("subscription_id", result.Subscription.ID),
		zap.Bool("subscription_activated", result.Activated),
	)

	result.Subscription.Observe(time.Now().UTC())
	c.publish(ctx, event.PaymentCompleted, result.Subscription, result.Payment)
	if result.Activated {
		c.publish(ctx, event.SubscriptionActivated, result.Subscription, result.Payment)
	}
	return result, nil
}

func (c *Coordinator) CancelSubscription(ctx context.Context, id int64, reason string) (*subscription.UserSubscription, error) {
	sub, err := c.subscriptions.Cancel(ctx, id, reason)
	c.record(OpCancelSubscription, err)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, event.SubscriptionCancelled, sub, nil)
	return sub, nil
}

func (c *Coordinator) ExtendSubscription(ctx context.Context, id int64, days int) (*subscription.UserSubscription, error) {
	sub, err := c.subscriptions.Extend(ctx, id, days)
	c.record(OpExtendSubscription, err)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, event.SubscriptionExtended, sub, nil)
	return sub, nil
}

// RetryPayment moves a failed or cancelled payment back to pending. It only
// records intent; resubmitting to a gateway happens elsewhere.
func (c *Coordinator) RetryPayment(ctx context.Context, id int64) (*payment.Transaction, error) {
	pay, sub, err := c.transitionPayment(ctx, id, c.payments.ApplyRetry)
	c.record(OpRetryPayment, err)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, event.PaymentRetried, sub, pay)
	return pay, nil
}

func (c *Coordinator) FailPayment(ctx context.Context, id int64, reason string) (*payment.Transaction, error) {
	pay, sub, err := c.transitionPayment(ctx, id, func(ctx context.Context, t *payment.Transaction) error {
		return c.payments.ApplyFailed(ctx, t, reason)
	})
	c.record(OpFailPayment, err)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, event.PaymentFailed, sub, pay)
	return pay, nil
}

func (c *Coordinator) CancelPayment(ctx context.Context, id int64, reason string) (*payment.Transaction, error) {
	pay, sub, err := c.transitionPayment(ctx, id, func(ctx context.Context, t *payment.Transaction) error {
		return c.payments.ApplyCancelled(ctx, t, reason)
	})
	c.record(OpCancelPayment, err)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, event.PaymentCancelled, sub, pay)
	return pay, nil
}

// transitionPayment applies a payment-only transition and mirrors the new
// payment status onto a subscription that is still pending.
func (c *Coordinator) transitionPayment(
	ctx context.Context,
	id int64,
	apply func(context.Context, *payment.Transaction) error,
) (*payment.Transaction, *subscription.UserSubscription, error) {
	var (
		pay *payment.Transaction
		sub *subscription.UserSubscription
	)

	err := c.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := c.payments.Lock(ctx, id)
		if err != nil {
			return err
		}
		owner, err := c.subscriptions.Lock(ctx, current.SubscriptionID)
		if err != nil {
			return err
		}
		if err := apply(ctx, current); err != nil {
			return err
		}
		if err := c.subscriptions.MirrorPaymentStatus(ctx, owner, current.Status); err != nil {
			return err
		}
		pay, sub = current, owner
		return nil
	})
	if err != nil {
		c.logger.Warn("payment transition failed", zap.Int64("payment_id", id), zap.Error(err))
		return nil, nil, err
	}

	c.logger.Info("payment transitioned",
		zap.Int64("payment_id", pay.ID),
		zap.String("status", string(pay.Status)),
		zap.Int("retry_count", pay.RetryCount),
	)
	return pay, sub, nil
}

func (c *Coordinator) publish(ctx context.Context, t event.Type, sub *subscription.UserSubscription, pay *payment.Transaction) {
	e := event.New(t, sub, pay)
	e.ActorID = requestctx.IdentityFrom(ctx)
	c.publisher.Publish(context.WithoutCancel(ctx), e)
}

func (c *Coordinator) record(operation string, err error) {
	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case xerrors.IsNotFound(err), xerrors.IsInvariantViolation(err):
		outcome = metrics.OutcomeRejected
	default:
		outcome = metrics.OutcomeError
		c.logger.Error("lifecycle operation failed", zap.String("operation", operation), zap.Error(err))
	}
	metrics.LifecycleOperations.WithLabelValues(operation, outcome).Inc()
}
