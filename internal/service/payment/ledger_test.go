package payment

import (
	"context"
	"testing"
	"time"

	"gym-admin-service/internal/domain/payment"
	"gym-admin-service/internal/domain/plan"
	"gym-admin-service/internal/domain/subscription"
	"gym-admin-service/internal/domain/user"
	xerrors "gym-admin-service/internal/pkg/errors"
	"gym-admin-service/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	ledger *Ledger
	store  *memory.Store
}

// transition locks the payment and applies fn inside one unit of work, the
// way the lifecycle coordinator drives the ledger.
func (f fixture) transition(id int64, fn func(context.Context, *payment.Transaction) error) error {
	return f.store.RunInTx(context.Background(), func(ctx context.Context) error {
		t, err := f.ledger.Lock(ctx, id)
		if err != nil {
			return err
		}
		return fn(ctx, t)
	})
}

func newLedger(t *testing.T) (fixture, *subscription.UserSubscription) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	u := &user.User{FullName: "Pat Public", Email: "pat@gym.test", Category: user.CategoryPublic}
	require.NoError(t, memory.NewUserRepository(store).Create(ctx, u))
	p := &plan.Plan{
		PlanCode:     "PUBLIC-7",
		Name:         "Week pass",
		UserCategory: user.CategoryPublic,
		Price:        decimal.RequireFromString("12.00"),
		Currency:     "EUR",
		DurationDays: 7,
		IsActive:     true,
	}
	require.NoError(t, memory.NewPlanRepository(store).Create(ctx, p))

	subs := memory.NewSubscriptionRepository(store)
	sub := subscription.NewActive(u.ID, p, "SUB-TEST", p.Price, p.Currency, false, time.Now())
	require.NoError(t, subs.Create(ctx, sub))

	ledger := NewLedger(memory.NewPaymentRepository(store), subs, zap.NewNop())
	return fixture{ledger: ledger, store: store}, sub
}

func TestRecordForSubscription(t *testing.T) {
	f, sub := newLedger(t)
	ledger := f.ledger
	ctx := context.Background()

	pay, err := ledger.RecordForSubscription(ctx, sub.ID, decimal.RequireFromString("12.005"), "eur", "")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCompleted, pay.Status)
	assert.Equal(t, payment.MethodCash, pay.PaymentMethod)
	assert.Equal(t, "EUR", pay.Currency)
	assert.Equal(t, "12.01", pay.Amount.StringFixed(2))
	assert.NotNil(t, pay.PaidAt)
	assert.Regexp(t, `^PAY-`, pay.PaymentReference)

	_, err = ledger.RecordForSubscription(ctx, sub.ID, decimal.NewFromInt(-5), "EUR", payment.MethodCard)
	assert.ErrorIs(t, err, xerrors.ErrInvalidAmount)
}

func TestApplyCompletedRejectsSettledPayment(t *testing.T) {
	f, sub := newLedger(t)
	ledger := f.ledger
	ctx := context.Background()

	pay, err := ledger.RecordForSubscription(ctx, sub.ID, decimal.RequireFromString("12.00"), "EUR", payment.MethodCard)
	require.NoError(t, err)

	complete := func(ctx context.Context, t *payment.Transaction) error {
		return ledger.ApplyCompleted(ctx, t, decimal.RequireFromString("12.00"), payment.MethodCard, "")
	}
	assert.ErrorIs(t, f.transition(pay.ID, complete), xerrors.ErrAlreadyCompleted)
	assert.True(t, xerrors.IsNotFound(f.transition(4242, complete)))
}

func TestCompletedPaymentIsTerminal(t *testing.T) {
	f, sub := newLedger(t)
	ledger := f.ledger
	ctx := context.Background()

	pay, err := ledger.RecordForSubscription(ctx, sub.ID, decimal.RequireFromString("12.00"), "EUR", payment.MethodGateway)
	require.NoError(t, err)

	err = f.transition(pay.ID, func(ctx context.Context, t *payment.Transaction) error {
		return ledger.ApplyFailed(ctx, t, "declined")
	})
	assert.ErrorIs(t, err, xerrors.ErrInvalidTransition)
	err = f.transition(pay.ID, func(ctx context.Context, t *payment.Transaction) error {
		return ledger.ApplyCancelled(ctx, t, "")
	})
	assert.ErrorIs(t, err, xerrors.ErrInvalidTransition)
	assert.ErrorIs(t, f.transition(pay.ID, ledger.ApplyRetry), xerrors.ErrNotRetryable)

	stored, err := ledger.GetByID(ctx, pay.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.AuditTrail())
}

func TestListForSubscription(t *testing.T) {
	f, sub := newLedger(t)
	ledger := f.ledger
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := ledger.RecordForSubscription(ctx, sub.ID, decimal.RequireFromString("12.00"), "EUR", payment.MethodCash)
		require.NoError(t, err)
	}

	payments, err := ledger.ListForSubscription(ctx, sub.ID)
	require.NoError(t, err)
	require.Len(t, payments, 3)
	assert.Less(t, payments[0].ID, payments[2].ID)

	_, err = ledger.ListForSubscription(ctx, 999)
	assert.ErrorIs(t, err, xerrors.ErrSubscriptionNotFound)

	card := payment.MethodCard
	page, err := ledger.List(ctx, &payment.PaymentListFilters{PaymentMethod: card})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Payments)
}
