package payment

import (
	"testing"
	"time"

	xerrors "gym-admin-service/internal/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func pending() *Transaction {
	return &Transaction{
		ID:             1,
		SubscriptionID: 2,
		Amount:         decimal.NewFromInt(50),
		Currency:       "USD",
		Status:         StatusPending,
		PaymentMethod:  MethodGateway,
	}
}

func TestNewCompleted(t *testing.T) {
	tx := NewCompleted(9, "PAY-1", decimal.NewFromInt(30), "USD", MethodCash, now)

	assert.Equal(t, StatusCompleted, tx.Status)
	require.NotNil(t, tx.PaidAt)
	assert.Equal(t, now, *tx.PaidAt)
	assert.Equal(t, int64(9), tx.SubscriptionID)
}

func TestRetry(t *testing.T) {
	tx := pending()
	assert.ErrorIs(t, tx.Retry(now), xerrors.ErrNotRetryable)

	require.NoError(t, tx.Fail("card declined", now))
	require.NoError(t, tx.Retry(now))
	assert.Equal(t, StatusPending, tx.Status)
	assert.Equal(t, 1, tx.RetryCount)
	assert.Empty(t, tx.FailureReason)

	require.NoError(t, tx.Cancel("customer left", now))
	require.NoError(t, tx.Retry(now))
	assert.Equal(t, 2, tx.RetryCount)

	trail := tx.AuditTrail()
	require.Len(t, trail, 4)
	last := trail[3].(map[string]interface{})
	assert.Equal(t, "retry", last["action"])
	assert.Equal(t, "cancelled", last["previous_status"])
}

func TestComplete(t *testing.T) {
	tx := pending()

	require.NoError(t, tx.Complete(decimal.RequireFromString("49.50"), MethodCard, "paid at desk", now))
	assert.Equal(t, StatusCompleted, tx.Status)
	assert.Equal(t, MethodCard, tx.PaymentMethod)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("49.5")))
	require.NotNil(t, tx.PaidAt)

	entry := tx.AuditTrail()[0].(map[string]interface{})
	assert.Equal(t, "paid at desk", entry["notes"])
	assert.Equal(t, "49.50", entry["amount"])

	assert.ErrorIs(t, tx.Complete(decimal.NewFromInt(1), MethodCash, "", now), xerrors.ErrAlreadyCompleted)
	assert.ErrorIs(t, tx.Retry(now), xerrors.ErrNotRetryable)
}

func TestCompleteRejectsNegativeAmount(t *testing.T) {
	tx := pending()
	assert.ErrorIs(t, tx.Complete(decimal.NewFromInt(-1), MethodCash, "", now), xerrors.ErrInvalidAmount)
	assert.Equal(t, StatusPending, tx.Status)
}

func TestFailAndCancelRequirePending(t *testing.T) {
	tx := pending()
	require.NoError(t, tx.Complete(decimal.NewFromInt(50), "", "", now))
	assert.Equal(t, MethodGateway, tx.PaymentMethod)

	assert.ErrorIs(t, tx.Fail("late decline", now), xerrors.ErrInvalidTransition)
	assert.ErrorIs(t, tx.Cancel("", now), xerrors.ErrInvalidTransition)
}

func TestAuditTrailDoesNotAliasPreviousSlice(t *testing.T) {
	tx := pending()
	require.NoError(t, tx.Fail("declined", now))
	before := tx.AuditTrail()

	require.NoError(t, tx.Retry(now))
	assert.Len(t, before, 1)
	assert.Len(t, tx.AuditTrail(), 2)
}
