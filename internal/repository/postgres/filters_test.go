package postgres

import (
	"testing"
	"time"

	"gym-admin-service/internal/domain/payment"
	"gym-admin-service/internal/domain/subscription"
	"gym-admin-service/internal/domain/user"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestBuildSubscriptionFilterEmpty(t *testing.T) {
	where, args, next := buildSubscriptionFilter(&subscription.SubscriptionListFilters{}, now)

	assert.Equal(t, "1=1", where)
	assert.Empty(t, args)
	assert.Equal(t, 1, next)
}

func TestBuildSubscriptionFilterObservesExpiry(t *testing.T) {
	expired := subscription.StatusExpired
	where, args, next := buildSubscriptionFilter(&subscription.SubscriptionListFilters{Status: &expired}, now)

	assert.Contains(t, where, "s.status = 'active' AND s.end_date < $1")
	assert.Equal(t, []interface{}{now}, args)
	assert.Equal(t, 2, next)

	active := subscription.StatusActive
	where, _, _ = buildSubscriptionFilter(&subscription.SubscriptionListFilters{Status: &active}, now)
	assert.Contains(t, where, "s.end_date >= $1")
}

func TestBuildSubscriptionFilterCombined(t *testing.T) {
	cancelled := subscription.StatusCancelled
	category := user.CategoryStaff
	planID := int64(4)
	userID := int64(9)

	where, args, next := buildSubscriptionFilter(&subscription.SubscriptionListFilters{
		Status:       &cancelled,
		UserCategory: &category,
		PlanID:       &planID,
		UserID:       &userID,
	}, now)

	assert.Equal(t, "1=1 AND s.status = $1 AND u.category = $2 AND s.plan_id = $3 AND s.user_id = $4", where)
	assert.Equal(t, []interface{}{cancelled, category, planID, userID}, args)
	assert.Equal(t, 5, next)
}

func TestBuildPaymentFilter(t *testing.T) {
	failed := payment.StatusFailed
	subID := int64(12)

	where, args, next := buildPaymentFilter(&payment.PaymentListFilters{
		Status:         &failed,
		SubscriptionID: &subID,
		PaymentMethod:  payment.MethodCard,
	})

	assert.Equal(t, "1=1 AND status = $1 AND subscription_id = $2 AND payment_method = $3", where)
	assert.Equal(t, []interface{}{failed, subID, payment.MethodCard}, args)
	assert.Equal(t, 4, next)
}
