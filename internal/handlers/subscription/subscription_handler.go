// internal/handlers/subscription/subscription_handler.go
package subscription

import (
	"errors"
	"net/http"
	"strconv"

	"gym-admin-service/internal/domain/subscription"
	xerrors "gym-admin-service/internal/pkg/errors"
	"gym-admin-service/internal/pkg/response"
	"gym-admin-service/internal/service/lifecycle"
	paymentsvc "gym-admin-service/internal/service/payment"
	subscriptionsvc "gym-admin-service/internal/service/subscription"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	coordinator   *lifecycle.Coordinator
	subscriptions *subscriptionsvc.Ledger
	payments      *paymentsvc.Ledger
}

func NewSubscriptionHandler(
	coordinator *lifecycle.Coordinator,
	subscriptions *subscriptionsvc.Ledger,
	payments *paymentsvc.Ledger,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		coordinator:   coordinator,
		subscriptions: subscriptions,
		payments:      payments,
	}
}

// CreateWalkIn signs a member up at the desk and records the payment taken.
func (h *SubscriptionHandler) CreateWalkIn(c *gin.Context) {
	var req subscription.WalkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	result, err := h.coordinator.CreateWalkInSubscription(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to create walk-in subscription", err)
		return
	}

	response.Success(c, http.StatusCreated, "walk-in subscription created", result)
}

// CancelSubscription cancels a pending or active subscription. A subscription
// that cannot be cancelled is reported as not found.
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	subscriptionID, ok := parseID(c)
	if !ok {
		return
	}

	var req subscription.CancelSubscriptionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ValidationError(c, "invalid request body", err)
			return
		}
	}

	sub, err := h.coordinator.CancelSubscription(c.Request.Context(), subscriptionID, req.Reason)
	if err != nil {
		if errors.Is(err, xerrors.ErrInvalidTransition) {
			response.Error(c, http.StatusNotFound, "subscription not found or not cancellable", err)
			return
		}
		response.FromError(c, "failed to cancel subscription", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription cancelled", sub)
}

// ExtendSubscription pushes the end date of an active subscription.
func (h *SubscriptionHandler) ExtendSubscription(c *gin.Context) {
	subscriptionID, ok := parseID(c)
	if !ok {
		return
	}

	var req subscription.ExtendSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "days must be between 1 and 365", err)
		return
	}

	sub, err := h.coordinator.ExtendSubscription(c.Request.Context(), subscriptionID, req.Days)
	if err != nil {
		if errors.Is(err, xerrors.ErrSubscriptionNotActive) {
			response.Error(c, http.StatusNotFound, "active subscription not found", err)
			return
		}
		response.FromError(c, "failed to extend subscription", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription extended", sub)
}

func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	subscriptionID, ok := parseID(c)
	if !ok {
		return
	}

	sub, err := h.subscriptions.Get(c.Request.Context(), subscriptionID)
	if err != nil {
		response.FromError(c, "failed to get subscription", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription retrieved", sub)
}

func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	var filters subscription.SubscriptionListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.subscriptions.List(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list subscriptions", err)
		return
	}

	response.Success(c, http.StatusOK, "subscriptions retrieved", result)
}

// GetSubscriptionPayments lists every payment recorded against a subscription,
// oldest first.
func (h *SubscriptionHandler) GetSubscriptionPayments(c *gin.Context) {
	subscriptionID, ok := parseID(c)
	if !ok {
		return
	}

	payments, err := h.payments.ListForSubscription(c.Request.Context(), subscriptionID)
	if err != nil {
		response.FromError(c, "failed to list subscription payments", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription payments retrieved", payments)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.Error(c, http.StatusBadRequest, "invalid subscription ID", err)
		return 0, false
	}
	return id, true
}
