// internal/handlers/payment/payment_handler.go
package payment

import (
	"net/http"
	"strconv"

	"gym-admin-service/internal/domain/payment"
	"gym-admin-service/internal/pkg/response"
	"gym-admin-service/internal/service/lifecycle"
	paymentsvc "gym-admin-service/internal/service/payment"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	coordinator *lifecycle.Coordinator
	payments    *paymentsvc.Ledger
}

func NewPaymentHandler(coordinator *lifecycle.Coordinator, payments *paymentsvc.Ledger) *PaymentHandler {
	return &PaymentHandler{
		coordinator: coordinator,
		payments:    payments,
	}
}

// RetryPayment moves a failed or cancelled payment back to pending.
func (h *PaymentHandler) RetryPayment(c *gin.Context) {
	paymentID, ok := parseID(c)
	if !ok {
		return
	}

	pay, err := h.coordinator.RetryPayment(c.Request.Context(), paymentID)
	if err != nil {
		response.FromError(c, "failed to retry payment", err)
		return
	}

	response.Success(c, http.StatusOK, "payment queued for retry", pay)
}

// CompletePayment settles a payment and activates its subscription when the
// subscription was waiting on it.
func (h *PaymentHandler) CompletePayment(c *gin.Context) {
	paymentID, ok := parseID(c)
	if !ok {
		return
	}

	var req payment.CompletePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	result, err := h.coordinator.CompletePendingPayment(c.Request.Context(), paymentID, &req)
	if err != nil {
		response.FromError(c, "failed to complete payment", err)
		return
	}

	message := "payment completed"
	if result.Activated {
		message = "payment completed and subscription activated"
	}
	response.Success(c, http.StatusOK, message, result)
}

func (h *PaymentHandler) FailPayment(c *gin.Context) {
	paymentID, ok := parseID(c)
	if !ok {
		return
	}

	req, ok := bindReason(c)
	if !ok {
		return
	}

	pay, err := h.coordinator.FailPayment(c.Request.Context(), paymentID, req.Reason)
	if err != nil {
		response.FromError(c, "failed to mark payment as failed", err)
		return
	}

	response.Success(c, http.StatusOK, "payment marked as failed", pay)
}

func (h *PaymentHandler) CancelPayment(c *gin.Context) {
	paymentID, ok := parseID(c)
	if !ok {
		return
	}

	req, ok := bindReason(c)
	if !ok {
		return
	}

	pay, err := h.coordinator.CancelPayment(c.Request.Context(), paymentID, req.Reason)
	if err != nil {
		response.FromError(c, "failed to cancel payment", err)
		return
	}

	response.Success(c, http.StatusOK, "payment cancelled", pay)
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	paymentID, ok := parseID(c)
	if !ok {
		return
	}

	pay, err := h.payments.GetByID(c.Request.Context(), paymentID)
	if err != nil {
		response.FromError(c, "failed to get payment", err)
		return
	}

	response.Success(c, http.StatusOK, "payment retrieved", pay)
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	var filters payment.PaymentListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.payments.List(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list payments", err)
		return
	}

	response.Success(c, http.StatusOK, "payments retrieved", result)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.Error(c, http.StatusBadRequest, "invalid payment ID", err)
		return 0, false
	}
	return id, true
}

// bindReason accepts an empty body.
func bindReason(c *gin.Context) (payment.ReasonRequest, bool) {
	var req payment.ReasonRequest
	if c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return req, false
	}
	return req, true
}
