package payment

import "github.com/shopspring/decimal"

type CompletePaymentRequest struct {
	AmountPaid    *decimal.Decimal `json:"amount_paid" binding:"required,gte=0"`
	PaymentMethod string           `json:"payment_method" binding:"required,payment_method"`
	Notes         string           `json:"notes" binding:"omitempty,max=1000"`
}

// ReasonRequest carries the optional free-text reason of fail and cancel.
type ReasonRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

type PaymentListFilters struct {
	Status         *Status `form:"status" binding:"omitempty,oneof=pending completed failed cancelled"`
	SubscriptionID *int64  `form:"subscription_id"`
	PaymentMethod  string  `form:"payment_method" binding:"omitempty,payment_method"`
	Page           int     `form:"page" binding:"omitempty,min=1"`
	PageSize       int     `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type PaymentListResponse struct {
	Payments   []Transaction `json:"payments"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}
