package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gym-admin-service/internal/config"
	"gym-admin-service/internal/domain/event"
	"gym-admin-service/internal/domain/payment"
	"gym-admin-service/internal/domain/subscription"
	"gym-admin-service/internal/middleware"
	"gym-admin-service/internal/pkg/jwt"
	"gym-admin-service/internal/pkg/ratelimit"
	"gym-admin-service/internal/pkg/validation"
	"gym-admin-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	adminToken     = "admin-token"
	frontDeskToken = "desk-token"
)

type stubVerifier struct{}

func (stubVerifier) VerifyAccessToken(token string) (*jwt.Claims, error) {
	switch token {
	case adminToken:
		return &jwt.Claims{IdentityID: 1, Roles: []string{jwt.RoleAdmin}}, nil
	case frontDeskToken:
		return &jwt.Claims{IdentityID: 2, Roles: []string{jwt.RoleFrontDesk}}, nil
	default:
		return nil, errors.New("token is malformed")
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testAPI struct {
	t      *testing.T
	engine *gin.Engine
	stores *Stores
	events []event.Event
}

func (a *testAPI) Publish(_ context.Context, e event.Event) {
	a.events = append(a.events, e)
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validation.Register())

	logger := zap.NewNop()
	api := &testAPI{t: t, engine: gin.New(), stores: NewMemoryStores()}

	cfg := config.AppConfig{DefaultCurrency: "USD"}
	handlers := NewHandlers(cfg, Dependencies{
		Stores:    api.stores,
		Verifier:  stubVerifier{},
		Limiter:   ratelimit.New(nil, "", 0, 0),
		Hub:       websocket.NewHub(stubVerifier{}, logger),
		Publisher: api,
	}, logger)

	api.engine.Use(middleware.RecoveryMiddleware(logger), middleware.LoggingMiddleware(logger))
	SetupRouter(api.engine, logger, handlers)
	return api
}

func (a *testAPI) do(method, path, token string, body interface{}) (int, envelope) {
	a.t.Helper()

	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		req = httptest.NewRequest(method, path, strings.NewReader(string(raw)))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

type idOnly struct {
	ID int64 `json:"id"`
}

func (a *testAPI) createPlan(code, category string, price float64, days int) int64 {
	a.t.Helper()
	code2, env := a.do(http.MethodPost, "/api/v1/admin/plans", adminToken, map[string]interface{}{
		"plan_code":     code,
		"name":          code + " membership",
		"user_category": category,
		"price":         price,
		"duration_days": days,
	})
	require.Equal(a.t, http.StatusCreated, code2, env.Error)
	return decodeData[idOnly](a.t, env).ID
}

func (a *testAPI) createUser(email, category string) int64 {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/api/v1/admin/users", frontDeskToken, map[string]interface{}{
		"full_name": "Member " + category,
		"email":     email,
		"category":  category,
	})
	require.Equal(a.t, http.StatusCreated, code, env.Error)
	return decodeData[idOnly](a.t, env).ID
}

func (a *testAPI) seedPending(userID, planID int64, status payment.Status) (*subscription.UserSubscription, *payment.Transaction) {
	a.t.Helper()
	ctx := context.Background()

	sub := &subscription.UserSubscription{
		SubscriptionReference: fmt.Sprintf("SUB-ONLINE-%d-%s", userID, status),
		UserID:                userID,
		PlanID:                planID,
		Status:                subscription.StatusPending,
		PaymentStatus:         status,
		Currency:              "USD",
		DurationDays:          30,
	}
	require.NoError(a.t, a.stores.Subscriptions.Create(ctx, sub))

	pay := &payment.Transaction{
		SubscriptionID:   sub.ID,
		PaymentReference: fmt.Sprintf("PAY-ONLINE-%d-%s", userID, status),
		Amount:           decimal.RequireFromString("40.00"),
		Currency:         "USD",
		Status:           status,
		PaymentMethod:    payment.MethodGateway,
	}
	require.NoError(a.t, a.stores.Payments.Create(ctx, pay))
	return sub, pay
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	code, _ := api.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestAdminRoutesRequireStaffToken(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(http.MethodGet, "/api/v1/admin/subscriptions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)

	code, _ = api.do(http.MethodGet, "/api/v1/admin/subscriptions", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = api.do(http.MethodGet, "/api/v1/admin/subscriptions", frontDeskToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(http.MethodPost, "/api/v1/admin/plans", frontDeskToken, map[string]interface{}{
		"plan_code": "DESK", "name": "Desk plan", "user_category": "public", "price": 10, "duration_days": 30,
	})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestWalkInLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	planID := api.createPlan("STUDENT-30", "student", 50, 30)
	userID := api.createUser("student@gym.test", "student")

	code, env := api.do(http.MethodPost, "/api/v1/admin/subscriptions/walk-in", frontDeskToken, map[string]interface{}{
		"user_id":     userID,
		"plan_id":     planID,
		"amount_paid": 50,
	})
	require.Equal(t, http.StatusCreated, code, env.Error)

	created := decodeData[subscription.WalkInResult](t, env)
	assert.Equal(t, subscription.StatusActive, created.Subscription.Status)
	assert.Equal(t, payment.StatusCompleted, created.Payment.Status)
	assert.Equal(t, payment.MethodCash, created.Payment.PaymentMethod)
	assert.True(t, decimal.RequireFromString("50").Equal(created.Payment.Amount))
	require.Len(t, api.events, 1)
	assert.Equal(t, event.SubscriptionWalkInCreated, api.events[0].Type)
	assert.Equal(t, int64(2), api.events[0].ActorID)

	subPath := fmt.Sprintf("/api/v1/admin/subscriptions/%d", created.Subscription.ID)

	code, env = api.do(http.MethodGet, subPath+"/payments", frontDeskToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeData[[]payment.Transaction](t, env), 1)

	code, env = api.do(http.MethodPatch, subPath+"/extend", frontDeskToken, map[string]int{"days": 0})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = api.do(http.MethodPatch, subPath+"/extend", frontDeskToken, map[string]int{"days": 366})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = api.do(http.MethodPatch, subPath+"/extend", frontDeskToken, map[string]int{"days": 15})
	require.Equal(t, http.StatusOK, code, env.Error)
	extended := decodeData[subscription.UserSubscription](t, env)
	assert.Equal(t, created.Subscription.EndDate.AddDate(0, 0, 15).Unix(), extended.EndDate.Unix())

	code, env = api.do(http.MethodPatch, subPath+"/cancel", frontDeskToken, map[string]string{"reason": "moving away"})
	require.Equal(t, http.StatusOK, code, env.Error)
	cancelled := decodeData[subscription.UserSubscription](t, env)
	assert.Equal(t, subscription.StatusCancelled, cancelled.Status)
	assert.Equal(t, "moving away", cancelled.CancellationReason)

	code, _ = api.do(http.MethodPatch, subPath+"/cancel", frontDeskToken, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = api.do(http.MethodPatch, subPath+"/extend", frontDeskToken, map[string]int{"days": 10})
	assert.Equal(t, http.StatusNotFound, code)

	code, env = api.do(http.MethodGet, "/api/v1/admin/subscriptions?status=cancelled", frontDeskToken, nil)
	require.Equal(t, http.StatusOK, code)
	list := decodeData[subscription.SubscriptionListResponse](t, env)
	assert.Equal(t, int64(1), list.Total)
}

func TestWalkInRejections(t *testing.T) {
	api := newTestAPI(t)
	studentPlan := api.createPlan("STUDENT-30", "student", 50, 30)
	staffMember := api.createUser("staff@gym.test", "staff")

	walkIn := func(userID, planID int64) int {
		code, _ := api.do(http.MethodPost, "/api/v1/admin/subscriptions/walk-in", frontDeskToken, map[string]interface{}{
			"user_id": userID, "plan_id": planID, "amount_paid": 50,
		})
		return code
	}

	assert.Equal(t, http.StatusBadRequest, walkIn(staffMember, studentPlan))
	assert.Equal(t, http.StatusNotFound, walkIn(staffMember, 999))
	assert.Equal(t, http.StatusNotFound, walkIn(999, studentPlan))

	code, env := api.do(http.MethodPost, "/api/v1/admin/subscriptions/walk-in", frontDeskToken, map[string]interface{}{
		"user_id": staffMember, "plan_id": studentPlan, "amount_paid": -5,
	})
	assert.Equal(t, http.StatusBadRequest, code, env.Error)

	staffPlan := api.createPlan("STAFF-30", "staff", 20, 30)
	code, _ = api.do(http.MethodPut, fmt.Sprintf("/api/v1/admin/plans/%d/deactivate", staffPlan), adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, http.StatusBadRequest, walkIn(staffMember, staffPlan))

	code, env = api.do(http.MethodGet, "/api/v1/admin/payments", frontDeskToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(0), decodeData[payment.PaymentListResponse](t, env).Total)
	assert.Empty(t, api.events)
}

func TestAmountPaidMustBePresent(t *testing.T) {
	api := newTestAPI(t)
	planID := api.createPlan("PUBLIC-30", "public", 40, 30)
	userID := api.createUser("public@gym.test", "public")

	code, env := api.do(http.MethodPost, "/api/v1/admin/subscriptions/walk-in", frontDeskToken, map[string]interface{}{
		"user_id": userID, "plan_id": planID,
	})
	assert.Equal(t, http.StatusBadRequest, code, env.Error)

	_, pending := api.seedPending(userID, planID, payment.StatusPending)
	completePath := fmt.Sprintf("/api/v1/admin/payments/%d/complete", pending.ID)
	code, env = api.do(http.MethodPatch, completePath, frontDeskToken, map[string]interface{}{
		"payment_method": "cash",
	})
	assert.Equal(t, http.StatusBadRequest, code, env.Error)

	code, env = api.do(http.MethodGet, fmt.Sprintf("/api/v1/admin/payments/%d", pending.ID), frontDeskToken, nil)
	require.Equal(t, http.StatusOK, code)
	stored := decodeData[payment.Transaction](t, env)
	assert.Equal(t, payment.StatusPending, stored.Status)
	assert.Nil(t, stored.PaidAt)

	// An explicit zero is a complimentary walk-in.
	code, env = api.do(http.MethodPost, "/api/v1/admin/subscriptions/walk-in", frontDeskToken, map[string]interface{}{
		"user_id": userID, "plan_id": planID, "amount_paid": 0,
	})
	assert.Equal(t, http.StatusCreated, code, env.Error)
}

func TestPaymentTransitionsOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	planID := api.createPlan("PUBLIC-30", "public", 40, 30)
	userID := api.createUser("public@gym.test", "public")
	sub, pending := api.seedPending(userID, planID, payment.StatusPending)

	completePath := fmt.Sprintf("/api/v1/admin/payments/%d/complete", pending.ID)
	code, env := api.do(http.MethodPatch, completePath, frontDeskToken, map[string]interface{}{
		"amount_paid":    40,
		"payment_method": "card",
		"notes":          "paid at desk",
	})
	require.Equal(t, http.StatusOK, code, env.Error)

	var result struct {
		Payment      payment.Transaction           `json:"payment"`
		Subscription subscription.UserSubscription `json:"subscription"`
		Activated    bool                          `json:"activated"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Activated)
	assert.Equal(t, payment.StatusCompleted, result.Payment.Status)
	assert.Equal(t, sub.ID, result.Subscription.ID)
	assert.Equal(t, subscription.StatusActive, result.Subscription.Status)

	code, _ = api.do(http.MethodPatch, completePath, frontDeskToken, map[string]interface{}{
		"amount_paid": 40, "payment_method": "card",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(http.MethodPatch, completePath, frontDeskToken, map[string]interface{}{
		"amount_paid": 40, "payment_method": "barter",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/payments/%d/retry", pending.ID), frontDeskToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(http.MethodPost, "/api/v1/admin/payments/999/retry", frontDeskToken, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = api.do(http.MethodPost, "/api/v1/admin/payments/abc/retry", frontDeskToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	otherUser := api.createUser("second@gym.test", "public")
	_, failing := api.seedPending(otherUser, planID, payment.StatusPending)
	paymentPath := fmt.Sprintf("/api/v1/admin/payments/%d", failing.ID)

	code, env = api.do(http.MethodPatch, paymentPath+"/fail", frontDeskToken, map[string]string{"reason": "card declined"})
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, payment.StatusFailed, decodeData[payment.Transaction](t, env).Status)

	code, env = api.do(http.MethodPost, paymentPath+"/retry", frontDeskToken, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	retried := decodeData[payment.Transaction](t, env)
	assert.Equal(t, payment.StatusPending, retried.Status)
	assert.Equal(t, 1, retried.RetryCount)

	code, env = api.do(http.MethodPatch, paymentPath+"/cancel", frontDeskToken, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, payment.StatusCancelled, decodeData[payment.Transaction](t, env).Status)

	code, env = api.do(http.MethodGet, paymentPath, frontDeskToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, payment.StatusCancelled, decodeData[payment.Transaction](t, env).Status)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	api := newTestAPI(t)
	api.createUser("dup@gym.test", "public")

	code, _ := api.do(http.MethodPost, "/api/v1/admin/users", frontDeskToken, map[string]interface{}{
		"full_name": "Someone Else", "email": "DUP@gym.test", "category": "public",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = api.do(http.MethodPost, "/api/v1/admin/users", frontDeskToken, map[string]interface{}{
		"full_name": "Someone Else", "email": "other@gym.test", "category": "retired",
	})
	assert.Equal(t, http.StatusBadRequest, code)
}
