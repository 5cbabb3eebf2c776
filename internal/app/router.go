// internal/app/router.go
package app

import (
	"net/http"

	paymentHandler "gym-admin-service/internal/handlers/payment"
	planHandler "gym-admin-service/internal/handlers/plan"
	subscriptionHandler "gym-admin-service/internal/handlers/subscription"
	userHandler "gym-admin-service/internal/handlers/user"
	wsHandler "gym-admin-service/internal/handlers/websocket"
	"gym-admin-service/internal/middleware"
	"gym-admin-service/internal/pkg/jwt"
	"gym-admin-service/internal/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const rateLimitScope = "admin_mutations"

type Handlers struct {
	SubscriptionHandler *subscriptionHandler.SubscriptionHandler
	PaymentHandler      *paymentHandler.PaymentHandler
	PlanHandler         *planHandler.PlanHandler
	UserHandler         *userHandler.UserHandler
	WSHandler           *wsHandler.WebSocketHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimiter         *ratelimit.Limiter
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Metrics ====================
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Front Desk ====================
	admin := api.Group("/admin")
	admin.Use(h.AuthMiddleware.StaffOnly()...)
	admin.Use(middleware.RateLimitMiddleware(h.RateLimiter, rateLimitScope, logger))

	subscriptions := admin.Group("/subscriptions")
	{
		subscriptions.POST("/walk-in", h.SubscriptionHandler.CreateWalkIn)
		subscriptions.GET("", h.SubscriptionHandler.ListSubscriptions)
		subscriptions.GET("/:id", h.SubscriptionHandler.GetSubscription)
		subscriptions.GET("/:id/payments", h.SubscriptionHandler.GetSubscriptionPayments)
		subscriptions.PATCH("/:id/cancel", h.SubscriptionHandler.CancelSubscription)
		subscriptions.PATCH("/:id/extend", h.SubscriptionHandler.ExtendSubscription)
	}

	payments := admin.Group("/payments")
	{
		payments.GET("", h.PaymentHandler.ListPayments)
		payments.GET("/:id", h.PaymentHandler.GetPayment)
		payments.POST("/:id/retry", h.PaymentHandler.RetryPayment)
		payments.PATCH("/:id/complete", h.PaymentHandler.CompletePayment)
		payments.PATCH("/:id/fail", h.PaymentHandler.FailPayment)
		payments.PATCH("/:id/cancel", h.PaymentHandler.CancelPayment)
	}

	users := admin.Group("/users")
	{
		users.POST("", h.UserHandler.CreateUser)
		users.GET("", h.UserHandler.ListUsers)
		users.GET("/:id", h.UserHandler.GetUser)
	}

	// Front desk staff may read the catalog; only admins change it.
	plans := admin.Group("/plans")
	adminOnly := h.AuthMiddleware.RequireRole(jwt.RoleAdmin, jwt.RoleSuperAdmin)
	{
		plans.GET("", h.PlanHandler.ListPlans)
		plans.GET("/:id", h.PlanHandler.GetPlan)
		plans.POST("", adminOnly, h.PlanHandler.CreatePlan)
		plans.PUT("/:id", adminOnly, h.PlanHandler.UpdatePlan)
		plans.PUT("/:id/activate", adminOnly, h.PlanHandler.ActivatePlan)
		plans.PUT("/:id/deactivate", adminOnly, h.PlanHandler.DeactivatePlan)
	}

	admin.GET("/ws/stats", adminOnly, h.WSHandler.GetStats)
}
