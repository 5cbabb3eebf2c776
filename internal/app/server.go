// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gym-admin-service/internal/config"
	"gym-admin-service/internal/db"
	"gym-admin-service/internal/domain/event"
	paymentHandler "gym-admin-service/internal/handlers/payment"
	planHandler "gym-admin-service/internal/handlers/plan"
	subscriptionHandler "gym-admin-service/internal/handlers/subscription"
	userHandler "gym-admin-service/internal/handlers/user"
	wsHandler "gym-admin-service/internal/handlers/websocket"
	"gym-admin-service/internal/events/rabbitmq"
	"gym-admin-service/internal/middleware"
	"gym-admin-service/internal/pkg/jwt"
	"gym-admin-service/internal/pkg/ratelimit"
	"gym-admin-service/internal/pkg/validation"
	"gym-admin-service/internal/service/email"
	"gym-admin-service/internal/service/lifecycle"
	"gym-admin-service/internal/service/notification"
	paymentsvc "gym-admin-service/internal/service/payment"
	plansvc "gym-admin-service/internal/service/plan"
	subscriptionsvc "gym-admin-service/internal/service/subscription"
	usersvc "gym-admin-service/internal/service/user"
	"gym-admin-service/internal/websocket"
	wsHandlers "gym-admin-service/internal/websocket/handler"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	receiptQueueSize = 128
	eventQueueSize   = 256
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Server{cfg: cfg, engine: gin.New(), logger: logger}
}

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Stores    *Stores
	Verifier  middleware.TokenVerifier
	Limiter   *ratelimit.Limiter
	Hub       *websocket.Hub
	Publisher event.Publisher
}

// NewHandlers builds the services and handlers over deps and registers the
// dashboard lookups on the hub.
func NewHandlers(cfg config.AppConfig, deps Dependencies, logger *zap.Logger) *Handlers {
	st := deps.Stores

	subscriptionLedger := subscriptionsvc.NewLedger(st.Subscriptions, st.Plans, st.Users, st.Tx, logger)
	paymentLedger := paymentsvc.NewLedger(st.Payments, st.Subscriptions, logger)
	coordinator := lifecycle.NewCoordinator(st.Tx, subscriptionLedger, paymentLedger, deps.Publisher, logger)
	planService := plansvc.NewPlanService(st.Plans, cfg.DefaultCurrency, logger)
	userService := usersvc.NewUserService(st.Users, logger)

	deps.Hub.RegisterHandler(wsHandlers.NewSubscriptionHandler(subscriptionLedger, paymentLedger))

	return &Handlers{
		SubscriptionHandler: subscriptionHandler.NewSubscriptionHandler(coordinator, subscriptionLedger, paymentLedger),
		PaymentHandler:      paymentHandler.NewPaymentHandler(coordinator, paymentLedger),
		PlanHandler:         planHandler.NewPlanHandler(planService),
		UserHandler:         userHandler.NewUserHandler(userService),
		WSHandler:           wsHandler.NewWebSocketHandler(deps.Hub, cfg.CORSOrigins, logger),
		AuthMiddleware:      middleware.NewAuthMiddleware(deps.Verifier),
		RateLimiter:         deps.Limiter,
	}
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	if err := validation.Register(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	// ----- Datastore -----
	stores, err := OpenStores(ctx, s.cfg.Database, s.logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(s.cfg.Redis)
	if err != nil {
		return err
	}
	var limiterClient redis.UniversalClient
	if redisClient != nil {
		defer redisClient.Close()
		limiterClient = redisClient
		s.logger.Info("connected to Redis, rate limiting enabled")
	} else {
		s.logger.Warn("REDIS_ADDR not set, rate limiting disabled")
	}
	limiter := ratelimit.New(limiterClient, "gym:rate_limit", s.cfg.RateLimit.Limit, s.cfg.RateLimit.Window)

	// ----- JWT -----
	verifier, err := jwt.LoadVerifier(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT verifier: %w", err)
	}

	// ----- Event sinks -----
	producer := s.newProducer()
	defer producer.Close()

	// Workers stop before the producer closes.
	workers, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	hub := websocket.NewHub(verifier, s.logger)
	broker := rabbitmq.NewLifecyclePublisher(producer, s.cfg.AMQP.Exchange, eventQueueSize, s.logger)
	go broker.Run(workers)
	publishers := event.Fanout{hub, broker}

	if s.cfg.Email.Enabled {
		e := s.cfg.Email
		sender := email.NewEmailSender(e.Host, e.Port, e.Username, e.Password, e.FromAddress, e.FromName)
		receipts := notification.NewReceiptService(stores.Users, stores.Plans, sender, receiptQueueSize, s.logger)
		publishers = append(publishers, receipts)
		go receipts.Run(workers)
	}

	// ----- Handlers -----
	handlers := NewHandlers(s.cfg, Dependencies{
		Stores:    stores,
		Verifier:  verifier,
		Limiter:   limiter,
		Hub:       hub,
		Publisher: publishers,
	}, s.logger)
	go hub.Run(workers)

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RecoveryMiddleware(s.logger),
		middleware.LoggingMiddleware(s.logger),
		middleware.MetricsMiddleware(),
		middleware.CORSMiddleware(s.cfg.CORSOrigins),
	)

	SetupRouter(s.engine, s.logger, handlers)

	// ----- Start HTTP -----
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.cfg.HTTPAddr), zap.String("env", s.cfg.Env))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}

// newProducer connects to RabbitMQ when configured and falls back to a
// no-op producer otherwise.
func (s *Server) newProducer() rabbitmq.Producer {
	if s.cfg.AMQP.URL == "" {
		s.logger.Warn("AMQP_URL not set, lifecycle events will not reach the broker")
		return rabbitmq.NewFallback(s.logger)
	}

	producer, err := rabbitmq.NewEventProducer(s.cfg.AMQP.URL, s.logger)
	if err != nil {
		s.logger.Warn("RabbitMQ unavailable, continuing without broker", zap.Error(err))
		return rabbitmq.NewFallback(s.logger)
	}
	return producer
}
