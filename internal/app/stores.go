// internal/app/stores.go
package app

import (
	"context"
	"fmt"

	"gym-admin-service/internal/config"
	"gym-admin-service/internal/db"
	"gym-admin-service/internal/domain/payment"
	"gym-admin-service/internal/domain/plan"
	"gym-admin-service/internal/domain/subscription"
	"gym-admin-service/internal/domain/user"
	"gym-admin-service/internal/repository/memory"
	"gym-admin-service/internal/repository/postgres"
	"gym-admin-service/internal/service/lifecycle"

	"go.uber.org/zap"
)

// Stores bundles the repositories of one backend and the transactor that
// spans them.
type Stores struct {
	Users         user.Repository
	Plans         plan.Repository
	Subscriptions subscription.Repository
	Payments      payment.Repository
	Tx            lifecycle.Transactor

	close func()
}

func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// NewMemoryStores keeps everything in process. Data is lost on exit.
func NewMemoryStores() *Stores {
	store := memory.New()
	return &Stores{
		Users:         memory.NewUserRepository(store),
		Plans:         memory.NewPlanRepository(store),
		Subscriptions: memory.NewSubscriptionRepository(store),
		Payments:      memory.NewPaymentRepository(store),
		Tx:            store,
	}
}

// OpenStores connects the backend selected by cfg.Driver.
func OpenStores(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Stores, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, data will not survive a restart")
		return NewMemoryStores(), nil

	case config.DriverPostgres:
		pool, err := db.ConnectDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to PostgreSQL")

		database := postgres.NewDB(pool)
		return &Stores{
			Users:         postgres.NewUserRepository(database),
			Plans:         postgres.NewPlanRepository(database),
			Subscriptions: postgres.NewSubscriptionRepository(database),
			Payments:      postgres.NewPaymentRepository(database),
			Tx:            database,
			close:         pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
