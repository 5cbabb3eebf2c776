package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gym-admin-service/internal/domain/subscription"
	xerrors "gym-admin-service/internal/pkg/errors"
)

type SubscriptionRepository struct {
	store *Store
}

func NewSubscriptionRepository(store *Store) *SubscriptionRepository {
	return &SubscriptionRepository{store: store}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *subscription.UserSubscription) error {
	defer r.store.writeLock(ctx)()

	if _, ok := r.store.data.users[sub.UserID]; !ok {
		return xerrors.ErrUserNotFound
	}
	if _, ok := r.store.data.plans[sub.PlanID]; !ok {
		return xerrors.ErrPlanNotFound
	}
	for _, existing := range r.store.data.subscriptions {
		if existing.SubscriptionReference == sub.SubscriptionReference {
			return fmt.Errorf("subscription reference %s: %w", sub.SubscriptionReference, xerrors.ErrConflict)
		}
	}

	now := r.store.now()
	sub.ID = r.store.nextID()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	r.store.data.subscriptions[sub.ID] = *sub
	return nil
}

func (r *SubscriptionRepository) FindByID(ctx context.Context, id int64) (*subscription.UserSubscription, error) {
	defer r.store.readLock(ctx)()

	sub, ok := r.store.data.subscriptions[id]
	if !ok {
		return nil, xerrors.ErrSubscriptionNotFound
	}
	return &sub, nil
}

// FindByIDForUpdate needs no row lock: a unit of work already holds the
// store exclusively.
func (r *SubscriptionRepository) FindByIDForUpdate(ctx context.Context, id int64) (*subscription.UserSubscription, error) {
	return r.FindByID(ctx, id)
}

func (r *SubscriptionRepository) Update(ctx context.Context, sub *subscription.UserSubscription) error {
	defer r.store.writeLock(ctx)()

	existing, ok := r.store.data.subscriptions[sub.ID]
	if !ok {
		return xerrors.ErrSubscriptionNotFound
	}
	existing.Status = sub.Status
	existing.PaymentStatus = sub.PaymentStatus
	existing.StartDate = sub.StartDate
	existing.EndDate = sub.EndDate
	existing.AmountPaid = sub.AmountPaid
	existing.AutoRenew = sub.AutoRenew
	existing.CancelledAt = sub.CancelledAt
	existing.CancellationReason = sub.CancellationReason
	existing.UpdatedAt = r.store.now()
	r.store.data.subscriptions[sub.ID] = existing

	sub.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *SubscriptionRepository) List(ctx context.Context, filters *subscription.SubscriptionListFilters, now time.Time) ([]subscription.UserSubscription, int64, error) {
	defer r.store.readLock(ctx)()

	subs := []subscription.UserSubscription{}
	for _, sub := range r.store.data.subscriptions {
		if filters.Status != nil && sub.EffectiveStatus(now) != *filters.Status {
			continue
		}
		if filters.UserCategory != nil {
			u, ok := r.store.data.users[sub.UserID]
			if !ok || u.Category != *filters.UserCategory {
				continue
			}
		}
		if filters.PlanID != nil && sub.PlanID != *filters.PlanID {
			continue
		}
		if filters.UserID != nil && sub.UserID != *filters.UserID {
			continue
		}
		subs = append(subs, sub)
	}

	sort.Slice(subs, func(i, j int) bool { return subs[i].ID > subs[j].ID })
	return paginate(subs, filters.Page, filters.PageSize), int64(len(subs)), nil
}
