package memory

import (
	"context"
	"fmt"
	"sort"

	"gym-admin-service/internal/domain/payment"
	xerrors "gym-admin-service/internal/pkg/errors"
)

type PaymentRepository struct {
	store *Store
}

func NewPaymentRepository(store *Store) *PaymentRepository {
	return &PaymentRepository{store: store}
}

func clonePayment(t payment.Transaction) payment.Transaction {
	t.GatewayResponse = cloneMap(t.GatewayResponse)
	return t
}

func (r *PaymentRepository) Create(ctx context.Context, t *payment.Transaction) error {
	defer r.store.writeLock(ctx)()

	if _, ok := r.store.data.subscriptions[t.SubscriptionID]; !ok {
		return xerrors.ErrSubscriptionNotFound
	}
	for _, existing := range r.store.data.payments {
		if existing.PaymentReference == t.PaymentReference {
			return fmt.Errorf("payment reference %s: %w", t.PaymentReference, xerrors.ErrConflict)
		}
	}

	now := r.store.now()
	t.ID = r.store.nextID()
	t.CreatedAt = now
	t.UpdatedAt = now
	r.store.data.payments[t.ID] = clonePayment(*t)
	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id int64) (*payment.Transaction, error) {
	defer r.store.readLock(ctx)()

	t, ok := r.store.data.payments[id]
	if !ok {
		return nil, xerrors.ErrPaymentNotFound
	}
	t = clonePayment(t)
	return &t, nil
}

func (r *PaymentRepository) FindByIDForUpdate(ctx context.Context, id int64) (*payment.Transaction, error) {
	return r.FindByID(ctx, id)
}

func (r *PaymentRepository) Update(ctx context.Context, t *payment.Transaction) error {
	defer r.store.writeLock(ctx)()

	existing, ok := r.store.data.payments[t.ID]
	if !ok {
		return xerrors.ErrPaymentNotFound
	}
	existing.Amount = t.Amount
	existing.Status = t.Status
	existing.PaymentMethod = t.PaymentMethod
	existing.GatewayReference = t.GatewayReference
	existing.GatewayResponse = cloneMap(t.GatewayResponse)
	existing.RetryCount = t.RetryCount
	existing.FailureReason = t.FailureReason
	existing.PaidAt = t.PaidAt
	existing.UpdatedAt = r.store.now()
	r.store.data.payments[t.ID] = existing

	t.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *PaymentRepository) List(ctx context.Context, filters *payment.PaymentListFilters) ([]payment.Transaction, int64, error) {
	defer r.store.readLock(ctx)()

	payments := []payment.Transaction{}
	for _, t := range r.store.data.payments {
		if filters.Status != nil && t.Status != *filters.Status {
			continue
		}
		if filters.SubscriptionID != nil && t.SubscriptionID != *filters.SubscriptionID {
			continue
		}
		if filters.PaymentMethod != "" && t.PaymentMethod != filters.PaymentMethod {
			continue
		}
		payments = append(payments, clonePayment(t))
	}

	sort.Slice(payments, func(i, j int) bool { return payments[i].ID > payments[j].ID })
	return paginate(payments, filters.Page, filters.PageSize), int64(len(payments)), nil
}

func (r *PaymentRepository) ListBySubscription(ctx context.Context, subscriptionID int64) ([]payment.Transaction, error) {
	defer r.store.readLock(ctx)()

	payments := []payment.Transaction{}
	for _, t := range r.store.data.payments {
		if t.SubscriptionID == subscriptionID {
			payments = append(payments, clonePayment(t))
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID < payments[j].ID })
	return payments, nil
}
