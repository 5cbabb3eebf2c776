// Package memory is a transactional in-process store used for local runs
// (DB_DRIVER=memory) and service tests. It honours the same uniqueness and
// foreign-key rules as the PostgreSQL schema.
package memory

import (
	"context"
	"sync"
	"time"

	"gym-admin-service/internal/domain/payment"
	"gym-admin-service/internal/domain/plan"
	"gym-admin-service/internal/domain/subscription"
	"gym-admin-service/internal/domain/user"
	"gym-admin-service/internal/pkg/pagination"
)

type txKey struct{}

type tables struct {
	users         map[int64]user.User
	plans         map[int64]plan.Plan
	subscriptions map[int64]subscription.UserSubscription
	payments      map[int64]payment.Transaction
}

func (t tables) clone() tables {
	c := tables{
		users:         make(map[int64]user.User, len(t.users)),
		plans:         make(map[int64]plan.Plan, len(t.plans)),
		subscriptions: make(map[int64]subscription.UserSubscription, len(t.subscriptions)),
		payments:      make(map[int64]payment.Transaction, len(t.payments)),
	}
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.plans {
		c.plans[k] = v
	}
	for k, v := range t.subscriptions {
		c.subscriptions[k] = v
	}
	for k, v := range t.payments {
		c.payments[k] = v
	}
	return c
}

// Store serialises units of work behind one lock, so a transaction sees no
// interleaved writes and a failed one is undone by restoring a snapshot.
type Store struct {
	mu   sync.RWMutex
	data tables
	seq  int64
	now  func() time.Time
}

func New() *Store {
	return &Store{
		data: tables{
			users:         make(map[int64]user.User),
			plans:         make(map[int64]plan.Plan),
			subscriptions: make(map[int64]subscription.UserSubscription),
			payments:      make(map[int64]payment.Transaction),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// RunInTx runs fn as one unit of work. Every repository call made with the
// context handed to fn joins it. Nested calls join the outer unit. An error
// or a panic from fn discards every write made inside it.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	committed := false
	defer func() {
		if !committed {
			s.data = snapshot
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) readLock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) writeLock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// nextID must be called with the write lock held.
func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return cloneMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func paginate[T any](items []T, page, pageSize int) []T {
	page, pageSize = pagination.Normalize(page, pageSize)
	start := pagination.Offset(page, pageSize)
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
