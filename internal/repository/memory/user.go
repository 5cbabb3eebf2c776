package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gym-admin-service/internal/domain/user"
	xerrors "gym-admin-service/internal/pkg/errors"
)

type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	defer r.store.writeLock(ctx)()

	email := strings.ToLower(u.Email)
	for _, existing := range r.store.data.users {
		if existing.Email == email {
			return fmt.Errorf("user with email %s: %w", u.Email, xerrors.ErrConflict)
		}
	}

	now := r.store.now()
	u.ID = r.store.nextID()
	u.Email = email
	u.CreatedAt = now
	u.UpdatedAt = now
	r.store.data.users[u.ID] = *u
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	defer r.store.readLock(ctx)()

	u, ok := r.store.data.users[id]
	if !ok {
		return nil, xerrors.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context, filters *user.UserListFilters) ([]user.User, int64, error) {
	defer r.store.readLock(ctx)()

	search := strings.ToLower(strings.TrimSpace(filters.Search))
	users := []user.User{}
	for _, u := range r.store.data.users {
		if filters.Category != nil && u.Category != *filters.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.FullName), search) &&
			!strings.Contains(u.Email, search) &&
			!strings.Contains(strings.ToLower(u.Phone), search) {
			continue
		}
		users = append(users, u)
	}

	sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })
	return paginate(users, filters.Page, filters.PageSize), int64(len(users)), nil
}
