// internal/domain/user/entity.go
package user

import (
	"context"
	"time"
)

// Category discriminates the member population a plan is sold to.
type Category string

const (
	CategoryStudent Category = "student"
	CategoryStaff   Category = "staff"
	CategoryPublic  Category = "public"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryStudent, CategoryStaff, CategoryPublic:
		return true
	}
	return false
}

type User struct {
	ID        int64     `json:"id" db:"id"`
	FullName  string    `json:"full_name" db:"full_name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone,omitempty" db:"phone"`
	Category  Category  `json:"category" db:"category"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context, filters *UserListFilters) ([]User, int64, error)
}
