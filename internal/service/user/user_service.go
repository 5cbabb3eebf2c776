// internal/service/user/user_service.go
package user

import (
	"context"
	"fmt"
	"strings"

	"gym-admin-service/internal/domain/user"
	"gym-admin-service/internal/pkg/pagination"

	"go.uber.org/zap"
)

type UserService struct {
	repo   user.Repository
	logger *zap.Logger
}

func NewUserService(repo user.Repository, logger *zap.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

// CreateUser registers a member in the directory.
func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	u := &user.User{
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		Category: req.Category,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created",
		zap.Int64("user_id", u.ID),
		zap.String("category", string(u.Category)),
	)

	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*user.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context, filters *user.UserListFilters) (*user.UserListResponse, error) {
	filters.Page, filters.PageSize = pagination.Normalize(filters.Page, filters.PageSize)

	users, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	return &user.UserListResponse{
		Users:      users,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: pagination.TotalPages(total, filters.PageSize),
	}, nil
}
