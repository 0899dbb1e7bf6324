package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/swiftparcel/delivery-platform/internal/core/domain"
	"github.com/swiftparcel/delivery-platform/internal/core/ports"
)

// UserService implements admin-facing account management.
type UserService struct {
	users ports.UserRepository
	log   zerolog.Logger
}

func NewUserService(users ports.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{users: users, log: log}
}

func (s *UserService) ListUsers(ctx context.Context, input ports.ListUsersInput) (*ports.ListUsersResult, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	items, total, err := s.users.List(ctx, ports.ListUsersFilter{
		Role:  input.Role,
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.ListUsersResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

func (s *UserService) ToggleActive(ctx context.Context, userID string) (bool, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}

	next := !user.IsActive
	if err := s.users.SetActive(ctx, userID, next); err != nil {
		return false, err
	}

	s.log.Info().Str("user_id", userID).Bool("is_active", next).Msg("user active flag toggled")
	return next, nil
}

func (s *UserService) ChangeRole(ctx context.Context, userID, role string) error {
	if !domain.ValidRole(role) {
		return domain.ErrInvalidCredentials
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}
	if err := s.users.SetRole(ctx, userID, role); err != nil {
		return err
	}
	s.log.Info().Str("user_id", userID).Str("role", role).Msg("user role changed")
	return nil
}
