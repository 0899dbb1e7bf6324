package ports

import (
	"context"

	"github.com/swiftparcel/delivery-platform/internal/core/domain"
)

// ListUsersFilter carries query parameters for listing users.
type ListUsersFilter struct {
	Role  string // optional: filter by role
	Page  int    // 1-based
	Limit int
}

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// List returns a page of users matching filter and the total count.
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
	SetVerified(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
	SetRole(ctx context.Context, id, role string) error
	SetPassword(ctx context.Context, id, passwordHash string) error
	UpdateProfile(ctx context.Context, id, fullName, phone string) error
}
