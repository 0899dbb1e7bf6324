package ports

import (
	"context"

	"github.com/swiftparcel/delivery-platform/internal/core/domain"
)

// ListUsersInput carries parameters for the admin user listing.
type ListUsersInput struct {
	Role  string
	Page  int
	Limit int
}

// ListUsersResult is returned by ListUsers.
type ListUsersResult struct {
	Items      []*domain.User
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// UserService defines admin-facing account management operations.
type UserService interface {
	ListUsers(ctx context.Context, input ListUsersInput) (*ListUsersResult, error)
	// ToggleActive flips the is_active flag and returns the new value.
	ToggleActive(ctx context.Context, userID string) (bool, error)
	ChangeRole(ctx context.Context, userID, role string) error
}
