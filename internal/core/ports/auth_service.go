package ports

import (
	"context"

	"github.com/swiftparcel/delivery-platform/internal/core/domain"
)

// RegisterInput carries the data needed to create a new account.
type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Phone    string
	Role     string
}

// TokenPair is issued on a successful login. The access token is a short-lived
// JWT; the refresh token is an opaque handle stored server-side.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UpdateProfileInput carries the editable profile fields. Email and role are
// changed through their own flows, never here.
type UpdateProfileInput struct {
	FullName string
	Phone    string
}

// AuthService defines the authentication use cases.
type AuthService interface {
	// Register creates a new unverified account and dispatches a verification
	// email. It never issues tokens: login requires a verified address.
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, *domain.User, error)
	// Refresh exchanges a stored refresh token for a new access token.
	Refresh(ctx context.Context, refreshToken string) (string, error)
	// Logout revokes the refresh token. Unknown tokens are not an error.
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error)
	VerifyEmail(ctx context.Context, token string) error
	// ForgotPassword dispatches a reset email. It succeeds even when the
	// address is unknown so responses cannot be used to enumerate accounts.
	ForgotPassword(ctx context.Context, email string) error
	// ResetPassword consumes a reset token and replaces the password.
	ResetPassword(ctx context.Context, token, newPassword string) error
}
