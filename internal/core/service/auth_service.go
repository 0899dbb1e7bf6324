package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/swiftparcel/delivery-platform/internal/core/domain"
	"github.com/swiftparcel/delivery-platform/internal/core/ports"
)

const (
	verificationPurpose = "verify_email"
	resetPurpose        = "reset_password"

	verificationTokenTTL = 48 * time.Hour
	resetTokenTTL        = time.Hour
)

// AuthService implements registration, login and the token lifecycle.
// Access tokens are short-lived HS256 JWTs; refresh tokens are opaque
// handles persisted in the TokenStore so they can be revoked.
type AuthService struct {
	users      ports.UserRepository
	tokens     ports.TokenStore
	mailer     ports.Mailer
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
	log        zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	tokens ports.TokenStore,
	mailer ports.Mailer,
	jwtSecret string,
	accessTTL, refreshTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		mailer:     mailer,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		log:        log,
	}
}

// Register creates an unverified account and sends the verification email.
// Admin accounts cannot be self-registered.
func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if input.FullName == "" || email == "" || input.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if input.Role != domain.RoleCustomer && input.Role != domain.RoleCourier {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		FullName:      input.FullName,
		Email:         email,
		PasswordHash:  string(hash),
		Phone:         input.Phone,
		Role:          input.Role,
		IsActive:      true,
		EmailVerified: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	token, err := s.generatePurposeToken(created.ID, verificationPurpose, verificationTokenTTL)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.SendVerification(ctx, created.Email, created.FullName, token); err != nil {
		// The account exists; verification can be re-sent out of band.
		s.log.Warn().Err(err).Str("email", created.Email).Msg("verification email failed")
	}

	s.log.Info().Str("email", created.Email).Str("role", created.Role).Msg("user registered")
	return created, nil
}

// Login authenticates the user and issues an access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.TokenPair, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Same answer as a wrong password: no account enumeration.
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return nil, nil, domain.ErrEmailNotVerified
	}
	if !user.IsActive {
		return nil, nil, domain.ErrUserInactive
	}

	access, err := s.generateAccessToken(user)
	if err != nil {
		return nil, nil, err
	}

	refresh := uuid.NewString()
	if err := s.tokens.Store(ctx, refresh, user.ID, s.refreshTTL); err != nil {
		return nil, nil, fmt.Errorf("store refresh token: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("user logged in")
	return &ports.TokenPair{AccessToken: access, RefreshToken: refresh}, user, nil
}

// Refresh mints a new access token for a valid refresh token. The refresh
// token itself is left in place until logout or expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", domain.ErrTokenNotFound
	}

	userID, err := s.tokens.UserID(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if !user.IsActive {
		// Deactivation cuts the session short at the next refresh.
		_ = s.tokens.Revoke(ctx, refreshToken)
		return "", domain.ErrUserInactive
	}

	return s.generateAccessToken(user)
}

// Logout revokes the refresh token. Revoking an unknown token succeeds.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.tokens.Revoke(ctx, refreshToken); err != nil && !errors.Is(err, domain.ErrTokenNotFound) {
		return err
	}
	return nil
}

// Me returns the current identity for the given user id.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

// UpdateProfile overwrites the editable profile fields and returns the
// updated account.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input ports.UpdateProfileInput) (*domain.User, error) {
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.users.UpdateProfile(ctx, userID, fullName, strings.TrimSpace(input.Phone)); err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", userID).Msg("profile updated")
	return s.users.FindByID(ctx, userID)
}

// ForgotPassword issues a reset token for the account behind email. Unknown
// and deactivated addresses are silently ignored: the endpoint always looks
// the same from the outside.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Debug().Str("email", email).Msg("password reset for unknown address ignored")
			return nil
		}
		return err
	}
	if !user.IsActive {
		s.log.Debug().Str("user_id", user.ID).Msg("password reset for deactivated account ignored")
		return nil
	}

	token, err := s.generatePurposeToken(user.ID, resetPurpose, resetTokenTTL)
	if err != nil {
		return err
	}
	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.FullName, token); err != nil {
		return fmt.Errorf("send password reset: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset requested")
	return nil
}

// ResetPassword consumes a reset token and stores the new password hash.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return domain.ErrInvalidCredentials
	}

	userID, err := s.consumePurposeToken(token, resetPurpose)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(ctx, userID, string(hash)); err != nil {
		return err
	}

	s.log.Info().Str("user_id", userID).Msg("password reset")
	return nil
}

// VerifyEmail consumes a verification token and marks the account verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.consumePurposeToken(token, verificationPurpose)
	if err != nil {
		return err
	}

	if err := s.users.SetVerified(ctx, userID); err != nil {
		return err
	}
	s.log.Info().Str("user_id", userID).Msg("email verified")
	return nil
}

func (s *AuthService) generateAccessToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  user.Role,
		"exp":   time.Now().Add(s.accessTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

// generatePurposeToken mints a single-purpose JWT (email verification,
// password reset). The purpose claim keeps access tokens unusable here.
func (s *AuthService) generatePurposeToken(userID, purpose string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":     userID,
		"purpose": purpose,
		"exp":     time.Now().Add(ttl).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

// consumePurposeToken validates a single-purpose token and returns its
// subject. Any parse, signature, expiry or purpose mismatch collapses to
// ErrInvalidCredentials.
func (s *AuthService) consumePurposeToken(token, purpose string) (string, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !parsed.Valid {
		return "", domain.ErrInvalidCredentials
	}
	if got, _ := claims["purpose"].(string); got != purpose {
		return "", domain.ErrInvalidCredentials
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		return "", domain.ErrInvalidCredentials
	}
	return userID, nil
}
