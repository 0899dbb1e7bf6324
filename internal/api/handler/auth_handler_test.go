package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/swiftparcel/delivery-platform/internal/core/domain"
	"github.com/swiftparcel/delivery-platform/internal/core/ports"
)

type stubAuthService struct {
	registerFn    func(ctx context.Context, input ports.RegisterInput) (*domain.User, error)
	loginFn       func(ctx context.Context, email, password string) (*ports.TokenPair, *domain.User, error)
	refreshFn     func(ctx context.Context, refreshToken string) (string, error)
	logoutFn      func(ctx context.Context, refreshToken string) error
	meFn          func(ctx context.Context, userID string) (*domain.User, error)
	updateFn      func(ctx context.Context, userID string, input ports.UpdateProfileInput) (*domain.User, error)
	verifyEmailFn func(ctx context.Context, token string) error
	forgotFn      func(ctx context.Context, email string) error
	resetFn       func(ctx context.Context, token, newPassword string) error
}

func (s *stubAuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, input)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.TokenPair, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return s.refreshFn(ctx, refreshToken)
}

func (s *stubAuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.logoutFn(ctx, refreshToken)
}

func (s *stubAuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.meFn(ctx, userID)
}

func (s *stubAuthService) UpdateProfile(ctx context.Context, userID string, input ports.UpdateProfileInput) (*domain.User, error) {
	return s.updateFn(ctx, userID, input)
}

func (s *stubAuthService) VerifyEmail(ctx context.Context, token string) error {
	return s.verifyEmailFn(ctx, token)
}

func (s *stubAuthService) ForgotPassword(ctx context.Context, email string) error {
	return s.forgotFn(ctx, email)
}

func (s *stubAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	return s.resetFn(ctx, token, newPassword)
}

func newTestContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
			if input.Email != "alice@example.com" || input.Role != "customer" {
				t.Fatalf("unexpected input: %+v", input)
			}
			return &domain.User{ID: "u1", Email: input.Email, Role: input.Role}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newTestContext(t, http.MethodPost, "/auth/register",
		`{"full_name":"Alice","email":"alice@example.com","password":"supersecret","role":"customer"}`)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["message"] == "" {
		t.Fatalf("expected a message in response: %+v", resp)
	}
	// No tokens before email verification.
	if _, ok := resp["access_token"]; ok {
		t.Fatalf("register must not issue tokens")
	}
}

func TestAuthHandler_Register_ShortPassword(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		registerFn: func(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("service must not be called on validation failure")
			return nil, nil
		},
	})

	c, rec := newTestContext(t, http.MethodPost, "/auth/register",
		`{"full_name":"Bob","email":"bob@example.com","password":"short","role":"customer"}`)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		registerFn: func(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	})

	c, rec := newTestContext(t, http.MethodPost, "/auth/register",
		`{"full_name":"Bob","email":"bob@example.com","password":"supersecret","role":"customer"}`)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.TokenPair, *domain.User, error) {
			return &ports.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"},
				&domain.User{ID: "u1", Email: email, Role: "customer"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newTestContext(t, http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"supersecret"}`)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["access_token"] != "access-1" || resp["refresh_token"] != "refresh-1" {
		t.Fatalf("unexpected tokens: %+v", resp)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["email"] != "alice@example.com" {
		t.Fatalf("unexpected user payload: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.TokenPair, *domain.User, error) {
			return nil, nil, domain.ErrInvalidCredentials
		},
	})

	c, rec := newTestContext(t, http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"wrong-password"}`)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthHandler_Login_EmailNotVerified(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.TokenPair, *domain.User, error) {
			return nil, nil, domain.ErrEmailNotVerified
		},
	})

	c, rec := newTestContext(t, http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"supersecret"}`)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAuthHandler_Refresh_Success(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		refreshFn: func(ctx context.Context, refreshToken string) (string, error) {
			if refreshToken != "refresh-1" {
				t.Fatalf("unexpected token: %s", refreshToken)
			}
			return "access-2", nil
		},
	})

	c, rec := newTestContext(t, http.MethodPost, "/auth/refresh",
		`{"refresh_token":"refresh-1"}`)

	if err := handler.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["access_token"] != "access-2" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAuthHandler_Refresh_UnknownToken(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		refreshFn: func(ctx context.Context, refreshToken string) (string, error) {
			return "", domain.ErrTokenNotFound
		},
	})

	c, rec := newTestContext(t, http.MethodPost, "/auth/refresh",
		`{"refresh_token":"gone"}`)

	if err := handler.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthHandler_Logout_AlwaysOK(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		logoutFn: func(ctx context.Context, refreshToken string) error {
			return nil
		},
	})

	c, rec := newTestContext(t, http.MethodPost, "/auth/logout",
		`{"refresh_token":"anything"}`)

	if err := handler.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_Me_Success(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		meFn: func(ctx context.Context, userID string) (*domain.User, error) {
			if userID != "u1" {
				t.Fatalf("unexpected user id: %s", userID)
			}
			return &domain.User{ID: "u1", Email: "alice@example.com", Role: "customer"}, nil
		},
	})

	c, rec := newTestContext(t, http.MethodGet, "/auth/me", "")
	c.Set("user_id", "u1")
	c.Set("role", "customer")

	if err := handler.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["email"] != "alice@example.com" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if _, ok := resp["password_hash"]; ok {
		t.Fatalf("password hash must never be serialized")
	}
}

func TestAuthHandler_Me_MissingClaims(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{})

	c, _ := newTestContext(t, http.MethodGet, "/auth/me", "")

	err := handler.Me(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
}

func TestAuthHandler_VerifyEmail_InvalidToken(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		verifyEmailFn: func(ctx context.Context, token string) error {
			return domain.ErrInvalidCredentials
		},
	})

	c, rec := newTestContext(t, http.MethodPost, "/auth/verify-email",
		`{"token":"garbage"}`)

	if err := handler.VerifyEmail(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_UpdateProfile_Success(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		updateFn: func(ctx context.Context, userID string, input ports.UpdateProfileInput) (*domain.User, error) {
			if userID != "u1" {
				t.Fatalf("user id must come from the token, got %q", userID)
			}
			if input.FullName != "Alice Cooper" || input.Phone != "555-0199" {
				t.Fatalf("unexpected input: %+v", input)
			}
			return &domain.User{ID: userID, FullName: input.FullName, Phone: input.Phone}, nil
		},
	})

	c, rec := newTestContext(t, http.MethodPut, "/auth/me",
		`{"full_name":"Alice Cooper","phone":"555-0199"}`)
	c.Set("user_id", "u1")
	c.Set("role", "customer")

	if err := handler.UpdateProfile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["full_name"] != "Alice Cooper" {
		t.Fatalf("unexpected body: %+v", resp)
	}
}

func TestAuthHandler_UpdateProfile_RequiresName(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		updateFn: func(ctx context.Context, userID string, input ports.UpdateProfileInput) (*domain.User, error) {
			t.Fatalf("service must not be called on validation failure")
			return nil, nil
		},
	})

	c, rec := newTestContext(t, http.MethodPut, "/auth/me", `{"phone":"555-0199"}`)
	c.Set("user_id", "u1")
	c.Set("role", "customer")

	if err := handler.UpdateProfile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_ForgotPassword_AlwaysOK(t *testing.T) {
	var got string
	handler := NewAuthHandler(&stubAuthService{
		forgotFn: func(ctx context.Context, email string) error {
			got = email
			return nil
		},
	})

	c, rec := newTestContext(t, http.MethodPost, "/auth/forgot-password",
		`{"email":"ghost@example.com"}`)

	if err := handler.ForgotPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	// Unknown addresses get the same 200 as known ones.
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got != "ghost@example.com" {
		t.Fatalf("email not forwarded: %q", got)
	}
}

func TestAuthHandler_ResetPassword_InvalidToken(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		resetFn: func(ctx context.Context, token, newPassword string) error {
			return domain.ErrInvalidCredentials
		},
	})

	c, rec := newTestContext(t, http.MethodPost, "/auth/reset-password",
		`{"token":"garbage","password":"longenough"}`)

	if err := handler.ResetPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_ResetPassword_ShortPassword(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		resetFn: func(ctx context.Context, token, newPassword string) error {
			t.Fatalf("service must not be called on validation failure")
			return nil
		},
	})

	c, rec := newTestContext(t, http.MethodPost, "/auth/reset-password",
		`{"token":"some-token","password":"short"}`)

	if err := handler.ResetPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
