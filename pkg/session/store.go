package session

import (
	"context"
	"errors"
	"sync"
)

// User is the authenticated identity as returned by the backend.
type User struct {
	ID            string `json:"id"`
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Role          string `json:"role"`
	IsActive      bool   `json:"is_active"`
	EmailVerified bool   `json:"email_verified"`
}

// Snapshot is a point-in-time, read-only view of the session. The derived
// flags are computed from User on every call so they can never disagree
// with the stored identity.
type Snapshot struct {
	User    *User
	Loading bool
}

func (s Snapshot) IsAuthenticated() bool { return s.User != nil }
func (s Snapshot) IsCustomer() bool      { return s.User != nil && s.User.Role == "customer" }
func (s Snapshot) IsCourier() bool       { return s.User != nil && s.User.Role == "courier" }
func (s Snapshot) IsAdmin() bool         { return s.User != nil && s.User.Role == "admin" }

// Result reports the outcome of a login or register call. Message carries the
// server's structured error when the call fails; callers display it directly.
type Result struct {
	OK      bool
	User    *User
	Message string
}

// RegisterInput is the payload for account creation.
type RegisterInput struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
}

// Store is the single source of truth for who is logged in. All mutations of
// the identity and the credential pair go through its operations; everything
// else observes the session through Snapshot.
type Store struct {
	mu      sync.RWMutex
	gw      *Gateway
	user    *User
	loading bool
}

// NewStore returns a Store in the loading state. Call Initialize once at
// startup to resolve it.
func NewStore(gw *Gateway) *Store {
	return &Store{gw: gw, loading: true}
}

// Snapshot returns the current session view.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{User: s.user, Loading: s.loading}
}

// Initialize resolves the session at startup. If a credential pair is
// persisted it fetches the current identity; a failed fetch clears the stale
// pair. Loading always ends false, whatever the outcome.
func (s *Store) Initialize(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	creds, err := s.gw.creds.Load()
	if err != nil || !creds.Present() {
		return
	}

	var user User
	if err := s.gw.GetJSON(ctx, "/auth/me", &user); err != nil {
		_ = s.gw.creds.Clear()
		return
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
}

// Login authenticates against the backend. On success the returned credential
// pair is persisted and the identity installed; on failure nothing changes
// and the server's message is surfaced in the Result.
func (s *Store) Login(ctx context.Context, email, password string) Result {
	payload := map[string]string{"email": email, "password": password}
	var resp struct {
		User         *User  `json:"user"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}

	if err := s.gw.PostJSON(ctx, "/auth/login", payload, &resp); err != nil {
		return Result{OK: false, Message: messageFrom(err, "Login failed")}
	}

	if err := s.gw.creds.Save(Credentials{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}); err != nil {
		return Result{OK: false, Message: "Login failed"}
	}

	s.mu.Lock()
	s.user = resp.User
	s.mu.Unlock()

	return Result{OK: true, User: resp.User}
}

// Register creates an account. It never authenticates: the backend requires
// email verification before login, so no credentials are stored and the
// identity stays unchanged even on success.
func (s *Store) Register(ctx context.Context, input RegisterInput) Result {
	var resp struct {
		Message string `json:"message"`
	}
	if err := s.gw.PostJSON(ctx, "/auth/register", input, &resp); err != nil {
		return Result{OK: false, Message: messageFrom(err, "Registration failed")}
	}
	return Result{OK: true, Message: resp.Message}
}

// Logout revokes the refresh token server-side on a best-effort basis, then
// unconditionally clears the credential pair and the identity. It cannot fail
// from the caller's perspective.
func (s *Store) Logout(ctx context.Context) {
	if creds, err := s.gw.creds.Load(); err == nil && creds.RefreshToken != "" {
		payload := map[string]string{"refresh_token": creds.RefreshToken}
		_ = s.gw.PostJSON(ctx, "/auth/logout", payload, nil)
	}

	_ = s.gw.creds.Clear()

	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}

// messageFrom prefers the server's structured error message and falls back
// to a generic one for transport failures or unstructured bodies.
func messageFrom(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
