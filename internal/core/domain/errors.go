package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrUserInactive       = errors.New("user account is deactivated")
	ErrEmailNotVerified   = errors.New("email address not verified")
	ErrTokenNotFound      = errors.New("refresh token not found")

	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("access forbidden")
	ErrOrderNotEditable  = errors.New("order can no longer be modified")
)
