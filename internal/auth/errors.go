package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown email and for a wrong
	// password alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrUsernameTaken      = errors.New("user with this username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrPasswordRequired   = errors.New("password is required")

	// ErrPasswordTooLong is returned for passwords over bcrypt's 72 byte input limit
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")

	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrTokenRevoked = errors.New("token has been revoked")

	// ErrResetTokenInvalid covers unknown, expired and already redeemed reset tokens.
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
)
