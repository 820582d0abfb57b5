// Package common defines shared constants and sentinel errors used across
// the layers of gophbooks. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound   = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Registration errors.
	ErrInvalidCredential = errors.New("invalid credential")
	ErrPasswordMismatch  = errors.New("password and confirm password mismatch")
	ErrInvalidInput      = errors.New("invalid input")

	// Token errors. All of them collapse into ErrorUnauthorized at the boundary.
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("malformed token")
)
