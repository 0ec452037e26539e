package service

import (
	"errors"

	"fluentphrases/internal/token"
)

var (
	ErrUnauthenticated    = errors.New("authorization token required")
	ErrInvalidToken       = token.ErrInvalidToken
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("user not found")
	ErrConflict           = errors.New("email already registered")
	ErrNotificationFailed = errors.New("failed to send password reset email")
	ErrInvalidPlan        = errors.New("invalid plan")
	ErrValidation         = errors.New("validation failed")
	ErrPaymentProvider    = errors.New("failed to create payment preference")
)
