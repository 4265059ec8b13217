package utils

import "errors"

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrInvalidState = errors.New("invalid state")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")

	ErrEmailAlreadyExists   = errors.New("email already exists")
	ErrPlanLimitReached     = errors.New("plan limit reached")
	ErrBillingNotConfigured = errors.New("billing not configured")

	ErrStoreUnavailable = errors.New("store unavailable")
	ErrDatabaseError    = errors.New("database error")
)
