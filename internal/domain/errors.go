package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrLimitExceeded       = errors.New("daily withdrawal limit reached")
	ErrBelowMinimum        = errors.New("amount below minimum withdrawal")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrConflict            = errors.New("referral already registered")
	ErrUserExists          = errors.New("user already exists")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidRole         = errors.New("invalid role")
	ErrIdempotencyConflict = errors.New("request in progress")
	ErrIdempotencyMismatch = errors.New("key reuse with mismatched payload")
)
