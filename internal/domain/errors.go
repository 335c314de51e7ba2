package domain

import "errors"

// Callers match these with errors.Is; every layer wraps them with its own context.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrOutOfStock        = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrConflict          = errors.New("concurrent modification")
	ErrGateway           = errors.New("payment gateway error")
	ErrSignature         = errors.New("webhook signature verification failed")
	ErrInvalidTransition = errors.New("invalid order status transition")
)
