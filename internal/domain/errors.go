package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrUpstreamUnavailable = errors.New("payment provider unavailable")
)
