package domain

import "errors"

// Upstream API errors.
var (
	ErrNotFound      = errors.New("figure not found upstream")
	ErrUpstream      = errors.New("figures API unavailable")
	ErrNotConfigured = errors.New("figures API not configured")
)

// Inbound request errors.
var (
	ErrBadPayload = errors.New("malformed webhook payload")
)

// Rate limiting errors.
var (
	ErrRateLimited = errors.New("rate limit exceeded")
)
