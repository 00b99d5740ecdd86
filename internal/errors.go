package internal

import "errors"

var (
	ErrInvalidURL          = errors.New("invalid URL format")
	ErrInvalidCode         = errors.New("short code may only contain a-z, 0-9 and '-' (1-20 characters)")
	ErrCodeConflict        = errors.New("short code already taken")
	ErrAllocationExhausted = errors.New("failed to generate unique short code")
	ErrAlreadyExists       = errors.New("record already exists")
	ErrLinkNotFound        = errors.New("link not found")
	ErrLinkInactive        = errors.New("link is no longer active")
	ErrAccessDenied        = errors.New("link not found or access denied")
	ErrUnauthenticated     = errors.New("authentication required")
)
