package repository

import "errors"

// Sentinel kinds for session store errors.
var (
	ErrNotFound  = errors.New("session result not found")
	ErrExpired   = errors.New("session result expired")
	ErrInvalidID = errors.New("invalid session id")
)
