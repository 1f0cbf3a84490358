// Package repository keeps the latest prediction of each browser session.
package repository

import (
	"context"
	"time"
)

// SessionResult is the most recent prediction shown to one session.
type SessionResult struct {
	Tips        []string
	Score       int
	Risk        string
	ResultClass string
	CreatedAt   time.Time
}

// Store provides read/write access to session results.
type Store interface {
	// Put replaces the result stored for id.
	Put(ctx context.Context, id string, r SessionResult) error

	// Get returns the result for id.
	// Returns ErrNotFound if id is unknown and ErrExpired if its TTL elapsed.
	Get(ctx context.Context, id string) (SessionResult, error)

	// Delete forgets id. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// Len returns the number of live sessions.
	Len(ctx context.Context) int
}
