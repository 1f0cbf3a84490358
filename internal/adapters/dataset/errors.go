package dataset

import (
	"errors"
	"fmt"
)

// Sentinel kinds for dataset errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	ErrMissingColumn     = errors.New("missing dataset column")
	ErrNoRows            = errors.New("dataset has no data rows")
	ErrMalformedRow      = errors.New("malformed dataset row")
)

// RowError locates a bad cell. Line is 1-based and counts the header.
type RowError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s: line %d, column %q, value %q: %v", ErrMalformedRow, e.Line, e.Column, e.Value, e.Err)
}

// Unwrap exposes the underlying parse failure.
func (e *RowError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrMalformedRow.
func (e *RowError) Is(target error) bool { return target == ErrMalformedRow }
