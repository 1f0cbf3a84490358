package encoding

import (
	"errors"
	"fmt"
)

// Sentinel kinds for encoding errors.
var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownClass    = errors.New("unknown class id")
	ErrUnknownColumn   = errors.New("no encoder for column")
	ErrEmptyEncoder    = errors.New("encoder has no classes")
)

// EncodingError reports a categorical value that was absent from training.
type EncodingError struct {
	Column string
	Value  string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: %q is not a known value for %s", ErrUnknownCategory, e.Value, e.Column)
}

// Is lets errors.Is match ErrUnknownCategory.
func (e *EncodingError) Is(target error) bool {
	return target == ErrUnknownCategory
}
