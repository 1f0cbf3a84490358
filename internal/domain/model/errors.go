package model

import "errors"

// ErrInvalidInput marks lifestyle answers that cannot be scored.
var ErrInvalidInput = errors.New("invalid input")
