package training

import "errors"

// Sentinel kinds for training errors.
var (
	ErrInvalidSplit   = errors.New("invalid train/test split")
	ErrLengthMismatch = errors.New("prediction and target lengths differ")
)
