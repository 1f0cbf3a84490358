package forest

import "errors"

// Sentinel kinds for forest errors.
var (
	ErrEmptyDataset  = errors.New("empty training set")
	ErrShapeMismatch = errors.New("shape mismatch")
	ErrInvalidParams = errors.New("invalid forest parameters")
	ErrInvalidLabel  = errors.New("invalid class label")
	ErrNotFitted     = errors.New("model is not fitted")
)
