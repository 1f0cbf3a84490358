package artifacts

import "errors"

// Sentinel kinds for model store errors.
var (
	ErrMissingArtifact = errors.New("model artifact not found")
	ErrCorruptArtifact = errors.New("model artifact cannot be decoded")
	ErrNoReport        = errors.New("training report not found")
)
