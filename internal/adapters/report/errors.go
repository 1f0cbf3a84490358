package report

import "errors"

// ErrRender wraps failures inside the PDF engine.
var ErrRender = errors.New("render pdf")
