package service

import "errors"

// ErrNoModels is returned when the service is built without a model bundle.
var ErrNoModels = errors.New("models not loaded")
