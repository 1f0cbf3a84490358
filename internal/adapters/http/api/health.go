package api

import (
	"net/http"
)

// HealthReporter reports whether models are ready to serve.
type HealthReporter interface {
	ModelsLoaded() bool
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	reporter HealthReporter
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(reporter HealthReporter) *HealthHandler {
	return &HealthHandler{reporter: reporter}
}

type healthResponse struct {
	Status       string `json:"status"`
	ModelsLoaded bool   `json:"models_loaded"`
}

// HandleHealth handles GET /healthz requests. It answers 503 until models
// are loaded.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	loaded := h.reporter != nil && h.reporter.ModelsLoaded()
	if !loaded {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", ModelsLoaded: true})
}
