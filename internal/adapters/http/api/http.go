// Package api wires the hair health web routes onto a chi router.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/hairhealth/internal/adapters/http/site"
	"github.com/okian/hairhealth/internal/adapters/report"
	"github.com/okian/hairhealth/internal/adapters/repository"
	service "github.com/okian/hairhealth/internal/app"
	"github.com/okian/hairhealth/internal/domain/model"
	"github.com/okian/hairhealth/pkg/logger"
	"github.com/okian/hairhealth/pkg/metrics"
)

// Predictor scores form answers. *service.Service satisfies it.
type Predictor interface {
	Predict(ctx context.Context, in model.Input) (service.Result, error)
	Vocabulary() map[string][]string
	ModelsLoaded() bool
	Stats() map[string]any
}

// ReportRenderer converts the printable report page into a document.
type ReportRenderer interface {
	Render(ctx context.Context, htmlDoc []byte) ([]byte, error)
	ContentType() string
}

// Server wires HTTP routes for the web application.
type Server struct {
	predictor Predictor
	sessions  repository.Store
	pages     *site.Renderer
	reports   ReportRenderer
	cookieCfg CookieConfig
	cookie    *sessionCookie
	sanitizer *bluemonday.Policy
	logger    logger.Logger
	now       func() time.Time

	reportName string

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithSessions sets the session result store.
func WithSessions(store repository.Store) Option {
	return func(s *Server) { s.sessions = store }
}

// WithPages sets the page renderer.
func WithPages(r *site.Renderer) Option {
	return func(s *Server) { s.pages = r }
}

// WithReports sets the downloadable report renderer.
func WithReports(r ReportRenderer) Option {
	return func(s *Server) { s.reports = r }
}

// WithCookie configures the session cookie.
func WithCookie(cfg CookieConfig) Option {
	return func(s *Server) { s.cookieCfg = cfg }
}

// WithReportName sets the download file name of the report.
func WithReportName(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.reportName = name
		}
	}
}

// WithLogger sets a custom logger for the server.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source stamped on session results and reports.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer creates a new API server. Unset collaborators get in-process
// defaults: a memory session store, the embedded pages and the PDF renderer.
func NewServer(predictor Predictor, opts ...Option) (*Server, error) {
	if predictor == nil {
		return nil, fmt.Errorf("%w: predictor is required", ErrInvalidConfig)
	}
	s := &Server{
		predictor:  predictor,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.Get(),
		now:        time.Now,
		reportName: "HairHealthReport.pdf",
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.sessions == nil {
		s.sessions = repository.NewMemoryStore()
	}
	if s.pages == nil {
		pages, err := site.NewRenderer()
		if err != nil {
			return nil, err
		}
		s.pages = pages
	}
	if s.reports == nil {
		s.reports = report.NewPDFRenderer()
	}
	cookie, err := newSessionCookie(s.cookieCfg)
	if err != nil {
		return nil, err
	}
	s.cookie = cookie

	s.healthHandler = NewHealthHandler(predictor)
	s.statsHandler = NewStatsHandler(predictor)
	return s, nil
}

// Routes returns the router serving every page and operational endpoint.
// Each extra registrar may attach further routes, e.g. the API docs.
func (s *Server) Routes(extra ...func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", MetricsMiddleware(s.handleForm, "index"))
	r.Post("/predict", MetricsMiddleware(s.handlePredict, "predict"))
	r.Get("/result", MetricsMiddleware(s.handleResult, "result"))
	r.Get("/download-pdf", MetricsMiddleware(s.handleDownload, "download_pdf"))
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	site.Register(r)
	for _, register := range extra {
		register(r)
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeText answers with a plain message, the way every user facing failure
// is reported.
func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
