// Package service provides the inference service that implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/okian/hairhealth/internal/domain/bundle"
	"github.com/okian/hairhealth/internal/domain/encoding"
	"github.com/okian/hairhealth/internal/domain/model"
	"github.com/okian/hairhealth/internal/domain/scoring"
	"github.com/okian/hairhealth/internal/domain/tips"
	"github.com/okian/hairhealth/pkg/logger"
	"github.com/okian/hairhealth/pkg/metrics"
)

// Error kinds reported to the prediction error counter.
const (
	errKindInvalidInput    = "invalid_input"
	errKindUnknownCategory = "unknown_category"
	errKindModel           = "model"
)

// Result is one scored set of lifestyle answers.
type Result struct {
	// Score is the rounded score shown to users.
	Score int
	// RawScore is the unrounded regressor output.
	RawScore    float64
	Risk        string
	ResultClass scoring.Bucket
	Tips        []string
}

// Service scores lifestyle answers with a loaded model bundle.
type Service struct {
	bundle   *bundle.Bundle
	bucketer *scoring.Bucketer
	logger   logger.Logger
	now      func() time.Time

	threshold float64
	loadedAt  time.Time

	predictions atomic.Int64
	failures    atomic.Int64
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithBundle sets the fitted models and encoders.
func WithBundle(b *bundle.Bundle) Option {
	return func(s *Service) { s.bundle = b }
}

// WithThreshold sets the good/bad score boundary.
func WithThreshold(threshold float64) Option {
	return func(s *Service) { s.threshold = threshold }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for latency and stats.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service. It fails when no valid bundle was supplied.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		threshold: scoring.DefaultThreshold,
		logger:    logger.Get(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bundle == nil {
		return nil, ErrNoModels
	}
	if err := s.bundle.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoModels, err)
	}
	s.bundle.Freeze()
	s.bucketer = scoring.NewBucketer(scoring.WithThreshold(s.threshold))
	s.loadedAt = s.now()
	return s, nil
}

// Predict scores in, classifies its risk and derives care tips. Issues are
// normalized before use.
func (s *Service) Predict(ctx context.Context, in model.Input) (Result, error) {
	start := s.now()
	res, err := s.predict(in)
	metrics.RecordPredictionLatency(float64(s.now().Sub(start).Microseconds()) / 1000)

	if err != nil {
		s.failures.Add(1)
		kind := errorKind(err)
		metrics.RecordPredictionError(kind)
		s.logger.Warn(ctx, "prediction failed", logger.String("kind", kind), logger.Error(err))
		return Result{}, err
	}
	s.predictions.Add(1)
	metrics.RecordPrediction(res.Risk, string(res.ResultClass))
	s.logger.Debug(ctx, "prediction served",
		logger.Int("score", res.Score),
		logger.String("risk", res.Risk),
		logger.String("result_class", string(res.ResultClass)),
	)
	return res, nil
}

func (s *Service) predict(in model.Input) (Result, error) {
	in.Issues = model.NormalizeIssues(in.Issues)
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	v, err := s.bundle.Encoders.Vector(in)
	if err != nil {
		return Result{}, err
	}
	x := v.Slice()

	raw, err := s.bundle.Score.Predict(x)
	if err != nil {
		return Result{}, fmt.Errorf("score model: %w", err)
	}
	riskID, err := s.bundle.Risk.Predict(x)
	if err != nil {
		return Result{}, fmt.Errorf("risk model: %w", err)
	}
	risk, err := s.bundle.RiskEncoder.Decode(riskID)
	if err != nil {
		return Result{}, fmt.Errorf("risk encoder: %w", err)
	}

	return Result{
		Score:       scoring.Round(raw),
		RawScore:    raw,
		Risk:        risk,
		ResultClass: s.bucketer.Classify(raw),
		Tips:        tips.ForInput(in),
	}, nil
}

// ModelsLoaded reports whether the service holds a usable bundle.
func (s *Service) ModelsLoaded() bool { return s != nil && s.bundle != nil }

// Vocabulary returns the categories the encoders accept for each
// categorical column, in code order. Callers get their own copies.
func (s *Service) Vocabulary() map[string][]string {
	out := make(map[string][]string, len(s.bundle.Encoders))
	for col, enc := range s.bundle.Encoders {
		out[col] = append([]string(nil), enc.Classes...)
	}
	return out
}

// Threshold returns the good/bad score boundary.
func (s *Service) Threshold() float64 { return s.threshold }

// Stats returns service statistics for monitoring.
func (s *Service) Stats() map[string]any {
	return map[string]any{
		"models_loaded":     s.ModelsLoaded(),
		"loaded_at":         s.loadedAt.UTC().Format(time.RFC3339),
		"predictions":       s.predictions.Load(),
		"failures":          s.failures.Load(),
		"threshold":         s.threshold,
		"score_model_trees": len(s.bundle.Score.Trees),
		"risk_model_trees":  len(s.bundle.Risk.Trees),
		"risk_labels":       append([]string(nil), s.bundle.RiskEncoder.Classes...),
	}
}

// IsClientError reports whether err was caused by the submitted answers
// rather than by the service.
func IsClientError(err error) bool {
	return errors.Is(err, model.ErrInvalidInput) || errors.Is(err, encoding.ErrUnknownCategory)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return errKindInvalidInput
	case errors.Is(err, encoding.ErrUnknownCategory):
		return errKindUnknownCategory
	default:
		return errKindModel
	}
}
