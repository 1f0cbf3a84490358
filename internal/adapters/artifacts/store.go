// Package artifacts persists fitted model bundles as a directory of gob
// files plus a JSON training report.
package artifacts

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/okian/hairhealth/internal/domain/bundle"
	"github.com/okian/hairhealth/internal/domain/encoding"
	"github.com/okian/hairhealth/internal/domain/forest"
	"github.com/okian/hairhealth/pkg/logger"
)

// Artifact file names inside the store directory.
const (
	ScoreModelFile    = "score_model.gob"
	RiskModelFile     = "risk_model.gob"
	RiskEncoderFile   = "risk_encoder.gob"
	LabelEncodersFile = "label_encoders.gob"
	ReportFile        = "training_report.json"
)

// Store reads and writes a bundle under one directory.
type Store struct {
	dir string
	log logger.Logger
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// NewStore returns a store rooted at dir.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{dir: dir, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir is the store directory.
func (s *Store) Dir() string { return s.dir }

// Save writes all four artifacts. Each file is replaced atomically; a reader
// never sees a partially written file.
func (s *Store) Save(ctx context.Context, b *bundle.Bundle) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	parts := []struct {
		name  string
		value any
	}{
		{ScoreModelFile, b.Score},
		{RiskModelFile, b.Risk},
		{RiskEncoderFile, b.RiskEncoder},
		{LabelEncodersFile, b.Encoders},
	}
	for _, p := range parts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.writeAtomic(p.name, func(w io.Writer) error {
			return gob.NewEncoder(w).Encode(p.value)
		}); err != nil {
			return err
		}
	}
	s.log.Info(ctx, "model artifacts saved", logger.String("dir", s.dir))
	return nil
}

// Load reads and validates all four artifacts. The returned bundle is frozen
// and safe for concurrent inference.
func (s *Store) Load(ctx context.Context) (*bundle.Bundle, error) {
	b := &bundle.Bundle{
		Score:       &forest.Regressor{},
		Risk:        &forest.Classifier{},
		RiskEncoder: &encoding.LabelEncoder{},
	}
	parts := []struct {
		name   string
		target any
	}{
		{ScoreModelFile, b.Score},
		{RiskModelFile, b.Risk},
		{RiskEncoderFile, b.RiskEncoder},
		{LabelEncodersFile, &b.Encoders},
	}
	for _, p := range parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.decode(p.name, p.target); err != nil {
			return nil, err
		}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	b.Freeze()
	s.log.Info(ctx, "model artifacts loaded",
		logger.String("dir", s.dir),
		logger.Int("score_trees", len(b.Score.Trees)),
		logger.Int("risk_trees", len(b.Risk.Trees)),
		logger.Int("risk_classes", b.RiskEncoder.Len()),
	)
	return b, nil
}

// SaveReport writes the training report as indented JSON.
func (s *Store) SaveReport(ctx context.Context, r bundle.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	return s.writeAtomic(ReportFile, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	})
}

// LoadReport reads the training report. A store without one returns ErrNoReport.
func (s *Store) LoadReport(ctx context.Context) (bundle.Report, error) {
	var r bundle.Report
	if err := ctx.Err(); err != nil {
		return r, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, ReportFile))
	if errors.Is(err, fs.ErrNotExist) {
		return r, ErrNoReport
	}
	if err != nil {
		return r, fmt.Errorf("read %s: %w", ReportFile, err)
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("%w: %s: %w", ErrCorruptArtifact, ReportFile, err)
	}
	return r, nil
}

func (s *Store) decode(name string, target any) error {
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrMissingArtifact, name)
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(target); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorruptArtifact, name, err)
	}
	return nil
}

func (s *Store) writeAtomic(name string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
