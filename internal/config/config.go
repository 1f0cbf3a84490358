// Package config defines service and trainer configuration and its loading.
//
// Conventions:
//   - New() returns a Config populated with defaults.
//   - Load(ctx) layers a YAML file and environment variables on top.
//   - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration for both the web service and the trainer.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":5000".
	Addr string `koanf:"addr"`

	// ArtifactDir holds the serialized models and encoders.
	ArtifactDir string `koanf:"artifact_dir"`

	// SessionTTLSeconds bounds how long a prediction stays downloadable.
	SessionTTLSeconds int `koanf:"session_ttl_seconds"`

	// SessionMaxEntries caps the number of live session results.
	SessionMaxEntries int `koanf:"session_max_entries"`

	// SessionCookieName names the cookie carrying the signed session id.
	SessionCookieName string `koanf:"session_cookie_name"`

	// SessionHashKey and SessionBlockKey sign and encrypt the session cookie.
	// Empty keys are replaced by process-ephemeral random keys.
	SessionHashKey  string `koanf:"session_hash_key"`
	SessionBlockKey string `koanf:"session_block_key"`

	// ScoreThreshold separates the good and bad score buckets.
	ScoreThreshold float64 `koanf:"score_threshold"`

	// DatasetPath points the trainer at the historical records (CSV or XLSX).
	DatasetPath string `koanf:"dataset_path"`

	// Seed drives the train/test split and the forests.
	Seed int64 `koanf:"seed"`

	// TestFraction is the share of rows held out for evaluation.
	TestFraction float64 `koanf:"test_fraction"`

	// Trees is the number of estimators in each forest.
	Trees int `koanf:"trees"`

	// MaxDepth limits tree depth; 0 means unlimited.
	MaxDepth int `koanf:"max_depth"`

	// MinSamplesSplit is the minimum node size that may be split.
	MinSamplesSplit int `koanf:"min_samples_split"`

	// MaxFeatures is the per-split feature sampling rule: all, sqrt or a
	// count. Empty keeps each forest's default.
	MaxFeatures string `koanf:"max_features"`

	// ReportTitle is written into the PDF report metadata.
	ReportTitle string `koanf:"report_title"`

	// ReportFont and ReportFontSize choose the PDF core font and body size.
	ReportFont     string  `koanf:"report_font"`
	ReportFontSize float64 `koanf:"report_font_size"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":5000",
		ArtifactDir:       "artifacts",
		SessionTTLSeconds: 1800,
		SessionMaxEntries: 10_000,
		SessionCookieName: "hairhealth_session",
		ScoreThreshold:    40,
		DatasetPath:       "dataset/hair_health_dataset.csv",
		Seed:              42,
		TestFraction:      0.2,
		Trees:             100,
		MaxDepth:          0,
		MinSamplesSplit:   2,
		ReportTitle:       "Hair Health Report",
		ReportFont:        "Helvetica",
		ReportFontSize:    11,
	}
}

// SessionTTL returns the session lifetime as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// Validate checks invariants that the loaders cannot express.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ArtifactDir == "":
		return fmt.Errorf("%w: artifact_dir must not be empty", ErrInvalidConfig)
	case c.SessionTTLSeconds <= 0:
		return fmt.Errorf("%w: session_ttl_seconds must be positive", ErrInvalidConfig)
	case c.TestFraction <= 0 || c.TestFraction >= 1:
		return fmt.Errorf("%w: test_fraction must be in (0, 1)", ErrInvalidConfig)
	case c.Trees <= 0:
		return fmt.Errorf("%w: trees must be positive", ErrInvalidConfig)
	case c.MaxDepth < 0:
		return fmt.Errorf("%w: max_depth must not be negative", ErrInvalidConfig)
	case c.MinSamplesSplit < 2:
		return fmt.Errorf("%w: min_samples_split must be at least 2", ErrInvalidConfig)
	case c.ReportFontSize < 0:
		return fmt.Errorf("%w: report_font_size must not be negative", ErrInvalidConfig)
	}
	return nil
}
