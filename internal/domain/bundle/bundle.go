// Package bundle groups the four fitted artifacts that inference needs and
// the report describing how they were trained.
package bundle

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/hairhealth/internal/domain/encoding"
	"github.com/okian/hairhealth/internal/domain/forest"
	"github.com/okian/hairhealth/internal/domain/model"
)

// ErrIncomplete marks a bundle missing one of its parts.
var ErrIncomplete = errors.New("incomplete model bundle")

// Bundle is the unit the trainer produces and the service loads.
type Bundle struct {
	Score       *forest.Regressor
	Risk        *forest.Classifier
	RiskEncoder *encoding.LabelEncoder
	Encoders    encoding.ColumnEncoders
}

// Validate checks that every part is present and the parts agree on shape.
func (b *Bundle) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil bundle", ErrIncomplete)
	}
	if b.Score == nil || !b.Score.Fitted() {
		return fmt.Errorf("%w: score model", ErrIncomplete)
	}
	if b.Risk == nil || !b.Risk.Fitted() {
		return fmt.Errorf("%w: risk model", ErrIncomplete)
	}
	if b.RiskEncoder == nil || b.RiskEncoder.Len() == 0 {
		return fmt.Errorf("%w: risk encoder", ErrIncomplete)
	}
	if err := b.Encoders.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrIncomplete, err)
	}
	if b.Score.Features != model.NumFeatures || b.Risk.Features != model.NumFeatures {
		return fmt.Errorf("%w: models expect %d and %d features, want %d",
			ErrIncomplete, b.Score.Features, b.Risk.Features, model.NumFeatures)
	}
	if b.Risk.Classes > b.RiskEncoder.Len() {
		return fmt.Errorf("%w: risk model has %d classes but encoder knows %d",
			ErrIncomplete, b.Risk.Classes, b.RiskEncoder.Len())
	}
	return nil
}

// Freeze prepares the encoders for concurrent use.
func (b *Bundle) Freeze() {
	b.RiskEncoder.Freeze()
	b.Encoders.Freeze()
}

// RegressionMetrics are held-out metrics of the score model.
type RegressionMetrics struct {
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`
}

// ClassificationMetrics are held-out metrics of the risk model.
// Confusion[i][j] counts samples of label i predicted as label j.
type ClassificationMetrics struct {
	Accuracy  float64  `json:"accuracy"`
	Labels    []string `json:"labels"`
	Confusion [][]int  `json:"confusion"`
}

// Report describes one training run.
type Report struct {
	TrainedAt        time.Time             `json:"trained_at"`
	Dataset          string                `json:"dataset,omitempty"`
	Rows             int                   `json:"rows"`
	TrainRows        int                   `json:"train_rows"`
	TestRows         int                   `json:"test_rows"`
	Seed             int64                 `json:"seed"`
	TestFraction     float64               `json:"test_fraction"`
	Trees            int                   `json:"trees"`
	Score            RegressionMetrics     `json:"score"`
	Risk             ClassificationMetrics `json:"risk"`
	ScoreImportances map[string]float64    `json:"score_importances,omitempty"`
	RiskImportances  map[string]float64    `json:"risk_importances,omitempty"`
}
