package dataset

import (
	"fmt"

	"github.com/okian/hairhealth/internal/domain/encoding"
	"github.com/okian/hairhealth/internal/domain/model"
)

// Encoded is a dataset in estimator form. Row i of X, Scores and Risks
// describe the same record.
type Encoded struct {
	X           [][]float64
	Scores      []float64
	Risks       []int
	Encoders    encoding.ColumnEncoders
	RiskEncoder *encoding.LabelEncoder
}

// Rows is the number of encoded records.
func (e *Encoded) Rows() int { return len(e.X) }

// Encode fits one label encoder per categorical column and one for the risk
// target, then builds the feature matrix in model.FeatureColumns order.
func Encode(records []model.Record) (*Encoded, error) {
	if len(records) == 0 {
		return nil, ErrNoRows
	}
	encs := encoding.Fit(records)

	risks := make([]string, len(records))
	for i, r := range records {
		risks[i] = r.Risk
	}
	riskEnc := encoding.NewLabelEncoder(model.ColRisk)
	riskIDs := riskEnc.Fit(risks)

	out := &Encoded{
		X:           make([][]float64, len(records)),
		Scores:      make([]float64, len(records)),
		Risks:       riskIDs,
		Encoders:    encs,
		RiskEncoder: riskEnc,
	}
	for i, r := range records {
		v, err := encs.Vector(r.Input)
		if err != nil {
			return nil, fmt.Errorf("encode record %d: %w", i, err)
		}
		out.X[i] = v.Slice()
		out.Scores[i] = r.Score
	}
	encs.Freeze()
	riskEnc.Freeze()
	return out, nil
}
