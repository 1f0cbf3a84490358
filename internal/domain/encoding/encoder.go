// Package encoding maps categorical labels to the integer codes the
// estimators were trained on.
package encoding

import (
	"fmt"

	"github.com/okian/hairhealth/internal/domain/model"
)

// LabelEncoder is a bijection between the category strings seen for one
// column during training and the codes 0..k-1, assigned in first-seen order.
// Fields are exported for the model store; treat a fitted encoder as read-only.
type LabelEncoder struct {
	Column  string
	Classes []string

	index map[string]int
}

// NewLabelEncoder returns an empty encoder for column.
func NewLabelEncoder(column string) *LabelEncoder {
	return &LabelEncoder{Column: column}
}

// Fit assigns codes to values in the order they first appear and returns the
// code of each value. Fitting again extends the existing vocabulary.
func (e *LabelEncoder) Fit(values []string) []int {
	e.ensureIndex()
	codes := make([]int, len(values))
	for i, v := range values {
		id, ok := e.index[v]
		if !ok {
			id = len(e.Classes)
			e.Classes = append(e.Classes, v)
			e.index[v] = id
		}
		codes[i] = id
	}
	return codes
}

// Encode returns the code of value or an *EncodingError when value was never
// seen during training.
func (e *LabelEncoder) Encode(value string) (int, error) {
	e.ensureIndex()
	id, ok := e.index[value]
	if !ok {
		return 0, &EncodingError{Column: e.Column, Value: value}
	}
	return id, nil
}

// Decode returns the label of code.
func (e *LabelEncoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.Classes) {
		return "", fmt.Errorf("%w: %s has no class %d", ErrUnknownClass, e.Column, code)
	}
	return e.Classes[code], nil
}

// Len is the number of known classes.
func (e *LabelEncoder) Len() int { return len(e.Classes) }

// ensureIndex rebuilds the lookup after decoding from the model store.
func (e *LabelEncoder) ensureIndex() {
	if e.index != nil && len(e.index) == len(e.Classes) {
		return
	}
	e.index = make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		e.index[c] = i
	}
}

// Freeze builds the lookup eagerly so a shared encoder is never written to
// from concurrent requests.
func (e *LabelEncoder) Freeze() { e.ensureIndex() }

// ColumnEncoders holds one fitted encoder per categorical column.
type ColumnEncoders map[string]*LabelEncoder

// Fit builds an encoder for each categorical column from records, in row order.
func Fit(records []model.Record) ColumnEncoders {
	encs := make(ColumnEncoders, len(model.CategoricalColumns))
	for _, col := range model.CategoricalColumns {
		values := make([]string, len(records))
		for i, r := range records {
			values[i], _ = r.Categorical(col)
		}
		enc := NewLabelEncoder(col)
		enc.Fit(values)
		encs[col] = enc
	}
	return encs
}

// Encode looks up value in the encoder for column.
func (c ColumnEncoders) Encode(column, value string) (int, error) {
	enc, ok := c[column]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	return enc.Encode(value)
}

// Vector assembles the fixed-order feature vector for in. It is the only
// place the column order is materialised, for training and inference alike.
func (c ColumnEncoders) Vector(in model.Input) (model.FeatureVector, error) {
	var v model.FeatureVector
	slots := [...]struct {
		pos    int
		column string
	}{
		{model.FeatStress, model.ColStress},
		{model.FeatPollution, model.ColPollution},
		{model.FeatColoring, model.ColColoring},
		{model.FeatBudget, model.ColBudget},
		{model.FeatGenetics, model.ColGenetics},
	}
	for _, s := range slots {
		raw, _ := in.Categorical(s.column)
		code, err := c.Encode(s.column, raw)
		if err != nil {
			return model.FeatureVector{}, err
		}
		v[s.pos] = float64(code)
	}
	v[model.FeatSleep] = in.Sleep
	v[model.FeatWater] = in.Water
	v[model.FeatIssueCount] = float64(in.IssueCount())
	return v, nil
}

// Validate checks that every categorical column has a non-empty encoder.
func (c ColumnEncoders) Validate() error {
	for _, col := range model.CategoricalColumns {
		enc, ok := c[col]
		if !ok || enc == nil {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, col)
		}
		if enc.Len() == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyEncoder, col)
		}
	}
	return nil
}

// Freeze prepares every encoder for concurrent reads.
func (c ColumnEncoders) Freeze() {
	for _, enc := range c {
		enc.Freeze()
	}
}
