// Package model contains the domain records passed between layers: raw
// lifestyle inputs, training records and the fixed-order feature vector.
package model

import (
	"fmt"
	"math"
	"strings"
)

// Dataset column names. They double as encoder keys in the model store.
const (
	ColStress    = "Stress Level"
	ColSleep     = "Sleep Hours"
	ColWater     = "Water Intake (L)"
	ColPollution = "Pollution Exposure"
	ColColoring  = "Hair Coloring Frequency"
	ColIssues    = "Hair Issues"
	ColBudget    = "Hair Care Budget"
	ColGenetics  = "Genetic/Hormonal Wellness"
	ColScore     = "Hair Health Score"
	ColRisk      = "Hair Risk Level"

	// ColIssueCount names the derived feature; it never appears in a dataset file.
	ColIssueCount = "Hair Issues Count"
)

// CategoricalColumns lists the label-encoded feature columns.
var CategoricalColumns = []string{ColStress, ColPollution, ColColoring, ColBudget, ColGenetics}

// FeatureColumns is the column order of FeatureVector. Both estimators were
// fitted on this order; changing it invalidates every stored model.
var FeatureColumns = [NumFeatures]string{
	ColStress, ColSleep, ColWater, ColPollution, ColColoring, ColIssueCount, ColBudget, ColGenetics,
}

// Feature vector positions.
const (
	FeatStress = iota
	FeatSleep
	FeatWater
	FeatPollution
	FeatColoring
	FeatIssueCount
	FeatBudget
	FeatGenetics

	NumFeatures
)

// FeatureVector is the fixed-order numeric input of both estimators.
type FeatureVector [NumFeatures]float64

// Slice returns the vector as a slice sharing no memory with v.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, NumFeatures)
	copy(out, v[:])
	return out
}

// Input is one set of raw lifestyle answers, either from the web form or
// from a dataset row. Issues are kept normalized (see NormalizeIssues).
type Input struct {
	Stress    string
	Sleep     float64
	Water     float64
	Pollution string
	Coloring  string
	Issues    []string
	Budget    string
	Genetics  string
}

// Categorical returns the raw value of a categorical column.
func (in Input) Categorical(column string) (string, bool) {
	switch column {
	case ColStress:
		return in.Stress, true
	case ColPollution:
		return in.Pollution, true
	case ColColoring:
		return in.Coloring, true
	case ColBudget:
		return in.Budget, true
	case ColGenetics:
		return in.Genetics, true
	default:
		return "", false
	}
}

// IssueCount is the cardinality of the normalized issue set.
func (in Input) IssueCount() int {
	return len(NormalizeIssues(in.Issues))
}

// HasIssue reports whether issue was selected.
func (in Input) HasIssue(issue string) bool {
	for _, is := range in.Issues {
		if is == issue {
			return true
		}
	}
	return false
}

// Validate checks that every answer is present and numerics are usable.
func (in Input) Validate() error {
	for _, col := range CategoricalColumns {
		v, _ := in.Categorical(col)
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, col)
		}
	}
	if err := checkAmount(ColSleep, in.Sleep); err != nil {
		return err
	}
	return checkAmount(ColWater, in.Water)
}

func checkAmount(column string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be a finite number", ErrInvalidInput, column)
	}
	if v < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, column)
	}
	return nil
}

// Record is one historical training example.
type Record struct {
	Input

	// Score is the continuous regression target.
	Score float64
	// Risk is the categorical classification target.
	Risk string
}
