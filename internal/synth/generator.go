// Package synth generates synthetic lifestyle answers and training rows, and
// drives load runs against a running web form.
package synth

import (
	"math"
	"math/rand"

	"github.com/okian/hairhealth/internal/domain/model"
)

// Answer vocabularies of the generated data.
var (
	StressLevels        = []string{"Low", "Moderate", "High"}
	PollutionLevels     = []string{"Low", "Moderate", "High"}
	ColoringFrequencies = []string{"Never", "Rarely", "Occasionally", "Frequently"}
	Budgets             = []string{"Low", "Medium", "High"}
	GeneticsLevels      = []string{"Poor", "Average", "Good"}
)

// Risk labels assigned from the generated score.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// Constants for value generation ranges.
const (
	sleepMin        = 3.0
	sleepSteps      = 14 // half-hour steps up to 10h
	waterMin        = 0.5
	waterSteps      = 14 // quarter-litre steps up to 4l
	issueChance     = 0.3
	defaultNoise    = 4.0
	lowRiskScore    = 70.0
	mediumRiskScore = 45.0
)

// Generator produces reproducible synthetic data. It is not safe for
// concurrent use.
type Generator struct {
	rnd   *rand.Rand
	noise float64
}

// GeneratorOption applies a configuration option to the Generator.
type GeneratorOption func(*Generator)

// WithNoise sets the standard deviation of the score noise.
func WithNoise(sd float64) GeneratorOption {
	return func(g *Generator) {
		if sd >= 0 {
			g.noise = sd
		}
	}
}

// NewGenerator creates a generator seeded with seed.
func NewGenerator(seed int64, opts ...GeneratorOption) *Generator {
	g := &Generator{rnd: rand.New(rand.NewSource(seed)), noise: defaultNoise}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) pick(values []string) string {
	return values[g.rnd.Intn(len(values))]
}

// Input returns one random set of answers.
func (g *Generator) Input() model.Input {
	in := model.Input{
		Stress:    g.pick(StressLevels),
		Sleep:     sleepMin + float64(g.rnd.Intn(sleepSteps+1))*0.5,
		Water:     waterMin + float64(g.rnd.Intn(waterSteps+1))*0.25,
		Pollution: g.pick(PollutionLevels),
		Coloring:  g.pick(ColoringFrequencies),
		Budget:    g.pick(Budgets),
		Genetics:  g.pick(GeneticsLevels),
	}
	for _, is := range model.KnownIssues {
		if g.rnd.Float64() < issueChance {
			in.Issues = append(in.Issues, is)
		}
	}
	return in
}

// Inputs returns n random answer sets.
func (g *Generator) Inputs(n int) []model.Input {
	out := make([]model.Input, n)
	for i := range out {
		out[i] = g.Input()
	}
	return out
}

// Record returns one labelled training row.
func (g *Generator) Record() model.Record {
	in := g.Input()
	score := ExpectedScore(in) + g.rnd.NormFloat64()*g.noise
	score = math.Round(math.Max(0, math.Min(100, score))*10) / 10
	return model.Record{Input: in, Score: score, Risk: RiskOf(score)}
}

// Records returns n labelled training rows.
func (g *Generator) Records(n int) []model.Record {
	out := make([]model.Record, n)
	for i := range out {
		out[i] = g.Record()
	}
	return out
}

// ExpectedScore is the noise-free score of in.
func ExpectedScore(in model.Input) float64 {
	score := 55.0
	score -= 10 * float64(indexOf(StressLevels, in.Stress))
	score += 4 * (in.Sleep - 7)
	score += 5 * (in.Water - 2)
	score -= 4 * float64(indexOf(PollutionLevels, in.Pollution))
	score -= 3 * float64(indexOf(ColoringFrequencies, in.Coloring))
	score += 3 * float64(indexOf(Budgets, in.Budget))
	score += 6 * float64(indexOf(GeneticsLevels, in.Genetics))
	score -= 5 * float64(len(in.Issues))
	return score
}

// RiskOf maps a score to its risk label.
func RiskOf(score float64) string {
	switch {
	case score >= lowRiskScore:
		return RiskLow
	case score >= mediumRiskScore:
		return RiskMedium
	default:
		return RiskHigh
	}
}

func indexOf(values []string, v string) int {
	for i, s := range values {
		if s == v {
			return i
		}
	}
	return 0
}
