// Package scoring turns the continuous hair health score into the values
// shown to users: a rounded score and a coarse good/bad bucket.
package scoring

import "math"

// DefaultThreshold separates the good and bad buckets.
const DefaultThreshold = 40.0

// Bucket is the coarse classification of a score.
type Bucket string

// Buckets. Their string values double as CSS classes in the result view.
const (
	BucketGood Bucket = "good"
	BucketBad  Bucket = "bad"
)

// Valid reports whether b is one of the known buckets.
func (b Bucket) Valid() bool {
	return b == BucketGood || b == BucketBad
}

// Option applies a configuration option to the Bucketer.
type Option func(*Bucketer)

// WithThreshold overrides the good/bad boundary.
func WithThreshold(threshold float64) Option {
	return func(b *Bucketer) {
		if !math.IsNaN(threshold) && !math.IsInf(threshold, 0) {
			b.threshold = threshold
		}
	}
}

// Bucketer classifies scores against a threshold.
type Bucketer struct {
	threshold float64
}

// NewBucketer creates a Bucketer with the default threshold unless overridden.
func NewBucketer(opts ...Option) *Bucketer {
	b := &Bucketer{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Threshold returns the configured boundary.
func (b *Bucketer) Threshold() float64 { return b.threshold }

// Classify returns good for scores strictly above the threshold and bad otherwise.
func (b *Bucketer) Classify(score float64) Bucket {
	if score > b.threshold {
		return BucketGood
	}
	return BucketBad
}

// Classify buckets score against DefaultThreshold.
func Classify(score float64) Bucket {
	return NewBucketer().Classify(score)
}

// Round returns the displayed integer score. Halves round to the even
// neighbour, so 40.5 displays as 40 and 41.5 as 42.
func Round(score float64) int {
	return int(math.RoundToEven(score))
}
