package smoothing

import (
	"gonum.org/v1/gonum/stat"
)

// Stability defaults.
const (
	DefaultStabilityWindow = 10
	DefaultStabilityAlpha  = 0.3
)

// VarianceBand sets the variance a window must stay under to count as stable
// when its mean score is above MinMean.
type VarianceBand struct {
	MinMean     float64 `yaml:"min_mean" json:"min_mean"`
	MaxVariance float64 `yaml:"max_variance" json:"max_variance"`
}

// DefaultVarianceBands demands a steadier signal from higher scores.
func DefaultVarianceBands() []VarianceBand {
	return []VarianceBand{
		{MinMean: 80, MaxVariance: 15},
		{MinMean: 60, MaxVariance: 20},
		{MinMean: 0, MaxVariance: 25},
	}
}

// Reading is the result of observing one score.
type Reading struct {
	// Value is the score to report: the window's moving average when stable,
	// otherwise the instantaneous score.
	Value    float64
	Stable   bool
	Mean     float64
	Variance float64
}

// StabilityTracker classifies a stream of scores as settled or still moving.
type StabilityTracker struct {
	window *Ring[float64]
	alpha  float64
	bands  []VarianceBand
}

// NewStabilityTracker creates a tracker over the last window scores. alpha is the
// EMA smoothing factor applied across the window. bands must be ordered by
// descending MinMean; a nil slice uses DefaultVarianceBands.
func NewStabilityTracker(window int, alpha float64, bands []VarianceBand) *StabilityTracker {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultStabilityAlpha
	}
	if len(bands) == 0 {
		bands = DefaultVarianceBands()
	}
	return &StabilityTracker{
		window: NewRing[float64](window),
		alpha:  alpha,
		bands:  bands,
	}
}

// Observe records score and classifies the window.
// The window is never stable until it is full.
func (t *StabilityTracker) Observe(score float64) Reading {
	t.window.Push(score)

	if !t.window.Full() {
		return Reading{Value: score}
	}

	values := t.window.Slice()
	mean, variance := stat.PopMeanVariance(values, nil)

	r := Reading{
		Value:    score,
		Mean:     mean,
		Variance: variance,
		Stable:   variance < t.threshold(mean),
	}
	if r.Stable {
		r.Value = ema(values, t.alpha)
	}
	return r
}

// threshold returns the variance limit for a window with the given mean.
func (t *StabilityTracker) threshold(mean float64) float64 {
	for _, b := range t.bands {
		if mean > b.MinMean {
			return b.MaxVariance
		}
	}
	return t.bands[len(t.bands)-1].MaxVariance
}

// Len returns the number of scores held.
func (t *StabilityTracker) Len() int {
	return t.window.Len()
}

// Reset discards the window.
func (t *StabilityTracker) Reset() {
	t.window.Clear()
}

// ema folds values oldest to newest into an exponential moving average seeded
// with the oldest value.
func ema(values []float64, alpha float64) float64 {
	avg := values[0]
	for _, v := range values[1:] {
		avg = alpha*v + (1-alpha)*avg
	}
	return avg
}
