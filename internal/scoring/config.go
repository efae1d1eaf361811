package scoring

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/feedback"
	"github.com/ayusman/posecoach/internal/smoothing"
)

// Config holds every tunable of the scoring pipeline.
type Config struct {
	// VisibilityThreshold is the confidence a keypoint must exceed to be used.
	VisibilityThreshold float64 `yaml:"visibility_threshold" json:"visibility_threshold"`

	// FalloffK shapes the Gaussian falloff beyond a joint's tolerance band.
	FalloffK float64 `yaml:"falloff_k" json:"falloff_k"`
	// FalloffFloor is the lowest score a measured joint can receive.
	FalloffFloor float64 `yaml:"falloff_floor" json:"falloff_floor"`

	// MinFloor is the lowest reported accuracy for a known pose.
	MinFloor float64 `yaml:"min_floor" json:"min_floor"`
	// BaselineCeiling scales the confidence-only baseline credited to joints
	// that cannot be measured.
	BaselineCeiling float64 `yaml:"baseline_ceiling" json:"baseline_ceiling"`

	NeedsImprovement float64 `yaml:"needs_improvement" json:"needs_improvement"`
	MaxFeedback      int     `yaml:"max_feedback" json:"max_feedback"`

	KeypointHistory     int     `yaml:"keypoint_history" json:"keypoint_history"`
	KeypointDecay       float64 `yaml:"keypoint_decay" json:"keypoint_decay"`
	MinSmoothingSamples int     `yaml:"min_smoothing_samples" json:"min_smoothing_samples"`

	StabilityWindow int                      `yaml:"stability_window" json:"stability_window"`
	StabilityAlpha  float64                  `yaml:"stability_alpha" json:"stability_alpha"`
	VarianceBands   []smoothing.VarianceBand `yaml:"variance_bands" json:"variance_bands"`

	// FrameInterval is the minimum spacing between processed frames in a Session.
	FrameInterval time.Duration `yaml:"frame_interval" json:"frame_interval"`
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		VisibilityThreshold: detector.DefaultVisibilityThreshold,
		FalloffK:            0.4,
		FalloffFloor:        0.1,
		MinFloor:            10,
		BaselineCeiling:     0.6,
		NeedsImprovement:    feedback.DefaultNeedsImprovement,
		MaxFeedback:         feedback.DefaultMaxMessages,
		KeypointHistory:     smoothing.DefaultKeypointHistory,
		KeypointDecay:       smoothing.DefaultKeypointDecay,
		MinSmoothingSamples: smoothing.DefaultMinSamples,
		StabilityWindow:     smoothing.DefaultStabilityWindow,
		StabilityAlpha:      smoothing.DefaultStabilityAlpha,
		VarianceBands:       smoothing.DefaultVarianceBands(),
		FrameInterval:       100 * time.Millisecond,
	}
}

// Validate checks that the configuration describes a usable pipeline.
func (c Config) Validate() error {
	var errs []error

	if c.VisibilityThreshold < 0 || c.VisibilityThreshold >= 1 {
		errs = append(errs, fmt.Errorf("visibility_threshold must be in [0,1), got %g", c.VisibilityThreshold))
	}
	if c.FalloffK <= 0 {
		errs = append(errs, fmt.Errorf("falloff_k must be positive, got %g", c.FalloffK))
	}
	if c.FalloffFloor <= 0 || c.FalloffFloor >= 1 {
		errs = append(errs, fmt.Errorf("falloff_floor must be in (0,1), got %g", c.FalloffFloor))
	}
	if c.MinFloor < 0 || c.MinFloor >= 100 {
		errs = append(errs, fmt.Errorf("min_floor must be in [0,100), got %g", c.MinFloor))
	}
	if c.BaselineCeiling < 0 || c.BaselineCeiling > 1 {
		errs = append(errs, fmt.Errorf("baseline_ceiling must be in [0,1], got %g", c.BaselineCeiling))
	}
	if c.NeedsImprovement <= 0 || c.NeedsImprovement > 1 {
		errs = append(errs, fmt.Errorf("needs_improvement must be in (0,1], got %g", c.NeedsImprovement))
	}
	if c.MaxFeedback < 1 {
		errs = append(errs, fmt.Errorf("max_feedback must be at least 1, got %d", c.MaxFeedback))
	}
	if c.KeypointHistory < 1 {
		errs = append(errs, fmt.Errorf("keypoint_history must be at least 1, got %d", c.KeypointHistory))
	}
	if c.KeypointDecay <= 0 || c.KeypointDecay > 1 {
		errs = append(errs, fmt.Errorf("keypoint_decay must be in (0,1], got %g", c.KeypointDecay))
	}
	if c.StabilityWindow < 2 {
		errs = append(errs, fmt.Errorf("stability_window must be at least 2, got %d", c.StabilityWindow))
	}
	if c.StabilityAlpha <= 0 || c.StabilityAlpha > 1 {
		errs = append(errs, fmt.Errorf("stability_alpha must be in (0,1], got %g", c.StabilityAlpha))
	}
	for i := 1; i < len(c.VarianceBands); i++ {
		if c.VarianceBands[i].MinMean >= c.VarianceBands[i-1].MinMean {
			errs = append(errs, errors.New("variance_bands must be ordered by descending min_mean"))
			break
		}
	}
	if c.FrameInterval < 0 {
		errs = append(errs, fmt.Errorf("frame_interval must not be negative, got %s", c.FrameInterval))
	}

	return errors.Join(errs...)
}
