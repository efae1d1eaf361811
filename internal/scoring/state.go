package scoring

import (
	"github.com/ayusman/posecoach/internal/smoothing"
)

// State is the history of one practice stream. Each stream owns its own State;
// a State must not be shared between goroutines.
type State struct {
	keypoints *smoothing.KeypointSmoother
	stability *smoothing.StabilityTracker
	// poseID is the canonical pose the history was collected for.
	poseID string
	frames int
}

// NewState creates an empty history sized by cfg.
func NewState(cfg Config) *State {
	return &State{
		keypoints: smoothing.NewKeypointSmoother(cfg.KeypointHistory, cfg.KeypointDecay, cfg.MinSmoothingSamples, cfg.VisibilityThreshold),
		stability: smoothing.NewStabilityTracker(cfg.StabilityWindow, cfg.StabilityAlpha, cfg.VarianceBands),
	}
}

// Reset discards all history.
func (s *State) Reset() {
	s.keypoints.Reset()
	s.stability.Reset()
	s.frames = 0
}

// Frames returns the number of frames scored since the last reset.
func (s *State) Frames() int {
	return s.frames
}

// switchPose clears the history when the stream moves to a different pose.
func (s *State) switchPose(id string) {
	if s.poseID != id {
		s.Reset()
		s.poseID = id
	}
}
