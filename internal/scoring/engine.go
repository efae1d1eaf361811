// Package scoring measures how closely a detected body matches a reference pose
// and reports a smoothed accuracy with corrective feedback.
package scoring

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/feedback"
	"github.com/ayusman/posecoach/internal/profile"
)

// Engine scores frames against the poses of a registry. It holds no per-stream
// data and is safe for concurrent use; all history lives in State.
type Engine struct {
	registry *profile.Registry
	cfg      Config
}

// NewEngine creates an engine over reg.
func NewEngine(reg *profile.Registry, cfg Config) (*Engine, error) {
	if reg == nil {
		return nil, errors.New("scoring: nil registry")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scoring: invalid config: %w", err)
	}
	return &Engine{registry: reg, cfg: cfg}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Registry returns the pose registry the engine resolves against.
func (e *Engine) Registry() *profile.Registry {
	return e.registry
}

// NewState creates a history sized for this engine.
func (e *Engine) NewState() *State {
	return NewState(e.cfg)
}

// Score evaluates one frame of keypoints for poseID and updates state.
// The keypoints slice is never modified. Score does not fail: every input maps
// to an Outcome.
func (e *Engine) Score(state *State, poseID string, keypoints []detector.Keypoint) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("scoring: frame for %q could not be evaluated: %v", poseID, r)
			out = Outcome{Kind: OutcomeInsufficientInput, Result: e.coverageResult(poseID)}
		}
	}()

	p, err := e.registry.Lookup(poseID)
	if err != nil {
		return Outcome{
			Kind: OutcomeUnknownPose,
			Result: &ScoreResult{
				PoseID:        poseID,
				PerJointScore: map[string]float64{},
				Feedback:      []string{UnknownPoseMessage},
			},
		}
	}

	state.switchPose(p.ID)

	if len(keypoints) == 0 {
		state.Reset()
		return Outcome{Kind: OutcomeNoDetection, Result: e.coverageResult(p.ID)}
	}

	pose := detector.NewPose(keypoints).Normalize(p.Normalization, e.cfg.VisibilityThreshold)
	smoothed := state.keypoints.Smooth(pose)

	agg := Aggregate(p, smoothed, e.cfg)
	reading := state.stability.Observe(agg.Accuracy)
	state.frames++

	accuracy := e.report(reading.Value)

	joints := make([]feedback.Joint, len(agg.Joints))
	perJoint := make(map[string]float64, agg.Measured)
	for i, js := range agg.Joints {
		joints[i] = feedback.Joint{Name: js.Name, Measured: js.Measured, Score: js.Score, Feedback: js.Feedback}
		if js.Measured {
			perJoint[js.Name] = js.Score
		}
	}

	return Outcome{
		Kind: OutcomeScored,
		Result: &ScoreResult{
			PoseID:          p.ID,
			OverallAccuracy: accuracy,
			PerJointScore:   perJoint,
			Feedback:        feedback.Generate(accuracy, joints, e.feedbackOptions()),
			IsStable:        reading.Stable,
			Coverage:        agg.Trust,
			MeasuredJoints:  agg.Measured,
		},
	}
}

// coverageResult is reported when no joint of the pose can be evaluated.
func (e *Engine) coverageResult(poseID string) *ScoreResult {
	accuracy := e.report(e.cfg.MinFloor)
	return &ScoreResult{
		PoseID:          poseID,
		OverallAccuracy: accuracy,
		PerJointScore:   map[string]float64{},
		Feedback: feedback.Generate(accuracy,
			[]feedback.Joint{{Measured: false}}, e.feedbackOptions()),
	}
}

// report rounds a score to the integer percentage shown to the user.
func (e *Engine) report(v float64) int {
	floor := int(math.Ceil(e.cfg.MinFloor))
	return int(clamp(math.Round(v), float64(floor), 100))
}

func (e *Engine) feedbackOptions() feedback.Options {
	return feedback.Options{
		NeedsImprovement: e.cfg.NeedsImprovement,
		MaxMessages:      e.cfg.MaxFeedback,
	}
}
