package scoring

import "fmt"

// UnknownPoseMessage is the only feedback for an unresolvable pose identifier.
const UnknownPoseMessage = "Unknown pose type"

// OutcomeKind tags what happened to a frame.
type OutcomeKind int

const (
	// OutcomeScored means a known pose was measured.
	OutcomeScored OutcomeKind = iota
	// OutcomeNoDetection means the frame carried no keypoints.
	OutcomeNoDetection
	// OutcomeUnknownPose means the pose identifier did not resolve.
	OutcomeUnknownPose
	// OutcomeSkipped means the frame arrived inside the frame interval and was dropped.
	OutcomeSkipped
	// OutcomeInsufficientInput means the frame could not be evaluated at all.
	OutcomeInsufficientInput
)

var outcomeNames = map[OutcomeKind]string{
	OutcomeScored:            "scored",
	OutcomeNoDetection:       "no_detection",
	OutcomeUnknownPose:       "unknown_pose",
	OutcomeSkipped:           "skipped",
	OutcomeInsufficientInput: "insufficient_input",
}

func (k OutcomeKind) String() string {
	if name, ok := outcomeNames[k]; ok {
		return name
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *OutcomeKind) UnmarshalText(text []byte) error {
	for kind, name := range outcomeNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown outcome kind %q", text)
}

// ScoreResult is the per-frame report for a pose.
type ScoreResult struct {
	PoseID          string             `json:"pose_id"`
	OverallAccuracy int                `json:"overall_accuracy"`
	PerJointScore   map[string]float64 `json:"per_joint_score"`
	Feedback        []string           `json:"feedback"`
	IsStable        bool               `json:"is_stable"`
	// Coverage is the share of the profile's joints that could be measured.
	Coverage       float64 `json:"coverage"`
	MeasuredJoints int     `json:"measured_joints"`
}

// Outcome is the result of offering one frame to the engine. Result is nil only
// for OutcomeSkipped.
type Outcome struct {
	Kind   OutcomeKind  `json:"kind"`
	Result *ScoreResult `json:"result,omitempty"`
}

// Scored reports whether the outcome carries a real measurement.
func (o Outcome) Scored() bool {
	return o.Kind == OutcomeScored
}
