// Package detector provides body keypoint types and pose detection interfaces.
package detector

import (
	"math"

	"github.com/ayusman/posecoach/internal/geometry"
)

// Body keypoint names following the MoveNet / COCO 17-point convention.
const (
	Nose          = "nose"
	LeftEye       = "left_eye"
	RightEye      = "right_eye"
	LeftEar       = "left_ear"
	RightEar      = "right_ear"
	LeftShoulder  = "left_shoulder"
	RightShoulder = "right_shoulder"
	LeftElbow     = "left_elbow"
	RightElbow    = "right_elbow"
	LeftWrist     = "left_wrist"
	RightWrist    = "right_wrist"
	LeftHip       = "left_hip"
	RightHip      = "right_hip"
	LeftKnee      = "left_knee"
	RightKnee     = "right_knee"
	LeftAnkle     = "left_ankle"
	RightAnkle    = "right_ankle"
)

// BodyKeypoints lists every keypoint name in detector output order.
var BodyKeypoints = []string{
	Nose, LeftEye, RightEye, LeftEar, RightEar,
	LeftShoulder, RightShoulder, LeftElbow, RightElbow, LeftWrist, RightWrist,
	LeftHip, RightHip, LeftKnee, RightKnee, LeftAnkle, RightAnkle,
}

// AnchorPairs are the point pairs tried, in order, as the body-scale reference.
var AnchorPairs = [][2]string{
	{LeftShoulder, RightShoulder},
	{LeftHip, RightHip},
}

// DefaultVisibilityThreshold is the confidence a keypoint must exceed to be usable.
const DefaultVisibilityThreshold = 0.3

// minScale guards normalization against a degenerate anchor distance.
const minScale = 1e-10

// ScaleMethod selects the body-scale reference used by Normalize.
type ScaleMethod string

const (
	// ScaleAnchor scales by the distance between the anchor pair.
	ScaleAnchor ScaleMethod = "anchor"
	// ScaleBoundingBox scales by the diagonal of the usable points' bounding box.
	// Suits side-on poses where the shoulders overlap.
	ScaleBoundingBox ScaleMethod = "bbox"
)

// Keypoint is a named 2D landmark with its detection confidence.
type Keypoint struct {
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Vec returns the keypoint position as a vector.
func (k Keypoint) Vec() geometry.Vec2 {
	return geometry.Vec2{X: k.X, Y: k.Y}
}

// IsUsable reports whether the keypoint is confident enough and has finite coordinates.
func (k Keypoint) IsUsable(threshold float64) bool {
	return k.Confidence > threshold && !math.IsNaN(k.Confidence) && k.Vec().IsFinite()
}

// Pose is one detected body: an ordered set of keypoints.
type Pose struct {
	Keypoints []Keypoint `json:"keypoints"`
	Score     float64    `json:"score"`
	// Normalized is set once the coordinates are in the body-relative frame.
	Normalized bool `json:"normalized"`
	// Anchor names the point pair the frame was centred on, as "a/b".
	// Empty unless Normalized.
	Anchor string `json:"anchor,omitempty"`
}

// NewPose copies the given keypoints into a new Pose.
// The caller's slice is never retained.
func NewPose(keypoints []Keypoint) *Pose {
	kps := make([]Keypoint, len(keypoints))
	copy(kps, keypoints)
	return &Pose{Keypoints: kps}
}

// Clone returns a deep copy of the pose.
func (p *Pose) Clone() *Pose {
	if p == nil {
		return nil
	}
	c := NewPose(p.Keypoints)
	c.Score = p.Score
	c.Normalized = p.Normalized
	c.Anchor = p.Anchor
	return c
}

// Find returns the first keypoint with the given name.
func (p *Pose) Find(name string) (Keypoint, bool) {
	if p == nil {
		return Keypoint{}, false
	}
	for _, k := range p.Keypoints {
		if k.Name == name {
			return k, true
		}
	}
	return Keypoint{}, false
}

// Usable returns the named keypoint only if it is present and usable.
func (p *Pose) Usable(name string, threshold float64) (Keypoint, bool) {
	k, ok := p.Find(name)
	if !ok || !k.IsUsable(threshold) {
		return Keypoint{}, false
	}
	return k, true
}

// UsableCount returns how many keypoints pass the visibility threshold.
func (p *Pose) UsableCount(threshold float64) int {
	if p == nil {
		return 0
	}
	n := 0
	for _, k := range p.Keypoints {
		if k.IsUsable(threshold) {
			n++
		}
	}
	return n
}

// JointAngle measures the angle at points[1] formed with points[0] and points[2].
// ok is false if any of the three points is missing, unusable, or the rays are degenerate.
func (p *Pose) JointAngle(points [3]string, threshold float64) (float64, bool) {
	var v [3]geometry.Vec2
	for i, name := range points {
		k, ok := p.Usable(name, threshold)
		if !ok {
			return 0, false
		}
		v[i] = k.Vec()
	}
	return geometry.AngleAt(v[0], v[1], v[2])
}

// Normalize returns a copy of the pose translated so that the midpoint of the first
// usable anchor pair is the origin, and scaled by the body-scale reference chosen by
// method. If no anchor pair is usable, or the scale is zero, an unchanged copy is
// returned with Normalized left false.
func (p *Pose) Normalize(method ScaleMethod, threshold float64) *Pose {
	if p == nil {
		return nil
	}

	normalized := p.Clone()

	for _, pair := range AnchorPairs {
		a, okA := p.Usable(pair[0], threshold)
		b, okB := p.Usable(pair[1], threshold)
		if !okA || !okB {
			continue
		}

		origin := geometry.Midpoint(a.Vec(), b.Vec())
		scale := geometry.Distance(a.Vec(), b.Vec())
		if method == ScaleBoundingBox {
			scale = p.boundingDiagonal(threshold)
		}

		// Avoid division by zero
		if scale < minScale || math.IsNaN(scale) {
			continue
		}

		for i, k := range normalized.Keypoints {
			v := k.Vec().Sub(origin).Scale(1 / scale)
			normalized.Keypoints[i].X = v.X
			normalized.Keypoints[i].Y = v.Y
		}
		normalized.Normalized = true
		normalized.Anchor = pair[0] + "/" + pair[1]
		return normalized
	}

	return normalized
}

// boundingDiagonal returns the diagonal length of the box around all usable keypoints.
func (p *Pose) boundingDiagonal(threshold float64) float64 {
	points := make([]geometry.Vec2, 0, len(p.Keypoints))
	for _, k := range p.Keypoints {
		if k.IsUsable(threshold) {
			points = append(points, k.Vec())
		}
	}
	lo, hi, ok := geometry.BoundingBox(points)
	if !ok {
		return 0
	}
	return geometry.Distance(lo, hi)
}
