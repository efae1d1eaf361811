// Package profile holds the reference pose definitions the scoring engine measures against.
package profile

import (
	"errors"
	"fmt"
	"math"

	"github.com/ayusman/posecoach/internal/detector"
)

// ErrUnknownPose is returned when a pose identifier resolves to no profile.
var ErrUnknownPose = errors.New("unknown pose type")

// JointCheck is a single three-point angle measurement of a pose.
type JointCheck struct {
	Name        string    `json:"name"`
	Points      [3]string `json:"points"` // Points[1] is the vertex
	TargetAngle float64   `json:"target_angle"`
	Tolerance   float64   `json:"tolerance"`
	Weight      float64   `json:"weight"`
	Feedback    string    `json:"feedback"`
}

// Profile describes a reference pose as an ordered list of joint checks.
// Profiles are shared by every session and must not be modified once registered.
type Profile struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Description   string               `json:"description,omitempty"`
	Normalization detector.ScaleMethod `json:"normalization"`
	Joints        []JointCheck         `json:"joints"`
}

// KeypointNames returns the distinct keypoint names referenced by the profile's
// joint checks, in first-use order.
func (p *Profile) KeypointNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, j := range p.Joints {
		for _, name := range j.Points {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// Validate checks that the profile can be scored.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return errors.New("profile id is required")
	}

	switch p.Normalization {
	case detector.ScaleAnchor, detector.ScaleBoundingBox:
	default:
		return fmt.Errorf("profile %s: invalid normalization %q", p.ID, p.Normalization)
	}

	if len(p.Joints) == 0 {
		return fmt.Errorf("profile %s: no joint checks", p.ID)
	}

	names := make(map[string]bool, len(p.Joints))
	for i, j := range p.Joints {
		if j.Name == "" {
			return fmt.Errorf("profile %s: joint %d has no name", p.ID, i)
		}
		if names[j.Name] {
			return fmt.Errorf("profile %s: duplicate joint %q", p.ID, j.Name)
		}
		names[j.Name] = true

		for _, point := range j.Points {
			if point == "" {
				return fmt.Errorf("profile %s: joint %s has an empty point", p.ID, j.Name)
			}
		}
		if j.Points[0] == j.Points[1] || j.Points[1] == j.Points[2] {
			return fmt.Errorf("profile %s: joint %s vertex repeats a ray point", p.ID, j.Name)
		}
		if !inRange(j.TargetAngle, 0, 180) {
			return fmt.Errorf("profile %s: joint %s target %v outside [0, 180]", p.ID, j.Name, j.TargetAngle)
		}
		if !inRange(j.Tolerance, 0, 180) || j.Tolerance == 0 {
			return fmt.Errorf("profile %s: joint %s tolerance must be in (0, 180]", p.ID, j.Name)
		}
		if !(j.Weight > 0) || math.IsInf(j.Weight, 0) {
			return fmt.Errorf("profile %s: joint %s weight must be positive", p.ID, j.Name)
		}
	}

	return nil
}

func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
