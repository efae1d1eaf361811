package scoring

import (
	"math"

	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/profile"
)

// JointScore is the measurement of one joint check in a frame.
type JointScore struct {
	Name     string
	Measured bool
	Angle    float64
	Score    float64
	Weight   float64
	Feedback string
}

// Aggregation combines the joint scores of one frame into an overall accuracy.
type Aggregation struct {
	Joints []JointScore

	// Raw is the weighted mean of measured joint scores, 0 when none were measured.
	Raw float64
	// Visibility is the share of the profile's keypoints that are usable.
	Visibility float64
	// Baseline is the confidence-only estimate. Unmeasured joints are credited
	// with it, up to the falloff floor.
	Baseline float64
	// Trust is the share of joints measured.
	Trust float64

	Measured int
	// Accuracy is the blended score scaled to [MinFloor, 100], unrounded.
	Accuracy float64
}

// Aggregate scores every joint check of p against pose.
func Aggregate(p *profile.Profile, pose *detector.Pose, cfg Config) Aggregation {
	agg := Aggregation{Joints: make([]JointScore, 0, len(p.Joints))}

	var sumScore, sumWeight, totalWeight float64
	for _, j := range p.Joints {
		js := JointScore{Name: j.Name, Weight: j.Weight, Feedback: j.Feedback}
		totalWeight += j.Weight

		if angle, ok := pose.JointAngle(j.Points, cfg.VisibilityThreshold); ok {
			js.Measured = true
			js.Angle = angle
			js.Score = ToleranceScore(angle, j.TargetAngle, j.Tolerance, cfg.FalloffK, cfg.FalloffFloor)
			sumScore += js.Score * j.Weight
			sumWeight += j.Weight
			agg.Measured++
		}

		agg.Joints = append(agg.Joints, js)
	}

	if sumWeight > 0 {
		agg.Raw = sumScore / sumWeight
	}
	if len(p.Joints) > 0 {
		agg.Trust = float64(agg.Measured) / float64(len(p.Joints))
	}

	// Clipped confidences are summed over every expected point, so losing a
	// point can only lower the baseline.
	names := p.KeypointNames()
	var usable int
	var sumConf float64
	for _, name := range names {
		if k, ok := pose.Usable(name, cfg.VisibilityThreshold); ok {
			usable++
			sumConf += math.Min(k.Confidence, 1)
		}
	}
	if len(names) > 0 {
		agg.Visibility = float64(usable) / float64(len(names))
		agg.Baseline = sumConf / float64(len(names)) * cfg.BaselineCeiling
	}

	// An unmeasured joint is credited no more than the lowest score a measured
	// joint can get, so a missing keypoint never raises the result.
	var blended float64
	if totalWeight > 0 {
		unmeasured := math.Min(agg.Baseline, cfg.FalloffFloor)
		blended = (sumScore + unmeasured*(totalWeight-sumWeight)) / totalWeight
	}
	agg.Accuracy = clamp(cfg.MinFloor+blended*(100-cfg.MinFloor), cfg.MinFloor, 100)

	return agg
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
