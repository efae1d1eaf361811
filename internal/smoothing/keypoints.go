package smoothing

import (
	"math"

	"github.com/ayusman/posecoach/internal/detector"
)

// Keypoint smoothing defaults.
const (
	DefaultKeypointHistory = 5
	DefaultKeypointDecay   = 0.6
	// DefaultMinSamples is the history length below which frames pass through raw.
	DefaultMinSamples = 3
)

// KeypointSmoother averages each named keypoint over the last few frames,
// weighting recent frames more heavily.
type KeypointSmoother struct {
	history    *Ring[*detector.Pose]
	decay      float64
	minSamples int
	threshold  float64
}

// NewKeypointSmoother creates a smoother keeping capacity frames. Frame i positions
// back from the newest gets weight decay^i. threshold is the visibility threshold
// a historical sample must pass to contribute a position.
func NewKeypointSmoother(capacity int, decay float64, minSamples int, threshold float64) *KeypointSmoother {
	if decay <= 0 || decay > 1 {
		decay = DefaultKeypointDecay
	}
	if minSamples < 1 {
		minSamples = 1
	}
	return &KeypointSmoother{
		history:    NewRing[*detector.Pose](capacity),
		decay:      decay,
		minSamples: minSamples,
		threshold:  threshold,
	}
}

// Smooth records pose and returns a smoothed copy. The input is not modified.
//
// Until minSamples frames are held the copy is returned unchanged. After that each
// keypoint of the current frame is replaced by the exponentially weighted average
// of its usable positions in the history, and its confidence by the highest
// confidence seen for that name in the history.
//
// Frames in a different coordinate space from the history restart the history:
// normalized versus raw, or normalized on a different anchor pair.
func (s *KeypointSmoother) Smooth(pose *detector.Pose) *detector.Pose {
	if pose == nil {
		return nil
	}

	if s.history.Len() > 0 {
		last := s.history.At(s.history.Len() - 1)
		if last.Normalized != pose.Normalized || last.Anchor != pose.Anchor {
			s.history.Clear()
		}
	}

	s.history.Push(pose.Clone())

	out := pose.Clone()
	if s.history.Len() < s.minSamples {
		return out
	}

	frames := s.history.Slice()
	newest := len(frames) - 1

	for i, k := range out.Keypoints {
		var sumX, sumY, sumW float64
		maxConf := k.Confidence

		for age := 0; age <= newest; age++ {
			past, ok := frames[newest-age].Find(k.Name)
			if !ok {
				continue
			}
			if past.Confidence > maxConf {
				maxConf = past.Confidence
			}
			if !past.IsUsable(s.threshold) {
				continue
			}
			w := math.Pow(s.decay, float64(age))
			sumX += past.X * w
			sumY += past.Y * w
			sumW += w
		}

		if sumW > 0 {
			out.Keypoints[i].X = sumX / sumW
			out.Keypoints[i].Y = sumY / sumW
		}
		out.Keypoints[i].Confidence = maxConf
	}

	return out
}

// Len returns the number of frames in the history.
func (s *KeypointSmoother) Len() int {
	return s.history.Len()
}

// Reset discards the history.
func (s *KeypointSmoother) Reset() {
	s.history.Clear()
}
