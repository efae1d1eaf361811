package detector

import "gocv.io/x/gocv"

// Detector defines the interface for body pose detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the detected bodies.
	// Returns an empty slice if nobody is visible.
	Detect(frame *gocv.Mat) ([]Pose, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// MaxPoses is the maximum number of bodies to detect (default: 1).
	MaxPoses int `yaml:"max_poses"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `yaml:"min_confidence"`

	// Script is the path to the MediaPipe pose service. Empty means search the usual locations.
	Script string `yaml:"script"`

	// Python is the interpreter used to run Script. Empty means look for a venv, then python3.
	Python string `yaml:"python"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxPoses:      1,
		MinConfidence: 0.5,
	}
}
