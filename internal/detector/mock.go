package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	poses []Pose
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPoses sets the poses that will be returned by Detect.
func (m *MockDetector) SetPoses(poses []Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.poses = poses
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured poses or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Pose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.poses, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// fixtureConfidence is the confidence assigned to every fixture keypoint.
const fixtureConfidence = 0.9

// fixture builds a pose in 640x480 pixel space with the face placed above the shoulders.
// The subject faces the camera, so their left side is on the right of the image.
func fixture(body map[string][2]float64) Pose {
	face := map[string][2]float64{
		Nose:     {320, 60},
		LeftEye:  {330, 50},
		RightEye: {310, 50},
		LeftEar:  {340, 55},
		RightEar: {300, 55},
	}

	p := Pose{Score: fixtureConfidence}
	for _, name := range BodyKeypoints {
		xy, ok := body[name]
		if !ok {
			xy, ok = face[name]
		}
		if !ok {
			continue
		}
		p.Keypoints = append(p.Keypoints, Keypoint{Name: name, X: xy[0], Y: xy[1], Confidence: fixtureConfidence})
	}
	return p
}

// MountainPoseKeypoints returns a standing pose with straight legs and arms by the sides.
func MountainPoseKeypoints() Pose {
	return fixture(map[string][2]float64{
		LeftShoulder:  {350, 120},
		RightShoulder: {290, 120},
		LeftElbow:     {355, 190},
		RightElbow:    {285, 190},
		LeftWrist:     {360, 260},
		RightWrist:    {280, 260},
		LeftHip:       {340, 250},
		RightHip:      {300, 250},
		LeftKnee:      {340, 350},
		RightKnee:     {300, 350},
		LeftAnkle:     {340, 450},
		RightAnkle:    {300, 450},
	})
}

// TreePoseKeypoints returns a tree pose balanced on the left leg, with the right knee
// opened to the side and both arms reaching overhead.
func TreePoseKeypoints() Pose {
	return fixture(map[string][2]float64{
		LeftShoulder:  {350, 120},
		RightShoulder: {290, 120},
		LeftElbow:     {345, 60},
		RightElbow:    {295, 60},
		LeftWrist:     {330, 5},
		RightWrist:    {310, 5},
		LeftHip:       {340, 250},
		RightHip:      {300, 250},
		LeftKnee:      {340, 350},
		RightKnee:     {230, 320},
		LeftAnkle:     {340, 450},
		RightAnkle:    {325, 330},
	})
}

// WarriorIIKeypoints returns a warrior II pose with the left knee bent over the ankle,
// the right leg straight behind, and both arms extended at shoulder height.
func WarriorIIKeypoints() Pose {
	return fixture(map[string][2]float64{
		LeftShoulder:  {355, 130},
		RightShoulder: {300, 130},
		LeftElbow:     {430, 130},
		RightElbow:    {225, 130},
		LeftWrist:     {505, 130},
		RightWrist:    {150, 130},
		LeftHip:       {360, 260},
		RightHip:      {300, 260},
		LeftKnee:      {460, 265},
		RightKnee:     {220, 340},
		LeftAnkle:     {460, 400},
		RightAnkle:    {140, 420},
	})
}
