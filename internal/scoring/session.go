package scoring

import (
	"sync"
	"time"

	"github.com/ayusman/posecoach/internal/detector"
)

// Throttle admits at most one event per interval.
type Throttle struct {
	interval time.Duration
	last     time.Time
}

// NewThrottle creates a throttle. A zero interval admits every event.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Allow reports whether an event at now is admitted, and records it if so.
func (t *Throttle) Allow(now time.Time) bool {
	if t.interval <= 0 {
		return true
	}
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}

// Reset forgets the last admitted event.
func (t *Throttle) Reset() {
	t.last = time.Time{}
}

// Session is one practice stream for a single pose. It is safe for concurrent use;
// frames are processed one at a time.
type Session struct {
	mu       sync.Mutex
	engine   *Engine
	state    *State
	poseID   string
	throttle *Throttle
}

// NewSession starts a stream for poseID on engine.
func NewSession(engine *Engine, poseID string) *Session {
	return &Session{
		engine:   engine,
		state:    engine.NewState(),
		poseID:   poseID,
		throttle: NewThrottle(engine.cfg.FrameInterval),
	}
}

// PoseID returns the pose identifier the session was started with.
func (s *Session) PoseID() string {
	return s.poseID
}

// Process scores a frame captured at now. Frames arriving within the frame
// interval of the last processed frame return OutcomeSkipped.
func (s *Session) Process(now time.Time, keypoints []detector.Keypoint) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.throttle.Allow(now) {
		return Outcome{Kind: OutcomeSkipped}
	}
	return s.engine.Score(s.state, s.poseID, keypoints)
}

// Reset discards the session history.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Reset()
	s.throttle.Reset()
}
