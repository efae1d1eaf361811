package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera produces blank frames of a fixed size. Detection is mocked alongside
// it, so frame content does not matter.
type MockCamera struct {
	width, height int
	limit         int

	mu      sync.Mutex
	running bool
	reads   int
	fps     int
}

// NewMockCamera creates a camera that yields limit frames before returning
// ErrNoFrame. A limit of 0 never runs out.
func NewMockCamera(width, height, limit int) *MockCamera {
	return &MockCamera{width: width, height: height, limit: limit, fps: DefaultFPS}
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}
	if c.limit > 0 && c.reads >= c.limit {
		return nil, ErrNoFrame
	}
	c.reads++

	frame := gocv.NewMatWithSize(c.height, c.width, gocv.MatTypeCV8UC3)
	return &frame, nil
}

func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Reads returns how many frames have been handed out.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}
