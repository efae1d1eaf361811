// Package app runs live practice from a local camera: frames are read at the
// scoring rate, passed through pose detection and scored against the selected pose.
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/posecoach/internal/capture"
	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/scoring"
)

// ErrNoPose is returned by Start when no pose has been selected.
var ErrNoPose = errors.New("no pose selected")

// Result is one scored camera frame.
type Result struct {
	PoseID  string
	At      time.Time
	Outcome scoring.Outcome
}

// Config holds configuration options for the application.
type Config struct {
	Camera capture.Options
	// PoseID is the pose practiced at start. It can be changed with SetPose.
	PoseID string
}

// App ties a camera and a detector to a scoring session.
type App struct {
	config   Config
	engine   func() *scoring.Engine
	camera   capture.Camera
	detector detector.Detector
	now      func() time.Time

	mu       sync.RWMutex
	enabled  bool
	session  *scoring.Session
	onResult func(Result)
	stopCh   chan struct{}
	done     chan struct{}
}

// New creates an App. engine is consulted whenever a session starts, so edits to
// the pose library apply from the next pose selection.
func New(config Config, engine func() *scoring.Engine, cam capture.Camera, det detector.Detector) *App {
	return &App{
		config:   config,
		engine:   engine,
		camera:   cam,
		detector: det,
		now:      time.Now,
		enabled:  true,
	}
}

// SetEnabled pauses or resumes scoring without releasing the camera.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
	if !enabled && a.session != nil {
		a.session.Reset()
	}
}

// IsEnabled returns whether frames are being scored.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// OnResult registers a callback for every scored frame. It runs on the pipeline
// goroutine and must not block.
func (a *App) OnResult(fn func(Result)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onResult = fn
}

// SetPose selects the pose to practice and starts a fresh session for it.
func (a *App) SetPose(id string) error {
	engine := a.engine()
	p, err := engine.Registry().Lookup(id)
	if err != nil {
		return fmt.Errorf("select pose %q: %w", id, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.config.PoseID = p.ID
	a.session = scoring.NewSession(engine, p.ID)
	log.Printf("Practicing %s", p.Name)
	return nil
}

// PoseID returns the pose being practiced.
func (a *App) PoseID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config.PoseID
}

// Start opens the camera and begins the pipeline.
func (a *App) Start() error {
	a.mu.RLock()
	running := a.stopCh != nil
	hasSession := a.session != nil
	poseID := a.config.PoseID
	a.mu.RUnlock()

	if running {
		return nil
	}
	if !hasSession {
		if poseID == "" {
			return ErrNoPose
		}
		if err := a.SetPose(poseID); err != nil {
			return err
		}
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(a.config.Camera.FPS)

	a.mu.Lock()
	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)
	a.mu.Unlock()

	log.Println("Practice pipeline started")
	return nil
}

// Stop halts the pipeline and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Practice pipeline stopped")
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the pose detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}
