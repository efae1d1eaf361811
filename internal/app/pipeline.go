package app

import (
	"log"
	"time"

	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/scoring"
)

// runPipeline reads frames at the camera rate until stopCh closes. Each frame is
// passed to step; the session's throttle drops frames that arrive too soon.
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	fps := a.camera.FPS()
	if fps <= 0 {
		fps = 1
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			a.step()
		}
	}
}

// step reads, detects and scores a single frame. It reports whether a result
// was delivered.
func (a *App) step() bool {
	a.mu.RLock()
	enabled, session, onResult := a.enabled, a.session, a.onResult
	a.mu.RUnlock()

	if !enabled || session == nil {
		return false
	}

	frame, err := a.camera.ReadFrame()
	if err != nil {
		log.Printf("Error reading frame: %v", err)
		return false
	}

	poses, err := a.detector.Detect(frame)
	frame.Close()
	if err != nil {
		log.Printf("Error detecting pose: %v", err)
		return false
	}

	now := a.now()
	out := session.Process(now, primary(poses))
	if out.Kind == scoring.OutcomeSkipped {
		return false
	}

	if onResult != nil {
		onResult(Result{PoseID: session.PoseID(), At: now, Outcome: out})
	}
	return true
}

// primary returns the keypoints of the most confident detected body, or nil when
// nobody is visible.
func primary(poses []detector.Pose) []detector.Keypoint {
	var best *detector.Pose
	for i := range poses {
		if best == nil || poses[i].Score > best.Score {
			best = &poses[i]
		}
	}
	if best == nil {
		return nil
	}
	return best.Keypoints
}
