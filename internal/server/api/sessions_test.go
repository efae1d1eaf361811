package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/profile"
	"github.com/ayusman/posecoach/internal/scoring"
)

func testEngine(t *testing.T, interval time.Duration) *scoring.Engine {
	t.Helper()

	reg, err := profile.Default()
	if err != nil {
		t.Fatalf("profile.Default() error = %v", err)
	}
	cfg := scoring.DefaultConfig()
	cfg.FrameInterval = interval
	e, err := scoring.NewEngine(reg, cfg)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

// fakeClock advances by step on every call.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func TestSessionManager_Summary(t *testing.T) {
	engine := testEngine(t, 100*time.Millisecond)
	m := NewSessionManager(func() *scoring.Engine { return engine })
	clock := &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), step: 60 * time.Millisecond}
	m.now = clock.Now

	p, err := m.Create("mountain-pose")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.PoseID != "mountain" {
		t.Errorf("PoseID = %q, want mountain", p.PoseID)
	}

	pose := detector.MountainPoseKeypoints()
	var kinds []scoring.OutcomeKind
	for i := 0; i < 4; i++ {
		kinds = append(kinds, m.Submit(p, pose.Keypoints).Kind)
	}

	// Frames arrive every 60ms against a 100ms interval
	want := []scoring.OutcomeKind{scoring.OutcomeScored, scoring.OutcomeSkipped, scoring.OutcomeScored, scoring.OutcomeSkipped}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("frame %d kind = %v, want %v", i, kinds[i], want[i])
		}
	}

	summary, ok := m.Close(p.ID)
	if !ok {
		t.Fatal("Close() should find the session")
	}
	if summary.FramesReceived != 4 || summary.FramesScored != 2 {
		t.Errorf("frames received/scored = %d/%d, want 4/2", summary.FramesReceived, summary.FramesScored)
	}
	if summary.MeanAccuracy != 100 || summary.BestAccuracy != 100 {
		t.Errorf("accuracy mean %v best %d, want 100", summary.MeanAccuracy, summary.BestAccuracy)
	}
	if summary.DurationMS != 300 {
		t.Errorf("DurationMS = %d, want 300", summary.DurationMS)
	}

	if _, ok := m.Close(p.ID); ok {
		t.Error("second Close() should not find the session")
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestSessionManager_EmptySummary(t *testing.T) {
	engine := testEngine(t, 0)
	m := NewSessionManager(func() *scoring.Engine { return engine })

	p, err := m.Create("chair")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	s := p.Summary(p.Started)
	if s.MeanAccuracy != 0 || s.FramesScored != 0 {
		t.Errorf("empty summary = %+v", s)
	}
}

func TestSessionManager_LongStreamSummary(t *testing.T) {
	engine := testEngine(t, 0)
	m := NewSessionManager(func() *scoring.Engine { return engine })
	clock := &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), step: 10 * time.Millisecond}
	m.now = clock.Now

	p, err := m.Create("tree")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tree := detector.TreePoseKeypoints()
	mountain := detector.MountainPoseKeypoints()

	const frames = 20000
	var scored, best int
	var sum float64
	for i := 0; i < frames; i++ {
		kps := tree.Keypoints
		if i%7 < 3 {
			kps = mountain.Keypoints
		}
		out := m.Submit(p, kps)
		if out.Scored() {
			acc := out.Result.OverallAccuracy
			scored++
			sum += float64(acc)
			if acc > best {
				best = acc
			}
		}
	}

	s := p.Summary(clock.now)
	if s.FramesReceived != frames || s.FramesScored != scored {
		t.Errorf("frames received/scored = %d/%d, want %d/%d", s.FramesReceived, s.FramesScored, frames, scored)
	}
	if scored == 0 {
		t.Fatal("expected scored frames")
	}
	if want := sum / float64(scored); math.Abs(s.MeanAccuracy-want) > 1e-9 {
		t.Errorf("MeanAccuracy = %v, want %v", s.MeanAccuracy, want)
	}
	if s.BestAccuracy != best {
		t.Errorf("BestAccuracy = %d, want %d", s.BestAccuracy, best)
	}
}

func TestSessionManager_UnknownPose(t *testing.T) {
	engine := testEngine(t, 0)
	m := NewSessionManager(func() *scoring.Engine { return engine })

	if _, err := m.Create("handstand"); !errors.Is(err, profile.ErrUnknownPose) {
		t.Errorf("expected ErrUnknownPose, got %v", err)
	}
}

func TestSessionHandler(t *testing.T) {
	engine := testEngine(t, 0)
	h := NewSessionHandler(NewSessionManager(func() *scoring.Engine { return engine }))

	do := func(method, path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			json.NewEncoder(&buf).Encode(body)
		}
		req := httptest.NewRequest(method, path, &buf)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("create requires pose_id", func(t *testing.T) {
		rec := do(http.MethodPost, "/api/sessions", map[string]string{})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("collection only accepts POST", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/sessions", nil)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		for _, method := range []string{http.MethodGet, http.MethodDelete} {
			rec := do(method, "/api/sessions/nope", nil)
			if rec.Code != http.StatusNotFound {
				t.Errorf("%s status = %d, want %d", method, rec.Code, http.StatusNotFound)
			}
		}
	})

	t.Run("frame and summary", func(t *testing.T) {
		rec := do(http.MethodPost, "/api/sessions", map[string]string{"pose_id": "tree"})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create status = %d", rec.Code)
		}
		var created sessionResponse
		json.NewDecoder(rec.Body).Decode(&created)

		rec = do(http.MethodPost, "/api/sessions/"+created.ID+"/frames", FrameRequest{})
		if rec.Code != http.StatusOK {
			t.Fatalf("frame status = %d", rec.Code)
		}
		var out scoring.Outcome
		json.NewDecoder(rec.Body).Decode(&out)
		if out.Kind != scoring.OutcomeNoDetection {
			t.Errorf("kind = %v, want no_detection", out.Kind)
		}

		rec = do(http.MethodGet, "/api/sessions/"+created.ID, nil)
		var summary Summary
		json.NewDecoder(rec.Body).Decode(&summary)
		if summary.FramesReceived != 1 || summary.PoseID != "tree" {
			t.Errorf("summary = %+v", summary)
		}

		rec = do(http.MethodPut, "/api/sessions/"+created.ID, nil)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("PUT status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}

		rec = do(http.MethodGet, "/api/sessions/"+created.ID+"/bogus", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("unknown subresource status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}
