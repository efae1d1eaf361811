package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/posecoach/internal/app"
	"github.com/ayusman/posecoach/internal/capture"
	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/scoring"
	"github.com/ayusman/posecoach/internal/server"
	"github.com/ayusman/posecoach/internal/store"
)

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	if _, err := s.Seed(); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	reg, err := s.LoadRegistry()
	if err != nil {
		t.Fatalf("LoadRegistry() error = %v", err)
	}
	cfg := scoring.DefaultConfig()
	cfg.FrameInterval = 0
	engine, err := scoring.NewEngine(reg, cfg)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	srv := server.New(server.Config{Engine: engine, Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	t.Run("HTTPSessionScoresTree", func(t *testing.T) {
		var created struct {
			ID string `json:"id"`
		}
		resp := post(t, client, ts.URL+"/api/sessions", map[string]string{"pose_id": "tree-pose"})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create session status = %d, want %d", resp.StatusCode, http.StatusCreated)
		}
		json.NewDecoder(resp.Body).Decode(&created)
		resp.Body.Close()

		tree := detector.TreePoseKeypoints()
		resp = post(t, client, ts.URL+"/api/sessions/"+created.ID+"/frames", map[string]any{"keypoints": tree.Keypoints})
		var out scoring.Outcome
		json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()

		if !out.Scored() || out.Result.OverallAccuracy != 100 {
			t.Errorf("tree frame outcome = %+v, want scored at 100", out)
		}
	})

	// Local practice shares the server's engine.
	cam := capture.NewMockCamera(640, 480, 0)
	det := detector.NewMockDetector()
	application := app.New(app.Config{Camera: capture.Options{FPS: 30}, PoseID: "warrior-2"}, srv.Engine, cam, det)

	results := make(chan app.Result, 16)
	application.OnResult(func(r app.Result) {
		select {
		case results <- r:
		default:
		}
	})

	t.Run("CameraPracticeScoresWarrior", func(t *testing.T) {
		det.SetPoses([]detector.Pose{detector.WarriorIIKeypoints()})
		if err := application.Start(); err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		r := waitResult(t, results)
		if r.PoseID != "warrior_ii" {
			t.Errorf("PoseID = %q, want warrior_ii", r.PoseID)
		}
		if !r.Outcome.Scored() || r.Outcome.Result.OverallAccuracy != 100 {
			t.Errorf("warrior outcome = %+v, want scored at 100", r.Outcome)
		}
	})

	t.Run("NewPoseFromLibrary", func(t *testing.T) {
		body := `{"name":"Goddess","joints":[{"name":"left_knee","points":["left_hip","left_knee","left_ankle"],"target_angle":90,"tolerance":15,"feedback":"Sink lower"}]}`
		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/poses/goddess", strings.NewReader(body))
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("PUT error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("PUT status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		if err := application.SetPose("goddess"); err != nil {
			t.Fatalf("SetPose(goddess) error = %v", err)
		}
		det.SetPoses([]detector.Pose{detector.MountainPoseKeypoints()})

		// Drain results scored before the switch.
		deadline := time.After(2 * time.Second)
		for {
			select {
			case r := <-results:
				if r.PoseID != "goddess" {
					continue
				}
				if !r.Outcome.Scored() {
					t.Fatalf("goddess outcome kind = %v, want scored", r.Outcome.Kind)
				}
				if r.Outcome.Result.OverallAccuracy >= 85 {
					t.Errorf("straight legs scored %d on goddess, want below 85", r.Outcome.Result.OverallAccuracy)
				}
				if !contains(r.Outcome.Result.Feedback, "Sink lower") {
					t.Errorf("feedback %v should ask to sink lower", r.Outcome.Result.Feedback)
				}
				return
			case <-deadline:
				t.Fatal("no goddess result within 2s")
			}
		}
	})

	application.Stop()

	t.Run("HealthReportsLibrary", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("health error = %v", err)
		}
		defer resp.Body.Close()

		var health struct {
			Poses int `json:"poses"`
		}
		json.NewDecoder(resp.Body).Decode(&health)
		if health.Poses != 8 {
			t.Errorf("poses = %d, want 8", health.Poses)
		}
	})
}

func post(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	return resp
}

func waitResult(t *testing.T, results <-chan app.Result) app.Result {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no result within 2s")
		return app.Result{}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
