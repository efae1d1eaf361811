package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/profile"
	"github.com/ayusman/posecoach/internal/scoring"
)

// Practice is one client's scoring stream plus the running totals reported when
// it ends.
type Practice struct {
	ID      string
	PoseID  string
	Started time.Time

	session *scoring.Session

	mu       sync.Mutex
	received int
	scored   int
	sum      float64
	best     int
}

// Summary describes a practice stream.
type Summary struct {
	ID             string  `json:"id"`
	PoseID         string  `json:"pose_id"`
	FramesReceived int     `json:"frames_received"`
	FramesScored   int     `json:"frames_scored"`
	MeanAccuracy   float64 `json:"mean_accuracy"`
	BestAccuracy   int     `json:"best_accuracy"`
	DurationMS     int64   `json:"duration_ms"`
}

// Submit scores one frame captured at now.
func (p *Practice) Submit(now time.Time, keypoints []detector.Keypoint) scoring.Outcome {
	out := p.session.Process(now, keypoints)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.received++
	if out.Scored() {
		acc := out.Result.OverallAccuracy
		p.scored++
		p.sum += float64(acc)
		if acc > p.best {
			p.best = acc
		}
	}
	return out
}

// Summary reports the totals as of now.
func (p *Practice) Summary(now time.Time) Summary {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Summary{
		ID:             p.ID,
		PoseID:         p.PoseID,
		FramesReceived: p.received,
		FramesScored:   p.scored,
		BestAccuracy:   p.best,
		DurationMS:     now.Sub(p.Started).Milliseconds(),
	}
	if p.scored > 0 {
		s.MeanAccuracy = p.sum / float64(p.scored)
	}
	return s
}

// SessionManager owns the active practice streams.
type SessionManager struct {
	engine func() *scoring.Engine
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Practice
}

// NewSessionManager creates a manager. engine is called for each new stream so
// that library changes apply to streams started afterwards.
func NewSessionManager(engine func() *scoring.Engine) *SessionManager {
	return &SessionManager{
		engine:   engine,
		now:      time.Now,
		sessions: make(map[string]*Practice),
	}
}

// Create starts a stream for poseID. Returns profile.ErrUnknownPose if the pose
// does not resolve.
func (m *SessionManager) Create(poseID string) (*Practice, error) {
	engine := m.engine()
	p, err := engine.Registry().Lookup(poseID)
	if err != nil {
		return nil, err
	}

	practice := &Practice{
		ID:      uuid.New().String(),
		PoseID:  p.ID,
		Started: m.now(),
		session: scoring.NewSession(engine, p.ID),
	}

	m.mu.Lock()
	m.sessions[practice.ID] = practice
	m.mu.Unlock()

	return practice, nil
}

// Get returns an active stream.
func (m *SessionManager) Get(id string) (*Practice, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.sessions[id]
	return p, ok
}

// Submit scores a frame on an active stream at the current time.
func (m *SessionManager) Submit(p *Practice, keypoints []detector.Keypoint) scoring.Outcome {
	return p.Submit(m.now(), keypoints)
}

// Close ends a stream and returns its summary.
func (m *SessionManager) Close(id string) (Summary, bool) {
	m.mu.Lock()
	p, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return Summary{}, false
	}
	return p.Summary(m.now()), true
}

// Len returns the number of active streams.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SessionHandler handles HTTP requests for practice sessions.
type SessionHandler struct {
	manager *SessionManager
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(m *SessionManager) *SessionHandler {
	return &SessionHandler{manager: m}
}

type createSessionRequest struct {
	PoseID string `json:"pose_id"`
}

type sessionResponse struct {
	ID     string `json:"id"`
	PoseID string `json:"pose_id"`
}

// FrameRequest is one frame of keypoints sent by a client.
type FrameRequest struct {
	Keypoints []detector.Keypoint `json:"keypoints"`
}

// ServeHTTP routes /api/sessions, /api/sessions/{id} and /api/sessions/{id}/frames.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.create(w, r)
		return
	}

	id, rest, _ := strings.Cut(path, "/")
	switch {
	case rest == "frames" && r.Method == http.MethodPost:
		h.frame(w, r, id)
	case rest == "" && r.Method == http.MethodGet:
		h.get(w, r, id)
	case rest == "" && r.Method == http.MethodDelete:
		h.close(w, r, id)
	case rest == "" || rest == "frames":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

// create handles POST /api/sessions.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.PoseID == "" {
		writeError(w, http.StatusBadRequest, "pose_id is required")
		return
	}

	p, err := h.manager.Create(req.PoseID)
	if err != nil {
		if errors.Is(err, profile.ErrUnknownPose) {
			writeError(w, http.StatusNotFound, scoring.UnknownPoseMessage)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{ID: p.ID, PoseID: p.PoseID})
}

// frame handles POST /api/sessions/{id}/frames.
func (h *SessionHandler) frame(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := h.manager.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	var req FrameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	writeJSON(w, http.StatusOK, h.manager.Submit(p, req.Keypoints))
}

// get handles GET /api/sessions/{id}.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := h.manager.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	writeJSON(w, http.StatusOK, p.Summary(h.manager.now()))
}

// close handles DELETE /api/sessions/{id}.
func (h *SessionHandler) close(w http.ResponseWriter, r *http.Request, id string) {
	summary, ok := h.manager.Close(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
