package server

import (
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/ayusman/posecoach/internal/server/api"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StreamHandler scores keypoint frames sent over a WebSocket. Each text message
// from the client is a FrameRequest and is answered with one outcome.
type StreamHandler struct {
	sessions *api.SessionManager
}

// NewStreamHandler creates a new StreamHandler over the given sessions.
func NewStreamHandler(m *api.SessionManager) *StreamHandler {
	return &StreamHandler{sessions: m}
}

// ServeHTTP handles WebSocket upgrade requests on /api/sessions/{id}/stream.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	id = strings.TrimSuffix(id, "/stream")

	practice, ok := h.sessions.Get(id)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	for {
		var req api.FrameRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("stream %s: read error: %v", id, err)
			}
			return
		}

		out := h.sessions.Submit(practice, req.Keypoints)
		if err := conn.WriteJSON(out); err != nil {
			log.Printf("stream %s: write error: %v", id, err)
			return
		}
	}
}
