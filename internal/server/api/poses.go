package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/profile"
	"github.com/ayusman/posecoach/internal/store"
)

// ErrReadOnly is returned by a Catalog that cannot be modified.
var ErrReadOnly = errors.New("pose library is read-only")

// Catalog is the pose library served by the API. Changes made through Save and
// Delete are visible in the next Registry.
type Catalog interface {
	Registry() *profile.Registry
	Save(p *profile.Profile) error
	Delete(id string) error
}

// PoseHandler handles HTTP requests for pose resources.
type PoseHandler struct {
	catalog Catalog
}

// NewPoseHandler creates a new PoseHandler over the given catalog.
func NewPoseHandler(c Catalog) *PoseHandler {
	return &PoseHandler{catalog: c}
}

// ServeHTTP routes /api/poses and /api/poses/{id}.
func (h *PoseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/poses")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.put(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type poseResponse struct {
	*profile.Profile
	Aliases []string `json:"aliases"`
}

type listPosesResponse struct {
	Poses []poseResponse `json:"poses"`
}

func (h *PoseHandler) toResponse(reg *profile.Registry, p *profile.Profile) poseResponse {
	aliases := reg.AliasesOf(p.ID)
	if aliases == nil {
		aliases = []string{}
	}
	return poseResponse{Profile: p, Aliases: aliases}
}

// list handles GET /api/poses.
func (h *PoseHandler) list(w http.ResponseWriter, r *http.Request) {
	reg := h.catalog.Registry()
	poses := reg.List()

	response := listPosesResponse{Poses: make([]poseResponse, 0, len(poses))}
	for _, p := range poses {
		response.Poses = append(response.Poses, h.toResponse(reg, p))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/poses/{id}. Aliases resolve to their pose.
func (h *PoseHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	reg := h.catalog.Registry()
	p, err := reg.Lookup(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Pose not found")
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(reg, p))
}

// put handles PUT /api/poses/{id} and creates or replaces a pose.
func (h *PoseHandler) put(w http.ResponseWriter, r *http.Request, id string) {
	var p profile.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	p.ID = id
	if p.Name == "" {
		p.Name = id
	}
	if p.Normalization == "" {
		p.Normalization = detector.ScaleAnchor
	}
	for i := range p.Joints {
		if p.Joints[i].Weight == 0 {
			p.Joints[i].Weight = 1
		}
	}

	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// An id that already names another pose, directly or as an alias, would
	// make lookups ambiguous.
	if key, ok := h.catalog.Registry().Resolve(id); ok && key != id {
		writeError(w, http.StatusConflict, fmt.Sprintf("%q already refers to pose %q", id, key))
		return
	}

	if err := h.catalog.Save(&p); err != nil {
		switch {
		case errors.Is(err, ErrReadOnly):
			writeError(w, http.StatusMethodNotAllowed, err.Error())
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "Failed to save pose")
		}
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(h.catalog.Registry(), &p))
}

// delete handles DELETE /api/poses/{id}.
func (h *PoseHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.catalog.Delete(id)
	if err != nil {
		switch {
		case errors.Is(err, ErrReadOnly):
			writeError(w, http.StatusMethodNotAllowed, err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Pose not found")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to delete pose")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
