package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/ffbridge/internal/skeleton"
	"github.com/ayusman/ffbridge/internal/store"
)

// SamplesHandler handles HTTP requests for pose samples and training.
type SamplesHandler struct {
	store *store.Store
}

// NewSamplesHandler creates a new SamplesHandler with the given store.
func NewSamplesHandler(s *store.Store) *SamplesHandler {
	return &SamplesHandler{store: s}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/poses/{id}/samples and /api/poses/{id}/train
func (h *SamplesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/poses/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	poseID := parts[0]

	switch parts[1] {
	case "samples":
		switch r.Method {
		case http.MethodGet:
			h.list(w, r, poseID)
		case http.MethodPost:
			h.create(w, r, poseID)
		case http.MethodDelete:
			h.clear(w, r, poseID)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "train":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.train(w, r, poseID)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// Request types

type createSamplesRequest struct {
	Samples []skeleton.Pose `json:"samples"`
}

// Response types

type sampleResponse struct {
	ID          int64         `json:"id"`
	PoseID      string        `json:"pose_id"`
	SampleIndex int           `json:"sample_index"`
	Pose        skeleton.Pose `json:"pose"`
	CreatedAt   string        `json:"created_at"`
}

type listSamplesResponse struct {
	Samples []sampleResponse `json:"samples"`
}

// list handles GET /api/poses/{id}/samples
func (h *SamplesHandler) list(w http.ResponseWriter, r *http.Request, poseID string) {
	samples, err := h.store.Samples().GetByPoseID(poseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}

	response := listSamplesResponse{
		Samples: make([]sampleResponse, 0, len(samples)),
	}

	for _, s := range samples {
		response.Samples = append(response.Samples, sampleResponse{
			ID:          s.ID,
			PoseID:      s.PoseID,
			SampleIndex: s.SampleIndex,
			Pose:        s.Pose,
			CreatedAt:   s.CreatedAt.Format(timeFormat),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/poses/{id}/samples
func (h *SamplesHandler) create(w http.ResponseWriter, r *http.Request, poseID string) {
	if _, err := h.store.Poses().GetByID(poseID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Pose not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to verify pose")
		return
	}

	var req createSamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "At least one sample is required")
		return
	}

	if err := h.store.Samples().Create(poseID, req.Samples); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save samples")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"status": "ok", "samples": len(req.Samples)})
}

// clear handles DELETE /api/poses/{id}/samples
func (h *SamplesHandler) clear(w http.ResponseWriter, r *http.Request, poseID string) {
	if err := h.store.Samples().DeleteByPoseID(poseID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete samples")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// train handles POST /api/poses/{id}/train. It averages the recorded samples
// into the pose's bones.
func (h *SamplesHandler) train(w http.ResponseWriter, r *http.Request, poseID string) {
	pose, err := h.store.Poses().GetByID(poseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Pose not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get pose")
		return
	}

	bones, err := h.store.Train(poseID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Training failed: "+err.Error())
		return
	}

	pose, err = h.store.Poses().GetByID(poseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get pose")
		return
	}

	response := toResponse(pose)
	response.Pose = &bones
	writeJSON(w, http.StatusOK, response)
}
