// Package api provides HTTP API handlers for the force feedback bridge.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/ffbridge/internal/skeleton"
	"github.com/ayusman/ffbridge/internal/store"
)

const timeFormat = "2006-01-02T15:04:05Z07:00"

// PoseHandler handles HTTP requests for pose resources.
type PoseHandler struct {
	store *store.Store
}

// NewPoseHandler creates a new PoseHandler with the given store.
func NewPoseHandler(s *store.Store) *PoseHandler {
	return &PoseHandler{store: s}
}

// ServeHTTP routes /api/poses and /api/poses/{id}.
func (h *PoseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/poses")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type createPoseRequest struct {
	Name        string         `json:"name"`
	Kind        string         `json:"kind"`
	Description string         `json:"description"`
	Pose        *skeleton.Pose `json:"pose"`
}

type updatePoseRequest struct {
	Name        string         `json:"name"`
	Kind        string         `json:"kind"`
	Description *string        `json:"description"`
	Pose        *skeleton.Pose `json:"pose"`
}

type poseResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Kind        string         `json:"kind"`
	Description string         `json:"description"`
	Samples     int            `json:"samples"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
	Pose        *skeleton.Pose `json:"pose,omitempty"`
}

type listPosesResponse struct {
	Poses []poseResponse `json:"poses"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.Pose to a poseResponse.
func toResponse(p *store.Pose) poseResponse {
	return poseResponse{
		ID:          p.ID,
		Name:        p.Name,
		Kind:        string(p.Kind),
		Description: p.Description,
		Samples:     p.Samples,
		CreatedAt:   p.CreatedAt.Format(timeFormat),
		UpdatedAt:   p.UpdatedAt.Format(timeFormat),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/poses, optionally filtered with ?kind=.
func (h *PoseHandler) list(w http.ResponseWriter, r *http.Request) {
	kind := store.PoseKind(r.URL.Query().Get("kind"))
	if kind != "" && !kind.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid pose kind")
		return
	}

	poses, err := h.store.Poses().List(kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list poses")
		return
	}

	response := listPosesResponse{
		Poses: make([]poseResponse, 0, len(poses)),
	}
	for _, p := range poses {
		response.Poses = append(response.Poses, toResponse(p))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/poses/{id} and returns the pose with its bones.
func (h *PoseHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	pose, err := h.store.Poses().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Pose not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get pose")
		return
	}

	bones, err := h.store.Poses().GetBones(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get pose bones")
		return
	}

	response := toResponse(pose)
	response.Pose = &bones
	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/poses and creates a new pose.
func (h *PoseHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createPoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	kind := store.PoseKind(req.Kind)
	if kind == "" {
		kind = store.PoseKindReference
	}
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid pose kind")
		return
	}

	if _, err := h.store.Poses().GetByName(req.Name); err == nil {
		writeError(w, http.StatusConflict, "Pose name already exists")
		return
	}

	pose := &store.Pose{
		Name:        req.Name,
		Kind:        kind,
		Description: req.Description,
	}
	if err := h.store.Poses().Create(pose); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create pose")
		return
	}

	response := toResponse(pose)
	if req.Pose != nil {
		if err := h.store.Poses().SetBones(pose.ID, *req.Pose); err != nil {
			h.store.Poses().Delete(pose.ID)
			writeError(w, http.StatusBadRequest, "Invalid pose: "+err.Error())
			return
		}
		response.Pose = req.Pose
	}

	writeJSON(w, http.StatusCreated, response)
}

// update handles PUT /api/poses/{id} and updates an existing pose.
func (h *PoseHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	pose, err := h.store.Poses().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Pose not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get pose")
		return
	}

	var req updatePoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != "" {
		pose.Name = req.Name
	}
	if req.Kind != "" {
		kind := store.PoseKind(req.Kind)
		if !kind.Valid() {
			writeError(w, http.StatusBadRequest, "Invalid pose kind")
			return
		}
		pose.Kind = kind
	}
	if req.Description != nil {
		pose.Description = *req.Description
	}

	if req.Pose != nil {
		if err := h.store.Poses().SetBones(id, *req.Pose); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid pose: "+err.Error())
			return
		}
	}

	if err := h.store.Poses().Update(pose); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update pose")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(pose))
}

// delete handles DELETE /api/poses/{id} and removes a pose.
func (h *PoseHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Poses().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Pose not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete pose")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
