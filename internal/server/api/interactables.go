package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/ffbridge/internal/hands"
	"github.com/ayusman/ffbridge/internal/skeleton"
	"github.com/ayusman/ffbridge/internal/store"
)

// InteractablesHandler manages interactable registration and hover events.
type InteractablesHandler struct {
	coord    *hands.Coordinator
	dispatch Dispatcher
	store    *store.Store
}

// NewInteractablesHandler creates an InteractablesHandler. The store is
// optional and only needed to register interactables by stored pose name.
func NewInteractablesHandler(c *hands.Coordinator, d Dispatcher, s *store.Store) *InteractablesHandler {
	return &InteractablesHandler{coord: c, dispatch: d, store: s}
}

// ServeHTTP routes /api/interactables, /api/interactables/{id} and
// /api/interactables/{id}/hover/{side}.
func (h *InteractablesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/interactables")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.register(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, parts[0])
		case http.MethodDelete:
			h.unregister(w, r, parts[0])
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 3 && parts[1] == "hover":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		side, err := skeleton.ParseSide(parts[2])
		if err != nil {
			writeError(w, http.StatusNotFound, "Unknown hand")
			return
		}
		serveEvent(w, r, h.coord, h.dispatch, hands.Event{
			Kind:           hands.EventHoverInteractable,
			Side:           side,
			InteractableID: parts[0],
		})
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// Request and response types

type registerInteractableRequest struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Pose     *skeleton.Pose `json:"pose"`
	PoseName string         `json:"pose_name"`
}

type interactableResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type listInteractablesResponse struct {
	Interactables []interactableResponse `json:"interactables"`
}

func (h *InteractablesHandler) list(w http.ResponseWriter, r *http.Request) {
	its := h.coord.Interactables()
	response := listInteractablesResponse{
		Interactables: make([]interactableResponse, 0, len(its)),
	}
	for _, it := range its {
		response.Interactables = append(response.Interactables, interactableResponse{ID: it.ID, Name: it.Name})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *InteractablesHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	it, ok := h.coord.Interactable(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Interactable not found")
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// register handles POST /api/interactables. The pose is either given inline
// or taken from the store by pose_name.
func (h *InteractablesHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerInteractableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var pose skeleton.Pose
	switch {
	case req.Pose != nil:
		pose = *req.Pose
	case req.PoseName != "":
		if h.store == nil {
			writeError(w, http.StatusBadRequest, "Pose store not configured")
			return
		}
		_, bones, err := h.store.Poses().LoadByName(req.PoseName)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Pose not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to load pose")
			return
		}
		pose = bones
	default:
		writeError(w, http.StatusBadRequest, "Pose or pose_name is required")
		return
	}

	name := req.Name
	if name == "" {
		name = req.PoseName
	}
	id := h.coord.Register(hands.Interactable{ID: req.ID, Name: name, Pose: pose})
	writeJSON(w, http.StatusCreated, interactableResponse{ID: id, Name: name})
}

func (h *InteractablesHandler) unregister(w http.ResponseWriter, r *http.Request, id string) {
	if !h.coord.Unregister(id) {
		writeError(w, http.StatusNotFound, "Interactable not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
