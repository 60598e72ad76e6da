package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/ffbridge/internal/curl"
	"github.com/ayusman/ffbridge/internal/hands"
	"github.com/ayusman/ffbridge/internal/skeleton"
)

// Dispatcher runs an event on the coordinator's event loop.
// *hands.Queue implements it.
type Dispatcher interface {
	Submit(ctx context.Context, ev hands.Event) (hands.Result, error)
}

// HandsHandler handles per-hand force feedback requests.
type HandsHandler struct {
	coord    *hands.Coordinator
	dispatch Dispatcher
}

// NewHandsHandler creates a HandsHandler. A nil dispatcher handles events
// directly on the request goroutine.
func NewHandsHandler(c *hands.Coordinator, d Dispatcher) *HandsHandler {
	return &HandsHandler{coord: c, dispatch: d}
}

// ServeHTTP routes /api/hands and /api/hands/{side}/{action}.
func (h *HandsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/hands")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, handsResponse{Hands: h.coord.Status()})
		return
	}

	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	side, err := skeleton.ParseSide(parts[0])
	if err != nil {
		writeError(w, http.StatusNotFound, "Unknown hand")
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ev := hands.Event{Side: side}
	switch parts[1] {
	case "pose":
		var req poseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		ev.Kind = hands.EventPose
		ev.Pose = req.Rotations
	case "hover":
		var req poseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		ev.Kind = hands.EventHoverBegin
		ev.Pose = req.Rotations
	case "curl":
		var report curl.Report
		if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		ev.Kind = hands.EventCurl
		ev.Report = report
	case "relax":
		ev.Kind = hands.EventRelax
	case "hover-end":
		var req hoverEndRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid JSON")
				return
			}
		}
		ev.Kind = hands.EventHoverEnd
		ev.Holding = req.Holding
	default:
		writeError(w, http.StatusNotFound, "Unknown action")
		return
	}

	serveEvent(w, r, h.coord, h.dispatch, ev)
}

// Request and response types

type poseRequest struct {
	Rotations skeleton.JointRotationSet `json:"rotations"`
}

type hoverEndRequest struct {
	Holding bool `json:"holding"`
}

type handsResponse struct {
	Hands []hands.HandStatus `json:"hands"`
}

type resultResponse struct {
	Hand   skeleton.Side `json:"hand"`
	Report curl.Report   `json:"report"`
	Sent   bool          `json:"sent"`
}

// serveEvent runs ev and writes its result.
func serveEvent(w http.ResponseWriter, r *http.Request, c *hands.Coordinator, d Dispatcher, ev hands.Event) {
	var res hands.Result
	if d != nil {
		var err error
		res, err = d.Submit(r.Context(), ev)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "Coordinator unavailable")
			return
		}
	} else {
		res = c.Handle(ev)
	}

	if res.Err != nil {
		writeError(w, statusForError(res.Err), res.Err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resultResponse{Hand: ev.Side, Report: res.Report, Sent: res.Sent})
}

// statusForError maps coordinator errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, curl.ErrEmptySet),
		errors.Is(err, curl.ErrLengthMismatch),
		errors.Is(err, curl.ErrMalformedRotation),
		errors.Is(err, hands.ErrInvalidSide):
		return http.StatusBadRequest
	case errors.Is(err, hands.ErrUnknownInteractable):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
