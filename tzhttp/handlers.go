package tzhttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ngrash/tzoffset/tzdb"
	"github.com/ngrash/tzoffset/tzrules"
)

// maxTransitions bounds the count parameter of /transitions.
const maxTransitions = 100

// Handler serves the API routes.
type Handler struct {
	db     *tzdb.Database
	logger *zap.Logger
	now    func() time.Time
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// OffsetResponse is returned by /offset.
type OffsetResponse struct {
	Zone    string `json:"zone"`
	At      string `json:"at"`
	Offset  string `json:"offset"`
	Seconds int32  `json:"seconds"`
}

// TransitionDTO describes a transition.
type TransitionDTO struct {
	At     string `json:"at"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// InfoResponse is returned by /info. Offset is set for regular local
// date-times and Transition for gaps and overlaps.
type InfoResponse struct {
	Zone       string         `json:"zone"`
	Local      string         `json:"local"`
	Kind       string         `json:"kind"`
	Offset     string         `json:"offset,omitempty"`
	Transition *TransitionDTO `json:"transition,omitempty"`
}

// InstantResponse is returned by /instant.
type InstantResponse struct {
	Zone    string `json:"zone"`
	Local   string `json:"local"`
	Instant string `json:"instant"`
	Offset  string `json:"offset"`
}

// TransitionsResponse is returned by /transitions.
type TransitionsResponse struct {
	Zone        string          `json:"zone"`
	Transitions []TransitionDTO `json:"transitions"`
}

// errBadRequest marks malformed query parameters.
var errBadRequest = errors.New("bad request")

// Health answers 200 once the store has loaded and 503 if it failed to.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Init(); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListZones writes the sorted ids of all known zones.
func (h *Handler) ListZones(w http.ResponseWriter, r *http.Request) {
	ids, err := h.db.AvailableIDs()
	if err != nil {
		h.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// Offset writes the offset of a zone at an instant, now by default.
func (h *Handler) Offset(w http.ResponseWriter, r *http.Request) {
	zone, err := zoneParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	at, err := h.instantParam(r, "at")
	if err != nil {
		h.writeError(w, err)
		return
	}
	o, err := h.db.OffsetAt(zone, at)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OffsetResponse{
		Zone:    zone,
		At:      at.UTC().Format(time.RFC3339Nano),
		Offset:  o.String(),
		Seconds: int32(o),
	})
}

// Info classifies a local date-time as regular, gap or overlap.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	zone, err := zoneParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	local, err := localParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	info, err := h.db.InfoAt(zone, local)
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := InfoResponse{Zone: zone, Local: local.String()}
	switch info := info.(type) {
	case tzrules.Regular:
		resp.Kind, resp.Offset = "regular", info.Offset().String()
	case tzrules.Gap:
		resp.Kind = "gap"
		resp.Transition = transitionDTO(info.Start(), info.Before(), info.After())
	case tzrules.Overlap:
		resp.Kind = "overlap"
		resp.Transition = transitionDTO(info.Start(), info.Before(), info.After())
	}
	writeJSON(w, http.StatusOK, resp)
}

// Instant resolves a local date-time to an instant.
func (h *Handler) Instant(w http.ResponseWriter, r *http.Request) {
	zone, err := zoneParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	local, err := localParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var preferred *tzrules.Offset
	if s := r.URL.Query().Get("prefer"); s != "" {
		o, err := tzrules.ParseOffset(s)
		if err != nil {
			h.writeError(w, fmt.Errorf("%w: prefer: %v", errBadRequest, err))
			return
		}
		preferred = &o
	}
	t, err := h.db.AtLocal(zone, local, preferred)
	if err != nil {
		h.writeError(w, err)
		return
	}
	_, off := t.Zone()
	writeJSON(w, http.StatusOK, InstantResponse{
		Zone:    zone,
		Local:   local.String(),
		Instant: t.Format(time.RFC3339Nano),
		Offset:  tzrules.Offset(off).String(),
	})
}

// Transitions lists the upcoming transitions of a zone.
func (h *Handler) Transitions(w http.ResponseWriter, r *http.Request) {
	zone, err := zoneParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	from, err := h.instantParam(r, "from")
	if err != nil {
		h.writeError(w, err)
		return
	}
	count := 10
	if s := r.URL.Query().Get("count"); s != "" {
		if count, err = strconv.Atoi(s); err != nil || count < 1 || count > maxTransitions {
			h.writeError(w, fmt.Errorf("%w: count must be in 1..%d", errBadRequest, maxTransitions))
			return
		}
	}
	changes, err := h.db.Transitions(zone, from, count)
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := TransitionsResponse{Zone: zone, Transitions: make([]TransitionDTO, len(changes))}
	for i, c := range changes {
		resp.Transitions[i] = *transitionDTO(c.At, c.Before, c.After)
	}
	writeJSON(w, http.StatusOK, resp)
}

func transitionDTO(at time.Time, before, after tzrules.Offset) *TransitionDTO {
	return &TransitionDTO{At: at.UTC().Format(time.RFC3339), Before: before.String(), After: after.String()}
}

func zoneParam(r *http.Request) (string, error) {
	zone := r.URL.Query().Get("zone")
	if zone == "" {
		return "", fmt.Errorf("%w: missing zone", errBadRequest)
	}
	return zone, nil
}

// instantParam parses an RFC 3339 parameter. An omitted parameter is now.
func (h *Handler) instantParam(r *http.Request, name string) (time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return h.now(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", errBadRequest, name, err)
	}
	return t, nil
}

func localParam(r *http.Request) (tzrules.LocalDateTime, error) {
	s := r.URL.Query().Get("local")
	if s == "" {
		return tzrules.LocalDateTime{}, fmt.Errorf("%w: missing local", errBadRequest)
	}
	return tzrules.ParseLocal(s)
}

// statusFor maps lookup errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tzdb.ErrUninitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, tzdb.ErrUnknownZone):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, tzrules.ErrInvalidDateTime),
		errors.Is(err, tzrules.ErrOverflow):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, ErrorResponse{Error: http.StatusText(status), Details: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
