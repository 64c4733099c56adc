package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/footyodds/stats-api/internal/logic"
)

// Health check endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// Ready check endpoint
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := make(map[string]bool, len(h.checks))
	allHealthy := true
	for name, check := range h.checks {
		err := check(ctx)
		checks[name] = err == nil
		if err != nil {
			allHealthy = false
			h.logger.Warnw("Readiness check failed", "dependency", name, "error", err)
		}
	}

	queueDepth := 0
	if h.audit != nil {
		queueDepth = h.audit.QueueDepth()
	}

	status := http.StatusOK
	if !allHealthy {
		status = http.StatusServiceUnavailable
	}
	h.jsonResponse(w, status, map[string]interface{}{
		"ready":      allHealthy,
		"checks":     checks,
		"queueDepth": queueDepth,
	})
}

// decodeJSON reads a size-limited JSON body into dst.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// predictionErrorResponse maps the engine's error kinds onto status codes.
func (h *Handler) predictionErrorResponse(w http.ResponseWriter, err error, op string) {
	kind, _ := logic.KindOf(err)
	switch kind {
	case logic.KindValidation:
		h.errorResponse(w, http.StatusBadRequest, err.Error())
	case logic.KindUpstreamUnavailable, logic.KindDataUnavailable:
		h.logger.Errorw(op+" failed", "error", err)
		h.errorResponse(w, http.StatusServiceUnavailable, "Match history unavailable")
	default:
		h.logger.Errorw(op+" failed", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to "+op)
	}
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}
