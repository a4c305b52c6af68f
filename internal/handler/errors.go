package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/acady/wayfarer/backend/internal/domain"
)

type errorBody struct {
	Error string `json:"error"`
}

// respondJSON writes a JSON body with the given status.
func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorBody{Error: msg})
}

// respondError maps domain sentinel errors to HTTP statuses. Anything not in
// the taxonomy is a 500 with a generic body; the detail goes to the log only.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, unwrapMessage(err))
	case errors.Is(err, domain.ErrNotConnected):
		writeError(w, http.StatusBadRequest, unwrapMessage(err))
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, unwrapMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, unwrapMessage(err))
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, unwrapMessage(err))
	case errors.Is(err, domain.ErrUpstream):
		writeError(w, http.StatusServiceUnavailable, "upstream service unavailable")
	default:
		slog.ErrorContext(r.Context(), "internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// unwrapMessage strips the service call-site prefixes so clients see
// "forbidden: not a member of this trip" rather than the wrap chain. It
// returns the message of the innermost error that still carries detail, i.e.
// the one wrapping the sentinel directly.
func unwrapMessage(err error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if isSentinel(e) {
			return e.Error()
		}
		// Detail wrappers look like "forbidden: owner role required"; repo
		// call-site wrappers do not lead with the sentinel text and must not
		// leak to clients.
		if inner := errors.Unwrap(e); isSentinel(inner) && strings.HasPrefix(e.Error(), inner.Error()) {
			return e.Error()
		}
	}
	return err.Error()
}

func isSentinel(err error) bool {
	switch err {
	case domain.ErrValidation, domain.ErrNotFound, domain.ErrForbidden,
		domain.ErrConflict, domain.ErrNotConnected, domain.ErrUpstream:
		return true
	}
	return false
}
