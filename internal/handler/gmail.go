package handler

import (
	"net/http"

	"github.com/google/uuid"
)

func (s *Server) gmailStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	status, err := s.imports.Status(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (s *Server) gmailDisconnect(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := s.imports.Disconnect(r.Context(), user.ID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type scanRequest struct {
	TripID uuid.UUID `json:"trip_id" validate:"required"`
}

func (s *Server) gmailScan(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req scanRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.imports.Scan(r.Context(), user.ID, req.TripID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
