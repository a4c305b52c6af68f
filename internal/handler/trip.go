package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/acady/wayfarer/backend/internal/domain"
	"github.com/acady/wayfarer/backend/internal/service"
)

type tripResponse struct {
	ID                   uuid.UUID           `json:"id"`
	Type                 string              `json:"type"`
	Destination          string              `json:"destination"`
	StartDate            *openapi_types.Date `json:"start_date"`
	EndDate              *openapi_types.Date `json:"end_date"`
	Status               string              `json:"status"`
	Notes                string              `json:"notes,omitempty"`
	DestinationLatitude  *float64            `json:"destination_latitude,omitempty"`
	DestinationLongitude *float64            `json:"destination_longitude,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	Members              []memberResponse    `json:"members,omitempty"`
}

type memberResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Role        string    `json:"role"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
}

func toTripResponse(t domain.Trip) tripResponse {
	return tripResponse{
		ID:                   t.ID,
		Type:                 string(t.Type),
		Destination:          t.Destination,
		StartDate:            toDate(t.StartDate),
		EndDate:              toDate(t.EndDate),
		Status:               string(t.Status),
		Notes:                t.Notes,
		DestinationLatitude:  t.DestinationLatitude,
		DestinationLongitude: t.DestinationLongitude,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}

func toMemberResponse(m domain.TripMember) memberResponse {
	return memberResponse{
		ID:          m.ID,
		UserID:      m.UserID,
		Role:        string(m.Role),
		DisplayName: m.DisplayName,
		Email:       m.Email,
	}
}

func toDate(t *time.Time) *openapi_types.Date {
	if t == nil {
		return nil
	}
	return &openapi_types.Date{Time: *t}
}

func fromDate(d *openapi_types.Date) *time.Time {
	if d == nil {
		return nil
	}
	return &d.Time
}

// optDate converts a patch date field, preserving presence semantics.
func optDate(o domain.Optional[openapi_types.Date]) domain.Optional[time.Time] {
	out := domain.Optional[time.Time]{Set: o.Set, Valid: o.Valid}
	if o.Valid {
		out.Value = o.Value.Time
	}
	return out
}

type createTripRequest struct {
	Destination          string              `json:"destination" validate:"required"`
	Type                 string              `json:"type" validate:"omitempty,oneof=vacation event"`
	Status               string              `json:"status" validate:"omitempty,oneof=dreaming planning booked completed"`
	StartDate            *openapi_types.Date `json:"start_date"`
	EndDate              *openapi_types.Date `json:"end_date"`
	Notes                string              `json:"notes"`
	DestinationLatitude  *float64            `json:"destination_latitude"`
	DestinationLongitude *float64            `json:"destination_longitude"`
}

func (s *Server) createTrip(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req createTripRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	trip, err := s.trips.Create(r.Context(), user.ID, user.Email, user.Name, domain.Trip{
		Type:                 domain.TripType(req.Type),
		Destination:          req.Destination,
		StartDate:            fromDate(req.StartDate),
		EndDate:              fromDate(req.EndDate),
		Status:               domain.TripStatus(req.Status),
		Notes:                req.Notes,
		DestinationLatitude:  req.DestinationLatitude,
		DestinationLongitude: req.DestinationLongitude,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toTripResponse(trip))
}

func (s *Server) listTrips(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var status *domain.TripStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := domain.TripStatus(raw)
		status = &st
	}

	trips, err := s.trips.List(r.Context(), user.ID, status)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]tripResponse, len(trips))
	for i, t := range trips {
		out[i] = toTripResponse(t)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) getTrip(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}

	trip, members, err := s.trips.Get(r.Context(), user.ID, tripID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := toTripResponse(trip)
	out.Members = make([]memberResponse, len(members))
	for i, m := range members {
		out.Members[i] = toMemberResponse(m)
	}
	respondJSON(w, http.StatusOK, out)
}

type updateTripRequest struct {
	Destination          domain.Optional[string]             `json:"destination"`
	Type                 domain.Optional[string]             `json:"type"`
	Status               domain.Optional[string]             `json:"status"`
	Notes                domain.Optional[string]             `json:"notes"`
	StartDate            domain.Optional[openapi_types.Date] `json:"start_date"`
	EndDate              domain.Optional[openapi_types.Date] `json:"end_date"`
	DestinationLatitude  domain.Optional[float64]            `json:"destination_latitude"`
	DestinationLongitude domain.Optional[float64]            `json:"destination_longitude"`
}

func (s *Server) updateTrip(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}
	var req updateTripRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	trip, err := s.trips.Update(r.Context(), user.ID, tripID, service.TripPatch{
		Destination:          req.Destination,
		Type:                 req.Type,
		Status:               req.Status,
		Notes:                req.Notes,
		StartDate:            optDate(req.StartDate),
		EndDate:              optDate(req.EndDate),
		DestinationLatitude:  req.DestinationLatitude,
		DestinationLongitude: req.DestinationLongitude,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTripResponse(trip))
}

func (s *Server) deleteTrip(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}

	if err := s.trips.Delete(r.Context(), user.ID, tripID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (s *Server) addMember(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}
	var req addMemberRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	member, err := s.trips.AddMember(r.Context(), user.ID, tripID, req.Email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toMemberResponse(member))
}

type updateMemberRequest struct {
	Role string `json:"role" validate:"required,oneof=owner member"`
}

func (s *Server) updateMemberRole(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}
	memberID, ok := pathID(w, r, "memberID")
	if !ok {
		return
	}
	var req updateMemberRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	member, err := s.trips.UpdateMemberRole(r.Context(), user.ID, tripID, memberID, domain.MemberRole(req.Role))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toMemberResponse(member))
}

func (s *Server) removeMember(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}
	memberID, ok := pathID(w, r, "memberID")
	if !ok {
		return
	}

	if err := s.trips.RemoveMember(r.Context(), user.ID, tripID, memberID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
