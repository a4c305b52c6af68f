package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/acady/wayfarer/backend/internal/domain"
	"github.com/acady/wayfarer/backend/internal/service"
)

type dayResponse struct {
	ID            uuid.UUID          `json:"id"`
	TripID        uuid.UUID          `json:"trip_id"`
	Date          openapi_types.Date `json:"date"`
	Notes         string             `json:"notes,omitempty"`
	ActivityCount int                `json:"activity_count"`
	CreatedAt     time.Time          `json:"created_at"`
}

func toDayResponse(d domain.ItineraryDay) dayResponse {
	return dayResponse{
		ID:            d.ID,
		TripID:        d.TripID,
		Date:          openapi_types.Date{Time: d.Date},
		Notes:         d.Notes,
		ActivityCount: d.ActivityCount,
		CreatedAt:     d.CreatedAt,
	}
}

func toDayResponses(days []domain.ItineraryDay) []dayResponse {
	out := make([]dayResponse, len(days))
	for i, d := range days {
		out[i] = toDayResponse(d)
	}
	return out
}

type activityResponse struct {
	ID                 uuid.UUID           `json:"id"`
	ItineraryDayID     uuid.UUID           `json:"itinerary_day_id"`
	Title              string              `json:"title"`
	Category           string              `json:"category"`
	StartTime          *string             `json:"start_time"`
	EndTime            *string             `json:"end_time"`
	Location           string              `json:"location,omitempty"`
	Latitude           *float64            `json:"latitude,omitempty"`
	Longitude          *float64            `json:"longitude,omitempty"`
	Notes              string              `json:"notes,omitempty"`
	ConfirmationNumber string              `json:"confirmation_number,omitempty"`
	CheckOutDate       *openapi_types.Date `json:"check_out_date,omitempty"`
	SortOrder          int                 `json:"sort_order"`
	Source             string              `json:"source"`
	ImportStatus       *string             `json:"import_status,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
}

func toActivityResponse(a domain.Activity) activityResponse {
	var status *string
	if a.ImportStatus != nil {
		s := string(*a.ImportStatus)
		status = &s
	}
	return activityResponse{
		ID:                 a.ID,
		ItineraryDayID:     a.ItineraryDayID,
		Title:              a.Title,
		Category:           string(a.Category),
		StartTime:          a.StartTime,
		EndTime:            a.EndTime,
		Location:           a.Location,
		Latitude:           a.Latitude,
		Longitude:          a.Longitude,
		Notes:              a.Notes,
		ConfirmationNumber: a.ConfirmationNumber,
		CheckOutDate:       toDate(a.CheckOutDate),
		SortOrder:          a.SortOrder,
		Source:             string(a.Source),
		ImportStatus:       status,
		CreatedAt:          a.CreatedAt,
	}
}

func toActivityResponses(activities []domain.Activity) []activityResponse {
	out := make([]activityResponse, len(activities))
	for i, a := range activities {
		out[i] = toActivityResponse(a)
	}
	return out
}

// ---- days ----

func (s *Server) listDays(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}

	days, err := s.itinerary.ListDays(r.Context(), user.ID, tripID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toDayResponses(days))
}

type createDayRequest struct {
	Date  openapi_types.Date `json:"date" validate:"required"`
	Notes string             `json:"notes"`
}

func (s *Server) createDay(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}
	var req createDayRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	day, err := s.itinerary.CreateDay(r.Context(), user.ID, tripID, req.Date.Time, req.Notes)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toDayResponse(day))
}

func (s *Server) generateDays(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}

	days, err := s.itinerary.GenerateDays(r.Context(), user.ID, tripID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toDayResponses(days))
}

func (s *Server) deleteDay(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	dayID, ok := pathID(w, r, "dayID")
	if !ok {
		return
	}

	if err := s.itinerary.DeleteDay(r.Context(), user.ID, dayID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- activities ----

func (s *Server) listActivities(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	dayID, ok := pathID(w, r, "dayID")
	if !ok {
		return
	}

	activities, err := s.acts.List(r.Context(), user.ID, dayID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toActivityResponses(activities))
}

type createActivityRequest struct {
	Title              string              `json:"title" validate:"required"`
	Category           string              `json:"category" validate:"required,oneof=transport food activity lodging"`
	StartTime          *string             `json:"start_time"`
	EndTime            *string             `json:"end_time"`
	Location           string              `json:"location"`
	Latitude           *float64            `json:"latitude"`
	Longitude          *float64            `json:"longitude"`
	Notes              string              `json:"notes"`
	ConfirmationNumber string              `json:"confirmation_number"`
	CheckOutDate       *openapi_types.Date `json:"check_out_date"`
}

func (s *Server) createActivity(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	dayID, ok := pathID(w, r, "dayID")
	if !ok {
		return
	}
	var req createActivityRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	activity, err := s.acts.Create(r.Context(), user.ID, domain.Activity{
		ItineraryDayID:     dayID,
		Title:              req.Title,
		Category:           domain.Category(req.Category),
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		Location:           req.Location,
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
		Notes:              req.Notes,
		ConfirmationNumber: req.ConfirmationNumber,
		CheckOutDate:       fromDate(req.CheckOutDate),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toActivityResponse(activity))
}

type updateActivityRequest struct {
	ItineraryDayID     domain.Optional[uuid.UUID]           `json:"itinerary_day_id"`
	Title              domain.Optional[string]              `json:"title"`
	Category           domain.Optional[string]              `json:"category"`
	StartTime          domain.Optional[string]              `json:"start_time"`
	EndTime            domain.Optional[string]              `json:"end_time"`
	Location           domain.Optional[string]              `json:"location"`
	Latitude           domain.Optional[float64]             `json:"latitude"`
	Longitude          domain.Optional[float64]             `json:"longitude"`
	Notes              domain.Optional[string]              `json:"notes"`
	ConfirmationNumber domain.Optional[string]              `json:"confirmation_number"`
	CheckOutDate       domain.Optional[openapi_types.Date]  `json:"check_out_date"`
	ImportStatus       domain.Optional[domain.ImportStatus] `json:"import_status"`
}

func (s *Server) updateActivity(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	activityID, ok := pathID(w, r, "activityID")
	if !ok {
		return
	}
	var req updateActivityRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	activity, err := s.acts.Update(r.Context(), user.ID, activityID, service.ActivityPatch{
		DayID:              req.ItineraryDayID,
		Title:              req.Title,
		Category:           req.Category,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		Location:           req.Location,
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
		Notes:              req.Notes,
		ConfirmationNumber: req.ConfirmationNumber,
		CheckOutDate:       optDate(req.CheckOutDate),
		ImportStatus:       req.ImportStatus,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toActivityResponse(activity))
}

type reorderActivitiesRequest struct {
	ActivityIDs []uuid.UUID `json:"activity_ids" validate:"required"`
}

func (s *Server) reorderActivities(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	dayID, ok := pathID(w, r, "dayID")
	if !ok {
		return
	}
	var req reorderActivitiesRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	activities, err := s.acts.Reorder(r.Context(), user.ID, dayID, req.ActivityIDs)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toActivityResponses(activities))
}

func (s *Server) deleteActivity(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	activityID, ok := pathID(w, r, "activityID")
	if !ok {
		return
	}

	if err := s.acts.Delete(r.Context(), user.ID, activityID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
