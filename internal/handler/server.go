// Package handler exposes the HTTP surface of the Wayfarer API. Handlers
// decode and validate requests, call services, and map domain errors to HTTP
// statuses; no business logic lives here.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/acady/wayfarer/backend/internal/domain"
	"github.com/acady/wayfarer/backend/internal/middleware"
	"github.com/acady/wayfarer/backend/internal/service"
)

// Service interfaces are declared on the consumer side so handler tests can
// substitute mocks without touching the service package.

type TripService interface {
	Create(ctx context.Context, userID uuid.UUID, email, displayName string, trip domain.Trip) (domain.Trip, error)
	Get(ctx context.Context, userID, tripID uuid.UUID) (domain.Trip, []domain.TripMember, error)
	List(ctx context.Context, userID uuid.UUID, status *domain.TripStatus) ([]domain.Trip, error)
	Update(ctx context.Context, userID, tripID uuid.UUID, patch service.TripPatch) (domain.Trip, error)
	Delete(ctx context.Context, userID, tripID uuid.UUID) error
	AddMember(ctx context.Context, userID, tripID uuid.UUID, email string) (domain.TripMember, error)
	RemoveMember(ctx context.Context, userID, tripID, memberID uuid.UUID) error
	UpdateMemberRole(ctx context.Context, userID, tripID, memberID uuid.UUID, role domain.MemberRole) (domain.TripMember, error)
}

type ItineraryService interface {
	ListDays(ctx context.Context, userID, tripID uuid.UUID) ([]domain.ItineraryDay, error)
	CreateDay(ctx context.Context, userID, tripID uuid.UUID, date time.Time, notes string) (domain.ItineraryDay, error)
	GenerateDays(ctx context.Context, userID, tripID uuid.UUID) ([]domain.ItineraryDay, error)
	DeleteDay(ctx context.Context, userID, dayID uuid.UUID) error
}

type ActivityService interface {
	Create(ctx context.Context, userID uuid.UUID, a domain.Activity) (domain.Activity, error)
	List(ctx context.Context, userID, dayID uuid.UUID) ([]domain.Activity, error)
	Update(ctx context.Context, userID, activityID uuid.UUID, patch service.ActivityPatch) (domain.Activity, error)
	Reorder(ctx context.Context, userID, dayID uuid.UUID, orderedIDs []uuid.UUID) ([]domain.Activity, error)
	Delete(ctx context.Context, userID, activityID uuid.UUID) error
}

type ImportService interface {
	Status(ctx context.Context, userID uuid.UUID) (service.ConnectionStatus, error)
	Disconnect(ctx context.Context, userID uuid.UUID) error
	Scan(ctx context.Context, userID, tripID uuid.UUID) (service.ScanResult, error)
}

type ChecklistService interface {
	Create(ctx context.Context, userID, tripID uuid.UUID, title string) (domain.Checklist, error)
	List(ctx context.Context, userID, tripID uuid.UUID) ([]domain.Checklist, error)
	AddItem(ctx context.Context, userID, checklistID uuid.UUID, text string) (domain.ChecklistItem, error)
	ToggleItem(ctx context.Context, userID, itemID uuid.UUID) (domain.ChecklistItem, error)
	Reorder(ctx context.Context, userID, checklistID uuid.UUID, orderedIDs []uuid.UUID) ([]domain.ChecklistItem, error)
	DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error
}

type ExportService interface {
	Export(ctx context.Context, userID, tripID uuid.UUID) (string, error)
}

type HolidayService interface {
	List(ctx context.Context, country string, year int) ([]service.Holiday, error)
}

type GeocodeService interface {
	Search(ctx context.Context, query string, limit int) ([]service.Place, error)
}

// Server bundles the services behind the API routes.
type Server struct {
	trips     TripService
	itinerary ItineraryService
	acts      ActivityService
	imports   ImportService
	checks    ChecklistService
	export    ExportService
	holidays  HolidayService
	geocode   GeocodeService

	validate *validator.Validate
}

// NewServer constructs a Server over the given services.
func NewServer(trips TripService, itinerary ItineraryService, acts ActivityService, imports ImportService, checks ChecklistService, export ExportService, holidays HolidayService, geocode GeocodeService) *Server {
	return &Server{
		trips:     trips,
		itinerary: itinerary,
		acts:      acts,
		imports:   imports,
		checks:    checks,
		export:    export,
		holidays:  holidays,
		geocode:   geocode,
		validate:  validator.New(),
	}
}

// Routes returns the authenticated API router. Auth middleware is applied by
// the caller; every handler here assumes a user id in the context.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/trips", func(r chi.Router) {
		r.Post("/", s.createTrip)
		r.Get("/", s.listTrips)
		r.Route("/{tripID}", func(r chi.Router) {
			r.Get("/", s.getTrip)
			r.Patch("/", s.updateTrip)
			r.Delete("/", s.deleteTrip)
			r.Get("/export.ics", s.exportTrip)
			r.Post("/members", s.addMember)
			r.Patch("/members/{memberID}", s.updateMemberRole)
			r.Delete("/members/{memberID}", s.removeMember)
		})
	})

	r.Route("/itinerary", func(r chi.Router) {
		r.Route("/trips/{tripID}/days", func(r chi.Router) {
			r.Get("/", s.listDays)
			r.Post("/", s.createDay)
			r.Post("/generate", s.generateDays)
		})
		r.Route("/days/{dayID}", func(r chi.Router) {
			r.Delete("/", s.deleteDay)
			r.Get("/activities", s.listActivities)
			r.Post("/activities", s.createActivity)
			r.Patch("/reorder", s.reorderActivities)
		})
		r.Patch("/activities/{activityID}", s.updateActivity)
		r.Delete("/activities/{activityID}", s.deleteActivity)
	})

	r.Route("/gmail", func(r chi.Router) {
		r.Get("/status", s.gmailStatus)
		r.Delete("/disconnect", s.gmailDisconnect)
		r.Post("/scan", s.gmailScan)
	})

	r.Route("/checklist", func(r chi.Router) {
		r.Get("/trips/{tripID}/checklists", s.listChecklists)
		r.Post("/trips/{tripID}/checklists", s.createChecklist)
		r.Post("/checklists/{checklistID}/items", s.addChecklistItem)
		r.Patch("/checklists/{checklistID}/reorder", s.reorderChecklist)
		r.Patch("/items/{itemID}/toggle", s.toggleChecklistItem)
		r.Delete("/items/{itemID}", s.deleteChecklistItem)
	})

	r.Get("/holidays", s.listHolidays)
	r.Get("/geocode/search", s.geocodeSearch)

	return r
}

// pathID parses a UUID path parameter, answering 400 on garbage.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// currentUser pulls the authenticated identity out of the context. The auth
// middleware guarantees it; a miss means broken wiring, answered with 401.
func currentUser(w http.ResponseWriter, r *http.Request) (middleware.AuthUser, bool) {
	u, ok := middleware.User(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
	}
	return u, ok
}

// decodeJSON decodes a request body, answering 400 on malformed input.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
