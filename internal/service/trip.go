package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/acady/wayfarer/backend/internal/domain"
	"github.com/acady/wayfarer/backend/internal/repo"
)

// TripService implements business logic for trips and their membership.
// Trip date changes feed the day reconciler so the itinerary tracks the range.
type TripService struct {
	trips repo.TripRepo
	recon Reconciler
}

// NewTripService constructs a TripService backed by the trip repo and the
// itinerary reconciler.
func NewTripService(trips repo.TripRepo, recon Reconciler) *TripService {
	return &TripService{trips: trips, recon: recon}
}

// TripPatch carries a partial trip update with field presence semantics.
type TripPatch struct {
	Destination          domain.Optional[string]
	Type                 domain.Optional[string]
	Status               domain.Optional[string]
	Notes                domain.Optional[string]
	StartDate            domain.Optional[time.Time]
	EndDate              domain.Optional[time.Time]
	DestinationLatitude  domain.Optional[float64]
	DestinationLongitude domain.Optional[float64]
}

// Create persists a new trip owned by the caller, ensuring the caller's
// profile row exists first. When both dates are present the itinerary days
// are generated immediately.
func (s *TripService) Create(ctx context.Context, userID uuid.UUID, email, displayName string, trip domain.Trip) (domain.Trip, error) {
	if trip.Type == "" {
		trip.Type = domain.TripVacation
	}
	if trip.Status == "" {
		trip.Status = domain.StatusDreaming
	}
	if trip.StartDate != nil {
		d := dateOnly(*trip.StartDate)
		trip.StartDate = &d
	}
	if trip.EndDate != nil {
		d := dateOnly(*trip.EndDate)
		trip.EndDate = &d
	}
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, err
	}

	if err := s.trips.EnsureUser(ctx, userID, email, displayName); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	created, err := s.trips.CreateWithOwner(ctx, trip, userID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	if err := s.recon.Reconcile(ctx, created.ID, created.StartDate, created.EndDate); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return created, nil
}

// Get returns a trip with its member list.
func (s *TripService) Get(ctx context.Context, userID, tripID uuid.UUID) (domain.Trip, []domain.TripMember, error) {
	trip, _, err := verifyMember(ctx, s.trips, tripID, userID)
	if err != nil {
		return domain.Trip{}, nil, fmt.Errorf("service.TripService.Get: %w", err)
	}

	members, err := s.trips.ListMembers(ctx, tripID)
	if err != nil {
		return domain.Trip{}, nil, fmt.Errorf("service.TripService.Get: %w", err)
	}
	return trip, members, nil
}

// List returns the caller's trips, optionally filtered by status.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TripService) List(ctx context.Context, userID uuid.UUID, status *domain.TripStatus) ([]domain.Trip, error) {
	trips, err := s.trips.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.List: %w", err)
	}
	if trips == nil {
		return []domain.Trip{}, nil
	}
	return trips, nil
}

// Update applies a partial update. Any member may edit a trip. A change to
// either date bound re-runs the reconciler with the new range; the
// reconciler's own guards handle partial or inverted ranges.
func (s *TripService) Update(ctx context.Context, userID, tripID uuid.UUID, patch TripPatch) (domain.Trip, error) {
	trip, _, err := verifyMember(ctx, s.trips, tripID, userID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}

	datesChanged := applyTripPatch(&trip, patch)
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, err
	}

	updated, err := s.trips.Update(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}

	if datesChanged {
		if err := s.recon.Reconcile(ctx, updated.ID, updated.StartDate, updated.EndDate); err != nil {
			return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
		}
	}
	return updated, nil
}

// Delete removes a trip and everything under it. Owners only.
func (s *TripService) Delete(ctx context.Context, userID, tripID uuid.UUID) error {
	if err := s.requireOwner(ctx, tripID, userID); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}

	if err := s.trips.Delete(ctx, tripID); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return nil
}

// AddMember invites an existing user to the trip by email. Owners only.
func (s *TripService) AddMember(ctx context.Context, userID, tripID uuid.UUID, email string) (domain.TripMember, error) {
	if err := s.requireOwner(ctx, tripID, userID); err != nil {
		return domain.TripMember{}, fmt.Errorf("service.TripService.AddMember: %w", err)
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return domain.TripMember{}, fmt.Errorf("%w: email is required", domain.ErrValidation)
	}

	member, err := s.trips.AddMemberByEmail(ctx, tripID, email)
	if err != nil {
		return domain.TripMember{}, fmt.Errorf("service.TripService.AddMember: %w", err)
	}
	return member, nil
}

// RemoveMember drops a membership. Owners only.
func (s *TripService) RemoveMember(ctx context.Context, userID, tripID, memberID uuid.UUID) error {
	if err := s.requireOwner(ctx, tripID, userID); err != nil {
		return fmt.Errorf("service.TripService.RemoveMember: %w", err)
	}

	if err := s.trips.RemoveMember(ctx, tripID, memberID); err != nil {
		return fmt.Errorf("service.TripService.RemoveMember: %w", err)
	}
	return nil
}

// UpdateMemberRole changes a member's role. Owners only.
func (s *TripService) UpdateMemberRole(ctx context.Context, userID, tripID, memberID uuid.UUID, role domain.MemberRole) (domain.TripMember, error) {
	if err := s.requireOwner(ctx, tripID, userID); err != nil {
		return domain.TripMember{}, fmt.Errorf("service.TripService.UpdateMemberRole: %w", err)
	}
	switch role {
	case domain.RoleOwner, domain.RoleMember:
	default:
		return domain.TripMember{}, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}

	member, err := s.trips.UpdateMemberRole(ctx, tripID, memberID, role)
	if err != nil {
		return domain.TripMember{}, fmt.Errorf("service.TripService.UpdateMemberRole: %w", err)
	}
	return member, nil
}

func (s *TripService) requireOwner(ctx context.Context, tripID, userID uuid.UUID) error {
	_, role, err := verifyMember(ctx, s.trips, tripID, userID)
	if err != nil {
		return err
	}
	if role != domain.RoleOwner {
		return fmt.Errorf("%w: owner role required", domain.ErrForbidden)
	}
	return nil
}

// applyTripPatch merges supplied fields and reports whether a date bound changed.
func applyTripPatch(t *domain.Trip, p TripPatch) bool {
	if p.Destination.Set && p.Destination.Valid {
		t.Destination = p.Destination.Value
	}
	if p.Type.Set && p.Type.Valid {
		t.Type = domain.TripType(p.Type.Value)
	}
	if p.Status.Set && p.Status.Valid {
		t.Status = domain.TripStatus(p.Status.Value)
	}
	if p.Notes.Set {
		t.Notes = valueOrZero(p.Notes)
	}

	datesChanged := false
	if p.StartDate.Set {
		t.StartDate = optionalDate(p.StartDate)
		datesChanged = true
	}
	if p.EndDate.Set {
		t.EndDate = optionalDate(p.EndDate)
		datesChanged = true
	}

	if p.DestinationLatitude.Set {
		t.DestinationLatitude = optionalValue(p.DestinationLatitude)
	}
	if p.DestinationLongitude.Set {
		t.DestinationLongitude = optionalValue(p.DestinationLongitude)
	}
	return datesChanged
}

// optionalDate converts an Optional date to a nullable calendar date.
func optionalDate(o domain.Optional[time.Time]) *time.Time {
	if !o.Valid {
		return nil
	}
	d := dateOnly(o.Value)
	return &d
}

// validateTrip enforces trip business rules for Create and Update.
func validateTrip(t domain.Trip) error {
	if strings.TrimSpace(t.Destination) == "" {
		return fmt.Errorf("%w: destination is required", domain.ErrValidation)
	}
	switch t.Type {
	case domain.TripVacation, domain.TripEvent:
	default:
		return fmt.Errorf("%w: unknown trip type %q", domain.ErrValidation, t.Type)
	}
	switch t.Status {
	case domain.StatusDreaming, domain.StatusPlanning, domain.StatusBooked, domain.StatusCompleted:
	default:
		return fmt.Errorf("%w: unknown trip status %q", domain.ErrValidation, t.Status)
	}
	if t.StartDate != nil && t.EndDate != nil && t.EndDate.Before(*t.StartDate) {
		return fmt.Errorf("%w: end_date must not be before start_date", domain.ErrValidation)
	}
	return nil
}
