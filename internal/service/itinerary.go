package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/acady/wayfarer/backend/internal/domain"
	"github.com/acady/wayfarer/backend/internal/repo"
)

// ItineraryService implements business logic for itinerary days.
type ItineraryService struct {
	trips repo.TripRepo
	days  repo.DayRepo
	recon Reconciler
}

// NewItineraryService constructs an ItineraryService backed by the provided
// repos and reconciler.
func NewItineraryService(trips repo.TripRepo, days repo.DayRepo, recon Reconciler) *ItineraryService {
	return &ItineraryService{trips: trips, days: days, recon: recon}
}

// ListDays returns all days for a trip, ordered by date, with activity counts.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ItineraryService) ListDays(ctx context.Context, userID, tripID uuid.UUID) ([]domain.ItineraryDay, error) {
	if _, _, err := verifyMember(ctx, s.trips, tripID, userID); err != nil {
		return nil, fmt.Errorf("service.ItineraryService.ListDays: %w", err)
	}

	days, err := s.days.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.ItineraryService.ListDays: %w", err)
	}
	if days == nil {
		return []domain.ItineraryDay{}, nil
	}
	return days, nil
}

// CreateDay adds one explicitly user-created day to a trip.
// Returns domain.ErrConflict when the date already has a day.
func (s *ItineraryService) CreateDay(ctx context.Context, userID, tripID uuid.UUID, date time.Time, notes string) (domain.ItineraryDay, error) {
	if _, _, err := verifyMember(ctx, s.trips, tripID, userID); err != nil {
		return domain.ItineraryDay{}, fmt.Errorf("service.ItineraryService.CreateDay: %w", err)
	}

	day, err := s.days.Create(ctx, domain.ItineraryDay{
		TripID: tripID,
		Date:   dateOnly(date),
		Notes:  notes,
	})
	if err != nil {
		return domain.ItineraryDay{}, fmt.Errorf("service.ItineraryService.CreateDay: %w", err)
	}
	return day, nil
}

// GenerateDays runs the reconciler for the trip's current date range and
// returns the resulting day list. Unlike the reconciler's silent guards, an
// explicit generate call on a trip without both dates is a validation error:
// the user asked for something that cannot be done.
func (s *ItineraryService) GenerateDays(ctx context.Context, userID, tripID uuid.UUID) ([]domain.ItineraryDay, error) {
	trip, _, err := verifyMember(ctx, s.trips, tripID, userID)
	if err != nil {
		return nil, fmt.Errorf("service.ItineraryService.GenerateDays: %w", err)
	}
	if trip.StartDate == nil || trip.EndDate == nil {
		return nil, fmt.Errorf("%w: trip must have start and end dates", domain.ErrValidation)
	}

	if err := s.recon.Reconcile(ctx, tripID, trip.StartDate, trip.EndDate); err != nil {
		return nil, fmt.Errorf("service.ItineraryService.GenerateDays: %w", err)
	}

	days, err := s.days.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.ItineraryService.GenerateDays: %w", err)
	}
	if days == nil {
		return []domain.ItineraryDay{}, nil
	}
	return days, nil
}

// DeleteDay removes a day and all its activities.
func (s *ItineraryService) DeleteDay(ctx context.Context, userID, dayID uuid.UUID) error {
	if _, err := s.verifyDay(ctx, userID, dayID); err != nil {
		return fmt.Errorf("service.ItineraryService.DeleteDay: %w", err)
	}

	if err := s.days.Delete(ctx, dayID); err != nil {
		return fmt.Errorf("service.ItineraryService.DeleteDay: %w", err)
	}
	return nil
}

// verifyDay loads a day and checks the caller's membership of its trip.
func (s *ItineraryService) verifyDay(ctx context.Context, userID, dayID uuid.UUID) (domain.ItineraryDay, error) {
	day, err := s.days.GetByID(ctx, dayID)
	if err != nil {
		return domain.ItineraryDay{}, err
	}
	if _, _, err := verifyMember(ctx, s.trips, day.TripID, userID); err != nil {
		return domain.ItineraryDay{}, err
	}
	return day, nil
}
