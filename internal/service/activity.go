package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/acady/wayfarer/backend/internal/domain"
	"github.com/acady/wayfarer/backend/internal/ordering"
	"github.com/acady/wayfarer/backend/internal/repo"
)

// ActivityService implements business logic for activities: create, partial
// update (including moving between days of the same trip), explicit reorder,
// and delete.
type ActivityService struct {
	trips repo.TripRepo
	days  repo.DayRepo
	acts  repo.ActivityRepo
}

// NewActivityService constructs an ActivityService backed by the provided repos.
func NewActivityService(trips repo.TripRepo, days repo.DayRepo, acts repo.ActivityRepo) *ActivityService {
	return &ActivityService{trips: trips, days: days, acts: acts}
}

// ActivityPatch carries a partial update. Optional fields distinguish
// "absent" (leave untouched) from "explicit null" (clear).
type ActivityPatch struct {
	DayID              domain.Optional[uuid.UUID]
	Title              domain.Optional[string]
	Category           domain.Optional[string]
	StartTime          domain.Optional[string]
	EndTime            domain.Optional[string]
	Location           domain.Optional[string]
	Latitude           domain.Optional[float64]
	Longitude          domain.Optional[float64]
	Notes              domain.Optional[string]
	ConfirmationNumber domain.Optional[string]
	CheckOutDate       domain.Optional[time.Time]
	ImportStatus       domain.Optional[domain.ImportStatus]
}

// Create appends a new activity to a day. The position comes from the
// ordering primitive scoped to the day; source defaults to manual.
func (s *ActivityService) Create(ctx context.Context, userID uuid.UUID, a domain.Activity) (domain.Activity, error) {
	if _, err := s.verifyDay(ctx, userID, a.ItineraryDayID); err != nil {
		return domain.Activity{}, fmt.Errorf("service.ActivityService.Create: %w", err)
	}
	if err := validateActivity(a); err != nil {
		return domain.Activity{}, err
	}

	siblings, err := s.acts.ListByDay(ctx, a.ItineraryDayID)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("service.ActivityService.Create: %w", err)
	}
	a.SortOrder = ordering.NextPosition(lo.Map(siblings, func(sib domain.Activity, _ int) int {
		return sib.SortOrder
	}))
	if a.Source == "" {
		a.Source = domain.SourceManual
	}

	created, err := s.acts.Create(ctx, a)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("service.ActivityService.Create: %w", err)
	}
	return created, nil
}

// List returns a day's activities ordered by sort position.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ActivityService) List(ctx context.Context, userID, dayID uuid.UUID) ([]domain.Activity, error) {
	if _, err := s.verifyDay(ctx, userID, dayID); err != nil {
		return nil, fmt.Errorf("service.ActivityService.List: %w", err)
	}

	activities, err := s.acts.ListByDay(ctx, dayID)
	if err != nil {
		return nil, fmt.Errorf("service.ActivityService.List: %w", err)
	}
	if activities == nil {
		return []domain.Activity{}, nil
	}
	return activities, nil
}

// Update applies a partial update. Absent fields are untouched; explicit
// nulls clear. When the patch targets a different day, the target must exist
// (404 otherwise) and belong to the same trip (403 otherwise; a cross-trip
// move is a boundary violation, not a not-found). The position within the new
// day is not recomputed; callers reorder explicitly if they care.
func (s *ActivityService) Update(ctx context.Context, userID, activityID uuid.UUID, patch ActivityPatch) (domain.Activity, error) {
	a, err := s.acts.GetByID(ctx, activityID)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("service.ActivityService.Update: %w", err)
	}
	day, err := s.verifyDay(ctx, userID, a.ItineraryDayID)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("service.ActivityService.Update: %w", err)
	}

	if patch.DayID.Set {
		if !patch.DayID.Valid {
			return domain.Activity{}, fmt.Errorf("%w: itinerary_day_id cannot be null", domain.ErrValidation)
		}
		if patch.DayID.Value != a.ItineraryDayID {
			target, err := s.days.GetByID(ctx, patch.DayID.Value)
			if err != nil {
				return domain.Activity{}, fmt.Errorf("service.ActivityService.Update: target day: %w", err)
			}
			if target.TripID != day.TripID {
				return domain.Activity{}, fmt.Errorf("%w: cannot move activity to a different trip", domain.ErrForbidden)
			}
			a.ItineraryDayID = target.ID
		}
	}

	applyPatch(&a, patch)

	if err := validateActivity(a); err != nil {
		return domain.Activity{}, err
	}

	updated, err := s.acts.Update(ctx, a)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("service.ActivityService.Update: %w", err)
	}
	return updated, nil
}

// Reorder assigns positions 0..n-1 following orderedIDs, which must be a
// permutation of the day's current activity set. Returns the activities in
// their new order.
func (s *ActivityService) Reorder(ctx context.Context, userID, dayID uuid.UUID, orderedIDs []uuid.UUID) ([]domain.Activity, error) {
	if _, err := s.verifyDay(ctx, userID, dayID); err != nil {
		return nil, fmt.Errorf("service.ActivityService.Reorder: %w", err)
	}

	current, err := s.acts.ListByDay(ctx, dayID)
	if err != nil {
		return nil, fmt.Errorf("service.ActivityService.Reorder: %w", err)
	}

	positions, err := ordering.Apply(
		lo.Map(current, func(a domain.Activity, _ int) uuid.UUID { return a.ID }),
		orderedIDs,
	)
	if err != nil {
		return nil, err
	}

	if err := s.acts.UpdatePositions(ctx, positions); err != nil {
		return nil, fmt.Errorf("service.ActivityService.Reorder: %w", err)
	}

	reordered := make([]domain.Activity, len(orderedIDs))
	byID := lo.SliceToMap(current, func(a domain.Activity) (uuid.UUID, domain.Activity) { return a.ID, a })
	for i, id := range orderedIDs {
		a := byID[id]
		a.SortOrder = i
		reordered[i] = a
	}
	return reordered, nil
}

// Delete removes an activity. Sibling positions keep their values; gaps in
// the order are fine.
func (s *ActivityService) Delete(ctx context.Context, userID, activityID uuid.UUID) error {
	a, err := s.acts.GetByID(ctx, activityID)
	if err != nil {
		return fmt.Errorf("service.ActivityService.Delete: %w", err)
	}
	if _, err := s.verifyDay(ctx, userID, a.ItineraryDayID); err != nil {
		return fmt.Errorf("service.ActivityService.Delete: %w", err)
	}

	if err := s.acts.Delete(ctx, activityID); err != nil {
		return fmt.Errorf("service.ActivityService.Delete: %w", err)
	}
	return nil
}

// verifyDay loads a day and checks the caller's membership of its trip.
func (s *ActivityService) verifyDay(ctx context.Context, userID, dayID uuid.UUID) (domain.ItineraryDay, error) {
	day, err := s.days.GetByID(ctx, dayID)
	if err != nil {
		return domain.ItineraryDay{}, err
	}
	if _, _, err := verifyMember(ctx, s.trips, day.TripID, userID); err != nil {
		return domain.ItineraryDay{}, err
	}
	return day, nil
}

// applyPatch merges supplied fields into the activity.
func applyPatch(a *domain.Activity, p ActivityPatch) {
	if p.Title.Set && p.Title.Valid {
		a.Title = p.Title.Value
	}
	if p.Category.Set && p.Category.Valid {
		a.Category = domain.Category(p.Category.Value)
	}
	if p.StartTime.Set {
		a.StartTime = optionalString(p.StartTime)
	}
	if p.EndTime.Set {
		a.EndTime = optionalString(p.EndTime)
	}
	if p.Location.Set {
		a.Location = valueOrZero(p.Location)
	}
	if p.Latitude.Set {
		a.Latitude = optionalValue(p.Latitude)
	}
	if p.Longitude.Set {
		a.Longitude = optionalValue(p.Longitude)
	}
	if p.Notes.Set {
		a.Notes = valueOrZero(p.Notes)
	}
	if p.ConfirmationNumber.Set {
		a.ConfirmationNumber = valueOrZero(p.ConfirmationNumber)
	}
	if p.CheckOutDate.Set {
		a.CheckOutDate = optionalValue(p.CheckOutDate)
	}
	if p.ImportStatus.Set {
		a.ImportStatus = optionalValue(p.ImportStatus)
	}
}

// optionalString converts an Optional string to a nullable field, mapping
// explicit null to nil.
func optionalString(o domain.Optional[string]) *string {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// optionalValue converts an Optional to a pointer, mapping explicit null to nil.
func optionalValue[T any](o domain.Optional[T]) *T {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// valueOrZero returns the value, or the zero value for an explicit null.
func valueOrZero[T any](o domain.Optional[T]) T {
	var zero T
	if !o.Valid {
		return zero
	}
	return o.Value
}

// validateActivity enforces business rules common to Create and Update.
//   - Title must be non-empty (whitespace-only titles are rejected).
//   - Category must be one of the closed set.
//   - StartTime and EndTime must be HH:MM clock times; when both are present
//     the window must be strictly increasing.
//   - ImportStatus, when set, must be a known review state.
func validateActivity(a domain.Activity) error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	switch a.Category {
	case domain.CategoryTransport, domain.CategoryFood, domain.CategoryActivity, domain.CategoryLodging:
	default:
		return fmt.Errorf("%w: unknown category %q", domain.ErrValidation, a.Category)
	}

	start, err := parseClock(a.StartTime)
	if err != nil {
		return fmt.Errorf("%w: invalid start_time", domain.ErrValidation)
	}
	end, err := parseClock(a.EndTime)
	if err != nil {
		return fmt.Errorf("%w: invalid end_time", domain.ErrValidation)
	}
	if start != nil && end != nil && !start.Before(*end) {
		return fmt.Errorf("%w: start_time must be before end_time", domain.ErrValidation)
	}

	if a.ImportStatus != nil {
		switch *a.ImportStatus {
		case domain.ImportPendingReview, domain.ImportConfirmed, domain.ImportRejected:
		default:
			return fmt.Errorf("%w: unknown import_status %q", domain.ErrValidation, *a.ImportStatus)
		}
	}

	return nil
}

// parseClock parses an optional HH:MM clock time.
func parseClock(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse("15:04", *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
