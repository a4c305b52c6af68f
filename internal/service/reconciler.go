package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/acady/wayfarer/backend/internal/domain"
	"github.com/acady/wayfarer/backend/internal/repo"
)

// maxReconcileSpanDays bounds the inclusive date range the reconciler will
// materialize. Anything larger is treated as malformed input and ignored.
const maxReconcileSpanDays = 365

// Reconciler is the subset of ReconcilerService other services depend on.
type Reconciler interface {
	Reconcile(ctx context.Context, tripID uuid.UUID, start, end *time.Time) error
}

// ReconcilerService keeps a trip's itinerary days consistent with its date
// range: one day per date in [start, end], out-of-range days removed, unless
// they carry activities, which makes them user content that must survive any
// range change.
type ReconcilerService struct {
	days repo.DayRepo
}

// NewReconcilerService constructs a ReconcilerService backed by the day repo.
func NewReconcilerService(days repo.DayRepo) *ReconcilerService {
	return &ReconcilerService{days: days}
}

// Reconcile synchronizes the trip's day set to the given range.
//
// The guards are silent no-ops rather than errors because partially filled
// trip data is normal mid-edit: a missing bound, an inverted range (reachable
// when a partial update moves only one bound), or a span over a year all
// leave the existing days untouched. An inverted range in particular would
// otherwise classify every existing day as out of range and delete the empty
// ones.
//
// The whole create/delete pass is one transaction; when nothing needs to
// change, no write happens at all, so calling Reconcile twice with the same
// range persists at most once.
func (s *ReconcilerService) Reconcile(ctx context.Context, tripID uuid.UUID, start, end *time.Time) error {
	if start == nil || end == nil {
		return nil
	}
	first, last := dateOnly(*start), dateOnly(*end)
	if last.Before(first) {
		return nil
	}
	if span := int(last.Sub(first).Hours()/24) + 1; span > maxReconcileSpanDays {
		return nil
	}

	existing, err := s.days.ListByTrip(ctx, tripID)
	if err != nil {
		return fmt.Errorf("service.ReconcilerService.Reconcile: %w", err)
	}

	inRange := func(d domain.ItineraryDay) bool {
		date := dateOnly(d.Date)
		return !date.Before(first) && !date.After(last)
	}
	present := lo.SliceToMap(existing, func(d domain.ItineraryDay) (string, struct{}) {
		return dateKey(d.Date), struct{}{}
	})

	var create []time.Time
	for date := first; !date.After(last); date = date.AddDate(0, 0, 1) {
		if _, ok := present[dateKey(date)]; !ok {
			create = append(create, date)
		}
	}

	// Out-of-range days are deleted only when empty. Days with activities are
	// preserved untouched even outside the current range.
	outOfRange := lo.Reject(existing, func(d domain.ItineraryDay, _ int) bool { return inRange(d) })
	remove := lo.FilterMap(outOfRange, func(d domain.ItineraryDay, _ int) (uuid.UUID, bool) {
		return d.ID, d.ActivityCount == 0
	})

	if len(create) == 0 && len(remove) == 0 {
		return nil
	}

	if err := s.days.ApplyDelta(ctx, tripID, create, remove); err != nil {
		return fmt.Errorf("service.ReconcilerService.Reconcile: %w", err)
	}
	return nil
}

// dateOnly truncates a timestamp to its UTC calendar date.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// dateKey is the map key used to compare calendar dates.
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
