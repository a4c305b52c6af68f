package service

import (
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/acady/wayfarer/backend/internal/domain"
	"github.com/acady/wayfarer/backend/internal/repo"
)

// ExportService renders a trip's itinerary as an iCalendar feed.
type ExportService struct {
	trips repo.TripRepo
	days  repo.DayRepo
	acts  repo.ActivityRepo
}

// NewExportService constructs an ExportService backed by the provided repos.
func NewExportService(trips repo.TripRepo, days repo.DayRepo, acts repo.ActivityRepo) *ExportService {
	return &ExportService{trips: trips, days: days, acts: acts}
}

// Export serializes every activity of the trip as a VEVENT. Timed activities
// get a concrete window on their day's date; untimed ones become all-day
// events. Lodging with a check-out date spans until check-out.
func (s *ExportService) Export(ctx context.Context, userID, tripID uuid.UUID) (string, error) {
	trip, _, err := verifyMember(ctx, s.trips, tripID, userID)
	if err != nil {
		return "", fmt.Errorf("service.ExportService.Export: %w", err)
	}

	days, err := s.days.ListByTrip(ctx, tripID)
	if err != nil {
		return "", fmt.Errorf("service.ExportService.Export: %w", err)
	}
	dateByDay := lo.SliceToMap(days, func(d domain.ItineraryDay) (uuid.UUID, time.Time) {
		return d.ID, d.Date
	})

	activities, err := s.acts.ListByTrip(ctx, tripID)
	if err != nil {
		return "", fmt.Errorf("service.ExportService.Export: %w", err)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Wayfarer//Trip Export//EN")
	cal.SetName(trip.Destination)

	for _, a := range activities {
		date, ok := dateByDay[a.ItineraryDayID]
		if !ok {
			continue
		}
		addEvent(cal, a, date)
	}

	return cal.Serialize(), nil
}

func addEvent(cal *ics.Calendar, a domain.Activity, date time.Time) {
	ev := cal.AddEvent(a.ID.String() + "@wayfarer")
	ev.SetSummary(a.Title)
	if a.Location != "" {
		ev.SetLocation(a.Location)
	}
	if a.Notes != "" {
		ev.SetDescription(a.Notes)
	}

	switch {
	case a.Category == domain.CategoryLodging && a.CheckOutDate != nil:
		ev.SetAllDayStartAt(date)
		// DTEND is exclusive for all-day events.
		ev.SetAllDayEndAt(a.CheckOutDate.AddDate(0, 0, 1))
	case a.StartTime != nil:
		start := atClock(date, *a.StartTime)
		ev.SetStartAt(start)
		if a.EndTime != nil {
			ev.SetEndAt(atClock(date, *a.EndTime))
		} else {
			ev.SetEndAt(start.Add(time.Hour))
		}
	default:
		ev.SetAllDayStartAt(date)
		ev.SetAllDayEndAt(date.AddDate(0, 0, 1))
	}
}

// atClock combines a calendar date with an HH:MM clock time. Invalid clock
// values fall back to midnight; they should not survive validation anyway.
func atClock(date time.Time, clock string) time.Time {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return date
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}
