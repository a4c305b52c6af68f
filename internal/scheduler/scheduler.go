// Package scheduler runs the periodic mailbox sweep: every connected user's
// scannable trips get a booking import pass on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/acady/wayfarer/backend/internal/domain"
	"github.com/acady/wayfarer/backend/internal/repo"
	"github.com/acady/wayfarer/backend/internal/service"
)

// sweepTimeout bounds one full sweep across all users.
const sweepTimeout = 30 * time.Minute

// Scanner is the slice of the import service the sweep needs.
type Scanner interface {
	Scan(ctx context.Context, userID, tripID uuid.UUID) (service.ScanResult, error)
}

// Scheduler owns the cron instance driving periodic scans.
type Scheduler struct {
	cron    *cron.Cron
	gmails  repo.GmailRepo
	trips   repo.TripRepo
	scanner Scanner
	log     *slog.Logger
}

// New constructs a Scheduler. Call Start to begin sweeping.
func New(gmails repo.GmailRepo, trips repo.TripRepo, scanner Scanner, log *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		gmails:  gmails,
		trips:   trips,
		scanner: scanner,
		log:     log,
	}
}

// Start registers the sweep under the given cron spec and starts the cron
// loop in its own goroutine.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		s.Sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduler.Scheduler.Start: %w", err)
	}
	s.cron.Start()
	s.log.Info("scan scheduler started", "spec", spec)
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep scans every scannable trip of every connected user. Failures are
// logged and skipped; one broken mailbox must not stall the rest.
func (s *Scheduler) Sweep(ctx context.Context) {
	userIDs, err := s.gmails.ListConnectedUserIDs(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "sweep: listing connected users failed", "error", err)
		return
	}

	for _, userID := range userIDs {
		trips, err := s.trips.ListByUser(ctx, userID, nil)
		if err != nil {
			s.log.ErrorContext(ctx, "sweep: listing trips failed", "user_id", userID, "error", err)
			continue
		}

		for _, trip := range trips {
			if !scannable(trip) {
				continue
			}
			result, err := s.scanner.Scan(ctx, userID, trip.ID)
			if err != nil {
				s.log.ErrorContext(ctx, "sweep: scan failed",
					"user_id", userID, "trip_id", trip.ID, "error", err)
				continue
			}
			if result.Imported > 0 || result.Skipped > 0 {
				s.log.InfoContext(ctx, "sweep: scanned trip",
					"user_id", userID, "trip_id", trip.ID,
					"imported", result.Imported, "skipped", result.Skipped)
			}
		}
	}
}

// scannable reports whether a trip is worth a mailbox pass: it needs a full
// date range and an active planning state.
func scannable(t domain.Trip) bool {
	if t.StartDate == nil || t.EndDate == nil {
		return false
	}
	return t.Status == domain.StatusPlanning || t.Status == domain.StatusBooked
}
