package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/acady/wayfarer/backend/internal/domain"
	"github.com/acady/wayfarer/backend/internal/extract"
	"github.com/acady/wayfarer/backend/internal/gmail"
	"github.com/acady/wayfarer/backend/internal/repo"
)

const (
	// maxScanMessages bounds one scan's mailbox search.
	maxScanMessages = 50

	// maxExcerptLen bounds the email text sent to the extraction service.
	maxExcerptLen = 4000

	// importedSortOrder places imported activities after manually ordered
	// ones. Positions are relative, so a shared value for all imports is fine.
	importedSortOrder = 1000

	// scanLookbackDays widens the mailbox search window before the trip start,
	// since bookings are usually confirmed well ahead of travel.
	scanLookbackDays = 90
)

// searchKeywords narrows the mailbox search to likely booking confirmations.
const searchKeywords = `(booking OR reservation OR confirmation OR itinerary OR "check-in")`

// ScanResult summarizes one mailbox scan.
type ScanResult struct {
	Imported int `json:"imported_count"`
	Skipped  int `json:"skipped_count"`
}

// ConnectionStatus reports whether the user has a Gmail connection and when
// it last synced.
type ConnectionStatus struct {
	Connected  bool       `json:"connected"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
}

// ImportService scans a connected Gmail mailbox for booking confirmations and
// turns them into pending-review activities on a trip's itinerary.
type ImportService struct {
	trips     repo.TripRepo
	days      repo.DayRepo
	gmails    repo.GmailRepo
	connector gmail.Connector
	extractor extract.Extractor
	log       *slog.Logger
}

// NewImportService constructs an ImportService.
func NewImportService(trips repo.TripRepo, days repo.DayRepo, gmails repo.GmailRepo, connector gmail.Connector, extractor extract.Extractor, log *slog.Logger) *ImportService {
	return &ImportService{trips: trips, days: days, gmails: gmails, connector: connector, extractor: extractor, log: log}
}

// Status reports the user's Gmail connection state.
func (s *ImportService) Status(ctx context.Context, userID uuid.UUID) (ConnectionStatus, error) {
	conn, err := s.gmails.GetConnection(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ConnectionStatus{}, nil
		}
		return ConnectionStatus{}, fmt.Errorf("service.ImportService.Status: %w", err)
	}
	return ConnectionStatus{Connected: true, LastSyncAt: conn.LastSyncAt}, nil
}

// Disconnect removes the user's Gmail connection. Already-imported activities
// and import records stay.
func (s *ImportService) Disconnect(ctx context.Context, userID uuid.UUID) error {
	if err := s.gmails.DeleteConnection(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: gmail is not connected", domain.ErrNotConnected)
		}
		return fmt.Errorf("service.ImportService.Disconnect: %w", err)
	}
	return nil
}

// Scan runs the import pipeline for one user and trip.
//
// Connection and trip preconditions fail the whole scan; per-message problems
// (unreadable message, extraction failure, unparseable booking, no matching
// day) only skip that message. Every message that reaches extraction gets an
// import record so later scans never reconsider it, whether or not an
// activity came out of it. Nothing is persisted until the single transaction
// at the end.
func (s *ImportService) Scan(ctx context.Context, userID, tripID uuid.UUID) (ScanResult, error) {
	conn, err := s.gmails.GetConnection(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ScanResult{}, fmt.Errorf("%w: gmail is not connected", domain.ErrNotConnected)
		}
		return ScanResult{}, fmt.Errorf("service.ImportService.Scan: %w", err)
	}

	trip, _, err := verifyMember(ctx, s.trips, tripID, userID)
	if err != nil {
		return ScanResult{}, fmt.Errorf("service.ImportService.Scan: %w", err)
	}
	if trip.StartDate == nil || trip.EndDate == nil {
		return ScanResult{}, fmt.Errorf("%w: trip must have start and end dates", domain.ErrValidation)
	}

	days, err := s.days.ListByTrip(ctx, tripID)
	if err != nil {
		return ScanResult{}, fmt.Errorf("service.ImportService.Scan: %w", err)
	}
	dayByDate := lo.SliceToMap(days, func(d domain.ItineraryDay) (string, uuid.UUID) {
		return dateKey(d.Date), d.ID
	})

	seenIDs, err := s.gmails.ListImportedEmailIDs(ctx, userID)
	if err != nil {
		return ScanResult{}, fmt.Errorf("service.ImportService.Scan: %w", err)
	}
	seen := lo.SliceToMap(seenIDs, func(id string) (string, struct{}) { return id, struct{}{} })

	session, conn, err := s.connector.Connect(ctx, conn)
	if err != nil {
		return ScanResult{}, fmt.Errorf("service.ImportService.Scan: %w", err)
	}

	messageIDs, err := session.Search(ctx, searchQuery(*trip.StartDate, *trip.EndDate), maxScanMessages)
	if err != nil {
		return ScanResult{}, fmt.Errorf("service.ImportService.Scan: %w: %v", domain.ErrUpstream, err)
	}

	var (
		result     ScanResult
		records    []domain.ImportRecord
		activities []domain.Activity
	)
	for _, id := range messageIDs {
		if _, ok := seen[id]; ok {
			result.Skipped++
			continue
		}

		msg, err := session.Message(ctx, id)
		if err != nil {
			// Transient fetch failure: skip without a record so a later
			// scan can retry this message.
			s.log.WarnContext(ctx, "failed to fetch message, skipping", "email_id", id, "error", err)
			result.Skipped++
			continue
		}

		booking, ok, err := s.extractor.Extract(ctx, excerpt(msg.Text))
		if err != nil {
			s.log.WarnContext(ctx, "extraction failed, skipping", "email_id", id, "error", err)
			result.Skipped++
			continue
		}

		records = append(records, domain.ImportRecord{
			UserID:     userID,
			EmailID:    id,
			ParsedData: parsedData(booking, ok),
		})
		if !ok {
			result.Skipped++
			continue
		}

		activity, ok := s.buildActivity(ctx, booking, id, dayByDate)
		if !ok {
			result.Skipped++
			continue
		}
		activities = append(activities, activity)
		result.Imported++
	}

	now := time.Now().UTC()
	conn.LastSyncAt = &now
	if err := s.gmails.SaveScanResults(ctx, conn, records, activities); err != nil {
		return ScanResult{}, fmt.Errorf("service.ImportService.Scan: %w", err)
	}

	return result, nil
}

// buildActivity maps an extracted booking onto an itinerary day. Returns false
// when the booking date is unparseable or no day exists for it; a scan never
// creates days.
func (s *ImportService) buildActivity(ctx context.Context, b extract.Booking, emailID string, dayByDate map[string]uuid.UUID) (domain.Activity, bool) {
	date, err := time.Parse("2006-01-02", b.Date)
	if err != nil {
		s.log.WarnContext(ctx, "booking has unparseable date, skipping", "email_id", emailID, "date", b.Date)
		return domain.Activity{}, false
	}
	dayID, ok := dayByDate[dateKey(date)]
	if !ok {
		s.log.InfoContext(ctx, "booking date outside itinerary, skipping", "email_id", emailID, "date", b.Date)
		return domain.Activity{}, false
	}

	status := domain.ImportPendingReview
	return domain.Activity{
		ItineraryDayID:     dayID,
		Title:              b.Title,
		Category:           domain.ParseCategory(b.Category),
		StartTime:          clockOrNil(b.StartTime),
		EndTime:            clockOrNil(b.EndTime),
		Location:           b.Location,
		Notes:              b.Notes,
		ConfirmationNumber: b.ConfirmationNumber,
		CheckOutDate:       dateOrNil(b.CheckOutDate),
		SortOrder:          importedSortOrder,
		Source:             domain.SourceGmailImport,
		SourceRef:          emailID,
		ImportStatus:       &status,
	}, true
}

// searchQuery builds the Gmail query for a trip's booking window.
func searchQuery(start, end time.Time) string {
	after := start.AddDate(0, 0, -scanLookbackDays)
	before := end.AddDate(0, 0, 1)
	return fmt.Sprintf("%s after:%s before:%s",
		searchKeywords, after.Format("2006/01/02"), before.Format("2006/01/02"))
}

// excerpt caps the email text handed to the extraction service.
func excerpt(text string) string {
	if len(text) > maxExcerptLen {
		return text[:maxExcerptLen]
	}
	return text
}

// parsedData serializes the extraction outcome for the import record.
func parsedData(b extract.Booking, travel bool) []byte {
	if !travel {
		return []byte(`{"travel": false}`)
	}
	data, err := json.Marshal(b)
	if err != nil {
		return []byte(`{}`)
	}
	return data
}

// clockOrNil keeps a model-produced clock time only when it is a valid HH:MM.
func clockOrNil(s string) *string {
	if _, err := time.Parse("15:04", s); err != nil {
		return nil
	}
	return &s
}

// dateOrNil keeps a model-produced date only when it is a valid YYYY-MM-DD.
func dateOrNil(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
