package service_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acady/wayfarer/backend/internal/domain"
	"github.com/acady/wayfarer/backend/internal/extract"
	"github.com/acady/wayfarer/backend/internal/gmail"
	"github.com/acady/wayfarer/backend/internal/service"
)

// scanFixture wires an ImportService around a three-day trip with every
// collaborator mocked. Tests override individual mock fields as needed.
type scanFixture struct {
	userID uuid.UUID
	trip   domain.Trip
	dayIDs map[string]uuid.UUID

	trips     *mockTripRepo
	days      *mockDayRepo
	gmails    *mockGmailRepo
	connector *mockConnector
	session   *mockSession
	extractor *mockExtractor

	saved struct {
		conn       domain.GmailConnection
		records    []domain.ImportRecord
		activities []domain.Activity
	}
}

func newScanFixture(t *testing.T) *scanFixture {
	t.Helper()

	f := &scanFixture{
		userID: uuid.New(),
		trip:   tripWithDates(datePtr(2026, time.June, 1), datePtr(2026, time.June, 3)),
		dayIDs: map[string]uuid.UUID{},
	}
	f.trips = memberOf(f.trip, f.userID, domain.RoleMember)

	var days []domain.ItineraryDay
	for d := 1; d <= 3; d++ {
		day := domain.ItineraryDay{ID: uuid.New(), TripID: f.trip.ID, Date: date(2026, time.June, d)}
		days = append(days, day)
		f.dayIDs[day.Date.Format("2006-01-02")] = day.ID
	}
	f.days = &mockDayRepo{
		listByTripFn: func(ctx context.Context, tripID uuid.UUID) ([]domain.ItineraryDay, error) {
			return days, nil
		},
	}

	f.gmails = &mockGmailRepo{
		getConnectionFn: func(ctx context.Context, userID uuid.UUID) (domain.GmailConnection, error) {
			return domain.GmailConnection{ID: uuid.New(), UserID: userID, AccessToken: "stale"}, nil
		},
		listImportedEmailIDsFn: func(ctx context.Context, userID uuid.UUID) ([]string, error) {
			return nil, nil
		},
		saveScanResultsFn: func(ctx context.Context, conn domain.GmailConnection, records []domain.ImportRecord, activities []domain.Activity) error {
			f.saved.conn = conn
			f.saved.records = records
			f.saved.activities = activities
			return nil
		},
	}

	f.session = &mockSession{
		searchFn: func(ctx context.Context, query string, max int) ([]string, error) {
			return nil, nil
		},
	}
	f.connector = &mockConnector{
		connectFn: func(ctx context.Context, conn domain.GmailConnection) (gmail.Session, domain.GmailConnection, error) {
			conn.AccessToken = "refreshed"
			return f.session, conn, nil
		},
	}
	f.extractor = &mockExtractor{}

	return f
}

func (f *scanFixture) svc() *service.ImportService {
	return service.NewImportService(f.trips, f.days, f.gmails, f.connector, f.extractor,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// ---- preconditions ----

func TestScan_NotConnected(t *testing.T) {
	f := newScanFixture(t)
	f.gmails.getConnectionFn = func(ctx context.Context, userID uuid.UUID) (domain.GmailConnection, error) {
		return domain.GmailConnection{}, domain.ErrNotFound
	}

	_, err := f.svc().Scan(context.Background(), f.userID, f.trip.ID)

	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestScan_TripWithoutDates(t *testing.T) {
	f := newScanFixture(t)
	f.trip.EndDate = nil
	f.trips = memberOf(f.trip, f.userID, domain.RoleMember)

	_, err := f.svc().Scan(context.Background(), f.userID, f.trip.ID)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestScan_NonMember(t *testing.T) {
	f := newScanFixture(t)
	stranger := uuid.New()

	_, err := f.svc().Scan(context.Background(), stranger, f.trip.ID)

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestScan_TokenRefreshFailure(t *testing.T) {
	f := newScanFixture(t)
	f.connector.connectFn = func(ctx context.Context, conn domain.GmailConnection) (gmail.Session, domain.GmailConnection, error) {
		return nil, domain.GmailConnection{}, fmt.Errorf("%w: token refresh", domain.ErrUpstream)
	}

	_, err := f.svc().Scan(context.Background(), f.userID, f.trip.ID)

	assert.ErrorIs(t, err, domain.ErrUpstream)
}

// ---- per-message outcomes ----

func TestScan_ImportsBookingOntoMatchingDay(t *testing.T) {
	f := newScanFixture(t)
	f.session.searchFn = func(ctx context.Context, query string, max int) ([]string, error) {
		assert.Equal(t, 50, max)
		return []string{"msg-1"}, nil
	}
	f.session.messageFn = func(ctx context.Context, id string) (gmail.Message, error) {
		return gmail.Message{ID: id, Text: "Your flight is confirmed"}, nil
	}
	f.extractor.extractFn = func(ctx context.Context, text string) (extract.Booking, bool, error) {
		return extract.Booking{
			Title:              "Flight AB123",
			Category:           "transport",
			Date:               "2026-06-02",
			StartTime:          "08:45",
			ConfirmationNumber: "XKCD42",
		}, true, nil
	}

	res, err := f.svc().Scan(context.Background(), f.userID, f.trip.ID)

	require.NoError(t, err)
	assert.Equal(t, service.ScanResult{Imported: 1, Skipped: 0}, res)

	require.Len(t, f.saved.records, 1)
	assert.Equal(t, "msg-1", f.saved.records[0].EmailID)

	require.Len(t, f.saved.activities, 1)
	a := f.saved.activities[0]
	assert.Equal(t, f.dayIDs["2026-06-02"], a.ItineraryDayID)
	assert.Equal(t, "Flight AB123", a.Title)
	assert.Equal(t, domain.CategoryTransport, a.Category)
	require.NotNil(t, a.StartTime)
	assert.Equal(t, "08:45", *a.StartTime)
	assert.Equal(t, 1000, a.SortOrder)
	assert.Equal(t, domain.SourceGmailImport, a.Source)
	assert.Equal(t, "msg-1", a.SourceRef)
	require.NotNil(t, a.ImportStatus)
	assert.Equal(t, domain.ImportPendingReview, *a.ImportStatus)

	assert.Equal(t, "refreshed", f.saved.conn.AccessToken)
	assert.NotNil(t, f.saved.conn.LastSyncAt)
}

func TestScan_SkipsAlreadyImportedWithoutFetching(t *testing.T) {
	f := newScanFixture(t)
	f.gmails.listImportedEmailIDsFn = func(ctx context.Context, userID uuid.UUID) ([]string, error) {
		return []string{"msg-1"}, nil
	}
	f.session.searchFn = func(ctx context.Context, query string, max int) ([]string, error) {
		return []string{"msg-1"}, nil
	}
	// messageFn stays nil: fetching a deduplicated message would panic.

	res, err := f.svc().Scan(context.Background(), f.userID, f.trip.ID)

	require.NoError(t, err)
	assert.Equal(t, service.ScanResult{Imported: 0, Skipped: 1}, res)
	assert.Empty(t, f.saved.records)
}

func TestScan_RecordsNonTravelMessage(t *testing.T) {
	f := newScanFixture(t)
	f.session.searchFn = func(ctx context.Context, query string, max int) ([]string, error) {
		return []string{"msg-1"}, nil
	}
	f.session.messageFn = func(ctx context.Context, id string) (gmail.Message, error) {
		return gmail.Message{ID: id, Text: "Weekly newsletter"}, nil
	}
	f.extractor.extractFn = func(ctx context.Context, text string) (extract.Booking, bool, error) {
		return extract.Booking{}, false, nil
	}

	res, err := f.svc().Scan(context.Background(), f.userID, f.trip.ID)

	require.NoError(t, err)
	assert.Equal(t, service.ScanResult{Imported: 0, Skipped: 1}, res)
	// The record stops the message from being reconsidered next scan.
	require.Len(t, f.saved.records, 1)
	assert.Equal(t, "msg-1", f.saved.records[0].EmailID)
	assert.Empty(t, f.saved.activities)
}

func TestScan_BookingOutsideItineraryIsRecordedButSkipped(t *testing.T) {
	f := newScanFixture(t)
	f.session.searchFn = func(ctx context.Context, query string, max int) ([]string, error) {
		return []string{"msg-1"}, nil
	}
	f.session.messageFn = func(ctx context.Context, id string) (gmail.Message, error) {
		return gmail.Message{ID: id, Text: "Hotel booked"}, nil
	}
	f.extractor.extractFn = func(ctx context.Context, text string) (extract.Booking, bool, error) {
		// Valid booking, but no itinerary day exists for this date. A scan
		// never creates days.
		return extract.Booking{Title: "Hotel Aurora", Category: "lodging", Date: "2026-07-15"}, true, nil
	}

	res, err := f.svc().Scan(context.Background(), f.userID, f.trip.ID)

	require.NoError(t, err)
	assert.Equal(t, service.ScanResult{Imported: 0, Skipped: 1}, res)
	require.Len(t, f.saved.records, 1)
	assert.Empty(t, f.saved.activities)
}

func TestScan_ExtractionErrorSkipsWithoutRecord(t *testing.T) {
	f := newScanFixture(t)
	f.session.searchFn = func(ctx context.Context, query string, max int) ([]string, error) {
		return []string{"msg-1"}, nil
	}
	f.session.messageFn = func(ctx context.Context, id string) (gmail.Message, error) {
		return gmail.Message{ID: id, Text: "booking"}, nil
	}
	f.extractor.extractFn = func(ctx context.Context, text string) (extract.Booking, bool, error) {
		return extract.Booking{}, false, fmt.Errorf("rate limited")
	}

	res, err := f.svc().Scan(context.Background(), f.userID, f.trip.ID)

	require.NoError(t, err)
	assert.Equal(t, service.ScanResult{Imported: 0, Skipped: 1}, res)
	// No record: a transient failure must stay retryable on the next scan.
	assert.Empty(t, f.saved.records)
}

func TestScan_MixedBatchCounts(t *testing.T) {
	f := newScanFixture(t)
	f.gmails.listImportedEmailIDsFn = func(ctx context.Context, userID uuid.UUID) ([]string, error) {
		return []string{"dup"}, nil
	}
	f.session.searchFn = func(ctx context.Context, query string, max int) ([]string, error) {
		return []string{"dup", "newsletter", "flight", "dinner"}, nil
	}
	f.session.messageFn = func(ctx context.Context, id string) (gmail.Message, error) {
		return gmail.Message{ID: id, Text: id}, nil
	}
	f.extractor.extractFn = func(ctx context.Context, text string) (extract.Booking, bool, error) {
		switch text {
		case "flight":
			return extract.Booking{Title: "Flight", Category: "transport", Date: "2026-06-01"}, true, nil
		case "dinner":
			return extract.Booking{Title: "Dinner", Category: "food", Date: "2026-06-03"}, true, nil
		default:
			return extract.Booking{}, false, nil
		}
	}

	res, err := f.svc().Scan(context.Background(), f.userID, f.trip.ID)

	require.NoError(t, err)
	assert.Equal(t, service.ScanResult{Imported: 2, Skipped: 2}, res)
	assert.Len(t, f.saved.records, 3)
	assert.Len(t, f.saved.activities, 2)
}

func TestScan_EmptyMailboxStillStampsSync(t *testing.T) {
	f := newScanFixture(t)

	res, err := f.svc().Scan(context.Background(), f.userID, f.trip.ID)

	require.NoError(t, err)
	assert.Equal(t, service.ScanResult{}, res)
	assert.NotNil(t, f.saved.conn.LastSyncAt)
}
