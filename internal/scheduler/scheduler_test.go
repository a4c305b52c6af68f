package scheduler_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/acady/wayfarer/backend/internal/domain"
	"github.com/acady/wayfarer/backend/internal/scheduler"
	"github.com/acady/wayfarer/backend/internal/service"
)

type sweepGmailRepo struct {
	userIDs []uuid.UUID
}

func (r *sweepGmailRepo) ListConnectedUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	return r.userIDs, nil
}

func (r *sweepGmailRepo) GetConnection(ctx context.Context, userID uuid.UUID) (domain.GmailConnection, error) {
	panic("not used")
}

func (r *sweepGmailRepo) UpsertConnection(ctx context.Context, conn domain.GmailConnection) (domain.GmailConnection, error) {
	panic("not used")
}

func (r *sweepGmailRepo) DeleteConnection(ctx context.Context, userID uuid.UUID) error {
	panic("not used")
}

func (r *sweepGmailRepo) ListImportedEmailIDs(ctx context.Context, userID uuid.UUID) ([]string, error) {
	panic("not used")
}

func (r *sweepGmailRepo) SaveScanResults(ctx context.Context, conn domain.GmailConnection, records []domain.ImportRecord, activities []domain.Activity) error {
	panic("not used")
}

type sweepTripRepo struct {
	byUser map[uuid.UUID][]domain.Trip
}

func (r *sweepTripRepo) ListByUser(ctx context.Context, userID uuid.UUID, status *domain.TripStatus) ([]domain.Trip, error) {
	return r.byUser[userID], nil
}

func (r *sweepTripRepo) EnsureUser(ctx context.Context, userID uuid.UUID, email, displayName string) error {
	panic("not used")
}

func (r *sweepTripRepo) CreateWithOwner(ctx context.Context, trip domain.Trip, ownerID uuid.UUID) (domain.Trip, error) {
	panic("not used")
}

func (r *sweepTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	panic("not used")
}

func (r *sweepTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	panic("not used")
}

func (r *sweepTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	panic("not used")
}

func (r *sweepTripRepo) ListMembers(ctx context.Context, tripID uuid.UUID) ([]domain.TripMember, error) {
	panic("not used")
}

func (r *sweepTripRepo) GetMemberRole(ctx context.Context, tripID, userID uuid.UUID) (domain.MemberRole, error) {
	panic("not used")
}

func (r *sweepTripRepo) AddMemberByEmail(ctx context.Context, tripID uuid.UUID, email string) (domain.TripMember, error) {
	panic("not used")
}

func (r *sweepTripRepo) RemoveMember(ctx context.Context, tripID, memberID uuid.UUID) error {
	panic("not used")
}

func (r *sweepTripRepo) UpdateMemberRole(ctx context.Context, tripID, memberID uuid.UUID, role domain.MemberRole) (domain.TripMember, error) {
	panic("not used")
}

type recordingScanner struct {
	scanned []uuid.UUID
	fail    map[uuid.UUID]bool
}

func (s *recordingScanner) Scan(ctx context.Context, userID, tripID uuid.UUID) (service.ScanResult, error) {
	if s.fail[tripID] {
		return service.ScanResult{}, fmt.Errorf("boom")
	}
	s.scanned = append(s.scanned, tripID)
	return service.ScanResult{Imported: 1}, nil
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestSweep_ScansOnlyScannableTrips(t *testing.T) {
	userID := uuid.New()
	ready := domain.Trip{ID: uuid.New(), Status: domain.StatusPlanning,
		StartDate: datePtr(2026, time.June, 1), EndDate: datePtr(2026, time.June, 3)}
	noDates := domain.Trip{ID: uuid.New(), Status: domain.StatusPlanning}
	completed := domain.Trip{ID: uuid.New(), Status: domain.StatusCompleted,
		StartDate: datePtr(2026, time.May, 1), EndDate: datePtr(2026, time.May, 3)}

	scanner := &recordingScanner{}
	s := scheduler.New(
		&sweepGmailRepo{userIDs: []uuid.UUID{userID}},
		&sweepTripRepo{byUser: map[uuid.UUID][]domain.Trip{userID: {ready, noDates, completed}}},
		scanner,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	s.Sweep(context.Background())

	assert.Equal(t, []uuid.UUID{ready.ID}, scanner.scanned)
}

func TestSweep_FailureDoesNotStopOtherUsers(t *testing.T) {
	user1, user2 := uuid.New(), uuid.New()
	trip1 := domain.Trip{ID: uuid.New(), Status: domain.StatusBooked,
		StartDate: datePtr(2026, time.June, 1), EndDate: datePtr(2026, time.June, 3)}
	trip2 := domain.Trip{ID: uuid.New(), Status: domain.StatusBooked,
		StartDate: datePtr(2026, time.July, 1), EndDate: datePtr(2026, time.July, 3)}

	scanner := &recordingScanner{fail: map[uuid.UUID]bool{trip1.ID: true}}
	s := scheduler.New(
		&sweepGmailRepo{userIDs: []uuid.UUID{user1, user2}},
		&sweepTripRepo{byUser: map[uuid.UUID][]domain.Trip{user1: {trip1}, user2: {trip2}}},
		scanner,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	s.Sweep(context.Background())

	assert.Equal(t, []uuid.UUID{trip2.ID}, scanner.scanned)
}
