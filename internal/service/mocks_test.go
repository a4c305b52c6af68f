package service_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/acady/wayfarer/backend/internal/domain"
	"github.com/acady/wayfarer/backend/internal/extract"
	"github.com/acady/wayfarer/backend/internal/gmail"
	"github.com/acady/wayfarer/backend/internal/repo"
)

// Function-field mocks. A nil field means the test does not expect that call;
// hitting one panics, which testify reports with the stack.

// ---- trips ----

type mockTripRepo struct {
	ensureUserFn       func(ctx context.Context, userID uuid.UUID, email, displayName string) error
	createWithOwnerFn  func(ctx context.Context, trip domain.Trip, ownerID uuid.UUID) (domain.Trip, error)
	getByIDFn          func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	listByUserFn       func(ctx context.Context, userID uuid.UUID, status *domain.TripStatus) ([]domain.Trip, error)
	updateFn           func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	deleteFn           func(ctx context.Context, id uuid.UUID) error
	listMembersFn      func(ctx context.Context, tripID uuid.UUID) ([]domain.TripMember, error)
	getMemberRoleFn    func(ctx context.Context, tripID, userID uuid.UUID) (domain.MemberRole, error)
	addMemberFn        func(ctx context.Context, tripID uuid.UUID, email string) (domain.TripMember, error)
	removeMemberFn     func(ctx context.Context, tripID, memberID uuid.UUID) error
	updateMemberRoleFn func(ctx context.Context, tripID, memberID uuid.UUID, role domain.MemberRole) (domain.TripMember, error)
}

var _ repo.TripRepo = (*mockTripRepo)(nil)

func (m *mockTripRepo) EnsureUser(ctx context.Context, userID uuid.UUID, email, displayName string) error {
	return m.ensureUserFn(ctx, userID, email, displayName)
}

func (m *mockTripRepo) CreateWithOwner(ctx context.Context, trip domain.Trip, ownerID uuid.UUID) (domain.Trip, error) {
	return m.createWithOwnerFn(ctx, trip, ownerID)
}

func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockTripRepo) ListByUser(ctx context.Context, userID uuid.UUID, status *domain.TripStatus) ([]domain.Trip, error) {
	return m.listByUserFn(ctx, userID, status)
}

func (m *mockTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.updateFn(ctx, trip)
}

func (m *mockTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockTripRepo) ListMembers(ctx context.Context, tripID uuid.UUID) ([]domain.TripMember, error) {
	return m.listMembersFn(ctx, tripID)
}

func (m *mockTripRepo) GetMemberRole(ctx context.Context, tripID, userID uuid.UUID) (domain.MemberRole, error) {
	return m.getMemberRoleFn(ctx, tripID, userID)
}

func (m *mockTripRepo) AddMemberByEmail(ctx context.Context, tripID uuid.UUID, email string) (domain.TripMember, error) {
	return m.addMemberFn(ctx, tripID, email)
}

func (m *mockTripRepo) RemoveMember(ctx context.Context, tripID, memberID uuid.UUID) error {
	return m.removeMemberFn(ctx, tripID, memberID)
}

func (m *mockTripRepo) UpdateMemberRole(ctx context.Context, tripID, memberID uuid.UUID, role domain.MemberRole) (domain.TripMember, error) {
	return m.updateMemberRoleFn(ctx, tripID, memberID, role)
}

// memberOf returns a mockTripRepo where userID is a member of the given trip.
func memberOf(trip domain.Trip, userID uuid.UUID, role domain.MemberRole) *mockTripRepo {
	return &mockTripRepo{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
			if id != trip.ID {
				return domain.Trip{}, domain.ErrNotFound
			}
			return trip, nil
		},
		getMemberRoleFn: func(ctx context.Context, tripID, uid uuid.UUID) (domain.MemberRole, error) {
			if uid != userID {
				return "", domain.ErrNotFound
			}
			return role, nil
		},
	}
}

// ---- days ----

type mockDayRepo struct {
	listByTripFn func(ctx context.Context, tripID uuid.UUID) ([]domain.ItineraryDay, error)
	getByIDFn    func(ctx context.Context, id uuid.UUID) (domain.ItineraryDay, error)
	createFn     func(ctx context.Context, day domain.ItineraryDay) (domain.ItineraryDay, error)
	deleteFn     func(ctx context.Context, id uuid.UUID) error
	applyDeltaFn func(ctx context.Context, tripID uuid.UUID, create []time.Time, remove []uuid.UUID) error
}

var _ repo.DayRepo = (*mockDayRepo)(nil)

func (m *mockDayRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.ItineraryDay, error) {
	return m.listByTripFn(ctx, tripID)
}

func (m *mockDayRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.ItineraryDay, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockDayRepo) Create(ctx context.Context, day domain.ItineraryDay) (domain.ItineraryDay, error) {
	return m.createFn(ctx, day)
}

func (m *mockDayRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockDayRepo) ApplyDelta(ctx context.Context, tripID uuid.UUID, create []time.Time, remove []uuid.UUID) error {
	return m.applyDeltaFn(ctx, tripID, create, remove)
}

// ---- activities ----

type mockActivityRepo struct {
	createFn          func(ctx context.Context, a domain.Activity) (domain.Activity, error)
	getByIDFn         func(ctx context.Context, id uuid.UUID) (domain.Activity, error)
	listByDayFn       func(ctx context.Context, dayID uuid.UUID) ([]domain.Activity, error)
	listByTripFn      func(ctx context.Context, tripID uuid.UUID) ([]domain.Activity, error)
	updateFn          func(ctx context.Context, a domain.Activity) (domain.Activity, error)
	updatePositionsFn func(ctx context.Context, positions map[uuid.UUID]int) error
	deleteFn          func(ctx context.Context, id uuid.UUID) error
}

var _ repo.ActivityRepo = (*mockActivityRepo)(nil)

func (m *mockActivityRepo) Create(ctx context.Context, a domain.Activity) (domain.Activity, error) {
	return m.createFn(ctx, a)
}

func (m *mockActivityRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Activity, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockActivityRepo) ListByDay(ctx context.Context, dayID uuid.UUID) ([]domain.Activity, error) {
	return m.listByDayFn(ctx, dayID)
}

func (m *mockActivityRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Activity, error) {
	return m.listByTripFn(ctx, tripID)
}

func (m *mockActivityRepo) Update(ctx context.Context, a domain.Activity) (domain.Activity, error) {
	return m.updateFn(ctx, a)
}

func (m *mockActivityRepo) UpdatePositions(ctx context.Context, positions map[uuid.UUID]int) error {
	return m.updatePositionsFn(ctx, positions)
}

func (m *mockActivityRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

// ---- gmail persistence ----

type mockGmailRepo struct {
	getConnectionFn        func(ctx context.Context, userID uuid.UUID) (domain.GmailConnection, error)
	upsertConnectionFn     func(ctx context.Context, conn domain.GmailConnection) (domain.GmailConnection, error)
	deleteConnectionFn     func(ctx context.Context, userID uuid.UUID) error
	listConnectedFn        func(ctx context.Context) ([]uuid.UUID, error)
	listImportedEmailIDsFn func(ctx context.Context, userID uuid.UUID) ([]string, error)
	saveScanResultsFn      func(ctx context.Context, conn domain.GmailConnection, records []domain.ImportRecord, activities []domain.Activity) error
}

var _ repo.GmailRepo = (*mockGmailRepo)(nil)

func (m *mockGmailRepo) GetConnection(ctx context.Context, userID uuid.UUID) (domain.GmailConnection, error) {
	return m.getConnectionFn(ctx, userID)
}

func (m *mockGmailRepo) UpsertConnection(ctx context.Context, conn domain.GmailConnection) (domain.GmailConnection, error) {
	return m.upsertConnectionFn(ctx, conn)
}

func (m *mockGmailRepo) DeleteConnection(ctx context.Context, userID uuid.UUID) error {
	return m.deleteConnectionFn(ctx, userID)
}

func (m *mockGmailRepo) ListConnectedUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	return m.listConnectedFn(ctx)
}

func (m *mockGmailRepo) ListImportedEmailIDs(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return m.listImportedEmailIDsFn(ctx, userID)
}

func (m *mockGmailRepo) SaveScanResults(ctx context.Context, conn domain.GmailConnection, records []domain.ImportRecord, activities []domain.Activity) error {
	return m.saveScanResultsFn(ctx, conn, records, activities)
}

// ---- gmail transport ----

type mockConnector struct {
	connectFn func(ctx context.Context, conn domain.GmailConnection) (gmail.Session, domain.GmailConnection, error)
}

var _ gmail.Connector = (*mockConnector)(nil)

func (m *mockConnector) Connect(ctx context.Context, conn domain.GmailConnection) (gmail.Session, domain.GmailConnection, error) {
	return m.connectFn(ctx, conn)
}

type mockSession struct {
	searchFn  func(ctx context.Context, query string, max int) ([]string, error)
	messageFn func(ctx context.Context, id string) (gmail.Message, error)
}

var _ gmail.Session = (*mockSession)(nil)

func (m *mockSession) Search(ctx context.Context, query string, max int) ([]string, error) {
	return m.searchFn(ctx, query, max)
}

func (m *mockSession) Message(ctx context.Context, id string) (gmail.Message, error) {
	return m.messageFn(ctx, id)
}

// ---- extraction ----

type mockExtractor struct {
	extractFn func(ctx context.Context, text string) (extract.Booking, bool, error)
}

var _ extract.Extractor = (*mockExtractor)(nil)

func (m *mockExtractor) Extract(ctx context.Context, text string) (extract.Booking, bool, error) {
	return m.extractFn(ctx, text)
}

// ---- helpers ----

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func tripWithDates(start, end *time.Time) domain.Trip {
	return domain.Trip{
		ID:          uuid.New(),
		Type:        domain.TripVacation,
		Destination: "Lisbon",
		StartDate:   start,
		EndDate:     end,
		Status:      domain.StatusPlanning,
	}
}
