package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/acady/wayfarer/backend/internal/domain"
)

// TripRepo defines the persistence operations for trips and their members.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// EnsureUser upserts a user profile row so it can be referenced by
	// trip_members. Existing profiles are left untouched.
	EnsureUser(ctx context.Context, userID uuid.UUID, email, displayName string) error

	// CreateWithOwner inserts a trip and its owner membership atomically and
	// returns the persisted trip.
	CreateWithOwner(ctx context.Context, trip domain.Trip, ownerID uuid.UUID) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// ListByUser returns all trips the user is a member of, newest start first.
	// A non-nil status filters by trip status.
	ListByUser(ctx context.Context, userID uuid.UUID, status *domain.TripStatus) ([]domain.Trip, error)

	// Update overwrites the mutable fields of an existing trip and returns the
	// updated record. Returns domain.ErrNotFound if no trip with that ID exists.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// Delete removes a trip by ID. Cascades to days, activities, checklists,
	// and memberships. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListMembers returns all members of a trip with profile fields resolved.
	ListMembers(ctx context.Context, tripID uuid.UUID) ([]domain.TripMember, error)

	// GetMemberRole returns the role of userID on the trip.
	// Returns domain.ErrNotFound when the user is not a member.
	GetMemberRole(ctx context.Context, tripID, userID uuid.UUID) (domain.MemberRole, error)

	// AddMemberByEmail links an existing user to the trip as a plain member.
	// Returns domain.ErrNotFound if no user has that email and
	// domain.ErrConflict if they already belong to the trip.
	AddMemberByEmail(ctx context.Context, tripID uuid.UUID, email string) (domain.TripMember, error)

	// RemoveMember deletes a membership by its own id, scoped to the trip.
	RemoveMember(ctx context.Context, tripID, memberID uuid.UUID) error

	// UpdateMemberRole changes a member's role and returns the updated record.
	UpdateMemberRole(ctx context.Context, tripID, memberID uuid.UUID, role domain.MemberRole) (domain.TripMember, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, type, destination, start_date, end_date, status, notes,
	destination_latitude, destination_longitude, created_at, updated_at`

func (r *pgTripRepo) EnsureUser(ctx context.Context, userID uuid.UUID, email, displayName string) error {
	const q = `
		INSERT INTO user_profiles (id, email, display_name)
		VALUES (@id, @email, @display_name)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"id":           userID,
		"email":        email,
		"display_name": displayName,
	})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.EnsureUser: %w", err)
	}
	return nil
}

func (r *pgTripRepo) CreateWithOwner(ctx context.Context, trip domain.Trip, ownerID uuid.UUID) (domain.Trip, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.CreateWithOwner: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertTrip = `
		INSERT INTO trips (type, destination, start_date, end_date, status, notes,
			destination_latitude, destination_longitude)
		VALUES (@type, @destination, @start_date, @end_date, @status, @notes,
			@destination_latitude, @destination_longitude)
		RETURNING ` + tripColumns

	row := tx.QueryRow(ctx, insertTrip, tripArgs(trip))
	created, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.CreateWithOwner: %w", err)
	}

	const insertMember = `
		INSERT INTO trip_members (trip_id, user_id, role)
		VALUES (@trip_id, @user_id, @role)`

	_, err = tx.Exec(ctx, insertMember, pgx.NamedArgs{
		"trip_id": created.ID,
		"user_id": ownerID,
		"role":    domain.RoleOwner,
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.CreateWithOwner: member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.CreateWithOwner: commit: %w", err)
	}
	return created, nil
}

func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) ListByUser(ctx context.Context, userID uuid.UUID, status *domain.TripStatus) ([]domain.Trip, error) {
	q := `
		SELECT ` + tripColumnsAliased("t") + `
		FROM trips t
		JOIN trip_members m ON m.trip_id = t.id
		WHERE m.user_id = @user_id`
	args := pgx.NamedArgs{"user_id": userID}
	if status != nil {
		q += ` AND t.status = @status`
		args["status"] = *status
	}
	q += ` ORDER BY t.start_date DESC NULLS LAST, t.created_at DESC`

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	var trips []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TripRepo.ListByUser: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListByUser: rows: %w", err)
	}

	return trips, nil
}

func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET type                  = @type,
		    destination           = @destination,
		    start_date            = @start_date,
		    end_date              = @end_date,
		    status                = @status,
		    notes                 = @notes,
		    destination_latitude  = @destination_latitude,
		    destination_longitude = @destination_longitude,
		    updated_at            = now()
		WHERE id = @id
		RETURNING ` + tripColumns

	args := tripArgs(trip)
	args["id"] = trip.ID

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM trips WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgTripRepo) ListMembers(ctx context.Context, tripID uuid.UUID) ([]domain.TripMember, error) {
	const q = `
		SELECT m.id, m.trip_id, m.user_id, m.role, u.display_name, COALESCE(u.email, '')
		FROM trip_members m
		JOIN user_profiles u ON u.id = m.user_id
		WHERE m.trip_id = @trip_id
		ORDER BY m.id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListMembers: %w", err)
	}
	defer rows.Close()

	var members []domain.TripMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TripRepo.ListMembers: scan: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListMembers: rows: %w", err)
	}

	return members, nil
}

func (r *pgTripRepo) GetMemberRole(ctx context.Context, tripID, userID uuid.UUID) (domain.MemberRole, error) {
	const q = `SELECT role FROM trip_members WHERE trip_id = @trip_id AND user_id = @user_id`

	var role domain.MemberRole
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_id": userID}).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("repo.TripRepo.GetMemberRole: %w", domain.ErrNotFound)
		}
		return "", fmt.Errorf("repo.TripRepo.GetMemberRole: %w", err)
	}
	return role, nil
}

func (r *pgTripRepo) AddMemberByEmail(ctx context.Context, tripID uuid.UUID, email string) (domain.TripMember, error) {
	const q = `
		INSERT INTO trip_members (trip_id, user_id, role)
		SELECT @trip_id, u.id, @role
		FROM user_profiles u
		WHERE u.email = @email
		RETURNING id, trip_id, user_id, role`

	var m domain.TripMember
	var id, memberTripID, memberUserID pgtype.UUID
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"trip_id": tripID,
		"role":    domain.RoleMember,
		"email":   email,
	}).Scan(&id, &memberTripID, &memberUserID, &m.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TripMember{}, fmt.Errorf("repo.TripRepo.AddMemberByEmail: %w", domain.ErrNotFound)
		}
		if isUniqueViolation(err) {
			return domain.TripMember{}, fmt.Errorf("repo.TripRepo.AddMemberByEmail: %w", domain.ErrConflict)
		}
		return domain.TripMember{}, fmt.Errorf("repo.TripRepo.AddMemberByEmail: %w", err)
	}
	m.ID = uuid.UUID(id.Bytes)
	m.TripID = uuid.UUID(memberTripID.Bytes)
	m.UserID = uuid.UUID(memberUserID.Bytes)
	m.Email = email
	return m, nil
}

func (r *pgTripRepo) RemoveMember(ctx context.Context, tripID, memberID uuid.UUID) error {
	const q = `DELETE FROM trip_members WHERE id = @id AND trip_id = @trip_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": memberID, "trip_id": tripID})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.RemoveMember: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.RemoveMember: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgTripRepo) UpdateMemberRole(ctx context.Context, tripID, memberID uuid.UUID, role domain.MemberRole) (domain.TripMember, error) {
	const q = `
		UPDATE trip_members
		SET role = @role
		WHERE id = @id AND trip_id = @trip_id
		RETURNING id, trip_id, user_id, role`

	var m domain.TripMember
	var id, mTripID, mUserID pgtype.UUID
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": memberID, "trip_id": tripID, "role": role}).
		Scan(&id, &mTripID, &mUserID, &m.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TripMember{}, fmt.Errorf("repo.TripRepo.UpdateMemberRole: %w", domain.ErrNotFound)
		}
		return domain.TripMember{}, fmt.Errorf("repo.TripRepo.UpdateMemberRole: %w", err)
	}
	m.ID = uuid.UUID(id.Bytes)
	m.TripID = uuid.UUID(mTripID.Bytes)
	m.UserID = uuid.UUID(mUserID.Bytes)
	return m, nil
}

// --- scan helpers -----------------------------------------------------------

// tripColumnsAliased prefixes each trip column with the given table alias.
func tripColumnsAliased(alias string) string {
	return alias + `.id, ` + alias + `.type, ` + alias + `.destination, ` + alias + `.start_date, ` +
		alias + `.end_date, ` + alias + `.status, ` + alias + `.notes, ` +
		alias + `.destination_latitude, ` + alias + `.destination_longitude, ` +
		alias + `.created_at, ` + alias + `.updated_at`
}

// tripArgs builds the named args shared by Create and Update.
func tripArgs(trip domain.Trip) pgx.NamedArgs {
	return pgx.NamedArgs{
		"type":                  trip.Type,
		"destination":           trip.Destination,
		"start_date":            trip.StartDate, // nil becomes NULL
		"end_date":              trip.EndDate,
		"status":                trip.Status,
		"notes":                 trip.Notes,
		"destination_latitude":  trip.DestinationLatitude,
		"destination_longitude": trip.DestinationLongitude,
	}
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the UUID and nullable date/coordinate conversions.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t         domain.Trip
		id        pgtype.UUID
		startDate pgtype.Date
		endDate   pgtype.Date
	)

	err := s.Scan(&id, &t.Type, &t.Destination, &startDate, &endDate, &t.Status,
		&t.Notes, &t.DestinationLatitude, &t.DestinationLongitude, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	if startDate.Valid {
		sd := startDate.Time
		t.StartDate = &sd
	}
	if endDate.Valid {
		ed := endDate.Time
		t.EndDate = &ed
	}

	return t, nil
}

// scanMember maps a member row (with joined profile fields) into a domain.TripMember.
func scanMember(s scanner) (domain.TripMember, error) {
	var (
		m      domain.TripMember
		id     pgtype.UUID
		tripID pgtype.UUID
		userID pgtype.UUID
	)

	if err := s.Scan(&id, &tripID, &userID, &m.Role, &m.DisplayName, &m.Email); err != nil {
		return domain.TripMember{}, err
	}

	m.ID = uuid.UUID(id.Bytes)
	m.TripID = uuid.UUID(tripID.Bytes)
	m.UserID = uuid.UUID(userID.Bytes)
	return m, nil
}
