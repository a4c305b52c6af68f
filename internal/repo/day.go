package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/acady/wayfarer/backend/internal/domain"
)

// DayRepo defines the persistence operations for itinerary days.
type DayRepo interface {
	// ListByTrip returns all days of a trip ordered by date, with
	// ActivityCount populated in a single pass (outer join, no N+1).
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.ItineraryDay, error)

	// GetByID retrieves a single day. Returns domain.ErrNotFound if missing.
	GetByID(ctx context.Context, id uuid.UUID) (domain.ItineraryDay, error)

	// Create inserts one explicitly user-created day.
	// Returns domain.ErrConflict when the trip already has a day on that date.
	Create(ctx context.Context, day domain.ItineraryDay) (domain.ItineraryDay, error)

	// Delete removes a day and, by cascade, its activities.
	Delete(ctx context.Context, id uuid.UUID) error

	// ApplyDelta creates one day per date in create and removes the days in
	// remove, atomically. Inserts use ON CONFLICT DO NOTHING on (trip_id, date),
	// so a concurrent reconcile racing on the same trip degrades to a no-op
	// rather than an error.
	ApplyDelta(ctx context.Context, tripID uuid.UUID, create []time.Time, remove []uuid.UUID) error
}

// pgDayRepo is the Postgres implementation of DayRepo.
type pgDayRepo struct {
	db db
}

// NewDayRepo constructs a DayRepo backed by the provided db connection.
func NewDayRepo(db db) DayRepo {
	return &pgDayRepo{db: db}
}

func (r *pgDayRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.ItineraryDay, error) {
	const q = `
		SELECT d.id, d.trip_id, d.date, d.notes, d.created_at, COUNT(a.id)
		FROM itinerary_days d
		LEFT JOIN activities a ON a.itinerary_day_id = d.id
		WHERE d.trip_id = @trip_id
		GROUP BY d.id
		ORDER BY d.date`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.DayRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	var days []domain.ItineraryDay
	for rows.Next() {
		d, err := scanDay(rows, true)
		if err != nil {
			return nil, fmt.Errorf("repo.DayRepo.ListByTrip: scan: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.DayRepo.ListByTrip: rows: %w", err)
	}

	return days, nil
}

func (r *pgDayRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.ItineraryDay, error) {
	const q = `
		SELECT id, trip_id, date, notes, created_at
		FROM itinerary_days
		WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	d, err := scanDay(row, false)
	if err != nil {
		return domain.ItineraryDay{}, fmt.Errorf("repo.DayRepo.GetByID: %w", err)
	}
	return d, nil
}

func (r *pgDayRepo) Create(ctx context.Context, day domain.ItineraryDay) (domain.ItineraryDay, error) {
	const q = `
		INSERT INTO itinerary_days (trip_id, date, notes)
		VALUES (@trip_id, @date, @notes)
		RETURNING id, trip_id, date, notes, created_at`

	args := pgx.NamedArgs{
		"trip_id": day.TripID,
		"date":    day.Date,
		"notes":   day.Notes,
	}

	row := r.db.QueryRow(ctx, q, args)
	created, err := scanDay(row, false)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ItineraryDay{}, fmt.Errorf("repo.DayRepo.Create: %w", domain.ErrConflict)
		}
		return domain.ItineraryDay{}, fmt.Errorf("repo.DayRepo.Create: %w", err)
	}
	return created, nil
}

func (r *pgDayRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM itinerary_days WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.DayRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.DayRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgDayRepo) ApplyDelta(ctx context.Context, tripID uuid.UUID, create []time.Time, remove []uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.DayRepo.ApplyDelta: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if len(create) > 0 {
		const insert = `
			INSERT INTO itinerary_days (trip_id, date)
			SELECT @trip_id, unnest(@dates::date[])
			ON CONFLICT (trip_id, date) DO NOTHING`

		dates := make([]pgtype.Date, len(create))
		for i, d := range create {
			dates[i] = pgtype.Date{Time: d, Valid: true}
		}
		if _, err := tx.Exec(ctx, insert, pgx.NamedArgs{"trip_id": tripID, "dates": dates}); err != nil {
			return fmt.Errorf("repo.DayRepo.ApplyDelta: insert: %w", err)
		}
	}

	if len(remove) > 0 {
		const del = `DELETE FROM itinerary_days WHERE trip_id = @trip_id AND id = ANY(@ids)`

		if _, err := tx.Exec(ctx, del, pgx.NamedArgs{"trip_id": tripID, "ids": remove}); err != nil {
			return fmt.Errorf("repo.DayRepo.ApplyDelta: delete: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.DayRepo.ApplyDelta: commit: %w", err)
	}
	return nil
}

// scanDay maps a day row into a domain.ItineraryDay.
// withCount controls whether a trailing activity count column is expected.
func scanDay(s scanner, withCount bool) (domain.ItineraryDay, error) {
	var (
		d      domain.ItineraryDay
		id     pgtype.UUID
		tripID pgtype.UUID
		date   pgtype.Date
	)

	dest := []any{&id, &tripID, &date, &d.Notes, &d.CreatedAt}
	if withCount {
		dest = append(dest, &d.ActivityCount)
	}

	if err := s.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ItineraryDay{}, domain.ErrNotFound
		}
		return domain.ItineraryDay{}, err
	}

	d.ID = uuid.UUID(id.Bytes)
	d.TripID = uuid.UUID(tripID.Bytes)
	d.Date = date.Time
	return d, nil
}
