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

// ActivityRepo defines the persistence operations for activities.
type ActivityRepo interface {
	// Create inserts a new activity and returns the persisted record.
	Create(ctx context.Context, a domain.Activity) (domain.Activity, error)

	// GetByID retrieves a single activity. Returns domain.ErrNotFound if missing.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Activity, error)

	// ListByDay returns a day's activities ordered by sort_order.
	ListByDay(ctx context.Context, dayID uuid.UUID) ([]domain.Activity, error)

	// ListByTrip returns every activity of a trip, ordered by day date then
	// sort_order. Used for export.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Activity, error)

	// Update overwrites the mutable fields of an activity (including its day
	// reference) and returns the updated record.
	Update(ctx context.Context, a domain.Activity) (domain.Activity, error)

	// UpdatePositions assigns new sort positions atomically.
	UpdatePositions(ctx context.Context, positions map[uuid.UUID]int) error

	// Delete removes an activity. Sibling positions are not touched.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgActivityRepo is the Postgres implementation of ActivityRepo.
type pgActivityRepo struct {
	db db
}

// NewActivityRepo constructs an ActivityRepo backed by the provided db connection.
func NewActivityRepo(db db) ActivityRepo {
	return &pgActivityRepo{db: db}
}

const activityColumns = `id, itinerary_day_id, title, category, start_time, end_time,
	location, latitude, longitude, notes, confirmation_number, check_out_date,
	sort_order, source, source_ref, import_status, created_at`

func (r *pgActivityRepo) Create(ctx context.Context, a domain.Activity) (domain.Activity, error) {
	const q = `
		INSERT INTO activities (itinerary_day_id, title, category, start_time, end_time,
			location, latitude, longitude, notes, confirmation_number, check_out_date,
			sort_order, source, source_ref, import_status)
		VALUES (@itinerary_day_id, @title, @category, @start_time, @end_time,
			@location, @latitude, @longitude, @notes, @confirmation_number, @check_out_date,
			@sort_order, @source, @source_ref, @import_status)
		RETURNING ` + activityColumns

	row := r.db.QueryRow(ctx, q, activityArgs(a))
	created, err := scanActivity(row)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("repo.ActivityRepo.Create: %w", err)
	}
	return created, nil
}

func (r *pgActivityRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Activity, error) {
	const q = `SELECT ` + activityColumns + ` FROM activities WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	a, err := scanActivity(row)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("repo.ActivityRepo.GetByID: %w", err)
	}
	return a, nil
}

func (r *pgActivityRepo) ListByDay(ctx context.Context, dayID uuid.UUID) ([]domain.Activity, error) {
	const q = `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE itinerary_day_id = @day_id
		ORDER BY sort_order`

	return r.list(ctx, q, pgx.NamedArgs{"day_id": dayID}, "ListByDay")
}

func (r *pgActivityRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Activity, error) {
	const q = `
		SELECT a.id, a.itinerary_day_id, a.title, a.category, a.start_time, a.end_time,
			a.location, a.latitude, a.longitude, a.notes, a.confirmation_number, a.check_out_date,
			a.sort_order, a.source, a.source_ref, a.import_status, a.created_at
		FROM activities a
		JOIN itinerary_days d ON d.id = a.itinerary_day_id
		WHERE d.trip_id = @trip_id
		ORDER BY d.date, a.sort_order`

	return r.list(ctx, q, pgx.NamedArgs{"trip_id": tripID}, "ListByTrip")
}

func (r *pgActivityRepo) list(ctx context.Context, q string, args pgx.NamedArgs, op string) ([]domain.Activity, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.ActivityRepo.%s: %w", op, err)
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ActivityRepo.%s: scan: %w", op, err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ActivityRepo.%s: rows: %w", op, err)
	}

	return activities, nil
}

func (r *pgActivityRepo) Update(ctx context.Context, a domain.Activity) (domain.Activity, error) {
	const q = `
		UPDATE activities
		SET itinerary_day_id    = @itinerary_day_id,
		    title               = @title,
		    category            = @category,
		    start_time          = @start_time,
		    end_time            = @end_time,
		    location            = @location,
		    latitude            = @latitude,
		    longitude           = @longitude,
		    notes               = @notes,
		    confirmation_number = @confirmation_number,
		    check_out_date      = @check_out_date,
		    sort_order          = @sort_order,
		    import_status       = @import_status
		WHERE id = @id
		RETURNING ` + activityColumns

	args := activityArgs(a)
	args["id"] = a.ID

	row := r.db.QueryRow(ctx, q, args)
	updated, err := scanActivity(row)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("repo.ActivityRepo.Update: %w", err)
	}
	return updated, nil
}

func (r *pgActivityRepo) UpdatePositions(ctx context.Context, positions map[uuid.UUID]int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.ActivityRepo.UpdatePositions: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `UPDATE activities SET sort_order = @sort_order WHERE id = @id`
	for id, pos := range positions {
		if _, err := tx.Exec(ctx, q, pgx.NamedArgs{"id": id, "sort_order": pos}); err != nil {
			return fmt.Errorf("repo.ActivityRepo.UpdatePositions: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.ActivityRepo.UpdatePositions: commit: %w", err)
	}
	return nil
}

func (r *pgActivityRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM activities WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.ActivityRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ActivityRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// activityArgs builds the named args shared by Create and Update.
func activityArgs(a domain.Activity) pgx.NamedArgs {
	return pgx.NamedArgs{
		"itinerary_day_id":    a.ItineraryDayID,
		"title":               a.Title,
		"category":            a.Category,
		"start_time":          a.StartTime, // nil becomes NULL
		"end_time":            a.EndTime,
		"location":            a.Location,
		"latitude":            a.Latitude,
		"longitude":           a.Longitude,
		"notes":               a.Notes,
		"confirmation_number": a.ConfirmationNumber,
		"check_out_date":      a.CheckOutDate,
		"sort_order":          a.SortOrder,
		"source":              a.Source,
		"source_ref":          a.SourceRef,
		"import_status":       a.ImportStatus,
	}
}

// scanActivity maps a single database row into a domain.Activity.
func scanActivity(s scanner) (domain.Activity, error) {
	var (
		a            domain.Activity
		id           pgtype.UUID
		dayID        pgtype.UUID
		checkOutDate pgtype.Date
	)

	err := s.Scan(&id, &dayID, &a.Title, &a.Category, &a.StartTime, &a.EndTime,
		&a.Location, &a.Latitude, &a.Longitude, &a.Notes, &a.ConfirmationNumber,
		&checkOutDate, &a.SortOrder, &a.Source, &a.SourceRef, &a.ImportStatus, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Activity{}, domain.ErrNotFound
		}
		return domain.Activity{}, err
	}

	a.ID = uuid.UUID(id.Bytes)
	a.ItineraryDayID = uuid.UUID(dayID.Bytes)
	if checkOutDate.Valid {
		co := checkOutDate.Time
		a.CheckOutDate = &co
	}
	return a, nil
}
