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

// ChecklistRepo defines the persistence operations for checklists, their
// items, and per-user check state.
type ChecklistRepo interface {
	// Create inserts a new checklist and returns it with an empty item list.
	Create(ctx context.Context, cl domain.Checklist) (domain.Checklist, error)

	// GetByID retrieves a checklist without items.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Checklist, error)

	// ListByTrip returns all checklists for a trip with items ordered by
	// sort_order and Checked resolved for the given user.
	ListByTrip(ctx context.Context, tripID, userID uuid.UUID) ([]domain.Checklist, error)

	// AddItem inserts a new checklist item.
	AddItem(ctx context.Context, item domain.ChecklistItem) (domain.ChecklistItem, error)

	// GetItem retrieves a single item without user check state.
	GetItem(ctx context.Context, itemID uuid.UUID) (domain.ChecklistItem, error)

	// ListItems returns a checklist's items ordered by sort_order, without
	// user check state.
	ListItems(ctx context.Context, checklistID uuid.UUID) ([]domain.ChecklistItem, error)

	// UpdateItemPositions assigns new sort positions atomically.
	UpdateItemPositions(ctx context.Context, positions map[uuid.UUID]int) error

	// SetChecked upserts the (item, user) check state.
	SetChecked(ctx context.Context, itemID, userID uuid.UUID, checked bool) error

	// GetChecked returns the user's check state for an item, false when the
	// user never touched it.
	GetChecked(ctx context.Context, itemID, userID uuid.UUID) (bool, error)

	// DeleteItem removes an item and its per-user check rows.
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
}

// pgChecklistRepo is the Postgres implementation of ChecklistRepo.
type pgChecklistRepo struct {
	db db
}

// NewChecklistRepo constructs a ChecklistRepo backed by the provided db connection.
func NewChecklistRepo(db db) ChecklistRepo {
	return &pgChecklistRepo{db: db}
}

func (r *pgChecklistRepo) Create(ctx context.Context, cl domain.Checklist) (domain.Checklist, error) {
	const q = `
		INSERT INTO checklists (trip_id, title)
		VALUES (@trip_id, @title)
		RETURNING id, trip_id, title`

	var created domain.Checklist
	var id, tripID pgtype.UUID
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": cl.TripID, "title": cl.Title}).
		Scan(&id, &tripID, &created.Title)
	if err != nil {
		return domain.Checklist{}, fmt.Errorf("repo.ChecklistRepo.Create: %w", err)
	}
	created.ID = uuid.UUID(id.Bytes)
	created.TripID = uuid.UUID(tripID.Bytes)
	created.Items = []domain.ChecklistItem{}
	return created, nil
}

func (r *pgChecklistRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Checklist, error) {
	const q = `SELECT id, trip_id, title FROM checklists WHERE id = @id`

	var cl domain.Checklist
	var clID, tripID pgtype.UUID
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}).Scan(&clID, &tripID, &cl.Title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Checklist{}, fmt.Errorf("repo.ChecklistRepo.GetByID: %w", domain.ErrNotFound)
		}
		return domain.Checklist{}, fmt.Errorf("repo.ChecklistRepo.GetByID: %w", err)
	}
	cl.ID = uuid.UUID(clID.Bytes)
	cl.TripID = uuid.UUID(tripID.Bytes)
	return cl, nil
}

func (r *pgChecklistRepo) ListByTrip(ctx context.Context, tripID, userID uuid.UUID) ([]domain.Checklist, error) {
	const q = `
		SELECT c.id, c.trip_id, c.title,
		       i.id, i.checklist_id, i.text, i.sort_order,
		       COALESCE(uc.checked, false)
		FROM checklists c
		LEFT JOIN checklist_items i ON i.checklist_id = c.id
		LEFT JOIN checklist_item_checks uc ON uc.item_id = i.id AND uc.user_id = @user_id
		WHERE c.trip_id = @trip_id
		ORDER BY c.id, i.sort_order`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.ChecklistRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	var (
		lists []domain.Checklist
		index = map[uuid.UUID]int{}
	)
	for rows.Next() {
		var (
			clID, clTripID       pgtype.UUID
			title                string
			itemID, itemChecklID pgtype.UUID
			text                 pgtype.Text
			sortOrder            pgtype.Int4
			checked              bool
		)
		err := rows.Scan(&clID, &clTripID, &title, &itemID, &itemChecklID, &text, &sortOrder, &checked)
		if err != nil {
			return nil, fmt.Errorf("repo.ChecklistRepo.ListByTrip: scan: %w", err)
		}

		listID := uuid.UUID(clID.Bytes)
		pos, seen := index[listID]
		if !seen {
			lists = append(lists, domain.Checklist{
				ID:     listID,
				TripID: uuid.UUID(clTripID.Bytes),
				Title:  title,
				Items:  []domain.ChecklistItem{},
			})
			pos = len(lists) - 1
			index[listID] = pos
		}

		if itemID.Valid {
			lists[pos].Items = append(lists[pos].Items, domain.ChecklistItem{
				ID:          uuid.UUID(itemID.Bytes),
				ChecklistID: uuid.UUID(itemChecklID.Bytes),
				Text:        text.String,
				SortOrder:   int(sortOrder.Int32),
				Checked:     checked,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ChecklistRepo.ListByTrip: rows: %w", err)
	}

	return lists, nil
}

func (r *pgChecklistRepo) AddItem(ctx context.Context, item domain.ChecklistItem) (domain.ChecklistItem, error) {
	const q = `
		INSERT INTO checklist_items (checklist_id, text, sort_order)
		VALUES (@checklist_id, @text, @sort_order)
		RETURNING id, checklist_id, text, sort_order`

	args := pgx.NamedArgs{
		"checklist_id": item.ChecklistID,
		"text":         item.Text,
		"sort_order":   item.SortOrder,
	}

	created, err := scanChecklistItem(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.ChecklistItem{}, fmt.Errorf("repo.ChecklistRepo.AddItem: %w", err)
	}
	return created, nil
}

func (r *pgChecklistRepo) GetItem(ctx context.Context, itemID uuid.UUID) (domain.ChecklistItem, error) {
	const q = `SELECT id, checklist_id, text, sort_order FROM checklist_items WHERE id = @id`

	item, err := scanChecklistItem(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": itemID}))
	if err != nil {
		return domain.ChecklistItem{}, fmt.Errorf("repo.ChecklistRepo.GetItem: %w", err)
	}
	return item, nil
}

func (r *pgChecklistRepo) ListItems(ctx context.Context, checklistID uuid.UUID) ([]domain.ChecklistItem, error) {
	const q = `
		SELECT id, checklist_id, text, sort_order
		FROM checklist_items
		WHERE checklist_id = @checklist_id
		ORDER BY sort_order`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"checklist_id": checklistID})
	if err != nil {
		return nil, fmt.Errorf("repo.ChecklistRepo.ListItems: %w", err)
	}
	defer rows.Close()

	var items []domain.ChecklistItem
	for rows.Next() {
		item, err := scanChecklistItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ChecklistRepo.ListItems: scan: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ChecklistRepo.ListItems: rows: %w", err)
	}

	return items, nil
}

func (r *pgChecklistRepo) UpdateItemPositions(ctx context.Context, positions map[uuid.UUID]int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.ChecklistRepo.UpdateItemPositions: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `UPDATE checklist_items SET sort_order = @sort_order WHERE id = @id`
	for id, pos := range positions {
		if _, err := tx.Exec(ctx, q, pgx.NamedArgs{"id": id, "sort_order": pos}); err != nil {
			return fmt.Errorf("repo.ChecklistRepo.UpdateItemPositions: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.ChecklistRepo.UpdateItemPositions: commit: %w", err)
	}
	return nil
}

func (r *pgChecklistRepo) SetChecked(ctx context.Context, itemID, userID uuid.UUID, checked bool) error {
	const q = `
		INSERT INTO checklist_item_checks (item_id, user_id, checked)
		VALUES (@item_id, @user_id, @checked)
		ON CONFLICT (item_id, user_id) DO UPDATE SET checked = EXCLUDED.checked`

	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{"item_id": itemID, "user_id": userID, "checked": checked})
	if err != nil {
		return fmt.Errorf("repo.ChecklistRepo.SetChecked: %w", err)
	}
	return nil
}

func (r *pgChecklistRepo) GetChecked(ctx context.Context, itemID, userID uuid.UUID) (bool, error) {
	const q = `SELECT checked FROM checklist_item_checks WHERE item_id = @item_id AND user_id = @user_id`

	var checked bool
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"item_id": itemID, "user_id": userID}).Scan(&checked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("repo.ChecklistRepo.GetChecked: %w", err)
	}
	return checked, nil
}

func (r *pgChecklistRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	const q = `DELETE FROM checklist_items WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": itemID})
	if err != nil {
		return fmt.Errorf("repo.ChecklistRepo.DeleteItem: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ChecklistRepo.DeleteItem: %w", domain.ErrNotFound)
	}
	return nil
}

// scanChecklistItem maps an item row (without check state) into a domain.ChecklistItem.
func scanChecklistItem(s scanner) (domain.ChecklistItem, error) {
	var (
		item        domain.ChecklistItem
		id          pgtype.UUID
		checklistID pgtype.UUID
	)

	if err := s.Scan(&id, &checklistID, &item.Text, &item.SortOrder); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ChecklistItem{}, domain.ErrNotFound
		}
		return domain.ChecklistItem{}, err
	}

	item.ID = uuid.UUID(id.Bytes)
	item.ChecklistID = uuid.UUID(checklistID.Bytes)
	return item, nil
}
