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

// GmailRepo defines the persistence operations for Gmail connections and
// import records.
type GmailRepo interface {
	// GetConnection returns the user's Gmail connection.
	// Returns domain.ErrNotFound when the user never connected.
	GetConnection(ctx context.Context, userID uuid.UUID) (domain.GmailConnection, error)

	// UpsertConnection creates or replaces the user's connection credentials.
	UpsertConnection(ctx context.Context, conn domain.GmailConnection) (domain.GmailConnection, error)

	// DeleteConnection removes the user's connection.
	// Returns domain.ErrNotFound when there is none.
	DeleteConnection(ctx context.Context, userID uuid.UUID) error

	// ListConnectedUserIDs returns every user with a Gmail connection.
	// Used by the background scan sweep.
	ListConnectedUserIDs(ctx context.Context) ([]uuid.UUID, error)

	// ListImportedEmailIDs returns the external message ids already recorded
	// for the user. This is the dedup index for a scan.
	ListImportedEmailIDs(ctx context.Context, userID uuid.UUID) ([]string, error)

	// SaveScanResults commits one scan's output atomically: all import
	// records, all created activities, and the connection's refreshed tokens
	// and last_sync_at. Nothing is written until this single transaction, so
	// an aborted scan leaves no partial state.
	SaveScanResults(ctx context.Context, conn domain.GmailConnection, records []domain.ImportRecord, activities []domain.Activity) error
}

// pgGmailRepo is the Postgres implementation of GmailRepo.
type pgGmailRepo struct {
	db db
}

// NewGmailRepo constructs a GmailRepo backed by the provided db connection.
func NewGmailRepo(db db) GmailRepo {
	return &pgGmailRepo{db: db}
}

func (r *pgGmailRepo) GetConnection(ctx context.Context, userID uuid.UUID) (domain.GmailConnection, error) {
	const q = `
		SELECT id, user_id, access_token, refresh_token, token_expiry, last_sync_at
		FROM gmail_connections
		WHERE user_id = @user_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID})
	conn, err := scanConnection(row)
	if err != nil {
		return domain.GmailConnection{}, fmt.Errorf("repo.GmailRepo.GetConnection: %w", err)
	}
	return conn, nil
}

func (r *pgGmailRepo) UpsertConnection(ctx context.Context, conn domain.GmailConnection) (domain.GmailConnection, error) {
	const q = `
		INSERT INTO gmail_connections (user_id, access_token, refresh_token, token_expiry)
		VALUES (@user_id, @access_token, @refresh_token, @token_expiry)
		ON CONFLICT (user_id) DO UPDATE
		SET access_token  = EXCLUDED.access_token,
		    refresh_token = EXCLUDED.refresh_token,
		    token_expiry  = EXCLUDED.token_expiry
		RETURNING id, user_id, access_token, refresh_token, token_expiry, last_sync_at`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"user_id":       conn.UserID,
		"access_token":  conn.AccessToken,
		"refresh_token": conn.RefreshToken,
		"token_expiry":  conn.TokenExpiry,
	})
	saved, err := scanConnection(row)
	if err != nil {
		return domain.GmailConnection{}, fmt.Errorf("repo.GmailRepo.UpsertConnection: %w", err)
	}
	return saved, nil
}

func (r *pgGmailRepo) DeleteConnection(ctx context.Context, userID uuid.UUID) error {
	const q = `DELETE FROM gmail_connections WHERE user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return fmt.Errorf("repo.GmailRepo.DeleteConnection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.GmailRepo.DeleteConnection: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgGmailRepo) ListConnectedUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	const q = `SELECT user_id FROM gmail_connections ORDER BY user_id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.GmailRepo.ListConnectedUserIDs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id pgtype.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repo.GmailRepo.ListConnectedUserIDs: scan: %w", err)
		}
		ids = append(ids, uuid.UUID(id.Bytes))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.GmailRepo.ListConnectedUserIDs: rows: %w", err)
	}

	return ids, nil
}

func (r *pgGmailRepo) ListImportedEmailIDs(ctx context.Context, userID uuid.UUID) ([]string, error) {
	const q = `SELECT email_id FROM import_records WHERE user_id = @user_id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.GmailRepo.ListImportedEmailIDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repo.GmailRepo.ListImportedEmailIDs: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.GmailRepo.ListImportedEmailIDs: rows: %w", err)
	}

	return ids, nil
}

func (r *pgGmailRepo) SaveScanResults(ctx context.Context, conn domain.GmailConnection, records []domain.ImportRecord, activities []domain.Activity) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.GmailRepo.SaveScanResults: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertRecord = `
		INSERT INTO import_records (user_id, email_id, parsed_data)
		VALUES (@user_id, @email_id, @parsed_data)
		ON CONFLICT (user_id, email_id) DO NOTHING`

	for _, rec := range records {
		_, err := tx.Exec(ctx, insertRecord, pgx.NamedArgs{
			"user_id":     rec.UserID,
			"email_id":    rec.EmailID,
			"parsed_data": rec.ParsedData,
		})
		if err != nil {
			return fmt.Errorf("repo.GmailRepo.SaveScanResults: record: %w", err)
		}
	}

	const insertActivity = `
		INSERT INTO activities (itinerary_day_id, title, category, start_time, end_time,
			location, latitude, longitude, notes, confirmation_number, check_out_date,
			sort_order, source, source_ref, import_status)
		VALUES (@itinerary_day_id, @title, @category, @start_time, @end_time,
			@location, @latitude, @longitude, @notes, @confirmation_number, @check_out_date,
			@sort_order, @source, @source_ref, @import_status)`

	for _, a := range activities {
		if _, err := tx.Exec(ctx, insertActivity, activityArgs(a)); err != nil {
			return fmt.Errorf("repo.GmailRepo.SaveScanResults: activity: %w", err)
		}
	}

	const updateConn = `
		UPDATE gmail_connections
		SET access_token = @access_token,
		    refresh_token = @refresh_token,
		    token_expiry = @token_expiry,
		    last_sync_at = @last_sync_at
		WHERE user_id = @user_id`

	_, err = tx.Exec(ctx, updateConn, pgx.NamedArgs{
		"user_id":       conn.UserID,
		"access_token":  conn.AccessToken,
		"refresh_token": conn.RefreshToken,
		"token_expiry":  conn.TokenExpiry,
		"last_sync_at":  conn.LastSyncAt,
	})
	if err != nil {
		return fmt.Errorf("repo.GmailRepo.SaveScanResults: connection: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.GmailRepo.SaveScanResults: commit: %w", err)
	}
	return nil
}

// scanConnection maps a connection row into a domain.GmailConnection.
func scanConnection(s scanner) (domain.GmailConnection, error) {
	var (
		c        domain.GmailConnection
		id       pgtype.UUID
		userID   pgtype.UUID
		lastSync pgtype.Timestamptz
	)

	err := s.Scan(&id, &userID, &c.AccessToken, &c.RefreshToken, &c.TokenExpiry, &lastSync)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.GmailConnection{}, domain.ErrNotFound
		}
		return domain.GmailConnection{}, err
	}

	c.ID = uuid.UUID(id.Bytes)
	c.UserID = uuid.UUID(userID.Bytes)
	if lastSync.Valid {
		ls := lastSync.Time
		c.LastSyncAt = &ls
	}
	return c, nil
}
