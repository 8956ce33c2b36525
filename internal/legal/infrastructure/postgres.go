package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spazaafy/platform/internal/legal/domain"
	"github.com/spazaafy/platform/internal/shared/errors"
	"github.com/spazaafy/platform/internal/shared/types"
)

// PostgresRepository implements domain.Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const requestColumns = `id, reference, category, urgency, title, description,
	submitter_name, submitter_email, department, related_employee_id,
	status, internal_notes, amendment_token, paused_at, total_paused_us,
	amendment_deadline, created_at, updated_at`

// Save saves a new legal request with its attachments
func (r *PostgresRepository) Save(ctx context.Context, req *domain.Request) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if err := r.insertRequest(ctx, tx, req); err != nil {
		return err
	}

	for _, a := range req.Attachments {
		if err := r.upsertAttachment(ctx, tx, &a); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

// InsertRequestTx writes a new request inside a caller-owned
// transaction. The HR module uses it to file a termination review in the
// same transaction as the employee status flip.
func InsertRequestTx(ctx context.Context, tx pgx.Tx, req *domain.Request) error {
	r := &PostgresRepository{}
	if err := r.insertRequest(ctx, tx, req); err != nil {
		return err
	}
	for _, a := range req.Attachments {
		if err := r.upsertAttachment(ctx, tx, &a); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresRepository) insertRequest(ctx context.Context, tx pgx.Tx, req *domain.Request) error {
	notesJSON, err := json.Marshal(notesOrEmpty(req.Notes))
	if err != nil {
		return errors.Wrap(err, "failed to marshal notes")
	}

	query := `
		INSERT INTO legal_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err = tx.Exec(ctx, query,
		req.ID, req.Reference, req.Category, req.Urgency, req.Title, req.Description,
		req.SubmitterName, req.SubmitterEmail, req.Department, req.RelatedEmployeeID,
		req.Status, notesJSON, nullableToken(req.AmendmentToken), req.PausedAt, req.TotalPaused.Microseconds(),
		req.AmendmentDeadline, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("legal request with this reference already exists")
		}
		return errors.Wrap(err, "failed to save legal request")
	}
	return nil
}

// FindByID finds a legal request by ID
func (r *PostgresRepository) FindByID(ctx context.Context, id types.ID) (*domain.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM legal_requests WHERE id = $1`

	req, err := scanRequest(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("legal request", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find legal request")
	}

	attachments, err := r.getAttachments(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Attachments = attachments

	return req, nil
}

// Update updates an existing legal request
func (r *PostgresRepository) Update(ctx context.Context, req *domain.Request) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if err := r.updateRequest(ctx, tx, req); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

func (r *PostgresRepository) updateRequest(ctx context.Context, tx pgx.Tx, req *domain.Request) error {
	notesJSON, err := json.Marshal(notesOrEmpty(req.Notes))
	if err != nil {
		return errors.Wrap(err, "failed to marshal notes")
	}

	query := `
		UPDATE legal_requests SET
			status = $2, internal_notes = $3, amendment_token = $4,
			paused_at = $5, total_paused_us = $6, amendment_deadline = $7,
			updated_at = $8
		WHERE id = $1`

	result, err := tx.Exec(ctx, query,
		req.ID, req.Status, notesJSON, nullableToken(req.AmendmentToken),
		req.PausedAt, req.TotalPaused.Microseconds(), req.AmendmentDeadline,
		req.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update legal request")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFound("legal request", req.ID.String())
	}

	for _, a := range req.Attachments {
		if err := r.upsertAttachment(ctx, tx, &a); err != nil {
			return err
		}
	}
	return nil
}

// UpdateByToken locks the row holding the token, applies mutate, and
// persists the result. The row lock serializes concurrent redeemers;
// whoever loses the race finds the token already cleared.
func (r *PostgresRepository) UpdateByToken(ctx context.Context, token string, mutate func(*domain.Request) error) (*domain.Request, error) {
	// The column is typed uuid; anything else would fail the query with a
	// cast error instead of the not-found the caller expects.
	if _, err := uuid.Parse(token); err != nil {
		return nil, errors.InvalidToken()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + requestColumns + ` FROM legal_requests WHERE amendment_token = $1 FOR UPDATE`

	req, err := scanRequest(tx.QueryRow(ctx, query, token))
	if err == pgx.ErrNoRows {
		return nil, errors.InvalidToken()
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load legal request by token")
	}

	attachments, err := r.getAttachments(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	req.Attachments = attachments

	if err := mutate(req); err != nil {
		return nil, err
	}

	if err := r.updateRequest(ctx, tx, req); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	return req, nil
}

// List lists legal requests matching the filter, newest first
func (r *PostgresRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Request, int, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, *filter.Category)
		argIdx++
	}
	if filter.Urgency != nil {
		conditions = append(conditions, fmt.Sprintf("urgency = $%d", argIdx))
		args = append(args, *filter.Urgency)
		argIdx++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR reference ILIKE $%d OR submitter_name ILIKE $%d)", argIdx, argIdx, argIdx))
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM legal_requests` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count legal requests")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + requestColumns + ` FROM legal_requests` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list legal requests")
	}
	defer rows.Close()

	var requests []domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan legal request")
		}
		requests = append(requests, *req)
	}
	return requests, total, nil
}

func (r *PostgresRepository) upsertAttachment(ctx context.Context, tx pgx.Tx, a *domain.Attachment) error {
	query := `
		INSERT INTO legal_attachments (id, request_id, file_name, storage_key, url, checksum, size_bytes, revision, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`

	_, err := tx.Exec(ctx, query,
		a.ID, a.RequestID, a.FileName, a.StorageKey, a.URL, a.Checksum, a.Size, a.Revision, a.UploadedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save attachment")
	}
	return nil
}

func (r *PostgresRepository) getAttachments(ctx context.Context, requestID types.ID) ([]domain.Attachment, error) {
	query := `
		SELECT id, request_id, file_name, storage_key, url, checksum, size_bytes, revision, uploaded_at
		FROM legal_attachments WHERE request_id = $1 ORDER BY uploaded_at`

	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load attachments")
	}
	defer rows.Close()

	var attachments []domain.Attachment
	for rows.Next() {
		var a domain.Attachment
		if err := rows.Scan(&a.ID, &a.RequestID, &a.FileName, &a.StorageKey, &a.URL, &a.Checksum, &a.Size, &a.Revision, &a.UploadedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan attachment")
		}
		attachments = append(attachments, a)
	}
	return attachments, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*domain.Request, error) {
	req := &domain.Request{}
	var notesJSON []byte
	var token *string
	var pausedUS int64

	err := row.Scan(
		&req.ID, &req.Reference, &req.Category, &req.Urgency, &req.Title, &req.Description,
		&req.SubmitterName, &req.SubmitterEmail, &req.Department, &req.RelatedEmployeeID,
		&req.Status, &notesJSON, &token, &req.PausedAt, &pausedUS,
		&req.AmendmentDeadline, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if token != nil {
		req.AmendmentToken = *token
	}
	req.TotalPaused = time.Duration(pausedUS) * time.Microsecond
	req.Notes = decodeNotes(req.ID, notesJSON)
	return req, nil
}

// decodeNotes unpacks the internal notes column. A corrupt payload is
// logged and read as empty rather than failing the whole row.
func decodeNotes(id types.ID, data []byte) []domain.Note {
	if len(data) == 0 {
		return nil
	}
	var notes []domain.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		slog.Warn("corrupt internal notes payload", "request_id", id, "error", err)
		return nil
	}
	if len(notes) == 0 {
		return nil
	}
	return notes
}

func nullableToken(token string) *string {
	if token == "" {
		return nil
	}
	return &token
}

func notesOrEmpty(notes []domain.Note) []domain.Note {
	if notes == nil {
		return []domain.Note{}
	}
	return notes
}
