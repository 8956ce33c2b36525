package shops

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spazaafy/platform/internal/shared/errors"
	"github.com/spazaafy/platform/internal/shared/types"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const shopColumns = `id, owner_id, province, name, address, verified, created_at, updated_at`

func (r *PostgresRepository) CreateShop(ctx context.Context, s *Shop) error {
	query := `
		INSERT INTO shops (` + shopColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.OwnerID, s.Province, s.Name, s.Address, s.Verified, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save shop")
	}
	return nil
}

func (r *PostgresRepository) FindShop(ctx context.Context, id types.ID) (*Shop, error) {
	query := `SELECT ` + shopColumns + ` FROM shops WHERE id = $1`

	s := &Shop{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.OwnerID, &s.Province, &s.Name, &s.Address, &s.Verified, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("shop", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find shop")
	}
	return s, nil
}

func (r *PostgresRepository) UpdateShop(ctx context.Context, s *Shop) error {
	query := `
		UPDATE shops SET
			province = $2, name = $3, address = $4, verified = $5, updated_at = $6
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		s.ID, s.Province, s.Name, s.Address, s.Verified, s.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update shop")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFound("shop", s.ID.String())
	}
	return nil
}

func (r *PostgresRepository) ListShops(ctx context.Context, filter ShopFilter) ([]Shop, int, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if filter.Province != nil {
		conditions = append(conditions, fmt.Sprintf("province = $%d", argIdx))
		args = append(args, *filter.Province)
		argIdx++
	}
	if filter.OwnerID != nil {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argIdx))
		args = append(args, *filter.OwnerID)
		argIdx++
	}
	if filter.Verified != nil {
		conditions = append(conditions, fmt.Sprintf("verified = $%d", argIdx))
		args = append(args, *filter.Verified)
		argIdx++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR address ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM shops`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count shops")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + shopColumns + ` FROM shops` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list shops")
	}
	defer rows.Close()

	var shops []Shop
	for rows.Next() {
		var s Shop
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Province, &s.Name, &s.Address, &s.Verified, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan shop")
		}
		shops = append(shops, s)
	}
	return shops, total, nil
}

const documentColumns = `d.id, d.shop_id, d.doc_type, d.file_name, d.storage_key, d.status, d.uploaded_at,
	s.province, s.owner_id`

func (r *PostgresRepository) CreateDocument(ctx context.Context, d *ShopDocument) error {
	query := `
		INSERT INTO shop_documents (id, shop_id, doc_type, file_name, storage_key, status, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		d.ID, d.ShopID, d.Type, d.FileName, d.StorageKey, d.Status, d.UploadedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save document")
	}
	return nil
}

func (r *PostgresRepository) FindDocument(ctx context.Context, id types.ID) (*ShopDocument, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM shop_documents d JOIN shops s ON s.id = d.shop_id
		WHERE d.id = $1`

	d, err := scanDocument(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("document", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find document")
	}
	return d, nil
}

func (r *PostgresRepository) UpdateDocument(ctx context.Context, d *ShopDocument) error {
	query := `UPDATE shop_documents SET status = $2 WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, d.ID, d.Status)
	if err != nil {
		return errors.Wrap(err, "failed to update document")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFound("document", d.ID.String())
	}
	return nil
}

func (r *PostgresRepository) ListDocuments(ctx context.Context, filter DocumentFilter) ([]ShopDocument, int, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if filter.ShopID != nil {
		conditions = append(conditions, fmt.Sprintf("d.shop_id = $%d", argIdx))
		args = append(args, *filter.ShopID)
		argIdx++
	}
	if filter.Province != nil {
		// Province reaches documents through the owning shop.
		conditions = append(conditions, fmt.Sprintf("s.province = $%d", argIdx))
		args = append(args, *filter.Province)
		argIdx++
	}
	if filter.OwnerID != nil {
		conditions = append(conditions, fmt.Sprintf("s.owner_id = $%d", argIdx))
		args = append(args, *filter.OwnerID)
		argIdx++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("d.status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	from := ` FROM shop_documents d JOIN shops s ON s.id = d.shop_id`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count documents")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + documentColumns + from + where +
		fmt.Sprintf(" ORDER BY d.uploaded_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list documents")
	}
	defer rows.Close()

	var documents []ShopDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan document")
		}
		documents = append(documents, *d)
	}
	return documents, total, nil
}

func (r *PostgresRepository) VerifiedDocTypes(ctx context.Context, shopID types.ID) ([]DocType, error) {
	query := `SELECT DISTINCT doc_type FROM shop_documents WHERE shop_id = $1 AND status = $2`

	rows, err := r.pool.Query(ctx, query, shopID, DocVerified)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load verified doc types")
	}
	defer rows.Close()

	var docTypes []DocType
	for rows.Next() {
		var t DocType
		if err := rows.Scan(&t); err != nil {
			return nil, errors.Wrap(err, "failed to scan doc type")
		}
		docTypes = append(docTypes, t)
	}
	return docTypes, nil
}

const ticketColumns = `id, owner_id, subject, body, status, created_at, updated_at`

func (r *PostgresRepository) CreateTicket(ctx context.Context, t *SupportTicket) error {
	query := `
		INSERT INTO support_tickets (` + ticketColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.OwnerID, t.Subject, t.Body, t.Status, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save ticket")
	}
	return nil
}

func (r *PostgresRepository) FindTicket(ctx context.Context, id types.ID) (*SupportTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM support_tickets WHERE id = $1`

	t := &SupportTicket{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.OwnerID, &t.Subject, &t.Body, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("ticket", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find ticket")
	}
	return t, nil
}

func (r *PostgresRepository) UpdateTicket(ctx context.Context, t *SupportTicket) error {
	query := `UPDATE support_tickets SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, t.ID, t.Status, t.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to update ticket")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFound("ticket", t.ID.String())
	}
	return nil
}

func (r *PostgresRepository) ListTickets(ctx context.Context, filter TicketFilter) ([]SupportTicket, int, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if filter.OwnerID != nil {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argIdx))
		args = append(args, *filter.OwnerID)
		argIdx++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM support_tickets`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count tickets")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + ticketColumns + ` FROM support_tickets` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list tickets")
	}
	defer rows.Close()

	var tickets []SupportTicket
	for rows.Next() {
		var t SupportTicket
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Subject, &t.Body, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan ticket")
		}
		tickets = append(tickets, t)
	}
	return tickets, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*ShopDocument, error) {
	d := &ShopDocument{}
	err := row.Scan(
		&d.ID, &d.ShopID, &d.Type, &d.FileName, &d.StorageKey, &d.Status, &d.UploadedAt,
		&d.ShopProvince, &d.ShopOwnerID,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}
