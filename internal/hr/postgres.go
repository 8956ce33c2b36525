package hr

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	legaldomain "github.com/spazaafy/platform/internal/legal/domain"
	legalinfra "github.com/spazaafy/platform/internal/legal/infrastructure"
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

const employeeColumns = `id, first_name, last_name, email, phone, department, role_title, status, legacy_ref, created_at, updated_at`

// Create saves a new employee
func (r *PostgresRepository) Create(ctx context.Context, e *Employee) error {
	query := `
		INSERT INTO employees (` + employeeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		e.ID, e.FirstName, e.LastName, e.Email, e.Phone, e.Department, e.RoleTitle,
		e.Status, nullableRef(e.LegacyRef), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("employee with this email already exists")
		}
		return errors.Wrap(err, "failed to save employee")
	}
	return nil
}

// FindByID finds an employee by ID
func (r *PostgresRepository) FindByID(ctx context.Context, id types.ID) (*Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	e, err := scanEmployee(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("employee", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find employee")
	}
	return e, nil
}

// Update updates an existing employee
func (r *PostgresRepository) Update(ctx context.Context, e *Employee) error {
	query := `
		UPDATE employees SET
			first_name = $2, last_name = $3, email = $4, phone = $5,
			department = $6, role_title = $7, status = $8, legacy_ref = $9,
			updated_at = $10
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		e.ID, e.FirstName, e.LastName, e.Email, e.Phone,
		e.Department, e.RoleTitle, e.Status, nullableRef(e.LegacyRef),
		e.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update employee")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFound("employee", e.ID.String())
	}
	return nil
}

// List lists employees matching the filter, newest first
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]Employee, int, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if filter.Department != nil {
		conditions = append(conditions, fmt.Sprintf("department = $%d", argIdx))
		args = append(args, *filter.Department)
		argIdx++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", argIdx, argIdx, argIdx))
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM employees`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count employees")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + employeeColumns + ` FROM employees` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list employees")
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan employee")
		}
		employees = append(employees, *e)
	}
	return employees, total, nil
}

// BeginTermination flips the employee to pending_termination and files
// the linked legal request in one transaction.
func (r *PostgresRepository) BeginTermination(ctx context.Context, e *Employee, req *legaldomain.Request) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx,
		`UPDATE employees SET status = $2, updated_at = $3 WHERE id = $1`,
		e.ID, e.Status, e.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update employee")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFound("employee", e.ID.String())
	}

	if err := legalinfra.InsertRequestTx(ctx, tx, req); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

// UpsertByLegacyRef inserts or refreshes an imported payroll record
func (r *PostgresRepository) UpsertByLegacyRef(ctx context.Context, e *Employee) error {
	query := `
		INSERT INTO employees (` + employeeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (email) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			phone = EXCLUDED.phone,
			department = EXCLUDED.department,
			role_title = EXCLUDED.role_title,
			legacy_ref = EXCLUDED.legacy_ref,
			updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		e.ID, e.FirstName, e.LastName, e.Email, e.Phone, e.Department, e.RoleTitle,
		e.Status, nullableRef(e.LegacyRef), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to upsert employee")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*Employee, error) {
	e := &Employee{}
	var legacyRef *string

	err := row.Scan(
		&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.Phone,
		&e.Department, &e.RoleTitle, &e.Status, &legacyRef,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if legacyRef != nil {
		e.LegacyRef = *legacyRef
	}
	return e, nil
}

func nullableRef(ref string) *string {
	if ref == "" {
		return nil
	}
	return &ref
}
