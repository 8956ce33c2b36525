package legacyhr

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver
	"github.com/spazaafy/platform/internal/hr"
	"github.com/spazaafy/platform/internal/shared/config"
	"github.com/spazaafy/platform/internal/shared/types"
)

// Importer receives employee records pulled from the legacy system.
// Implemented by the HR service.
type Importer interface {
	ImportLegacyEmployee(ctx context.Context, e *hr.Employee) error
}

// Adapter polls the legacy payroll SQL Server for employee records and
// pushes them into the HR module. The legacy system stays authoritative
// for payroll; this platform only mirrors the personnel fields it needs.
type Adapter struct {
	db       *sql.DB
	config   config.LegacyHRConfig
	importer Importer
	logger   *slog.Logger

	running  bool
	mu       sync.RWMutex
	cancel   context.CancelFunc
	lastPoll time.Time
	wg       sync.WaitGroup
}

// employeeTable is the legacy payroll personnel view
const employeeTable = "dbo.Employees"

// New creates a legacy HR adapter
func New(cfg config.LegacyHRConfig, importer Importer, logger *slog.Logger) *Adapter {
	return &Adapter{
		config:   cfg,
		importer: importer,
		logger:   logger,
	}
}

// Start opens the database connection and begins polling
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return fmt.Errorf("adapter already running")
	}

	connStr := fmt.Sprintf("server=%s;port=%d;database=%s;user id=%s;password=%s",
		a.config.Host,
		a.config.Port,
		a.config.Database,
		a.config.User,
		a.config.Password,
	)

	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return fmt.Errorf("failed to open legacy database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping legacy database: %w", err)
	}

	a.db = db
	a.running = true
	a.lastPoll = time.Now().Add(-a.config.PollInterval)

	pollCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(1)
	go a.pollLoop(pollCtx)

	a.logger.Info("legacy HR adapter started", "interval", a.config.PollInterval)
	return nil
}

// Stop stops polling and closes the connection
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return nil
	}

	if a.cancel != nil {
		a.cancel()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if a.db != nil {
		a.db.Close()
	}

	a.running = false
	return nil
}

// Health checks legacy database connectivity
func (a *Adapter) Health(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.running {
		return fmt.Errorf("adapter not running")
	}
	return a.db.PingContext(ctx)
}

func (a *Adapter) pollLoop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.mu.Lock()
			lastPoll := a.lastPoll
			a.lastPoll = time.Now()
			a.mu.Unlock()

			if err := a.pollEmployees(ctx, lastPoll); err != nil {
				a.logger.Error("legacy employee poll failed", "error", err)
			}
		}
	}
}

// pollEmployees imports records modified since the last poll
func (a *Adapter) pollEmployees(ctx context.Context, since time.Time) error {
	query := fmt.Sprintf(`
		SELECT
			EmployeeRef,
			FirstName,
			LastName,
			Email,
			Phone,
			Department,
			JobTitle,
			EmploymentStatus,
			LastModified
		FROM %s
		WHERE LastModified > @since
		ORDER BY LastModified ASC
	`, employeeTable)

	rows, err := a.db.QueryContext(ctx, query, sql.Named("since", since))
	if err != nil {
		return fmt.Errorf("failed to query legacy employees: %w", err)
	}
	defer rows.Close()

	var imported, failed int
	for rows.Next() {
		var ref, firstName, lastName, email, legacyStatus string
		var phone, department, jobTitle sql.NullString
		var modified time.Time

		err := rows.Scan(
			&ref, &firstName, &lastName, &email,
			&phone, &department, &jobTitle, &legacyStatus, &modified,
		)
		if err != nil {
			a.logger.Error("failed to scan legacy employee row", "error", err)
			failed++
			continue
		}

		now := time.Now().UTC()
		e := &hr.Employee{
			ID:         types.NewID(),
			FirstName:  firstName,
			LastName:   lastName,
			Email:      email,
			Phone:      phone.String,
			Department: department.String,
			RoleTitle:  jobTitle.String,
			Status:     mapStatus(legacyStatus),
			LegacyRef:  ref,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if e.Department == "" {
			e.Department = "Unassigned"
		}

		if err := a.importer.ImportLegacyEmployee(ctx, e); err != nil {
			a.logger.Error("failed to import legacy employee", "legacy_ref", ref, "error", err)
			failed++
			continue
		}
		imported++
	}

	if imported > 0 || failed > 0 {
		a.logger.Info("legacy employee poll complete", "imported", imported, "failed", failed)
	}
	return rows.Err()
}

// mapStatus maps the legacy payroll status codes onto the employee
// lifecycle. Termination-adjacent codes never come from the import path;
// those transitions belong to the legal review workflow, so anything
// unrecognized lands in employed.
func mapStatus(code string) hr.EmployeeStatus {
	switch code {
	case "A", "ACTIVE":
		return hr.StatusEmployed
	case "P", "PROBATION":
		return hr.StatusOnboarding
	case "S", "SUSPENDED":
		return hr.StatusSuspended
	case "N", "NOTICE":
		return hr.StatusNotice
	case "R", "RESIGNED":
		return hr.StatusResigned
	case "X", "RETIRED":
		return hr.StatusRetired
	default:
		return hr.StatusEmployed
	}
}
