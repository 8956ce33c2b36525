package hr

import (
	"context"

	legaldomain "github.com/spazaafy/platform/internal/legal/domain"
	"github.com/spazaafy/platform/internal/shared/types"
)

// Repository defines the interface for employee persistence
type Repository interface {
	Create(ctx context.Context, e *Employee) error
	FindByID(ctx context.Context, id types.ID) (*Employee, error)
	Update(ctx context.Context, e *Employee) error
	List(ctx context.Context, filter ListFilter) ([]Employee, int, error)

	// BeginTermination persists the status flip and the linked legal
	// request atomically: either both land or neither does.
	BeginTermination(ctx context.Context, e *Employee, req *legaldomain.Request) error

	// UpsertByLegacyRef inserts or refreshes a record imported from the
	// legacy payroll system, matching on LegacyRef.
	UpsertByLegacyRef(ctx context.Context, e *Employee) error
}

// ListFilter defines filters for listing employees
type ListFilter struct {
	Department *string         `json:"department,omitempty"`
	Status     *EmployeeStatus `json:"status,omitempty"`
	Search     string          `json:"search,omitempty"`
	Limit      int             `json:"limit,omitempty"`
	Offset     int             `json:"offset,omitempty"`
}
