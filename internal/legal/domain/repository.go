package domain

import (
	"context"

	"github.com/spazaafy/platform/internal/shared/types"
)

// Repository defines the interface for legal request persistence
type Repository interface {
	Save(ctx context.Context, r *Request) error
	FindByID(ctx context.Context, id types.ID) (*Request, error)
	Update(ctx context.Context, r *Request) error
	List(ctx context.Context, filter ListFilter) ([]Request, int, error)

	// UpdateByToken loads the request holding the given amendment token,
	// applies mutate under a write lock, and persists the result. A
	// redeemed or unknown token yields errors.NotFound; concurrent
	// redeemers race on the lock and the loser sees the cleared token.
	UpdateByToken(ctx context.Context, token string, mutate func(*Request) error) (*Request, error)
}

// ListFilter defines filters for listing legal requests
type ListFilter struct {
	Category *Category `json:"category,omitempty"`
	Urgency  *Urgency  `json:"urgency,omitempty"`
	Status   *Status   `json:"status,omitempty"`
	Search   string    `json:"search,omitempty"`
	Limit    int       `json:"limit,omitempty"`
	Offset   int       `json:"offset,omitempty"`
}
