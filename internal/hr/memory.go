package hr

import (
	"context"
	"sort"
	"strings"
	"sync"

	legaldomain "github.com/spazaafy/platform/internal/legal/domain"
	"github.com/spazaafy/platform/internal/shared/errors"
	"github.com/spazaafy/platform/internal/shared/types"
)

// MemoryRepository implements Repository in memory. Used in tests. The
// legal repository is needed so BeginTermination can land both writes.
type MemoryRepository struct {
	mu        sync.Mutex
	employees map[types.ID]*Employee
	legalRepo legaldomain.Repository
}

// NewMemoryRepository creates an in-memory repository
func NewMemoryRepository(legalRepo legaldomain.Repository) *MemoryRepository {
	return &MemoryRepository{
		employees: make(map[types.ID]*Employee),
		legalRepo: legalRepo,
	}
}

func (r *MemoryRepository) Create(ctx context.Context, e *Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.employees[e.ID]; ok {
		return errors.Conflict("employee already exists")
	}
	clone := *e
	r.employees[e.ID] = &clone
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id types.ID) (*Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.employees[id]
	if !ok {
		return nil, errors.NotFound("employee", id.String())
	}
	clone := *e
	return &clone, nil
}

func (r *MemoryRepository) Update(ctx context.Context, e *Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.employees[e.ID]; !ok {
		return errors.NotFound("employee", e.ID.String())
	}
	clone := *e
	r.employees[e.ID] = &clone
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, filter ListFilter) ([]Employee, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []Employee
	for _, e := range r.employees {
		if filter.Department != nil && e.Department != *filter.Department {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.Search != "" {
			s := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(e.FirstName), s) &&
				!strings.Contains(strings.ToLower(e.LastName), s) &&
				!strings.Contains(strings.ToLower(e.Email), s) {
				continue
			}
		}
		matched = append(matched, *e)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if filter.Offset > 0 && filter.Offset < len(matched) {
		matched = matched[filter.Offset:]
	} else if filter.Offset >= len(matched) && filter.Offset > 0 {
		matched = nil
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (r *MemoryRepository) BeginTermination(ctx context.Context, e *Employee, req *legaldomain.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.employees[e.ID]; !ok {
		return errors.NotFound("employee", e.ID.String())
	}

	// Request first: a reader must never see pending_termination without
	// the linked review on record.
	if err := r.legalRepo.Save(ctx, req); err != nil {
		return err
	}
	clone := *e
	r.employees[e.ID] = &clone
	return nil
}

func (r *MemoryRepository) UpsertByLegacyRef(ctx context.Context, e *Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, existing := range r.employees {
		if existing.Email == e.Email {
			clone := *e
			clone.ID = id
			r.employees[id] = &clone
			return nil
		}
	}
	clone := *e
	r.employees[e.ID] = &clone
	return nil
}
