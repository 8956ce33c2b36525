package infrastructure

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/spazaafy/platform/internal/legal/domain"
	"github.com/spazaafy/platform/internal/shared/errors"
	"github.com/spazaafy/platform/internal/shared/types"
)

// MemoryRepository implements domain.Repository in memory. Used in tests.
type MemoryRepository struct {
	mu       sync.Mutex
	requests map[types.ID]*domain.Request
}

// NewMemoryRepository creates an in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{requests: make(map[types.ID]*domain.Request)}
}

func (r *MemoryRepository) Save(ctx context.Context, req *domain.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.requests[req.ID]; ok {
		return errors.Conflict("legal request already exists")
	}
	r.requests[req.ID] = cloneRequest(req)
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id types.ID) (*domain.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, errors.NotFound("legal request", id.String())
	}
	return cloneRequest(req), nil
}

func (r *MemoryRepository) Update(ctx context.Context, req *domain.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.requests[req.ID]; !ok {
		return errors.NotFound("legal request", req.ID.String())
	}
	r.requests[req.ID] = cloneRequest(req)
	return nil
}

func (r *MemoryRepository) UpdateByToken(ctx context.Context, token string, mutate func(*domain.Request) error) (*domain.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token == "" {
		return nil, errors.InvalidToken()
	}
	for _, req := range r.requests {
		if req.AmendmentToken == token {
			working := cloneRequest(req)
			if err := mutate(working); err != nil {
				return nil, err
			}
			r.requests[req.ID] = cloneRequest(working)
			return working, nil
		}
	}
	return nil, errors.InvalidToken()
}

func (r *MemoryRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Request, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []domain.Request
	for _, req := range r.requests {
		if filter.Category != nil && req.Category != *filter.Category {
			continue
		}
		if filter.Urgency != nil && req.Urgency != *filter.Urgency {
			continue
		}
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		if filter.Search != "" {
			s := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(req.Title), s) &&
				!strings.Contains(strings.ToLower(req.Reference), s) &&
				!strings.Contains(strings.ToLower(req.SubmitterName), s) {
				continue
			}
		}
		matched = append(matched, *cloneRequest(req))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func cloneRequest(req *domain.Request) *domain.Request {
	out := *req
	out.Notes = append([]domain.Note(nil), req.Notes...)
	out.Attachments = append([]domain.Attachment(nil), req.Attachments...)
	if req.PausedAt != nil {
		t := *req.PausedAt
		out.PausedAt = &t
	}
	if req.AmendmentDeadline != nil {
		t := *req.AmendmentDeadline
		out.AmendmentDeadline = &t
	}
	return &out
}
