package shops

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/spazaafy/platform/internal/shared/errors"
	"github.com/spazaafy/platform/internal/shared/types"
)

// MemoryRepository implements Repository in memory. Used in tests.
type MemoryRepository struct {
	mu        sync.Mutex
	shops     map[types.ID]*Shop
	documents map[types.ID]*ShopDocument
	tickets   map[types.ID]*SupportTicket
}

// NewMemoryRepository creates an in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		shops:     make(map[types.ID]*Shop),
		documents: make(map[types.ID]*ShopDocument),
		tickets:   make(map[types.ID]*SupportTicket),
	}
}

func (r *MemoryRepository) CreateShop(ctx context.Context, s *Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.shops[s.ID]; ok {
		return errors.Conflict("shop already exists")
	}
	clone := *s
	r.shops[s.ID] = &clone
	return nil
}

func (r *MemoryRepository) FindShop(ctx context.Context, id types.ID) (*Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.shops[id]
	if !ok {
		return nil, errors.NotFound("shop", id.String())
	}
	clone := *s
	return &clone, nil
}

func (r *MemoryRepository) UpdateShop(ctx context.Context, s *Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.shops[s.ID]; !ok {
		return errors.NotFound("shop", s.ID.String())
	}
	clone := *s
	r.shops[s.ID] = &clone
	return nil
}

func (r *MemoryRepository) ListShops(ctx context.Context, filter ShopFilter) ([]Shop, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []Shop
	for _, s := range r.shops {
		if filter.Province != nil && s.Province != *filter.Province {
			continue
		}
		if filter.OwnerID != nil && s.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.Verified != nil && s.Verified != *filter.Verified {
			continue
		}
		if filter.Search != "" {
			q := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(s.Name), q) &&
				!strings.Contains(strings.ToLower(s.Address), q) {
				continue
			}
		}
		matched = append(matched, *s)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, filter.Limit, filter.Offset)
}

func (r *MemoryRepository) CreateDocument(ctx context.Context, d *ShopDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.documents[d.ID]; ok {
		return errors.Conflict("document already exists")
	}
	clone := *d
	r.documents[d.ID] = &clone
	return nil
}

func (r *MemoryRepository) FindDocument(ctx context.Context, id types.ID) (*ShopDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.documents[id]
	if !ok {
		return nil, errors.NotFound("document", id.String())
	}
	clone := *d
	r.denormalize(&clone)
	return &clone, nil
}

func (r *MemoryRepository) UpdateDocument(ctx context.Context, d *ShopDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.documents[d.ID]; !ok {
		return errors.NotFound("document", d.ID.String())
	}
	clone := *d
	r.documents[d.ID] = &clone
	return nil
}

func (r *MemoryRepository) ListDocuments(ctx context.Context, filter DocumentFilter) ([]ShopDocument, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []ShopDocument
	for _, d := range r.documents {
		clone := *d
		r.denormalize(&clone)

		if filter.ShopID != nil && clone.ShopID != *filter.ShopID {
			continue
		}
		if filter.Province != nil && clone.ShopProvince != *filter.Province {
			continue
		}
		if filter.OwnerID != nil && clone.ShopOwnerID != *filter.OwnerID {
			continue
		}
		if filter.Status != nil && clone.Status != *filter.Status {
			continue
		}
		matched = append(matched, clone)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].UploadedAt.After(matched[j].UploadedAt)
	})
	return paginate(matched, filter.Limit, filter.Offset)
}

func (r *MemoryRepository) VerifiedDocTypes(ctx context.Context, shopID types.ID) ([]DocType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[DocType]bool)
	var docTypes []DocType
	for _, d := range r.documents {
		if d.ShopID == shopID && d.Status == DocVerified && !seen[d.Type] {
			seen[d.Type] = true
			docTypes = append(docTypes, d.Type)
		}
	}
	return docTypes, nil
}

func (r *MemoryRepository) CreateTicket(ctx context.Context, t *SupportTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tickets[t.ID]; ok {
		return errors.Conflict("ticket already exists")
	}
	clone := *t
	r.tickets[t.ID] = &clone
	return nil
}

func (r *MemoryRepository) FindTicket(ctx context.Context, id types.ID) (*SupportTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok {
		return nil, errors.NotFound("ticket", id.String())
	}
	clone := *t
	return &clone, nil
}

func (r *MemoryRepository) UpdateTicket(ctx context.Context, t *SupportTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tickets[t.ID]; !ok {
		return errors.NotFound("ticket", t.ID.String())
	}
	clone := *t
	r.tickets[t.ID] = &clone
	return nil
}

func (r *MemoryRepository) ListTickets(ctx context.Context, filter TicketFilter) ([]SupportTicket, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []SupportTicket
	for _, t := range r.tickets {
		if filter.OwnerID != nil && t.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		matched = append(matched, *t)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, filter.Limit, filter.Offset)
}

// denormalize fills the shop-derived scope fields. Caller holds the lock.
func (r *MemoryRepository) denormalize(d *ShopDocument) {
	if s, ok := r.shops[d.ShopID]; ok {
		d.ShopProvince = s.Province
		d.ShopOwnerID = s.OwnerID
	}
}

func paginate[T any](items []T, limit, offset int) ([]T, int, error) {
	total := len(items)
	if offset > 0 {
		if offset >= len(items) {
			return nil, total, nil
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, total, nil
}
