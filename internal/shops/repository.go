package shops

import (
	"context"

	"github.com/spazaafy/platform/internal/shared/types"
)

// ShopFilter narrows shop listings. Province and OwnerID come from the
// caller's resolved scope, Search from the request.
type ShopFilter struct {
	Province *string
	OwnerID  *types.ID
	Verified *bool
	Search   string
	Limit    int
	Offset   int
}

// DocumentFilter narrows document listings. Province applies through the
// owning shop.
type DocumentFilter struct {
	ShopID   *types.ID
	Province *string
	OwnerID  *types.ID
	Status   *DocStatus
	Limit    int
	Offset   int
}

// TicketFilter narrows ticket listings.
type TicketFilter struct {
	OwnerID *types.ID
	Status  *TicketStatus
	Limit   int
	Offset  int
}

// Repository persists shops, their compliance documents, and support
// tickets.
type Repository interface {
	CreateShop(ctx context.Context, s *Shop) error
	FindShop(ctx context.Context, id types.ID) (*Shop, error)
	UpdateShop(ctx context.Context, s *Shop) error
	ListShops(ctx context.Context, filter ShopFilter) ([]Shop, int, error)

	CreateDocument(ctx context.Context, d *ShopDocument) error
	FindDocument(ctx context.Context, id types.ID) (*ShopDocument, error)
	UpdateDocument(ctx context.Context, d *ShopDocument) error
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]ShopDocument, int, error)
	// VerifiedDocTypes returns the doc types the shop has in verified
	// status.
	VerifiedDocTypes(ctx context.Context, shopID types.ID) ([]DocType, error)

	CreateTicket(ctx context.Context, t *SupportTicket) error
	FindTicket(ctx context.Context, id types.ID) (*SupportTicket, error)
	UpdateTicket(ctx context.Context, t *SupportTicket) error
	ListTickets(ctx context.Context, filter TicketFilter) ([]SupportTicket, int, error)
}
