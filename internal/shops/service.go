package shops

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spazaafy/platform/internal/scope"
	"github.com/spazaafy/platform/internal/shared/auth"
	"github.com/spazaafy/platform/internal/shared/errors"
	"github.com/spazaafy/platform/internal/shared/types"
	"github.com/spazaafy/platform/internal/storage"
)

// MaxDocumentSize caps compliance document uploads at 10 MB.
const MaxDocumentSize = 10 * 1024 * 1024

// Service coordinates shop registration, compliance document review, and
// support tickets. Every read path is filtered through the caller's
// resolved scope.
type Service struct {
	repo   Repository
	store  storage.Store
	logger *slog.Logger
}

// NewService creates the shops service
func NewService(repo Repository, store storage.Store, logger *slog.Logger) *Service {
	return &Service{repo: repo, store: store, logger: logger}
}

// CreateShopInput carries the fields for a new shop registration.
type CreateShopInput struct {
	OwnerID  types.ID `json:"owner_id"`
	Province string   `json:"province"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
}

// CreateShop registers a shop. Owners register their own shops; staff
// may register on behalf of any owner.
func (s *Service) CreateShop(ctx context.Context, input CreateShopInput) (*Shop, error) {
	user := auth.GetUser(ctx)
	if user != nil && !user.Staff {
		// Non-staff callers can only register for themselves.
		input.OwnerID = user.ID
	}

	shop, err := NewShop(input.OwnerID, input.Province, input.Name, input.Address)
	if err != nil {
		return nil, errors.BadRequest(err.Error())
	}
	if err := s.repo.CreateShop(ctx, shop); err != nil {
		return nil, err
	}
	return shop, nil
}

// GetShop loads one shop if the caller's scope permits it.
func (s *Service) GetShop(ctx context.Context, id types.ID) (*Shop, error) {
	shop, err := s.repo.FindShop(ctx, id)
	if err != nil {
		return nil, err
	}

	dec := scope.Resolve(auth.GetUser(ctx))
	if !ShopDescriptor.Allows(dec, *shop) {
		return nil, errors.NotFound("shop", id.String())
	}
	return shop, nil
}

// ListShops lists the shops the caller may see.
func (s *Service) ListShops(ctx context.Context, filter ShopFilter) ([]Shop, int, error) {
	dec := scope.Resolve(auth.GetUser(ctx))
	switch dec.Scope {
	case scope.ScopeAll:
	case scope.ScopeProvince:
		filter.Province = &dec.Province
		filter.OwnerID = nil
	case scope.ScopeOwner:
		filter.OwnerID = &dec.OwnerID
		filter.Province = nil
	default:
		return nil, 0, nil
	}
	return s.repo.ListShops(ctx, filter)
}

// UploadDocument attaches a compliance document to a shop in pending
// status.
func (s *Service) UploadDocument(ctx context.Context, shopID types.ID, docType DocType, fileName string, content io.Reader) (*ShopDocument, error) {
	if !validDocTypes[docType] {
		return nil, errors.BadRequest(fmt.Sprintf("unknown document type: %s", docType))
	}

	shop, err := s.GetShop(ctx, shopID)
	if err != nil {
		return nil, err
	}

	key := storage.ShopDocumentKey(shop.ID.String(), fileName)
	obj, err := s.store.Put(ctx, key, io.LimitReader(content, MaxDocumentSize))
	if err != nil {
		return nil, errors.Wrap(err, "failed to store document")
	}

	doc := &ShopDocument{
		ID:         types.NewID(),
		ShopID:     shop.ID,
		Type:       docType,
		FileName:   fileName,
		StorageKey: obj.Key,
		Status:     DocPending,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		if removeErr := s.store.Remove(ctx, obj.Key); removeErr != nil {
			s.logger.Error("failed to remove orphaned document", "key", obj.Key, "error", removeErr)
		}
		return nil, err
	}
	return doc, nil
}

// ListDocuments lists compliance documents within the caller's scope.
// Province reaches a document through its shop.
func (s *Service) ListDocuments(ctx context.Context, filter DocumentFilter) ([]ShopDocument, int, error) {
	dec := scope.Resolve(auth.GetUser(ctx))
	switch dec.Scope {
	case scope.ScopeAll:
	case scope.ScopeProvince:
		filter.Province = &dec.Province
		filter.OwnerID = nil
	case scope.ScopeOwner:
		filter.OwnerID = &dec.OwnerID
		filter.Province = nil
	default:
		return nil, 0, nil
	}
	return s.repo.ListDocuments(ctx, filter)
}

// ReviewDocument marks a document verified or rejected, then recomputes
// the shop's verified flag from the full set of verified document types.
func (s *Service) ReviewDocument(ctx context.Context, docID types.ID, approved bool) (*ShopDocument, error) {
	doc, err := s.repo.FindDocument(ctx, docID)
	if err != nil {
		return nil, err
	}

	dec := scope.Resolve(auth.GetUser(ctx))
	if dec.Scope != scope.ScopeAll && dec.Scope != scope.ScopeProvince {
		return nil, errors.Forbidden("document review requires an admin role")
	}
	if !DocumentDescriptor.Allows(dec, *doc) {
		return nil, errors.NotFound("document", docID.String())
	}

	if approved {
		doc.Status = DocVerified
	} else {
		doc.Status = DocRejected
	}
	if err := s.repo.UpdateDocument(ctx, doc); err != nil {
		return nil, err
	}

	if err := s.recomputeVerification(ctx, doc.ShopID); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Service) recomputeVerification(ctx context.Context, shopID types.ID) error {
	shop, err := s.repo.FindShop(ctx, shopID)
	if err != nil {
		return err
	}

	verified, err := s.repo.VerifiedDocTypes(ctx, shopID)
	if err != nil {
		return err
	}
	have := make(map[DocType]bool, len(verified))
	for _, t := range verified {
		have[t] = true
	}

	allRequired := true
	for _, t := range requiredDocTypes {
		if !have[t] {
			allRequired = false
			break
		}
	}

	if shop.Verified != allRequired {
		shop.Verified = allRequired
		shop.UpdatedAt = time.Now().UTC()
		if err := s.repo.UpdateShop(ctx, shop); err != nil {
			return err
		}
		s.logger.Info("shop verification recomputed", "shop_id", shop.ID, "verified", shop.Verified)
	}
	return nil
}

// CreateTicket opens a support ticket for the calling owner.
func (s *Service) CreateTicket(ctx context.Context, subject, body string) (*SupportTicket, error) {
	user := auth.GetUser(ctx)
	if user == nil {
		return nil, errors.Unauthorized("authentication required")
	}

	ticket, err := NewSupportTicket(user.ID, subject, body)
	if err != nil {
		return nil, errors.BadRequest(err.Error())
	}
	if err := s.repo.CreateTicket(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// ListTickets lists the tickets the caller may see. Tickets carry no
// province, so a province-scoped admin sees none.
func (s *Service) ListTickets(ctx context.Context, filter TicketFilter) ([]SupportTicket, int, error) {
	dec := scope.Resolve(auth.GetUser(ctx))
	switch dec.Scope {
	case scope.ScopeAll:
	case scope.ScopeOwner:
		filter.OwnerID = &dec.OwnerID
	default:
		return nil, 0, nil
	}
	return s.repo.ListTickets(ctx, filter)
}

// UpdateTicketStatus moves a ticket through its lifecycle.
func (s *Service) UpdateTicketStatus(ctx context.Context, id types.ID, status TicketStatus) (*SupportTicket, error) {
	if !validTicketStatuses[status] {
		return nil, errors.BadRequest(fmt.Sprintf("unknown ticket status: %s", status))
	}

	ticket, err := s.repo.FindTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	dec := scope.Resolve(auth.GetUser(ctx))
	if !TicketDescriptor.Allows(dec, *ticket) {
		return nil, errors.NotFound("ticket", id.String())
	}

	ticket.Status = status
	ticket.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateTicket(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}
