package shops

import (
	"fmt"
	"time"

	"github.com/spazaafy/platform/internal/scope"
	"github.com/spazaafy/platform/internal/shared/types"
)

// Provinces lists the nine South African provinces a shop can register
// under. The database seeds the same set.
var Provinces = []string{
	"Eastern Cape", "Free State", "Gauteng", "KwaZulu-Natal",
	"Limpopo", "Mpumalanga", "North West", "Northern Cape", "Western Cape",
}

// ValidProvince reports whether name is a known province.
func ValidProvince(name string) bool {
	for _, p := range Provinces {
		if p == name {
			return true
		}
	}
	return false
}

// Shop is a registered spaza shop. It carries both a direct province
// reference and a direct owner, so both admin scoping strategies apply.
type Shop struct {
	ID        types.ID  `json:"id"`
	OwnerID   types.ID  `json:"owner_id"`
	Province  string    `json:"province"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewShop registers a shop, unverified until its compliance documents
// pass review.
func NewShop(ownerID types.ID, province, name, address string) (*Shop, error) {
	if name == "" {
		return nil, fmt.Errorf("shop name is required")
	}
	if ownerID == "" {
		return nil, fmt.Errorf("owner is required")
	}
	if !ValidProvince(province) {
		return nil, fmt.Errorf("unknown province: %s", province)
	}

	now := time.Now().UTC()
	return &Shop{
		ID:        types.NewID(),
		OwnerID:   ownerID,
		Province:  province,
		Name:      name,
		Address:   address,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// DocType classifies a compliance document
type DocType string

const (
	DocBusinessReg     DocType = "cor_reg"
	DocTaxCompliance   DocType = "tax"
	DocHealthCOA       DocType = "coa"
	DocBusinessLicence DocType = "business_licence"
	DocFireSafety      DocType = "fire_safety"
	DocOther           DocType = "other"
)

var validDocTypes = map[DocType]bool{
	DocBusinessReg: true, DocTaxCompliance: true, DocHealthCOA: true,
	DocBusinessLicence: true, DocFireSafety: true, DocOther: true,
}

// requiredDocTypes must all be verified before the shop itself counts as
// verified.
var requiredDocTypes = []DocType{DocBusinessReg, DocTaxCompliance, DocHealthCOA}

// DocStatus is the review state of a compliance document
type DocStatus string

const (
	DocPending  DocStatus = "pending"
	DocVerified DocStatus = "verified"
	DocRejected DocStatus = "rejected"
)

// ShopDocument is a compliance document attached to a shop. It has no
// province of its own; province scoping reaches it through the shop.
type ShopDocument struct {
	ID         types.ID  `json:"id"`
	ShopID     types.ID  `json:"shop_id"`
	Type       DocType   `json:"type"`
	FileName   string    `json:"file_name"`
	StorageKey string    `json:"-"`
	Status     DocStatus `json:"status"`
	UploadedAt time.Time `json:"uploaded_at"`

	// ShopProvince and ShopOwnerID are denormalized from the shop at
	// load time for scope checks. Not persisted on the document row.
	ShopProvince string   `json:"-"`
	ShopOwnerID  types.ID `json:"-"`
}

// TicketStatus is the support ticket lifecycle state
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

var validTicketStatuses = map[TicketStatus]bool{
	TicketOpen: true, TicketInProgress: true, TicketResolved: true, TicketClosed: true,
}

// SupportTicket is owned directly by a user and has no province
// dimension at all, so province-scoped admins see none of them.
type SupportTicket struct {
	ID        types.ID     `json:"id"`
	OwnerID   types.ID     `json:"owner_id"`
	Subject   string       `json:"subject"`
	Body      string       `json:"body"`
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewSupportTicket opens a ticket for the given owner.
func NewSupportTicket(ownerID types.ID, subject, body string) (*SupportTicket, error) {
	if subject == "" {
		return nil, fmt.Errorf("subject is required")
	}
	if ownerID == "" {
		return nil, fmt.Errorf("owner is required")
	}

	now := time.Now().UTC()
	return &SupportTicket{
		ID:        types.NewID(),
		OwnerID:   ownerID,
		Subject:   subject,
		Body:      body,
		Status:    TicketOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Scope descriptors for the three ownership shapes.
var (
	// ShopDescriptor: direct province and direct owner.
	ShopDescriptor = scope.Descriptor[Shop]{
		Province: func(s Shop) string { return s.Province },
		Owner:    func(s Shop) types.ID { return s.OwnerID },
	}

	// DocumentDescriptor: province and owner one hop away, via the shop.
	DocumentDescriptor = scope.Descriptor[ShopDocument]{
		Province: func(d ShopDocument) string { return d.ShopProvince },
		Owner:    func(d ShopDocument) types.ID { return d.ShopOwnerID },
	}

	// TicketDescriptor: direct owner only. No province accessor, so a
	// province-scoped admin sees no tickets.
	TicketDescriptor = scope.Descriptor[SupportTicket]{
		Owner: func(t SupportTicket) types.ID { return t.OwnerID },
	}
)
