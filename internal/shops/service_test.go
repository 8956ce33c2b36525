package shops

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/spazaafy/platform/internal/shared/auth"
	"github.com/spazaafy/platform/internal/shared/types"
	"github.com/spazaafy/platform/internal/storage"
)

func newTestService(t *testing.T) (*Service, *MemoryRepository, *storage.MemoryStore) {
	t.Helper()
	repo := NewMemoryRepository()
	store := storage.NewMemoryStore()
	svc := NewService(repo, store, slog.New(slog.DiscardHandler))
	return svc, repo, store
}

func globalAdminCtx() context.Context {
	return auth.WithUser(context.Background(), &auth.User{
		ID: types.NewID(), Role: auth.RoleAdmin, Staff: true,
	})
}

func provinceAdminCtx(province string) context.Context {
	return auth.WithUser(context.Background(), &auth.User{
		ID: types.NewID(), Role: auth.RoleAdmin, Staff: true, Province: province,
	})
}

func ownerCtx(id types.ID) context.Context {
	return auth.WithUser(context.Background(), &auth.User{
		ID: id, Role: auth.RoleOwner,
	})
}

func seedShop(t *testing.T, svc *Service, ownerID types.ID, province, name string) *Shop {
	t.Helper()
	shop, err := svc.CreateShop(globalAdminCtx(), CreateShopInput{
		OwnerID:  ownerID,
		Province: province,
		Name:     name,
		Address:  "12 Main Road",
	})
	if err != nil {
		t.Fatalf("CreateShop(%s): %v", name, err)
	}
	return shop
}

func TestListShopsProvinceAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := types.NewID()
	seedShop(t, svc, owner, "Gauteng", "Soweto Corner Store")
	seedShop(t, svc, owner, "Gauteng", "Tembisa Spaza")
	seedShop(t, svc, owner, "Western Cape", "Khayelitsha Grocer")

	shops, total, err := svc.ListShops(provinceAdminCtx("Gauteng"), ShopFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(shops) != 2 {
		t.Fatalf("shops = %d (total %d), want 2", len(shops), total)
	}
	for _, s := range shops {
		if s.Province != "Gauteng" {
			t.Errorf("leaked shop from %s", s.Province)
		}
	}
}

func TestListShopsGlobalAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := types.NewID()
	seedShop(t, svc, owner, "Gauteng", "Soweto Corner Store")
	seedShop(t, svc, owner, "Western Cape", "Khayelitsha Grocer")
	seedShop(t, svc, owner, "Limpopo", "Polokwane Trading")

	shops, total, err := svc.ListShops(globalAdminCtx(), ShopFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(shops) != 3 {
		t.Fatalf("shops = %d (total %d), want all 3", len(shops), total)
	}
}

func TestListShopsOwnerSeesOnlyTheirs(t *testing.T) {
	svc, _, _ := newTestService(t)
	mine := types.NewID()
	theirs := types.NewID()
	seedShop(t, svc, mine, "Gauteng", "My Shop")
	seedShop(t, svc, theirs, "Gauteng", "Their Shop")

	shops, _, err := svc.ListShops(ownerCtx(mine), ShopFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(shops) != 1 || shops[0].Name != "My Shop" {
		t.Fatalf("shops = %+v, want only the caller's", shops)
	}
}

func TestListShopsUnauthenticatedSeesNothing(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedShop(t, svc, types.NewID(), "Gauteng", "Soweto Corner Store")

	shops, total, err := svc.ListShops(context.Background(), ShopFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(shops) != 0 || total != 0 {
		t.Fatalf("shops = %d, want empty for unauthenticated caller", len(shops))
	}
}

func TestDocumentProvinceScopeViaShop(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := types.NewID()
	gauteng := seedShop(t, svc, owner, "Gauteng", "Soweto Corner Store")
	cape := seedShop(t, svc, owner, "Western Cape", "Khayelitsha Grocer")

	ctx := globalAdminCtx()
	for _, shop := range []*Shop{gauteng, cape} {
		if _, err := svc.UploadDocument(ctx, shop.ID, DocTaxCompliance, "tax.pdf", strings.NewReader("pdf")); err != nil {
			t.Fatal(err)
		}
	}

	docs, _, err := svc.ListDocuments(provinceAdminCtx("Gauteng"), DocumentFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].ShopID != gauteng.ID {
		t.Fatalf("docs = %+v, want only the Gauteng shop's", docs)
	}
}

func TestTicketsHaveNoProvinceDimension(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := types.NewID()
	if _, err := svc.CreateTicket(ownerCtx(owner), "Card machine offline", "Since Monday."); err != nil {
		t.Fatal(err)
	}

	// Province admins fail closed on resources without a province.
	tickets, _, err := svc.ListTickets(provinceAdminCtx("Gauteng"), TicketFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(tickets) != 0 {
		t.Fatalf("province admin sees %d tickets, want 0", len(tickets))
	}

	tickets, _, err = svc.ListTickets(globalAdminCtx(), TicketFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(tickets) != 1 {
		t.Fatalf("global admin sees %d tickets, want 1", len(tickets))
	}

	tickets, _, err = svc.ListTickets(ownerCtx(owner), TicketFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(tickets) != 1 {
		t.Fatalf("owner sees %d tickets, want 1", len(tickets))
	}

	tickets, _, err = svc.ListTickets(ownerCtx(types.NewID()), TicketFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(tickets) != 0 {
		t.Fatalf("other owner sees %d tickets, want 0", len(tickets))
	}
}

func TestGetShopOutsideScopeReadsAsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	shop := seedShop(t, svc, types.NewID(), "Western Cape", "Khayelitsha Grocer")

	if _, err := svc.GetShop(provinceAdminCtx("Gauteng"), shop.ID); err == nil {
		t.Fatal("shop visible outside the admin's province")
	}
	if _, err := svc.GetShop(globalAdminCtx(), shop.ID); err != nil {
		t.Fatalf("global admin denied: %v", err)
	}
}

func TestShopVerificationRequiresAllRequiredDocs(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := globalAdminCtx()
	shop := seedShop(t, svc, types.NewID(), "Gauteng", "Soweto Corner Store")

	upload := func(docType DocType) *ShopDocument {
		doc, err := svc.UploadDocument(ctx, shop.ID, docType, string(docType)+".pdf", strings.NewReader("pdf"))
		if err != nil {
			t.Fatal(err)
		}
		return doc
	}
	approve := func(doc *ShopDocument) {
		if _, err := svc.ReviewDocument(ctx, doc.ID, true); err != nil {
			t.Fatal(err)
		}
	}

	approve(upload(DocBusinessReg))
	approve(upload(DocTaxCompliance))

	fresh, err := repo.FindShop(ctx, shop.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.Verified {
		t.Fatal("shop verified with only two of three required documents")
	}

	approve(upload(DocHealthCOA))
	fresh, err = repo.FindShop(ctx, shop.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !fresh.Verified {
		t.Fatal("shop not verified after all required documents passed")
	}

	// Rejecting a required document revokes verification.
	docs, _, err := svc.ListDocuments(ctx, DocumentFilter{ShopID: &shop.ID})
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range docs {
		if d.Status == DocVerified && d.Type == DocHealthCOA {
			if _, err := svc.ReviewDocument(ctx, d.ID, false); err != nil {
				t.Fatal(err)
			}
		}
	}

	fresh, err = repo.FindShop(ctx, shop.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.Verified {
		t.Fatal("verification survived rejection of a required document")
	}
}

func TestReviewDocumentRequiresAdminScope(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := types.NewID()
	shop := seedShop(t, svc, owner, "Gauteng", "Soweto Corner Store")

	doc, err := svc.UploadDocument(globalAdminCtx(), shop.ID, DocTaxCompliance, "tax.pdf", strings.NewReader("pdf"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ReviewDocument(ownerCtx(owner), doc.ID, true); err == nil {
		t.Fatal("owner allowed to review their own compliance document")
	}
}
