package internal

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/spazaafy/platform/internal/hr"
	"github.com/spazaafy/platform/internal/legal"
	legaldomain "github.com/spazaafy/platform/internal/legal/domain"
	legalinfra "github.com/spazaafy/platform/internal/legal/infrastructure"
	"github.com/spazaafy/platform/internal/notification"
	"github.com/spazaafy/platform/internal/shared/config"
	"github.com/spazaafy/platform/internal/shared/events"
	"github.com/spazaafy/platform/internal/storage"
)

func newPlatform(t *testing.T) (*legal.Service, *hr.Service, *notification.MockProvider) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	mail := notification.NewMockProvider()
	dispatcher := notification.NewDispatcher(logger, mail)
	bus := events.NopPublisher{}
	cfg := config.AppConfig{
		FrontendURL:    "http://localhost:5173",
		LegalTeamEmail: "legal@spazaafy.co.za",
		HRTeamEmail:    "hr@spazaafy.co.za",
	}

	legalRepo := legalinfra.NewMemoryRepository()
	hrRepo := hr.NewMemoryRepository(legalRepo)

	legalService := legal.NewService(legalRepo, storage.NewMemoryStore(), dispatcher, bus, cfg, logger)
	hrService := hr.NewService(hrRepo, dispatcher, bus, cfg, logger)
	legalService.SetBridge(hrService)

	return legalService, hrService, mail
}

// TestTerminationWorkflow walks a termination end to end: HR opens the
// review, legal requests and receives an amendment, approves, and HR
// finalizes after the notice period.
func TestTerminationWorkflow(t *testing.T) {
	ctx := context.Background()
	legalService, hrService, _ := newPlatform(t)

	employee, err := hrService.CreateEmployee(ctx, hr.CreateEmployeeInput{
		FirstName:  "Nomsa",
		LastName:   "Khumalo",
		Email:      "nomsa@spazaafy.co.za",
		Department: "Retail",
		RoleTitle:  "Cashier",
	})
	if err != nil {
		t.Fatal(err)
	}

	// HR opens the review.
	updated, req, err := hrService.InitiateTermination(ctx, employee.ID, "Till shortfalls across three audits")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != hr.StatusPendingTermination {
		t.Fatalf("employee status = %s, want pending_termination", updated.Status)
	}
	if req.Status != legaldomain.StatusSubmitted {
		t.Fatalf("request status = %s, want submitted", req.Status)
	}

	// Legal asks HR for supporting evidence.
	if _, err := legalService.ChangeStatus(ctx, req.ID, legaldomain.StatusUnderReview, "", 0); err != nil {
		t.Fatal(err)
	}
	paused, err := legalService.ChangeStatus(ctx, req.ID, legaldomain.StatusAmendmentRequested, "attach the audit reports", 7)
	if err != nil {
		t.Fatal(err)
	}
	if paused.PausedAt == nil || paused.AmendmentToken == "" {
		t.Fatal("amendment request did not pause the clock and mint a token")
	}

	// The employee stays under review while the clock is paused.
	fresh, err := hrService.GetEmployee(ctx, employee.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.Status != hr.StatusPendingTermination {
		t.Fatalf("employee status = %s during amendment, want pending_termination", fresh.Status)
	}

	// HR responds through the public upload link.
	resumed, err := legalService.SubmitAmendment(ctx, paused.AmendmentToken, legal.Upload{
		FileName: "audit_reports.pdf",
		Content:  strings.NewReader("evidence"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if resumed.PausedAt != nil {
		t.Fatal("clock still paused after amendment submission")
	}

	// Approval crosses the bridge into the notice period.
	if _, err := legalService.ChangeStatus(ctx, req.ID, legaldomain.StatusApproved, "grounds established", 0); err != nil {
		t.Fatal(err)
	}
	fresh, err = hrService.GetEmployee(ctx, employee.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.Status != hr.StatusNoticeGiven {
		t.Fatalf("employee status = %s after approval, want notice_given", fresh.Status)
	}

	final, err := hrService.FinalizeTermination(ctx, employee.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.Status != hr.StatusTerminated {
		t.Fatalf("employee status = %s, want terminated", final.Status)
	}
}

// TestTerminationRejectionRestoresEmployee covers the rejection leg: a
// rejected review is the only path out of pending_termination besides
// approval.
func TestTerminationRejectionRestoresEmployee(t *testing.T) {
	ctx := context.Background()
	legalService, hrService, mail := newPlatform(t)

	employee, err := hrService.CreateEmployee(ctx, hr.CreateEmployeeInput{
		FirstName:  "Pieter",
		LastName:   "van Wyk",
		Email:      "pieter@spazaafy.co.za",
		Department: "Warehouse",
		RoleTitle:  "Picker",
	})
	if err != nil {
		t.Fatal(err)
	}

	_, req, err := hrService.InitiateTermination(ctx, employee.ID, "Attendance")
	if err != nil {
		t.Fatal(err)
	}

	// Direct status edits around the review must be refused while it is
	// open.
	if _, err := hrService.UpdateStatus(ctx, employee.ID, hr.StatusEmployed); err == nil {
		t.Fatal("direct status change allowed around an open review")
	}

	if _, err := legalService.ChangeStatus(ctx, req.ID, legaldomain.StatusRejected, "insufficient grounds", 0); err != nil {
		t.Fatal(err)
	}

	fresh, err := hrService.GetEmployee(ctx, employee.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.Status != hr.StatusEmployed {
		t.Fatalf("employee status = %s after rejection, want employed", fresh.Status)
	}

	// HR is told about the decision.
	sent := mail.Sent()
	last := sent[len(sent)-1]
	if last.To != "hr@spazaafy.co.za" || !strings.Contains(last.Subject, "Termination Review Decision") {
		t.Errorf("decision notice = %+v, want decision mail to HR", last)
	}
}
