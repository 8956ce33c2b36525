package hr

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	legaldomain "github.com/spazaafy/platform/internal/legal/domain"
	legalinfra "github.com/spazaafy/platform/internal/legal/infrastructure"
	"github.com/spazaafy/platform/internal/notification"
	"github.com/spazaafy/platform/internal/shared/config"
	"github.com/spazaafy/platform/internal/shared/events"
)

type testEnv struct {
	service   *Service
	repo      *MemoryRepository
	legalRepo *legalinfra.MemoryRepository
	mail      *notification.MockProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	legalRepo := legalinfra.NewMemoryRepository()
	repo := NewMemoryRepository(legalRepo)
	mail := notification.NewMockProvider()
	logger := slog.New(slog.DiscardHandler)

	svc := NewService(
		repo,
		notification.NewDispatcher(logger, mail),
		events.NopPublisher{},
		config.AppConfig{
			FrontendURL:    "http://localhost:5173/",
			LegalTeamEmail: "legal@spazaafy.co.za",
			HRTeamEmail:    "hr@spazaafy.co.za",
		},
		logger,
	)
	return &testEnv{service: svc, repo: repo, legalRepo: legalRepo, mail: mail}
}

func createTestEmployee(t *testing.T, env *testEnv) *Employee {
	t.Helper()
	e, err := env.service.CreateEmployee(context.Background(), CreateEmployeeInput{
		FirstName:  "Sipho",
		LastName:   "Ndlovu",
		Email:      "sipho@spazaafy.co.za",
		Phone:      "+27821234567",
		Department: "Operations",
		RoleTitle:  "Store Supervisor",
	})
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}
	return e
}

func TestCreateEmployee(t *testing.T) {
	env := newTestEnv(t)
	e := createTestEmployee(t, env)

	if e.Status != StatusOnboarding {
		t.Errorf("status = %s, want onboarding", e.Status)
	}
	if e.FullName() != "Sipho Ndlovu" {
		t.Errorf("full name = %q", e.FullName())
	}
}

func TestCreateEmployeeValidation(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.service.CreateEmployee(context.Background(), CreateEmployeeInput{
		FirstName: "Sipho",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestUpdateStatusRejectsTerminationStatuses(t *testing.T) {
	env := newTestEnv(t)
	e := createTestEmployee(t, env)

	for _, status := range []EmployeeStatus{StatusPendingTermination, StatusTerminated} {
		if _, err := env.service.UpdateStatus(context.Background(), e.ID, status); err == nil {
			t.Errorf("UpdateStatus(%s) succeeded, want rejection", status)
		}
	}

	updated, err := env.service.UpdateStatus(context.Background(), e.ID, StatusEmployed)
	if err != nil {
		t.Fatalf("UpdateStatus(employed): %v", err)
	}
	if updated.Status != StatusEmployed {
		t.Errorf("status = %s, want employed", updated.Status)
	}
}

func TestInitiateTermination(t *testing.T) {
	env := newTestEnv(t)
	e := createTestEmployee(t, env)

	updated, req, err := env.service.InitiateTermination(context.Background(), e.ID, "Repeated stock discrepancies")
	if err != nil {
		t.Fatalf("InitiateTermination: %v", err)
	}

	if updated.Status != StatusPendingTermination {
		t.Errorf("employee status = %s, want pending_termination", updated.Status)
	}

	stored, err := env.legalRepo.FindByID(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("legal request not filed: %v", err)
	}
	if stored.Category != legaldomain.CategoryTerminationReview {
		t.Errorf("category = %s, want termination", stored.Category)
	}
	if stored.Urgency != legaldomain.UrgencyCritical {
		t.Errorf("urgency = %s, want critical", stored.Urgency)
	}
	if stored.RelatedEmployeeID != e.ID {
		t.Errorf("related employee = %s, want %s", stored.RelatedEmployeeID, e.ID)
	}
	if stored.Title != "Termination Review: Sipho Ndlovu" {
		t.Errorf("title = %q", stored.Title)
	}
	if stored.SubmitterName != "HR Department" {
		t.Errorf("submitter = %q", stored.SubmitterName)
	}
	if !strings.Contains(stored.Description, "Reason: Repeated stock discrepancies") {
		t.Errorf("description missing reason: %q", stored.Description)
	}

	sent := env.mail.Sent()
	if len(sent) != 1 || sent[0].To != "legal@spazaafy.co.za" {
		t.Fatalf("notifications = %+v, want one to legal team", sent)
	}
}

func TestInitiateTerminationRequiresReason(t *testing.T) {
	env := newTestEnv(t)
	e := createTestEmployee(t, env)

	if _, _, err := env.service.InitiateTermination(context.Background(), e.ID, ""); err == nil {
		t.Fatal("expected missing-reason error")
	}

	// Employee must be untouched.
	fresh, err := env.service.GetEmployee(context.Background(), e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.Status != StatusOnboarding {
		t.Errorf("status = %s, want onboarding", fresh.Status)
	}
}

func TestInitiateTerminationRejectsOpenReview(t *testing.T) {
	env := newTestEnv(t)
	e := createTestEmployee(t, env)

	if _, _, err := env.service.InitiateTermination(context.Background(), e.ID, "first"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := env.service.InitiateTermination(context.Background(), e.ID, "second"); err == nil {
		t.Fatal("expected rejection while review already open")
	}
}

func TestOnTerminationDecision(t *testing.T) {
	tests := []struct {
		name     string
		approved bool
		want     EmployeeStatus
	}{
		{"approved starts notice period", true, StatusNoticeGiven},
		{"rejected restores employment", false, StatusEmployed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			e := createTestEmployee(t, env)
			if _, _, err := env.service.InitiateTermination(context.Background(), e.ID, "cause"); err != nil {
				t.Fatal(err)
			}

			if err := env.service.OnTerminationDecision(context.Background(), e.ID, tt.approved); err != nil {
				t.Fatalf("OnTerminationDecision: %v", err)
			}

			fresh, err := env.service.GetEmployee(context.Background(), e.ID)
			if err != nil {
				t.Fatal(err)
			}
			if fresh.Status != tt.want {
				t.Errorf("status = %s, want %s", fresh.Status, tt.want)
			}

			sent := env.mail.Sent()
			last := sent[len(sent)-1]
			if last.To != "hr@spazaafy.co.za" {
				t.Errorf("decision notice went to %s, want HR team", last.To)
			}
		})
	}
}

func TestOnTerminationDecisionWithoutOpenReview(t *testing.T) {
	env := newTestEnv(t)
	e := createTestEmployee(t, env)

	if err := env.service.OnTerminationDecision(context.Background(), e.ID, true); err == nil {
		t.Fatal("expected conflict without an open review")
	}
}

func TestFinalizeTermination(t *testing.T) {
	env := newTestEnv(t)
	e := createTestEmployee(t, env)

	// Finalize requires the notice period first.
	if _, err := env.service.FinalizeTermination(context.Background(), e.ID); err == nil {
		t.Fatal("finalize succeeded before notice period")
	}

	if _, _, err := env.service.InitiateTermination(context.Background(), e.ID, "cause"); err != nil {
		t.Fatal(err)
	}
	if err := env.service.OnTerminationDecision(context.Background(), e.ID, true); err != nil {
		t.Fatal(err)
	}

	final, err := env.service.FinalizeTermination(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("FinalizeTermination: %v", err)
	}
	if final.Status != StatusTerminated {
		t.Errorf("status = %s, want terminated", final.Status)
	}
}

func TestImportLegacyEmployeeUpserts(t *testing.T) {
	env := newTestEnv(t)

	first, err := NewEmployee("Thandi", "Mokoena", "thandi@spazaafy.co.za", "", "Finance", "Clerk")
	if err != nil {
		t.Fatal(err)
	}
	first.Status = StatusEmployed
	first.LegacyRef = "PAY-0042"
	if err := env.service.ImportLegacyEmployee(context.Background(), first); err != nil {
		t.Fatalf("first import: %v", err)
	}

	second, err := NewEmployee("Thandi", "Mokoena", "thandi@spazaafy.co.za", "+27830000000", "Finance", "Senior Clerk")
	if err != nil {
		t.Fatal(err)
	}
	second.Status = StatusEmployed
	second.LegacyRef = "PAY-0042"
	if err := env.service.ImportLegacyEmployee(context.Background(), second); err != nil {
		t.Fatalf("second import: %v", err)
	}

	employees, total, err := env.service.ListEmployees(context.Background(), ListFilter{Search: "thandi"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(employees) != 1 {
		t.Fatalf("employees = %d (total %d), want exactly one", len(employees), total)
	}
	if employees[0].RoleTitle != "Senior Clerk" {
		t.Errorf("role = %q, want refreshed Senior Clerk", employees[0].RoleTitle)
	}
}

// A failed review insert must not leave the employee flipped; the memory
// repository has to mirror the all-or-nothing Postgres transaction.
func TestBeginTerminationFailureLeavesEmployeeUntouched(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	e := createTestEmployee(t, env)

	req, err := legaldomain.NewRequest(
		legaldomain.CategoryTerminationReview, legaldomain.UrgencyCritical,
		"Termination Review: Sipho Ndlovu", "HR Request for Termination.\nReason: audit",
		"HR Department", "hr@spazaafy.co.za", "HR",
	)
	if err != nil {
		t.Fatal(err)
	}
	req.RelatedEmployeeID = e.ID

	// Occupy the request ID so the write inside BeginTermination conflicts.
	if err := env.legalRepo.Save(ctx, req); err != nil {
		t.Fatal(err)
	}

	flipped := *e
	flipped.Status = StatusPendingTermination
	if err := env.repo.BeginTermination(ctx, &flipped, req); err == nil {
		t.Fatal("expected conflict on the duplicate review")
	}

	stored, err := env.repo.FindByID(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status == StatusPendingTermination {
		t.Fatalf("employee status = %s after failed begin, want unchanged", stored.Status)
	}
}
