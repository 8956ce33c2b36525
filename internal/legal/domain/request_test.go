package domain

import (
	"testing"
	"time"
)

func newTestRequest(t *testing.T) *Request {
	t.Helper()
	r, err := NewRequest(
		CategoryContract,
		UrgencyRoutine,
		"NDA with supplier",
		"Review before signature",
		"Thabo Mokoena",
		"thabo@example.com",
		"Field Ops",
	)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return r
}

func TestNewRequestValidation(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		desc     string
		subName  string
		subEmail string
		category Category
		urgency  Urgency
		wantErr  bool
	}{
		{"valid", "t", "d", "n", "e@x.com", CategoryContract, UrgencyRoutine, false},
		{"empty urgency defaults to routine", "t", "d", "n", "e@x.com", CategoryOther, "", false},
		{"missing title", "", "d", "n", "e@x.com", CategoryContract, UrgencyRoutine, true},
		{"missing description", "t", "", "n", "e@x.com", CategoryContract, UrgencyRoutine, true},
		{"missing submitter name", "t", "d", "", "e@x.com", CategoryContract, UrgencyRoutine, true},
		{"missing submitter email", "t", "d", "n", "", CategoryContract, UrgencyRoutine, true},
		{"unknown category", "t", "d", "n", "e@x.com", "tax", UrgencyRoutine, true},
		{"unknown urgency", "t", "d", "n", "e@x.com", CategoryContract, "whenever", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRequest(tt.category, tt.urgency, tt.title, tt.desc, tt.subName, tt.subEmail, "Tech")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if r.Status != StatusSubmitted {
				t.Errorf("status = %s, want %s", r.Status, StatusSubmitted)
			}
			if r.Reference == "" {
				t.Error("reference not generated")
			}
			if tt.urgency == "" && r.Urgency != UrgencyRoutine {
				t.Errorf("urgency = %s, want routine default", r.Urgency)
			}
		})
	}
}

func TestChangeStatusMintsAmendmentToken(t *testing.T) {
	r := newTestRequest(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	change, err := r.ChangeStatus(StatusAmendmentRequested, "clause 4 needs work", 0, now)
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}

	if !change.UploadLink || change.Token == "" {
		t.Fatal("no upload link minted")
	}
	if r.AmendmentToken != change.Token {
		t.Error("token not stored on request")
	}
	if r.PausedAt == nil || !r.PausedAt.Equal(now) {
		t.Error("pause clock not started")
	}
	wantDeadline := now.Add(DefaultAmendmentDays * 24 * time.Hour)
	if r.AmendmentDeadline == nil || !r.AmendmentDeadline.Equal(wantDeadline) {
		t.Errorf("deadline = %v, want %v", r.AmendmentDeadline, wantDeadline)
	}
	if len(r.Notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(r.Notes))
	}
	if r.Notes[0].Label != "AMENDMENT_REQUESTED" {
		t.Errorf("note label = %q", r.Notes[0].Label)
	}
}

func TestChangeStatusCustomWindow(t *testing.T) {
	r := newTestRequest(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	change, err := r.ChangeStatus(StatusAmendmentRequested, "", 3, now)
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	want := now.Add(3 * 24 * time.Hour)
	if !change.Deadline.Equal(want) {
		t.Errorf("deadline = %v, want %v", change.Deadline, want)
	}
}

func TestSubmitAmendmentSettlesPause(t *testing.T) {
	r := newTestRequest(t)
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	if _, err := r.ChangeStatus(StatusAmendmentRequested, "fix it", 7, start); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}

	uploaded := start.Add(48 * time.Hour)
	att := Attachment{FileName: "nda_v2.pdf", StorageKey: "legal_intake/x", URL: "http://x"}
	if err := r.SubmitAmendment(att, uploaded); err != nil {
		t.Fatalf("SubmitAmendment: %v", err)
	}

	if r.Status != StatusAmendmentSubmitted {
		t.Errorf("status = %s, want %s", r.Status, StatusAmendmentSubmitted)
	}
	if r.AmendmentToken != "" {
		t.Error("token not cleared after redemption")
	}
	if r.PausedAt != nil {
		t.Error("pause clock still running")
	}
	if r.AmendmentDeadline != nil {
		t.Error("deadline not cleared")
	}
	if r.TotalPaused != 48*time.Hour {
		t.Errorf("total paused = %v, want 48h", r.TotalPaused)
	}
	if len(r.Attachments) != 1 || !r.Attachments[0].Revision {
		t.Fatal("revision attachment not recorded")
	}
}

func TestSubmitAmendmentWithoutOutstandingRequest(t *testing.T) {
	r := newTestRequest(t)
	if err := r.SubmitAmendment(Attachment{FileName: "x.pdf"}, time.Now()); err == nil {
		t.Fatal("expected error when no amendment outstanding")
	}
}

func TestAdminOverrideClearsTokenAndSettlesPause(t *testing.T) {
	r := newTestRequest(t)
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	if _, err := r.ChangeStatus(StatusAmendmentRequested, "", 7, start); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}

	// Submitter never uploads; admin rejects directly.
	later := start.Add(72 * time.Hour)
	if _, err := r.ChangeStatus(StatusRejected, "no response", 0, later); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}

	if r.AmendmentToken != "" {
		t.Error("stale token survived admin override")
	}
	if r.PausedAt != nil {
		t.Error("pause clock still running after override")
	}
	if r.TotalPaused != 72*time.Hour {
		t.Errorf("total paused = %v, want 72h", r.TotalPaused)
	}
}

func TestPauseAccumulatesAcrossCycles(t *testing.T) {
	r := newTestRequest(t)
	t0 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	// First cycle: 24h paused.
	if _, err := r.ChangeStatus(StatusAmendmentRequested, "", 7, t0); err != nil {
		t.Fatal(err)
	}
	if err := r.SubmitAmendment(Attachment{FileName: "v2.pdf"}, t0.Add(24*time.Hour)); err != nil {
		t.Fatal(err)
	}

	// Second cycle: 12h paused.
	if _, err := r.ChangeStatus(StatusAmendmentRequested, "", 7, t0.Add(30*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := r.SubmitAmendment(Attachment{FileName: "v3.pdf"}, t0.Add(42*time.Hour)); err != nil {
		t.Fatal(err)
	}

	if r.TotalPaused != 36*time.Hour {
		t.Errorf("total paused = %v, want 36h", r.TotalPaused)
	}

	// A later transition without an open pause must not change the total.
	before := r.TotalPaused
	if _, err := r.ChangeStatus(StatusApproved, "done", 0, t0.Add(50*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if r.TotalPaused != before {
		t.Error("pause total drifted on pauseless transition")
	}
}

func TestEffectiveAgeExcludesPauses(t *testing.T) {
	r := newTestRequest(t)
	t0 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	r.CreatedAt = t0

	if _, err := r.ChangeStatus(StatusAmendmentRequested, "", 7, t0.Add(10*time.Hour)); err != nil {
		t.Fatal(err)
	}

	// 10h active + 5h into an open pause.
	got := r.EffectiveAge(t0.Add(15 * time.Hour))
	if got != 10*time.Hour {
		t.Errorf("effective age = %v, want 10h", got)
	}

	if err := r.SubmitAmendment(Attachment{FileName: "v2.pdf"}, t0.Add(20*time.Hour)); err != nil {
		t.Fatal(err)
	}

	// 10h active, 10h paused, then 4h active.
	got = r.EffectiveAge(t0.Add(24 * time.Hour))
	if got != 14*time.Hour {
		t.Errorf("effective age = %v, want 14h", got)
	}
}

func TestChangeStatusRejectsInvalidTargets(t *testing.T) {
	r := newTestRequest(t)
	now := time.Now()

	if _, err := r.ChangeStatus("archived", "", 0, now); err == nil {
		t.Error("unknown status accepted")
	}
	if _, err := r.ChangeStatus(StatusSubmitted, "", 0, now); err == nil {
		t.Error("no-op transition accepted")
	}
}
