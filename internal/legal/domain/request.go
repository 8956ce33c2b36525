package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spazaafy/platform/internal/shared/types"
)

// Category defines the kind of legal matter
type Category string

const (
	CategoryContract          Category = "contract"
	CategoryPolicy            Category = "policy"
	CategoryIP                Category = "ip"
	CategoryCompliance        Category = "compliance"
	CategoryDispute           Category = "dispute"
	CategoryTerminationReview Category = "termination_review"
	CategoryOther             Category = "other"
)

// Urgency defines the requested review speed
type Urgency string

const (
	UrgencyRoutine  Urgency = "routine"  // 7-14 days
	UrgencyPriority Urgency = "priority" // 3-5 days
	UrgencyUrgent   Urgency = "urgent"   // 24-48 hours
	UrgencyCritical Urgency = "critical" // immediate
)

// Status defines the review lifecycle state
type Status string

const (
	StatusSubmitted          Status = "submitted"
	StatusUnderReview        Status = "under_review"
	StatusAmendmentRequested Status = "amendment_requested"
	StatusAmendmentSubmitted Status = "amendment_submitted"
	StatusApproved           Status = "approved"
	StatusRejected           Status = "rejected"
	StatusFiled              Status = "filed"
)

// DefaultAmendmentDays is the deadline given to a submitter when no
// explicit window is requested.
const DefaultAmendmentDays = 7

var validCategories = map[Category]bool{
	CategoryContract:          true,
	CategoryPolicy:            true,
	CategoryIP:                true,
	CategoryCompliance:        true,
	CategoryDispute:           true,
	CategoryTerminationReview: true,
	CategoryOther:             true,
}

var validUrgencies = map[Urgency]bool{
	UrgencyRoutine:  true,
	UrgencyPriority: true,
	UrgencyUrgent:   true,
	UrgencyCritical: true,
}

var validStatuses = map[Status]bool{
	StatusSubmitted:          true,
	StatusUnderReview:        true,
	StatusAmendmentRequested: true,
	StatusAmendmentSubmitted: true,
	StatusApproved:           true,
	StatusRejected:           true,
	StatusFiled:              true,
}

// ValidStatus reports whether s names a known lifecycle state.
func ValidStatus(s Status) bool { return validStatuses[s] }

// Note is one entry in the privileged internal log. The log is
// append-only.
type Note struct {
	At    time.Time `json:"at"`
	Label string    `json:"label"`
	Text  string    `json:"text"`
}

// Attachment is a document filed with a request. Revision marks documents
// uploaded through the amendment flow.
type Attachment struct {
	ID         types.ID  `json:"id"`
	RequestID  types.ID  `json:"request_id"`
	FileName   string    `json:"file_name"`
	StorageKey string    `json:"storage_key"`
	URL        string    `json:"url"`
	Checksum   string    `json:"checksum,omitempty"`
	Size       int64     `json:"size"`
	Revision   bool      `json:"revision"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Request is the aggregate root for a legal review request.
//
// SLA time is measured against the review team, so the clock stops while
// the request waits on the submitter: entering amendment_requested sets
// PausedAt, and leaving it folds the elapsed pause into TotalPaused.
type Request struct {
	ID        types.ID `json:"id"`
	Reference string   `json:"reference"`
	Category  Category `json:"category"`
	Urgency   Urgency  `json:"urgency"`

	Title       string `json:"title"`
	Description string `json:"description"`

	SubmitterName  string `json:"submitter_name"`
	SubmitterEmail string `json:"submitter_email"`
	Department     string `json:"department"`

	// Set only for termination reviews raised by HR.
	RelatedEmployeeID types.ID `json:"related_employee_id,omitempty"`

	Status      Status       `json:"status"`
	Notes       []Note       `json:"notes,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`

	// Amendment pause accounting. AmendmentToken is non-empty exactly
	// while the request sits in amendment_requested with the upload link
	// outstanding.
	AmendmentToken    string        `json:"-"`
	PausedAt          *time.Time    `json:"paused_at,omitempty"`
	TotalPaused       time.Duration `json:"total_paused"`
	AmendmentDeadline *time.Time    `json:"amendment_deadline,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRequest creates a request in the submitted state.
func NewRequest(
	category Category,
	urgency Urgency,
	title, description string,
	submitterName, submitterEmail, department string,
) (*Request, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if description == "" {
		return nil, fmt.Errorf("description is required")
	}
	if submitterName == "" {
		return nil, fmt.Errorf("submitter name is required")
	}
	if submitterEmail == "" {
		return nil, fmt.Errorf("submitter email is required")
	}
	if !validCategories[category] {
		return nil, fmt.Errorf("unknown category: %s", category)
	}
	if urgency == "" {
		urgency = UrgencyRoutine
	}
	if !validUrgencies[urgency] {
		return nil, fmt.Errorf("unknown urgency: %s", urgency)
	}

	now := time.Now().UTC()
	id := types.NewID()
	return &Request{
		ID:             id,
		Reference:      fmt.Sprintf("LEG-%s", id.Short()),
		Category:       category,
		Urgency:        urgency,
		Title:          title,
		Description:    description,
		SubmitterName:  submitterName,
		SubmitterEmail: submitterEmail,
		Department:     department,
		Status:         StatusSubmitted,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// StatusChange captures the material side effects of one transition so
// the caller can build notifications from it.
type StatusChange struct {
	From       Status
	To         Status
	UploadLink bool   // an amendment link was minted
	Token      string // the minted token, when UploadLink
	Deadline   *time.Time
}

// ChangeStatus moves the request to newStatus, maintaining the pause
// clock and amendment token.
//
// Entering amendment_requested mints a fresh single-use token, starts the
// pause clock, and sets the upload deadline amendmentDays out. Leaving
// amendment_requested by any route folds the open pause into TotalPaused
// and revokes the outstanding token, including when an admin overrides
// the status without an upload ever arriving.
func (r *Request) ChangeStatus(newStatus Status, note string, amendmentDays int, now time.Time) (StatusChange, error) {
	if !validStatuses[newStatus] {
		return StatusChange{}, fmt.Errorf("unknown status: %s", newStatus)
	}
	if newStatus == r.Status {
		return StatusChange{}, fmt.Errorf("request is already %s", r.Status)
	}

	change := StatusChange{From: r.Status, To: newStatus}

	r.settlePause(now)
	r.AmendmentToken = ""
	r.AmendmentDeadline = nil

	if newStatus == StatusAmendmentRequested {
		if amendmentDays <= 0 {
			amendmentDays = DefaultAmendmentDays
		}
		token := uuid.New().String()
		deadline := now.Add(time.Duration(amendmentDays) * 24 * time.Hour)

		r.AmendmentToken = token
		r.PausedAt = &now
		r.AmendmentDeadline = &deadline

		change.UploadLink = true
		change.Token = token
		change.Deadline = &deadline
	}

	r.Status = newStatus
	r.UpdatedAt = now
	if note != "" {
		r.appendNote(now, strings.ToUpper(string(newStatus)), note)
	}

	return change, nil
}

// SubmitAmendment records a revised document uploaded through the public
// token link. Valid only while an amendment is outstanding.
func (r *Request) SubmitAmendment(att Attachment, now time.Time) error {
	if r.Status != StatusAmendmentRequested || r.AmendmentToken == "" {
		return fmt.Errorf("no amendment outstanding")
	}

	att.ID = types.NewID()
	att.RequestID = r.ID
	att.Revision = true
	att.UploadedAt = now
	r.Attachments = append(r.Attachments, att)

	r.settlePause(now)
	r.AmendmentToken = ""
	r.AmendmentDeadline = nil
	r.Status = StatusAmendmentSubmitted
	r.UpdatedAt = now
	r.appendNote(now, "SYSTEM", fmt.Sprintf("Amendment uploaded by submitter on %s", now.Format(time.RFC3339)))

	return nil
}

// AddAttachment records an intake document.
func (r *Request) AddAttachment(att Attachment, now time.Time) {
	att.ID = types.NewID()
	att.RequestID = r.ID
	att.UploadedAt = now
	r.Attachments = append(r.Attachments, att)
	r.UpdatedAt = now
}

// AddNote appends to the privileged internal log.
func (r *Request) AddNote(label, text string, now time.Time) {
	r.appendNote(now, label, text)
	r.UpdatedAt = now
}

// EffectiveAge returns how long the request has been on the review
// team's clock: wall time since creation minus settled pauses minus the
// currently open pause, if any.
func (r *Request) EffectiveAge(now time.Time) time.Duration {
	age := now.Sub(r.CreatedAt) - r.TotalPaused
	if r.PausedAt != nil {
		age -= now.Sub(*r.PausedAt)
	}
	if age < 0 {
		return 0
	}
	return age
}

// settlePause folds an open pause into the accumulated total.
func (r *Request) settlePause(now time.Time) {
	if r.PausedAt == nil {
		return
	}
	if d := now.Sub(*r.PausedAt); d > 0 {
		r.TotalPaused += d
	}
	r.PausedAt = nil
}

func (r *Request) appendNote(now time.Time, label, text string) {
	r.Notes = append(r.Notes, Note{At: now, Label: label, Text: text})
}
