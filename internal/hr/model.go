package hr

import (
	"fmt"
	"time"

	"github.com/spazaafy/platform/internal/shared/types"
)

// EmployeeStatus defines the employment lifecycle state
type EmployeeStatus string

const (
	StatusOnboarding           EmployeeStatus = "onboarding"
	StatusEmployed             EmployeeStatus = "employed"
	StatusSuspended            EmployeeStatus = "suspended"
	StatusNotice               EmployeeStatus = "notice"
	StatusPendingTermination   EmployeeStatus = "pending_termination"
	StatusNoticeGiven          EmployeeStatus = "notice_given"
	StatusTerminated           EmployeeStatus = "terminated"
	StatusResignationRequested EmployeeStatus = "resignation_requested"
	StatusResigned             EmployeeStatus = "resigned"
	StatusRetired              EmployeeStatus = "retired"
)

var validEmployeeStatuses = map[EmployeeStatus]bool{
	StatusOnboarding:           true,
	StatusEmployed:             true,
	StatusSuspended:            true,
	StatusNotice:               true,
	StatusPendingTermination:   true,
	StatusNoticeGiven:          true,
	StatusTerminated:           true,
	StatusResignationRequested: true,
	StatusResigned:             true,
	StatusRetired:              true,
}

// ValidEmployeeStatus reports whether s names a known lifecycle state.
func ValidEmployeeStatus(s EmployeeStatus) bool { return validEmployeeStatuses[s] }

// Employee is an HR personnel record. LegacyRef carries the identifier
// of the source row when the record was imported from the legacy payroll
// system.
type Employee struct {
	ID         types.ID       `json:"id"`
	FirstName  string         `json:"first_name"`
	LastName   string         `json:"last_name"`
	Email      string         `json:"email"`
	Phone      string         `json:"phone"`
	Department string         `json:"department"`
	RoleTitle  string         `json:"role_title"`
	Status     EmployeeStatus `json:"status"`
	LegacyRef  string         `json:"legacy_ref,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// NewEmployee creates an employee in the onboarding state.
func NewEmployee(firstName, lastName, email, phone, department, roleTitle string) (*Employee, error) {
	if firstName == "" || lastName == "" {
		return nil, fmt.Errorf("first and last name are required")
	}
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if department == "" {
		return nil, fmt.Errorf("department is required")
	}

	now := time.Now().UTC()
	return &Employee{
		ID:         types.NewID(),
		FirstName:  firstName,
		LastName:   lastName,
		Email:      email,
		Phone:      phone,
		Department: department,
		RoleTitle:  roleTitle,
		Status:     StatusOnboarding,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// FullName returns the employee's display name
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// MarkPendingTermination places the employee under legal review. Invalid
// once the employee has already left or a review is already open.
func (e *Employee) MarkPendingTermination(now time.Time) error {
	switch e.Status {
	case StatusPendingTermination:
		return fmt.Errorf("termination review already open")
	case StatusNoticeGiven, StatusTerminated, StatusResigned, StatusRetired:
		return fmt.Errorf("cannot initiate termination from status %s", e.Status)
	}
	e.Status = StatusPendingTermination
	e.UpdatedAt = now
	return nil
}

// ApplyTerminationDecision resolves an open legal review: approval moves
// the employee into the notice period, rejection restores full
// employment.
func (e *Employee) ApplyTerminationDecision(approved bool, now time.Time) error {
	if e.Status != StatusPendingTermination {
		return fmt.Errorf("no termination review open for employee in status %s", e.Status)
	}
	if approved {
		e.Status = StatusNoticeGiven
	} else {
		e.Status = StatusEmployed
	}
	e.UpdatedAt = now
	return nil
}

// FinalizeTermination completes an approved termination once the notice
// period has run.
func (e *Employee) FinalizeTermination(now time.Time) error {
	if e.Status != StatusNoticeGiven {
		return fmt.Errorf("employee must be in notice period first")
	}
	e.Status = StatusTerminated
	e.UpdatedAt = now
	return nil
}
