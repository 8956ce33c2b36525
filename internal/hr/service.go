package hr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	legaldomain "github.com/spazaafy/platform/internal/legal/domain"
	"github.com/spazaafy/platform/internal/notification"
	"github.com/spazaafy/platform/internal/shared/config"
	"github.com/spazaafy/platform/internal/shared/errors"
	"github.com/spazaafy/platform/internal/shared/events"
	"github.com/spazaafy/platform/internal/shared/metrics"
	"github.com/spazaafy/platform/internal/shared/types"
)

// Service coordinates the HR employee workflow, including the bridge to
// legal review for terminations.
type Service struct {
	repo       Repository
	dispatcher *notification.Dispatcher
	bus        events.Publisher
	cfg        config.AppConfig
	logger     *slog.Logger
}

// NewService creates the HR service
func NewService(
	repo Repository,
	dispatcher *notification.Dispatcher,
	bus events.Publisher,
	cfg config.AppConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		dispatcher: dispatcher,
		bus:        bus,
		cfg:        cfg,
		logger:     logger,
	}
}

// CreateEmployeeInput carries the fields for a new employee record.
type CreateEmployeeInput struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
	RoleTitle  string `json:"role_title"`
}

// CreateEmployee registers a new employee in the onboarding state.
func (s *Service) CreateEmployee(ctx context.Context, input CreateEmployeeInput) (*Employee, error) {
	e, err := NewEmployee(input.FirstName, input.LastName, input.Email, input.Phone, input.Department, input.RoleTitle)
	if err != nil {
		return nil, errors.BadRequest(err.Error())
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// GetEmployee loads one employee by ID
func (s *Service) GetEmployee(ctx context.Context, id types.ID) (*Employee, error) {
	return s.repo.FindByID(ctx, id)
}

// ListEmployees lists employees matching the filter
func (s *Service) ListEmployees(ctx context.Context, filter ListFilter) ([]Employee, int, error) {
	return s.repo.List(ctx, filter)
}

// UpdateStatus applies a direct staff-driven status change. Termination
// moves go through InitiateTermination and FinalizeTermination instead.
func (s *Service) UpdateStatus(ctx context.Context, id types.ID, newStatus EmployeeStatus) (*Employee, error) {
	if !ValidEmployeeStatus(newStatus) {
		return nil, errors.BadRequest(fmt.Sprintf("unknown status: %s", newStatus))
	}
	if newStatus == StatusPendingTermination || newStatus == StatusTerminated {
		return nil, errors.BadRequest("termination runs through the legal review workflow")
	}

	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == StatusPendingTermination {
		// Only the legal review decision clears this state.
		return nil, errors.Conflict("employee is under termination review")
	}

	from := e.Status
	e.Status = newStatus
	e.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, e, from)
	return e, nil
}

// InitiateTermination opens a termination review: the employee is placed
// in pending_termination and a critical legal request is filed against
// them, atomically.
func (s *Service) InitiateTermination(ctx context.Context, id types.ID, reason string) (*Employee, *legaldomain.Request, error) {
	if reason == "" {
		return nil, nil, errors.BadRequest("Reason is required")
	}

	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	from := e.Status
	if err := e.MarkPendingTermination(now); err != nil {
		return nil, nil, errors.BadRequest(err.Error())
	}

	req, err := legaldomain.NewRequest(
		legaldomain.CategoryTerminationReview,
		legaldomain.UrgencyCritical,
		fmt.Sprintf("Termination Review: %s", e.FullName()),
		fmt.Sprintf("HR Request for Termination.\nReason: %s", reason),
		"HR Department",
		s.cfg.HRTeamEmail,
		"HR",
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to build legal request")
	}
	req.RelatedEmployeeID = e.ID

	if err := s.repo.BeginTermination(ctx, e, req); err != nil {
		return nil, nil, err
	}

	metrics.RecordTerminationInitiated()
	metrics.RecordLegalRequestCreated(string(req.Category), string(req.Urgency))
	s.publishStatusChange(ctx, e, from)
	s.bus.Publish(ctx, events.NewEvent(events.TypeTerminationInitiated, "hr", map[string]any{
		"employee_id": e.ID,
		"request_id":  req.ID,
		"reference":   req.Reference,
	}))

	s.dispatcher.Send(ctx, notification.Message{
		To:      s.cfg.LegalTeamEmail,
		Subject: fmt.Sprintf("New Legal Request: %s", req.Title),
		Body: fmt.Sprintf(
			"Urgency: %s\nFrom: %s (%s)\nFiles Attached: 0\n\nAccess via Legal Admin Portal.",
			req.Urgency, req.SubmitterName, req.Department,
		),
	})

	return e, req, nil
}

// FinalizeTermination completes an approved termination after the notice
// period.
func (s *Service) FinalizeTermination(ctx context.Context, id types.ID) (*Employee, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := e.Status
	if err := e.FinalizeTermination(time.Now().UTC()); err != nil {
		return nil, errors.BadRequest(err.Error())
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, e, from)
	s.bus.Publish(ctx, events.NewEvent(events.TypeTerminationFinalized, "hr", map[string]any{
		"employee_id": e.ID,
	}))
	return e, nil
}

// OnTerminationDecision implements the legal module's bridge: an
// approved review starts the notice period, a rejected one restores the
// employee.
func (s *Service) OnTerminationDecision(ctx context.Context, employeeID types.ID, approved bool) error {
	e, err := s.repo.FindByID(ctx, employeeID)
	if err != nil {
		return err
	}

	from := e.Status
	if err := e.ApplyTerminationDecision(approved, time.Now().UTC()); err != nil {
		return errors.Conflict(err.Error())
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return err
	}

	s.publishStatusChange(ctx, e, from)

	s.dispatcher.Send(ctx, notification.Message{
		To:      s.cfg.HRTeamEmail,
		Subject: fmt.Sprintf("Termination Review Decision: %s", e.FullName()),
		Body:    fmt.Sprintf("Legal has %s the termination review.\nEmployee status is now: %s", decisionWord(approved), e.Status),
	})
	return nil
}

// ImportLegacyEmployee records one employee pulled from the legacy
// payroll system.
func (s *Service) ImportLegacyEmployee(ctx context.Context, e *Employee) error {
	if err := s.repo.UpsertByLegacyRef(ctx, e); err != nil {
		return err
	}
	s.logger.Info("legacy employee imported", "legacy_ref", e.LegacyRef, "email", e.Email)
	return nil
}

func (s *Service) publishStatusChange(ctx context.Context, e *Employee, from EmployeeStatus) {
	s.bus.Publish(ctx, events.NewEvent(events.TypeEmployeeStatusChanged, "hr", map[string]any{
		"employee_id": e.ID,
		"from":        from,
		"to":          e.Status,
	}))
}

func decisionWord(approved bool) string {
	if approved {
		return "approved"
	}
	return "rejected"
}
