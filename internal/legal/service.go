package legal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spazaafy/platform/internal/legal/domain"
	"github.com/spazaafy/platform/internal/notification"
	"github.com/spazaafy/platform/internal/shared/config"
	"github.com/spazaafy/platform/internal/shared/errors"
	"github.com/spazaafy/platform/internal/shared/events"
	"github.com/spazaafy/platform/internal/shared/metrics"
	"github.com/spazaafy/platform/internal/shared/types"
	"github.com/spazaafy/platform/internal/storage"
)

// MaxUploadSize caps a single document upload.
const MaxUploadSize = 10 * 1024 * 1024

// Bridge receives the outcome of a termination review. The HR module
// implements it; a nil bridge means decisions are not propagated.
type Bridge interface {
	OnTerminationDecision(ctx context.Context, employeeID types.ID, approved bool) error
}

// Service coordinates the legal request workflow
type Service struct {
	repo       domain.Repository
	store      storage.Store
	dispatcher *notification.Dispatcher
	bus        events.Publisher
	bridge     Bridge
	cfg        config.AppConfig
	logger     *slog.Logger
}

// NewService creates the legal service
func NewService(
	repo domain.Repository,
	store storage.Store,
	dispatcher *notification.Dispatcher,
	bus events.Publisher,
	cfg config.AppConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		store:      store,
		dispatcher: dispatcher,
		bus:        bus,
		cfg:        cfg,
		logger:     logger,
	}
}

// SetBridge attaches the HR bridge. Called once during wiring; the HR
// module depends on this package, not the other way around.
func (s *Service) SetBridge(b Bridge) {
	s.bridge = b
}

// Upload is one document submitted with a request.
type Upload struct {
	FileName string
	Content  io.Reader
}

// SubmitInput carries the public intake form fields.
type SubmitInput struct {
	Category       domain.Category
	Urgency        domain.Urgency
	Title          string
	Description    string
	SubmitterName  string
	SubmitterEmail string
	Department     string
	Documents      []Upload
}

// SubmitRequest files a new legal request from the public intake form.
func (s *Service) SubmitRequest(ctx context.Context, input SubmitInput) (*domain.Request, error) {
	req, err := domain.NewRequest(
		input.Category, input.Urgency,
		input.Title, input.Description,
		input.SubmitterName, input.SubmitterEmail, input.Department,
	)
	if err != nil {
		return nil, errors.BadRequest(err.Error())
	}

	now := time.Now().UTC()
	var storedKeys []string
	for _, doc := range input.Documents {
		obj, err := s.store.Put(ctx, storage.IntakeKey(now, doc.FileName), io.LimitReader(doc.Content, MaxUploadSize))
		if err != nil {
			s.removeStored(ctx, storedKeys)
			return nil, errors.Wrap(err, "failed to store document")
		}
		storedKeys = append(storedKeys, obj.Key)
		req.AddAttachment(domain.Attachment{
			FileName:   doc.FileName,
			StorageKey: obj.Key,
			URL:        obj.URL,
			Checksum:   obj.Checksum,
			Size:       obj.Size,
		}, now)
	}

	if err := s.repo.Save(ctx, req); err != nil {
		s.removeStored(ctx, storedKeys)
		return nil, err
	}

	metrics.RecordLegalRequestCreated(string(req.Category), string(req.Urgency))
	s.bus.Publish(ctx, events.NewEvent(events.TypeLegalRequestCreated, "legal", map[string]any{
		"request_id": req.ID,
		"reference":  req.Reference,
		"category":   req.Category,
		"urgency":    req.Urgency,
	}))

	s.dispatcher.Send(ctx, notification.Message{
		To:      s.cfg.LegalTeamEmail,
		Subject: fmt.Sprintf("New Legal Request: %s", req.Title),
		Body: fmt.Sprintf(
			"Urgency: %s\nFrom: %s (%s)\nFiles Attached: %d\n\nAccess via Legal Admin Portal.",
			req.Urgency, req.SubmitterName, req.Department, len(req.Attachments),
		),
	})

	return req, nil
}

// GetRequest loads one request by ID
func (s *Service) GetRequest(ctx context.Context, id types.ID) (*domain.Request, error) {
	return s.repo.FindByID(ctx, id)
}

// ListRequests lists requests matching the filter
func (s *Service) ListRequests(ctx context.Context, filter domain.ListFilter) ([]domain.Request, int, error) {
	return s.repo.List(ctx, filter)
}

// AddNote appends to a request's privileged internal log.
func (s *Service) AddNote(ctx context.Context, id types.ID, note string) (*domain.Request, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.AddNote("NOTE", note, time.Now().UTC())
	if err := s.repo.Update(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ChangeStatus applies a staff-driven status transition: pause clock and
// token handling, the HR bridge for termination decisions, and submitter
// notification.
func (s *Service) ChangeStatus(ctx context.Context, id types.ID, newStatus domain.Status, note string, amendmentDays int) (*domain.Request, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	change, err := req.ChangeStatus(newStatus, note, amendmentDays, now)
	if err != nil {
		return nil, errors.BadRequest(err.Error())
	}

	if err := s.repo.Update(ctx, req); err != nil {
		return nil, err
	}

	metrics.RecordLegalStatusChange(string(change.From), string(change.To))
	s.bus.Publish(ctx, events.NewEvent(events.TypeLegalStatusChanged, "legal", map[string]any{
		"request_id": req.ID,
		"reference":  req.Reference,
		"from":       change.From,
		"to":         change.To,
	}))

	s.propagateTerminationDecision(ctx, req, change.To)
	s.notifyStatusChange(ctx, req, change, note, amendmentDays)

	return req, nil
}

// SubmitAmendment redeems a public amendment token with a revised
// document. The upload is stored before the token is claimed; if the
// claim fails the orphaned object is removed.
func (s *Service) SubmitAmendment(ctx context.Context, token string, upload Upload) (*domain.Request, error) {
	now := time.Now().UTC()
	obj, err := s.store.Put(ctx, storage.IntakeKey(now, upload.FileName), io.LimitReader(upload.Content, MaxUploadSize))
	if err != nil {
		return nil, errors.Wrap(err, "failed to store revision")
	}

	req, err := s.repo.UpdateByToken(ctx, token, func(r *domain.Request) error {
		return r.SubmitAmendment(domain.Attachment{
			FileName:   upload.FileName,
			StorageKey: obj.Key,
			URL:        obj.URL,
			Checksum:   obj.Checksum,
			Size:       obj.Size,
		}, now)
	})
	if err != nil {
		s.removeStored(ctx, []string{obj.Key})
		if errors.IsNotFound(err) {
			return nil, errors.InvalidToken()
		}
		return nil, err
	}

	metrics.RecordTokenRedeemed()
	s.bus.Publish(ctx, events.NewEvent(events.TypeAmendmentSubmitted, "legal", map[string]any{
		"request_id": req.ID,
		"reference":  req.Reference,
	}))

	s.dispatcher.Send(ctx, notification.Message{
		To:      s.cfg.LegalTeamEmail,
		Subject: fmt.Sprintf("Amendment Received: %s", req.Title),
		Body: fmt.Sprintf(
			"A revised document has been uploaded for case %s.\nStatus has been reset for review.",
			req.Reference,
		),
	})

	return req, nil
}

// propagateTerminationDecision pushes approved/rejected termination
// reviews across the HR bridge. A missing employee is logged, not fatal.
func (s *Service) propagateTerminationDecision(ctx context.Context, req *domain.Request, to domain.Status) {
	if s.bridge == nil || req.Category != domain.CategoryTerminationReview || req.RelatedEmployeeID.IsZero() {
		return
	}
	if to != domain.StatusApproved && to != domain.StatusRejected {
		return
	}

	if err := s.bridge.OnTerminationDecision(ctx, req.RelatedEmployeeID, to == domain.StatusApproved); err != nil {
		s.logger.Warn("termination decision not propagated",
			"request", req.Reference,
			"employee_id", req.RelatedEmployeeID,
			"error", err,
		)
	}
}

func (s *Service) notifyStatusChange(ctx context.Context, req *domain.Request, change domain.StatusChange, note string, amendmentDays int) {
	if req.SubmitterEmail == "" {
		return
	}

	body := fmt.Sprintf("The status of your legal request has changed.\n\nNew Status: %s\n\nLegal Note/Instruction:\n%s", change.To, note)

	if change.UploadLink {
		if amendmentDays <= 0 {
			amendmentDays = domain.DefaultAmendmentDays
		}
		link := fmt.Sprintf("%s/legal/amend/%s", trimSlash(s.cfg.FrontendURL), change.Token)
		body += fmt.Sprintf(
			"\n\n--------------------------------------------------\nACTION REQUIRED:\nPlease upload the amended document using the link below.\nDEADLINE: %s (%d Days)\nLink: %s\n--------------------------------------------------",
			change.Deadline.Format("02 January 2006"), amendmentDays, link,
		)
	}

	s.dispatcher.Send(ctx, notification.Message{
		To:      req.SubmitterEmail,
		Subject: fmt.Sprintf("Legal Review Update: %s", req.Title),
		Body:    body,
	})
}

func (s *Service) removeStored(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.store.Remove(ctx, key); err != nil {
			s.logger.Warn("orphaned upload not removed", "key", key, "error", err)
		}
	}
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
