package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/EventStore/EventStore-Client-Go/v4/esdb"
	"github.com/google/uuid"
	"github.com/spazaafy/platform/internal/shared/config"
	"github.com/spazaafy/platform/internal/shared/types"
)

// Event types published on the lifecycle streams.
const (
	TypeLegalRequestCreated   = "spazaafy.legal.request.created"
	TypeLegalStatusChanged    = "spazaafy.legal.status.changed"
	TypeAmendmentSubmitted    = "spazaafy.legal.amendment.submitted"
	TypeTerminationInitiated  = "spazaafy.hr.termination.initiated"
	TypeTerminationFinalized  = "spazaafy.hr.termination.finalized"
	TypeEmployeeStatusChanged = "spazaafy.hr.employee.status.changed"
)

// Event represents a domain event
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`

	// Actor information
	ActorID    types.ID `json:"actor_id,omitempty"`
	ActorEmail string   `json:"actor_email,omitempty"`

	// Event data
	Data any `json:"data"`
}

// NewEvent creates a new event with auto-generated ID and timestamp
func NewEvent(eventType, source string, data any) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// WithActor sets the actor information on the event
func (e Event) WithActor(actorID types.ID, actorEmail string) Event {
	e.ActorID = actorID
	e.ActorEmail = actorEmail
	return e
}

// Publisher publishes domain events. Services hold this interface so the
// bus stays optional at boot.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Bus publishes lifecycle events to EventStoreDB
type Bus struct {
	client *esdb.Client
	prefix string
}

// NewBus creates a new event bus connected to EventStoreDB
func NewBus(ctx context.Context, cfg config.EventStoreConfig) (*Bus, error) {
	settings, err := esdb.ParseConnectionString(buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	client, err := esdb.NewClient(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create EventStore client: %w", err)
	}

	return &Bus{
		client: client,
		prefix: "spazaafy",
	}, nil
}

// buildConnectionString creates the esdb:// connection string
func buildConnectionString(cfg config.EventStoreConfig) string {
	var auth string
	if cfg.Username != "" && cfg.Password != "" {
		auth = fmt.Sprintf("%s:%s@", cfg.Username, cfg.Password)
	}

	params := ""
	if cfg.Insecure {
		params = "?tls=false&tlsVerifyCert=false"
	}

	return fmt.Sprintf("esdb://%s%s:%d%s", auth, cfg.Host, cfg.Port, params)
}

// Publish publishes an event to the bus
func (b *Bus) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// spazaafy.legal.status.changed -> spazaafy-legal-status-changed
	stream := fmt.Sprintf("%s-%s", b.prefix, normalizeEventType(event.Type))

	eventID, err := uuid.Parse(event.ID)
	if err != nil {
		eventID = uuid.New()
	}

	esdbEvent := esdb.EventData{
		EventType:   event.Type,
		ContentType: esdb.ContentTypeJson,
		Data:        data,
		EventID:     eventID,
	}

	_, err = b.client.AppendToStream(ctx, stream, esdb.AppendToStreamOptions{
		ExpectedRevision: esdb.Any{},
	}, esdbEvent)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Close closes the event bus connection
func (b *Bus) Close() error {
	if b.client != nil {
		return b.client.Close()
	}
	return nil
}

func normalizeEventType(eventType string) string {
	return strings.ReplaceAll(strings.TrimPrefix(eventType, "spazaafy."), ".", "-")
}

// NopPublisher discards events. Used when the bus is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// LoggingPublisher wraps a Publisher and logs failures instead of
// propagating them. Lifecycle publication never blocks a request.
type LoggingPublisher struct {
	Next   Publisher
	Logger *slog.Logger
}

func (p LoggingPublisher) Publish(ctx context.Context, event Event) error {
	if err := p.Next.Publish(ctx, event); err != nil {
		p.Logger.Warn("event publish failed", "type", event.Type, "error", err)
	}
	return nil
}
