package notification

import (
	"context"
	"log/slog"

	"github.com/spazaafy/platform/internal/shared/metrics"
)

// Dispatcher fans a message across an ordered provider chain. The first
// provider that accepts the message wins. Delivery failure is logged and
// swallowed so the calling workflow never stalls on mail.
type Dispatcher struct {
	providers []Provider
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher over the given providers, tried in
// order.
func NewDispatcher(logger *slog.Logger, providers ...Provider) *Dispatcher {
	return &Dispatcher{providers: providers, logger: logger}
}

// Send attempts delivery through the chain. It always returns nil; the
// outcome is visible in logs and metrics only.
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	for _, p := range d.providers {
		err := p.Send(ctx, msg)
		metrics.RecordNotification(p.Name(), err == nil)
		if err == nil {
			return nil
		}
		d.logger.Warn("notification delivery failed",
			"provider", p.Name(),
			"to", msg.To,
			"subject", msg.Subject,
			"error", err,
		)
	}
	d.logger.Error("notification undeliverable on all providers",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}
