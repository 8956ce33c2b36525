package notification

import "context"

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Provider delivers a message over one channel.
type Provider interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}
