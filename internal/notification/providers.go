package notification

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/spazaafy/platform/internal/shared/config"
)

// SMTPProvider delivers mail over SMTP with STARTTLS.
type SMTPProvider struct {
	name string
	cfg  config.SMTPConfig
}

// NewSMTPProvider creates an SMTP provider. The name distinguishes the
// primary and fallback relays in logs and metrics.
func NewSMTPProvider(name string, cfg config.SMTPConfig) *SMTPProvider {
	return &SMTPProvider{name: name, cfg: cfg}
}

func (p *SMTPProvider) Name() string { return p.name }

// Send delivers one message
func (p *SMTPProvider) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return nil
	}
	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, p.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if p.cfg.UseTLS {
		tlsConfig := &tls.Config{ServerName: p.cfg.Host}
		if err := client.StartTLS(tlsConfig); err != nil {
			return err
		}
	}

	if p.cfg.User != "" {
		auth := smtp.PlainAuth("", p.cfg.User, p.cfg.Password, p.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(p.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(msg.To); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(buildMessage(p.cfg.From, msg)); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func buildMessage(from string, msg Message) []byte {
	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", msg.To),
		fmt.Sprintf("Subject: %s", msg.Subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n" + msg.Body)
}

// ConsoleProvider prints messages to stdout (for development)
type ConsoleProvider struct{}

// NewConsoleProvider creates a console logging provider
func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

func (p *ConsoleProvider) Name() string { return "console" }

// Send logs the message to console
func (p *ConsoleProvider) Send(ctx context.Context, msg Message) error {
	fmt.Printf("\n[EMAIL]\n")
	fmt.Printf("  To:      %s\n", msg.To)
	fmt.Printf("  Subject: %s\n", msg.Subject)
	fmt.Printf("  Body:\n%s\n\n", msg.Body)
	return nil
}

// MockProvider records messages for testing
type MockProvider struct {
	mu         sync.RWMutex
	sent       []Message
	failOnSend bool
}

// NewMockProvider creates a new mock provider
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Name() string { return "mock" }

// Send records the message (mock implementation)
func (p *MockProvider) Send(ctx context.Context, msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failOnSend {
		return fmt.Errorf("mock send failure")
	}
	p.sent = append(p.sent, msg)
	return nil
}

// SetFailOnSend sets whether Send should fail
func (p *MockProvider) SetFailOnSend(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failOnSend = fail
}

// Sent returns all recorded messages
func (p *MockProvider) Sent() []Message {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Message, len(p.sent))
	copy(out, p.sent)
	return out
}
