// Package smtp implements a Provider that submits messages to an SMTP relay host.
package smtp

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"github.com/marianglobal/quote-relay/internal/email"
)

// implicitTLSPort is the submission port that uses implicit TLS rather than
// STARTTLS.
const implicitTLSPort = 465

// Dialer is the subset of gomail.Dialer used by the provider.
// Used for testing with mock implementations.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPProviderConfig holds the configuration for creating an SMTPProvider.
type SMTPProviderConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPProvider sends messages through an authenticated SMTP submission host.
type SMTPProvider struct {
	dialer Dialer
}

// New creates a new SMTPProvider with the given configuration. Port 465 uses
// implicit TLS; any other port negotiates STARTTLS when the server offers it.
func New(cfg SMTPProviderConfig) *SMTPProvider {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.Port == implicitTLSPort
	return &SMTPProvider{dialer: d}
}

// NewWithDialer creates an SMTPProvider with a custom dialer, used for testing.
func NewWithDialer(d Dialer) *SMTPProvider {
	return &SMTPProvider{dialer: d}
}

// Send delivers a message via SMTP. The dial-and-send call has no context
// awareness of its own, so it runs in a goroutine and the context deadline
// is enforced from outside; an abandoned attempt finishes in the background
// on its own connection.
func (s *SMTPProvider) Send(ctx context.Context, msg *email.Message) error {
	m := buildMessage(msg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.dialer.DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	}
}

// Name returns the provider name.
func (s *SMTPProvider) Name() string {
	return "smtp"
}

// buildMessage converts the internal message model into a gomail message.
func buildMessage(msg *email.Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBody("text/plain", msg.TextBody)
		m.AddAlternative("text/html", msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBody("text/html", msg.HTMLBody)
	default:
		m.SetBody("text/plain", msg.TextBody)
	}

	for _, att := range msg.Attachments {
		att := att
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(att.Content)
				return err
			}),
		}
		if att.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {att.ContentType},
			}))
		}
		m.Attach(att.Filename, settings...)
	}

	return m
}
