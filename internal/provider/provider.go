// Package provider defines the interface for email delivery backends.
package provider

import (
	"context"

	"github.com/marianglobal/quote-relay/internal/email"
)

// Provider is the interface that email delivery backends must implement.
// Each provider handles the actual sending of an outbound message to the
// target service (e.g., an SMTP submission host, AWS SES, stdout).
//
// Send makes exactly one delivery attempt. Retry policy belongs to the
// caller, and for form submissions the caller is the browser resubmitting.
type Provider interface {
	// Send delivers a message through this provider.
	// It returns an error if the delivery fails.
	Send(ctx context.Context, msg *email.Message) error

	// Name returns the human-readable name of this provider.
	Name() string
}
