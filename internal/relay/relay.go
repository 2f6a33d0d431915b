// Package relay renders and dispatches the two emails produced by one form
// submission: the owner notification and the submitter acknowledgement.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/marianglobal/quote-relay/internal/email"
	"github.com/marianglobal/quote-relay/internal/form"
	"github.com/marianglobal/quote-relay/internal/metrics"
	"github.com/marianglobal/quote-relay/internal/provider"
)

// ErrOwnerSend indicates the owner notification could not be delivered.
// Dispatch fails as a whole when this happens.
var ErrOwnerSend = errors.New("owner notification failed")

// defaultSendTimeout bounds a single provider send when no timeout is configured.
const defaultSendTimeout = 30 * time.Second

// Config holds the configuration for creating a Relay.
type Config struct {
	// Provider is the delivery backend both emails are sent through.
	Provider provider.Provider

	// Sender is the From address on every outbound message.
	Sender string

	// Owner is the destination address for the owner notification.
	Owner string

	// SendTimeout bounds each individual send. Zero means the default.
	SendTimeout time.Duration

	// Now supplies the "received at" instant for rendering. Zero means
	// time.Now. Injectable so tests get deterministic output.
	Now func() time.Time
}

// Relay dispatches the owner notification and the submitter acknowledgement
// for decoded form submissions. The two sends are strictly ordered: the
// acknowledgement is only attempted after the owner notification succeeded.
//
// The failure policy is asymmetric. The owner notification is load-bearing:
// if it fails, Dispatch fails and the acknowledgement is never attempted.
// The acknowledgement is best-effort: once the owner notification got
// through, an acknowledgement failure is logged and counted but Dispatch
// still reports success.
//
// A Relay holds no per-request state and is safe for concurrent use.
type Relay struct {
	provider    provider.Provider
	sender      string
	owner       string
	sendTimeout time.Duration
	now         func() time.Time
}

// New creates a Relay with the given configuration.
func New(cfg Config) *Relay {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Relay{
		provider:    cfg.Provider,
		sender:      cfg.Sender,
		owner:       cfg.Owner,
		sendTimeout: cfg.SendTimeout,
		now:         cfg.Now,
	}
}

// Dispatch sends the owner notification and then the submitter
// acknowledgement for one submission. Each send makes a single attempt
// under a bounded timeout; a timeout counts as a transport failure.
func (r *Relay) Dispatch(ctx context.Context, sub *form.Submission) error {
	receivedAt := r.now()

	ownerHTML, err := renderOwnerHTML(sub, receivedAt)
	if err != nil {
		return err
	}

	ownerMsg := &email.Message{
		From:     r.sender,
		To:       r.owner,
		ReplyTo:  sub.Get("email"),
		Subject:  ownerSubject(sub),
		HTMLBody: ownerHTML,
	}
	if sub.Attachment != nil {
		ownerMsg.Attachments = []email.Attachment{*sub.Attachment}
	}

	if err := r.send(ctx, ownerMsg); err != nil {
		return fmt.Errorf("%w: %s", ErrOwnerSend, err)
	}

	// Decode guarantees a valid email field, but the acknowledgement stays
	// conditional so a submission constructed elsewhere cannot panic the
	// relay into sending to an empty address.
	submitter := sub.Get("email")
	if submitter == "" {
		slog.Warn("submission has no email field, skipping acknowledgement")
		return nil
	}

	ackHTML, err := renderAckHTML(sub)
	if err != nil {
		slog.Warn("failed to render acknowledgement", "error", err)
		metrics.RecordAckFailure()
		return nil
	}

	ackMsg := &email.Message{
		From:     r.sender,
		To:       submitter,
		ReplyTo:  r.owner,
		Subject:  ackSubject(sub),
		HTMLBody: ackHTML,
	}

	if err := r.send(ctx, ackMsg); err != nil {
		slog.Warn("submitter acknowledgement failed",
			"to", submitter,
			"error", err,
		)
		metrics.RecordAckFailure()
	}

	return nil
}

// send performs a single provider send bounded by the configured timeout.
func (r *Relay) send(ctx context.Context, msg *email.Message) error {
	ctx, cancel := context.WithTimeout(ctx, r.sendTimeout)
	defer cancel()
	return r.provider.Send(ctx, msg)
}
