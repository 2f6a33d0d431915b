package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/marianglobal/quote-relay/internal/email"
	"github.com/marianglobal/quote-relay/internal/form"
)

// mockProvider records every message it is asked to send.
type mockProvider struct {
	sendFn func(ctx context.Context, msg *email.Message) error
	sent   []*email.Message
}

func (m *mockProvider) Send(ctx context.Context, msg *email.Message) error {
	m.sent = append(m.sent, msg)
	if m.sendFn != nil {
		return m.sendFn(ctx, msg)
	}
	return nil
}

func (m *mockProvider) Name() string { return "mock" }

func fixedNow() time.Time {
	return time.Date(2024, time.May, 10, 12, 30, 0, 0, time.UTC)
}

func testSubmission() *form.Submission {
	sub := form.NewSubmission()
	sub.Set("name", "Jane")
	sub.Set("email", "jane@example.com")
	sub.Set("message", "please quote this")
	return sub
}

func newTestRelay(p *mockProvider) *Relay {
	return New(Config{
		Provider: p,
		Sender:   "noreply@example.com",
		Owner:    "owner@example.com",
		Now:      fixedNow,
	})
}

func TestDispatch_SendsOwnerThenAck(t *testing.T) {
	t.Parallel()

	mock := &mockProvider{}
	r := newTestRelay(mock)

	if err := r.Dispatch(context.Background(), testSubmission()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mock.sent) != 2 {
		t.Fatalf("send count: got %d, want 2", len(mock.sent))
	}

	owner := mock.sent[0]
	if owner.To != "owner@example.com" {
		t.Errorf("owner To: got %q, want %q", owner.To, "owner@example.com")
	}
	if owner.From != "noreply@example.com" {
		t.Errorf("owner From: got %q, want %q", owner.From, "noreply@example.com")
	}
	if owner.ReplyTo != "jane@example.com" {
		t.Errorf("owner ReplyTo: got %q, want %q", owner.ReplyTo, "jane@example.com")
	}
	if !strings.Contains(owner.Subject, "Jane") {
		t.Errorf("owner Subject: got %q, want it to contain the name", owner.Subject)
	}

	ack := mock.sent[1]
	if ack.To != "jane@example.com" {
		t.Errorf("ack To: got %q, want %q", ack.To, "jane@example.com")
	}
	if ack.ReplyTo != "owner@example.com" {
		t.Errorf("ack ReplyTo: got %q, want %q", ack.ReplyTo, "owner@example.com")
	}
	if !strings.Contains(ack.HTMLBody, "Jane") {
		t.Error("ack body should reference the submitter name")
	}
}

func TestDispatch_OwnerFailureStopsDispatch(t *testing.T) {
	t.Parallel()

	mock := &mockProvider{
		sendFn: func(ctx context.Context, msg *email.Message) error {
			return errors.New("connection refused")
		},
	}
	r := newTestRelay(mock)

	err := r.Dispatch(context.Background(), testSubmission())
	if !errors.Is(err, ErrOwnerSend) {
		t.Fatalf("got %v, want ErrOwnerSend", err)
	}

	// The acknowledgement must never be attempted.
	if len(mock.sent) != 1 {
		t.Errorf("send count: got %d, want 1", len(mock.sent))
	}
	for _, msg := range mock.sent {
		if msg.To == "jane@example.com" {
			t.Error("submitter acknowledgement was attempted after owner failure")
		}
	}
}

func TestDispatch_AckFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	mock := &mockProvider{
		sendFn: func(ctx context.Context, msg *email.Message) error {
			if msg.To == "jane@example.com" {
				return errors.New("mailbox unavailable")
			}
			return nil
		},
	}
	r := newTestRelay(mock)

	if err := r.Dispatch(context.Background(), testSubmission()); err != nil {
		t.Fatalf("ack failure must not fail the dispatch, got: %v", err)
	}

	// Both sends were attempted: owner then submitter.
	if len(mock.sent) != 2 {
		t.Fatalf("send count: got %d, want 2", len(mock.sent))
	}
	if mock.sent[0].To != "owner@example.com" {
		t.Errorf("first send To: got %q, want owner", mock.sent[0].To)
	}
	if mock.sent[1].To != "jane@example.com" {
		t.Errorf("second send To: got %q, want submitter", mock.sent[1].To)
	}
}

func TestDispatch_AttachmentOnOwnerOnly(t *testing.T) {
	t.Parallel()

	sub := testSubmission()
	sub.Attachment = &email.Attachment{
		Filename:    "report.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF-1.4"),
	}

	mock := &mockProvider{}
	r := newTestRelay(mock)

	if err := r.Dispatch(context.Background(), sub); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mock.sent) != 2 {
		t.Fatalf("send count: got %d, want 2", len(mock.sent))
	}
	if len(mock.sent[0].Attachments) != 1 {
		t.Fatalf("owner attachments: got %d, want 1", len(mock.sent[0].Attachments))
	}
	if got := mock.sent[0].Attachments[0].Filename; got != "report.pdf" {
		t.Errorf("attachment filename: got %q, want %q", got, "report.pdf")
	}
	if len(mock.sent[1].Attachments) != 0 {
		t.Error("acknowledgement must not carry the attachment")
	}
}

func TestDispatch_NoEmailFieldSkipsAck(t *testing.T) {
	t.Parallel()

	// A submission without an email never comes out of Decode, but the
	// relay stays defensive about it.
	sub := form.NewSubmission()
	sub.Set("name", "Anonymous")

	mock := &mockProvider{}
	r := newTestRelay(mock)

	if err := r.Dispatch(context.Background(), sub); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.sent) != 1 {
		t.Errorf("send count: got %d, want 1", len(mock.sent))
	}
}

func TestDispatch_DeterministicOwnerRendering(t *testing.T) {
	t.Parallel()

	first := &mockProvider{}
	second := &mockProvider{}

	if err := newTestRelay(first).Dispatch(context.Background(), testSubmission()); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	if err := newTestRelay(second).Dispatch(context.Background(), testSubmission()); err != nil {
		t.Fatalf("second dispatch: %v", err)
	}

	if first.sent[0].HTMLBody != second.sent[0].HTMLBody {
		t.Error("owner body differs between renders of the same submission and instant")
	}
	if first.sent[0].Subject != second.sent[0].Subject {
		t.Error("owner subject differs between renders")
	}
}

func TestDispatch_TimeoutIsTransportFailure(t *testing.T) {
	t.Parallel()

	mock := &mockProvider{
		sendFn: func(ctx context.Context, msg *email.Message) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	r := New(Config{
		Provider:    mock,
		Sender:      "noreply@example.com",
		Owner:       "owner@example.com",
		SendTimeout: 10 * time.Millisecond,
		Now:         fixedNow,
	})

	err := r.Dispatch(context.Background(), testSubmission())
	if !errors.Is(err, ErrOwnerSend) {
		t.Fatalf("got %v, want ErrOwnerSend", err)
	}
	if len(mock.sent) != 1 {
		t.Errorf("send count: got %d, want 1", len(mock.sent))
	}
}

func TestDispatch_WrappedErrorKeepsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("550 relay denied")
	mock := &mockProvider{
		sendFn: func(ctx context.Context, msg *email.Message) error {
			return fmt.Errorf("smtp send: %w", cause)
		},
	}
	r := newTestRelay(mock)

	err := r.Dispatch(context.Background(), testSubmission())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "550 relay denied") {
		t.Errorf("error should carry the transport cause, got %q", err.Error())
	}
}
