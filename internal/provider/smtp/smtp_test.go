package smtp

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/marianglobal/quote-relay/internal/email"
	"github.com/marianglobal/quote-relay/internal/provider"
)

// mockDialer implements Dialer for testing.
type mockDialer struct {
	dialFn   func(m ...*gomail.Message) error
	messages []*gomail.Message
}

func (d *mockDialer) DialAndSend(m ...*gomail.Message) error {
	d.messages = append(d.messages, m...)
	if d.dialFn != nil {
		return d.dialFn(m...)
	}
	return nil
}

func testMessage() *email.Message {
	return &email.Message{
		From:     "noreply@example.com",
		To:       "owner@example.com",
		ReplyTo:  "jane@example.com",
		Subject:  "Test Subject",
		HTMLBody: "<p>Hello</p>",
	}
}

func TestName(t *testing.T) {
	t.Parallel()
	p := NewWithDialer(&mockDialer{})
	if got := p.Name(); got != "smtp" {
		t.Errorf("Name(): got %q, want %q", got, "smtp")
	}
}

func TestSend_Success(t *testing.T) {
	t.Parallel()

	mock := &mockDialer{}
	p := NewWithDialer(mock)

	if err := p.Send(context.Background(), testMessage()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.messages) != 1 {
		t.Fatalf("message count: got %d, want 1", len(mock.messages))
	}

	var buf bytes.Buffer
	if _, err := mock.messages[0].WriteTo(&buf); err != nil {
		t.Fatalf("write message: %v", err)
	}
	raw := buf.String()

	checks := []struct {
		name     string
		contains string
	}{
		{"From header", "From: noreply@example.com"},
		{"To header", "To: owner@example.com"},
		{"Reply-To header", "Reply-To: jane@example.com"},
		{"Subject header", "Subject: Test Subject"},
		{"HTML content type", "text/html"},
	}
	for _, check := range checks {
		if !strings.Contains(raw, check.contains) {
			t.Errorf("message missing %s: expected to contain %q", check.name, check.contains)
		}
	}
}

func TestSend_DialError(t *testing.T) {
	t.Parallel()

	mock := &mockDialer{
		dialFn: func(m ...*gomail.Message) error {
			return errors.New("connection refused")
		},
	}
	p := NewWithDialer(mock)

	err := p.Send(context.Background(), testMessage())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error: got %q, want it to contain the dial failure", err.Error())
	}
}

func TestSend_ContextCancelled(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)

	mock := &mockDialer{
		dialFn: func(m ...*gomail.Message) error {
			<-release
			return nil
		},
	}
	p := NewWithDialer(mock)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := p.Send(ctx, testMessage())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want context.DeadlineExceeded", err)
	}
}

func TestBuildMessage_TextAndHTML(t *testing.T) {
	t.Parallel()

	msg := testMessage()
	msg.TextBody = "plain fallback"

	var buf bytes.Buffer
	if _, err := buildMessage(msg).WriteTo(&buf); err != nil {
		t.Fatalf("write message: %v", err)
	}
	raw := buf.String()

	if !strings.Contains(raw, "multipart/alternative") {
		t.Error("expected multipart/alternative for text+html message")
	}
	if !strings.Contains(raw, "plain fallback") {
		t.Error("expected plain text part in output")
	}
}

func TestBuildMessage_Attachment(t *testing.T) {
	t.Parallel()

	msg := testMessage()
	msg.Attachments = []email.Attachment{
		{
			Filename:    "report.pdf",
			ContentType: "application/pdf",
			Content:     []byte("%PDF-1.4 content"),
		},
	}

	var buf bytes.Buffer
	if _, err := buildMessage(msg).WriteTo(&buf); err != nil {
		t.Fatalf("write message: %v", err)
	}
	raw := buf.String()

	if !strings.Contains(raw, "multipart/mixed") {
		t.Error("expected multipart/mixed for message with attachment")
	}
	if !strings.Contains(raw, "report.pdf") {
		t.Error("expected attachment filename in output")
	}
	if !strings.Contains(raw, "application/pdf") {
		t.Error("expected attachment content type in output")
	}
}

func TestImplicitTLSSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		port    int
		wantSSL bool
	}{
		{465, true},
		{587, false},
		{25, false},
	}
	for _, tt := range tests {
		p := New(SMTPProviderConfig{Host: "mail.example.com", Port: tt.port})
		d, ok := p.dialer.(*gomail.Dialer)
		if !ok {
			t.Fatalf("port %d: dialer is %T, want *gomail.Dialer", tt.port, p.dialer)
		}
		if d.SSL != tt.wantSSL {
			t.Errorf("port %d: SSL got %v, want %v", tt.port, d.SSL, tt.wantSSL)
		}
	}
}

// Verify SMTPProvider implements provider.Provider.
func TestProviderInterface(t *testing.T) {
	t.Parallel()
	var _ provider.Provider = (*SMTPProvider)(nil)
}
