package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/marianglobal/quote-relay/internal/form"
	"github.com/marianglobal/quote-relay/internal/metrics"
	"github.com/marianglobal/quote-relay/internal/relay"
)

// Dispatcher dispatches the emails for one decoded submission.
// Satisfied by *relay.Relay; narrowed to an interface for handler tests.
type Dispatcher interface {
	Dispatch(ctx context.Context, sub *form.Submission) error
}

// QuoteHandler handles POST /api/send-quote: decode, validate, dispatch.
type QuoteHandler struct {
	dispatcher  Dispatcher
	maxBodySize int64
}

// NewQuoteHandler creates a QuoteHandler. maxBodySize bounds the request
// body in bytes; zero means no handler-level limit.
func NewQuoteHandler(d Dispatcher, maxBodySize int64) *QuoteHandler {
	return &QuoteHandler{dispatcher: d, maxBodySize: maxBodySize}
}

func (h *QuoteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	reader := r.Body
	if h.maxBodySize > 0 {
		reader = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			metrics.RecordSubmission(metrics.OutcomeRejected)
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		metrics.RecordSubmission(metrics.OutcomeRejected)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unable to read request body"})
		return
	}

	// Serverless gateways deliver binary bodies base64-encoded and flag it
	// out of band; over plain HTTP the client declares it with this header.
	base64Encoded := strings.EqualFold(r.Header.Get("Content-Transfer-Encoding"), "base64")

	sub, err := form.Decode(r.Header.Get("Content-Type"), body, base64Encoded)
	if err != nil {
		slog.Info("rejected submission", "error", err)
		metrics.RecordSubmission(metrics.OutcomeRejected)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	start := time.Now()
	if err := h.dispatcher.Dispatch(r.Context(), sub); err != nil {
		slog.Error("dispatch failed", "error", err)
		metrics.ObserveDispatch(time.Since(start).Seconds())
		metrics.RecordSubmission(metrics.OutcomeSendFailed)
		status := http.StatusInternalServerError
		if errors.Is(err, relay.ErrOwnerSend) {
			writeJSON(w, status, failResponse{OK: false, Error: "unable to send email"})
		} else {
			writeJSON(w, status, failResponse{OK: false, Error: err.Error()})
		}
		return
	}
	metrics.ObserveDispatch(time.Since(start).Seconds())
	metrics.RecordSubmission(metrics.OutcomeAccepted)

	writeJSON(w, http.StatusOK, okResponse{OK: true, Message: "Emails sent"})
}

// HealthHandler reports liveness.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
