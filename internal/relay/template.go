package relay

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/marianglobal/quote-relay/internal/form"
)

// Reserved field names that carry client-side plumbing rather than user
// input: the honeypot and the form identifier. They are never rendered.
var reservedFields = map[string]bool{
	"bot-field": true,
	"form-name": true,
}

// receivedAtLayout is the timestamp format shown in the owner notification.
const receivedAtLayout = time.RFC1123

var ownerTmpl = template.Must(template.New("owner").Parse(`<div style="font-family:Arial,Helvetica,sans-serif;max-width:700px;">
  <h2>New Quote Request</h2>
  <table style="border-collapse:collapse;width:100%">
{{- range .Fields}}
    <tr><td style="padding:6px 10px;font-weight:600;border:1px solid #eee;">{{.Name}}</td><td style="padding:6px 10px;border:1px solid #eee;">{{.Value}}</td></tr>
{{- end}}
  </table>
{{- if .HasAttachment}}
  <p>The submitted file is attached below.</p>
{{- end}}
  <p>Received at {{.ReceivedAt}}</p>
  <hr/>
  <footer style="font-size:12px;color:#666">Marian Global Services</footer>
</div>
`))

var ackTmpl = template.Must(template.New("ack").Parse(`<div style="font-family:Arial,Helvetica,sans-serif;max-width:700px;">
  <h2>Thanks, {{.Name}} — we received your request</h2>
  <p>We will review it and respond soon. A summary of your submission:</p>
  <ul>
{{- range .Fields}}
    <li><strong>{{.Name}}:</strong> {{.Value}}</li>
{{- end}}
  </ul>
  <p>Regards,<br/>Marian Global Services</p>
</div>
`))

type ownerData struct {
	Fields        []form.Field
	HasAttachment bool
	ReceivedAt    string
}

type ackData struct {
	Name   string
	Fields []form.Field
}

// visibleFields returns the submission's fields in insertion order with the
// reserved plumbing fields removed.
func visibleFields(sub *form.Submission) []form.Field {
	fields := make([]form.Field, 0, sub.Len())
	for _, f := range sub.Fields() {
		if reservedFields[f.Name] {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// renderOwnerHTML renders the owner notification body. The output is a pure
// function of the submission and the instant, so rendering twice with the
// same inputs is byte-identical.
func renderOwnerHTML(sub *form.Submission, receivedAt time.Time) (string, error) {
	var b strings.Builder
	err := ownerTmpl.Execute(&b, ownerData{
		Fields:        visibleFields(sub),
		HasAttachment: sub.Attachment != nil,
		ReceivedAt:    receivedAt.Format(receivedAtLayout),
	})
	if err != nil {
		return "", fmt.Errorf("render owner notification: %w", err)
	}
	return b.String(), nil
}

// renderAckHTML renders the submitter acknowledgement body.
func renderAckHTML(sub *form.Submission) (string, error) {
	name := sub.Get("name")
	if name == "" {
		name = "Client"
	}
	var b strings.Builder
	err := ackTmpl.Execute(&b, ackData{
		Name:   name,
		Fields: visibleFields(sub),
	})
	if err != nil {
		return "", fmt.Errorf("render acknowledgement: %w", err)
	}
	return b.String(), nil
}

// ownerSubject builds the owner notification subject line.
func ownerSubject(sub *form.Submission) string {
	name := sub.Get("name")
	if name == "" {
		name = "No name"
	}
	return "New Quote Request — " + name
}

// ackSubject builds the submitter acknowledgement subject line.
func ackSubject(sub *form.Submission) string {
	name := sub.Get("name")
	if name == "" {
		return "We received your quote request"
	}
	return "We received your quote request — " + name
}
