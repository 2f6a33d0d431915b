// Package email defines the outbound message model shared by all delivery providers.
package email

// Message represents a single outbound email ready for delivery.
type Message struct {
	From        string
	To          string
	ReplyTo     string
	Subject     string
	HTMLBody    string
	TextBody    string
	Attachments []Attachment
}

// Attachment represents a file attached to an outbound message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}
