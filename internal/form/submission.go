// Package form provides the normalized contact-form submission model and the
// request decoder that produces it from JSON or multipart/form-data bodies.
package form

import (
	"github.com/marianglobal/quote-relay/internal/email"
)

// Field is a single name/value pair from a submitted form.
type Field struct {
	Name  string
	Value string
}

// Submission is the normalized result of decoding one form request.
// Field names are not predeclared: any field present in the request body is
// retained verbatim, in the order it first appeared. Setting an existing name
// overwrites its value but keeps its original position. At most one file
// attachment is carried; a later file part replaces an earlier one.
//
// A Submission is built once per request by Decode, consumed once by the
// relay, and discarded. It is not safe for concurrent mutation, which never
// occurs in practice since each request owns its own value.
type Submission struct {
	names  []string
	values map[string]string

	// Attachment is the optional single file upload, nil when the request
	// carried none.
	Attachment *email.Attachment
}

// NewSubmission creates an empty Submission.
func NewSubmission() *Submission {
	return &Submission{values: make(map[string]string)}
}

// Set stores a field value. A repeated name overwrites the previous value
// (last occurrence wins) without changing its position in the field order.
func (s *Submission) Set(name, value string) {
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = value
}

// Get returns the value for a field name, or the empty string if absent.
func (s *Submission) Get(name string) string {
	return s.values[name]
}

// Has reports whether a field with the given name was submitted.
func (s *Submission) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Len returns the number of distinct fields.
func (s *Submission) Len() int {
	return len(s.names)
}

// Fields returns all fields in insertion order.
func (s *Submission) Fields() []Field {
	fields := make([]Field, 0, len(s.names))
	for _, name := range s.names {
		fields = append(fields, Field{Name: name, Value: s.values[name]})
	}
	return fields
}
