package form

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"regexp"
	"strconv"
	"strings"

	"github.com/marianglobal/quote-relay/internal/email"
)

// Decode failure kinds. Callers match with errors.Is; every one of these maps
// to a client error at the HTTP boundary.
var (
	ErrEmptyBody              = fmt.Errorf("empty request body")
	ErrInvalidJSON            = fmt.Errorf("invalid JSON body")
	ErrUnsupportedContentType = fmt.Errorf("unsupported content type")
	ErrInvalidEmail           = fmt.Errorf("invalid email address")
)

// emailPattern is the minimal address shape check: something before the @,
// something after it, and a dot in the domain. Full RFC 5322 validation is
// deliberately not attempted.
var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Decode turns a raw request body into a validated Submission.
//
// The content-type header selects the strategy: application/json bodies are
// parsed as a flat object or a {"form": {...}} wrapped object, and cannot
// carry an attachment; multipart/form-data bodies are stream-parsed with the
// declared boundary, text parts becoming fields and at most one file part
// becoming the attachment. When base64Encoded is set the transport delivered
// the body base64-encoded and it is decoded to raw bytes first.
//
// The email field is validated here rather than in a separate pass, so
// downstream consumers can assume a syntactically valid address.
func Decode(contentType string, body []byte, base64Encoded bool) (*Submission, error) {
	if base64Encoded {
		decoded, err := decodeBase64Body(body)
		if err != nil {
			return nil, fmt.Errorf("decode base64 body: %w", err)
		}
		body = decoded
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}

	var sub *Submission
	switch {
	case strings.HasPrefix(mediaType, "application/json"):
		sub, err = decodeJSON(body)
	case strings.HasPrefix(mediaType, "multipart/form-data"):
		boundary := params["boundary"]
		if boundary == "" {
			return nil, fmt.Errorf("%w: multipart body missing boundary", ErrUnsupportedContentType)
		}
		sub, err = decodeMultipart(body, boundary)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedContentType, mediaType)
	}
	if err != nil {
		return nil, err
	}

	if !emailPattern.MatchString(sub.Get("email")) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEmail, sub.Get("email"))
	}

	return sub, nil
}

// decodeBase64Body decodes a base64-encoded transport body, accepting both
// padded and unpadded encodings.
func decodeBase64Body(body []byte) ([]byte, error) {
	cleaned := strings.NewReplacer("\r", "", "\n", "").Replace(string(body))
	decoded, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(cleaned)
		if err != nil {
			return nil, err
		}
	}
	return decoded, nil
}

// decodeJSON parses a JSON object body into a Submission, preserving the
// document order of keys. Both flat objects and one level of {"form": {...}}
// wrapping are accepted, since both occur in practice depending on the
// caller. Scalar values are stringified; nested arrays and objects (other
// than the form wrapper itself) are dropped with a debug log.
func decodeJSON(body []byte) (*Submission, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidJSON, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrInvalidJSON)
	}

	pairs, err := parseJSONObject(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidJSON, err)
	}

	// Unwrap a {"form": {...}} envelope when present.
	for _, p := range pairs {
		if p.name == "form" && p.value.object != nil {
			pairs = p.value.object
			break
		}
	}

	sub := NewSubmission()
	for _, p := range pairs {
		if !p.value.scalar {
			slog.Debug("dropping non-scalar form field", "field", p.name)
			continue
		}
		sub.Set(p.name, p.value.text)
	}
	return sub, nil
}

// jsonValue is a decoded JSON value: either a stringified scalar or an
// object's ordered pairs. Arrays are consumed and discarded.
type jsonValue struct {
	text   string
	scalar bool
	object []jsonPair
}

type jsonPair struct {
	name  string
	value jsonValue
}

// parseJSONObject reads the members of an object whose opening brace has
// already been consumed, returning them in document order.
func parseJSONObject(dec *json.Decoder) ([]jsonPair, error) {
	var pairs []jsonPair
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key token %v", keyTok)
		}
		value, err := parseJSONValue(dec)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, jsonPair{name: key, value: value})
	}
	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return pairs, nil
}

// parseJSONValue reads one complete JSON value.
func parseJSONValue(dec *json.Decoder) (jsonValue, error) {
	tok, err := dec.Token()
	if err != nil {
		return jsonValue{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		if t == '{' {
			obj, err := parseJSONObject(dec)
			if err != nil {
				return jsonValue{}, err
			}
			return jsonValue{object: obj}, nil
		}
		// Array: consume every element and the closing bracket, then discard.
		for dec.More() {
			if _, err := parseJSONValue(dec); err != nil {
				return jsonValue{}, err
			}
		}
		if _, err := dec.Token(); err != nil {
			return jsonValue{}, err
		}
		return jsonValue{}, nil
	case string:
		return jsonValue{text: t, scalar: true}, nil
	case json.Number:
		return jsonValue{text: t.String(), scalar: true}, nil
	case bool:
		return jsonValue{text: strconv.FormatBool(t), scalar: true}, nil
	case nil:
		return jsonValue{text: "", scalar: true}, nil
	default:
		return jsonValue{}, fmt.Errorf("unexpected token %v", tok)
	}
}

// decodeMultipart stream-parses a multipart/form-data body. Text parts become
// fields with last-occurrence-wins semantics; each file part is fully buffered
// before it replaces any earlier attachment, so a truncated later part never
// clobbers a complete earlier one with partial bytes.
func decodeMultipart(body []byte, boundary string) (*Submission, error) {
	sub := NewSubmission()
	reader := multipart.NewReader(bytes.NewReader(body), boundary)

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read multipart part: %w", err)
		}

		name := part.FormName()
		filename, hasFilename := partFilename(part)

		switch {
		case hasFilename && filename == "":
			// A file input left empty by the browser still produces a part
			// with filename="". It is neither a field nor an attachment.
			slog.Debug("dropping file part with empty filename", "field", name)
		case hasFilename:
			content, err := io.ReadAll(part)
			if err != nil {
				return nil, fmt.Errorf("read file part %q: %w", filename, err)
			}
			sub.Attachment = &email.Attachment{
				Filename:    filename,
				ContentType: part.Header.Get("Content-Type"),
				Content:     content,
			}
		case name != "":
			value, err := io.ReadAll(part)
			if err != nil {
				return nil, fmt.Errorf("read field part %q: %w", name, err)
			}
			sub.Set(name, string(value))
		default:
			slog.Debug("dropping unnamed multipart part")
		}
		part.Close()
	}

	return sub, nil
}

// partFilename reports whether the part declared a filename parameter in its
// Content-Disposition header, and its value. multipart.Part.FileName alone
// cannot distinguish an absent filename from an empty one.
func partFilename(part *multipart.Part) (string, bool) {
	disposition := part.Header.Get("Content-Disposition")
	if disposition == "" {
		return "", false
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return "", false
	}
	filename, ok := params["filename"]
	return filename, ok
}
