package chat

import (
	"errors"
	"strings"
)

// Message types forming the chat message tagged union.
const (
	TypeText  = "text"
	TypeImage = "image"
	TypeAudio = "audio"
	TypeVideo = "video"
)

// Validation errors for inbound messages.
var (
	// ErrUnknownType is returned when the message tag is not one of the
	// four known variants.
	ErrUnknownType = errors.New("unknown message type")

	// ErrMissingName is returned when a message carries no sender name.
	ErrMissingName = errors.New("message name is required")

	// ErrMissingText is returned when a text message has an empty body.
	ErrMissingText = errors.New("text message body is required")

	// ErrMissingURL is returned when a media message carries no URL.
	ErrMissingURL = errors.New("media message url is required")
)

// Message is one chat message. Depending on Type it carries either a text
// body or a media URL. Time is assigned by the server at broadcast time and
// is empty on inbound messages.
type Message struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
	Time string `json:"time,omitempty"`
}

// Validate checks that the message is a well-formed variant of the tagged
// union. The sender name is checked for presence only; it is deliberately
// not matched against the sender's registered display name.
func (m *Message) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrMissingName
	}
	switch m.Type {
	case TypeText:
		if strings.TrimSpace(m.Text) == "" {
			return ErrMissingText
		}
	case TypeImage, TypeAudio, TypeVideo:
		if strings.TrimSpace(m.URL) == "" {
			return ErrMissingURL
		}
	default:
		return ErrUnknownType
	}
	return nil
}

// Kind classifies a stored media binary.
type Kind string

const (
	KindImage Kind = "image"
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
	KindFile  Kind = "file"
)

// KindForContentType classifies a declared MIME type by prefix. Anything
// that is not image, audio or video falls back to KindFile.
func KindForContentType(contentType string) Kind {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return KindImage
	case strings.HasPrefix(contentType, "audio/"):
		return KindAudio
	case strings.HasPrefix(contentType, "video/"):
		return KindVideo
	default:
		return KindFile
	}
}

// MediaReference points at one successfully stored upload. The JSON field
// for Kind is "type" to match what upload clients embed into chat messages.
type MediaReference struct {
	URL  string `json:"url"`
	Kind Kind   `json:"type"`
}
