package domain

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies the chat-export source. It is fixed at parse time and
// never branched on downstream of the parser selection.
type Platform string

const (
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformMessenger Platform = "messenger"
	PlatformInstagram Platform = "instagram"
)

// ParsePlatform validates a platform string coming from the upload form.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformWhatsApp:
		return PlatformWhatsApp, nil
	case PlatformMessenger:
		return PlatformMessenger, nil
	case PlatformInstagram:
		return PlatformInstagram, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

type MessageType string

const (
	TypeText  MessageType = "text"
	TypeMedia MessageType = "media"
)

type MediaType string

const (
	MediaPhoto      MediaType = "photo"
	MediaVideo      MediaType = "video"
	MediaVoice      MediaType = "voice"
	MediaAttachment MediaType = "attachment"
)

// ProcessedMessage is the canonical cross-platform message record. IDs are
// derived deterministically from the source so reprocessing the same export
// yields the same sequence.
type ProcessedMessage struct {
	ID        string      `json:"id"`
	Sender    string      `json:"sender"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Platform  Platform    `json:"platform"`
	Type      MessageType `json:"type"`
	MediaType MediaType   `json:"mediaType,omitempty"`
	// MediaName is the archive entry the message refers to, when the export
	// colocates media. It is what the pipeline resolves into MediaURL.
	MediaName string `json:"mediaName,omitempty"`
	// MediaURL is session-scoped and must not be assumed dereferenceable
	// after the session ends.
	MediaURL string `json:"mediaUrl,omitempty"`
}

// Conversation is the consumer contract handed to the book designer and the
// PDF preview: the final ordered batch plus derived participants.
type Conversation struct {
	Messages     []ProcessedMessage `json:"messages"`
	Participants []string           `json:"participants"`
	// EmptyAfterFilter reports that the source produced messages but the
	// active filters removed all of them. It is a valid result, not an error.
	EmptyAfterFilter bool `json:"emptyAfterFilter,omitempty"`
}

type UploadStatus string

const (
	UploadProcessing UploadStatus = "processing"
	UploadDone       UploadStatus = "done"
	UploadEmpty      UploadStatus = "empty"
	UploadFailed     UploadStatus = "failed"
)

// Upload is the ledger record of one extraction run. It carries run metadata
// only; the extracted batch itself lives in the session cache.
type Upload struct {
	ID               string        `json:"id"`
	SessionID        string        `json:"-"`
	Platform         Platform      `json:"platform"`
	OriginalFilename string        `json:"originalFilename"`
	SizeBytes        int64         `json:"sizeBytes"`
	Status           UploadStatus  `json:"status"`
	ErrorMessage     string        `json:"errorMessage,omitempty"`
	MessageCount     int           `json:"messageCount"`
	ParticipantCount int           `json:"participantCount"`
	Filters          FilterOptions `json:"filters"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}
