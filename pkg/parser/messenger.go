package parser

import (
	"encoding/json"
	"log/slog"
	"path"
	"time"

	"montchatsouvenir/pkg/archive"
	"montchatsouvenir/pkg/domain"
)

// MessengerParser reads the Facebook Messenger JSON export. Large threads
// are split across several message_N.json entries; all of them are
// flattened into one batch. Entries that do not decode into the expected
// schema are skipped so one broken file does not lose the whole thread.
type MessengerParser struct{}

func NewMessengerParser() *MessengerParser {
	return &MessengerParser{}
}

type messengerExport struct {
	Participants []messengerParticipant `json:"participants"`
	Messages     []messengerMessage     `json:"messages"`
}

type messengerParticipant struct {
	Name string `json:"name"`
}

type messengerMessage struct {
	SenderName  string                `json:"sender_name"`
	TimestampMS int64                 `json:"timestamp_ms"`
	Content     string                `json:"content"`
	Photos      []messengerAttachment `json:"photos"`
	Videos      []messengerAttachment `json:"videos"`
	AudioFiles  []messengerAttachment `json:"audio_files"`
	Files       []messengerAttachment `json:"files"`
	Share       *messengerShare       `json:"share"`
}

type messengerAttachment struct {
	URI string `json:"uri"`
}

type messengerShare struct {
	Link string `json:"link"`
}

func (p *MessengerParser) Parse(entries []archive.Entry) ([]domain.ProcessedMessage, error) {
	var messages []domain.ProcessedMessage
	for _, entry := range entries {
		if entry.Kind != archive.KindJSON {
			continue
		}
		var export messengerExport
		if err := json.Unmarshal(entry.Data, &export); err != nil {
			slog.Warn("skipping malformed messenger entry", "entry", entry.Name, "err", err)
			continue
		}
		if export.Messages == nil {
			slog.Warn("skipping messenger entry without messages array", "entry", entry.Name)
			continue
		}
		// The export lists messages newest-first; restore chronological order.
		for i := len(export.Messages) - 1; i >= 0; i-- {
			messages = appendMessengerMessage(messages, export.Messages[i])
		}
	}
	return messages, nil
}

func appendMessengerMessage(out []domain.ProcessedMessage, m messengerMessage) []domain.ProcessedMessage {
	sender := fixEncoding(m.SenderName)
	if sender == "" {
		return out
	}
	ts := time.UnixMilli(m.TimestampMS).UTC()
	content := fixEncoding(m.Content)
	if content == "" && m.Share != nil {
		content = m.Share.Link
	}

	type ref struct {
		uri  string
		kind domain.MediaType
	}
	var refs []ref
	for _, a := range m.Photos {
		refs = append(refs, ref{a.URI, domain.MediaPhoto})
	}
	for _, a := range m.Videos {
		refs = append(refs, ref{a.URI, domain.MediaVideo})
	}
	for _, a := range m.AudioFiles {
		refs = append(refs, ref{a.URI, domain.MediaVoice})
	}
	for _, a := range m.Files {
		refs = append(refs, ref{a.URI, domain.MediaAttachment})
	}

	if len(refs) == 0 {
		if content == "" {
			// Reaction-only or unsent message, nothing to lay out.
			return out
		}
		return append(out, domain.ProcessedMessage{
			ID:        messageID(domain.PlatformMessenger, len(out), ts, sender),
			Sender:    sender,
			Content:   content,
			Timestamp: ts,
			Platform:  domain.PlatformMessenger,
			Type:      domain.TypeText,
		})
	}

	// The first attachment carries the caption; further attachments of the
	// same JSON object become their own media messages at the same instant.
	for i, r := range refs {
		msg := domain.ProcessedMessage{
			ID:        messageID(domain.PlatformMessenger, len(out), ts, sender),
			Sender:    sender,
			Timestamp: ts,
			Platform:  domain.PlatformMessenger,
			Type:      domain.TypeMedia,
			MediaType: r.kind,
			MediaName: path.Base(r.uri),
		}
		if i == 0 {
			msg.Content = content
		}
		out = append(out, msg)
	}
	return out
}
