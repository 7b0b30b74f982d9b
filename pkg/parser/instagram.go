package parser

import (
	"encoding/json"
	"log/slog"
	"path"
	"time"

	"montchatsouvenir/pkg/archive"
	"montchatsouvenir/pkg/domain"
)

// InstagramParser reads the Instagram data-download JSON. The schema is
// close to Messenger's but not identical (no generic files list, shares
// carry the link text directly), and suffers the same latin-1 mojibake.
type InstagramParser struct{}

func NewInstagramParser() *InstagramParser {
	return &InstagramParser{}
}

type instagramExport struct {
	Participants []instagramParticipant `json:"participants"`
	Messages     []instagramMessage     `json:"messages"`
}

type instagramParticipant struct {
	Name string `json:"name"`
}

type instagramMessage struct {
	SenderName  string                `json:"sender_name"`
	TimestampMS int64                 `json:"timestamp_ms"`
	Content     string                `json:"content"`
	Photos      []instagramAttachment `json:"photos"`
	Videos      []instagramAttachment `json:"videos"`
	AudioFiles  []instagramAttachment `json:"audio_files"`
	Share       *instagramShare       `json:"share"`
}

type instagramAttachment struct {
	URI string `json:"uri"`
}

type instagramShare struct {
	Link      string `json:"link"`
	ShareText string `json:"share_text"`
}

func (p *InstagramParser) Parse(entries []archive.Entry) ([]domain.ProcessedMessage, error) {
	var messages []domain.ProcessedMessage
	for _, entry := range entries {
		if entry.Kind != archive.KindJSON {
			continue
		}
		var export instagramExport
		if err := json.Unmarshal(entry.Data, &export); err != nil {
			slog.Warn("skipping malformed instagram entry", "entry", entry.Name, "err", err)
			continue
		}
		if export.Messages == nil {
			slog.Warn("skipping instagram entry without messages array", "entry", entry.Name)
			continue
		}
		for i := len(export.Messages) - 1; i >= 0; i-- {
			messages = appendInstagramMessage(messages, export.Messages[i])
		}
	}
	return messages, nil
}

func appendInstagramMessage(out []domain.ProcessedMessage, m instagramMessage) []domain.ProcessedMessage {
	sender := fixEncoding(m.SenderName)
	if sender == "" {
		return out
	}
	ts := time.UnixMilli(m.TimestampMS).UTC()
	content := fixEncoding(m.Content)
	if content == "" && m.Share != nil {
		if m.Share.Link != "" {
			content = m.Share.Link
		} else {
			content = fixEncoding(m.Share.ShareText)
		}
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

	if len(refs) == 0 {
		if content == "" {
			return out
		}
		return append(out, domain.ProcessedMessage{
			ID:        messageID(domain.PlatformInstagram, len(out), ts, sender),
			Sender:    sender,
			Content:   content,
			Timestamp: ts,
			Platform:  domain.PlatformInstagram,
			Type:      domain.TypeText,
		})
	}

	for i, r := range refs {
		msg := domain.ProcessedMessage{
			ID:        messageID(domain.PlatformInstagram, len(out), ts, sender),
			Sender:    sender,
			Timestamp: ts,
			Platform:  domain.PlatformInstagram,
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
