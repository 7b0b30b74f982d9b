package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"montchatsouvenir/pkg/archive"
	"montchatsouvenir/pkg/domain"
)

// WhatsAppParser reads the line-oriented .txt chat export. Each logical
// message starts with a date-time prefix followed by "sender: body"; lines
// without a prefix continue the previous message. Prefixed lines without a
// sender are system notices and are dropped.
type WhatsAppParser struct{}

func NewWhatsAppParser() *WhatsAppParser {
	return &WhatsAppParser{}
}

// prefixRe splits a message-start line into date, time and remainder. It
// tolerates the android ("12/05/2024, 10:30 - ") and iOS
// ("[12/05/2024, 10:30:15] ") shapes, AM/PM markers and the narrow
// no-break spaces newer exports emit.
var prefixRe = regexp.MustCompile(
	`^\x{200e}?\[?` +
		`(\d{1,4}[./-]\d{1,2}[./-]\d{1,4})` +
		`[,.]?[ \x{00a0}\x{202f}]` +
		`(\d{1,2}[:.]\d{2}(?:[:.]\d{2})?(?:[ \x{00a0}\x{202f}]?[APap]\.?[Mm]\.?)?)` +
		`\]?(?:[ \x{00a0}\x{202f}]?[-\x{2013}])?[ \x{00a0}\x{202f}]?(.*)$`)

var (
	attachedRe     = regexp.MustCompile(`<(?:attached|pi[eè]ce jointe)\s*:\s*([^>]+)>`)
	fileAttachedRe = regexp.MustCompile(`^(.+?)\s*\((?:file attached|fichier joint)\)$`)
	omittedRe      = regexp.MustCompile(`^<?\s*(image|video|audio|sticker|gif|media|m[ée]dias?)\s+(?:omitted|omis)\s*>?$`)
)

func (p *WhatsAppParser) Parse(entries []archive.Entry) ([]domain.ProcessedMessage, error) {
	var texts []archive.Entry
	for _, e := range entries {
		if e.Kind == archive.KindText {
			texts = append(texts, e)
		}
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("whatsapp export contains no text entry")
	}

	var messages []domain.ProcessedMessage
	skipped := 0
	for _, entry := range texts {
		scanner := bufio.NewScanner(bytes.NewReader(entry.Data))
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		open := false // whether the previous line emitted a message
		for scanner.Scan() {
			line := strings.TrimSuffix(scanner.Text(), "\r")
			line = strings.TrimPrefix(line, "\ufeff")

			m := prefixRe.FindStringSubmatch(line)
			if m == nil {
				// Continuation line: joined to the previous body with a
				// newline. Media messages take them too; exports put the
				// caption on the line after the attachment token.
				if open && len(messages) > 0 {
					last := &messages[len(messages)-1]
					if last.Content == "" {
						last.Content = line
					} else {
						last.Content += "\n" + line
					}
					continue
				}
				if strings.TrimSpace(line) != "" {
					skipped++
					slog.Warn("skipping unparseable whatsapp line", "line", truncate(line, 80))
				}
				continue
			}

			ts, err := parseWhatsAppTimestamp(m[1], m[2])
			if err != nil {
				skipped++
				slog.Warn("skipping whatsapp line with unparseable timestamp", "date", m[1], "time", m[2])
				open = false
				continue
			}
			sender, body, found := strings.Cut(m[3], ": ")
			if !found || strings.TrimSpace(sender) == "" {
				// System notice ("Messages and calls are end-to-end
				// encrypted", group events, ...): no message emitted.
				open = false
				continue
			}

			msg := p.buildMessage(len(messages), ts, strings.TrimSpace(sender), body)
			messages = append(messages, msg)
			open = true
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read whatsapp text: %w", err)
		}
	}
	if skipped > 0 {
		slog.Warn("whatsapp parse finished with skipped lines", "skipped", skipped, "parsed", len(messages))
	}
	return messages, nil
}

func (p *WhatsAppParser) buildMessage(index int, ts time.Time, sender, body string) domain.ProcessedMessage {
	msg := domain.ProcessedMessage{
		ID:        messageID(domain.PlatformWhatsApp, index, ts, sender),
		Sender:    sender,
		Timestamp: ts,
		Platform:  domain.PlatformWhatsApp,
		Type:      domain.TypeText,
	}
	clean := strings.TrimSpace(strings.ReplaceAll(body, "\u200e", ""))

	if m := attachedRe.FindStringSubmatch(clean); m != nil {
		name := strings.TrimSpace(m[1])
		msg.Type = domain.TypeMedia
		msg.MediaType, _ = domain.MediaTypeForName(name)
		msg.MediaName = name
		msg.Content = strings.TrimSpace(strings.Replace(clean, m[0], "", 1))
		return msg
	}
	if m := fileAttachedRe.FindStringSubmatch(clean); m != nil {
		name := strings.TrimSpace(m[1])
		msg.Type = domain.TypeMedia
		msg.MediaType, _ = domain.MediaTypeForName(name)
		msg.MediaName = name
		return msg
	}
	if m := omittedRe.FindStringSubmatch(strings.ToLower(clean)); m != nil {
		// Export without media: the reference is kept but cannot resolve.
		msg.Type = domain.TypeMedia
		msg.MediaType = omittedMediaType(m[1])
		return msg
	}
	msg.Content = clean
	return msg
}

func omittedMediaType(token string) domain.MediaType {
	switch token {
	case "image", "sticker", "gif":
		return domain.MediaPhoto
	case "video":
		return domain.MediaVideo
	case "audio":
		return domain.MediaVoice
	}
	return domain.MediaAttachment
}

// Known prefix layouts, day-first preferred. The export grammar varies by
// device locale, so anything the list misses goes through dateparse with
// the same day-first preference.
var (
	whatsappDateLayouts = []string{"2/1/2006", "2/1/06", "2006/1/2", "1/2/2006", "1/2/06"}
	whatsappTimeLayouts = []string{"15:04:05", "15:04", "3:04:05 PM", "3:04 PM"}
)

func parseWhatsAppTimestamp(datePart, timePart string) (time.Time, error) {
	date := normalizeSeparators(datePart, "/")
	clock := normalizeClock(timePart)
	for _, dl := range whatsappDateLayouts {
		for _, tl := range whatsappTimeLayouts {
			if ts, err := time.Parse(dl+" "+tl, date+" "+clock); err == nil {
				return ts.UTC(), nil
			}
		}
	}
	ts, err := dateparse.ParseAny(date+" "+clock, dateparse.PreferMonthFirst(false))
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q %q", datePart, timePart)
	}
	return ts.UTC(), nil
}

func normalizeSeparators(s, sep string) string {
	s = strings.ReplaceAll(s, ".", sep)
	s = strings.ReplaceAll(s, "-", sep)
	return s
}

func normalizeClock(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\u202f", " ")
	s = strings.ReplaceAll(s, ".", ":")
	upper := strings.ToUpper(s)
	// "10:30:PM" after dot replacement, or "10:30 p:m:" variants.
	upper = strings.ReplaceAll(upper, "A:M:", "AM")
	upper = strings.ReplaceAll(upper, "P:M:", "PM")
	if strings.HasSuffix(upper, "AM") || strings.HasSuffix(upper, "PM") {
		marker := upper[len(upper)-2:]
		body := strings.TrimSpace(upper[:len(upper)-2])
		return body + " " + marker
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
