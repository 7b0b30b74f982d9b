// Package normalize turns the parsers' raw batch into the canonical
// conversation: sorted, filtered, deduplicated, with derived participants.
package normalize

import (
	"sort"
	"strings"

	"montchatsouvenir/pkg/domain"
)

// Normalize applies the resolved filter options to a parsed batch. It never
// invents messages: the output is always a subset of the input. An empty
// output for a non-empty input is reported via EmptyAfterFilter, not as an
// error; the caller decides how to surface it.
func Normalize(messages []domain.ProcessedMessage, opts domain.FilterOptions) domain.Conversation {
	batch := make([]domain.ProcessedMessage, len(messages))
	copy(batch, messages)

	// Stable sort keeps original emission order on equal timestamps.
	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].Timestamp.Before(batch[j].Timestamp)
	})

	var allowed map[string]struct{}
	if len(opts.Participants) > 0 {
		allowed = make(map[string]struct{}, len(opts.Participants))
		for _, p := range opts.Participants {
			allowed[p] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(batch))
	out := batch[:0]
	for _, msg := range batch {
		if opts.DateRange != nil && !opts.DateRange.Contains(msg.Timestamp) {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[msg.Sender]; !ok {
				continue
			}
		}
		if msg.Type == domain.TypeMedia && !opts.Allows(msg.MediaType) {
			continue
		}
		if !opts.IncludeEmojis {
			msg.Content = StripEmoji(msg.Content)
		}
		// Duplicate ids can appear when overlapping export files are
		// reprocessed together; the first occurrence in sorted order wins.
		if _, dup := seen[msg.ID]; dup {
			continue
		}
		seen[msg.ID] = struct{}{}
		out = append(out, msg)
	}

	conv := domain.Conversation{
		Messages:         out,
		Participants:     participants(out),
		EmptyAfterFilter: len(out) == 0 && len(messages) > 0,
	}
	return conv
}

// participants lists distinct senders of the final batch in first-appearance
// order. It is derived, never independently maintained.
func participants(messages []domain.ProcessedMessage) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, msg := range messages {
		if _, ok := seen[msg.Sender]; ok {
			continue
		}
		seen[msg.Sender] = struct{}{}
		names = append(names, msg.Sender)
	}
	return names
}

// StripEmoji removes emoji glyphs from a body while keeping the rest of the
// text intact. Joiner and variation-selector codepoints that only make sense
// inside emoji sequences are removed with them.
func StripEmoji(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isEmojiRune(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1F5FF: // symbols & pictographs
		return true
	case r >= 0x1F600 && r <= 0x1F64F: // emoticons
		return true
	case r >= 0x1F680 && r <= 0x1F6FF: // transport & map
		return true
	case r >= 0x1F900 && r <= 0x1F9FF: // supplemental pictographs
		return true
	case r >= 0x1FA70 && r <= 0x1FAFF: // extended pictographs
		return true
	case r >= 0x1F1E6 && r <= 0x1F1FF: // regional indicators (flags)
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols & dingbats
		return true
	case r == 0x200D || r == 0xFE0F || r == 0x20E3: // ZWJ, VS16, keycap
		return true
	}
	return false
}
