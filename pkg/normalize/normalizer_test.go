package normalize

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"montchatsouvenir/pkg/domain"
)

func at(minute int) time.Time {
	return time.Date(2024, 5, 12, 10, minute, 0, 0, time.UTC)
}

func text(id, sender, content string, ts time.Time) domain.ProcessedMessage {
	return domain.ProcessedMessage{
		ID:        id,
		Sender:    sender,
		Content:   content,
		Timestamp: ts,
		Platform:  domain.PlatformWhatsApp,
		Type:      domain.TypeText,
	}
}

func media(id, sender string, kind domain.MediaType, ts time.Time) domain.ProcessedMessage {
	return domain.ProcessedMessage{
		ID:        id,
		Sender:    sender,
		Timestamp: ts,
		Platform:  domain.PlatformWhatsApp,
		Type:      domain.TypeMedia,
		MediaType: kind,
	}
}

func defaults() domain.FilterOptions {
	return domain.ResolveFilterOptions(domain.RawFilterOptions{})
}

func TestNormalizeSortsChronologically(t *testing.T) {
	conv := Normalize([]domain.ProcessedMessage{
		text("b", "Bob", "second", at(2)),
		text("a", "Alice", "first", at(1)),
		text("c", "Alice", "third", at(3)),
	}, defaults())

	got := []string{}
	for _, m := range conv.Messages {
		got = append(got, m.Content)
	}
	want := []string{"first", "second", "third"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("message order mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeStableOnEqualTimestamps(t *testing.T) {
	conv := Normalize([]domain.ProcessedMessage{
		text("a", "Alice", "one", at(1)),
		text("b", "Alice", "two", at(1)),
	}, defaults())
	if conv.Messages[0].Content != "one" || conv.Messages[1].Content != "two" {
		t.Fatalf("equal timestamps must keep emission order: %+v", conv.Messages)
	}
}

func TestNormalizeMediaFilterScenario(t *testing.T) {
	// Five messages, two of them videos; defaults exclude videos.
	batch := []domain.ProcessedMessage{
		text("1", "Alice", "hi", at(1)),
		media("2", "Bob", domain.MediaVideo, at(2)),
		text("3", "Alice", "photo time", at(3)),
		media("4", "Bob", domain.MediaVideo, at(4)),
		text("5", "Bob", "bye", at(5)),
	}
	conv := Normalize(batch, defaults())
	if len(conv.Messages) != 3 {
		t.Fatalf("expected 3 surviving messages, got %d", len(conv.Messages))
	}
	for _, m := range conv.Messages {
		if m.MediaType == domain.MediaVideo {
			t.Fatalf("video survived default filters: %+v", m)
		}
	}
}

func TestNormalizeIncludeMediaFalseDropsAllMedia(t *testing.T) {
	opts := domain.ResolveFilterOptions(domain.RawFilterOptions{IncludeMedia: boolPtr(false)})
	conv := Normalize([]domain.ProcessedMessage{
		text("1", "Alice", "kept", at(1)),
		media("2", "Alice", domain.MediaPhoto, at(2)),
	}, opts)
	if len(conv.Messages) != 1 || conv.Messages[0].ID != "1" {
		t.Fatalf("only the text message should survive: %+v", conv.Messages)
	}
}

func TestNormalizeDateRangeInclusive(t *testing.T) {
	opts := defaults()
	opts.DateRange = &domain.DateRange{From: at(2), To: at(4)}
	conv := Normalize([]domain.ProcessedMessage{
		text("1", "Alice", "before", at(1)),
		text("2", "Alice", "start", at(2)),
		text("3", "Alice", "end", at(4)),
		text("4", "Alice", "after", at(5)),
	}, opts)
	if len(conv.Messages) != 2 {
		t.Fatalf("inclusive bounds expected 2 messages, got %+v", conv.Messages)
	}
	if conv.Messages[0].Content != "start" || conv.Messages[1].Content != "end" {
		t.Fatalf("wrong messages survived: %+v", conv.Messages)
	}
}

func TestNormalizeParticipantFilter(t *testing.T) {
	opts := defaults()
	opts.Participants = []string{"Alice"}
	conv := Normalize([]domain.ProcessedMessage{
		text("1", "Alice", "kept", at(1)),
		text("2", "Bob", "dropped", at(2)),
	}, opts)
	if len(conv.Messages) != 1 || conv.Messages[0].Sender != "Alice" {
		t.Fatalf("participant filter failed: %+v", conv.Messages)
	}
}

func TestNormalizeStripsEmoji(t *testing.T) {
	opts := domain.ResolveFilterOptions(domain.RawFilterOptions{IncludeEmojis: boolPtr(false)})
	conv := Normalize([]domain.ProcessedMessage{
		text("1", "Alice", "great \U0001F600\U0001F389 news", at(1)),
	}, opts)
	if got := conv.Messages[0].Content; got != "great  news" {
		t.Fatalf("emoji not stripped: %q", got)
	}
}

func TestNormalizeDedupesByID(t *testing.T) {
	conv := Normalize([]domain.ProcessedMessage{
		text("same", "Alice", "first copy", at(1)),
		text("same", "Alice", "second copy", at(2)),
	}, defaults())
	if len(conv.Messages) != 1 || conv.Messages[0].Content != "first copy" {
		t.Fatalf("first occurrence in sorted order must win: %+v", conv.Messages)
	}
}

func TestNormalizeParticipantsFirstAppearance(t *testing.T) {
	conv := Normalize([]domain.ProcessedMessage{
		text("1", "Bob", "a", at(1)),
		text("2", "Alice", "b", at(2)),
		text("3", "Bob", "c", at(3)),
	}, defaults())
	want := []string{"Bob", "Alice"}
	if diff := cmp.Diff(want, conv.Participants); diff != "" {
		t.Fatalf("participants mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeEmptyAfterFilter(t *testing.T) {
	opts := defaults()
	opts.Participants = []string{"Nobody"}
	conv := Normalize([]domain.ProcessedMessage{
		text("1", "Alice", "hi", at(1)),
	}, opts)
	if !conv.EmptyAfterFilter {
		t.Fatal("filtering everything out must set EmptyAfterFilter")
	}
	if len(conv.Messages) != 0 {
		t.Fatalf("no messages expected: %+v", conv.Messages)
	}

	empty := Normalize(nil, defaults())
	if empty.EmptyAfterFilter {
		t.Fatal("an empty input is not an empty-after-filter result")
	}
}

func TestNormalizeDateRangeOutsideAllMessages(t *testing.T) {
	opts := defaults()
	opts.DateRange = &domain.DateRange{
		From: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2030, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	conv := Normalize([]domain.ProcessedMessage{
		text("1", "Alice", "hi", at(1)),
		text("2", "Bob", "yo", at(2)),
	}, opts)
	if len(conv.Messages) != 0 || !conv.EmptyAfterFilter {
		t.Fatalf("range outside all messages must yield a flagged empty batch: %+v", conv)
	}
}

func TestStripEmojiKeepsText(t *testing.T) {
	cases := []struct{ in, want string }{
		{"no emoji here", "no emoji here"},
		{"flag \U0001F1EB\U0001F1F7 day", "flag  day"},
		{"family \U0001F468\u200d\U0001F469\u200d\U0001F467", "family"},
		{"\u2764\ufe0f", ""},
	}
	for _, tc := range cases {
		if got := StripEmoji(tc.in); got != tc.want {
			t.Fatalf("StripEmoji(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func boolPtr(v bool) *bool { return &v }
