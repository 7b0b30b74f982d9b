package parser

import (
	"testing"
	"time"

	"montchatsouvenir/pkg/archive"
	"montchatsouvenir/pkg/domain"
)

func jsonEntry(name, data string) archive.Entry {
	return archive.Entry{Name: name, Kind: archive.KindJSON, Data: []byte(data)}
}

func TestMessengerReversesToChronological(t *testing.T) {
	export := `{
		"participants": [{"name": "Alice"}, {"name": "Bob"}],
		"messages": [
			{"sender_name": "Bob", "timestamp_ms": 1715509860000, "content": "Second"},
			{"sender_name": "Alice", "timestamp_ms": 1715509800000, "content": "First"}
		]
	}`
	msgs, err := NewMessengerParser().Parse([]archive.Entry{jsonEntry("message_1.json", export)})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "First" || msgs[1].Content != "Second" {
		t.Fatalf("newest-first export not reversed: %+v", msgs)
	}
	want := time.UnixMilli(1715509800000).UTC()
	if !msgs[0].Timestamp.Equal(want) {
		t.Fatalf("timestamp_ms not converted: %v", msgs[0].Timestamp)
	}
}

func TestMessengerFlattensSplitThread(t *testing.T) {
	part1 := `{"messages": [{"sender_name": "Alice", "timestamp_ms": 2000, "content": "B"}]}`
	part2 := `{"messages": [{"sender_name": "Alice", "timestamp_ms": 1000, "content": "A"}]}`
	msgs, err := NewMessengerParser().Parse([]archive.Entry{
		jsonEntry("message_1.json", part1),
		jsonEntry("message_2.json", part2),
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("split thread not flattened: %+v", msgs)
	}
}

func TestMessengerMojibakeRepaired(t *testing.T) {
	// "é" exported as the latin-1 mis-decode "Ã©".
	export := `{"messages": [{"sender_name": "ChloÃ©", "timestamp_ms": 1000, "content": "Ã§a va ?"}]}`
	msgs, err := NewMessengerParser().Parse([]archive.Entry{jsonEntry("message_1.json", export)})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Sender != "Chloé" {
		t.Fatalf("sender mojibake not repaired: %q", msgs[0].Sender)
	}
	if msgs[0].Content != "ça va ?" {
		t.Fatalf("content mojibake not repaired: %q", msgs[0].Content)
	}
}

func TestMessengerAttachmentKinds(t *testing.T) {
	export := `{"messages": [
		{"sender_name": "Alice", "timestamp_ms": 4000, "files": [{"uri": "messages/files/contract.pdf"}]},
		{"sender_name": "Alice", "timestamp_ms": 3000, "audio_files": [{"uri": "messages/audio/voice.mp4"}]},
		{"sender_name": "Alice", "timestamp_ms": 2000, "videos": [{"uri": "messages/videos/clip.mp4"}]},
		{"sender_name": "Alice", "timestamp_ms": 1000, "content": "look", "photos": [{"uri": "messages/photos/pic.jpg"}]}
	]}`
	msgs, err := NewMessengerParser().Parse([]archive.Entry{jsonEntry("message_1.json", export)})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d: %+v", len(msgs), msgs)
	}
	if msgs[0].MediaType != domain.MediaPhoto || msgs[0].MediaName != "pic.jpg" || msgs[0].Content != "look" {
		t.Fatalf("photo with caption wrong: %+v", msgs[0])
	}
	if msgs[1].MediaType != domain.MediaVideo {
		t.Fatalf("video kind wrong: %+v", msgs[1])
	}
	if msgs[2].MediaType != domain.MediaVoice {
		t.Fatalf("audio kind wrong: %+v", msgs[2])
	}
	if msgs[3].MediaType != domain.MediaAttachment {
		t.Fatalf("file kind wrong: %+v", msgs[3])
	}
}

func TestMessengerMultipleAttachmentsFanOut(t *testing.T) {
	export := `{"messages": [
		{"sender_name": "Alice", "timestamp_ms": 1000, "content": "holiday", "photos": [
			{"uri": "p/one.jpg"}, {"uri": "p/two.jpg"}
		]}
	]}`
	msgs, err := NewMessengerParser().Parse([]archive.Entry{jsonEntry("message_1.json", export)})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected one media message per attachment, got %d", len(msgs))
	}
	if msgs[0].Content != "holiday" || msgs[1].Content != "" {
		t.Fatalf("only the first attachment carries the caption: %+v", msgs)
	}
	if msgs[0].ID == msgs[1].ID {
		t.Fatal("fanned-out media messages must have distinct ids")
	}
}

func TestMessengerShareFallbackContent(t *testing.T) {
	export := `{"messages": [
		{"sender_name": "Alice", "timestamp_ms": 1000, "share": {"link": "https://example.com/post"}}
	]}`
	msgs, err := NewMessengerParser().Parse([]archive.Entry{jsonEntry("message_1.json", export)})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "https://example.com/post" {
		t.Fatalf("share link should become the content: %+v", msgs)
	}
}

func TestMessengerSkipsMalformedEntry(t *testing.T) {
	msgs, err := NewMessengerParser().Parse([]archive.Entry{
		jsonEntry("message_1.json", `{"messages": [{"sender_name": "Alice", "timestamp_ms": 1000, "content": "kept"}]}`),
		jsonEntry("message_2.json", `{not json`),
		jsonEntry("message_3.json", `{"participants": []}`),
	})
	if err != nil {
		t.Fatalf("broken entries must not fail the parse: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "kept" {
		t.Fatalf("good entry should survive: %+v", msgs)
	}
}

func TestMessengerSkipsReactionOnlyMessages(t *testing.T) {
	export := `{"messages": [
		{"sender_name": "Alice", "timestamp_ms": 1000}
	]}`
	msgs, err := NewMessengerParser().Parse([]archive.Entry{jsonEntry("message_1.json", export)})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("content-less message without media should be dropped: %+v", msgs)
	}
}
