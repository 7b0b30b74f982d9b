package parser

import (
	"testing"

	"montchatsouvenir/pkg/archive"
	"montchatsouvenir/pkg/domain"
)

func TestInstagramBasicParse(t *testing.T) {
	export := `{
		"participants": [{"name": "alice_insta"}, {"name": "bob_insta"}],
		"messages": [
			{"sender_name": "bob_insta", "timestamp_ms": 2000, "content": "later"},
			{"sender_name": "alice_insta", "timestamp_ms": 1000, "content": "earlier"}
		]
	}`
	msgs, err := NewInstagramParser().Parse([]archive.Entry{jsonEntry("message_1.json", export)})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "earlier" || msgs[0].Platform != domain.PlatformInstagram {
		t.Fatalf("order or platform wrong: %+v", msgs[0])
	}
}

func TestInstagramShareText(t *testing.T) {
	export := `{"messages": [
		{"sender_name": "alice_insta", "timestamp_ms": 1000, "share": {"share_text": "reel caption"}}
	]}`
	msgs, err := NewInstagramParser().Parse([]archive.Entry{jsonEntry("message_1.json", export)})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "reel caption" {
		t.Fatalf("share_text should become the content: %+v", msgs)
	}
}

func TestInstagramPhotoMessage(t *testing.T) {
	export := `{"messages": [
		{"sender_name": "alice_insta", "timestamp_ms": 1000, "photos": [{"uri": "media/photos/selfie.jpg"}]}
	]}`
	msgs, err := NewInstagramParser().Parse([]archive.Entry{jsonEntry("message_1.json", export)})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	msg := msgs[0]
	if msg.Type != domain.TypeMedia || msg.MediaType != domain.MediaPhoto || msg.MediaName != "selfie.jpg" {
		t.Fatalf("photo attachment wrong: %+v", msg)
	}
}
