package domain

import (
	"testing"
	"time"
)

func boolPtr(v bool) *bool { return &v }

func TestResolveFilterOptionsDefaults(t *testing.T) {
	opts := ResolveFilterOptions(RawFilterOptions{})
	if !opts.IncludeMedia || !opts.IncludePhotos || !opts.IncludeEmojis {
		t.Fatalf("media, photos and emojis should default on: %+v", opts)
	}
	if opts.IncludeVideos || opts.IncludeVoiceNotes || opts.IncludeAttachments {
		t.Fatalf("videos, voice notes and attachments should default off: %+v", opts)
	}
}

func TestResolveFilterOptionsOverrides(t *testing.T) {
	opts := ResolveFilterOptions(RawFilterOptions{
		IncludeMedia:  boolPtr(false),
		IncludeVideos: boolPtr(true),
		Participants:  []string{"Alice"},
	})
	if opts.IncludeMedia {
		t.Fatal("explicit includeMedia=false ignored")
	}
	if !opts.IncludeVideos {
		t.Fatal("explicit includeVideos=true ignored")
	}
	if len(opts.Participants) != 1 || opts.Participants[0] != "Alice" {
		t.Fatalf("participants not carried over: %v", opts.Participants)
	}
}

func TestAllowsRespectsMasterSwitch(t *testing.T) {
	opts := ResolveFilterOptions(RawFilterOptions{
		IncludeMedia:  boolPtr(false),
		IncludePhotos: boolPtr(true),
	})
	if opts.Allows(MediaPhoto) {
		t.Fatal("includeMedia=false must override the per-kind flag")
	}
}

func TestAllowsPerKind(t *testing.T) {
	opts := ResolveFilterOptions(RawFilterOptions{})
	if !opts.Allows(MediaPhoto) {
		t.Fatal("photos allowed by default")
	}
	if opts.Allows(MediaVideo) {
		t.Fatal("videos excluded by default")
	}
	if opts.Allows(MediaAttachment) {
		t.Fatal("attachments excluded by default")
	}
}

func TestDateRangeInclusive(t *testing.T) {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 31, 23, 59, 59, 0, time.UTC)
	r := DateRange{From: from, To: to}
	if !r.Contains(from) || !r.Contains(to) {
		t.Fatal("range bounds must be inclusive")
	}
	if r.Contains(from.Add(-time.Second)) || r.Contains(to.Add(time.Second)) {
		t.Fatal("range must exclude instants outside the bounds")
	}
}

func TestParsePlatform(t *testing.T) {
	if p, err := ParsePlatform(" WhatsApp "); err != nil || p != PlatformWhatsApp {
		t.Fatalf("ParsePlatform(WhatsApp) = %v, %v", p, err)
	}
	if _, err := ParsePlatform("telegram"); err == nil {
		t.Fatal("unknown platform must be rejected")
	}
}
