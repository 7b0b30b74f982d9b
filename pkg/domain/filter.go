package domain

import "time"

// DateRange bounds surviving messages; both ends are inclusive.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// FilterOptions is the fully resolved filter configuration. It is produced
// once at the pipeline boundary by ResolveFilterOptions and passed through
// unchanged; nothing downstream re-applies defaults.
type FilterOptions struct {
	IncludeMedia       bool       `json:"includeMedia"`
	IncludePhotos      bool       `json:"includePhotos"`
	IncludeVideos      bool       `json:"includeVideos"`
	IncludeVoiceNotes  bool       `json:"includeVoiceNotes"`
	IncludeEmojis      bool       `json:"includeEmojis"`
	IncludeAttachments bool       `json:"includeAttachments"`
	DateRange          *DateRange `json:"dateRange,omitempty"`
	Participants       []string   `json:"participants,omitempty"`
}

// RawFilterOptions is the partial selection sent by the upload form. Unset
// flags fall back to defaults during resolution.
type RawFilterOptions struct {
	IncludeMedia       *bool      `json:"includeMedia"`
	IncludePhotos      *bool      `json:"includePhotos"`
	IncludeVideos      *bool      `json:"includeVideos"`
	IncludeVoiceNotes  *bool      `json:"includeVoiceNotes"`
	IncludeEmojis      *bool      `json:"includeEmojis"`
	IncludeAttachments *bool      `json:"includeAttachments"`
	DateRange          *DateRange `json:"dateRange"`
	Participants       []string   `json:"participants"`
}

// ResolveFilterOptions merges a partial options object with defaults:
// media, photos and emojis on; videos, voice notes and attachments off.
func ResolveFilterOptions(raw RawFilterOptions) FilterOptions {
	opts := FilterOptions{
		IncludeMedia:       true,
		IncludePhotos:      true,
		IncludeVideos:      false,
		IncludeVoiceNotes:  false,
		IncludeEmojis:      true,
		IncludeAttachments: false,
	}
	if raw.IncludeMedia != nil {
		opts.IncludeMedia = *raw.IncludeMedia
	}
	if raw.IncludePhotos != nil {
		opts.IncludePhotos = *raw.IncludePhotos
	}
	if raw.IncludeVideos != nil {
		opts.IncludeVideos = *raw.IncludeVideos
	}
	if raw.IncludeVoiceNotes != nil {
		opts.IncludeVoiceNotes = *raw.IncludeVoiceNotes
	}
	if raw.IncludeEmojis != nil {
		opts.IncludeEmojis = *raw.IncludeEmojis
	}
	if raw.IncludeAttachments != nil {
		opts.IncludeAttachments = *raw.IncludeAttachments
	}
	if raw.DateRange != nil {
		dr := *raw.DateRange
		opts.DateRange = &dr
	}
	if len(raw.Participants) > 0 {
		opts.Participants = append([]string(nil), raw.Participants...)
	}
	return opts
}

// Allows reports whether a media message of the given kind survives the
// resolved media flags. Text messages are never dropped by media filters.
func (o FilterOptions) Allows(kind MediaType) bool {
	if !o.IncludeMedia {
		return false
	}
	switch kind {
	case MediaPhoto:
		return o.IncludePhotos
	case MediaVideo:
		return o.IncludeVideos
	case MediaVoice:
		return o.IncludeVoiceNotes
	case MediaAttachment:
		return o.IncludeAttachments
	}
	return false
}
