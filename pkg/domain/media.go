package domain

import (
	"path/filepath"
	"strings"
)

var mediaExtensions = map[string]MediaType{
	".jpg":  MediaPhoto,
	".jpeg": MediaPhoto,
	".png":  MediaPhoto,
	".gif":  MediaPhoto,
	".webp": MediaPhoto,
	".heic": MediaPhoto,
	".mp4":  MediaVideo,
	".mov":  MediaVideo,
	".avi":  MediaVideo,
	".3gp":  MediaVideo,
	".webm": MediaVideo,
	".opus": MediaVoice,
	".ogg":  MediaVoice,
	".mp3":  MediaVoice,
	".m4a":  MediaVoice,
	".aac":  MediaVoice,
	".wav":  MediaVoice,
}

// MediaTypeForName infers the media kind from a filename extension. Unknown
// extensions map to MediaAttachment; ok is false when the name has no
// extension at all.
func MediaTypeForName(name string) (MediaType, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return MediaAttachment, false
	}
	if kind, found := mediaExtensions[ext]; found {
		return kind, true
	}
	return MediaAttachment, true
}

// IsMediaFile reports whether the filename looks like a photo, video or
// audio payload rather than a document.
func IsMediaFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	_, found := mediaExtensions[ext]
	return found
}
