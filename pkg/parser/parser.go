package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"montchatsouvenir/pkg/archive"
	"montchatsouvenir/pkg/domain"
)

// Parser transforms one platform's raw export entries into the canonical
// message list. Implementations recover from malformed lines or entries and
// keep going; only a completely unreadable export is an error.
type Parser interface {
	Parse(entries []archive.Entry) ([]domain.ProcessedMessage, error)
}

// ForPlatform selects the parser for the declared platform. The selection
// happens once at the archive boundary; everything downstream operates on
// ProcessedMessage only.
func ForPlatform(platform domain.Platform) (Parser, error) {
	switch platform {
	case domain.PlatformWhatsApp:
		return NewWhatsAppParser(), nil
	case domain.PlatformMessenger:
		return NewMessengerParser(), nil
	case domain.PlatformInstagram:
		return NewInstagramParser(), nil
	}
	return nil, fmt.Errorf("no parser for platform %q", platform)
}

// messageID derives a stable message id from the emission index, timestamp
// and sender, so reprocessing the same export is idempotent.
func messageID(platform domain.Platform, index int, ts time.Time, sender string) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%d|%s", platform, index, ts.UnixMilli(), sender))
	return hex.EncodeToString(sum[:8])
}
