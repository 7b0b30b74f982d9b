package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"montchatsouvenir/pkg/domain"
)

// Kind classifies an extracted entry for the parsers.
type Kind string

const (
	KindText  Kind = "text"
	KindJSON  Kind = "json"
	KindMedia Kind = "media"
)

// Entry is one file pulled out of an uploaded export. Entries live for the
// duration of a single extraction run and are never persisted.
type Entry struct {
	Name string
	Kind Kind
	Data []byte
}

var (
	ErrUnsupportedFormat = errors.New("unsupported file format for platform")
	ErrCorruptArchive    = errors.New("corrupt archive")
	ErrEmptyArchive      = errors.New("no usable entries in archive")
	ErrFileTooLarge      = errors.New("file exceeds size limit")
)

const (
	DefaultMaxFileBytes = 100 << 20
	maxEntryBytes       = 64 << 20
)

// Extensions of document attachments WhatsApp ships alongside the chat text.
var attachmentExtensions = map[string]struct{}{
	".pdf":  {},
	".doc":  {},
	".docx": {},
	".xls":  {},
	".xlsx": {},
	".vcf":  {},
}

var acceptedExtensions = map[domain.Platform]map[string]struct{}{
	domain.PlatformWhatsApp:  {".txt": {}, ".zip": {}},
	domain.PlatformMessenger: {".json": {}, ".zip": {}},
	domain.PlatformInstagram: {".json": {}, ".zip": {}},
}

// Reader turns an uploaded export into the entry set the parsers consume.
// It is purely in-memory; no network or disk I/O.
type Reader struct {
	maxFileBytes int64
}

// NewReader builds a reader with the given upload size cap. A non-positive
// cap falls back to DefaultMaxFileBytes.
func NewReader(maxFileBytes int64) *Reader {
	if maxFileBytes <= 0 {
		maxFileBytes = DefaultMaxFileBytes
	}
	return &Reader{maxFileBytes: maxFileBytes}
}

// Read validates the upload against the declared platform, decompresses zip
// archives, and classifies the contained files.
func (r *Reader) Read(data []byte, filename string, platform domain.Platform) ([]Entry, error) {
	if int64(len(data)) > r.maxFileBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, len(data), r.maxFileBytes)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	accepted, ok := acceptedExtensions[platform]
	if !ok {
		return nil, fmt.Errorf("unknown platform %q", platform)
	}
	if _, ok := accepted[ext]; !ok {
		return nil, fmt.Errorf("%w: %s not accepted for %s", ErrUnsupportedFormat, ext, platform)
	}

	var entries []Entry
	switch ext {
	case ".zip":
		var err error
		entries, err = r.readZip(data)
		if err != nil {
			return nil, err
		}
	case ".txt":
		entries = []Entry{{Name: path.Base(filename), Kind: KindText, Data: data}}
	case ".json":
		entries = []Entry{{Name: path.Base(filename), Kind: KindJSON, Data: data}}
	}

	if !hasParseableEntry(entries, platform) {
		return nil, ErrEmptyArchive
	}
	return entries, nil
}

func (r *Reader) readZip(data []byte) ([]Entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	var entries []Entry
	for _, file := range zr.File {
		if file.FileInfo().IsDir() || isJunkEntry(file.Name) {
			continue
		}
		kind, ok := classify(file.Name)
		if !ok {
			continue
		}
		payload, err := readZipEntry(file)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Name: path.Base(file.Name),
			Kind: kind,
			Data: payload,
		})
	}
	return entries, nil
}

func readZipEntry(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrCorruptArchive, file.Name, err)
	}
	defer rc.Close()
	// Limit guards against decompression bombs regardless of the header size.
	payload, err := io.ReadAll(io.LimitReader(rc, maxEntryBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrCorruptArchive, file.Name, err)
	}
	if len(payload) > maxEntryBytes {
		return nil, fmt.Errorf("%w: entry %s", ErrFileTooLarge, file.Name)
	}
	return payload, nil
}

func classify(name string) (Kind, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".txt":
		return KindText, true
	case ".json":
		return KindJSON, true
	}
	if domain.IsMediaFile(name) {
		return KindMedia, true
	}
	if _, ok := attachmentExtensions[ext]; ok {
		return KindMedia, true
	}
	return "", false
}

// hasParseableEntry checks that at least one entry matches what the
// platform's parser reads: a text file for WhatsApp, JSON otherwise.
func hasParseableEntry(entries []Entry, platform domain.Platform) bool {
	want := KindJSON
	if platform == domain.PlatformWhatsApp {
		want = KindText
	}
	for _, e := range entries {
		if e.Kind == want {
			return true
		}
	}
	return false
}

func isJunkEntry(name string) bool {
	if strings.HasPrefix(name, "__MACOSX/") {
		return true
	}
	base := path.Base(name)
	return strings.HasPrefix(base, ".")
}
