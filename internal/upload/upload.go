// Package upload validates, compresses and stores slide images.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/petermazzocco/go-presenter/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxUploadBytes is the ceiling before compression.
	MaxUploadBytes = 20 << 20
	// MaxDimension bounds the longest edge after compression.
	MaxDimension = 1920
	// MaxOutputBytes is the compression target.
	MaxOutputBytes = 1 << 20
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = fmt.Errorf("file exceeds %d MB", MaxUploadBytes>>20)
	ErrEmpty           = errors.New("file is empty")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Allowed reports whether contentType may be uploaded.
func Allowed(contentType string) bool {
	_, ok := allowedTypes[normalizeType(contentType)]
	return ok
}

func normalizeType(contentType string) string {
	ct, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}

// Validate checks the declared type and size before any bytes are read.
func Validate(contentType string, size int64) error {
	if size <= 0 {
		return ErrEmpty
	}
	if size > MaxUploadBytes {
		return ErrTooLarge
	}
	if !Allowed(contentType) {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	return nil
}

// DetectType sniffs the content type of data.
func DetectType(data []byte) string {
	return normalizeType(http.DetectContentType(data))
}

// SanitizeFilename strips diacritics and anything that is not an ASCII
// letter, digit, dot, dash or underscore. Whitespace becomes a dash.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(stripMarks, name)
	if err != nil {
		plain = name
	}

	b := make([]byte, 0, len(plain))
	for _, r := range plain {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b = append(b, byte(r))
		case r == '.' || r == '_':
			b = bytes.TrimRight(b, "-")
			b = append(b, byte(r))
		case r == '-' || unicode.IsSpace(r):
			if n := len(b); n > 0 && b[n-1] != '-' && b[n-1] != '.' && b[n-1] != '_' {
				b = append(b, '-')
			}
		}
	}
	out := strings.Trim(string(b), "-")
	if strings.Trim(out, "._") == "" {
		return "image"
	}
	if strings.HasPrefix(out, ".") {
		out = "image" + out
	}
	return out
}

// StorageKey builds a time-prefixed object key under the owner's prefix.
func StorageKey(ownerID string, now time.Time, filename string) string {
	return fmt.Sprintf("%s%d-%s", models.MediaPrefix(ownerID), now.UnixMilli(), SanitizeFilename(filename))
}

// Compressor shrinks an image. It returns the new bytes and content type.
type Compressor interface {
	Compress(data []byte, contentType string) ([]byte, string, error)
}

// ObjectStore persists bytes and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// File is an upload as received from the client.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Result struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Compressed  bool   `json:"compressed"`
}

type Pipeline struct {
	Compressor Compressor
	Objects    ObjectStore
	Now        func() time.Time
	logger     *slog.Logger
}

func NewPipeline(c Compressor, objects ObjectStore) *Pipeline {
	return &Pipeline{
		Compressor: c,
		Objects:    objects,
		Now:        time.Now,
		logger:     slog.Default().With("component", "upload"),
	}
}

// Upload validates f, compresses it and stores it under ownerID. Validation
// failures return before the object store is called. A compression failure
// falls back to the original bytes.
func (p *Pipeline) Upload(ctx context.Context, ownerID string, f File) (Result, error) {
	if err := Validate(f.ContentType, f.Size); err != nil {
		return Result{}, err
	}

	data, err := io.ReadAll(io.LimitReader(f.Body, MaxUploadBytes+1))
	if err != nil {
		return Result{}, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return Result{}, ErrEmpty
	}
	if len(data) > MaxUploadBytes {
		return Result{}, ErrTooLarge
	}
	contentType := DetectType(data)
	if !Allowed(contentType) {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}

	out, outType, compressed := data, contentType, false
	if p.Compressor != nil {
		small, smallType, err := p.Compressor.Compress(data, contentType)
		switch {
		case err != nil:
			p.logger.Warn("compression failed, uploading original", "name", f.Name, "error", err)
		case len(small) > 0 && len(small) < len(data):
			out, outType, compressed = small, smallType, true
		}
	}

	name := f.Name
	if ext := allowedTypes[outType]; ext != "" && compressed {
		name = strings.TrimSuffix(name, path.Ext(name)) + ext
	}
	key := StorageKey(ownerID, p.Now(), name)

	url, err := p.Objects.Put(ctx, key, bytes.NewReader(out), int64(len(out)), outType)
	if err != nil {
		return Result{}, fmt.Errorf("storing %s: %w", key, err)
	}
	p.logger.Info("image uploaded", "key", key, "bytes", len(out), "original_bytes", len(data), "compressed", compressed)

	return Result{URL: url, Key: key, ContentType: outType, Size: int64(len(out)), Compressed: compressed}, nil
}
