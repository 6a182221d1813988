package blob

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// DefaultMaxImageBytes is the upload cap used when none is configured.
const DefaultMaxImageBytes int64 = 5 * 1024 * 1024

// ErrInvalidFile wraps every reason an upload is rejected.
var ErrInvalidFile = errors.New("invalid file")

var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

var allowedContentTypes = map[string]bool{
	"image/jpeg": true, "image/png": true, "image/gif": true, "image/webp": true,
}

// ValidateImage checks an upload's name, size and sniffed content type and
// returns the detected content type. head should hold the first bytes of
// the file (512 are enough for every allowed format).
func ValidateImage(fileName string, size, maxBytes int64, head []byte) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	if size <= 0 {
		return "", fmt.Errorf("%w: no file uploaded", ErrInvalidFile)
	}
	if size > maxBytes {
		return "", fmt.Errorf("%w: file size exceeds %d bytes", ErrInvalidFile, maxBytes)
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: extension %q not allowed (jpg, jpeg, png, gif, webp)", ErrInvalidFile, ext)
	}
	mt := mimetype.Detect(head)
	ct := mt.String()
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	if !allowedContentTypes[ct] {
		return "", fmt.Errorf("%w: content type %q not allowed", ErrInvalidFile, ct)
	}
	return ct, nil
}

// UniqueFileName derives a collision-free stored name from the uploaded
// one: slugified base, UTC nanosecond timestamp and 8 hex chars of a UUID,
// keeping the lowercased extension.
func UniqueFileName(original string, now time.Time) string {
	base := filepath.Base(original)
	ext := strings.ToLower(filepath.Ext(base))
	name := slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" {
		name = "image"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s%s", name, now.UTC().UnixNano(), suffix, ext)
}
