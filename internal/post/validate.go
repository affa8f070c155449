package post

import (
	"fmt"
	"strings"
)

// MaxImageSize is the largest accepted upload, in bytes.
const MaxImageSize = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
}

// ValidationError is returned when a staged image violates upload policy.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ValidateImage checks a file's declared content type and size. It never
// touches the file itself.
func ValidateImage(contentType string, size int64) error {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if !allowedImageTypes[mediaType] {
		return &ValidationError{Reason: fmt.Sprintf("unsupported image type %q: only JPEG, PNG and GIF are allowed", contentType)}
	}
	if size <= 0 {
		return &ValidationError{Reason: "image file is empty"}
	}
	if size > MaxImageSize {
		return &ValidationError{Reason: fmt.Sprintf("image is %.1f MB, the limit is %d MB", float64(size)/(1<<20), MaxImageSize>>20)}
	}
	return nil
}
