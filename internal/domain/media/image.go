package media

import (
	"context"
	"io"
	"mime"
	"strings"
)

// Upload describes an image received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ImageStore persists uploaded images and returns a reference to them.
type ImageStore interface {
	Save(ctx context.Context, upload Upload) (string, error)
	Delete(ctx context.Context, ref string) error
}

var supportedTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
}

// IsSupported reports whether the content type is an accepted profile image format.
func IsSupported(contentType string) bool {
	_, ok := supportedTypes[normalizeType(contentType)]
	return ok
}

// Extension returns the file extension for a supported content type.
func Extension(contentType string) string {
	return supportedTypes[normalizeType(contentType)]
}

func normalizeType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}
