package domain

import (
	"io"
	"path/filepath"
	"strings"
)

const MaxUploadBytes = 10 << 20

var allowedImageExt = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

var allowedImageMime = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// ImageUpload is an inbound image file.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// StoredImage describes a blob written to object storage.
type StoredImage struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimetype"`
}

// ImageExt validates an upload by extension and mime type and returns the
// lower-cased extension used for its storage key.
func (u ImageUpload) ImageExt() (string, error) {
	ext := strings.ToLower(filepath.Ext(u.Filename))
	if _, ok := allowedImageExt[ext]; !ok {
		return "", WrapError(ErrInvalidInput, "validate image", errOnlyImages)
	}
	mime := strings.ToLower(strings.TrimSpace(u.ContentType))
	if mime != "" && mime != "application/octet-stream" {
		if _, ok := allowedImageMime[mime]; !ok {
			return "", WrapError(ErrInvalidInput, "validate image", errOnlyImages)
		}
	}
	if u.Size > MaxUploadBytes {
		return "", WrapError(ErrInvalidInput, "validate image", errTooLarge)
	}
	return ext, nil
}

// MimeType returns the declared content type, falling back to the one
// implied by the extension.
func (u ImageUpload) MimeType() string {
	if ct := strings.TrimSpace(u.ContentType); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	return allowedImageExt[strings.ToLower(filepath.Ext(u.Filename))]
}
