package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrUnsupportedType is returned for uploads that are not an allowed image type.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrTooLarge is returned for uploads above the configured size limit.
	ErrTooLarge = errors.New("image too large")
)

// Allowed image MIME types and extensions.
var (
	AllowedImageTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/jpg":  ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
		"image/gif":  ".gif",
	}
	AllowedImageExtensions = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".webp": "image/webp",
		".gif":  "image/gif",
	}
)

// ImageStore persists uploaded images and returns the path clients fetch them from.
type ImageStore interface {
	Save(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, imagePath string) error
}

// Upload is an image received in a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ValidateImageType returns true if the content type and/or extension are allowed for images.
func ValidateImageType(contentType, filename string) bool {
	ext := strings.ToLower(path.Ext(filename))
	if contentType != "" {
		if _, ok := AllowedImageTypes[strings.ToLower(contentType)]; ok {
			return true
		}
	}
	if ext != "" {
		if _, ok := AllowedImageExtensions[ext]; ok {
			return true
		}
	}
	return false
}

// ContentTypeForFilename returns the MIME type for an image filename extension.
func ContentTypeForFilename(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ct, ok := AllowedImageExtensions[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ImageName returns a fresh "<uuid>.<ext>" name, keeping the upload's extension when allowed.
func ImageName(filename, contentType string) string {
	ext := strings.ToLower(path.Ext(filename))
	if _, ok := AllowedImageExtensions[ext]; !ok {
		ext = AllowedImageTypes[strings.ToLower(contentType)]
	}
	if ext == "" {
		ext = ".jpg"
	}
	return uuid.NewString() + ext
}

// SaveUpload validates up and writes it to store under a generated name.
func SaveUpload(ctx context.Context, store ImageStore, up *Upload, maxBytes int64) (string, error) {
	if !ValidateImageType(up.ContentType, up.Filename) {
		return "", ErrUnsupportedType
	}
	if maxBytes > 0 && up.Size > maxBytes {
		return "", ErrTooLarge
	}
	contentType := up.ContentType
	if _, ok := AllowedImageTypes[strings.ToLower(contentType)]; !ok {
		contentType = ContentTypeForFilename(up.Filename)
	}
	return store.Save(ctx, ImageName(up.Filename, contentType), contentType, up.Body, up.Size)
}
