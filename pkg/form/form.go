// Package form reads optional fields and an image upload from multipart or urlencoded bodies.
package form

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Captain-Rohith/CommunityPulse/internal/apperr"
	"github.com/Captain-Rohith/CommunityPulse/pkg/storage"
	"github.com/Captain-Rohith/CommunityPulse/pkg/tz"
)

// String returns the trimmed field, nil when absent.
func String(c *gin.Context, key string) *string {
	v, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	return &v
}

// Float parses a numeric field. Absent or blank yields nil.
func Float(c *gin.Context, key string) (*float64, error) {
	v, ok := c.GetPostForm(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return nil, apperr.Validation(key + " must be a number")
	}
	return &f, nil
}

// Time parses a date field with tz.Parse in loc. Absent or blank yields nil.
func Time(c *gin.Context, key string, loc *time.Location) (*time.Time, error) {
	v, ok := c.GetPostForm(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, nil
	}
	t, err := tz.Parse(v, loc)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid date format for %s: %v", key, err))
	}
	return &t, nil
}

// Image opens the "image" file part. It returns nil and a no-op closer when none was sent.
func Image(c *gin.Context) (*storage.Upload, func(), error) {
	noop := func() {}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, apperr.Validation("invalid image upload")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, apperr.Internal("open upload", err)
	}
	up := &storage.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}
	return up, func() { closeQuietly(f) }, nil
}

func closeQuietly(c io.Closer) { _ = c.Close() }
