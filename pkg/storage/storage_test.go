package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateImageType(t *testing.T) {
	assert.True(t, ValidateImageType("image/png", "x.bin"))
	assert.True(t, ValidateImageType("", "photo.JPEG"))
	assert.False(t, ValidateImageType("application/pdf", "doc.pdf"))
}

func TestImageName(t *testing.T) {
	assert.True(t, strings.HasSuffix(ImageName("a.PNG", ""), ".png"))
	assert.True(t, strings.HasSuffix(ImageName("blob", "image/webp"), ".webp"))
	assert.True(t, strings.HasSuffix(ImageName("blob", ""), ".jpg"))
	assert.NotEqual(t, ImageName("a.png", ""), ImageName("a.png", ""))
}

func TestLocalSaveDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, "uploads/", nil)
	require.NoError(t, err)
	ctx := context.Background()

	p, err := SaveUpload(ctx, store, &Upload{
		Filename:    "flyer.png",
		ContentType: "image/png",
		Size:        4,
		Body:        strings.NewReader("data"),
	}, 1024)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, "/uploads/"))

	onDisk := filepath.Join(dir, filepath.Base(p))
	b, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, "data", string(b))

	require.NoError(t, store.Delete(ctx, p))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	// already gone
	assert.NoError(t, store.Delete(ctx, p))
}

func TestSaveUploadRejects(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "/uploads", nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = SaveUpload(ctx, store, &Upload{Filename: "a.exe", ContentType: "application/x-msdownload", Body: strings.NewReader("")}, 0)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = SaveUpload(ctx, store, &Upload{Filename: "a.png", ContentType: "image/png", Size: 2048, Body: strings.NewReader("")}, 1024)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestS3KeyFromURL(t *testing.T) {
	s := &S3{cfg: S3Config{Bucket: "pulse", Region: "ap-south-1"}}
	url := s.PublicObjectURL(ImageKey("abc.png"))
	assert.Equal(t, "https://pulse.s3.ap-south-1.amazonaws.com/images/abc.png", url)
	assert.Equal(t, "images/abc.png", s.keyFromURL(url))

	s.cfg.PublicBaseURL = "https://cdn.example.com/"
	assert.Equal(t, "images/abc.png", s.keyFromURL("https://cdn.example.com/images/abc.png"))
}
