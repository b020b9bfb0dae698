package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Local stores images on disk; the directory is served under URLPrefix.
type Local struct {
	dir       string
	urlPrefix string
	logger    *zap.Logger
}

// NewLocal creates dir if needed and returns a disk-backed image store.
func NewLocal(dir, urlPrefix string, logger *zap.Logger) (*Local, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir, urlPrefix: "/" + strings.Trim(urlPrefix, "/"), logger: logger}, nil
}

// Dir returns the directory served for static files.
func (l *Local) Dir() string { return l.dir }

// URLPrefix returns the static mount path.
func (l *Local) URLPrefix() string { return l.urlPrefix }

// Save writes body to <dir>/<name> and returns <urlPrefix>/<name>.
func (l *Local) Save(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error) {
	name = path.Base(name)
	f, err := os.Create(filepath.Join(l.dir, name))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	l.logger.Debug("image stored", zap.String("name", name), zap.Int64("size", size))
	return l.urlPrefix + "/" + name, nil
}

// Delete removes the file behind imagePath. Missing files are not an error.
func (l *Local) Delete(ctx context.Context, imagePath string) error {
	name := path.Base(strings.TrimPrefix(imagePath, l.urlPrefix))
	if name == "" || name == "." || name == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(l.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}
