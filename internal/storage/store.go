package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileStore persists uploaded file content under an opaque key and exposes
// it at a public URL.
type FileStore interface {
	Save(ctx context.Context, filename string, content io.Reader) (key string, err error)
	URL(key string) string
}

// LocalStore writes files to a directory on local disk, served statically
// under the public base URL.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates the storage directory if it does not exist.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Save stores the content under a key built from the upload time and the
// original filename. Keys are not content-addressed: uploading the same
// file twice yields two keys.
func (s *LocalStore) Save(ctx context.Context, filename string, content io.Reader) (string, error) {
	key := buildKey(time.Now(), filename)

	f, err := os.Create(filepath.Join(s.dir, key))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return key, nil
}

// URL returns the public address the stored file is served at.
func (s *LocalStore) URL(key string) string {
	return s.baseURL + "/files/" + key
}

func buildKey(now time.Time, filename string) string {
	name := sanitizeFilename(filepath.Base(filename))
	return fmt.Sprintf("%d_%s_%s", now.UnixMilli(), uuid.New().String()[:8], name)
}

func sanitizeFilename(name string) string {
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "file"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

var _ FileStore = (*LocalStore)(nil)
