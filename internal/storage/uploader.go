package storage

import (
	"context"
	"io"

	apperrors "buildmarket/internal/shared/errors"
	"buildmarket/internal/shared/logger"
)

// UploadResult carries the public URL of a stored file.
type UploadResult struct {
	FileURL string `json:"file_url"`
}

// Uploader accepts file content and hands back its public URL. Every
// storage failure surfaces as an upload error; there are no retries.
type Uploader struct {
	store FileStore
	log   logger.Logger
}

// NewUploader creates an uploader over the given file store.
func NewUploader(store FileStore, log logger.Logger) *Uploader {
	return &Uploader{
		store: store,
		log:   log.WithComponent("storage"),
	}
}

// Upload stores the content and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, filename string, content io.Reader) (*UploadResult, error) {
	if filename == "" {
		return nil, apperrors.NewValidationError("filename is required")
	}
	if content == nil {
		return nil, apperrors.NewValidationError("file content is required")
	}

	key, err := u.store.Save(ctx, filename, content)
	if err != nil {
		u.log.Errorf("File upload failed for %q: %v", filename, err)
		return nil, apperrors.NewStorageError("file upload failed: " + err.Error())
	}

	u.log.Infof("Stored file %q as %s", filename, key)
	return &UploadResult{FileURL: u.store.URL(key)}, nil
}
