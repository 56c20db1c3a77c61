// Package storage stores uploaded file attachments on local disk and
// returns the metadata medical records embed by value.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrMissingFileName    = errors.New("file name is required")
)

// allowedContentTypes lists the attachment MIME types records accept.
var allowedContentTypes = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"image/dicom":     true,
	"application/pdf": true,
	"text/plain":      true,
}

// FileInfo is the stored-attachment metadata returned to callers. The
// field shape matches what medical records persist.
type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Mime string `json:"mime"`
	URL  string `json:"url"`
}

// Store saves attachment bytes and hands back their metadata.
type Store interface {
	Save(ctx context.Context, fileName, contentType string, content io.Reader) (*FileInfo, error)
}

// LocalStore writes attachments under a base directory with generated
// names; the original file name survives only in the returned metadata.
type LocalStore struct {
	dir      string
	maxBytes int64
}

func NewLocalStore(dir string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, maxBytes: maxBytes}, nil
}

func (s *LocalStore) Save(_ context.Context, fileName, contentType string, content io.Reader) (*FileInfo, error) {
	fileName = filepath.Base(strings.TrimSpace(fileName))
	if fileName == "" || fileName == "." {
		return nil, ErrMissingFileName
	}
	if !allowedContentTypes[contentType] {
		return nil, ErrInvalidContentType
	}

	stored := uuid.New().String() + strings.ToLower(filepath.Ext(fileName))
	path := filepath.Join(s.dir, stored)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(content, s.maxBytes+1))
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write file: %w", err)
	}
	if n > s.maxBytes {
		_ = os.Remove(path)
		return nil, ErrFileTooLarge
	}

	return &FileInfo{
		Name: fileName,
		Size: n,
		Mime: contentType,
		URL:  "/uploads/" + stored,
	}, nil
}
