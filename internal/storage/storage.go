// Package storage holds the document store collaborator used for uploaded
// proformas, quotations, specification sheets and receipts.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"procureflow/pkg/apperrors"

	"github.com/google/uuid"
)

// MaxFileSize caps uploaded documents at 10MB.
const MaxFileSize = 10 << 20

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
}

// ValidateUpload checks extension and size limits before a document is
// accepted into the workflow.
func ValidateUpload(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return apperrors.Validationf("invalid file type %q, allowed: pdf, jpg, jpeg, png, doc, docx, txt", ext)
	}
	if size > MaxFileSize {
		return apperrors.Validationf("file too large, maximum size is 10MB")
	}
	return nil
}

// FileStore saves documents and resolves references back to content.
type FileStore interface {
	Save(category, filename string, content []byte) (string, error)
	Read(ref string) ([]byte, error)
}

// LocalStore keeps documents on the local filesystem under a root directory,
// grouped by category (proformas, receipts, purchase_orders, ...).
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Save(category, filename string, content []byte) (string, error) {
	dir := filepath.Join(s.root, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create category dir: %w", err)
	}

	// Prefix with a uuid so colliding upload names never overwrite
	ref := filepath.Join(category, uuid.NewString()+"_"+filepath.Base(filename))
	if err := os.WriteFile(filepath.Join(s.root, ref), content, 0o644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return ref, nil
}

func (s *LocalStore) Read(ref string) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(s.root, filepath.Clean(ref)))
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", ref, err)
	}
	return content, nil
}
