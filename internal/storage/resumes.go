// Package storage manages the file-backed resume assets under the resume
// storage directory. The browser driver never touches this directory.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ResumeStore writes and reads resume files under a base directory,
// creating the directory if absent.
type ResumeStore struct {
	dir string
}

// NewResumeStore creates the storage directory if it does not exist.
func NewResumeStore(dir string) (*ResumeStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create resume storage dir: %w", err)
	}
	return &ResumeStore{dir: dir}, nil
}

// Dir returns the base directory.
func (s *ResumeStore) Dir() string {
	return s.dir
}

// Save streams an uploaded resume to disk and returns its storage path
// relative to the base directory. The original filename only contributes
// its extension; the stored name is the resume id.
func (s *ResumeStore) Save(resumeID uuid.UUID, fileName string, r io.Reader) (string, int64, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	relPath := resumeID.String() + ext

	f, err := os.Create(filepath.Join(s.dir, relPath))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create resume file: %w", err)
	}
	defer func() { _ = f.Close() }()

	n, err := io.Copy(f, r)
	if err != nil {
		_ = os.Remove(f.Name())
		return "", 0, fmt.Errorf("failed to write resume file: %w", err)
	}
	return relPath, n, nil
}

// Open opens a stored resume for reading.
func (s *ResumeStore) Open(storagePath string) (*os.File, error) {
	f, err := os.Open(filepath.Join(s.dir, storagePath))
	if err != nil {
		return nil, fmt.Errorf("failed to open resume file: %w", err)
	}
	return f, nil
}

// Remove deletes a stored resume file. Missing files are not an error; the
// database row is the source of truth.
func (s *ResumeStore) Remove(storagePath string) error {
	err := os.Remove(filepath.Join(s.dir, storagePath))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove resume file: %w", err)
	}
	return nil
}
