package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	documentapp "github.com/bizconsult/crm/internal/application/document"
	"github.com/google/uuid"
)

// MemoryObjectStorage keeps objects in process memory. It backs local
// development when no S3 endpoint is configured, and tests.
type MemoryObjectStorage struct {
	// BaseURL is the prefix of generated download URLs
	BaseURL string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryObjectStorage creates an empty MemoryObjectStorage
func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{
		BaseURL: "http://localhost:8080/files",
		objects: make(map[string]memoryObject),
	}
}

// Ensure MemoryObjectStorage implements ObjectStorage
var _ documentapp.ObjectStorage = (*MemoryObjectStorage)(nil)

// ObjectKey builds the storage key of a customer document
func (s *MemoryObjectStorage) ObjectKey(customerID, documentID uuid.UUID, fileName string) string {
	return DocumentKey("", customerID, documentID, fileName)
}

// Upload stores a copy of data
func (s *MemoryObjectStorage) Upload(_ context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = memoryObject{data: slices.Clone(data), contentType: contentType}
	return nil
}

// Download returns a copy of the stored data
func (s *MemoryObjectStorage) Download(_ context.Context, storageKey string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[storageKey]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", storageKey, documentapp.ErrObjectNotFound)
	}
	return slices.Clone(obj.data), nil
}

// GenerateDownloadURL returns a non-signed URL under BaseURL
func (s *MemoryObjectStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339), expiresAt, nil
}

// DeleteObject removes an object; deleting a missing key succeeds
func (s *MemoryObjectStorage) DeleteObject(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	return nil
}

// Len returns the number of stored objects
func (s *MemoryObjectStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
