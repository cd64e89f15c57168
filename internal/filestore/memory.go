package filestore

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore keeps attachments in memory. Used in tests and when no bucket
// is configured.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Upload(ctx context.Context, objectName, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read attachment: %w", err)
	}

	s.mu.Lock()
	s.objects[objectName] = data
	s.mu.Unlock()

	return "memory://" + objectName, nil
}

func (s *MemoryStore) Delete(ctx context.Context, objectName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[objectName]; !ok {
		return fmt.Errorf("object %s not found", objectName)
	}
	delete(s.objects, objectName)
	return nil
}

// Get returns a stored object's bytes, for test assertions.
func (s *MemoryStore) Get(objectName string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[objectName]
	return data, ok
}

func (s *MemoryStore) Close() error { return nil }
