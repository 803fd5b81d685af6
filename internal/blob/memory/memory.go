package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"buildsync/internal/blob"
	"buildsync/pkg/platform/sentinel"
)

// InMemory keeps blob bytes in a map. Used by tests and local development in
// place of object storage.
type InMemory struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	// FailPut and FailDelete force the next corresponding call to fail so
	// tests can exercise compensation paths.
	FailPut    bool
	FailDelete bool
}

func NewInMemory() *InMemory {
	return &InMemory{blobs: make(map[string][]byte)}
}

func (s *InMemory) Put(_ context.Context, data []byte, suggestedName, _ string) (blob.Stored, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPut {
		return blob.Stored{}, sentinel.ErrUnavailable
	}
	key := fmt.Sprintf("documents/%d-%s", time.Now().UnixNano(), suggestedName)
	s.blobs[key] = append([]byte(nil), data...)
	return blob.Stored{
		Locator: "memory://" + key,
		Key:     key,
	}, nil
}

func (s *InMemory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete {
		return sentinel.ErrUnavailable
	}
	if _, ok := s.blobs[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.blobs, key)
	return nil
}

// Len reports how many blobs are stored. Test helper.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Has reports whether a blob exists for key. Test helper.
func (s *InMemory) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[key]
	return ok
}
