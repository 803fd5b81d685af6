package notification

import (
	"context"
	"sync"
)

// Store persists notification records.
type Store interface {
	Create(ctx context.Context, record *Record) error
	ListByRecipient(ctx context.Context, email string) ([]*Record, error)
}

// InMemoryStore backs tests and local development.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []*Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Create(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *record
	s.records = append(s.records, &clone)
	return nil
}

func (s *InMemoryStore) ListByRecipient(_ context.Context, email string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*Record
	for _, record := range s.records {
		if record.RecipientEmail == email {
			clone := *record
			result = append(result, &clone)
		}
	}
	return result, nil
}

// All returns every stored record. Test helper.
func (s *InMemoryStore) All() []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Record, 0, len(s.records))
	for _, record := range s.records {
		clone := *record
		result = append(result, &clone)
	}
	return result
}
