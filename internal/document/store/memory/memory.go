package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"buildsync/internal/document"
	"buildsync/pkg/platform/sentinel"
)

// InMemory is a map-backed document store. It backs unit tests and local
// development; the mutex gives the same per-document atomicity the postgres
// store gets from row locks.
type InMemory struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]*document.Document
}

func NewInMemory() *InMemory {
	return &InMemory{docs: make(map[uuid.UUID]*document.Document)}
}

func (s *InMemory) Create(_ context.Context, doc *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[doc.ID]; exists {
		return sentinel.ErrConflict
	}
	s.docs[doc.ID] = doc.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return doc.Clone(), nil
}

func (s *InMemory) FindBySubcontractor(_ context.Context, subcontractorID uuid.UUID) ([]*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*document.Document
	for _, doc := range s.docs {
		if doc.SubcontractorID == subcontractorID {
			result = append(result, doc.Clone())
		}
	}
	sortByCreation(result)
	return result, nil
}

func (s *InMemory) FindExpiringBefore(_ context.Context, cutoff time.Time) ([]*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*document.Document
	for _, doc := range s.docs {
		if doc.ExpiresAt == nil || doc.Status == document.StatusExpired {
			continue
		}
		if doc.ExpiresAt.After(cutoff) {
			continue
		}
		result = append(result, doc.Clone())
	}
	sortByCreation(result)
	return result, nil
}

func (s *InMemory) Update(_ context.Context, id uuid.UUID, mutate func(*document.Document) error) (*document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.docs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	updated := current.Clone()
	if err := mutate(updated); err != nil {
		return nil, err
	}
	updated.UpdatedAt = time.Now()
	s.docs[id] = updated
	return updated.Clone(), nil
}

func (s *InMemory) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

// sortByCreation keeps listings stable across runs; map iteration order is not.
func sortByCreation(docs []*document.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID.String() < docs[j].ID.String()
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
}
