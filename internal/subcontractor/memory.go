package subcontractor

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"buildsync/pkg/platform/sentinel"
)

// InMemoryDirectory is a map-backed Directory for tests and local runs.
type InMemoryDirectory struct {
	mu         sync.RWMutex
	recipients map[uuid.UUID]RecipientInfo
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{recipients: make(map[uuid.UUID]RecipientInfo)}
}

func (d *InMemoryDirectory) Add(id uuid.UUID, info RecipientInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recipients[id] = info
}

func (d *InMemoryDirectory) GetRecipientInfo(_ context.Context, id uuid.UUID) (RecipientInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	info, ok := d.recipients[id]
	if !ok {
		return RecipientInfo{}, sentinel.ErrNotFound
	}
	return info, nil
}
