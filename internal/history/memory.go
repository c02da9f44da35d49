package history

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps transfer records in memory. Used by unit tests and
// when the service runs without a database.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryRepository builds an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]Record)}
}

// Create stores a new transfer record.
func (r *MemoryRepository) Create(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = rec
	return nil
}

// Update overwrites the mutable fields of a stored record.
func (r *MemoryRepository) Update(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.records[rec.ID]
	if !ok {
		return ErrNotFound
	}
	stored.ConvertedAmount = rec.ConvertedAmount
	stored.Fee = rec.Fee
	stored.Status = rec.Status
	stored.Reason = rec.Reason
	stored.UpdatedAt = time.Now().UTC()
	r.records[rec.ID] = stored
	return nil
}

// Get fetches a record by id.
func (r *MemoryRepository) Get(_ context.Context, id string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}
