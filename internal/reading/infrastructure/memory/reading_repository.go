// Package memory provides an in-memory reading repository used by tests
// and local development.
package memory

import (
	"context"
	"sync"

	reading "mahabote-web/internal/reading/domain"
)

// ReadingRepository stores readings in a map guarded by a mutex.
type ReadingRepository struct {
	mu       sync.RWMutex
	readings map[string]reading.Reading
}

// NewReadingRepository returns an empty repository.
func NewReadingRepository() *ReadingRepository {
	return &ReadingRepository{readings: make(map[string]reading.Reading)}
}

// Create stores a copy of the reading.
func (r *ReadingRepository) Create(_ context.Context, rd *reading.Reading) error {
	if rd == nil {
		return reading.ErrNilReading
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readings[rd.ID] = *rd
	return nil
}

// Get returns a copy of the stored reading.
func (r *ReadingRepository) Get(_ context.Context, id string) (*reading.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rd, ok := r.readings[id]
	if !ok {
		return nil, reading.ErrReadingNotFound
	}
	return &rd, nil
}
