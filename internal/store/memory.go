package store

import (
	"sync"

	"github.com/cwygoda/vidrag/internal/domain"
)

// Memory implements domain.RecordStore with a mutex-guarded map.
// Records live for the life of the process; nothing is evicted.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*domain.Record
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]*domain.Record)}
}

// Put replaces the record for rec.VideoID with a copy of rec.
func (m *Memory) Put(rec *domain.Record) {
	cp := *rec
	m.mu.Lock()
	m.records[rec.VideoID] = &cp
	m.mu.Unlock()
}

// Get returns a copy of the record for videoID.
func (m *Memory) Get(videoID string) (*domain.Record, bool) {
	m.mu.RLock()
	rec, ok := m.records[videoID]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	cp := *rec
	return &cp, true
}

// Len returns the number of tracked videos.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
