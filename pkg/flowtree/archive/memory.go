package archive

import (
	"sort"
	"sync"
)

// MemoryStore is an in-memory archive for tests and short-lived processes.
// Data is lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	closed  bool
}

// NewMemoryStore creates an empty in-memory archive.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Save implements Store.
func (m *MemoryStore) Save(rec Record) error {
	if rec.RunID == "" {
		return ErrInvalidRecord
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	// Copy data to avoid retaining caller's slice
	rec.Data = append([]byte(nil), rec.Data...)
	m.records[rec.RunID] = rec
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(runID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Record{}, ErrStoreClosed
	}

	rec, ok := m.records[runID]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.Data = append([]byte(nil), rec.Data...)
	return rec, nil
}

// List implements Store.
func (m *MemoryStore) List(q Query) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	infos := make([]Info, 0, len(m.records))
	for _, rec := range m.records {
		if q.matches(rec.Root, rec.Status) {
			infos = append(infos, rec.info())
		}
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Started.Equal(infos[j].Started) {
			return infos[i].RunID < infos[j].RunID
		}
		return infos[i].Started.Before(infos[j].Started)
	})

	if q.Limit > 0 && len(infos) > q.Limit {
		infos = infos[len(infos)-q.Limit:]
	}
	return infos, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.records, runID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.records = nil
	return nil
}

// Len returns the number of archived runs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
