// Package history stores reconciliation and merge run records.
//
// Memory keeps records in process and is used when no database is
// configured. Postgres persists them in the recon_runs table. Both satisfy
// core.RunStore.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/JonMunkholm/recon/internal/core"
)

// DefaultMemoryCapacity bounds the number of records Memory keeps.
const DefaultMemoryCapacity = 1000

// Memory is an in-process run store. Records are kept newest first and
// the oldest are dropped beyond capacity.
type Memory struct {
	mu       sync.RWMutex
	records  []core.RunRecord
	capacity int
}

// NewMemory creates a store holding at most capacity records.
// A non-positive capacity uses DefaultMemoryCapacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{capacity: capacity}
}

// Record prepends rec.
func (m *Memory) Record(_ context.Context, rec core.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append([]core.RunRecord{rec}, m.records...)
	if len(m.records) > m.capacity {
		m.records = m.records[:m.capacity]
	}
	return nil
}

// List returns up to limit records, newest first. A non-positive limit
// returns all of them.
func (m *Memory) List(_ context.Context, limit int) ([]core.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]core.RunRecord, n)
	copy(out, m.records[:n])
	return out, nil
}

// Prune removes records created before olderThan.
func (m *Memory) Prune(_ context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	var pruned int64
	for _, r := range m.records {
		if r.CreatedAt.Before(olderThan) {
			pruned++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return pruned, nil
}
