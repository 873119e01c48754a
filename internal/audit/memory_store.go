package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	xerrors "ChainGate/internal/errors"
)

// MemoryStore keeps decision records in memory, mainly for tests and for
// deployments that only need the rolling audit log file.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, record *Record) error {
	if record == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "record cannot be nil")
	}
	if record.ID == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "record id cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[record.ID]; ok {
		return ErrRecordConflict
	}
	clone := *record
	if clone.CreatedAt == 0 {
		clone.CreatedAt = time.Now().Unix()
	}
	m.records[record.ID] = &clone
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	clone := *record
	return &clone, nil
}

// List implements Store, newest records first.
func (m *MemoryStore) List(_ context.Context, opts ListOptions) ([]*Record, error) {
	opts.applyDefaults()

	m.mu.RLock()
	matched := make([]*Record, 0, len(m.records))
	for _, record := range m.records {
		if opts.Allowed != nil && record.Allowed != *opts.Allowed {
			continue
		}
		if opts.Verdict != "" && record.Verdict != opts.Verdict {
			continue
		}
		clone := *record
		matched = append(matched, &clone)
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt == matched[j].CreatedAt {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt > matched[j].CreatedAt
	})

	if opts.Offset >= len(matched) {
		return []*Record{}, nil
	}
	matched = matched[opts.Offset:]
	if len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

// Stats implements Store.
func (m *MemoryStore) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stats Stats
	for _, record := range m.records {
		stats.Total++
		if record.Allowed {
			stats.Allowed++
		} else {
			stats.Blocked++
		}
		if record.ErrorCode != "" {
			stats.Errored++
		}
	}
	return stats, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
