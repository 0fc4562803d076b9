package fraud

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory Store for demo/development mode and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record // by ID
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (m *MemoryStore) Create(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *MemoryStore) GetByTransaction(ctx context.Context, transactionID string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *Record
	for _, rec := range m.records {
		if rec.TransactionID != transactionID {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) ||
			(rec.CreatedAt.Equal(latest.CreatedAt) && rec.ID > latest.ID) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *MemoryStore) ListByUser(ctx context.Context, userID string) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Record, 0)
	for _, rec := range m.records {
		if rec.UserID == userID {
			cp := *rec
			result = append(result, &cp)
		}
	}
	sortByCreatedDesc(result)
	return result, nil
}

func (m *MemoryStore) List(ctx context.Context, offset, limit int) ([]*Record, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*Record, 0, len(m.records))
	for _, rec := range m.records {
		cp := *rec
		all = append(all, &cp)
	}
	sortByCreatedDesc(all)

	total := len(all)
	if offset >= total {
		return []*Record{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *MemoryStore) Update(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[rec.ID]; !ok {
		return ErrNotFound
	}
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return false, nil
	}
	delete(m.records, id)
	return true, nil
}

func (m *MemoryStore) CountByUserSince(ctx context.Context, userID string, cutoff time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, rec := range m.records {
		if rec.UserID == userID && !rec.CreatedAt.Before(cutoff) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) CountByUserIP(ctx context.Context, userIP, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, rec := range m.records {
		if rec.UserIP == userIP && rec.UserID == userID {
			count++
		}
	}
	return count, nil
}

// sortByCreatedDesc orders newest first, with ID as a stable tie-break.
func sortByCreatedDesc(recs []*Record) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].ID > recs[j].ID
		}
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
}
