// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/kozaktomas/visual-search/internal/database"
	"github.com/kozaktomas/visual-search/internal/ranking"
)

// MockProductStore is an in-memory implementation of database.ProductWriter
type MockProductStore struct {
	mu       sync.RWMutex
	products map[string]*database.StoredProduct

	// Error injection
	GetError       error
	ListError      error
	CountError     error
	SnapshotError  error
	SaveError      error
	DeleteError    error
	DeleteAllError error

	// Now stamps saved products; defaults to time.Now
	Now func() time.Time
}

// NewMockProductStore creates a new mock product store
func NewMockProductStore() *MockProductStore {
	return &MockProductStore{
		products: make(map[string]*database.StoredProduct),
		Now:      time.Now,
	}
}

// AddProduct adds a product to the mock store without touching timestamps
func (m *MockProductStore) AddProduct(p database.StoredProduct) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = &p
}

// sorted returns copies ordered by created_at, id. Caller holds the lock.
func (m *MockProductStore) sorted(category string) []database.StoredProduct {
	key := database.NormalizeCategory(category)
	out := make([]database.StoredProduct, 0, len(m.products))
	for _, p := range m.products {
		if key != "" && p.CategoryKey() != key {
			continue
		}
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b database.StoredProduct) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Get retrieves a product by ID
func (m *MockProductStore) Get(ctx context.Context, id string) (*database.StoredProduct, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// List returns products ordered by creation time
func (m *MockProductStore) List(ctx context.Context, category string) ([]database.StoredProduct, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sorted(category), nil
}

// Count returns the total number of products
func (m *MockProductStore) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.products), nil
}

// Snapshot returns the ranking entries ordered by created_at, id
func (m *MockProductStore) Snapshot(ctx context.Context, category string) ([]ranking.Entry, error) {
	if m.SnapshotError != nil {
		return nil, m.SnapshotError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	products := m.sorted(category)
	entries := make([]ranking.Entry, len(products))
	for i := range products {
		entries[i] = products[i].Entry()
	}
	return entries, nil
}

// Save inserts or replaces a product
func (m *MockProductStore) Save(ctx context.Context, p *database.StoredProduct) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now()
	cp := *p
	if existing, ok := m.products[p.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	m.products[p.ID] = &cp

	p.CreatedAt = cp.CreatedAt
	p.UpdatedAt = cp.UpdatedAt
	return nil
}

// Delete removes a product
func (m *MockProductStore) Delete(ctx context.Context, id string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

// DeleteAll removes every product
func (m *MockProductStore) DeleteAll(ctx context.Context) (int64, error) {
	if m.DeleteAllError != nil {
		return 0, m.DeleteAllError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.products))
	m.products = make(map[string]*database.StoredProduct)
	return n, nil
}

var _ database.ProductWriter = (*MockProductStore)(nil)
