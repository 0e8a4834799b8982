// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/kozaktomas/face-enroll/internal/database"
)

// MockIdentityStore is a mock implementation of database.IdentityWriter
type MockIdentityStore struct {
	mu         sync.RWMutex
	identities map[int64]*database.Identity
	nextID     int64

	// Error injection
	GetError          error
	SearchError       error
	ListError         error
	PingError         error
	CreateError       error
	UpdateVectorError error
}

// NewMockIdentityStore creates a new mock identity store
func NewMockIdentityStore() *MockIdentityStore {
	return &MockIdentityStore{
		identities: make(map[int64]*database.Identity),
		nextID:     1,
	}
}

// AddIdentity adds an identity with a fixed ID to the mock store
func (m *MockIdentityStore) AddIdentity(ident database.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[ident.ID] = &ident
	if ident.ID >= m.nextID {
		m.nextID = ident.ID + 1
	}
}

// Get retrieves an identity by ID
func (m *MockIdentityStore) Get(ctx context.Context, id int64) (*database.Identity, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ident, ok := m.identities[id]
	if !ok {
		return nil, nil
	}
	cp := *ident
	return &cp, nil
}

// SearchByName returns identities whose name contains the query (case and diacritic insensitive)
func (m *MockIdentityStore) SearchByName(ctx context.Context, name string) ([]database.Identity, error) {
	if m.SearchError != nil {
		return nil, m.SearchError
	}
	return filterByName(m.snapshot(), name), nil
}

// List returns all identities ordered by ID
func (m *MockIdentityStore) List(ctx context.Context) ([]database.Identity, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.snapshot(), nil
}

// Ping returns the injected ping error
func (m *MockIdentityStore) Ping(ctx context.Context) error {
	return m.PingError
}

// Create inserts a new identity
func (m *MockIdentityStore) Create(ctx context.Context, ident *database.Identity) (int64, error) {
	if m.CreateError != nil {
		return 0, m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ident
	cp.ID = m.nextID
	m.nextID++
	m.identities[cp.ID] = &cp
	return cp.ID, nil
}

// UpdateVector replaces the vector of an identity
func (m *MockIdentityStore) UpdateVector(ctx context.Context, id int64, vector []float32) (int64, error) {
	if m.UpdateVectorError != nil {
		return 0, m.UpdateVectorError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ident, ok := m.identities[id]
	if !ok {
		return 0, nil
	}
	ident.VectorFace = vector
	return 1, nil
}

func (m *MockIdentityStore) snapshot() []database.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]database.Identity, 0, len(m.identities))
	for _, ident := range m.identities {
		result = append(result, *ident)
	}
	sortByID(result)
	return result
}

// MockCache is a mock implementation of database.CacheWriter.
// ReplaceAll swaps the snapshot under a lock, so readers never see a mix.
type MockCache struct {
	mu         sync.RWMutex
	identities []database.Identity

	// ReplaceCalls counts successful and failed ReplaceAll calls
	ReplaceCalls int

	// Error injection
	ReplaceAllError error
	ListError       error
}

// NewMockCache creates a mock cache holding identities
func NewMockCache(identities ...database.Identity) *MockCache {
	return &MockCache{identities: slices.Clone(identities)}
}

// ReplaceAll swaps the snapshot
func (m *MockCache) ReplaceAll(ctx context.Context, identities []database.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReplaceCalls++
	if m.ReplaceAllError != nil {
		return m.ReplaceAllError
	}
	next := slices.Clone(identities)
	sortByID(next)
	m.identities = next
	return nil
}

// List returns the snapshot
func (m *MockCache) List(ctx context.Context) ([]database.Identity, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.identities), nil
}

// Count returns the snapshot size
func (m *MockCache) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.identities), nil
}

// FindByName filters the snapshot by normalized name
func (m *MockCache) FindByName(ctx context.Context, name string) ([]database.Identity, error) {
	all, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	return filterByName(all, name), nil
}

func filterByName(identities []database.Identity, name string) []database.Identity {
	query := database.NormalizeName(name)
	var result []database.Identity
	for _, ident := range identities {
		if strings.Contains(database.NormalizeName(ident.FullName), query) {
			result = append(result, ident)
		}
	}
	return result
}

func sortByID(identities []database.Identity) {
	slices.SortFunc(identities, func(a, b database.Identity) int {
		return cmp.Compare(a.ID, b.ID)
	})
}
