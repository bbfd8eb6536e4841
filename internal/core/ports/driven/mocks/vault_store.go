package mocks

import (
	"context"
	"sync"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
)

// MockVaultStore is a mock implementation of VaultStore for testing
type MockVaultStore struct {
	mu     sync.RWMutex
	vaults map[string]*domain.Vault
}

// NewMockVaultStore creates a new MockVaultStore
func NewMockVaultStore() *MockVaultStore {
	return &MockVaultStore{
		vaults: make(map[string]*domain.Vault),
	}
}

func (m *MockVaultStore) Save(ctx context.Context, vault *domain.Vault) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vaults[vault.ID] = vault
	return nil
}

func (m *MockVaultStore) Get(ctx context.Context, id string) (*domain.Vault, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vault, ok := m.vaults[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return vault, nil
}

func (m *MockVaultStore) ListByUser(ctx context.Context, userID string) ([]*domain.Vault, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Vault
	for _, vault := range m.vaults {
		if vault.UserID == userID {
			result = append(result, vault)
		}
	}
	return result, nil
}

func (m *MockVaultStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vaults[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.vaults, id)
	return nil
}

func (m *MockVaultStore) ReplaceAll(ctx context.Context, userID string, vaults []*domain.Vault) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, vault := range m.vaults {
		if vault.UserID == userID {
			delete(m.vaults, id)
		}
	}
	for _, vault := range vaults {
		m.vaults[vault.ID] = vault
	}
	return nil
}

// Helper methods for testing

func (m *MockVaultStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vaults = make(map[string]*domain.Vault)
}

func (m *MockVaultStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vaults)
}
