package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
)

// MockTransactionStore is a mock implementation of TransactionStore for testing
type MockTransactionStore struct {
	mu   sync.RWMutex
	txns map[string]*domain.Transaction
}

// NewMockTransactionStore creates a new MockTransactionStore
func NewMockTransactionStore() *MockTransactionStore {
	return &MockTransactionStore{
		txns: make(map[string]*domain.Transaction),
	}
}

func (m *MockTransactionStore) Save(ctx context.Context, txn *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txns[txn.ID] = txn
	return nil
}

func (m *MockTransactionStore) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	txn, ok := m.txns[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return txn, nil
}

func (m *MockTransactionStore) ListByVault(ctx context.Context, vaultID string) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Transaction
	for _, txn := range m.txns {
		if txn.VaultID == vaultID {
			result = append(result, txn)
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (m *MockTransactionStore) ListByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Transaction
	for _, txn := range m.txns {
		if txn.UserID == userID {
			result = append(result, txn)
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (m *MockTransactionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txns[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.txns, id)
	return nil
}

func (m *MockTransactionStore) ReplaceAll(ctx context.Context, userID string, txns []*domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, txn := range m.txns {
		if txn.UserID == userID {
			delete(m.txns, id)
		}
	}
	for _, txn := range txns {
		m.txns[txn.ID] = txn
	}
	return nil
}

func sortNewestFirst(txns []*domain.Transaction) {
	sort.Slice(txns, func(i, j int) bool {
		return txns[i].OccurredAt.After(txns[j].OccurredAt)
	})
}

// Helper methods for testing

func (m *MockTransactionStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txns = make(map[string]*domain.Transaction)
}

func (m *MockTransactionStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.txns)
}
