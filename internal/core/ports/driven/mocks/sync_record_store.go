package mocks

import (
	"context"
	"sync"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
)

// MockSyncRecordStore is a mock implementation of SyncRecordStore for testing
type MockSyncRecordStore struct {
	mu      sync.RWMutex
	records map[string]*domain.LastSyncRecord

	// Custom behavior hooks (optional)
	SaveFn func(record *domain.LastSyncRecord) error
}

// NewMockSyncRecordStore creates a new MockSyncRecordStore
func NewMockSyncRecordStore() *MockSyncRecordStore {
	return &MockSyncRecordStore{
		records: make(map[string]*domain.LastSyncRecord),
	}
}

func (m *MockSyncRecordStore) Get(ctx context.Context, userID string) (*domain.LastSyncRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

func (m *MockSyncRecordStore) Save(ctx context.Context, record *domain.LastSyncRecord) error {
	if m.SaveFn != nil {
		return m.SaveFn(record)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.records[record.UserID]
	if ok && existing.LastSyncAt.After(record.LastSyncAt) {
		return nil
	}
	m.records[record.UserID] = record
	return nil
}

// Helper methods for testing

func (m *MockSyncRecordStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]*domain.LastSyncRecord)
}
