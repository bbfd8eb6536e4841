package mocks

import (
	"context"
	"sync"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
)

// MockSettingsStore is a mock implementation of SettingsStore for testing
type MockSettingsStore struct {
	mu       sync.RWMutex
	settings map[string]*domain.Settings
}

// NewMockSettingsStore creates a new MockSettingsStore
func NewMockSettingsStore() *MockSettingsStore {
	return &MockSettingsStore{
		settings: make(map[string]*domain.Settings),
	}
}

func (m *MockSettingsStore) Get(ctx context.Context, userID string) (*domain.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.settings[userID]
	if !ok {
		return domain.DefaultSettings(userID), nil
	}
	return s, nil
}

func (m *MockSettingsStore) Save(ctx context.Context, settings *domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[settings.UserID] = settings
	return nil
}

// Helper methods for testing

func (m *MockSettingsStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = make(map[string]*domain.Settings)
}
