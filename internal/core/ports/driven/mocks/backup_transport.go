package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
)

// MockBackupTransport is a mock implementation of BackupTransport for testing.
// It stores blobs in memory and supports custom behavior injection so tests
// can simulate cloud failures (network drops, quota, missing containers).
type MockBackupTransport struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	// Custom behavior hooks (optional)
	SaveFn   func(name string, data []byte) error
	LoadFn   func(name string) ([]byte, error)
	DeleteFn func(name string) error

	saveCalls int
	loadCalls int
}

// NewMockBackupTransport creates a new MockBackupTransport
func NewMockBackupTransport() *MockBackupTransport {
	return &MockBackupTransport{
		blobs: make(map[string][]byte),
	}
}

func (m *MockBackupTransport) Save(ctx context.Context, name string, data []byte) error {
	m.mu.Lock()
	m.saveCalls++
	m.mu.Unlock()

	if m.SaveFn != nil {
		return m.SaveFn(name, data)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	m.blobs[name] = buf
	return nil
}

func (m *MockBackupTransport) Load(ctx context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.LoadFn != nil {
		return m.LoadFn(name)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (m *MockBackupTransport) Exists(ctx context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[name]
	return ok, nil
}

func (m *MockBackupTransport) Delete(ctx context.Context, name string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, name)
	return nil
}

func (m *MockBackupTransport) List(ctx context.Context, prefix string) ([]*domain.ArchiveInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.ArchiveInfo
	for name, data := range m.blobs {
		if strings.HasPrefix(name, prefix) {
			entries = append(entries, &domain.ArchiveInfo{
				Name:       name,
				Bytes:      int64(len(data)),
				ModifiedAt: time.Now(),
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name > entries[j].Name })
	return entries, nil
}

// Helper methods for testing

func (m *MockBackupTransport) SaveCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveCalls
}

func (m *MockBackupTransport) LoadCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadCalls
}

func (m *MockBackupTransport) Stored(name string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blobs[name]
}

func (m *MockBackupTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs = make(map[string][]byte)
	m.saveCalls = 0
	m.loadCalls = 0
	m.SaveFn = nil
	m.LoadFn = nil
	m.DeleteFn = nil
}
