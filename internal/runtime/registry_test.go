package runtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driven/mocks"
)

// recordingBackups counts BackupNow invocations per user
type recordingBackups struct {
	mu    sync.Mutex
	calls map[string][]string // userID -> archive names
}

func newRecordingBackups() *recordingBackups {
	return &recordingBackups{calls: make(map[string][]string)}
}

func (b *recordingBackups) BackupNow(ctx context.Context, userID, name string) (*domain.BackupResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[userID] = append(b.calls[userID], name)
	return &domain.BackupResult{UserID: userID, Name: name}, nil
}

func (b *recordingBackups) Restore(ctx context.Context, userID, name string) error { return nil }

func (b *recordingBackups) BackupExists(ctx context.Context, userID, name string) (bool, error) {
	return false, nil
}

func (b *recordingBackups) ListArchives(ctx context.Context, userID string) ([]*domain.ArchiveInfo, error) {
	return nil, nil
}

func (b *recordingBackups) PruneArchives(ctx context.Context, userID string, keep int) (int, error) {
	return 0, nil
}

func (b *recordingBackups) callsFor(userID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls[userID]...)
}

func newTestRegistry(t *testing.T) (*Registry, *recordingBackups) {
	t.Helper()
	backups := newRecordingBackups()
	registry := NewRegistry(RegistryConfig{
		Backups: backups,
		Records: mocks.NewMockSyncRecordStore(),
		Tuning: domain.SyncTuning{
			DebounceDelay:   20 * time.Millisecond,
			MaxSyncInterval: time.Minute,
			MaxAttempts:     1,
			RetryBaseDelay:  time.Millisecond,
			SuccessDecay:    10 * time.Millisecond,
			ErrorDecay:      10 * time.Millisecond,
		},
	})
	t.Cleanup(func() { _ = registry.CloseAll() })
	return registry, backups
}

func TestRegistry_CoordinatorIsPerUser(t *testing.T) {
	registry, _ := newTestRegistry(t)

	c1 := registry.Coordinator("user-1")
	c2 := registry.Coordinator("user-2")
	if c1 == c2 {
		t.Error("expected distinct coordinators for distinct users")
	}

	// Same user gets the same instance
	if registry.Coordinator("user-1") != c1 {
		t.Error("expected the same coordinator on repeated lookup")
	}
}

func TestRegistry_RunnerExecutesBackup(t *testing.T) {
	registry, backups := newTestRegistry(t)

	coordinator := registry.Coordinator("user-1")
	if err := coordinator.ForceSync(context.Background()); err != nil {
		t.Fatalf("ForceSync: %v", err)
	}

	calls := backups.callsFor("user-1")
	if len(calls) != 1 {
		t.Fatalf("expected 1 backup call, got %d", len(calls))
	}
	if calls[0] != defaultArchiveName {
		t.Errorf("expected canonical archive %q, got %q", defaultArchiveName, calls[0])
	}

	if len(backups.callsFor("user-2")) != 0 {
		t.Error("expected no backups for other users")
	}
}

func TestRegistry_CustomArchiveName(t *testing.T) {
	backups := newRecordingBackups()
	registry := NewRegistry(RegistryConfig{
		Backups:     backups,
		Records:     mocks.NewMockSyncRecordStore(),
		ArchiveName: "primary",
	})
	defer registry.CloseAll()

	if err := registry.Coordinator("user-1").ForceSync(context.Background()); err != nil {
		t.Fatalf("ForceSync: %v", err)
	}

	calls := backups.callsFor("user-1")
	if len(calls) != 1 || calls[0] != "primary" {
		t.Errorf("expected backup to archive primary, got %v", calls)
	}
}

func TestRegistry_CloseAll(t *testing.T) {
	registry, _ := newTestRegistry(t)

	c1 := registry.Coordinator("user-1")
	if err := registry.CloseAll(); err != nil {
		t.Fatalf("CloseAll: %v", err)
	}

	// Closed coordinators reject further work
	if err := c1.ForceSync(context.Background()); err == nil {
		t.Error("expected error from closed coordinator")
	}

	// The registry hands out a fresh coordinator afterwards
	c2 := registry.Coordinator("user-1")
	if c2 == c1 {
		t.Error("expected a fresh coordinator after CloseAll")
	}
	if err := c2.ForceSync(context.Background()); err != nil {
		t.Errorf("fresh coordinator should work: %v", err)
	}
}
