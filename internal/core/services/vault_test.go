package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driven/mocks"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driving"
)

// recordingRegistry captures ScheduleSync notifications per user so
// service tests can assert the coordinator wiring without timers.
type recordingRegistry struct {
	mu      sync.Mutex
	reasons []domain.SyncReason
}

func (r *recordingRegistry) Coordinator(userID string) driving.SyncCoordinator {
	return &recordingCoordinator{reg: r}
}

func (r *recordingRegistry) CloseAll() error { return nil }

func (r *recordingRegistry) Reasons() []domain.SyncReason {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.SyncReason, len(r.reasons))
	copy(result, r.reasons)
	return result
}

type recordingCoordinator struct {
	reg *recordingRegistry
}

func (c *recordingCoordinator) ScheduleSync(reason domain.SyncReason, detail string) {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()
	c.reg.reasons = append(c.reg.reasons, reason)
}

func (c *recordingCoordinator) ForceSync(ctx context.Context) error { return nil }
func (c *recordingCoordinator) CancelPendingSync()                  {}
func (c *recordingCoordinator) Subscribe() (<-chan domain.SyncStatus, func()) {
	ch := make(chan domain.SyncStatus)
	close(ch)
	return ch, func() {}
}
func (c *recordingCoordinator) CurrentStatus() domain.SyncStatus       { return domain.SyncStatusIdle }
func (c *recordingCoordinator) IsSyncing() bool                        { return false }
func (c *recordingCoordinator) IsSyncScheduled() bool                  { return false }
func (c *recordingCoordinator) TimeSinceLastSync() (time.Duration, bool) { return 0, false }
func (c *recordingCoordinator) Snapshot() domain.SyncSnapshot {
	return domain.SyncSnapshot{Status: domain.SyncStatusIdle}
}
func (c *recordingCoordinator) Close() error { return nil }

func TestVaultService_CreateVault(t *testing.T) {
	store := mocks.NewMockVaultStore()
	registry := &recordingRegistry{}
	svc := NewVaultService(store, registry, nil)

	ctx := context.Background()
	vault, err := svc.CreateVault(ctx, "user-1", "Personal", "USD", "wallet")
	if err != nil {
		t.Fatalf("failed to create vault: %v", err)
	}
	if vault.ID == "" {
		t.Error("expected generated vault ID")
	}
	if vault.Icon != "wallet" {
		t.Errorf("expected icon wallet, got %s", vault.Icon)
	}

	reasons := registry.Reasons()
	if len(reasons) != 1 || reasons[0] != domain.SyncReasonVaultCreated {
		t.Errorf("expected vault_created sync notification, got %v", reasons)
	}
}

func TestVaultService_CreateVault_Invalid(t *testing.T) {
	store := mocks.NewMockVaultStore()
	registry := &recordingRegistry{}
	svc := NewVaultService(store, registry, nil)

	_, err := svc.CreateVault(context.Background(), "user-1", "  ", "USD", "")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if len(registry.Reasons()) != 0 {
		t.Error("rejected create should not notify sync")
	}
}

func TestVaultService_GetVault_EnforcesOwnership(t *testing.T) {
	store := mocks.NewMockVaultStore()
	svc := NewVaultService(store, &recordingRegistry{}, nil)

	ctx := context.Background()
	vault, err := svc.CreateVault(ctx, "user-1", "Personal", "USD", "")
	if err != nil {
		t.Fatalf("failed to create vault: %v", err)
	}

	if _, err := svc.GetVault(ctx, "user-2", vault.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden for foreign vault, got %v", err)
	}
}

func TestVaultService_UpdateVault(t *testing.T) {
	store := mocks.NewMockVaultStore()
	registry := &recordingRegistry{}
	svc := NewVaultService(store, registry, nil)

	ctx := context.Background()
	vault, err := svc.CreateVault(ctx, "user-1", "Personal", "USD", "")
	if err != nil {
		t.Fatalf("failed to create vault: %v", err)
	}

	vault.Name = "Business"
	vault.Currency = "EUR"
	updated, err := svc.UpdateVault(ctx, "user-1", vault)
	if err != nil {
		t.Fatalf("failed to update vault: %v", err)
	}
	if updated.Name != "Business" || updated.Currency != "EUR" {
		t.Errorf("update not applied: %+v", updated)
	}

	reasons := registry.Reasons()
	if len(reasons) != 2 || reasons[1] != domain.SyncReasonVaultUpdated {
		t.Errorf("expected vault_updated notification, got %v", reasons)
	}
}

func TestVaultService_DeleteVault(t *testing.T) {
	store := mocks.NewMockVaultStore()
	registry := &recordingRegistry{}
	svc := NewVaultService(store, registry, nil)

	ctx := context.Background()
	vault, err := svc.CreateVault(ctx, "user-1", "Personal", "USD", "")
	if err != nil {
		t.Fatalf("failed to create vault: %v", err)
	}

	if err := svc.DeleteVault(ctx, "user-1", vault.ID); err != nil {
		t.Fatalf("failed to delete vault: %v", err)
	}
	if _, err := store.Get(ctx, vault.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Error("vault still present after delete")
	}

	reasons := registry.Reasons()
	if reasons[len(reasons)-1] != domain.SyncReasonVaultDeleted {
		t.Errorf("expected vault_deleted notification, got %v", reasons)
	}
}

func TestVaultService_ListVaults(t *testing.T) {
	store := mocks.NewMockVaultStore()
	svc := NewVaultService(store, &recordingRegistry{}, nil)

	ctx := context.Background()
	for _, name := range []string{"A", "B", "C"} {
		if _, err := svc.CreateVault(ctx, "user-1", name, "USD", ""); err != nil {
			t.Fatalf("failed to create vault %s: %v", name, err)
		}
	}
	if _, err := svc.CreateVault(ctx, "user-2", "Other", "USD", ""); err != nil {
		t.Fatalf("failed to create vault: %v", err)
	}

	vaults, err := svc.ListVaults(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to list vaults: %v", err)
	}
	if len(vaults) != 3 {
		t.Errorf("expected 3 vaults, got %d", len(vaults))
	}
}
