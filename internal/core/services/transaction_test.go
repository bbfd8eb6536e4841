package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driven/mocks"
)

func setupTransactionService(t *testing.T) (*transactionService, *mocks.MockVaultStore, *recordingRegistry, *domain.Vault) {
	t.Helper()

	vaults := mocks.NewMockVaultStore()
	txns := mocks.NewMockTransactionStore()
	registry := &recordingRegistry{}

	svc := NewTransactionService(txns, vaults, registry, nil).(*transactionService)

	vault := domain.NewVault("user-1", "Personal", "USD")
	if err := vaults.Save(context.Background(), vault); err != nil {
		t.Fatalf("failed to seed vault: %v", err)
	}
	return svc, vaults, registry, vault
}

func TestTransactionService_AddTransaction(t *testing.T) {
	svc, _, registry, vault := setupTransactionService(t)

	ctx := context.Background()
	txn, err := svc.AddTransaction(ctx, "user-1", &domain.Transaction{
		VaultID:     vault.ID,
		AmountCents: -4599,
		Currency:    "USD",
		Category:    "groceries",
		Note:        "weekly shop",
		OccurredAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to add transaction: %v", err)
	}
	if txn.ID == "" {
		t.Error("expected generated transaction ID")
	}
	if txn.AmountCents != -4599 {
		t.Errorf("expected amount -4599, got %d", txn.AmountCents)
	}
	if txn.Category != "groceries" || txn.Note != "weekly shop" {
		t.Errorf("optional fields not applied: %+v", txn)
	}

	reasons := registry.Reasons()
	if len(reasons) != 1 || reasons[0] != domain.SyncReasonTransactionAdded {
		t.Errorf("expected transaction_added notification, got %v", reasons)
	}
}

func TestTransactionService_AddTransaction_ForeignVault(t *testing.T) {
	svc, _, registry, vault := setupTransactionService(t)

	_, err := svc.AddTransaction(context.Background(), "user-2", &domain.Transaction{
		VaultID:     vault.ID,
		AmountCents: 100,
		Currency:    "USD",
		OccurredAt:  time.Now(),
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if len(registry.Reasons()) != 0 {
		t.Error("rejected add should not notify sync")
	}
}

func TestTransactionService_UpdateTransaction(t *testing.T) {
	svc, _, registry, vault := setupTransactionService(t)

	ctx := context.Background()
	txn, err := svc.AddTransaction(ctx, "user-1", &domain.Transaction{
		VaultID:     vault.ID,
		AmountCents: -100,
		Currency:    "USD",
		OccurredAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to add transaction: %v", err)
	}

	txn.AmountCents = -250
	txn.Category = "transport"
	updated, err := svc.UpdateTransaction(ctx, "user-1", txn)
	if err != nil {
		t.Fatalf("failed to update transaction: %v", err)
	}
	if updated.AmountCents != -250 || updated.Category != "transport" {
		t.Errorf("update not applied: %+v", updated)
	}

	reasons := registry.Reasons()
	if reasons[len(reasons)-1] != domain.SyncReasonTransactionUpdated {
		t.Errorf("expected transaction_updated notification, got %v", reasons)
	}
}

func TestTransactionService_DeleteTransaction(t *testing.T) {
	svc, _, registry, vault := setupTransactionService(t)

	ctx := context.Background()
	txn, err := svc.AddTransaction(ctx, "user-1", &domain.Transaction{
		VaultID:     vault.ID,
		AmountCents: -100,
		Currency:    "USD",
		OccurredAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to add transaction: %v", err)
	}

	if err := svc.DeleteTransaction(ctx, "user-1", txn.ID); err != nil {
		t.Fatalf("failed to delete transaction: %v", err)
	}
	if _, err := svc.GetTransaction(ctx, "user-1", txn.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Error("transaction still present after delete")
	}

	reasons := registry.Reasons()
	if reasons[len(reasons)-1] != domain.SyncReasonTransactionDeleted {
		t.Errorf("expected transaction_deleted notification, got %v", reasons)
	}
}

func TestTransactionService_ListTransactions(t *testing.T) {
	svc, _, _, vault := setupTransactionService(t)

	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		_, err := svc.AddTransaction(ctx, "user-1", &domain.Transaction{
			VaultID:     vault.ID,
			AmountCents: int64(-100 * (i + 1)),
			Currency:    "USD",
			OccurredAt:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("failed to add transaction %d: %v", i, err)
		}
	}

	txns, err := svc.ListTransactions(ctx, "user-1", vault.ID)
	if err != nil {
		t.Fatalf("failed to list transactions: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txns))
	}
	// Newest first.
	if !txns[0].OccurredAt.After(txns[2].OccurredAt) {
		t.Error("expected newest-first ordering")
	}

	if _, err := svc.ListTransactions(ctx, "user-2", vault.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden for foreign vault, got %v", err)
	}
}
