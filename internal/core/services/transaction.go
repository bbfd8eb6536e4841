package services

import (
	"context"
	"log/slog"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driven"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driving"
)

// Ensure transactionService implements TransactionService
var _ driving.TransactionService = (*transactionService)(nil)

// transactionService implements the TransactionService interface
type transactionService struct {
	txns   driven.TransactionStore
	vaults driven.VaultStore
	sync   driving.SyncRegistry
	logger *slog.Logger
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(
	txns driven.TransactionStore,
	vaults driven.VaultStore,
	sync driving.SyncRegistry,
	logger *slog.Logger,
) driving.TransactionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &transactionService{
		txns:   txns,
		vaults: vaults,
		sync:   sync,
		logger: logger,
	}
}

// AddTransaction records a transaction in a vault
func (s *transactionService) AddTransaction(ctx context.Context, userID string, txn *domain.Transaction) (*domain.Transaction, error) {
	vault, err := s.vaults.Get(ctx, txn.VaultID)
	if err != nil {
		return nil, err
	}
	if vault.UserID != userID {
		return nil, domain.ErrForbidden
	}

	created := domain.NewTransaction(userID, txn.VaultID, txn.AmountCents, txn.Currency, txn.OccurredAt)
	created.Category = txn.Category
	created.Note = txn.Note

	if err := created.Validate(); err != nil {
		return nil, err
	}
	if err := s.txns.Save(ctx, created); err != nil {
		return nil, err
	}

	s.notifySync(userID, domain.SyncReasonTransactionAdded, created.ID)
	return created, nil
}

// GetTransaction retrieves a transaction, enforcing ownership
func (s *transactionService) GetTransaction(ctx context.Context, userID, txnID string) (*domain.Transaction, error) {
	txn, err := s.txns.Get(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if txn.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return txn, nil
}

// ListTransactions retrieves all transactions in a vault, newest first
func (s *transactionService) ListTransactions(ctx context.Context, userID, vaultID string) ([]*domain.Transaction, error) {
	vault, err := s.vaults.Get(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	if vault.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return s.txns.ListByVault(ctx, vaultID)
}

// UpdateTransaction updates a transaction's mutable fields
func (s *transactionService) UpdateTransaction(ctx context.Context, userID string, txn *domain.Transaction) (*domain.Transaction, error) {
	existing, err := s.GetTransaction(ctx, userID, txn.ID)
	if err != nil {
		return nil, err
	}

	existing.AmountCents = txn.AmountCents
	existing.Currency = txn.Currency
	existing.Category = txn.Category
	existing.Note = txn.Note
	existing.OccurredAt = txn.OccurredAt
	existing.Touch()

	if err := existing.Validate(); err != nil {
		return nil, err
	}
	if err := s.txns.Save(ctx, existing); err != nil {
		return nil, err
	}

	s.notifySync(userID, domain.SyncReasonTransactionUpdated, txn.ID)
	return existing, nil
}

// DeleteTransaction deletes a transaction
func (s *transactionService) DeleteTransaction(ctx context.Context, userID, txnID string) error {
	if _, err := s.GetTransaction(ctx, userID, txnID); err != nil {
		return err
	}
	if err := s.txns.Delete(ctx, txnID); err != nil {
		return err
	}

	s.notifySync(userID, domain.SyncReasonTransactionDeleted, txnID)
	return nil
}

func (s *transactionService) notifySync(userID string, reason domain.SyncReason, detail string) {
	if s.sync == nil {
		return
	}
	if c := s.sync.Coordinator(userID); c != nil {
		c.ScheduleSync(reason, detail)
	}
}
