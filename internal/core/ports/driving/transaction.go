package driving

import (
	"context"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
)

// TransactionService handles transaction CRUD operations
type TransactionService interface {
	// AddTransaction records a transaction in a vault
	AddTransaction(ctx context.Context, userID string, txn *domain.Transaction) (*domain.Transaction, error)

	// GetTransaction retrieves a transaction, enforcing ownership
	GetTransaction(ctx context.Context, userID, txnID string) (*domain.Transaction, error)

	// ListTransactions retrieves all transactions in a vault, newest first
	ListTransactions(ctx context.Context, userID, vaultID string) ([]*domain.Transaction, error)

	// UpdateTransaction updates a transaction's mutable fields
	UpdateTransaction(ctx context.Context, userID string, txn *domain.Transaction) (*domain.Transaction, error)

	// DeleteTransaction deletes a transaction
	DeleteTransaction(ctx context.Context, userID, txnID string) error
}
