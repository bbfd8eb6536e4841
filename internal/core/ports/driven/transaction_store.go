package driven

import (
	"context"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
)

// TransactionStore handles transaction persistence (PostgreSQL)
type TransactionStore interface {
	// Save creates or updates a transaction
	Save(ctx context.Context, txn *domain.Transaction) error

	// Get retrieves a transaction by ID
	Get(ctx context.Context, id string) (*domain.Transaction, error)

	// ListByVault retrieves all transactions in a vault, newest first
	ListByVault(ctx context.Context, vaultID string) ([]*domain.Transaction, error)

	// ListByUser retrieves all transactions owned by a user, newest first
	ListByUser(ctx context.Context, userID string) ([]*domain.Transaction, error)

	// Delete deletes a transaction
	Delete(ctx context.Context, id string) error

	// ReplaceAll atomically replaces every transaction a user owns.
	// Used by restore.
	ReplaceAll(ctx context.Context, userID string, txns []*domain.Transaction) error
}
