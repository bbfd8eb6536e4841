package driven

import (
	"context"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
)

// VaultStore handles vault persistence (PostgreSQL)
type VaultStore interface {
	// Save creates or updates a vault
	Save(ctx context.Context, vault *domain.Vault) error

	// Get retrieves a vault by ID
	Get(ctx context.Context, id string) (*domain.Vault, error)

	// ListByUser retrieves all vaults owned by a user
	ListByUser(ctx context.Context, userID string) ([]*domain.Vault, error)

	// Delete deletes a vault and all its transactions
	Delete(ctx context.Context, id string) error

	// ReplaceAll atomically replaces every vault a user owns.
	// Used by restore.
	ReplaceAll(ctx context.Context, userID string, vaults []*domain.Vault) error
}
