package driving

import (
	"context"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
)

// VaultService handles vault CRUD operations
type VaultService interface {
	// CreateVault creates a new vault for a user
	CreateVault(ctx context.Context, userID, name, currency, icon string) (*domain.Vault, error)

	// GetVault retrieves a vault, enforcing ownership
	GetVault(ctx context.Context, userID, vaultID string) (*domain.Vault, error)

	// ListVaults retrieves all vaults owned by a user
	ListVaults(ctx context.Context, userID string) ([]*domain.Vault, error)

	// UpdateVault updates a vault's mutable fields
	UpdateVault(ctx context.Context, userID string, vault *domain.Vault) (*domain.Vault, error)

	// DeleteVault deletes a vault and all its transactions
	DeleteVault(ctx context.Context, userID, vaultID string) error
}
