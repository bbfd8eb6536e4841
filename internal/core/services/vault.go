package services

import (
	"context"
	"log/slog"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driven"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driving"
)

// Ensure vaultService implements VaultService
var _ driving.VaultService = (*vaultService)(nil)

// vaultService implements the VaultService interface. Every mutation
// notifies the user's sync coordinator so changes ride the next
// debounced backup.
type vaultService struct {
	vaults driven.VaultStore
	sync   driving.SyncRegistry
	logger *slog.Logger
}

// NewVaultService creates a new VaultService
func NewVaultService(vaults driven.VaultStore, sync driving.SyncRegistry, logger *slog.Logger) driving.VaultService {
	if logger == nil {
		logger = slog.Default()
	}
	return &vaultService{
		vaults: vaults,
		sync:   sync,
		logger: logger,
	}
}

// CreateVault creates a new vault for a user
func (s *vaultService) CreateVault(ctx context.Context, userID, name, currency, icon string) (*domain.Vault, error) {
	vault := domain.NewVault(userID, name, currency)
	vault.Icon = icon

	if err := vault.Validate(); err != nil {
		return nil, err
	}
	if err := s.vaults.Save(ctx, vault); err != nil {
		return nil, err
	}

	s.logger.Info("vault created", "user_id", userID, "vault_id", vault.ID)
	s.notifySync(userID, domain.SyncReasonVaultCreated, vault.ID)
	return vault, nil
}

// GetVault retrieves a vault, enforcing ownership
func (s *vaultService) GetVault(ctx context.Context, userID, vaultID string) (*domain.Vault, error) {
	vault, err := s.vaults.Get(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	if vault.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return vault, nil
}

// ListVaults retrieves all vaults owned by a user
func (s *vaultService) ListVaults(ctx context.Context, userID string) ([]*domain.Vault, error) {
	return s.vaults.ListByUser(ctx, userID)
}

// UpdateVault updates a vault's mutable fields
func (s *vaultService) UpdateVault(ctx context.Context, userID string, vault *domain.Vault) (*domain.Vault, error) {
	existing, err := s.GetVault(ctx, userID, vault.ID)
	if err != nil {
		return nil, err
	}

	existing.Name = vault.Name
	existing.Currency = vault.Currency
	existing.Icon = vault.Icon
	existing.Touch()

	if err := existing.Validate(); err != nil {
		return nil, err
	}
	if err := s.vaults.Save(ctx, existing); err != nil {
		return nil, err
	}

	s.notifySync(userID, domain.SyncReasonVaultUpdated, vault.ID)
	return existing, nil
}

// DeleteVault deletes a vault and all its transactions
func (s *vaultService) DeleteVault(ctx context.Context, userID, vaultID string) error {
	if _, err := s.GetVault(ctx, userID, vaultID); err != nil {
		return err
	}
	if err := s.vaults.Delete(ctx, vaultID); err != nil {
		return err
	}

	s.logger.Info("vault deleted", "user_id", userID, "vault_id", vaultID)
	s.notifySync(userID, domain.SyncReasonVaultDeleted, vaultID)
	return nil
}

func (s *vaultService) notifySync(userID string, reason domain.SyncReason, detail string) {
	if s.sync == nil {
		return
	}
	if c := s.sync.Coordinator(userID); c != nil {
		c.ScheduleSync(reason, detail)
	}
}
