package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driven"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driving"
)

// Ensure backupService implements BackupService
var _ driving.BackupService = (*backupService)(nil)

// backupService assembles application state into encrypted archives and
// ships them through the backup transport. All pre-flight guard
// failures are classified before the transport is touched.
type backupService struct {
	vaults    driven.VaultStore
	txns      driven.TransactionStore
	settings  driven.SettingsStore
	transport driven.BackupTransport
	cipher    driven.BlobCipher
	logger    *slog.Logger
}

// NewBackupService creates a new BackupService
func NewBackupService(
	vaults driven.VaultStore,
	txns driven.TransactionStore,
	settings driven.SettingsStore,
	transport driven.BackupTransport,
	cipher driven.BlobCipher,
	logger *slog.Logger,
) driving.BackupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &backupService{
		vaults:    vaults,
		txns:      txns,
		settings:  settings,
		transport: transport,
		cipher:    cipher,
		logger:    logger,
	}
}

// BackupNow exports the user's data, encrypts it and uploads it.
func (s *backupService) BackupNow(ctx context.Context, userID, name string) (*domain.BackupResult, error) {
	started := time.Now()

	blob, err := s.blobName(userID, name)
	if err != nil {
		return nil, err
	}

	archive, err := s.exportArchive(ctx, userID)
	if err != nil {
		return nil, err
	}

	if archive.ItemCount() == 0 {
		return nil, &domain.ClassifiedError{
			Kind:      domain.ErrorKindUnknown,
			Message:   "Nothing to back up yet.",
			Retryable: false,
			Err:       domain.ErrEmptyArchive,
		}
	}

	// Cheap estimate before paying for serialization.
	if archive.ItemCount() > domain.MaxArchiveItems {
		return nil, domain.NewClassifiedError(domain.ErrorKindQuotaExceeded,
			fmt.Errorf("archive has %d items, limit is %d", archive.ItemCount(), domain.MaxArchiveItems))
	}

	plain, err := json.Marshal(archive)
	if err != nil {
		return nil, fmt.Errorf("failed to encode archive: %w", err)
	}

	if len(plain) > domain.MaxArchiveBytes {
		return nil, domain.NewClassifiedError(domain.ErrorKindQuotaExceeded,
			fmt.Errorf("archive is %d bytes, ceiling is %d", len(plain), domain.MaxArchiveBytes))
	}

	sealed, err := s.cipher.Encrypt(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt archive: %w", err)
	}

	if err := s.transport.Save(ctx, blob, sealed); err != nil {
		return nil, domain.Classify(err)
	}

	result := &domain.BackupResult{
		UserID:       userID,
		Name:         name,
		Bytes:        len(sealed),
		Vaults:       len(archive.Vaults),
		Transactions: len(archive.Transactions),
		CompletedAt:  time.Now(),
		Duration:     time.Since(started).Seconds(),
	}

	s.logger.Info("backup uploaded",
		"user_id", userID,
		"name", blob,
		"bytes", result.Bytes,
		"vaults", result.Vaults,
		"transactions", result.Transactions,
	)

	return result, nil
}

// Restore downloads, decrypts and re-imports an archive, replacing the
// user's current data.
func (s *backupService) Restore(ctx context.Context, userID, name string) error {
	blob, err := s.blobName(userID, name)
	if err != nil {
		return err
	}

	sealed, err := s.transport.Load(ctx, blob)
	if err != nil {
		return domain.Classify(err)
	}

	plain, err := s.cipher.Decrypt(sealed)
	if err != nil {
		return fmt.Errorf("failed to decrypt archive: %w", err)
	}

	var archive domain.BackupArchive
	if err := json.Unmarshal(plain, &archive); err != nil {
		return fmt.Errorf("failed to decode archive: %w", err)
	}

	if err := archive.Validate(); err != nil {
		return err
	}
	if archive.UserID != userID {
		return fmt.Errorf("%w: archive belongs to a different user", domain.ErrForbidden)
	}

	if err := s.vaults.ReplaceAll(ctx, userID, archive.Vaults); err != nil {
		return fmt.Errorf("failed to restore vaults: %w", err)
	}
	if err := s.txns.ReplaceAll(ctx, userID, archive.Transactions); err != nil {
		return fmt.Errorf("failed to restore transactions: %w", err)
	}
	if archive.Settings != nil {
		if err := s.settings.Save(ctx, archive.Settings); err != nil {
			return fmt.Errorf("failed to restore settings: %w", err)
		}
	}

	s.logger.Info("backup restored",
		"user_id", userID,
		"name", blob,
		"vaults", len(archive.Vaults),
		"transactions", len(archive.Transactions),
	)

	return nil
}

// BackupExists checks whether an archive with the given name exists.
func (s *backupService) BackupExists(ctx context.Context, userID, name string) (bool, error) {
	blob, err := s.blobName(userID, name)
	if err != nil {
		return false, err
	}

	exists, err := s.transport.Exists(ctx, blob)
	if err != nil {
		return false, domain.Classify(err)
	}
	return exists, nil
}

// ListArchives enumerates the user's stored archives, newest first.
func (s *backupService) ListArchives(ctx context.Context, userID string) ([]*domain.ArchiveInfo, error) {
	archives, err := s.transport.List(ctx, userID+"_")
	if err != nil {
		return nil, domain.Classify(err)
	}
	return archives, nil
}

// PruneArchives deletes all but the newest keep archives.
func (s *backupService) PruneArchives(ctx context.Context, userID string, keep int) (int, error) {
	if keep < 1 {
		return 0, domain.ErrInvalidInput
	}

	archives, err := s.transport.List(ctx, userID+"_")
	if err != nil {
		return 0, domain.Classify(err)
	}

	deleted := 0
	for _, archive := range archives[min(keep, len(archives)):] {
		if err := s.transport.Delete(ctx, archive.Name); err != nil {
			return deleted, domain.Classify(err)
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.Info("pruned old archives", "user_id", userID, "deleted", deleted, "kept", keep)
	}
	return deleted, nil
}

// exportArchive snapshots the user's full application state.
func (s *backupService) exportArchive(ctx context.Context, userID string) (*domain.BackupArchive, error) {
	vaults, err := s.vaults.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to export vaults: %w", err)
	}

	txns, err := s.txns.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to export transactions: %w", err)
	}

	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to export settings: %w", err)
	}

	return &domain.BackupArchive{
		Version:      domain.ArchiveFormatVersion,
		UserID:       userID,
		CreatedAt:    time.Now(),
		Vaults:       vaults,
		Transactions: txns,
		Settings:     settings,
	}, nil
}

// blobName builds and validates the transport blob name for an archive.
func (s *backupService) blobName(userID, name string) (string, error) {
	if err := domain.ValidateBackupName(name); err != nil {
		return "", err
	}
	blob := userID + "_" + name
	if err := domain.ValidateBackupName(blob); err != nil {
		return "", err
	}
	return blob, nil
}
