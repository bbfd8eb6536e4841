package driving

import (
	"context"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
)

// BackupService assembles, encrypts and ships backup archives
type BackupService interface {
	// BackupNow exports the user's data, encrypts it and uploads it
	// under the given archive name
	BackupNow(ctx context.Context, userID, name string) (*domain.BackupResult, error)

	// Restore downloads, decrypts and re-imports an archive, replacing
	// the user's current data
	Restore(ctx context.Context, userID, name string) error

	// BackupExists checks whether an archive with the given name exists
	BackupExists(ctx context.Context, userID, name string) (bool, error)

	// ListArchives enumerates the user's stored archives, newest first
	ListArchives(ctx context.Context, userID string) ([]*domain.ArchiveInfo, error)

	// PruneArchives deletes all but the newest keep archives
	PruneArchives(ctx context.Context, userID string, keep int) (deleted int, err error)
}
