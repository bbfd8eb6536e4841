package driven

import (
	"context"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
)

// BackupTransport is the opaque cloud blob capability backups flow
// through. Implementations return raw, unstructured errors; callers map
// them onto the taxonomy with domain.Classify. Blob names must match
// domain.ValidateBackupName before any call.
type BackupTransport interface {
	// Save stores a blob under the given name, replacing any previous
	// blob with that name.
	Save(ctx context.Context, name string, blob []byte) error

	// Load retrieves the blob stored under the given name.
	Load(ctx context.Context, name string) ([]byte, error)

	// Exists reports whether a blob is stored under the given name.
	Exists(ctx context.Context, name string) (bool, error)

	// Delete removes the blob stored under the given name.
	// Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List enumerates stored blobs whose names start with prefix,
	// newest first. Used by archive retention pruning.
	List(ctx context.Context, prefix string) ([]*domain.ArchiveInfo, error)
}
