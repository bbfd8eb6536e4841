package driven

import (
	"context"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
)

// SyncRecordStore persists last-sync timestamps so the max-interval
// safety net survives process restarts. Implementations must never move
// a record backwards in time.
type SyncRecordStore interface {
	// Get retrieves the last-sync record for a user.
	// Returns domain.ErrNotFound if the user has never synced.
	Get(ctx context.Context, userID string) (*domain.LastSyncRecord, error)

	// Save stores the last-sync record for a user, keeping whichever
	// timestamp is later if a newer record already exists.
	Save(ctx context.Context, record *domain.LastSyncRecord) error
}
