package postgres

import (
	"context"
	"database/sql"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SyncRecordStore = (*SyncRecordStore)(nil)

// SyncRecordStore implements driven.SyncRecordStore using PostgreSQL
type SyncRecordStore struct {
	db *DB
}

// NewSyncRecordStore creates a new SyncRecordStore
func NewSyncRecordStore(db *DB) *SyncRecordStore {
	return &SyncRecordStore{db: db}
}

// Get retrieves the last-sync record for a user
func (s *SyncRecordStore) Get(ctx context.Context, userID string) (*domain.LastSyncRecord, error) {
	query := `
		SELECT user_id, last_sync_at, updated_at
		FROM sync_records
		WHERE user_id = $1
	`

	var record domain.LastSyncRecord
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&record.UserID,
		&record.LastSyncAt,
		&record.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// Save stores the last-sync record for a user. The WHERE clause on the
// upsert keeps the record monotonic: a concurrent writer with a newer
// timestamp wins and an older one is dropped silently.
func (s *SyncRecordStore) Save(ctx context.Context, record *domain.LastSyncRecord) error {
	query := `
		INSERT INTO sync_records (user_id, last_sync_at, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			last_sync_at = EXCLUDED.last_sync_at,
			updated_at = EXCLUDED.updated_at
		WHERE sync_records.last_sync_at < EXCLUDED.last_sync_at
	`

	_, err := s.db.ExecContext(ctx, query,
		record.UserID,
		record.LastSyncAt,
		record.UpdatedAt,
	)
	return err
}
