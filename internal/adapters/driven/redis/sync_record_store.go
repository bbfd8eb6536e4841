package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

// Verify interface compliance
var _ driven.SyncRecordStore = (*SyncRecordStore)(nil)

const syncRecordPrefix = "sync:last:"

// SyncRecordStore implements driven.SyncRecordStore using Redis.
// Records are small and read on coordinator startup only, so a plain
// JSON value per user is enough. Keys carry no TTL: the safety net
// needs the timestamp to survive arbitrarily long restarts.
type SyncRecordStore struct {
	client *redis.Client
}

// NewSyncRecordStore creates a new Redis-backed SyncRecordStore
func NewSyncRecordStore(client *redis.Client) *SyncRecordStore {
	return &SyncRecordStore{client: client}
}

// Get retrieves the last-sync record for a user
func (s *SyncRecordStore) Get(ctx context.Context, userID string) (*domain.LastSyncRecord, error) {
	data, err := s.client.Get(ctx, syncRecordPrefix+userID).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync record: %w", err)
	}

	var record domain.LastSyncRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sync record: %w", err)
	}

	return &record, nil
}

// Save stores the last-sync record for a user, keeping whichever
// timestamp is later. The coordinator is the single writer per user, so
// a read-compare-write is sufficient here.
func (s *SyncRecordStore) Save(ctx context.Context, record *domain.LastSyncRecord) error {
	existing, err := s.Get(ctx, record.UserID)
	if err != nil && err != domain.ErrNotFound {
		return err
	}
	if existing != nil && existing.LastSyncAt.After(record.LastSyncAt) {
		return nil
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal sync record: %w", err)
	}

	if err := s.client.Set(ctx, syncRecordPrefix+record.UserID, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save sync record: %w", err)
	}
	return nil
}
