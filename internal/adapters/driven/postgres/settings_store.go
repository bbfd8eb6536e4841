package postgres

import (
	"context"
	"database/sql"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SettingsStore = (*SettingsStore)(nil)

// SettingsStore implements driven.SettingsStore using PostgreSQL
type SettingsStore struct {
	db *DB
}

// NewSettingsStore creates a new SettingsStore
func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get retrieves settings for a user, falling back to defaults when the
// user has never saved any
func (s *SettingsStore) Get(ctx context.Context, userID string) (*domain.Settings, error) {
	query := `
		SELECT user_id, default_currency, theme, cloud_sync_on, updated_at
		FROM settings
		WHERE user_id = $1
	`

	var settings domain.Settings
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&settings.UserID,
		&settings.DefaultCurrency,
		&settings.Theme,
		&settings.CloudSyncOn,
		&settings.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.DefaultSettings(userID), nil
	}
	if err != nil {
		return nil, err
	}

	return &settings, nil
}

// Save creates or updates settings for a user
func (s *SettingsStore) Save(ctx context.Context, settings *domain.Settings) error {
	query := `
		INSERT INTO settings (user_id, default_currency, theme, cloud_sync_on, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			default_currency = EXCLUDED.default_currency,
			theme = EXCLUDED.theme,
			cloud_sync_on = EXCLUDED.cloud_sync_on,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		settings.UserID,
		settings.DefaultCurrency,
		settings.Theme,
		settings.CloudSyncOn,
		settings.UpdatedAt,
	)
	return err
}
