package driven

import (
	"context"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
)

// SettingsStore handles per-user settings persistence (PostgreSQL)
type SettingsStore interface {
	// Get retrieves settings for a user; returns defaults if none saved
	Get(ctx context.Context, userID string) (*domain.Settings, error)

	// Save creates or updates settings for a user
	Save(ctx context.Context, settings *domain.Settings) error
}
