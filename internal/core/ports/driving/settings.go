package driving

import (
	"context"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
)

// SettingsService handles per-user settings
type SettingsService interface {
	// GetSettings retrieves a user's settings, falling back to defaults
	GetSettings(ctx context.Context, userID string) (*domain.Settings, error)

	// UpdateSettings saves a user's settings
	UpdateSettings(ctx context.Context, userID string, settings *domain.Settings) (*domain.Settings, error)
}
