package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driven"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driving"
)

// Ensure settingsService implements SettingsService
var _ driving.SettingsService = (*settingsService)(nil)

// settingsService implements the SettingsService interface
type settingsService struct {
	settings driven.SettingsStore
	sync     driving.SyncRegistry
	logger   *slog.Logger
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(settings driven.SettingsStore, sync driving.SyncRegistry, logger *slog.Logger) driving.SettingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &settingsService{
		settings: settings,
		sync:     sync,
		logger:   logger,
	}
}

// GetSettings retrieves a user's settings, falling back to defaults
func (s *settingsService) GetSettings(ctx context.Context, userID string) (*domain.Settings, error) {
	return s.settings.Get(ctx, userID)
}

// UpdateSettings saves a user's settings
func (s *settingsService) UpdateSettings(ctx context.Context, userID string, settings *domain.Settings) (*domain.Settings, error) {
	if settings.DefaultCurrency == "" {
		return nil, domain.ErrInvalidInput
	}

	settings.UserID = userID
	settings.UpdatedAt = time.Now()

	if err := s.settings.Save(ctx, settings); err != nil {
		return nil, err
	}

	if s.sync != nil {
		if c := s.sync.Coordinator(userID); c != nil {
			c.ScheduleSync(domain.SyncReasonBatchChanges, "settings")
		}
	}
	return settings, nil
}
