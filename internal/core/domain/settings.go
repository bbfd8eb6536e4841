package domain

import "time"

// SyncTuning holds the per-user timing knobs for the sync coordinator.
// Zero values fall back to the defaults below.
type SyncTuning struct {
	// DebounceDelay is the quiet period after the last change
	// notification before a sync executes.
	DebounceDelay time.Duration `json:"debounce_delay"`

	// MaxSyncInterval is the staleness safety net: a sync is forced no
	// later than this long after the first pending change, and a change
	// arriving when the last sync is older than this executes at once.
	MaxSyncInterval time.Duration `json:"max_sync_interval"`

	// MaxAttempts is the per-sync transport attempt budget.
	MaxAttempts int `json:"max_attempts"`

	// RetryBaseDelay is the first retry backoff interval. Subsequent
	// retries double it, with jitter.
	RetryBaseDelay time.Duration `json:"retry_base_delay"`

	// SuccessDecay / ErrorDecay are how long the transient display
	// statuses persist before decaying back to idle.
	SuccessDecay time.Duration `json:"success_decay"`
	ErrorDecay   time.Duration `json:"error_decay"`
}

// DefaultSyncTuning returns the production timing profile.
func DefaultSyncTuning() SyncTuning {
	return SyncTuning{
		DebounceDelay:   2 * time.Second,
		MaxSyncInterval: 5 * time.Minute,
		MaxAttempts:     3,
		RetryBaseDelay:  time.Second,
		SuccessDecay:    2 * time.Second,
		ErrorDecay:      5 * time.Second,
	}
}

// WithDefaults fills zero fields from the default profile.
func (t SyncTuning) WithDefaults() SyncTuning {
	def := DefaultSyncTuning()
	if t.DebounceDelay <= 0 {
		t.DebounceDelay = def.DebounceDelay
	}
	if t.MaxSyncInterval <= 0 {
		t.MaxSyncInterval = def.MaxSyncInterval
	}
	if t.MaxAttempts <= 0 {
		t.MaxAttempts = def.MaxAttempts
	}
	if t.RetryBaseDelay <= 0 {
		t.RetryBaseDelay = def.RetryBaseDelay
	}
	if t.SuccessDecay <= 0 {
		t.SuccessDecay = def.SuccessDecay
	}
	if t.ErrorDecay <= 0 {
		t.ErrorDecay = def.ErrorDecay
	}
	return t
}

// Settings are the per-user application preferences included in backups.
type Settings struct {
	UserID          string    `json:"user_id"`
	DefaultCurrency string    `json:"default_currency"`
	Theme           string    `json:"theme,omitempty"`
	CloudSyncOn     bool      `json:"cloud_sync_on"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultSettings returns the settings a fresh user starts with.
func DefaultSettings(userID string) *Settings {
	return &Settings{
		UserID:          userID,
		DefaultCurrency: "USD",
		Theme:           "system",
		CloudSyncOn:     true,
		UpdatedAt:       time.Now(),
	}
}
