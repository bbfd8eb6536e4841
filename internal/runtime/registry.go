package runtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driven"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driving"
	"github.com/futureproof-labs/futureproof-core/internal/core/services"
)

// Verify interface compliance
var _ driving.SyncRegistry = (*Registry)(nil)

// defaultArchiveName is the canonical archive each user's debounced
// sync writes to. Manual backups may use other names; the coordinator
// always targets this one.
const defaultArchiveName = "backup"

// Registry hands out per-user sync coordinators, creating them lazily
// on first use. Each coordinator runs the backup pipeline for its user
// when its debounce window elapses.
// Thread-safe for concurrent access.
type Registry struct {
	mu           sync.Mutex
	coordinators map[string]driving.SyncCoordinator

	cfg RegistryConfig
}

// RegistryConfig holds the shared dependencies for all coordinators.
type RegistryConfig struct {
	Backups     driving.BackupService
	Records     driven.SyncRecordStore
	Lock        driven.DistributedLock // Optional: multi-instance single-flight
	Logger      *slog.Logger
	Tuning      domain.SyncTuning
	ArchiveName string // defaults to "backup"
}

// NewRegistry creates an empty coordinator registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ArchiveName == "" {
		cfg.ArchiveName = defaultArchiveName
	}

	return &Registry{
		coordinators: make(map[string]driving.SyncCoordinator),
		cfg:          cfg,
	}
}

// Coordinator returns the coordinator for a user, creating it on first
// use. After CloseAll it returns a fresh coordinator rather than a
// closed one; callers hold no long-lived references.
func (r *Registry) Coordinator(userID string) driving.SyncCoordinator {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.coordinators[userID]; ok {
		return c
	}

	c := services.NewSyncCoordinator(services.CoordinatorConfig{
		UserID:  userID,
		Run:     r.runnerFor(userID),
		Records: r.cfg.Records,
		Lock:    r.cfg.Lock,
		Logger:  r.cfg.Logger,
		Tuning:  r.cfg.Tuning,
	})
	r.coordinators[userID] = c
	return c
}

// runnerFor builds the sync execution closure for one user: a full
// export-encrypt-upload of the canonical archive.
func (r *Registry) runnerFor(userID string) services.SyncRunner {
	return func(ctx context.Context) error {
		_, err := r.cfg.Backups.BackupNow(ctx, userID, r.cfg.ArchiveName)
		return err
	}
}

// CloseAll closes every live coordinator. Used at shutdown.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	coordinators := r.coordinators
	r.coordinators = make(map[string]driving.SyncCoordinator)
	r.mu.Unlock()

	var errs []error
	for userID, c := range coordinators {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
			r.cfg.Logger.Warn("failed to close coordinator", "user_id", userID, "error", err)
		}
	}
	return errors.Join(errs...)
}
