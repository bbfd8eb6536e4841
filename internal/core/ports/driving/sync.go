package driving

import (
	"context"
	"time"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
)

// SyncCoordinator debounces change notifications into cloud backup
// executions and exposes the observable sync lifecycle.
type SyncCoordinator interface {
	// ScheduleSync records a change reason and arms (or re-arms) the
	// debounce window. If the last completed sync is older than the
	// max-interval safety net, the sync executes immediately instead.
	ScheduleSync(reason domain.SyncReason, detail string)

	// ForceSync bypasses debouncing and executes a sync now, waiting
	// for it to complete. If a sync is already in flight it returns
	// domain.ErrSyncInProgress without waiting.
	ForceSync(ctx context.Context) error

	// CancelPendingSync discards accumulated reasons and disarms all
	// timers. A sync already executing is not interrupted.
	CancelPendingSync()

	// Subscribe returns a channel of status transitions, starting with
	// the current status, plus a release func that detaches the
	// subscriber and closes the channel. The channel is also closed
	// when the coordinator closes. Slow consumers miss updates rather
	// than block the coordinator.
	Subscribe() (<-chan domain.SyncStatus, func())

	// CurrentStatus returns the current lifecycle status.
	CurrentStatus() domain.SyncStatus

	// IsSyncing reports whether a sync is executing right now.
	IsSyncing() bool

	// IsSyncScheduled reports whether a debounced sync is armed.
	IsSyncScheduled() bool

	// TimeSinceLastSync returns the elapsed time since the last
	// completed sync execution, or false if none has completed.
	TimeSinceLastSync() (time.Duration, bool)

	// Snapshot returns a point-in-time view for API callers.
	Snapshot() domain.SyncSnapshot

	// Close disarms timers, closes subscriber channels and rejects
	// further scheduling. Safe to call more than once.
	Close() error
}
