package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driven"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driving"
)

// Ensure syncCoordinator implements SyncCoordinator
var _ driving.SyncCoordinator = (*syncCoordinator)(nil)

// SyncRunner performs one actual sync execution (assemble, encrypt,
// upload). The coordinator owns when it runs; the runner owns what a
// sync is. Errors are classified by the coordinator to decide retries.
type SyncRunner func(ctx context.Context) error

// subscriberBuffer is the per-subscriber channel capacity. A consumer
// that falls further behind than this misses transitions rather than
// blocking the coordinator.
const subscriberBuffer = 16

// syncCoordinator debounces change notifications into sync executions.
//
// All state transitions happen under mu. Timers never act directly:
// each timer carries the generation it was armed under, and every arm
// or stop bumps that timer's generation. A callback that was already
// dispatched when its timer was stopped or re-armed re-enters the lock,
// sees a newer generation and does nothing. Stopping a stdlib timer
// cannot un-fire a dispatched callback, so the generation check is what
// actually keeps a re-armed quiet window intact.
type syncCoordinator struct {
	userID  string
	run     SyncRunner
	records driven.SyncRecordStore
	lock    driven.DistributedLock
	logger  *slog.Logger
	tuning  domain.SyncTuning
	lockTTL time.Duration

	mu      sync.Mutex
	status  domain.SyncStatus
	pending *domain.PendingSyncRequest
	syncing bool
	closed  bool

	debounceGen   uint64
	debounceTimer *time.Timer
	safetyGen     uint64
	safetyTimer   *time.Timer
	decayGen      uint64
	decayTimer    *time.Timer

	lastSyncAt time.Time
	hasSynced  bool
	lastError  string

	nextSubID uint64
	subs      map[uint64]chan domain.SyncStatus
}

// CoordinatorConfig holds the dependencies for one user's coordinator.
type CoordinatorConfig struct {
	UserID  string
	Run     SyncRunner
	Records driven.SyncRecordStore
	Lock    driven.DistributedLock // Optional: multi-instance single-flight
	Logger  *slog.Logger
	Tuning  domain.SyncTuning
	LockTTL time.Duration // TTL for the distributed lock (default: 2m)
}

// NewSyncCoordinator creates a coordinator in the idle state. The last
// completed sync timestamp is recovered from the record store so the
// staleness safety net survives restarts.
func NewSyncCoordinator(cfg CoordinatorConfig) driving.SyncCoordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 2 * time.Minute
	}

	c := &syncCoordinator{
		userID:  cfg.UserID,
		run:     cfg.Run,
		records: cfg.Records,
		lock:    cfg.Lock,
		logger:  logger.With("user_id", cfg.UserID),
		tuning:  cfg.Tuning.WithDefaults(),
		lockTTL: lockTTL,
		status:  domain.SyncStatusIdle,
		subs:    make(map[uint64]chan domain.SyncStatus),
	}

	if cfg.Records != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if record, err := cfg.Records.Get(ctx, cfg.UserID); err == nil {
			c.lastSyncAt = record.LastSyncAt
			c.hasSynced = true
		}
	}

	return c
}

// ScheduleSync records a change reason and re-arms the debounce window.
func (c *syncCoordinator) ScheduleSync(reason domain.SyncReason, detail string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	if c.pending == nil {
		c.pending = domain.NewPendingSyncRequest()
	}
	c.pending.Add(reason, detail)

	// A sync is already executing; the accumulated reasons trigger a
	// follow-up when it completes.
	if c.syncing {
		return
	}

	// Stale data executes immediately instead of waiting out another
	// debounce window.
	if c.hasSynced && time.Since(c.lastSyncAt) >= c.tuning.MaxSyncInterval {
		c.logger.Info("sync overdue, executing immediately", "reason", reason)
		c.startSyncLocked(nil)
		return
	}

	c.logger.Debug("sync scheduled", "reason", reason, "debounce", c.tuning.DebounceDelay)
	c.setStatusLocked(domain.SyncStatusScheduled)
	c.armDebounceLocked(c.tuning.DebounceDelay)

	// The safety net is anchored to the first pending change and is not
	// pushed back by later ones.
	if c.safetyTimer == nil {
		c.armSafetyNetLocked(c.tuning.MaxSyncInterval)
	}
}

// ForceSync bypasses debouncing and runs a sync now, synchronously.
func (c *syncCoordinator) ForceSync(ctx context.Context) error {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()
		return domain.ErrCoordinatorClosed
	}
	if c.syncing {
		c.mu.Unlock()
		return domain.ErrSyncInProgress
	}

	if c.pending == nil {
		c.pending = domain.NewPendingSyncRequest()
	}
	c.pending.Add(domain.SyncReasonManual, "")

	done := make(chan error, 1)
	c.startSyncLocked(done)
	c.mu.Unlock()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CancelPendingSync discards accumulated reasons and disarms the
// debounce and safety-net timers. The decay timer is left alone: it
// returns a transient success/error display to rest and has nothing to
// do with pending work.
func (c *syncCoordinator) CancelPendingSync() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.pending = nil
	c.stopDebounceLocked()
	c.stopSafetyLocked()

	if c.status == domain.SyncStatusScheduled {
		c.setStatusLocked(domain.SyncStatusIdle)
	}
}

// Subscribe returns a channel of status transitions plus a release
// func. The current status is delivered first so consumers start from a
// known state. Releasing detaches the subscriber and closes its
// channel; coordinators live for the process, so callers that do not
// release leak their channel until shutdown.
func (c *syncCoordinator) Subscribe() (<-chan domain.SyncStatus, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan domain.SyncStatus, subscriberBuffer)
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	ch <- c.status
	id := c.nextSubID
	c.nextSubID++
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subs[id]; !ok {
			// Already released, or the coordinator closed the channel.
			return
		}
		delete(c.subs, id)
		close(ch)
	}
}

// CurrentStatus returns the current lifecycle status.
func (c *syncCoordinator) CurrentStatus() domain.SyncStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// IsSyncing reports whether a sync is executing right now.
func (c *syncCoordinator) IsSyncing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncing
}

// IsSyncScheduled reports whether a debounced sync is armed.
func (c *syncCoordinator) IsSyncScheduled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.debounceTimer != nil
}

// TimeSinceLastSync returns the elapsed time since the last completed
// sync execution, or false if none has completed.
func (c *syncCoordinator) TimeSinceLastSync() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasSynced {
		return 0, false
	}
	return time.Since(c.lastSyncAt), true
}

// Snapshot returns a point-in-time view for API callers.
func (c *syncCoordinator) Snapshot() domain.SyncSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := domain.SyncSnapshot{
		Status:    c.status,
		Syncing:   c.syncing,
		Scheduled: c.debounceTimer != nil,
		LastError: c.lastError,
	}
	if !c.pending.IsEmpty() {
		snap.PendingReason = c.pending.ReasonList()
	}
	if c.hasSynced {
		t := c.lastSyncAt
		snap.LastSyncAt = &t
	}
	return snap
}

// Close disarms timers, closes subscriber channels and rejects further
// scheduling. An in-flight sync finishes but publishes nothing.
func (c *syncCoordinator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	c.pending = nil
	c.stopTimersLocked()

	for _, ch := range c.subs {
		close(ch)
	}
	c.subs = nil

	return nil
}

// --- timer management (all called under mu) ---

// Arming and stopping both bump the timer's generation so a callback
// dispatched under the old arming invalidates itself.

func (c *syncCoordinator) armDebounceLocked(d time.Duration) {
	c.debounceGen++
	gen := c.debounceGen
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
	}
	c.debounceTimer = time.AfterFunc(d, func() {
		c.onDebounceFired(gen)
	})
}

func (c *syncCoordinator) armSafetyNetLocked(d time.Duration) {
	if d < 0 {
		d = 0
	}
	c.safetyGen++
	gen := c.safetyGen
	c.safetyTimer = time.AfterFunc(d, func() {
		c.onSafetyFired(gen)
	})
}

func (c *syncCoordinator) armDecayLocked(d time.Duration) {
	c.decayGen++
	gen := c.decayGen
	from := c.status
	if c.decayTimer != nil {
		c.decayTimer.Stop()
	}
	c.decayTimer = time.AfterFunc(d, func() {
		c.onDecayFired(gen, from)
	})
}

func (c *syncCoordinator) stopDebounceLocked() {
	c.debounceGen++
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
		c.debounceTimer = nil
	}
}

func (c *syncCoordinator) stopSafetyLocked() {
	c.safetyGen++
	if c.safetyTimer != nil {
		c.safetyTimer.Stop()
		c.safetyTimer = nil
	}
}

func (c *syncCoordinator) stopDecayLocked() {
	c.decayGen++
	if c.decayTimer != nil {
		c.decayTimer.Stop()
		c.decayTimer = nil
	}
}

func (c *syncCoordinator) stopTimersLocked() {
	c.stopDebounceLocked()
	c.stopSafetyLocked()
	c.stopDecayLocked()
}

// onDebounceFired handles debounce expiry.
func (c *syncCoordinator) onDebounceFired(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.debounceGen || c.syncing {
		return
	}
	if c.pending.IsEmpty() {
		return
	}

	c.logger.Debug("sync timer fired", "trigger", "debounce")
	c.startSyncLocked(nil)
}

// onSafetyFired handles max-interval expiry.
func (c *syncCoordinator) onSafetyFired(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.safetyGen || c.syncing {
		return
	}
	if c.pending.IsEmpty() {
		return
	}

	c.logger.Debug("sync timer fired", "trigger", "max_interval")
	c.startSyncLocked(nil)
}

// onDecayFired returns a transient display status to rest.
func (c *syncCoordinator) onDecayFired(gen uint64, from domain.SyncStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A newer transition already owns the status.
	if c.closed || gen != c.decayGen || c.status != from {
		return
	}

	if c.pending.IsEmpty() {
		c.setStatusLocked(domain.SyncStatusIdle)
	} else {
		c.setStatusLocked(domain.SyncStatusScheduled)
	}
}

// --- execution ---

// startSyncLocked consumes the pending request and launches execution.
// Caller holds mu. If done is non-nil the result is delivered on it.
func (c *syncCoordinator) startSyncLocked(done chan<- error) {
	pending := c.pending
	c.pending = nil
	c.syncing = true
	c.stopTimersLocked()
	c.setStatusLocked(domain.SyncStatusSyncing)

	reasons := pending.ReasonList()
	c.logger.Info("sync starting", "reasons", reasons)

	go func() {
		err := c.doSync(context.Background())
		c.finishSync(err)
		if done != nil {
			done <- err
		}
	}()
}

// doSync runs the sync with retry. Only errors classified retryable are
// retried; the attempt budget caps total tries, not just retries.
func (c *syncCoordinator) doSync(ctx context.Context) error {
	if c.lock != nil {
		name := "sync:" + c.userID
		acquired, err := c.lock.Acquire(ctx, name, c.lockTTL)
		if err != nil {
			c.logger.Warn("sync lock error", "error", err)
		} else if !acquired {
			c.logger.Info("sync lock held elsewhere, skipping")
			return nil
		} else {
			defer func() {
				if err := c.lock.Release(ctx, name); err != nil {
					c.logger.Warn("failed to release sync lock", "error", err)
				}
			}()
		}
	}

	attempt := 0
	operation := func() (struct{}, error) {
		attempt++
		err := c.run(ctx)
		if err == nil {
			return struct{}{}, nil
		}

		cerr := domain.Classify(err)
		if !cerr.Retryable {
			c.logger.Warn("sync failed, not retryable",
				"attempt", attempt,
				"kind", cerr.Kind,
				"error", err,
			)
			return struct{}{}, backoff.Permanent(cerr)
		}

		c.logger.Warn("sync attempt failed",
			"attempt", attempt,
			"kind", cerr.Kind,
			"error", err,
		)
		return struct{}{}, cerr
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.tuning.RetryBaseDelay
	expo.Multiplier = 2

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(c.tuning.MaxAttempts)),
	)
	return err
}

// finishSync records the outcome and schedules any queued follow-up.
func (c *syncCoordinator) finishSync(err error) {
	now := time.Now()

	// The timestamp advances on every completed execution, success or
	// not, so a persistently failing transport does not pin the
	// coordinator in the overdue fast path.
	if c.records != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		record := &domain.LastSyncRecord{UserID: c.userID, LastSyncAt: now, UpdatedAt: now}
		if saveErr := c.records.Save(ctx, record); saveErr != nil {
			c.logger.Warn("failed to persist last sync time", "error", saveErr)
		}
		cancel()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.syncing = false
	c.lastSyncAt = now
	c.hasSynced = true

	if c.closed {
		return
	}

	if err != nil {
		cerr := domain.Classify(err)
		c.lastError = cerr.Message
		c.logger.Error("sync failed", "kind", cerr.Kind, "error", err)
		c.setStatusLocked(domain.SyncStatusError)
		c.armDecayLocked(c.tuning.ErrorDecay)
	} else {
		c.lastError = ""
		c.logger.Info("sync completed")
		c.setStatusLocked(domain.SyncStatusSuccess)
		c.armDecayLocked(c.tuning.SuccessDecay)
	}

	// Changes that arrived mid-flight queue exactly one follow-up.
	if !c.pending.IsEmpty() {
		c.armDebounceLocked(c.tuning.DebounceDelay)
		remaining := c.tuning.MaxSyncInterval - time.Since(c.pending.CreatedAt)
		c.armSafetyNetLocked(remaining)
	}
}

// setStatusLocked publishes a transition to subscribers. Repeating the
// current status is a no-op, so subscribers only see real changes.
func (c *syncCoordinator) setStatusLocked(status domain.SyncStatus) {
	if c.status == status {
		return
	}
	c.status = status

	for _, ch := range c.subs {
		select {
		case ch <- status:
		default:
			// Slow consumer, drop the update.
		}
	}
}
