package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driven/mocks"
)

// mockTaskQueue implements driven.TaskQueue for testing
type mockTaskQueue struct {
	mu           sync.Mutex
	tasks        []*domain.Task
	acked        []string
	nacked       []string
	dequeueDelay time.Duration
	pingFn       func() error
}

func newMockTaskQueue() *mockTaskQueue {
	return &mockTaskQueue{
		tasks: make([]*domain.Task, 0),
	}
}

func (m *mockTaskQueue) Enqueue(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *mockTaskQueue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	if m.dequeueDelay > 0 {
		select {
		case <-time.After(m.dequeueDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tasks) == 0 {
		return nil, nil
	}
	task := m.tasks[0]
	m.tasks = m.tasks[1:]
	return task, nil
}

func (m *mockTaskQueue) Ack(ctx context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, taskID)
	return nil
}

func (m *mockTaskQueue) Nack(ctx context.Context, taskID string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nacked = append(m.nacked, taskID)
	return nil
}

func (m *mockTaskQueue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID == taskID {
			return t, nil
		}
	}
	return nil, nil
}

func (m *mockTaskQueue) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn()
	}
	return nil
}

func (m *mockTaskQueue) Close() error {
	return nil
}

func (m *mockTaskQueue) ackedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.acked)
}

func (m *mockTaskQueue) nackedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nacked)
}

// stubBackupService records backup operations invoked by the worker
type stubBackupService struct {
	mu           sync.Mutex
	restoreCalls []string // archive names
	pruneCalls   []int    // keep values
	archives     []*domain.ArchiveInfo
	restoreErr   error
	pruneDeleted int
}

func (s *stubBackupService) BackupNow(ctx context.Context, userID, name string) (*domain.BackupResult, error) {
	return &domain.BackupResult{}, nil
}

func (s *stubBackupService) Restore(ctx context.Context, userID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restoreCalls = append(s.restoreCalls, name)
	return s.restoreErr
}

func (s *stubBackupService) BackupExists(ctx context.Context, userID, name string) (bool, error) {
	return false, nil
}

func (s *stubBackupService) ListArchives(ctx context.Context, userID string) ([]*domain.ArchiveInfo, error) {
	return s.archives, nil
}

func (s *stubBackupService) PruneArchives(ctx context.Context, userID string, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneCalls = append(s.pruneCalls, keep)
	return s.pruneDeleted, nil
}

func (s *stubBackupService) restored() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.restoreCalls...)
}

func (s *stubBackupService) pruned() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.pruneCalls...)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestNewWorker(t *testing.T) {
	queue := newMockTaskQueue()

	w := NewWorker(WorkerConfig{
		TaskQueue:      queue,
		Backups:        &stubBackupService{},
		Concurrency:    2,
		DequeueTimeout: 5,
	})

	if w == nil {
		t.Fatal("expected non-nil worker")
	}
	if w.concurrency != 2 {
		t.Errorf("expected concurrency 2, got %d", w.concurrency)
	}
	if w.dequeueTimeout != 5 {
		t.Errorf("expected dequeue timeout 5, got %d", w.dequeueTimeout)
	}
}

func TestNewWorker_Defaults(t *testing.T) {
	queue := newMockTaskQueue()

	w := NewWorker(WorkerConfig{
		TaskQueue:      queue,
		Backups:        &stubBackupService{},
		Concurrency:    0, // Should default to 1
		DequeueTimeout: 0, // Should default to 5
	})

	if w.concurrency != 1 {
		t.Errorf("expected default concurrency 1, got %d", w.concurrency)
	}
	if w.dequeueTimeout != 5 {
		t.Errorf("expected default dequeue timeout 5, got %d", w.dequeueTimeout)
	}
	if w.logger == nil {
		t.Error("expected default logger")
	}
}

func TestWorker_StartStop(t *testing.T) {
	queue := newMockTaskQueue()
	// Add delay so workers don't spin too fast
	queue.dequeueDelay = 100 * time.Millisecond

	w := NewWorker(WorkerConfig{
		TaskQueue:      queue,
		Backups:        &stubBackupService{},
		Concurrency:    1,
		DequeueTimeout: 1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}

	health := w.Health(ctx)
	if !health.Running {
		t.Error("expected worker to be running")
	}

	// Start again should be no-op
	if err := w.Start(ctx); err != nil {
		t.Errorf("second start should not error: %v", err)
	}

	w.Stop()

	health = w.Health(ctx)
	if health.Running {
		t.Error("expected worker to be stopped")
	}

	// Stop again should be no-op
	w.Stop()
}

func TestWorker_ProcessRestoreTask(t *testing.T) {
	queue := newMockTaskQueue()
	backups := &stubBackupService{}

	task := domain.NewRestoreTask("user-1")
	task.Payload = map[string]string{"name": "backup-001"}
	_ = queue.Enqueue(context.Background(), task)

	w := NewWorker(WorkerConfig{
		TaskQueue: queue,
		Backups:   backups,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = w.Start(ctx)
	defer w.Stop()

	waitFor(t, 2*time.Second, func() bool { return queue.ackedCount() == 1 }, "task was never acked")

	restored := backups.restored()
	if len(restored) != 1 || restored[0] != "backup-001" {
		t.Errorf("expected restore of backup-001, got %v", restored)
	}
}

func TestWorker_RestoreUsesNewestArchive(t *testing.T) {
	queue := newMockTaskQueue()
	backups := &stubBackupService{
		archives: []*domain.ArchiveInfo{
			{Name: "user-1_backup-new", ModifiedAt: time.Now()},
			{Name: "user-1_backup-old", ModifiedAt: time.Now().Add(-time.Hour)},
		},
	}

	_ = queue.Enqueue(context.Background(), domain.NewRestoreTask("user-1"))

	w := NewWorker(WorkerConfig{
		TaskQueue: queue,
		Backups:   backups,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = w.Start(ctx)
	defer w.Stop()

	waitFor(t, 2*time.Second, func() bool { return queue.ackedCount() == 1 }, "task was never acked")

	restored := backups.restored()
	if len(restored) != 1 || restored[0] != "backup-new" {
		t.Errorf("expected restore of backup-new, got %v", restored)
	}
}

func TestWorker_RestoreWithoutArchiveNacked(t *testing.T) {
	queue := newMockTaskQueue()
	backups := &stubBackupService{} // no archives

	_ = queue.Enqueue(context.Background(), domain.NewRestoreTask("user-1"))

	w := NewWorker(WorkerConfig{
		TaskQueue: queue,
		Backups:   backups,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = w.Start(ctx)
	defer w.Stop()

	waitFor(t, 2*time.Second, func() bool { return queue.nackedCount() == 1 }, "task was never nacked")

	if len(backups.restored()) != 0 {
		t.Error("expected no restore calls")
	}
}

func TestWorker_ProcessPruneTask(t *testing.T) {
	queue := newMockTaskQueue()
	backups := &stubBackupService{pruneDeleted: 3}

	_ = queue.Enqueue(context.Background(), domain.NewPruneBackupsTask("user-1", 2))

	w := NewWorker(WorkerConfig{
		TaskQueue: queue,
		Backups:   backups,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = w.Start(ctx)
	defer w.Stop()

	waitFor(t, 2*time.Second, func() bool { return queue.ackedCount() == 1 }, "task was never acked")

	pruned := backups.pruned()
	if len(pruned) != 1 || pruned[0] != 2 {
		t.Errorf("expected prune with keep=2, got %v", pruned)
	}
}

func TestWorker_PruneDefaultsRetention(t *testing.T) {
	queue := newMockTaskQueue()
	backups := &stubBackupService{}

	// Zero keep falls back to the default retention
	_ = queue.Enqueue(context.Background(), domain.NewPruneBackupsTask("user-1", 0))

	w := NewWorker(WorkerConfig{
		TaskQueue: queue,
		Backups:   backups,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = w.Start(ctx)
	defer w.Stop()

	waitFor(t, 2*time.Second, func() bool { return queue.ackedCount() == 1 }, "task was never acked")

	pruned := backups.pruned()
	if len(pruned) != 1 || pruned[0] != defaultPruneKeep {
		t.Errorf("expected prune with keep=%d, got %v", defaultPruneKeep, pruned)
	}
}

func TestWorker_PruneSkippedWhenLockHeld(t *testing.T) {
	queue := newMockTaskQueue()
	backups := &stubBackupService{}
	lock := mocks.NewMockDistributedLock()
	lock.SetLockHeld("prune:user-1", time.Minute)

	_ = queue.Enqueue(context.Background(), domain.NewPruneBackupsTask("user-1", 3))

	w := NewWorker(WorkerConfig{
		TaskQueue: queue,
		Backups:   backups,
		Lock:      lock,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = w.Start(ctx)
	defer w.Stop()

	// Completes as a no-op when another instance holds the lock
	waitFor(t, 2*time.Second, func() bool { return queue.ackedCount() == 1 }, "task was never acked")

	if len(backups.pruned()) != 0 {
		t.Error("expected no prune calls while lock held elsewhere")
	}
}

func TestWorker_UnknownTaskTypeNacked(t *testing.T) {
	queue := newMockTaskQueue()
	backups := &stubBackupService{}

	task := domain.NewTask("bogus", "user-1", nil)
	_ = queue.Enqueue(context.Background(), task)

	w := NewWorker(WorkerConfig{
		TaskQueue: queue,
		Backups:   backups,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = w.Start(ctx)
	defer w.Stop()

	waitFor(t, 2*time.Second, func() bool { return queue.nackedCount() == 1 }, "task was never nacked")
}

func TestWorker_Health(t *testing.T) {
	queue := newMockTaskQueue()

	w := NewWorker(WorkerConfig{
		TaskQueue: queue,
		Backups:   &stubBackupService{},
	})

	health := w.Health(context.Background())
	if health.Running {
		t.Error("expected worker not running before Start")
	}
	if !health.QueueHealth {
		t.Error("expected healthy queue")
	}
}
