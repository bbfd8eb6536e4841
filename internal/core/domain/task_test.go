package domain

import (
	"testing"
	"time"
)

func TestNewTask_Defaults(t *testing.T) {
	task := NewRestoreTask("user-1")

	if task.ID == "" {
		t.Error("expected generated task ID")
	}
	if task.Type != TaskTypeRestore {
		t.Errorf("expected restore type, got %s", task.Type)
	}
	if task.Status != TaskStatusPending {
		t.Errorf("expected pending status, got %s", task.Status)
	}
	if task.MaxAttempts != 3 {
		t.Errorf("expected max attempts 3, got %d", task.MaxAttempts)
	}
}

func TestTask_PrunePayload(t *testing.T) {
	task := NewPruneBackupsTask("user-1", 5)
	if task.Keep() != 5 {
		t.Errorf("expected keep 5, got %d", task.Keep())
	}

	empty := NewRestoreTask("user-1")
	if empty.Keep() != 0 {
		t.Errorf("expected keep 0 for restore task, got %d", empty.Keep())
	}
}

func TestTask_Lifecycle(t *testing.T) {
	task := NewRestoreTask("user-1")

	task.MarkProcessing()
	if task.Status != TaskStatusProcessing {
		t.Errorf("expected processing, got %s", task.Status)
	}
	if task.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", task.Attempts)
	}
	if task.StartedAt == nil {
		t.Error("expected started timestamp")
	}

	task.MarkCompleted()
	if task.Status != TaskStatusCompleted {
		t.Errorf("expected completed, got %s", task.Status)
	}
	if task.Error != "" {
		t.Errorf("expected cleared error, got %q", task.Error)
	}
}

func TestTask_RetryBackoff(t *testing.T) {
	task := NewRestoreTask("user-1")
	task.MarkProcessing()

	before := time.Now()
	task.Retry("transport unavailable")

	if task.Status != TaskStatusPending {
		t.Errorf("expected pending after retry, got %s", task.Status)
	}
	if task.Error != "transport unavailable" {
		t.Errorf("expected error recorded, got %q", task.Error)
	}
	// First retry backs off 2s (1 << 1 attempt).
	delay := task.ScheduledFor.Sub(before)
	if delay < time.Second || delay > 3*time.Second {
		t.Errorf("expected ~2s backoff, got %v", delay)
	}
}

func TestTask_CanRetry(t *testing.T) {
	task := NewRestoreTask("user-1")
	for i := 0; i < task.MaxAttempts; i++ {
		if !task.CanRetry() {
			t.Fatalf("expected retry allowed at attempt %d", task.Attempts)
		}
		task.MarkProcessing()
	}
	if task.CanRetry() {
		t.Error("expected retries exhausted")
	}
}
