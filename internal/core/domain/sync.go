package domain

import "time"

// SyncStatus is the externally observable state of the sync coordinator.
// Exactly one status is active at any instant; success and error are
// transient display states that decay back to idle.
type SyncStatus string

const (
	SyncStatusIdle      SyncStatus = "idle"
	SyncStatusScheduled SyncStatus = "scheduled"
	SyncStatusSyncing   SyncStatus = "syncing"
	SyncStatusSuccess   SyncStatus = "success"
	SyncStatusError     SyncStatus = "error"
)

// SyncReason tags why a sync was requested. Reasons accumulate in a set
// between executions; duplicates collapse.
type SyncReason string

const (
	SyncReasonManual             SyncReason = "manual"
	SyncReasonVaultCreated       SyncReason = "vault_created"
	SyncReasonVaultDeleted       SyncReason = "vault_deleted"
	SyncReasonVaultUpdated       SyncReason = "vault_updated"
	SyncReasonTransactionAdded   SyncReason = "transaction_added"
	SyncReasonTransactionUpdated SyncReason = "transaction_updated"
	SyncReasonTransactionDeleted SyncReason = "transaction_deleted"
	SyncReasonBatchChanges       SyncReason = "batch_changes"
)

// PendingSyncRequest is the accumulated-but-not-yet-executed sync intent.
// It is created when the first reason arrives after an idle period and
// cleared the moment execution begins.
type PendingSyncRequest struct {
	Reasons   map[SyncReason]struct{} `json:"-"`
	Details   []string                `json:"details,omitempty"`
	CreatedAt time.Time               `json:"created_at"`

	// order remembers first-arrival order for logging.
	order []SyncReason
}

// NewPendingSyncRequest creates an empty pending request.
func NewPendingSyncRequest() *PendingSyncRequest {
	return &PendingSyncRequest{
		Reasons:   make(map[SyncReason]struct{}),
		CreatedAt: time.Now(),
	}
}

// Add records a reason and an optional free-text detail for diagnostics.
func (p *PendingSyncRequest) Add(reason SyncReason, detail string) {
	if _, ok := p.Reasons[reason]; !ok {
		p.order = append(p.order, reason)
	}
	p.Reasons[reason] = struct{}{}
	if detail != "" {
		p.Details = append(p.Details, detail)
	}
}

// Has reports whether the reason has been accumulated.
func (p *PendingSyncRequest) Has(reason SyncReason) bool {
	_, ok := p.Reasons[reason]
	return ok
}

// ReasonList returns the accumulated reasons in accumulation order.
func (p *PendingSyncRequest) ReasonList() []SyncReason {
	return append([]SyncReason(nil), p.order...)
}

// IsEmpty reports whether any reason has accumulated.
func (p *PendingSyncRequest) IsEmpty() bool {
	return p == nil || len(p.Reasons) == 0
}

// SyncAttempt is one execution of the backup transport call within a
// triggered sync. Attempt indexes are 0-based and owned by the
// coordinator for the lifetime of that sync.
type SyncAttempt struct {
	Index     int        `json:"index"`
	StartedAt time.Time  `json:"started_at"`
	Err       string     `json:"error,omitempty"`
	ErrorKind *ErrorKind `json:"error_kind,omitempty"`
}

// LastSyncRecord is the timestamp of the most recent completed sync
// execution for a user. It only moves forward in time.
type LastSyncRecord struct {
	UserID     string    `json:"user_id"`
	LastSyncAt time.Time `json:"last_sync_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SyncSnapshot is a point-in-time view of the coordinator for API callers.
type SyncSnapshot struct {
	Status        SyncStatus   `json:"status"`
	Syncing       bool         `json:"syncing"`
	Scheduled     bool         `json:"scheduled"`
	PendingReason []SyncReason `json:"pending_reasons,omitempty"`
	LastSyncAt    *time.Time   `json:"last_sync_at,omitempty"`
	LastError     string       `json:"last_error,omitempty"`
}
