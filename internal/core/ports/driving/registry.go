package driving

// SyncRegistry hands out the per-user sync coordinator. Coordinators
// are created lazily and live until CloseAll.
type SyncRegistry interface {
	// Coordinator returns the coordinator for a user, creating it on
	// first use.
	Coordinator(userID string) SyncCoordinator

	// CloseAll closes every live coordinator. Used at shutdown.
	CloseAll() error
}
