package domain

import (
	"fmt"
	"regexp"
	"time"
)

const (
	// ArchiveFormatVersion is bumped when the archive layout changes.
	ArchiveFormatVersion = 1

	// MaxArchiveBytes is the hard ceiling on a serialized archive (10 MiB).
	// The cloud transport rejects larger blobs anyway; checking here keeps
	// oversized payloads off the network entirely.
	MaxArchiveBytes = 10 << 20

	// MaxArchiveItems is the cheap pre-serialization estimate ceiling.
	// An archive with this many vaults+transactions would serialize far
	// beyond MaxArchiveBytes, so it short-circuits the expensive encode.
	MaxArchiveItems = 250_000

	// MaxBackupNameLength bounds the transport blob name.
	MaxBackupNameLength = 255
)

// backupNameRe matches valid transport blob names.
var backupNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,255}$`)

// ValidateBackupName checks a transport blob name against the allowed
// alphabet and length. Failures classify as invalidFileName.
func ValidateBackupName(name string) error {
	if backupNameRe.MatchString(name) {
		return nil
	}
	return NewClassifiedError(ErrorKindInvalidFileName,
		fmt.Errorf("invalid backup name %q: must match %s", name, backupNameRe.String()))
}

// BackupArchive is the full serialized application state for one user:
// every vault, every transaction, and the user's settings.
type BackupArchive struct {
	Version      int            `json:"version"`
	UserID       string         `json:"user_id"`
	CreatedAt    time.Time      `json:"created_at"`
	Vaults       []*Vault       `json:"vaults"`
	Transactions []*Transaction `json:"transactions"`
	Settings     *Settings      `json:"settings,omitempty"`
}

// ItemCount is the cheap size estimate used by the pre-flight guard.
func (a *BackupArchive) ItemCount() int {
	return len(a.Vaults) + len(a.Transactions)
}

// Validate checks an archive decoded from the transport before restore.
func (a *BackupArchive) Validate() error {
	if a.Version <= 0 || a.Version > ArchiveFormatVersion {
		return fmt.Errorf("%w: unsupported archive version %d", ErrInvalidInput, a.Version)
	}
	if a.UserID == "" {
		return fmt.Errorf("%w: archive has no user id", ErrInvalidInput)
	}
	return nil
}

// BackupResult is the outcome of one backup execution.
type BackupResult struct {
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Bytes        int       `json:"bytes"`
	Vaults       int       `json:"vaults"`
	Transactions int       `json:"transactions"`
	CompletedAt  time.Time `json:"completed_at"`
	Duration     float64   `json:"duration_seconds"`
}

// ArchiveInfo describes one stored archive, as reported by the transport.
type ArchiveInfo struct {
	Name       string    `json:"name"`
	Bytes      int64     `json:"bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}
