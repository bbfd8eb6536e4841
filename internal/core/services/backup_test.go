package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driven/mocks"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driving"
)

// stubCipher is a trivially reversible BlobCipher for tests.
type stubCipher struct{}

func (stubCipher) Encrypt(plaintext []byte) ([]byte, error) {
	return append([]byte{0xAA}, plaintext...), nil
}

func (stubCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || ciphertext[0] != 0xAA {
		return nil, errors.New("malformed blob")
	}
	return ciphertext[1:], nil
}

type backupFixture struct {
	svc       driving.BackupService
	vaults    *mocks.MockVaultStore
	txns      *mocks.MockTransactionStore
	settings  *mocks.MockSettingsStore
	transport *mocks.MockBackupTransport
}

func newBackupFixture() *backupFixture {
	f := &backupFixture{
		vaults:    mocks.NewMockVaultStore(),
		txns:      mocks.NewMockTransactionStore(),
		settings:  mocks.NewMockSettingsStore(),
		transport: mocks.NewMockBackupTransport(),
	}
	f.svc = NewBackupService(f.vaults, f.txns, f.settings, f.transport, stubCipher{}, nil)
	return f
}

func (f *backupFixture) seed(t *testing.T, userID string, vaults, txnsPerVault int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < vaults; i++ {
		vault := domain.NewVault(userID, "Vault", "USD")
		require.NoError(t, f.vaults.Save(ctx, vault))
		for j := 0; j < txnsPerVault; j++ {
			txn := domain.NewTransaction(userID, vault.ID, -1250, "USD", time.Now())
			require.NoError(t, f.txns.Save(ctx, txn))
		}
	}
}

func TestBackupNow_Success(t *testing.T) {
	f := newBackupFixture()
	f.seed(t, "user-1", 2, 3)

	result, err := f.svc.BackupNow(context.Background(), "user-1", "backup")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Vaults)
	assert.Equal(t, 6, result.Transactions)
	assert.Positive(t, result.Bytes)

	stored := f.transport.Stored("user-1_backup")
	require.NotNil(t, stored, "expected blob in transport")
	assert.EqualValues(t, 0xAA, stored[0], "expected encrypted blob")
}

func TestBackupNow_RejectsInvalidNames(t *testing.T) {
	f := newBackupFixture()
	f.seed(t, "user-1", 1, 1)

	for _, name := range []string{"../etc", "", strings.Repeat("a", 256), "has space", "dot.json"} {
		_, err := f.svc.BackupNow(context.Background(), "user-1", name)
		require.Error(t, err, "name %q", name)

		var cerr *domain.ClassifiedError
		require.ErrorAs(t, err, &cerr, "name %q", name)
		assert.Equal(t, domain.ErrorKindInvalidFileName, cerr.Kind)
		assert.False(t, cerr.Retryable)
	}

	assert.Zero(t, f.transport.SaveCalls(), "guard failures must not reach the transport")
}

func TestBackupNow_RejectsEmptyPayload(t *testing.T) {
	f := newBackupFixture()

	_, err := f.svc.BackupNow(context.Background(), "user-1", "backup")
	require.ErrorIs(t, err, domain.ErrEmptyArchive)

	var cerr *domain.ClassifiedError
	require.ErrorAs(t, err, &cerr)
	assert.False(t, cerr.Retryable)
	assert.Zero(t, f.transport.SaveCalls())
}

func TestBackupNow_RejectsOversizedArchive(t *testing.T) {
	f := newBackupFixture()

	ctx := context.Background()
	vault := domain.NewVault("user-1", "Vault", "USD")
	require.NoError(t, f.vaults.Save(ctx, vault))

	txn := domain.NewTransaction("user-1", vault.ID, 100, "USD", time.Now())
	txn.Note = strings.Repeat("x", domain.MaxArchiveBytes+1)
	require.NoError(t, f.txns.Save(ctx, txn))

	_, err := f.svc.BackupNow(ctx, "user-1", "backup")
	require.Error(t, err)

	var cerr *domain.ClassifiedError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, domain.ErrorKindQuotaExceeded, cerr.Kind)
	assert.False(t, cerr.Retryable)
	assert.Zero(t, f.transport.SaveCalls(), "oversized archive must not reach the transport")
}

func TestBackupNow_TransportFailureClassified(t *testing.T) {
	f := newBackupFixture()
	f.seed(t, "user-1", 1, 1)
	f.transport.SaveFn = func(name string, data []byte) error {
		return errors.New("network connection lost")
	}

	_, err := f.svc.BackupNow(context.Background(), "user-1", "backup")
	require.Error(t, err)

	var cerr *domain.ClassifiedError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, domain.ErrorKindNetwork, cerr.Kind)
	assert.True(t, cerr.Retryable)
}

func TestRestore_RoundTrip(t *testing.T) {
	f := newBackupFixture()
	f.seed(t, "user-1", 2, 4)

	ctx := context.Background()
	settings := domain.DefaultSettings("user-1")
	settings.DefaultCurrency = "EUR"
	require.NoError(t, f.settings.Save(ctx, settings))

	_, err := f.svc.BackupNow(ctx, "user-1", "backup")
	require.NoError(t, err)

	// Wipe local state.
	f.vaults.Reset()
	f.txns.Reset()
	f.settings.Reset()

	require.NoError(t, f.svc.Restore(ctx, "user-1", "backup"))

	assert.Equal(t, 2, f.vaults.Count())
	assert.Equal(t, 8, f.txns.Count())

	restored, err := f.settings.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "EUR", restored.DefaultCurrency)
}

func TestRestore_MissingArchive(t *testing.T) {
	f := newBackupFixture()

	err := f.svc.Restore(context.Background(), "user-1", "backup")
	require.Error(t, err)

	var cerr *domain.ClassifiedError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, domain.ErrorKindFileNotFound, cerr.Kind)
	assert.False(t, cerr.Retryable)
}

func TestRestore_RejectsForeignArchive(t *testing.T) {
	f := newBackupFixture()
	f.seed(t, "user-2", 1, 1)

	ctx := context.Background()
	_, err := f.svc.BackupNow(ctx, "user-2", "backup")
	require.NoError(t, err)

	// user-1 tries to restore user-2's archive under their own name
	// space; the blob name will not match, so plant it directly.
	blob := f.transport.Stored("user-2_backup")
	require.NoError(t, f.transport.Save(ctx, "user-1_backup", blob))

	err = f.svc.Restore(ctx, "user-1", "backup")
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestBackupExists(t *testing.T) {
	f := newBackupFixture()
	f.seed(t, "user-1", 1, 1)

	ctx := context.Background()
	exists, err := f.svc.BackupExists(ctx, "user-1", "backup")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = f.svc.BackupNow(ctx, "user-1", "backup")
	require.NoError(t, err)

	exists, err = f.svc.BackupExists(ctx, "user-1", "backup")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPruneArchives(t *testing.T) {
	f := newBackupFixture()
	f.seed(t, "user-1", 1, 2)

	ctx := context.Background()
	for _, name := range []string{"backup-001", "backup-002", "backup-003"} {
		_, err := f.svc.BackupNow(ctx, "user-1", name)
		require.NoError(t, err)
	}

	deleted, err := f.svc.PruneArchives(ctx, "user-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	archives, err := f.svc.ListArchives(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, archives, 1)
	assert.Equal(t, "user-1_backup-003", archives[0].Name)

	_, err = f.svc.PruneArchives(ctx, "user-1", 0)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
