package clouddrive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driven"
)

// Ensure FileTransport implements BackupTransport
var _ driven.BackupTransport = (*FileTransport)(nil)

// FileTransport is a BackupTransport backed by a local directory,
// typically a folder the platform's drive client (iCloud Drive, Dropbox)
// mirrors to the cloud. Blob names map directly to file names; the
// backup name guard has already constrained them to a safe alphabet.
type FileTransport struct {
	dir string
}

// NewFileTransport creates a transport rooted at dir, creating it if needed.
func NewFileTransport(dir string) (*FileTransport, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create transport dir: %w", err)
	}
	return &FileTransport{dir: dir}, nil
}

// Save writes a blob atomically: temp file then rename, so the drive
// client never mirrors a half-written archive.
func (t *FileTransport) Save(ctx context.Context, name string, blob []byte) error {
	tmp, err := os.CreateTemp(t.dir, name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, filepath.Join(t.dir, name))
}

// Load reads a blob. A missing file surfaces the OS "no such file"
// error, which classifies as file-not-found.
func (t *FileTransport) Load(ctx context.Context, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(t.dir, name))
}

// Exists reports whether a blob is stored under the given name.
func (t *FileTransport) Exists(ctx context.Context, name string) (bool, error) {
	_, err := os.Stat(filepath.Join(t.dir, name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Delete removes a blob. Deleting a missing blob is not an error.
func (t *FileTransport) Delete(ctx context.Context, name string) error {
	err := os.Remove(filepath.Join(t.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List enumerates stored blobs whose names start with prefix, newest first.
func (t *FileTransport) List(ctx context.Context, prefix string) ([]*domain.ArchiveInfo, error) {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return nil, err
	}

	var archives []*domain.ArchiveInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		archives = append(archives, &domain.ArchiveInfo{
			Name:       entry.Name(),
			Bytes:      info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}

	sort.Slice(archives, func(i, j int) bool {
		if archives[i].ModifiedAt.Equal(archives[j].ModifiedAt) {
			return archives[i].Name > archives[j].Name
		}
		return archives[i].ModifiedAt.After(archives[j].ModifiedAt)
	})
	return archives, nil
}
