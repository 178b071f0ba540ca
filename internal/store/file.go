package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	ioutils "github.com/handiism/releasedash/internal/io"
	"github.com/handiism/releasedash/internal/model"
)

const lockRetryDelay = 50 * time.Millisecond

// FileStore keeps the snapshot in a local JSON file.
//
// Reads take a shared lock and writes an exclusive lock on a sibling
// ".lock" file, so a running watcher and a one-off CLI command can share
// the cache. Writes replace the file atomically.
type FileStore struct {
	path string
	lock *flock.Flock
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the snapshot file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the snapshot. A missing file yields an empty snapshot.
func (s *FileStore) Load(ctx context.Context) ([]*model.Release, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, nil
	}
	ok, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire read lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("acquire read lock: %s is busy", s.path)
	}
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return decode(data)
}

// Save writes the snapshot atomically.
func (s *FileStore) Save(ctx context.Context, releases []*model.Release) error {
	data, err := encode(releases)
	if err != nil {
		return err
	}
	if err := ioutils.EnsureDir(filepath.Dir(s.path)); err != nil {
		return err
	}

	ok, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire write lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("acquire write lock: %s is busy", s.path)
	}
	defer s.lock.Unlock()

	return ioutils.WriteFileAtomic(ctx, s.path, data)
}
