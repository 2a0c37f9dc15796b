package casecache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"livingroom/internal/fileutil"
	"livingroom/internal/logging"
	"livingroom/internal/table"
)

const (
	fileExt        = ".tsv"
	lockExt        = ".lock"
	lockRetryDelay = 50 * time.Millisecond
)

// FileStore keeps one TSV file per entry under dir/namespace.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore creates a store rooted at dir. Directories are created lazily.
func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FileStore{dir: dir, logger: logger}
}

func (s *FileStore) path(namespace, key string) string {
	return filepath.Join(s.dir, namespace, key+fileExt)
}

// Get reads an entry.
func (s *FileStore) Get(_ context.Context, namespace, key string) (*table.Table, bool, error) {
	if err := validateKey(namespace, key); err != nil {
		return nil, false, err
	}
	t, err := table.ReadTSVFile(s.path(namespace, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cache entry %s/%s: %w", namespace, key, err)
	}
	return t, true, nil
}

// Put writes an entry under an exclusive per-key file lock. An existing entry
// is left untouched.
func (s *FileStore) Put(ctx context.Context, namespace, key string, t *table.Table) error {
	if err := validateKey(namespace, key); err != nil {
		return err
	}
	target := s.path(namespace, key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	lock := flock.New(target + lockExt)
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock cache entry %s/%s: %w", namespace, key, err)
	}
	if !locked {
		return fmt.Errorf("lock cache entry %s/%s: not acquired", namespace, key)
	}
	defer func() { _ = lock.Unlock() }()

	err = fileutil.WriteOnce(target, 0o644, func(w io.Writer) error {
		return t.WriteTSV(w)
	})
	if errors.Is(err, fileutil.ErrExists) {
		s.logger.Debug("cache entry already present",
			logging.String("namespace", namespace),
			logging.String(logging.FieldCaseID, key))
		return nil
	}
	if err != nil {
		return fmt.Errorf("write cache entry %s/%s: %w", namespace, key, err)
	}
	s.logger.Debug("cached table",
		logging.String("namespace", namespace),
		logging.String(logging.FieldCaseID, key),
		logging.Int("rows", t.Len()))
	return nil
}

// Keys lists cached entries of namespace.
func (s *FileStore) Keys(_ context.Context, namespace string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, namespace))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list cache namespace %s: %w", namespace, err)
	}
	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, fileExt))
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes an entry and its lock file.
func (s *FileStore) Delete(_ context.Context, namespace, key string) error {
	if err := validateKey(namespace, key); err != nil {
		return err
	}
	target := s.path(namespace, key)
	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, namespace, key)
		}
		return fmt.Errorf("delete cache entry: %w", err)
	}
	_ = os.Remove(target + lockExt)
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }
