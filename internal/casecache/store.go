package casecache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"livingroom/internal/config"
	"livingroom/internal/logging"
	"livingroom/internal/table"
)

// Namespaces used by the pipeline.
const (
	NamespaceCases = "cases"
	NamespaceCV    = "cv"
)

// ErrNotFound is returned by Delete when the key has no entry.
var ErrNotFound = errors.New("cache entry not found")

// Store is a namespaced, write-once table cache.
type Store interface {
	// Get returns the cached table and true, or false when the key is absent.
	Get(ctx context.Context, namespace, key string) (*table.Table, bool, error)
	// Put stores t unless the key already has an entry.
	Put(ctx context.Context, namespace, key string, t *table.Table) error
	// Keys lists the cached keys of namespace in ascending order.
	Keys(ctx context.Context, namespace string) ([]string, error)
	// Delete removes one entry.
	Delete(ctx context.Context, namespace, key string) error
	Close() error
}

// Open returns the backend selected by configuration, or a no-op store when
// caching is disabled.
func Open(cfg *config.Config, logger *slog.Logger) (Store, error) {
	if !cfg.Cache.Enabled {
		return Nop{}, nil
	}
	logger = logging.NewComponentLogger(logger, "casecache")
	switch cfg.Cache.Backend {
	case config.CacheBackendSQLite:
		return OpenSQLite(cfg.Paths.CacheDir, logger)
	case config.CacheBackendFile, "":
		return NewFileStore(cfg.Paths.CacheDir, logger), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func validateKey(namespace, key string) error {
	for _, part := range []string{namespace, key} {
		if strings.TrimSpace(part) == "" {
			return errors.New("cache namespace and key must not be empty")
		}
		if strings.ContainsAny(part, `/\`) || part == "." || part == ".." {
			return fmt.Errorf("invalid cache name %q", part)
		}
	}
	return nil
}

// Nop is a Store that never holds anything.
type Nop struct{}

func (Nop) Get(context.Context, string, string) (*table.Table, bool, error) { return nil, false, nil }
func (Nop) Put(context.Context, string, string, *table.Table) error        { return nil }
func (Nop) Keys(context.Context, string) ([]string, error)                 { return nil, nil }
func (Nop) Delete(context.Context, string, string) error                   { return ErrNotFound }
func (Nop) Close() error                                                   { return nil }
