package casecache_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"livingroom/internal/casecache"
	"livingroom/internal/config"
	"livingroom/internal/logging"
	"livingroom/internal/table"
	"livingroom/internal/testsupport"
)

func sampleTable(value float64) *table.Table {
	t := table.New("chunk_id", "F0", "creak_binary")
	_ = t.AppendRow(table.Str("1000_INT008_003"), table.Float(value), table.Bool(true))
	_ = t.AppendRow(table.Str("1020_INT008_003"), table.Null(), table.Bool(false))
	return t
}

func openStores(t *testing.T) map[string]casecache.Store {
	t.Helper()
	stores := map[string]casecache.Store{}
	for _, backend := range []string{config.CacheBackendFile, config.CacheBackendSQLite} {
		cfg := testsupport.NewConfig(t, testsupport.WithCacheBackend(backend))
		store, err := casecache.Open(cfg, logging.NewNop())
		if err != nil {
			t.Fatalf("open %s store: %v", backend, err)
		}
		t.Cleanup(func() { _ = store.Close() })
		stores[backend] = store
	}
	return stores
}

func TestStoreRoundTripIsWriteOnce(t *testing.T) {
	ctx := context.Background()
	for backend, store := range openStores(t) {
		t.Run(backend, func(t *testing.T) {
			if _, ok, err := store.Get(ctx, casecache.NamespaceCases, "INT008_003"); err != nil || ok {
				t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
			}
			if err := store.Put(ctx, casecache.NamespaceCases, "INT008_003", sampleTable(120.5)); err != nil {
				t.Fatalf("Put returned error: %v", err)
			}
			if err := store.Put(ctx, casecache.NamespaceCases, "INT008_003", sampleTable(99)); err != nil {
				t.Fatalf("second Put returned error: %v", err)
			}

			got, ok, err := store.Get(ctx, casecache.NamespaceCases, "INT008_003")
			if err != nil || !ok {
				t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
			}
			if got.Len() != 2 {
				t.Fatalf("expected 2 rows, got %d", got.Len())
			}
			if f, _ := got.Get(0, "F0").Float(); f != 120.5 {
				t.Fatalf("first write should win, got F0=%v", f)
			}
			if !got.Get(1, "F0").IsNull() {
				t.Fatal("null cell should survive the cache")
			}
			if b, _ := got.Get(0, "creak_binary").Bool(); !b {
				t.Fatal("bool cell should survive the cache")
			}

			if _, ok, _ := store.Get(ctx, casecache.NamespaceCV, "INT008_003"); ok {
				t.Fatal("namespaces must be independent")
			}
		})
	}
}

func TestStoreKeysAndDelete(t *testing.T) {
	ctx := context.Background()
	for backend, store := range openStores(t) {
		t.Run(backend, func(t *testing.T) {
			for _, key := range []string{"INT009_001", "INT008_003"} {
				if err := store.Put(ctx, casecache.NamespaceCV, key, sampleTable(1)); err != nil {
					t.Fatalf("Put %s: %v", key, err)
				}
			}
			keys, err := store.Keys(ctx, casecache.NamespaceCV)
			if err != nil {
				t.Fatalf("Keys returned error: %v", err)
			}
			if len(keys) != 2 || keys[0] != "INT008_003" || keys[1] != "INT009_001" {
				t.Fatalf("unexpected keys %v", keys)
			}
			if err := store.Delete(ctx, casecache.NamespaceCV, "INT008_003"); err != nil {
				t.Fatalf("Delete returned error: %v", err)
			}
			if err := store.Delete(ctx, casecache.NamespaceCV, "INT008_003"); !errors.Is(err, casecache.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			keys, _ = store.Keys(ctx, casecache.NamespaceCV)
			if len(keys) != 1 {
				t.Fatalf("expected 1 key after delete, got %v", keys)
			}
		})
	}
}

func TestFileStoreConcurrentWritersDoNotCollide(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := casecache.NewFileStore(cfg.Paths.CacheDir, logging.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			errs <- store.Put(ctx, casecache.NamespaceCases, "INT008_003", sampleTable(v))
		}(float64(i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Put returned error: %v", err)
		}
	}
	got, ok, err := store.Get(ctx, casecache.NamespaceCases, "INT008_003")
	if err != nil || !ok || got.Len() != 2 {
		t.Fatalf("expected one intact entry, got ok=%v err=%v", ok, err)
	}
	keys, _ := store.Keys(ctx, casecache.NamespaceCases)
	if len(keys) != 1 {
		t.Fatalf("expected a single key, got %v", keys)
	}
}

func TestInvalidKeysAreRejected(t *testing.T) {
	store := casecache.NewFileStore(t.TempDir(), nil)
	for _, key := range []string{"", "../escape", "a/b"} {
		if err := store.Put(context.Background(), casecache.NamespaceCases, key, sampleTable(1)); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestDisabledCacheIsNop(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutCache())
	store, err := casecache.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := store.Put(context.Background(), casecache.NamespaceCases, "INT008_003", sampleTable(1)); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if _, ok, _ := store.Get(context.Background(), casecache.NamespaceCases, "INT008_003"); ok {
		t.Fatal("disabled cache must never hit")
	}
}
