package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docserve/docserve/internal/document"
	"github.com/docserve/docserve/internal/document/cache"
	"github.com/docserve/docserve/internal/document/store"
)

// mapCache is an in-process cache.Cache used to observe coordinator
// behavior. TTLs are ignored; tests evict explicitly.
type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
	invals  int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (m *mapCache) Get(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.entries[id]
	if !ok {
		return nil, cache.ErrMiss
	}
	return b, nil
}

func (m *mapCache) Set(_ context.Context, id string, content []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = append([]byte(nil), content...)
	m.sets++
	return nil
}

func (m *mapCache) Invalidate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	m.invals++
	return nil
}

func (m *mapCache) Ping(context.Context) error { return nil }

func (m *mapCache) evict(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
}

func (m *mapCache) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// brokenCache fails every operation, simulating a cache outage.
type brokenCache struct{ invals int }

var errCacheDown = errors.New("connection refused")

func (b *brokenCache) Get(context.Context, string) ([]byte, error) { return nil, errCacheDown }
func (b *brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errCacheDown
}
func (b *brokenCache) Invalidate(context.Context, string) error {
	b.invals++
	return errCacheDown
}
func (b *brokenCache) Ping(context.Context) error { return errCacheDown }

// countingStore wraps a Store and counts Get calls.
type countingStore struct {
	store.Store
	gets int
}

func (c *countingStore) Get(ctx context.Context, id string) (*document.Document, error) {
	c.gets++
	return c.Store.Get(ctx, id)
}

// brokenStore fails every operation with the given error.
type brokenStore struct{ err error }

func (b *brokenStore) Put(context.Context, *document.Document) error { return b.err }
func (b *brokenStore) Get(context.Context, string) (*document.Document, error) {
	return nil, b.err
}
func (b *brokenStore) Ping(context.Context) error { return b.err }

func newTestCoordinator() (*Coordinator, *store.MemoryStore, *mapCache) {
	s := store.NewMemoryStore()
	c := newMapCache()
	return New(s, c, Options{}), s, c
}

func TestFetch_NeverWrittenReturnsNotFound(t *testing.T) {
	co, _, _ := newTestCoordinator()
	_, err := co.Fetch(context.Background(), "missing")
	require.ErrorIs(t, err, document.ErrNotFound)
}

func TestStoreThenFetch_ReturnsContent(t *testing.T) {
	co, _, _ := newTestCoordinator()
	ctx := context.Background()

	require.NoError(t, co.Store(ctx, "doc1", []byte("hello")))
	got, err := co.Fetch(ctx, "doc1")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)
}

func TestStore_Idempotent(t *testing.T) {
	co, _, _ := newTestCoordinator()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, co.Store(ctx, "doc1", []byte("same")))
	}
	got, err := co.Fetch(ctx, "doc1")
	require.NoError(t, err)
	require.Equal(t, []byte("same"), got)
}

func TestStore_OverwriteReplacesContent(t *testing.T) {
	co, _, _ := newTestCoordinator()
	ctx := context.Background()

	require.NoError(t, co.Store(ctx, "doc1", []byte("v1")))
	require.NoError(t, co.Store(ctx, "doc1", []byte("v2")))
	got, err := co.Fetch(ctx, "doc1")
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), got)
}

func TestFetch_CacheHitSkipsStore(t *testing.T) {
	s := &countingStore{Store: store.NewMemoryStore()}
	c := newMapCache()
	co := New(s, c, Options{})
	ctx := context.Background()

	require.NoError(t, co.Store(ctx, "doc1", []byte("hello")))
	_, err := co.Fetch(ctx, "doc1")
	require.NoError(t, err)
	require.Equal(t, 0, s.gets, "cache hit must not touch the durable store")
}

func TestFetch_EvictionFallsThroughAndRepopulates(t *testing.T) {
	co, _, c := newTestCoordinator()
	ctx := context.Background()

	require.NoError(t, co.Store(ctx, "doc1", []byte("hello")))
	got, err := co.Fetch(ctx, "doc1")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)

	c.evict("doc1")

	// served via durable fallback
	got, err = co.Fetch(ctx, "doc1")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)

	// and the cache was repopulated for the next read
	b, err := c.Get(ctx, "doc1")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), b)
}

func TestCacheOutage_OperationsStillSucceed(t *testing.T) {
	s := store.NewMemoryStore()
	co := New(s, &brokenCache{}, Options{})
	ctx := context.Background()

	require.NoError(t, co.Store(ctx, "doc1", []byte("hello")))
	got, err := co.Fetch(ctx, "doc1")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)

	_, err = co.Fetch(ctx, "missing")
	require.ErrorIs(t, err, document.ErrNotFound)
}

func TestStoreOutage_WriteFailsAndCacheUntouched(t *testing.T) {
	boom := document.E(document.KindTransient, "mongo put", errors.New("server selection timeout"))
	c := newMapCache()
	co := New(&brokenStore{err: boom}, c, Options{})
	ctx := context.Background()

	err := co.Store(ctx, "doc1", []byte("hello"))
	require.Error(t, err)
	require.Equal(t, document.KindTransient, document.KindOf(err))
	// the cache must never run ahead of durable state
	require.Equal(t, 0, c.len())
	require.Equal(t, 0, c.sets)
}

func TestStoreOutage_ReadFails(t *testing.T) {
	boom := document.E(document.KindTransient, "mongo get", errors.New("connection reset"))
	co := New(&brokenStore{err: boom}, newMapCache(), Options{})

	_, err := co.Fetch(context.Background(), "doc1")
	require.Error(t, err)
	require.NotErrorIs(t, err, document.ErrNotFound)
}

func TestStore_PermissionErrorPropagatesKind(t *testing.T) {
	boom := document.E(document.KindPermission, "mongo put", errors.New("not authorized"))
	co := New(&brokenStore{err: boom}, newMapCache(), Options{})

	err := co.Store(context.Background(), "doc1", []byte("hello"))
	require.Error(t, err)
	require.Equal(t, document.KindPermission, document.KindOf(err))
}

// failingSetCache accepts invalidations but fails every set, modelling a
// cache that is writable for deletes only (or flapping).
type failingSetCache struct {
	mapCache
}

func (f *failingSetCache) Set(context.Context, string, []byte, time.Duration) error {
	return errCacheDown
}

func TestStore_FailedCacheSetInvalidatesStaleEntry(t *testing.T) {
	s := store.NewMemoryStore()
	c := &failingSetCache{mapCache: mapCache{entries: map[string][]byte{"doc1": []byte("old")}}}
	co := New(s, c, Options{})
	ctx := context.Background()

	require.NoError(t, co.Store(ctx, "doc1", []byte("new")))
	// the stale "old" entry must not survive a successful write
	_, err := c.mapCache.Get(ctx, "doc1")
	require.ErrorIs(t, err, cache.ErrMiss)
}

func TestValidation(t *testing.T) {
	co, _, c := newTestCoordinator()
	ctx := context.Background()

	err := co.Store(ctx, "", []byte("x"))
	require.Equal(t, document.KindInvalid, document.KindOf(err))

	err = co.Store(ctx, "doc1", nil)
	require.Equal(t, document.KindInvalid, document.KindOf(err))

	big := make([]byte, DefaultMaxContentSize+1)
	err = co.Store(ctx, "doc1", big)
	require.Equal(t, document.KindInvalid, document.KindOf(err))

	_, err = co.Fetch(ctx, "")
	require.Equal(t, document.KindInvalid, document.KindOf(err))

	// no rejected write may reach the backends
	require.Equal(t, 0, c.sets)
}

// slowCache blocks until the per-call context expires.
type slowCache struct{}

func (slowCache) Get(ctx context.Context, _ string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (slowCache) Set(ctx context.Context, _ string, _ []byte, _ time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}
func (slowCache) Invalidate(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}
func (slowCache) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestFetch_SlowCacheBoundedByTimeout(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, &document.Document{ID: "doc1", Content: []byte("hello")}))

	co := New(s, slowCache{}, Options{CacheTimeout: 20 * time.Millisecond})

	start := time.Now()
	got, err := co.Fetch(ctx, "doc1")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)
	// two cache calls (get + repopulate) at 20ms each, plus the store read
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestConcurrentOperations(t *testing.T) {
	co, _, _ := newTestCoordinator()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%4))
			_ = co.Store(ctx, id, []byte("payload"))
			_, _ = co.Fetch(ctx, id)
		}(i)
	}
	wg.Wait()

	for _, id := range []string{"a", "b", "c", "d"} {
		got, err := co.Fetch(ctx, id)
		require.NoError(t, err)
		require.Equal(t, []byte("payload"), got)
	}
}
