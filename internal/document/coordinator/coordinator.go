package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/docserve/docserve/internal/document"
	"github.com/docserve/docserve/internal/document/cache"
	"github.com/docserve/docserve/internal/document/store"
	"github.com/docserve/docserve/pkg/logger"
	"github.com/docserve/docserve/pkg/metrics"
)

// Default operation bounds; overridable via Options.
const (
	DefaultTTL            = time.Hour
	DefaultCacheTimeout   = 200 * time.Millisecond
	DefaultStoreTimeout   = 2 * time.Second
	DefaultMaxContentSize = 100 << 10
)

// Options bounds the coordinator's two network calls per path and the
// cache staleness window.
type Options struct {
	// TTL bounds how long a cache entry may serve reads before the
	// backend expires it.
	TTL time.Duration
	// CacheTimeout bounds every cache call so a slow cache never
	// inflates read latency past a small ceiling.
	CacheTimeout time.Duration
	// StoreTimeout bounds every durable store call.
	StoreTimeout time.Duration
	// MaxContentSize rejects oversized payloads before they reach the
	// store.
	MaxContentSize int
}

// Coordinator orchestrates cache-aside reads and write-through-
// invalidation writes over the durable store and the cache. It is
// stateless and reentrant: operations on any mix of ids may run
// concurrently, ordering for same-id writes is last-write-wins at the
// store, and no lock is held across the two backend calls.
//
// The durable store is the sole authority. Cache failures of any kind
// are absorbed here and only ever reach operators through logs and
// metrics, never callers.
type Coordinator struct {
	store store.Store
	cache cache.Cache
	opts  Options
}

// New builds a Coordinator over the given backends. Zero option fields
// get the package defaults.
func New(s store.Store, c cache.Cache, opts Options) *Coordinator {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.CacheTimeout <= 0 {
		opts.CacheTimeout = DefaultCacheTimeout
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	if opts.MaxContentSize <= 0 {
		opts.MaxContentSize = DefaultMaxContentSize
	}
	return &Coordinator{store: s, cache: c, opts: opts}
}

// Store durably writes content under id, then refreshes the cache as a
// best-effort side effect. The caller's result tracks the durable put
// alone: a write that the store has acknowledged succeeds even when the
// cache is down, and a write the store rejected never touches the cache,
// so the cache can never run ahead of durable state.
func (co *Coordinator) Store(ctx context.Context, id string, content []byte) error {
	if err := co.validate(id, content); err != nil {
		return err
	}
	doc := &document.Document{ID: id, Content: content, StoredAt: time.Now().UTC()}

	sctx, cancel := context.WithTimeout(ctx, co.opts.StoreTimeout)
	defer cancel()
	if err := co.store.Put(sctx, doc); err != nil {
		metrics.StoreErrors.WithLabelValues("put").Inc()
		logger.Errorf("durable put failed for %q: %v", id, err)
		return err
	}
	metrics.DocumentWrites.Inc()

	cctx, cancel := context.WithTimeout(ctx, co.opts.CacheTimeout)
	defer cancel()
	if err := co.cache.Set(cctx, id, content, co.opts.TTL); err != nil {
		metrics.CacheErrors.WithLabelValues("set").Inc()
		logger.Warnf("degraded: cache set failed for %q after durable write: %v", id, err)
		// drop any older entry so the failed refresh cannot pin a stale
		// value for a full TTL; if this fails too, the next read heals it
		ictx, icancel := context.WithTimeout(ctx, co.opts.CacheTimeout)
		defer icancel()
		if ierr := co.cache.Invalidate(ictx, id); ierr != nil {
			metrics.CacheErrors.WithLabelValues("invalidate").Inc()
			logger.Warnf("degraded: cache invalidate failed for %q: %v", id, ierr)
		}
	}
	return nil
}

// Fetch reads content for id: cache first, durable store on a miss. A
// cache error is treated exactly like a miss. The read fails end-to-end
// only when the durable store itself fails, since no fallback authority
// exists. document.ErrNotFound propagates for never-written ids without
// populating the cache.
func (co *Coordinator) Fetch(ctx context.Context, id string) ([]byte, error) {
	if id == "" {
		return nil, document.Ef(document.KindInvalid, "fetch: empty document id")
	}

	cctx, cancel := context.WithTimeout(ctx, co.opts.CacheTimeout)
	defer cancel()
	if b, err := co.cache.Get(cctx, id); err == nil {
		metrics.DocumentReads.WithLabelValues("cache").Inc()
		return b, nil
	} else if errors.Is(err, cache.ErrMiss) {
		metrics.CacheMisses.Inc()
	} else {
		metrics.CacheErrors.WithLabelValues("get").Inc()
		logger.Warnf("degraded: cache get failed for %q, falling through to store: %v", id, err)
	}

	sctx, cancel := context.WithTimeout(ctx, co.opts.StoreTimeout)
	defer cancel()
	doc, err := co.store.Get(sctx, id)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return nil, err
		}
		metrics.StoreErrors.WithLabelValues("get").Inc()
		logger.Errorf("durable get failed for %q: %v", id, err)
		return nil, err
	}

	// repopulate so the next read takes the fast path
	pctx, pcancel := context.WithTimeout(ctx, co.opts.CacheTimeout)
	defer pcancel()
	if err := co.cache.Set(pctx, id, doc.Content, co.opts.TTL); err != nil {
		metrics.CacheErrors.WithLabelValues("set").Inc()
		logger.Warnf("degraded: cache repopulate failed for %q: %v", id, err)
	}
	metrics.DocumentReads.WithLabelValues("storage").Inc()
	return doc.Content, nil
}

func (co *Coordinator) validate(id string, content []byte) error {
	if id == "" {
		return document.Ef(document.KindInvalid, "store: empty document id")
	}
	if len(content) == 0 {
		return document.Ef(document.KindInvalid, "store: empty content for %q", id)
	}
	if len(content) > co.opts.MaxContentSize {
		return document.Ef(document.KindInvalid, "store: content for %q exceeds %d bytes", id, co.opts.MaxContentSize)
	}
	return nil
}
