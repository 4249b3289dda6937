// Package health composes the reachability of the service's two backends
// into a single report for the liveness/readiness probes.
package health

import (
	"context"
	"time"
)

// Status is the probe result for a single dependency.
type Status string

const (
	StatusOK   Status = "ok"
	StatusDown Status = "down"
)

// Overall is the composed service state.
type Overall string

const (
	// OverallHealthy: both backends reachable.
	OverallHealthy Overall = "healthy"
	// OverallDegraded: cache down, storage up. Reads and writes stay
	// correct (just slower), so the service still counts as available.
	OverallDegraded Overall = "degraded"
	// OverallUnhealthy: storage down. Durability is compromised and the
	// service cannot accept writes reliably.
	OverallUnhealthy Overall = "unhealthy"
)

// Report is recomputed on every Check call and never persisted.
type Report struct {
	Overall Overall `json:"status"`
	Storage Status  `json:"storage"`
	Cache   Status  `json:"cache"`
}

// Available reports whether the service should answer probes positively.
// Degraded still counts: losing the cache must not take the service out
// of rotation.
func (r Report) Available() bool {
	return r.Overall != OverallUnhealthy
}

// Pinger is the probe surface each dependency client exposes.
type Pinger interface {
	Ping(ctx context.Context) error
}

const defaultProbeTimeout = time.Second

// Aggregator probes the durable store and the cache independently, each
// under its own timeout, so a hang on one never blocks reporting the
// other.
type Aggregator struct {
	storage Pinger
	cache   Pinger
	timeout time.Duration
}

func NewAggregator(storage, cache Pinger, probeTimeout time.Duration) *Aggregator {
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	return &Aggregator{storage: storage, cache: cache, timeout: probeTimeout}
}

// Check runs both probes concurrently and composes the result. Storage
// down forces unhealthy; cache down alone only degrades, though its true
// state is still reported so operators can see it.
func (a *Aggregator) Check(ctx context.Context) Report {
	storageCh := make(chan Status, 1)
	cacheCh := make(chan Status, 1)
	go func() { storageCh <- a.probe(ctx, a.storage) }()
	go func() { cacheCh <- a.probe(ctx, a.cache) }()

	r := Report{Storage: <-storageCh, Cache: <-cacheCh}
	switch {
	case r.Storage == StatusDown:
		r.Overall = OverallUnhealthy
	case r.Cache == StatusDown:
		r.Overall = OverallDegraded
	default:
		r.Overall = OverallHealthy
	}
	return r
}

// probe bounds a single Ping. The select guards against pingers that
// ignore context cancellation: the result channel is buffered so a late
// reply is dropped, not leaked.
func (a *Aggregator) probe(ctx context.Context, p Pinger) Status {
	pctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Ping(pctx) }()
	select {
	case err := <-done:
		if err != nil {
			return StatusDown
		}
		return StatusOK
	case <-pctx.Done():
		return StatusDown
	}
}
