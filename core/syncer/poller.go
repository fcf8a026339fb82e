// Package syncer keeps named resource snapshots fresh via periodic, auth-gated
// fetches. It is content-agnostic: it only knows "fetch a collection, publish
// a collection"; derived views are computed by the resource packages.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/eaduck/client/core"
	"github.com/eaduck/client/core/sched"
)

// AuthState gates polling; the session manager implements it. The check runs
// synchronously at tick time, so a logout between ticks is observed on the
// next tick deterministically.
type AuthState interface {
	IsAuthenticated() bool
}

// Registry holds the collaborators shared by all feeds.
type Registry struct {
	sched  *sched.Scheduler
	auth   AuthState
	logger core.Logger
}

func NewRegistry(scheduler *sched.Scheduler, auth AuthState, logger core.Logger) *Registry {
	return &Registry{sched: scheduler, auth: auth, logger: logger}
}

// FetchFunc pulls the full remote collection.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Feed keeps one resource snapshot fresh. The snapshot always reflects the
// last successful fetch, replaced whole; a failed fetch leaves it untouched.
type Feed[T any] struct {
	key   string
	reg   *Registry
	fetch FetchFunc[T]

	mu       sync.Mutex
	snapshot []T
	subs     []func([]T)
	issued   uint64
	applied  uint64
	fetching bool
	stopped  bool
}

// StartFeed registers a feed under key, fetching every interval.
func StartFeed[T any](reg *Registry, key string, fetch FetchFunc[T], interval time.Duration) (*Feed[T], error) {
	f := &Feed[T]{key: key, reg: reg, fetch: fetch}
	if err := reg.sched.Register(key, interval, f.tick); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Feed[T]) tick(ctx context.Context) {
	if !f.reg.auth.IsAuthenticated() {
		return
	}
	f.pollOnce(ctx)
}

// pollOnce issues one fetch and applies its result under the sequence guard.
// At most one fetch per feed is outstanding; a tick landing while one is in
// flight is skipped, not queued.
func (f *Feed[T]) pollOnce(ctx context.Context) {
	f.mu.Lock()
	if f.stopped || f.fetching {
		f.mu.Unlock()
		return
	}
	f.fetching = true
	f.issued++
	seq := f.issued
	f.mu.Unlock()

	items, err := f.fetch(ctx)

	f.mu.Lock()
	f.fetching = false
	f.mu.Unlock()

	if err != nil {
		// the fixed interval is the retry policy
		f.reg.logger.Warn("syncer: fetch failed, keeping previous snapshot", f.key, err)
		return
	}
	f.apply(seq, items)
}

// apply publishes items unless a later-issued fetch already published, or the
// feed was stopped while the request was in flight.
func (f *Feed[T]) apply(seq uint64, items []T) {
	f.mu.Lock()
	if f.stopped || seq <= f.applied {
		f.mu.Unlock()
		return
	}
	f.applied = seq
	f.snapshot = items
	subs := append(f.subs[:0:0], f.subs...)
	f.mu.Unlock()

	for _, fn := range subs {
		fn(items)
	}
}

// Snapshot returns the last published collection; never mutated in place.
func (f *Feed[T]) Snapshot() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot
}

// Subscribe registers a snapshot observer; the current snapshot is emitted
// immediately.
func (f *Feed[T]) Subscribe(fn func([]T)) {
	f.mu.Lock()
	f.subs = append(f.subs, fn)
	cur := f.snapshot
	f.mu.Unlock()
	fn(cur)
}

// Refresh forces an immediate fetch outside the schedule; used after a
// mutating call (mutate-and-refetch) instead of patching the snapshot locally.
func (f *Feed[T]) Refresh(ctx context.Context) {
	if !f.reg.auth.IsAuthenticated() {
		return
	}
	f.pollOnce(ctx)
}

// Stop cancels future ticks; safe to call multiple times. An in-flight fetch
// is allowed to complete but its result is discarded.
func (f *Feed[T]) Stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
	f.reg.sched.Cancel(f.key)
}
