// Package querycache caches the results of keyed fetch functions.
//
// A fresh entry is returned without calling the fetch function. A missing
// entry is loaded once per key no matter how many callers ask concurrently;
// they all receive the same result. A stale entry is returned immediately
// while a single background refresh replaces it. Entries are tagged with a
// group so that a whole family of queries can be invalidated at once.
package querycache

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultStaleTime    = 24 * time.Hour
	DefaultFetchTimeout = 30 * time.Second

	// NeverStale keeps an entry fresh until its group is invalidated.
	NeverStale time.Duration = -1
)

type Key struct {
	Group string
	Name  string
}

func (k Key) String() string {
	return k.Group + ":" + k.Name
}

// flightKey separates group and name with a byte neither can reasonably contain.
func (k Key) flightKey() string {
	return k.Group + "\x00" + k.Name
}

type Status int

const (
	StatusPending Status = iota
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Query describes one cacheable fetch. A zero StaleTime means DefaultStaleTime.
type Query[V any] struct {
	Key       Key
	StaleTime time.Duration
	Fn        func(ctx context.Context) (V, error)
}

// State is what presentation code needs to know about an entry.
type State struct {
	Status    Status
	FetchedAt time.Time
	Err       error
}

type entry struct {
	status      Status
	value       any
	hasValue    bool
	err         error
	fetchedAt   time.Time
	invalidated bool
}

type Options struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// FetchTimeout bounds each fetch function call.
	FetchTimeout time.Duration
}

// Cache is safe for concurrent use. Create one per process and share it.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry

	flights      singleflight.Group
	refreshes    sync.WaitGroup
	now          func() time.Time
	fetchTimeout time.Duration
}

func New(opts Options) *Cache {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	return &Cache{
		entries:      make(map[Key]*entry),
		now:          opts.Now,
		fetchTimeout: opts.FetchTimeout,
	}
}

// Fetch resolves q through c. Cancelling ctx stops the wait, never the
// fetch itself: other callers and the cache still receive its result.
func Fetch[V any](ctx context.Context, c *Cache, q Query[V]) (V, error) {
	staleTime := q.StaleTime
	if staleTime == 0 {
		staleTime = DefaultStaleTime
	}

	c.mu.Lock()
	e := c.entries[q.Key]
	if e != nil && e.hasValue {
		if v, ok := e.value.(V); ok {
			stale := c.isStale(e, staleTime)
			c.mu.Unlock()
			if stale {
				refresh(ctx, c, q)
			}
			return v, nil
		}
	}
	c.mu.Unlock()

	return load(ctx, c, q)
}

// Refetch loads q from its fetch function regardless of freshness and stores
// the result. A load already in flight for the key is joined, not repeated.
func Refetch[V any](ctx context.Context, c *Cache, q Query[V]) (V, error) {
	return load(ctx, c, q)
}

func load[V any](ctx context.Context, c *Cache, q Query[V]) (V, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.flights.DoChan(q.Key.flightKey(), func() (any, error) {
		return run(detached, c, q)
	})

	var zero V
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, ok := res.Val.(V)
		if !ok {
			return zero, fmt.Errorf("querycache: %s holds %T", q.Key, res.Val)
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func refresh[V any](ctx context.Context, c *Cache, q Query[V]) {
	detached := context.WithoutCancel(ctx)
	c.refreshes.Add(1)
	go func() {
		defer c.refreshes.Done()
		_, err, _ := c.flights.Do(q.Key.flightKey(), func() (any, error) {
			return run(detached, c, q)
		})
		if err != nil {
			log.Printf("[CACHE] Background refresh of %s failed: %v", q.Key, err)
		}
	}()
}

func run[V any](ctx context.Context, c *Cache, q Query[V]) (any, error) {
	c.mu.Lock()
	e := c.entries[q.Key]
	if e == nil {
		e = &entry{}
		c.entries[q.Key] = e
	}
	e.status = StatusPending
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	v, err := q.Fn(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	// The entry may have been removed by Clear while the call was in flight.
	e = c.entries[q.Key]
	if e == nil {
		e = &entry{}
		c.entries[q.Key] = e
	}
	if err != nil {
		e.status = StatusError
		e.err = err
		return nil, err
	}

	e.status = StatusSuccess
	e.value = v
	e.hasValue = true
	e.err = nil
	e.fetchedAt = c.now()
	e.invalidated = false
	return v, nil
}

func (c *Cache) isStale(e *entry, staleTime time.Duration) bool {
	if e.invalidated {
		return true
	}
	if staleTime == NeverStale {
		return false
	}
	return c.now().Sub(e.fetchedAt) >= staleTime
}

// Invalidate marks every entry of group stale and returns how many were marked.
// The next Fetch of each serves the old value and refreshes it.
func (c *Cache) Invalidate(group string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.entries {
		if k.Group == group {
			e.invalidated = true
			n++
		}
	}
	return n
}

// State reports the status of key, false if it was never fetched.
func (c *Cache) State(key Key) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return State{}, false
	}
	return State{Status: e.status, FetchedAt: e.fetchedAt, Err: e.err}, true
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry. In-flight fetches still complete and store their result.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]*entry)
}

// Wait blocks until background refreshes started so far have finished.
func (c *Cache) Wait() {
	c.refreshes.Wait()
}
