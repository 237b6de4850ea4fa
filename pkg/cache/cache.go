package cache

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"
)

// Kind names a family of resources.
type Kind string

// Key addresses one cacheable fetch.
type Key struct {
	Kind Kind
	ID   string
}

func (k Key) String() string {
	if k.ID == "" {
		return string(k.Kind)
	}
	return string(k.Kind) + ":" + k.ID
}

// Entry is a read-only snapshot of a cached resource. Value is set only when
// Status is StatusPresent, Err only when Status is StatusErrored.
type Entry struct {
	Status    Status
	Value     any
	Err       error
	UpdatedAt time.Time
}

// Fetcher loads the value of a key.
type Fetcher func(ctx context.Context) (any, error)

// Call is the handle of a fetch. It is shared by every caller that asked for
// the key while the fetch was in flight.
type Call struct {
	key   Key
	done  chan struct{}
	value any
	err   error
}

// Key returns the key the call fetches.
func (c *Call) Key() Key {
	return c.key
}

// Done is closed once the fetch has completed.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the fetch completes or ctx is done. Giving up waiting
// does not cancel the fetch.
func (c *Call) Wait(ctx context.Context) (any, error) {
	select {
	case <-c.done:
		return c.value, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type entry struct {
	status    Status
	value     any
	err       error
	call      *Call
	updatedAt time.Time
}

// Store owns every cache entry of the process.
type Store struct {
	mu      sync.Mutex
	entries map[Key]*entry
	logger  *log.Logger
	now     func() time.Time
}

// New creates an empty store. A nil logger discards messages.
func New(logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Store{
		entries: make(map[Key]*entry),
		logger:  logger,
		now:     time.Now,
	}
}

// EnsureFetched returns the value of key, fetching it only when needed.
//
// A present entry yields an already completed call and fetch is not invoked.
// A loading entry yields the in-flight call. An absent or errored entry moves
// to loading and fetch runs once in its own goroutine; its context is
// detached from ctx cancellation.
func (s *Store) EnsureFetched(ctx context.Context, key Key, fetch Fetcher) *Call {
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok {
		switch e.status {
		case StatusPresent:
			value := e.value
			s.mu.Unlock()
			return completedCall(key, value, nil)
		case StatusLoading:
			call := e.call
			s.mu.Unlock()
			return call
		}
	} else {
		e = &entry{}
		s.entries[key] = e
	}

	call := &Call{key: key, done: make(chan struct{})}
	e.status = StatusLoading
	e.value = nil
	e.err = nil
	e.call = call
	s.mu.Unlock()

	s.logger.Printf("cache: fetching %s", key)
	go s.run(context.WithoutCancel(ctx), call, fetch)

	return call
}

func (s *Store) run(ctx context.Context, call *Call, fetch Fetcher) {
	value, err := safeFetch(ctx, fetch)

	s.mu.Lock()
	if e, ok := s.entries[call.key]; ok && e.call == call {
		e.call = nil
		e.updatedAt = s.now()
		if err != nil {
			e.status = StatusErrored
			e.value = nil
			e.err = err
		} else {
			e.status = StatusPresent
			e.value = value
			e.err = nil
		}
	} else {
		s.logger.Printf("cache: discarding result of detached fetch %s", call.key)
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Printf("cache: fetching %s failed: %v", call.key, err)
	}

	call.value = value
	call.err = err
	close(call.done)
}

func safeFetch(ctx context.Context, fetch Fetcher) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	return fetch(ctx)
}

// Peek returns a snapshot of the entry for key. Unknown keys are absent.
func (s *Store) Peek(key Key) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return Entry{Status: StatusAbsent}
	}
	return Entry{Status: e.status, Value: e.value, Err: e.err, UpdatedAt: e.updatedAt}
}

// Invalidate drops the given identifiers of kind back to absent, or every
// entry of kind when no identifier is given.
func (s *Store) Invalidate(kind Kind, ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ids) == 0 {
		for key := range s.entries {
			if key.Kind == kind {
				delete(s.entries, key)
			}
		}
		return
	}

	for _, id := range ids {
		delete(s.entries, Key{Kind: kind, ID: id})
	}
}

// Reset drops every entry back to absent.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[Key]*entry)
}

// Len returns the number of entries that are not absent.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func completedCall(key Key, value any, err error) *Call {
	call := &Call{key: key, done: make(chan struct{}), value: value, err: err}
	close(call.done)
	return call
}
