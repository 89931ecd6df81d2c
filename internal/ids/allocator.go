// Package ids issues and recycles the numeric identifiers used for
// participants and rooms.
package ids

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"
)

// ID is a non-zero identifier. The zero value means "no id".
type ID uint32

// DefaultLimit is the exclusive upper bound of an id space.
const DefaultLimit ID = 1_000_000_000

// maxRandomAttempts bounds collision retries before falling back to a scan.
const maxRandomAttempts = 64

// ErrExhausted is returned when every id of the space is issued.
var ErrExhausted = errors.New("id space exhausted")

// Allocator hands out unique ids from [1, limit). Freed ids become
// available again immediately. It is safe for concurrent use.
type Allocator struct {
	mu     sync.Mutex
	issued map[ID]struct{}
	limit  ID
	rng    *rand.Rand
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithLimit sets the exclusive upper bound of the id space. Limits below 2
// are ignored.
func WithLimit(limit ID) Option {
	return func(a *Allocator) {
		if limit >= 2 {
			a.limit = limit
		}
	}
}

// WithSource makes id sampling deterministic.
func WithSource(src rand.Source) Option {
	return func(a *Allocator) {
		if src != nil {
			a.rng = rand.New(src)
		}
	}
}

// NewAllocator creates an empty id space.
func NewAllocator(opts ...Option) *Allocator {
	seed := uint64(time.Now().UnixNano())
	a := &Allocator{
		issued: make(map[ID]struct{}),
		limit:  DefaultLimit,
		rng:    rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate returns an id that is not currently issued and marks it issued.
func (a *Allocator) Allocate() (ID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	capacity := int(a.limit) - 1
	if len(a.issued) >= capacity {
		return 0, ErrExhausted
	}

	for i := 0; i < maxRandomAttempts; i++ {
		id := ID(a.rng.Uint32N(uint32(a.limit)-1)) + 1
		if _, taken := a.issued[id]; !taken {
			a.issued[id] = struct{}{}
			return id, nil
		}
	}

	// Dense space: take the first free slot.
	for id := ID(1); id < a.limit; id++ {
		if _, taken := a.issued[id]; !taken {
			a.issued[id] = struct{}{}
			return id, nil
		}
	}
	return 0, ErrExhausted
}

// Free releases id. It reports false when id was not issued, so a double
// free never disturbs the set.
func (a *Allocator) Free(id ID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.issued[id]; !ok {
		return false
	}
	delete(a.issued, id)
	return true
}

// Issued reports whether id is currently held by a live entity.
func (a *Allocator) Issued(id ID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, ok := a.issued[id]
	return ok
}

// Len returns the number of issued ids.
func (a *Allocator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.issued)
}
