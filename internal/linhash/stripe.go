package linhash

import (
	"sync"

	"go.uber.org/atomic"
)

// contentionGrowThreshold and contentionShrinkThreshold are the stat
// thresholds from spec.md §4.8 that stage a stripe-array resize request.
const (
	contentionGrowThreshold   = 1000
	contentionShrinkThreshold = -10_000_000
	contentionOnBlock         = 100
	contentionOnFastPath      = -1
)

// stripe is one reader-writer lock in the table's lock/counter array
// (C2), carrying a local live-item counter (only meaningful for the
// first nitemsStripes stripes) and a signed contention estimate used
// to drive C7's adaptive resizing.
type stripe struct {
	mu     sync.RWMutex
	nitems atomic.Int64
	stat   atomic.Int64
}

// stripeArray is the table's current lock/counter array together with
// its size L, which must always be a power of two satisfying
// minStripes <= L <= maxStripes (spec.md §3 invariant I2).
type stripeArray struct {
	stripes []*stripe
}

func newStripeArray(l int) *stripeArray {
	sa := &stripeArray{stripes: make([]*stripe, l)}
	for i := range sa.stripes {
		sa.stripes[i] = &stripe{}
	}
	return sa
}

func (sa *stripeArray) l() int { return len(sa.stripes) }

// stripeForSlot returns the stripe covering logical bucket slot s. Locks
// are assigned by slot, not by raw hash, so every entry living in the
// same bucket chain is always protected by the same lock regardless of
// which of the (possibly many) hashes routed into that bucket triggered
// the access.
func (sa *stripeArray) stripeForSlot(s uint64) *stripe {
	return sa.stripes[s&uint64(len(sa.stripes)-1)]
}

// stripeIndexForSlot returns the index of the stripe covering slot s.
func (sa *stripeArray) stripeIndexForSlot(s uint64) int {
	return int(s & uint64(len(sa.stripes)-1))
}

// stripeIndex returns the index of the stripe whose nitems counter
// Table.adjustCount updates for hash h. It folds hashes the same way
// regardless of slot layout since the counter doesn't need bucket-chain
// consistency.
func (sa *stripeArray) stripeIndex(h uint32) int {
	return int(uint32(len(sa.stripes)-1) & h)
}

// lockWrite acquires s's write lock, recording contention feedback for
// C7: a successful TryLock costs -1 (uncontended), a blocking Lock
// after a failed TryLock costs +100.
func (s *stripe) lockWrite() {
	if s.mu.TryLock() {
		s.stat.Sub(1)
		return
	}
	s.mu.Lock()
	s.stat.Add(contentionOnBlock)
}

func (s *stripe) unlockWrite() {
	s.mu.Unlock()
}

func (s *stripe) lockRead() {
	s.mu.RLock()
}

func (s *stripe) unlockRead() {
	s.mu.RUnlock()
}

// addNitems adjusts this stripe's local live-item counter by delta. Only
// meaningful for stripes addressable within the first nitemsStripes;
// callers outside that range should not bother (see Table.adjustCount).
func (s *stripe) addNitems(delta int64) {
	s.nitems.Add(delta)
}

// requestedResize captures a pending stripe-array resize decision
// staged by C7's contention observation, consumed by the table-wide
// writer-lock-held resize pass.
type requestedResize int

const (
	noResize requestedResize = iota
	growResize
	shrinkResize
)

// observeContention inspects a stripe's stat after a write unlock and
// returns which resize (if any) should be requested. It does not itself
// perform the resize; that always runs under the table's top-level
// writer lock so every stripe is drained first (spec.md §4.8).
func observeContention(s *stripe) requestedResize {
	v := s.stat.Load()
	switch {
	case v > contentionGrowThreshold:
		return growResize
	case v < contentionShrinkThreshold:
		return shrinkResize
	default:
		return noResize
	}
}

// resizeStripeArray builds the next stripe array for a grow or shrink,
// clamped to [minStripes, maxStripes], carrying over the first
// nitemsStripes counters verbatim (they are stripe-index-independent by
// construction: only the bottom nitemsStripes addresses ever carry a
// nonzero counter, regardless of L) and zeroing the rest.
func resizeStripeArray(old *stripeArray, kind requestedResize) *stripeArray {
	newL := old.l()
	switch kind {
	case growResize:
		newL *= 2
	case shrinkResize:
		newL /= 2
	default:
		return old
	}
	if newL < minStripes {
		newL = minStripes
	}
	if newL > maxStripes {
		newL = maxStripes
	}
	if newL == old.l() {
		return old
	}

	next := newStripeArray(newL)
	for i := 0; i < nitemsStripes && i < len(next.stripes) && i < len(old.stripes); i++ {
		next.stripes[i].nitems.Store(old.stripes[i].nitems.Load())
	}
	return next
}
