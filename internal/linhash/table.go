package linhash

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/loxia-systems/termtab/internal/term"
)

// Table is a concurrent, dynamically-resized linear hash table
// supporting SET/SET-unique-fail-on-clash/BAG/DBAG semantics, modeled on
// the bucket/segment/split design of spec.md (C1-C8). A Table is safe
// for concurrent use by multiple goroutines.
type Table struct {
	opts Options

	// segTable is swapped (never mutated in place past its current
	// length) whenever growth needs more segment slots than the
	// current array holds. Readers load it once per operation.
	segTable atomic.Pointer[segmentTable]

	// stripes is swapped whenever C7 decides to resize the lock
	// array. Always sized to a power of two in [minStripes, maxStripes].
	stripes atomic.Pointer[stripeArray]

	// genState packs the linear-hash generation (p, encoded as basePow
	// = 2^p in the high 32 bits) and the split pointer s (low 32 bits)
	// into one word, so readers get an atomically consistent (basePow,
	// splitPoint) pair with a single Load instead of two independent
	// loads that could observe a split's increment of s and its reset
	// of basePow on either side of each other (spec.md §4.3's p/s pair
	// must always be read together or addressing briefly misroutes).
	genState atomic.Uint64

	// count is the authoritative live-item counter (I5), and it is also
	// what grow/shrink decisions read. nitems on the first nitemsStripes
	// stripes is kept up to date alongside it (and carried across stripe
	// resizes) but no decision reads it; the two may diverge transiently.
	count atomic.Int64

	// isResizing guards against two linear-hash grow/shrink passes
	// running concurrently; it does not block ordinary reads/writes.
	isResizing atomic.Bool

	// resizeMu serializes the table-wide stripe-array resize (C7) and
	// the segment-table grow/shrink bookkeeping against each other.
	// Ordinary chain operations never take it; only the rare structural
	// resize passes do.
	resizeMu sync.Mutex

	fix
	compressed bool

	// teardown holds in-progress FreeContinue state, nil when no
	// incremental teardown is running.
	teardown atomic.Pointer[freeState]
}

// New creates an empty table per opts (zero-value Options is not
// valid; callers typically start from DefaultOptions()).
func New(opts Options) (*Table, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	l := opts.InitialStripes
	if l == 0 {
		l = minStripes
	}
	l = clampStripes(l)

	t := &Table{opts: opts, compressed: opts.Compressed}
	t.stripes.Store(newStripeArray(l))

	st := newSegmentTable(1)
	st.ensureSegment(0)
	t.segTable.Store(st)

	t.genState.Store(packGenState(uint64(nextPowerOfTwo(firstSegSize)), 0))
	t.fix.init()
	return t, nil
}

func (t *Table) KeyPos() int          { return t.opts.KeyPos }
func (t *Table) Semantics() Semantics { return t.opts.Semantics }

// Len returns the authoritative number of live (non pseudo-deleted)
// entries, satisfying invariant I5.
func (t *Table) Len() int64 { return t.count.Load() }

func packGenState(basePow, splitPoint uint64) uint64 {
	return basePow<<32 | splitPoint
}

func unpackGenState(v uint64) (basePow, splitPoint uint64) {
	return v >> 32, v & 0xffffffff
}

// basePowAndSplit returns a mutually consistent (basePow, splitPoint)
// snapshot.
func (t *Table) basePowAndSplit() (uint64, uint64) {
	return unpackGenState(t.genState.Load())
}

// currentNslots returns the current logical slot count (2^p + s).
func (t *Table) currentNslots() uint64 {
	base, s := t.basePowAndSplit()
	return base + s
}

// slotFor computes which logical bucket slot a hash belongs in, per
// spec.md §4.3: slot = h mod 2^(p+1), and if that slot does not exist
// yet (slot >= 2^p + splitPoint) fold it back to h mod 2^p.
func (t *Table) slotFor(h uint32) uint64 {
	base, s := t.basePowAndSplit()
	idx := uint64(h) & (base*2 - 1)
	if idx >= base+s {
		idx &= base - 1
	}
	return idx
}

func (t *Table) adjustCount(delta int64, h uint32, sa *stripeArray) {
	t.count.Add(delta)
	ix := sa.stripeIndex(h)
	if ix < nitemsStripes {
		sa.stripes[ix].addNitems(delta)
	}
}

// keyOf delegates to the package helper using this table's configured
// key position.
func (t *Table) keyOf(obj term.Term) term.Term {
	return keyOf(obj, t.opts.KeyPos)
}

// storedTerm returns the term actually stored in a bucket: the object
// itself, or its deflate-compressed encoding when Options.Compressed.
func (t *Table) storedTerm(obj term.Term) (term.Term, error) {
	if !t.compressed {
		return obj, nil
	}
	blob, err := term.Compress(obj)
	if err != nil {
		return nil, err
	}
	return term.Binary(blob), nil
}

func (t *Table) liveTerm(stored term.Term) (term.Term, error) {
	if !t.compressed {
		return stored, nil
	}
	b, ok := stored.(term.Binary)
	if !ok {
		return stored, nil
	}
	return term.Decompress(b)
}
