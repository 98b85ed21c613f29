package linhash

import "fmt"

// Semantics selects one of the four table modes from spec.md §1/§4.2.
type Semantics int

const (
	// SetSemantics is unique-key, insert-or-overwrite.
	SetSemantics Semantics = iota
	// SetUniqueFailOnClash is SET but insert fails with BADKEY if a
	// live entry with the key already exists.
	SetUniqueFailOnClash
	// BagSemantics allows multiple entries per key but suppresses
	// structurally identical duplicates.
	BagSemantics
	// DBagSemantics allows multiple entries per key including
	// structurally identical duplicates.
	DBagSemantics
)

// Locking selects how the stripe count may evolve over the table's
// lifetime (spec.md §6).
type Locking int

const (
	// Coarse uses a fixed stripe count; C7 adaptive resizing is disabled.
	Coarse Locking = iota
	// Fine also keeps the stripe count fixed: no exported call resizes
	// the stripe array, and contention-driven resizing runs only under
	// FineAuto.
	Fine
	// FineAuto enables the full contention-observing adaptive resize
	// loop described in spec.md §4.8.
	FineAuto
)

// Options configure a table at creation time, mirroring the enumerated
// creation options of spec.md §6.
type Options struct {
	Semantics Semantics
	Locking   Locking

	// ReaderBias selects a reader-biased RW lock implementation while
	// the stripe count stays at or below 128. termtab's stripe type
	// always uses sync.RWMutex (Go's implementation is already writer-
	// preferring without the starvation profile that motivates ETS's
	// reader-biased variant); the flag is accepted and stored for
	// stats/compatibility but does not change lock selection. See
	// DESIGN.md for the open-question writeup.
	ReaderBias bool

	// Compressed stores entries as deflate-compressed wire bytes;
	// equality decompresses the stored side and compares structurally.
	Compressed bool

	// KeyPos is the 1-indexed tuple field that is the key. Must be >= 1.
	KeyPos int

	// InitialStripes hints the starting stripe count. Clamped into
	// [minStripes, maxStripes] and rounded down to a power of two.
	InitialStripes int
}

const (
	minStripes     = 64 // NITEMS_STRIPES
	maxStripes     = 8192
	firstSegSize   = 256
	extraSegSize   = 2048
	nitemsStripes  = 64
	maxSplitsPerOp = 5
)

// DefaultOptions returns the option set used when a caller doesn't
// override anything: SET semantics, fully adaptive striping, key at
// tuple position 1.
func DefaultOptions() Options {
	return Options{
		Semantics:      SetSemantics,
		Locking:        FineAuto,
		KeyPos:         1,
		InitialStripes: minStripes,
	}
}

func (o Options) validate() error {
	if o.KeyPos < 1 {
		return fmt.Errorf("linhash: Options.KeyPos must be >= 1, got %d", o.KeyPos)
	}
	return nil
}

func clampStripes(n int) int {
	if n < minStripes {
		n = minStripes
	}
	if n > maxStripes {
		n = maxStripes
	}
	return prevPowerOfTwo(n)
}

func prevPowerOfTwo(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
