package linhash

// segment is a fixed-size contiguous array of bucket heads (C1). The
// first segment holds firstSegSize buckets; every later segment holds
// extraSegSize, trading a slightly larger minimum footprint increment
// for amortized allocation, per spec.md §3.
type segment struct {
	buckets []*entry
}

func newSegment(size int) *segment {
	return &segment{buckets: make([]*entry, size)}
}

// segmentTable is the ordered sequence of segment pointers for a table.
// Growing it allocates a larger array, copies existing segment
// pointers, and links back to the retired table via prev so readers
// that captured the old pointer before the swap can still dereference
// it safely until a quiescent point confirms nobody can anymore
// (spec.md §4.4, §5 "Memory reclamation", §9 "Cyclic / self-referential
// structures").
type segmentTable struct {
	segments []*segment
	prev     *segmentTable
}

func newSegmentTable(capacity int) *segmentTable {
	return &segmentTable{segments: make([]*segment, capacity)}
}

// segIndex returns the segment index and intra-segment bucket index for
// absolute slot s, per spec.md §4.4's two-level addressing formula.
func segIndex(s uint64) (segIx int, intra int) {
	const (
		f0      = firstSegSize
		e       = extraSegSize
		eShift  = 11 // log2(extraSegSize)
		eMinusF = e - f0
	)
	segIx = int((s + eMinusF) >> eShift)
	if segIx == 0 {
		intra = int(s)
		return
	}
	intra = int(s) & (e - 1)
	return
}

// slotCapacity returns the total number of bucket slots addressable by
// the first n segments (n >= 1): firstSegSize + (n-1)*extraSegSize.
func slotCapacity(nSegments int) int {
	if nSegments <= 0 {
		return 0
	}
	return firstSegSize + (nSegments-1)*extraSegSize
}

// segmentSizeForIndex returns the allocation size for the segment at
// segIx (0 is smaller than the rest).
func segmentSizeForIndex(segIx int) int {
	if segIx == 0 {
		return firstSegSize
	}
	return extraSegSize
}

// bucketSlot returns a pointer to the bucket-head slot for absolute
// index s within st. It allocates nothing: the segment covering s must
// already exist (Table.ensureCapacityForSlot allocates it before a
// split uses it). The caller must hold the covering stripe lock.
func (st *segmentTable) bucketSlot(s uint64) **entry {
	segIx, intra := segIndex(s)
	seg := st.segments[segIx]
	return &seg.buckets[intra]
}

// ensureSegment allocates the segment at segIx if it is missing.
func (st *segmentTable) ensureSegment(segIx int) {
	if st.segments[segIx] == nil {
		st.segments[segIx] = newSegment(segmentSizeForIndex(segIx))
	}
}

// growSegmentTable returns a new segmentTable with room for at least
// minSegments segments, with existing segment pointers copied over and
// prev set to st for reader drain.
func growSegmentTable(st *segmentTable, minSegments int) *segmentTable {
	newCap := len(st.segments) * 2
	if newCap < minSegments {
		newCap = minSegments
	}
	grown := &segmentTable{segments: make([]*segment, newCap), prev: st}
	copy(grown.segments, st.segments)
	return grown
}
