package linhash

import "github.com/loxia-systems/termtab/internal/term"

// First returns the first live object in slot order together with a
// cursor token to pass to Next, or ok=false if the table is empty.
// Slot order is stable only to the extent the table isn't concurrently
// splitting/merging across the call; see spec.md §4.7.
func (t *Table) First() (obj term.Term, cursor uint64, ok bool) {
	return t.nextFrom(0, -1)
}

// Next returns the live object following cursor, or ok=false once
// traversal is exhausted.
func (t *Table) Next(cursor uint64) (obj term.Term, next uint64, ok bool) {
	slot, offset := unpackCursor(cursor)
	return t.nextFrom(slot, offset)
}

// cursor packs (slot, chain offset within that slot's bucket at the
// time it was produced) so Next can resume without re-walking from the
// start of the table; offset -1 means "start of slot".
func packCursor(slot uint64, offset int) uint64 {
	return slot<<16 | uint64(uint16(offset+1))
}

func unpackCursor(c uint64) (slot uint64, offset int) {
	slot = c >> 16
	offset = int(uint16(c&0xffff)) - 1
	return
}

// nextFrom walks forward from (slot, offset) to the next live entry,
// wrapping across segment and slot boundaries, taking each slot's read
// lock only for the duration of that slot's scan.
func (t *Table) nextFrom(startSlot uint64, startOffset int) (term.Term, uint64, bool) {
	nslots := t.currentNslots()
	sa := t.stripes.Load()
	seg := t.segTable.Load()

	slot := startSlot
	skip := startOffset + 1

	for slot < nslots {
		st := sa.stripeForSlot(slot)
		st.lockRead()
		bucket := seg.bucketSlot(slot)
		i := 0
		var found *entry
		var foundOffset int
		for e := *bucket; e != nil; e = e.next {
			if e.pseudoDeleted {
				continue
			}
			if i >= skip {
				found = e
				foundOffset = i
				break
			}
			i++
		}
		if found == nil {
			st.unlockRead()
			slot++
			skip = 0
			continue
		}
		live, err := t.liveTerm(found.obj)
		st.unlockRead()
		if err != nil {
			return nil, 0, false
		}
		return live, packCursor(slot, foundOffset), true
	}
	return nil, 0, false
}

// FirstWithValues and NextWithValues mirror First/Next but also return
// the extracted key, matching ETS's first/next-with-values convenience
// pair used by callers that always need the key alongside the object.
func (t *Table) FirstWithValues() (key, obj term.Term, cursor uint64, ok bool) {
	obj, cursor, ok = t.First()
	if !ok {
		return nil, nil, 0, false
	}
	return t.keyOf(obj), obj, cursor, true
}

func (t *Table) NextWithValues(cursor uint64) (key, obj term.Term, next uint64, ok bool) {
	obj, next, ok = t.Next(cursor)
	if !ok {
		return nil, nil, 0, false
	}
	return t.keyOf(obj), obj, next, true
}
