package linhash

import (
	"fmt"
	"io"
)

// freeState tracks progress of an in-progress incremental teardown,
// held on the table itself so successive FreeContinue calls resume
// where the last one left off instead of restarting from slot zero.
type freeState struct {
	slot uint64
	done bool
}

// DeleteAllObjects removes every entry from the table in one call,
// ignoring fixation (pseudo-deletion bookkeeping is pointless when the
// whole table is being emptied at once: there is nothing left for a
// concurrent cursor to keep seeing consistently). Any teardown already
// in progress via FreeContinue is discarded and restarted from scratch.
func (t *Table) DeleteAllObjects() {
	t.teardown.Store(&freeState{})
	for {
		fs := t.teardown.Load()
		if t.freeContinue(fs, 1<<30) {
			return
		}
	}
}

// FreeContinue clears up to budget buckets per call and returns
// whether the table is now fully empty, letting a caller spread the
// cost of tearing down a very large table across several scheduler
// ticks instead of one long pause. Successive calls resume from where
// the previous one stopped.
func (t *Table) FreeContinue(budget int) (done bool) {
	fs := t.teardown.Load()
	if fs == nil {
		fs = &freeState{}
		t.teardown.Store(fs)
	}
	return t.freeContinue(fs, budget)
}

func (t *Table) freeContinue(fs *freeState, budget int) bool {
	sa := t.stripes.Load()
	seg := t.segTable.Load()
	nslots := t.currentNslots()

	cleared := 0
	for fs.slot < nslots && cleared < budget {
		st := sa.stripeForSlot(fs.slot)
		st.lockWrite()
		bucket := seg.bucketSlot(fs.slot)
		n := 0
		for e := *bucket; e != nil; e = e.next {
			if !e.pseudoDeleted {
				n++
			}
		}
		*bucket = nil
		st.unlockWrite()

		t.count.Add(-int64(n))
		fs.slot++
		cleared++
	}
	fs.done = fs.slot >= nslots
	if fs.done {
		t.genState.Store(packGenState(uint64(nextPowerOfTwo(firstSegSize)), 0))
		t.count.Store(0)
		t.segTable.Store(func() *segmentTable {
			st := newSegmentTable(1)
			st.ensureSegment(0)
			return st
		}())
		t.teardown.Store(nil)
	}
	return fs.done
}

// Print writes a human-readable dump of every live entry to w, one per
// line, mirroring ets:tab2list/ets:i-style diagnostics tooling expects
// from a table implementation.
func (t *Table) Print(w io.Writer) error {
	sa := t.stripes.Load()
	seg := t.segTable.Load()
	nslots := t.currentNslots()

	for slot := uint64(0); slot < nslots; slot++ {
		st := sa.stripeForSlot(slot)
		st.lockRead()
		bucket := seg.bucketSlot(slot)
		for e := *bucket; e != nil; e = e.next {
			if e.pseudoDeleted {
				continue
			}
			live, err := t.liveTerm(e.obj)
			if err != nil {
				st.unlockRead()
				return err
			}
			if _, err := fmt.Fprintf(w, "%d: %s\n", slot, live.String()); err != nil {
				st.unlockRead()
				return err
			}
		}
		st.unlockRead()
	}
	return nil
}
