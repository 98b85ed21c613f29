package linhash

import (
	"go.uber.org/atomic"
)

// deletedNode is one entry in the lock-free deferred-deletion stack
// built while the table is fixed (spec.md §4.6, C5). Pseudo-deleted
// entries are unlinked from their bucket chain lazily, once the fix
// count returns to zero, by walking this stack; pushing is a plain CAS
// loop so concurrent deleters under a reader's fixation never block.
type deletedNode struct {
	e    *entry
	next *deletedNode
}

// fix holds the fixation/pseudo-deletion state embedded in Table.
type fix struct {
	count atomic.Int64
	log   atomic.Pointer[deletedNode]
}

func (f *fix) init() {
	f.count.Store(0)
	f.log.Store(nil)
}

// Fix increments the table's fixation count, deferring physical removal
// of matched entries until Unfix brings the count back to zero. Returns
// the new count.
func (t *Table) Fix() int64 {
	return t.fix.count.Add(1)
}

// IsFixed reports whether any caller currently holds a fixation.
func (t *Table) IsFixed() bool {
	return t.fix.count.Load() > 0
}

// FixCount returns the current fixation depth.
func (t *Table) FixCount() int64 {
	return t.fix.count.Load()
}

// Unfix releases one fixation. When the count reaches zero, every entry
// pseudo-deleted while fixed is now safe to physically unlink, and
// Unfix reclaims all of them before returning.
func (t *Table) Unfix() int64 {
	n := t.fix.count.Add(-1)
	if n < 0 {
		// Defensive: never let the counter go negative; an unbalanced
		// Unfix is a caller bug, not something the table can repair.
		t.fix.count.Store(0)
		return 0
	}
	if n == 0 {
		t.reclaimPseudoDeleted()
	}
	return n
}

// pushDeleted records e as pseudo-deleted via a lock-free CAS push onto
// the reclamation log. Called with e already marked pseudoDeleted and
// already unreachable from any *new* traversal starting point (only
// in-flight cursors that began before the deletion may still see it).
func (t *Table) pushDeleted(e *entry) {
	for {
		head := t.fix.log.Load()
		node := &deletedNode{e: e, next: head}
		if t.fix.log.CompareAndSwap(head, node) {
			return
		}
	}
}

// reclaimPseudoDeleted drains the deferred-deletion log. It is only
// ever invoked from Unfix at the 0-crossing, so it cannot race with a
// concurrent pushDeleted under a live fixation (any push racing the
// final Unfix either lands before or after the swap to nil below; the
// spec accepts that a push landing just after is reclaimed on the next
// 0-crossing rather than this one).
func (t *Table) reclaimPseudoDeleted() {
	head := t.fix.log.Swap(nil)
	for n := head; n != nil; n = n.next {
		t.unlinkReclaimed(n.e)
	}
}

// unlinkReclaimed acquires the stripe lock covering e's current bucket
// (per spec.md §4.6: "acquire the covering stripe lock, walk the
// bucket, and unlink every pseudo-deleted entry") and splices e out of
// its chain by pointer identity. unlinkMatching only ever flags a fixed
// entry pseudoDeleted and leaves its next pointer untouched, so this is
// the step that actually removes it from the chain; skipping it would
// leave whatever predecessor pointed at e permanently unable to reach
// e's live successors.
//
// e may already be gone: a grow-split that ran after the fixation
// cleared frees a pseudo-deleted entry inline (performSplit), in which
// case the walk below simply doesn't find e and this is a no-op.
func (t *Table) unlinkReclaimed(e *entry) {
	sa, bucket := t.lockSlotForWrite(e.hash)
	defer t.unlockSlot(sa, e.hash)

	prev := bucket
	for cur := *prev; cur != nil; cur = *prev {
		if cur == e {
			debugAssert(cur.pseudoDeleted, "reclaiming entry not marked pseudo-deleted")
			*prev = cur.next
			cur.next = nil
			cur.obj = nil
			return
		}
		prev = &cur.next
	}
}
