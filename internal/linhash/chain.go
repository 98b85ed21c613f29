package linhash

import (
	"github.com/loxia-systems/termtab/internal/term"
)

// Insert stores obj, applying the table's configured semantics
// (spec.md §4.2):
//
//   - SET: a live entry with the same key is replaced in place.
//   - SET-unique-fail-on-clash: insertion fails with ErrBadKey if a live
//     entry with the same key already exists.
//   - BAG: obj is appended unless a structurally identical live entry
//     with the same key already exists.
//   - DBAG: obj is always appended, even if structurally identical to
//     an existing entry.
//
// A structural resize (split), if the resulting load factor warrants
// one, always runs after the per-bucket lock taken for this insert has
// been released: performSplit takes its own pair of stripe locks, and
// since Go's RWMutex is not reentrant, triggering it while still
// holding this insert's lock would self-deadlock whenever the split
// happens to touch the same stripe.
func (t *Table) Insert(obj term.Term) error {
	return t.insert(obj, t.opts.Semantics == SetUniqueFailOnClash)
}

// InsertOrFail stores obj like Insert, but fails with a BADKEY error
// (without inserting anything) if a live entry already exists under
// obj's key — regardless of the table's configured Semantics. spec.md
// §6 lists insert and insert_or_fail as two distinct per-call
// operations available on any table (mirroring ets:insert and
// ets:insert_new, where key_clash_fail is a parameter orthogonal to the
// table's BAG/SET/DBAG mode, not something only a SET-unique table can
// do).
func (t *Table) InsertOrFail(obj term.Term) error {
	return t.insert(obj, true)
}

func (t *Table) insert(obj term.Term, keyClashFail bool) error {
	key := t.keyOf(obj)
	h := key.Hash()
	sa, bucket := t.lockSlotForWrite(h)

	stored, err := t.storedTerm(obj)
	if err != nil {
		t.unlockSlot(sa, h)
		return err
	}

	grew := false
	var result error

	if keyClashFail {
		for e := *bucket; e != nil; e = e.next {
			if e.pseudoDeleted {
				continue
			}
			if t.entryKeyEqual(e, key) {
				result = newError(BADKEY, "key already present")
				break
			}
		}
	}

	if result == nil {
		switch t.opts.Semantics {
		case SetSemantics, SetUniqueFailOnClash:
			matched := false
			for e := *bucket; e != nil; e = e.next {
				if e.pseudoDeleted {
					continue
				}
				if t.entryKeyEqual(e, key) {
					e.obj = stored
					matched = true
					break
				}
			}
			if !matched {
				grew = t.linkNew(bucket, key, stored, h, sa)
			}

		case BagSemantics:
			dup := false
			for e := *bucket; e != nil; e = e.next {
				if e.pseudoDeleted {
					continue
				}
				if t.entryKeyEqual(e, key) && t.entryObjEqual(e, stored) {
					dup = true
					break
				}
			}
			if !dup {
				grew = t.linkNew(bucket, key, stored, h, sa)
			}

		case DBagSemantics:
			grew = t.linkNew(bucket, key, stored, h, sa)

		default:
			result = newError(UNSPEC, "unknown semantics")
		}
	}

	t.unlockSlot(sa, h)
	if grew {
		t.maybeGrow()
	}
	return result
}

// linkNew splices a new entry into bucket immediately after the last
// existing entry sharing key, rather than at the absolute chain head,
// so that repeated Lookups on a BAG/DBAG key return elements in
// insertion order (spec.md §4.2 "insertion order within a key is
// maintained", P3/S2). Returns whether the table's load factor now
// warrants a grow pass once unlocked.
func (t *Table) linkNew(bucket **entry, key, stored term.Term, h uint32, sa *stripeArray) bool {
	e := newEntry(stored, h)

	var lastMatch *entry
	for cur := *bucket; cur != nil; cur = cur.next {
		if cur.hash == h && t.entryKeyEqual(cur, key) {
			lastMatch = cur
		}
	}
	if lastMatch == nil {
		e.next = *bucket
		*bucket = e
	} else {
		e.next = lastMatch.next
		lastMatch.next = e
	}

	t.adjustCount(1, h, sa)
	return t.count.Load() > int64(t.currentNslots())
}

// Lookup returns every live object stored under key, in the order they
// were inserted (BAG/DBAG may return more than one; SET returns at most
// one).
func (t *Table) Lookup(key term.Term) ([]term.Term, error) {
	h := key.Hash()
	sa, bucket := t.lockSlotForRead(h)
	defer t.unlockSlotRead(sa, h)

	var out []term.Term
	for e := *bucket; e != nil; e = e.next {
		if e.pseudoDeleted || e.hash != h {
			continue
		}
		if !t.entryKeyEqual(e, key) {
			continue
		}
		live, err := t.liveTerm(e.obj)
		if err != nil {
			return nil, err
		}
		out = append(out, live)
	}
	return out, nil
}

// Member reports whether any live entry exists for key.
func (t *Table) Member(key term.Term) (bool, error) {
	h := key.Hash()
	sa, bucket := t.lockSlotForRead(h)
	defer t.unlockSlotRead(sa, h)

	for e := *bucket; e != nil; e = e.next {
		if e.pseudoDeleted || e.hash != h {
			continue
		}
		if t.entryKeyEqual(e, key) {
			return true, nil
		}
	}
	return false, nil
}

// GetElement returns the pos'th tuple field (1-indexed) of every live
// object stored under key.
func (t *Table) GetElement(key term.Term, pos int) ([]term.Term, error) {
	objs, err := t.Lookup(key)
	if err != nil {
		return nil, err
	}
	out := make([]term.Term, 0, len(objs))
	for _, o := range objs {
		tup, ok := o.(term.Tuple)
		if !ok {
			return nil, newError(BADITEM, "object is not a tuple")
		}
		v, ok := tup.Elem(pos)
		if !ok {
			return nil, newError(BADITEM, "position out of range")
		}
		out = append(out, v)
	}
	return out, nil
}

// Delete removes every live entry stored under key, returning the
// objects removed. Under an active fixation the entries are pseudo-
// deleted (flagged, left linked) rather than unlinked; see spec.md §4.6.
// Like Insert, any resulting shrink pass runs only after this
// operation's own stripe lock is released.
func (t *Table) Delete(key term.Term) ([]term.Term, error) {
	h := key.Hash()
	sa, bucket := t.lockSlotForWrite(h)

	var removed []term.Term
	for e := *bucket; e != nil; e = e.next {
		if e.pseudoDeleted || e.hash != h || !t.entryKeyEqual(e, key) {
			continue
		}
		live, err := t.liveTerm(e.obj)
		if err != nil {
			t.unlockSlot(sa, h)
			return nil, err
		}
		removed = append(removed, live)
	}
	shrank := false
	if len(removed) > 0 {
		t.unlinkMatching(bucket, h, sa, func(e *entry) bool {
			return !e.pseudoDeleted && e.hash == h && t.entryKeyEqual(e, key)
		})
		shrank = t.count.Load()*shrinkLoadFactorDen < int64(t.currentNslots())*shrinkLoadFactorNum
	}
	t.unlockSlot(sa, h)
	if shrank {
		t.maybeShrink()
	}
	return removed, nil
}

// DeleteObject removes the single live entry structurally equal to obj
// (SET semantics treat this the same as Delete(key); BAG/DBAG remove
// only the matching element).
func (t *Table) DeleteObject(obj term.Term) error {
	key := t.keyOf(obj)
	h := key.Hash()
	sa, bucket := t.lockSlotForWrite(h)

	stored, err := t.storedTerm(obj)
	if err != nil {
		t.unlockSlot(sa, h)
		return err
	}
	t.unlinkMatching(bucket, h, sa, func(e *entry) bool {
		return !e.pseudoDeleted && e.hash == h && t.entryObjEqual(e, stored)
	})
	shrank := t.count.Load()*shrinkLoadFactorDen < int64(t.currentNslots())*shrinkLoadFactorNum
	t.unlockSlot(sa, h)
	if shrank {
		t.maybeShrink()
	}
	return nil
}

// Take atomically removes and returns every live entry under key, like
// Lookup followed by Delete but as one locked operation.
func (t *Table) Take(key term.Term) ([]term.Term, error) {
	return t.Delete(key)
}

// unlinkMatching walks bucket's chain once, removing entries matched by
// pred. If the table is currently fixed it instead flags them pseudo-
// deleted in place and pushes them to the reclamation log, preserving
// any in-flight cursor's view of the chain.
func (t *Table) unlinkMatching(bucket **entry, h uint32, sa *stripeArray, pred func(*entry) bool) {
	fixed := t.IsFixed()
	prev := bucket
	for e := *prev; e != nil; {
		if !pred(e) {
			prev = &e.next
			e = e.next
			continue
		}
		next := e.next
		if fixed {
			e.pseudoDeleted = true
			t.pushDeleted(e)
			prev = &e.next
		} else {
			*prev = next
		}
		t.adjustCount(-1, h, sa)
		e = next
	}
}
