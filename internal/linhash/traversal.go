package linhash

import (
	"github.com/loxia-systems/termtab/internal/matchspec"
	"github.com/loxia-systems/termtab/internal/term"
)

// reductionBudget bounds how many candidate entries a single chunk of
// a scanning traversal inspects before yielding a continuation, per
// spec.md §4.9's bounded-reduction trap design. It exists so a select
// over a huge table can't monopolize a goroutine indefinitely; callers
// that want the whole result set just keep calling SelectContinue.
const reductionBudget = 1000

// Continuation resumes a scanning select/select_count/select_delete/
// select_replace traversal exactly where its previous chunk left off.
// The zero Continuation is not valid; only ones returned by this
// package's Select* functions may be passed to SelectContinue.
type Continuation struct {
	prog      *matchspec.Program
	op        SelectOp
	slot      uint64
	offset    int
	chunkSize int
	done      bool

	// safety is a generation fingerprint of the table's addressing
	// state (basePow, splitPoint) captured when the continuation was
	// produced; SelectContinue rejects it with ErrBadParam if the
	// table has since structurally resized, since slot numbering is
	// no longer guaranteed comparable (spec.md §4.9 "resumption
	// validation").
	safety uint64
}

type SelectOp int

const (
	OpSelect SelectOp = iota
	OpSelectCount
	OpSelectDelete
	OpSelectReplace
)

// Select returns every live object matching prog's head/guards,
// rewritten through prog's body, running to completion internally by
// chaining SelectChunk/SelectContinue. Prefer SelectChunk directly for
// callers that want to bound a single call's work.
func (t *Table) Select(prog *matchspec.Program) ([]term.Term, error) {
	return t.runToCompletion(prog, OpSelect)
}

// SelectCount returns the number of live objects matching prog's head
// and guards, ignoring prog's body/output entirely.
func (t *Table) SelectCount(prog *matchspec.Program) (int, error) {
	out, err := t.runToCompletion(prog, OpSelectCount)
	return len(out), err
}

// SelectDelete removes every live object matching prog's head/guards
// and returns how many were removed.
func (t *Table) SelectDelete(prog *matchspec.Program) (int, error) {
	out, err := t.runToCompletion(prog, OpSelectDelete)
	return len(out), err
}

// SelectReplace rewrites every live object matching prog's head/guards
// in place via prog's body, and returns how many were rewritten. prog
// must be key-preserving (spec.md §4.9): a body whose output term
// would change the key is rejected with ErrBadParam, since that would
// silently relocate the entry to a different bucket without
// re-indexing it.
func (t *Table) SelectReplace(prog *matchspec.Program) (int, error) {
	if !prog.IsKeyPreserving() {
		return 0, newError(BADPARAM, "select_replace body is not key-preserving")
	}
	out, err := t.runToCompletion(prog, OpSelectReplace)
	return len(out), err
}

func (t *Table) runToCompletion(prog *matchspec.Program, op SelectOp) ([]term.Term, error) {
	var all []term.Term
	chunk, cont, err := t.SelectChunk(prog, op, reductionBudget)
	if err != nil {
		return nil, err
	}
	all = append(all, chunk...)
	for cont != nil {
		chunk, cont, err = t.SelectContinue(cont)
		if err != nil {
			return nil, err
		}
		all = append(all, chunk...)
	}
	return all, nil
}

// SelectChunk runs one bounded pass of a match traversal, classifying
// prog as keyed (a single bucket lookup, never traps) or scanning (a
// budgeted walk across slots, trapping into a Continuation once
// reductionBudget candidates have been inspected without exhausting
// the table).
func (t *Table) SelectChunk(prog *matchspec.Program, op SelectOp, chunkSize int) ([]term.Term, *Continuation, error) {
	if op == OpSelectReplace && t.opts.Semantics == BagSemantics {
		return nil, nil, newError(BADPARAM, "select_replace is not supported on bag tables")
	}
	switch prog.Kind() {
	case matchspec.NothingCanMatch:
		return nil, nil, nil
	case matchspec.Keyed:
		out, err := t.selectKeyed(prog, op)
		return out, nil, err
	default:
		c := &Continuation{prog: prog, op: op, slot: 0, offset: -1, chunkSize: chunkSize, safety: t.genState.Load()}
		return t.selectScan(c)
	}
}

// SelectContinue resumes a trapped scanning traversal.
func (t *Table) SelectContinue(c *Continuation) ([]term.Term, *Continuation, error) {
	if c == nil || c.done {
		return nil, nil, nil
	}
	if c.safety != t.genState.Load() {
		return nil, nil, newError(BADPARAM, "continuation invalidated by concurrent resize")
	}
	return t.selectScan(c)
}

// selectKeyed takes a read lock for OpSelect/OpSelectCount (they only
// read live entries) and a write lock for OpSelectDelete/OpSelectReplace
// (they splice the chain or mutate e.obj in place), per spec.md §4.7's
// operator table — a plain select must not block concurrent readers
// and writers on the bucket it touches.
func (t *Table) selectKeyed(prog *matchspec.Program, op SelectOp) ([]term.Term, error) {
	keyLit, _ := prog.KeyLiteral()
	h := keyLit.Hash()

	write := op == OpSelectDelete || op == OpSelectReplace
	var sa *stripeArray
	var bucket **entry
	if write {
		sa, bucket = t.lockSlotForWrite(h)
	} else {
		sa, bucket = t.lockSlotForRead(h)
	}
	unlock := func() {
		if write {
			t.unlockSlot(sa, h)
		} else {
			t.unlockSlotRead(sa, h)
		}
	}

	var out []term.Term
	shrank := false
	prev := bucket
	for e := *prev; e != nil; {
		if e.pseudoDeleted || e.hash != h {
			prev = &e.next
			e = e.next
			continue
		}
		live, err := t.liveTerm(e.obj)
		if err != nil {
			unlock()
			return nil, err
		}
		bindings, matched := prog.Match(live)
		if !matched {
			prev = &e.next
			e = e.next
			continue
		}
		switch op {
		case OpSelect, OpSelectCount:
			outVal, err := prog.Output(bindings)
			if err != nil {
				unlock()
				return nil, err
			}
			out = append(out, outVal)
			prev = &e.next
			e = e.next
		case OpSelectDelete:
			out = append(out, live)
			next := e.next
			if t.IsFixed() {
				e.pseudoDeleted = true
				t.pushDeleted(e)
				prev = &e.next
			} else {
				*prev = next
			}
			t.adjustCount(-1, h, sa)
			shrank = true
			e = next
		case OpSelectReplace:
			outVal, err := prog.Output(bindings)
			if err != nil {
				unlock()
				return nil, err
			}
			stored, err := t.storedTerm(outVal)
			if err != nil {
				unlock()
				return nil, err
			}
			e.obj = stored
			out = append(out, outVal)
			prev = &e.next
			e = e.next
		}
	}
	unlock()
	if shrank {
		t.maybeShrink()
	}
	return out, nil
}

// selectScan takes a write lock per slot only for OpSelectDelete/
// OpSelectReplace; OpSelect/OpSelectCount take a read lock, so a plain
// scanning select never blocks concurrent readers/writers the way a
// select_delete legitimately must (spec.md §4.7's operator table).
func (t *Table) selectScan(c *Continuation) ([]term.Term, *Continuation, error) {
	nslots := t.currentNslots()
	sa := t.stripes.Load()
	seg := t.segTable.Load()

	write := c.op == OpSelectDelete || c.op == OpSelectReplace

	var out []term.Term
	inspected := 0
	slot := c.slot
	skip := c.offset + 1

	for slot < nslots {
		if inspected >= c.chunkSize {
			c.slot, c.offset = slot, skip-1
			return out, c, nil
		}
		st := sa.stripeForSlot(slot)
		if write {
			st.lockWrite()
		} else {
			st.lockRead()
		}
		unlockStripe := func() {
			if write {
				st.unlockWrite()
				t.onStripeUnlocked(st)
			} else {
				st.unlockRead()
			}
		}

		bucket := seg.bucketSlot(slot)
		prev := bucket
		i := 0
		shrank := false
		for e := *prev; e != nil; {
			if e.pseudoDeleted {
				prev = &e.next
				e = e.next
				i++
				continue
			}
			if i < skip {
				i++
				prev = &e.next
				e = e.next
				continue
			}
			inspected++
			live, err := t.liveTerm(e.obj)
			if err != nil {
				unlockStripe()
				return nil, nil, err
			}
			bindings, matched := c.prog.Match(live)
			if matched {
				switch c.op {
				case OpSelect, OpSelectCount:
					outVal, err := c.prog.Output(bindings)
					if err != nil {
						unlockStripe()
						return nil, nil, err
					}
					out = append(out, outVal)
				case OpSelectDelete:
					out = append(out, live)
				case OpSelectReplace:
					outVal, err := c.prog.Output(bindings)
					if err != nil {
						unlockStripe()
						return nil, nil, err
					}
					stored, err := t.storedTerm(outVal)
					if err != nil {
						unlockStripe()
						return nil, nil, err
					}
					e.obj = stored
					out = append(out, outVal)
				}
			}

			if matched && c.op == OpSelectDelete {
				next := e.next
				if t.IsFixed() {
					e.pseudoDeleted = true
					t.pushDeleted(e)
					prev = &e.next
					i++
				} else {
					*prev = next
				}
				t.adjustCount(-1, e.hash, sa)
				shrank = true
				e = next
				continue
			}

			i++
			prev = &e.next
			e = e.next

			if inspected >= c.chunkSize {
				unlockStripe()
				if shrank {
					t.maybeShrink()
				}
				c.slot, c.offset = slot, i-1
				return out, c, nil
			}
		}
		unlockStripe()
		if shrank {
			t.maybeShrink()
		}
		slot++
		skip = 0
	}
	c.done = true
	return out, nil, nil
}
