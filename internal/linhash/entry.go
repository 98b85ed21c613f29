package linhash

import "github.com/loxia-systems/termtab/internal/term"

// entry is a single stored record: the original term, its precomputed
// hash, a singly-linked chain pointer, and the pseudo-deletion flag from
// spec.md §3/§4.6. An entry is owned exclusively by the bucket chain it
// is linked into.
type entry struct {
	obj           term.Term
	hash          uint32
	next          *entry
	pseudoDeleted bool
}

// key extracts the table's key field from the stored term, per the
// table's configured keypos.
func (e *entry) key(keypos int) term.Term {
	return keyOf(e.obj, keypos)
}

func keyOf(obj term.Term, keypos int) term.Term {
	tup, ok := obj.(term.Tuple)
	if !ok {
		return obj
	}
	k, ok := tup.Elem(keypos)
	if !ok {
		return obj
	}
	return k
}

func newEntry(obj term.Term, h uint32) *entry {
	return &entry{obj: obj, hash: h}
}
