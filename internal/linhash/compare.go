package linhash

import "github.com/loxia-systems/termtab/internal/term"

// entryKey returns the key term.Term for an entry, decompressing the
// stored blob first when the table was created with Options.Compressed.
func (t *Table) entryKey(e *entry) (term.Term, error) {
	if !t.compressed {
		return keyOf(e.obj, t.opts.KeyPos), nil
	}
	blob, ok := e.obj.(term.Binary)
	if !ok {
		return keyOf(e.obj, t.opts.KeyPos), nil
	}
	live, err := term.Decompress(blob)
	if err != nil {
		return nil, err
	}
	return keyOf(live, t.opts.KeyPos), nil
}

// entryKeyEqual reports whether e's key equals key, on error (a
// corrupted compressed blob) treating the entry as non-matching rather
// than propagating, since a single damaged entry must not abort a scan
// over the rest of the chain.
func (t *Table) entryKeyEqual(e *entry, key term.Term) bool {
	k, err := t.entryKey(e)
	if err != nil {
		return false
	}
	return k.Equal(key)
}

// entryObjEqual reports whether e's stored object is structurally equal
// to the already-encoded form of candidate (stored, as returned by
// Table.storedTerm).
func (t *Table) entryObjEqual(e *entry, stored term.Term) bool {
	if !t.compressed {
		return e.obj.Equal(stored)
	}
	candBlob, ok1 := stored.(term.Binary)
	entBlob, ok2 := e.obj.(term.Binary)
	if !ok1 || !ok2 {
		return e.obj.Equal(stored)
	}
	liveCand, err := term.Decompress(candBlob)
	if err != nil {
		return false
	}
	liveEnt, err := term.Decompress(entBlob)
	if err != nil {
		return false
	}
	return liveEnt.Equal(liveCand)
}
