// Package term implements the opaque structured values stored in termtab
// tables: atoms, integers, floats, binaries, tuples and lists. Equality
// between terms is always structural; hashing is deterministic and
// recursive so that two structurally equal terms always hash the same.
package term

import "fmt"

// Term is any value that can be stored as a key or part of a value in a
// table. The concrete types below are the only implementations; callers
// outside this package should treat Term as opaque.
type Term interface {
	// Hash returns the term's 31-bit structural hash. The top bit is
	// always zero so the value can be used directly as an unsigned
	// slot index without sign confusion (mirrors the reserved top bit
	// used by the original hash table this package is modeled on).
	Hash() uint32

	// Equal reports whether other is structurally identical to the
	// receiver. Differing concrete types are never equal.
	Equal(other Term) bool

	String() string

	isTerm()
}

// Atom is an interned symbolic constant. Two atoms with the same text
// always compare == after interning, so Equal reduces to a pointer or
// index comparison plus the cached hash.
type Atom struct {
	id   int32
	text string
	hash uint32
}

func (a Atom) isTerm() {}

// Hash returns the atom's cached hash, computed once at intern time.
func (a Atom) Hash() uint32 { return a.hash }

// Equal compares atoms by interned identity.
func (a Atom) Equal(other Term) bool {
	o, ok := other.(Atom)
	return ok && o.id == a.id
}

func (a Atom) String() string { return a.text }

// Text returns the atom's original text.
func (a Atom) Text() string { return a.text }

// Int64 is a signed 64-bit integer term.
type Int64 int64

func (i Int64) isTerm() {}

func (i Int64) Hash() uint32 { return mixHash(tagInt, uint64(i)) }

func (i Int64) Equal(other Term) bool {
	o, ok := other.(Int64)
	return ok && o == i
}

func (i Int64) String() string { return fmt.Sprintf("%d", int64(i)) }

// Float64 is a floating point term. Structural equality for floats is
// bit-exact, the same bits Hash uses: 0.0 and -0.0 are different terms,
// and a NaN equals only a NaN with identical bits. No float-aware key
// normalization is attempted.
type Float64 float64

func (f Float64) isTerm() {}

func (f Float64) Hash() uint32 { return mixHash(tagFloat, float64Bits(float64(f))) }

func (f Float64) Equal(other Term) bool {
	o, ok := other.(Float64)
	return ok && float64Bits(float64(o)) == float64Bits(float64(f))
}

func (f Float64) String() string { return fmt.Sprintf("%g", float64(f)) }

// Binary is an opaque byte string term.
type Binary []byte

func (b Binary) isTerm() {}

func (b Binary) Hash() uint32 { return mixHash(tagBinary, fnv1a(b)) }

func (b Binary) Equal(other Term) bool {
	o, ok := other.(Binary)
	if !ok || len(o) != len(b) {
		return false
	}
	for i := range b {
		if b[i] != o[i] {
			return false
		}
	}
	return true
}

func (b Binary) String() string { return fmt.Sprintf("<<%x>>", []byte(b)) }

// Tuple is a fixed-arity, ordered collection of terms. Tables key on a
// tuple field by position (the keypos option); arity mismatches never
// compare equal.
type Tuple []Term

func (t Tuple) isTerm() {}

func (t Tuple) Hash() uint32 {
	h := mixHash(tagTuple, uint64(len(t)))
	for _, e := range t {
		h = combine(h, e.Hash())
	}
	return h & hashMask
}

func (t Tuple) Equal(other Term) bool {
	o, ok := other.(Tuple)
	if !ok || len(o) != len(t) {
		return false
	}
	for i := range t {
		if !t[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

func (t Tuple) String() string {
	s := "{"
	for i, e := range t {
		if i > 0 {
			s += ","
		}
		s += e.String()
	}
	return s + "}"
}

// Elem returns the 1-indexed field of the tuple, matching get_element's
// pos argument convention. ok is false when pos is out of range.
func (t Tuple) Elem(pos int) (Term, bool) {
	if pos < 1 || pos > len(t) {
		return nil, false
	}
	return t[pos-1], true
}

// List is an ordered, variable-length collection of terms (proper list
// only; termtab has no use for improper/dotted lists).
type List []Term

func (l List) isTerm() {}

func (l List) Hash() uint32 {
	h := mixHash(tagList, uint64(len(l)))
	for _, e := range l {
		h = combine(h, e.Hash())
	}
	return h & hashMask
}

func (l List) Equal(other Term) bool {
	o, ok := other.(List)
	if !ok || len(o) != len(l) {
		return false
	}
	for i := range l {
		if !l[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

func (l List) String() string {
	s := "["
	for i, e := range l {
		if i > 0 {
			s += ","
		}
		s += e.String()
	}
	return s + "]"
}
