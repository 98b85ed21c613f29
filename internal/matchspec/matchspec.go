// Package matchspec compiles a small match-pattern language used by the
// table's select* operators. It deliberately implements only the subset
// of ETS-style match specifications that spec.md's traversal engine (§4.7)
// needs: a head pattern with wildcards and positional captures, a short
// list of equality guards between captures, and a body that rebuilds an
// output term from captures.
package matchspec

import (
	"fmt"

	"github.com/loxia-systems/termtab/internal/term"
)

// Kind classifies a compiled pattern for the traversal engine in
// internal/linhash, per spec.md §4.7.
type Kind int

const (
	// Scanning means every active bucket must be walked.
	Scanning Kind = iota
	// Keyed means the key position of the pattern is a literal term;
	// only that key's bucket chain need be visited.
	Keyed
	// NothingCanMatch means the traversal can return the empty result
	// without taking any lock.
	NothingCanMatch
)

// GuardOp is the operator of a Guard.
type GuardOp int

const (
	GuardEq GuardOp = iota
	GuardNeq
)

// Guard compares two captured variables (by capture index, 1-9) for
// equality or inequality. Guards referencing a capture index that the
// head pattern never binds are a compile error.
type Guard struct {
	Op   GuardOp
	A, B int
}

// wildcardText is the text of the atom that matches any single subterm
// without capturing it, written '_' in pattern terms (mirrors ETS
// match-spec syntax).
var wildcardText = "_"

// captureIndex returns the capture number (1-9) if a is a capture atom
// of the form "$1".."$9", and ok=false otherwise.
func captureIndex(a term.Atom) (int, bool) {
	s := a.Text()
	if len(s) != 2 || s[0] != '$' {
		return 0, false
	}
	if s[1] < '1' || s[1] > '9' {
		return 0, false
	}
	return int(s[1] - '0'), true
}

// Program is a compiled, reusable match pattern.
type Program struct {
	head      term.Term
	guards    []Guard
	body      term.Term
	keypos    int
	keyword   term.Term // literal key term when Kind == Keyed
	kind      Kind
	preserves bool
}

// Compile builds a Program from a head pattern, a guard list and an
// output body. keypos is the table's key field (1-indexed into a
// top-level Tuple head), used to classify the pattern and to decide
// whether select_replace may use it.
func Compile(head term.Term, guards []Guard, body term.Term, keypos int) (*Program, error) {
	maxCapture, err := validateCaptures(head, guards, body)
	if err != nil {
		return nil, err
	}
	_ = maxCapture

	p := &Program{head: head, guards: guards, body: body, keypos: keypos}
	p.kind, p.keyword = classify(head, keypos)
	p.preserves = keyPreserving(head, body, keypos)

	return p, nil
}

// Kind reports the traversal strategy this program requires.
func (p *Program) Kind() Kind { return p.kind }

// KeyLiteral returns the literal key term when Kind() == Keyed.
func (p *Program) KeyLiteral() (term.Term, bool) {
	if p.kind != Keyed {
		return nil, false
	}
	return p.keyword, true
}

// IsKeyPreserving reports whether applying Output to the bindings
// produced by Match always yields a result whose key-position value is
// structurally equal to the input's key-position value. select_replace
// requires this (spec.md §4.7); BAG tables never support select_replace
// regardless of this check.
func (p *Program) IsKeyPreserving() bool { return p.preserves }

// Match attempts to unify candidate against the head pattern, returning
// the captured bindings and whether the guards are all satisfied.
func (p *Program) Match(candidate term.Term) (map[int]term.Term, bool) {
	bindings := map[int]term.Term{}
	if !unify(p.head, candidate, bindings) {
		return nil, false
	}
	for _, g := range p.guards {
		a, aok := bindings[g.A]
		b, bok := bindings[g.B]
		if !aok || !bok {
			return nil, false
		}
		eq := a.Equal(b)
		switch g.Op {
		case GuardEq:
			if !eq {
				return nil, false
			}
		case GuardNeq:
			if eq {
				return nil, false
			}
		}
	}
	return bindings, true
}

// Output substitutes bindings into the body to build the result term for
// a matched candidate.
func (p *Program) Output(bindings map[int]term.Term) (term.Term, error) {
	return substitute(p.body, bindings)
}

func unify(pattern, candidate term.Term, bindings map[int]term.Term) bool {
	if a, ok := pattern.(term.Atom); ok {
		if a.Text() == wildcardText {
			return true
		}
		if idx, ok := captureIndex(a); ok {
			if existing, bound := bindings[idx]; bound {
				return existing.Equal(candidate)
			}
			bindings[idx] = candidate
			return true
		}
		return a.Equal(candidate)
	}

	switch p := pattern.(type) {
	case term.Tuple:
		c, ok := candidate.(term.Tuple)
		if !ok || len(c) != len(p) {
			return false
		}
		for i := range p {
			if !unify(p[i], c[i], bindings) {
				return false
			}
		}
		return true
	case term.List:
		c, ok := candidate.(term.List)
		if !ok || len(c) != len(p) {
			return false
		}
		for i := range p {
			if !unify(p[i], c[i], bindings) {
				return false
			}
		}
		return true
	default:
		return pattern.Equal(candidate)
	}
}

func substitute(body term.Term, bindings map[int]term.Term) (term.Term, error) {
	if a, ok := body.(term.Atom); ok {
		if idx, ok := captureIndex(a); ok {
			v, bound := bindings[idx]
			if !bound {
				return nil, fmt.Errorf("matchspec: body references unbound capture $%d", idx)
			}
			return v, nil
		}
		return a, nil
	}

	switch b := body.(type) {
	case term.Tuple:
		out := make(term.Tuple, len(b))
		for i, e := range b {
			sub, err := substitute(e, bindings)
			if err != nil {
				return nil, err
			}
			out[i] = sub
		}
		return out, nil
	case term.List:
		out := make(term.List, len(b))
		for i, e := range b {
			sub, err := substitute(e, bindings)
			if err != nil {
				return nil, err
			}
			out[i] = sub
		}
		return out, nil
	default:
		return b, nil
	}
}

// classify inspects the head pattern's key position. A literal (no
// wildcard, no capture) at keypos makes the pattern Keyed; anything
// else falls back to Scanning. NothingCanMatch is reserved for a future
// constant-folding pass (see SPEC_FULL.md); Compile never returns it
// today, but the traversal engine still checks for it defensively.
func classify(head term.Term, keypos int) (Kind, term.Term) {
	tup, ok := head.(term.Tuple)
	if !ok {
		return Scanning, nil
	}
	key, ok := tup.Elem(keypos)
	if !ok {
		return Scanning, nil
	}
	if isVariable(key) {
		return Scanning, nil
	}
	if containsVariable(key) {
		return Scanning, nil
	}
	return Keyed, key
}

func isVariable(t term.Term) bool {
	a, ok := t.(term.Atom)
	if !ok {
		return false
	}
	if a.Text() == wildcardText {
		return true
	}
	_, ok = captureIndex(a)
	return ok
}

func containsVariable(t term.Term) bool {
	if isVariable(t) {
		return true
	}
	switch v := t.(type) {
	case term.Tuple:
		for _, e := range v {
			if containsVariable(e) {
				return true
			}
		}
	case term.List:
		for _, e := range v {
			if containsVariable(e) {
				return true
			}
		}
	}
	return false
}

// keyPreserving reports whether the body's key position (when body is a
// Tuple of the same shape as head) always echoes back the same capture
// bound at the head's key position, so a replace can never change a
// live entry's key.
func keyPreserving(head, body term.Term, keypos int) bool {
	headTup, ok := head.(term.Tuple)
	if !ok {
		return false
	}
	headKey, ok := headTup.Elem(keypos)
	if !ok {
		return false
	}
	headAtom, ok := headKey.(term.Atom)
	if !ok {
		// Literal key in the head pattern: only safe if the body
		// repeats that exact literal in the same position.
		bodyTup, ok := body.(term.Tuple)
		if !ok {
			return false
		}
		bodyKey, ok := bodyTup.Elem(keypos)
		return ok && bodyKey.Equal(headKey)
	}
	idx, ok := captureIndex(headAtom)
	if !ok {
		return false
	}

	bodyTup, ok := body.(term.Tuple)
	if !ok {
		return false
	}
	bodyKey, ok := bodyTup.Elem(keypos)
	if !ok {
		return false
	}
	bodyAtom, ok := bodyKey.(term.Atom)
	if !ok {
		return false
	}
	bodyIdx, ok := captureIndex(bodyAtom)
	return ok && bodyIdx == idx
}

func validateCaptures(head term.Term, guards []Guard, body term.Term) (int, error) {
	bound := map[int]bool{}
	collectCaptures(head, bound)

	maxSeen := 0
	for idx := range bound {
		if idx > maxSeen {
			maxSeen = idx
		}
	}

	for _, g := range guards {
		if !bound[g.A] {
			return 0, fmt.Errorf("matchspec: guard references unbound capture $%d", g.A)
		}
		if !bound[g.B] {
			return 0, fmt.Errorf("matchspec: guard references unbound capture $%d", g.B)
		}
	}

	used := map[int]bool{}
	collectCaptures(body, used)
	for idx := range used {
		if !bound[idx] {
			return 0, fmt.Errorf("matchspec: body references unbound capture $%d", idx)
		}
	}

	return maxSeen, nil
}

func collectCaptures(t term.Term, into map[int]bool) {
	if a, ok := t.(term.Atom); ok {
		if idx, ok := captureIndex(a); ok {
			into[idx] = true
		}
		return
	}
	switch v := t.(type) {
	case term.Tuple:
		for _, e := range v {
			collectCaptures(e, into)
		}
	case term.List:
		for _, e := range v {
			collectCaptures(e, into)
		}
	}
}
