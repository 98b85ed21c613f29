package linhash

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loxia-systems/termtab/internal/term"
)

func TestFirstNextVisitsEveryLiveEntryExactlyOnce(t *testing.T) {
	opts := DefaultOptions()
	opts.Semantics = BagSemantics
	tb, err := New(opts)
	require.NoError(t, err)

	const n = 200
	want := map[string]bool{}
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("k%d", i)
		want[k] = true
		require.NoError(t, tb.Insert(rec(k, term.Int64(int64(i)))))
	}

	seen := map[string]bool{}
	obj, cursor, ok := tb.First()
	for ok {
		tup := obj.(term.Tuple)
		keyAtom := tup[0].(term.Atom)
		seen[keyAtom.Text()] = true
		obj, cursor, ok = tb.Next(cursor)
	}

	require.Equal(t, want, seen)
}

func TestFirstOnEmptyTable(t *testing.T) {
	tb, err := New(DefaultOptions())
	require.NoError(t, err)
	_, _, ok := tb.First()
	require.False(t, ok)
}
