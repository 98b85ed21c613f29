package linhash

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loxia-systems/termtab/internal/term"
)

// TestGrowSplitPreservesAllEntries drives enough inserts to force many
// linear-hash splits and confirms every key is still reachable
// afterward, i.e. performSplit never drops or duplicates an entry
// across the old/new bucket divide.
func TestGrowSplitPreservesAllEntries(t *testing.T) {
	tb, err := New(DefaultOptions())
	require.NoError(t, err)

	const n = 5000
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("key-%d", i)
		require.NoError(t, tb.Insert(rec(k, term.Int64(int64(i)))))
	}
	require.Equal(t, int64(n), tb.Len())
	require.Greater(t, tb.currentNslots(), uint64(firstSegSize))

	for i := 0; i < n; i++ {
		k := fmt.Sprintf("key-%d", i)
		objs, err := tb.Lookup(term.Intern(k))
		require.NoError(t, err)
		require.Lenf(t, objs, 1, "key %s missing after grow", k)
		tup := objs[0].(term.Tuple)
		v, _ := tup.Elem(2)
		require.Equal(t, term.Int64(int64(i)), v)
	}
}

// TestShrinkAfterBulkDelete confirms the table's nslots watermark comes
// back down once most entries are removed, and every surviving key
// stays reachable through the merge passes.
func TestShrinkAfterBulkDelete(t *testing.T) {
	opts := DefaultOptions()
	opts.Semantics = SetSemantics
	tb, err := New(opts)
	require.NoError(t, err)

	const n = 4000
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("key-%d", i)
		require.NoError(t, tb.Insert(rec(k, term.Int64(int64(i)))))
	}
	grownSlots := tb.currentNslots()
	require.Greater(t, grownSlots, uint64(firstSegSize))

	for i := 0; i < n-10; i++ {
		k := fmt.Sprintf("key-%d", i)
		_, err := tb.Delete(term.Intern(k))
		require.NoError(t, err)
	}
	require.Equal(t, int64(10), tb.Len())
	require.Less(t, tb.currentNslots(), grownSlots)

	for i := n - 10; i < n; i++ {
		k := fmt.Sprintf("key-%d", i)
		ok, err := tb.Member(term.Intern(k))
		require.NoError(t, err)
		require.Truef(t, ok, "surviving key %s lost during shrink", k)
	}
}
