package linhash

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loxia-systems/termtab/internal/term"
)

func TestFixDefersPhysicalDeletion(t *testing.T) {
	opts := DefaultOptions()
	opts.Semantics = BagSemantics
	tb, err := New(opts)
	require.NoError(t, err)

	require.NoError(t, tb.Insert(rec("a", term.Int64(1))))

	tb.Fix()
	require.True(t, tb.IsFixed())

	_, err = tb.Delete(term.Intern("a"))
	require.NoError(t, err)

	// Authoritative count drops immediately...
	require.Equal(t, int64(0), tb.Len())
	// ...but the entry is still physically linked as pseudo-deleted
	// until Unfix reclaims it.
	require.NotNil(t, tb.fix.log.Load())

	tb.Unfix()
	require.False(t, tb.IsFixed())
	require.Nil(t, tb.fix.log.Load())
}

func TestNestedFixationOnlyReclaimsAtZero(t *testing.T) {
	tb, err := New(DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, tb.Insert(rec("a", term.Int64(1))))

	tb.Fix()
	tb.Fix()
	require.Equal(t, int64(2), tb.FixCount())

	_, err = tb.Delete(term.Intern("a"))
	require.NoError(t, err)

	tb.Unfix()
	require.NotNil(t, tb.fix.log.Load(), "must not reclaim while still fixed once")

	tb.Unfix()
	require.Nil(t, tb.fix.log.Load())
}

// TestReclaimPreservesLaterEntriesInChain exercises a bucket chain
// with more than one live entry: deleting the head of the chain while
// fixed must not strand the entries behind it once Unfix reclaims the
// pseudo-deleted head.
func TestReclaimPreservesLaterEntriesInChain(t *testing.T) {
	opts := DefaultOptions()
	opts.Semantics = BagSemantics
	tb, err := New(opts)
	require.NoError(t, err)

	first := rec("a", term.Int64(1))
	second := rec("a", term.Int64(2))
	require.NoError(t, tb.Insert(first))
	require.NoError(t, tb.Insert(second))

	tb.Fix()
	require.NoError(t, tb.DeleteObject(first))
	require.Equal(t, int64(1), tb.Len())

	tb.Unfix()
	require.Nil(t, tb.fix.log.Load())

	objs, err := tb.Lookup(term.Intern("a"))
	require.NoError(t, err)
	require.Equal(t, []term.Term{second}, objs)
}
