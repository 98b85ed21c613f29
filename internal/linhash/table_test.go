package linhash

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loxia-systems/termtab/internal/term"
)

func rec(key string, rest ...term.Term) term.Tuple {
	elems := append([]term.Term{term.Intern(key)}, rest...)
	return term.Tuple(elems)
}

func TestSetSemanticsOverwritesOnSameKey(t *testing.T) {
	tb, err := New(DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, tb.Insert(rec("a", term.Int64(1))))
	require.NoError(t, tb.Insert(rec("a", term.Int64(2))))

	objs, err := tb.Lookup(term.Intern("a"))
	require.NoError(t, err)
	require.Len(t, objs, 1)
	require.Equal(t, int64(1), tb.Len())

	tup := objs[0].(term.Tuple)
	v, _ := tup.Elem(2)
	require.Equal(t, term.Int64(2), v)
}

func TestSetUniqueFailOnClash(t *testing.T) {
	opts := DefaultOptions()
	opts.Semantics = SetUniqueFailOnClash
	tb, err := New(opts)
	require.NoError(t, err)

	require.NoError(t, tb.Insert(rec("a", term.Int64(1))))
	err = tb.Insert(rec("a", term.Int64(2)))
	require.Error(t, err)
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	require.Equal(t, BADKEY, lerr.Code)
}

func TestBagSuppressesStructuralDuplicates(t *testing.T) {
	opts := DefaultOptions()
	opts.Semantics = BagSemantics
	tb, err := New(opts)
	require.NoError(t, err)

	require.NoError(t, tb.Insert(rec("a", term.Int64(1))))
	require.NoError(t, tb.Insert(rec("a", term.Int64(1))))
	require.NoError(t, tb.Insert(rec("a", term.Int64(2))))

	objs, err := tb.Lookup(term.Intern("a"))
	require.NoError(t, err)
	require.Len(t, objs, 2)
	require.Equal(t, []term.Term{rec("a", term.Int64(1)), rec("a", term.Int64(2))}, objs)
}

func TestDBagKeepsStructuralDuplicates(t *testing.T) {
	opts := DefaultOptions()
	opts.Semantics = DBagSemantics
	tb, err := New(opts)
	require.NoError(t, err)

	require.NoError(t, tb.Insert(rec("a", term.Int64(1))))
	require.NoError(t, tb.Insert(rec("a", term.Int64(1))))
	require.NoError(t, tb.Insert(rec("a", term.Int64(2))))

	objs, err := tb.Lookup(term.Intern("a"))
	require.NoError(t, err)
	require.Len(t, objs, 3)
	require.Equal(t, []term.Term{rec("a", term.Int64(1)), rec("a", term.Int64(1)), rec("a", term.Int64(2))}, objs)
}

func TestDeleteRemovesAllEntriesForKey(t *testing.T) {
	opts := DefaultOptions()
	opts.Semantics = BagSemantics
	tb, err := New(opts)
	require.NoError(t, err)

	require.NoError(t, tb.Insert(rec("a", term.Int64(1))))
	require.NoError(t, tb.Insert(rec("a", term.Int64(2))))
	require.NoError(t, tb.Insert(rec("b", term.Int64(3))))

	removed, err := tb.Delete(term.Intern("a"))
	require.NoError(t, err)
	require.Len(t, removed, 2)

	member, err := tb.Member(term.Intern("a"))
	require.NoError(t, err)
	require.False(t, member)

	member, err = tb.Member(term.Intern("b"))
	require.NoError(t, err)
	require.True(t, member)
	require.Equal(t, int64(1), tb.Len())
}

func TestDeleteObjectRemovesOnlyMatchingElement(t *testing.T) {
	opts := DefaultOptions()
	opts.Semantics = BagSemantics
	tb, err := New(opts)
	require.NoError(t, err)

	a1 := rec("a", term.Int64(1))
	a2 := rec("a", term.Int64(2))
	require.NoError(t, tb.Insert(a1))
	require.NoError(t, tb.Insert(a2))

	require.NoError(t, tb.DeleteObject(a1))

	objs, err := tb.Lookup(term.Intern("a"))
	require.NoError(t, err)
	require.Len(t, objs, 1)
	tup := objs[0].(term.Tuple)
	v, _ := tup.Elem(2)
	require.Equal(t, term.Int64(2), v)
}

func TestGetElement(t *testing.T) {
	tb, err := New(DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, tb.Insert(rec("a", term.Int64(7))))

	vals, err := tb.GetElement(term.Intern("a"), 2)
	require.NoError(t, err)
	require.Equal(t, []term.Term{term.Int64(7)}, vals)
}

func TestCompressedStorageRoundTrips(t *testing.T) {
	opts := DefaultOptions()
	opts.Compressed = true
	tb, err := New(opts)
	require.NoError(t, err)

	obj := rec("a", term.Binary([]byte("hello world, this is compressible")))
	require.NoError(t, tb.Insert(obj))

	objs, err := tb.Lookup(term.Intern("a"))
	require.NoError(t, err)
	require.Len(t, objs, 1)
	require.True(t, objs[0].Equal(obj))
}

func TestLenMatchesLiveEntryCount(t *testing.T) {
	opts := DefaultOptions()
	opts.Semantics = BagSemantics
	tb, err := New(opts)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		require.NoError(t, tb.Insert(rec("k", term.Int64(int64(i)))))
	}
	require.Equal(t, int64(50), tb.Len())

	_, err = tb.Delete(term.Intern("k"))
	require.NoError(t, err)
	require.Equal(t, int64(0), tb.Len())
}
