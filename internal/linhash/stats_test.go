package linhash

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loxia-systems/termtab/internal/term"
)

func TestStatsReflectsSizeAndSlots(t *testing.T) {
	opts := DefaultOptions()
	opts.Semantics = BagSemantics
	tb, err := New(opts)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		k := fmt.Sprintf("k%d", i)
		require.NoError(t, tb.Insert(rec(k, term.Int64(int64(i)))))
	}

	st := tb.Stats()
	require.Equal(t, int64(10), st.Size)
	require.Equal(t, uint64(firstSegSize), st.NumSlots)
	require.Equal(t, 1, st.NumSegments)
	require.GreaterOrEqual(t, st.MaxChainLen, 0)
}

func TestPrintWritesOneLinePerLiveEntry(t *testing.T) {
	tb, err := New(DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, tb.Insert(rec("a", term.Int64(1))))
	require.NoError(t, tb.Insert(rec("b", term.Int64(2))))

	var buf bytes.Buffer
	require.NoError(t, tb.Print(&buf))
	require.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestDeleteAllObjectsEmptiesTable(t *testing.T) {
	opts := DefaultOptions()
	opts.Semantics = BagSemantics
	tb, err := New(opts)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		k := fmt.Sprintf("k%d", i)
		require.NoError(t, tb.Insert(rec(k, term.Int64(int64(i)))))
	}
	tb.DeleteAllObjects()
	require.Equal(t, int64(0), tb.Len())
	require.Equal(t, uint64(firstSegSize), tb.currentNslots())
}
