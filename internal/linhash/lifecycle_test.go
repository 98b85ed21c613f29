package linhash

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loxia-systems/termtab/internal/term"
)

func TestFreeContinueDrainsIncrementally(t *testing.T) {
	opts := DefaultOptions()
	opts.Semantics = BagSemantics
	tb, err := New(opts)
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		k := fmt.Sprintf("k%d", i)
		require.NoError(t, tb.Insert(rec(k, term.Int64(int64(i)))))
	}

	done := tb.FreeContinue(10)
	require.False(t, done, "500 entries spread over about 500 slots should need more than one 10-slot chunk")

	for !done {
		done = tb.FreeContinue(10)
	}
	require.Equal(t, int64(0), tb.Len())
	require.Equal(t, uint64(firstSegSize), tb.currentNslots())
}
