package linhash

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loxia-systems/termtab/internal/matchspec"
	"github.com/loxia-systems/termtab/internal/term"
)

func TestSelectKeyedLookup(t *testing.T) {
	tb, err := New(DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, tb.Insert(rec("a", term.Int64(1))))
	require.NoError(t, tb.Insert(rec("b", term.Int64(2))))

	head := term.Tuple{term.Intern("a"), term.Intern("$1")}
	prog, err := matchspec.Compile(head, nil, term.Intern("$1"), 1)
	require.NoError(t, err)
	require.Equal(t, matchspec.Keyed, prog.Kind())

	out, err := tb.Select(prog)
	require.NoError(t, err)
	require.Equal(t, []term.Term{term.Int64(1)}, out)
}

func TestSelectScanningAcrossManyEntries(t *testing.T) {
	opts := DefaultOptions()
	opts.Semantics = BagSemantics
	tb, err := New(opts)
	require.NoError(t, err)

	const n = 3000
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("k%d", i)
		require.NoError(t, tb.Insert(rec(k, term.Int64(int64(i)))))
	}

	head := term.Tuple{term.Intern("_"), term.Intern("$1")}
	prog, err := matchspec.Compile(head, nil, term.Intern("$1"), 1)
	require.NoError(t, err)
	require.Equal(t, matchspec.Scanning, prog.Kind())

	out, err := tb.Select(prog)
	require.NoError(t, err)
	require.Len(t, out, n)
}

func TestSelectChunkTrapsAndResumes(t *testing.T) {
	opts := DefaultOptions()
	opts.Semantics = BagSemantics
	tb, err := New(opts)
	require.NoError(t, err)

	for i := 0; i < reductionBudget*3; i++ {
		k := fmt.Sprintf("k%d", i)
		require.NoError(t, tb.Insert(rec(k, term.Int64(int64(i)))))
	}

	head := term.Tuple{term.Intern("_"), term.Intern("$1")}
	prog, err := matchspec.Compile(head, nil, term.Intern("$1"), 1)
	require.NoError(t, err)

	first, cont, err := tb.SelectChunk(prog, OpSelect, reductionBudget)
	require.NoError(t, err)
	require.NotNil(t, cont)
	require.NotEmpty(t, first)

	total := len(first)
	for cont != nil {
		var chunk []term.Term
		chunk, cont, err = tb.SelectContinue(cont)
		require.NoError(t, err)
		total += len(chunk)
	}
	require.Equal(t, reductionBudget*3, total)
}

func TestSelectDeleteRemovesMatches(t *testing.T) {
	opts := DefaultOptions()
	opts.Semantics = BagSemantics
	tb, err := New(opts)
	require.NoError(t, err)

	require.NoError(t, tb.Insert(rec("a", term.Int64(1))))
	require.NoError(t, tb.Insert(rec("b", term.Int64(2))))

	head := term.Tuple{term.Intern("a"), term.Intern("$1")}
	prog, err := matchspec.Compile(head, nil, term.Intern("$1"), 1)
	require.NoError(t, err)

	n, err := tb.SelectDelete(prog)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, int64(1), tb.Len())

	ok, err := tb.Member(term.Intern("a"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSelectReplaceRejectsNonKeyPreserving(t *testing.T) {
	tb, err := New(DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, tb.Insert(rec("a", term.Int64(1))))

	head := term.Tuple{term.Intern("$1"), term.Intern("$2")}
	body := term.Tuple{term.Intern("b"), term.Intern("$2")}
	prog, err := matchspec.Compile(head, nil, body, 1)
	require.NoError(t, err)
	require.False(t, prog.IsKeyPreserving())

	_, err = tb.SelectReplace(prog)
	require.Error(t, err)
}

func TestSelectReplaceRewritesValue(t *testing.T) {
	tb, err := New(DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, tb.Insert(rec("a", term.Int64(1))))

	head := term.Tuple{term.Intern("$1"), term.Intern("$2")}
	body := term.Tuple{term.Intern("$1"), term.Int64(99)}
	prog, err := matchspec.Compile(head, nil, body, 1)
	require.NoError(t, err)
	require.True(t, prog.IsKeyPreserving())

	n, err := tb.SelectReplace(prog)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	objs, err := tb.Lookup(term.Intern("a"))
	require.NoError(t, err)
	tup := objs[0].(term.Tuple)
	v, _ := tup.Elem(2)
	require.Equal(t, term.Int64(99), v)
}
