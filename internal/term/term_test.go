package term

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestAtomEqualityIsByIdentity(t *testing.T) {
	a1 := Intern("foo")
	a2 := Intern("foo")
	b := Intern("bar")

	require.True(t, a1.Equal(a2))
	require.Equal(t, a1.Hash(), a2.Hash())
	require.False(t, a1.Equal(b))
}

func TestTupleEqualityIsOrderSensitive(t *testing.T) {
	a := Tuple{Int64(1), Intern("x")}
	b := Tuple{Intern("x"), Int64(1)}

	require.False(t, a.Equal(b))
	require.NotEqual(t, a.Hash(), b.Hash())
}

func TestTupleEqualityStructural(t *testing.T) {
	a := Tuple{Int64(1), Binary("hi"), List{Int64(2), Int64(3)}}
	b := Tuple{Int64(1), Binary("hi"), List{Int64(2), Int64(3)}}

	require.True(t, a.Equal(b))
	require.Equal(t, a.Hash(), b.Hash())
}

func TestHashTopBitAlwaysClear(t *testing.T) {
	terms := []Term{
		Intern("alpha"),
		Int64(-1),
		Float64(3.14),
		Binary("payload"),
		Tuple{Int64(1), Int64(2)},
		List{Intern("a"), Intern("b")},
	}
	for _, term := range terms {
		require.Zero(t, term.Hash()&0x80000000, "term %v set the reserved top bit", term)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Term{
		Intern("ok"),
		Int64(42),
		Float64(-0.5),
		Binary([]byte{1, 2, 3}),
		Tuple{Intern("user"), Int64(7), Binary("x")},
		List{Int64(1), Int64(2), Int64(3)},
		Tuple{List{Int64(1)}, Tuple{Intern("nested")}},
	}

	for _, in := range cases {
		buf := Encode(nil, in)
		out, n, err := Decode(buf)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
		if diff := cmp.Diff(in.String(), out.String()); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
		require.True(t, in.Equal(out), "decoded term not structurally equal to input")
	}
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	in := Tuple{Intern("key"), Binary([]byte("a reasonably compressible payload payload payload"))}

	compressed, err := Compress(in)
	require.NoError(t, err)

	out, err := Decompress(compressed)
	require.NoError(t, err)
	require.True(t, in.Equal(out))
}

func TestTupleElem(t *testing.T) {
	tup := Tuple{Int64(1), Intern("b"), Int64(3)}

	v, ok := tup.Elem(2)
	require.True(t, ok)
	require.Equal(t, Intern("b"), v)

	_, ok = tup.Elem(0)
	require.False(t, ok)

	_, ok = tup.Elem(4)
	require.False(t, ok)
}
