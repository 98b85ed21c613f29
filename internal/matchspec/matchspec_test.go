package matchspec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loxia-systems/termtab/internal/term"
)

func TestClassifyKeyed(t *testing.T) {
	head := term.Tuple{term.Int64(1), term.Intern("_")}
	prog, err := Compile(head, nil, head, 1)
	require.NoError(t, err)
	require.Equal(t, Keyed, prog.Kind())

	key, ok := prog.KeyLiteral()
	require.True(t, ok)
	require.True(t, key.Equal(term.Int64(1)))
}

func TestClassifyScanningOnWildcardKey(t *testing.T) {
	head := term.Tuple{term.Intern("_"), term.Intern("_")}
	prog, err := Compile(head, nil, head, 1)
	require.NoError(t, err)
	require.Equal(t, Scanning, prog.Kind())
}

func TestMatchAndOutput(t *testing.T) {
	head := term.Tuple{term.Intern("$1"), term.Intern("$2")}
	body := term.Tuple{term.Intern("$2"), term.Intern("$1")}
	prog, err := Compile(head, nil, body, 1)
	require.NoError(t, err)

	bindings, ok := prog.Match(term.Tuple{term.Int64(1), term.Binary("v")})
	require.True(t, ok)

	out, err := prog.Output(bindings)
	require.NoError(t, err)
	require.True(t, out.Equal(term.Tuple{term.Binary("v"), term.Int64(1)}))
}

func TestRepeatedCaptureRejectsMismatch(t *testing.T) {
	head := term.Tuple{term.Intern("$1"), term.Intern("$1")}
	prog, err := Compile(head, nil, head, 1)
	require.NoError(t, err)

	_, ok := prog.Match(term.Tuple{term.Int64(1), term.Int64(2)})
	require.False(t, ok, "repeated capture var should require equal values")

	_, ok = prog.Match(term.Tuple{term.Int64(1), term.Int64(1)})
	require.True(t, ok)
}

func TestGuardNeq(t *testing.T) {
	head := term.Tuple{term.Intern("$1"), term.Intern("$2")}
	guards := []Guard{{Op: GuardNeq, A: 1, B: 2}}
	prog, err := Compile(head, guards, head, 1)
	require.NoError(t, err)

	_, ok := prog.Match(term.Tuple{term.Int64(1), term.Int64(1)})
	require.False(t, ok)

	_, ok = prog.Match(term.Tuple{term.Int64(1), term.Int64(2)})
	require.True(t, ok)
}

func TestIsKeyPreserving(t *testing.T) {
	head := term.Tuple{term.Intern("$1"), term.Intern("$2")}

	preserving := term.Tuple{term.Intern("$1"), term.Intern("$2")}
	prog, err := Compile(head, nil, preserving, 1)
	require.NoError(t, err)
	require.True(t, prog.IsKeyPreserving())

	nonPreserving := term.Tuple{term.Intern("$2"), term.Intern("$1")}
	prog2, err := Compile(head, nil, nonPreserving, 1)
	require.NoError(t, err)
	require.False(t, prog2.IsKeyPreserving())
}

func TestCompileRejectsUnboundGuardCapture(t *testing.T) {
	head := term.Tuple{term.Intern("$1"), term.Intern("_")}
	guards := []Guard{{Op: GuardEq, A: 1, B: 2}}
	_, err := Compile(head, guards, head, 1)
	require.Error(t, err)
}
