//go:build linhash_release

package linhash

// debugAssert is a no-op in release builds; see debug_assert.go.
func debugAssert(cond bool, msg string) {}
