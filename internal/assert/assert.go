// Package assert provides the invariant-crash helpers used throughout
// internal/matcher and internal/matchtxn wherever spec.md names a
// condition the transaction layer must never observe false (the
// InvariantViolation disposition). Grounded on xlymian-dgraph's
// x.AssertTrue/x.AssertTruef idiom (worker/draft.go).
package assert

import "fmt"

// True panics if cond is false. Reserved for conditions the matcher's own
// logic guarantees — never for validating untrusted input.
func True(cond bool) {
	if !cond {
		panic("assert: invariant violated")
	}
}

// Truef is True with a formatted message, for call sites where the bare
// panic above wouldn't say enough to debug from a crash log alone.
func Truef(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("assert: "+format, args...))
	}
}
