// Package diagnostics provides small debugging and invariant-checking
// helpers shared across loom: dumping a value to stderr, naming a call
// site, and asserting the programming-error invariants spec.md §7 says are
// "not user-facing failure modes" (a broken table invariant, a tracker
// missing when it must be alive).
//
// Adapted from the teacher's debug package: Dump and Caller carry over
// unchanged in spirit, Outline is dropped since it traces a Gio widget
// border and has nothing to adapt to here.
package diagnostics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
)

// Dump logs v as formatted JSON on stderr.
func Dump(v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	b = append(b, '\n')
	io.Copy(os.Stderr, bytes.NewBuffer(b))
}

// Caller returns the file:line nFrames above it on the call stack. Passing
// 3 returns the details of the function invoking the function in which
// Caller was invoked.
func Caller(nFrames int) string {
	fpcs := make([]uintptr, 1)
	n := runtime.Callers(nFrames, fpcs)
	if n == 0 {
		return "NO CALLER"
	}

	caller := runtime.FuncForPC(fpcs[0] - 1)
	if caller == nil {
		return "MSG CALLER WAS NIL"
	}

	file, line := caller.FileLine(fpcs[0] - 1)
	return fmt.Sprintf("%s:%d", file, line)
}

// assertFailed panics with a message identifying the broken invariant.
// Reached only by programming errors (spec §7); in this module, a
// remap.Remapping.Remap index out of range and a publishRoot call with a
// kind that has no Succeeded destination.
func assertFailed(failure, text string) {
	panic(fmt.Sprintf("assertion failed, code bug? -- %s -- %s", failure, text))
}

// AssertTrue panics if value is false.
func AssertTrue(value bool, text string) {
	if !value {
		assertFailed("expected false to be true", text)
	}
}

// AssertEqual panics if lhs != rhs.
func AssertEqual[T comparable](lhs, rhs T, text string) {
	if lhs != rhs {
		assertFailed(fmt.Sprintf("expected %v == %v", lhs, rhs), text)
	}
}

// AssertNotNil panics if v is nil. Generic over the pointee type so a
// typed nil pointer (e.g. (*handle.UsageTracker)(nil)) is still correctly
// detected -- boxing it through interface{} first would not be.
func AssertNotNil[T any](v *T, text string) {
	if v == nil {
		assertFailed("expected non-nil value", text)
	}
}
