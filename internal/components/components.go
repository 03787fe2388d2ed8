// Package components implements the concrete equivalence checks: textual
// identity, Kani model checking, proptest property testing, differential
// fuzzing and alive-tv translation validation. Each engine-backed
// component wraps a harness backend, a scratch cargo project and a
// report parser for the engine's textual output.
package components

import (
	"fmt"
	"strings"
)

// callArgs renders a comma-separated argument list pulling each field out
// of a container variable: `s.a.clone(), s.b.clone()`.
func callArgs(containerVar string, args []string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%s.%s.clone()", containerVar, a)
	}
	return strings.Join(parts, ", ")
}

// withReceiver prepends the receiver expression to a rendered argument
// list, dropping the separator when the list is empty.
func withReceiver(recv, calls string) string {
	if calls == "" {
		return recv
	}
	return recv + ", " + calls
}

// join flattens rendered harness pieces with blank lines between them.
func join(pieces ...[]string) string {
	var flat []string
	for _, p := range pieces {
		flat = append(flat, p...)
	}
	return strings.Join(flat, "\n\n")
}
