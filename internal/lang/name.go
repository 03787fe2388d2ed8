package lang

import "strings"

// QualifiedName is the scoped identifier of a function or type,
// e.g. `collections::Stack::push`. Values are treated as immutable:
// Join returns a fresh name and never mutates the receiver.
type QualifiedName []string

// Name builds a qualified name from its segments.
func Name(segments ...string) QualifiedName {
	return QualifiedName(segments)
}

// ParseName splits a `::`-separated path into a qualified name.
func ParseName(s string) QualifiedName {
	return QualifiedName(strings.Split(s, "::"))
}

// String renders the name with `::` separators.
func (n QualifiedName) String() string {
	return strings.Join(n, "::")
}

// Ident flattens the name into a single identifier with `___` separators,
// usable as a function or struct name inside a generated harness.
func (n QualifiedName) Ident() string {
	return strings.Join(n, "___")
}

// UnflattenIdent is the inverse of Ident: it restores a qualified name
// from its `___`-flattened form.
func UnflattenIdent(ident string) QualifiedName {
	return QualifiedName(strings.Split(ident, "___"))
}

// Join returns a new name with seg appended. The receiver is not modified.
func (n QualifiedName) Join(seg string) QualifiedName {
	out := make(QualifiedName, 0, len(n)+1)
	out = append(out, n...)
	return append(out, seg)
}

// Last returns the final segment, or "" for an empty name.
func (n QualifiedName) Last() string {
	if len(n) == 0 {
		return ""
	}
	return n[len(n)-1]
}

func (n QualifiedName) Empty() bool {
	return len(n) == 0
}

func (n QualifiedName) Equal(other QualifiedName) bool {
	if len(n) != len(other) {
		return false
	}
	for i := range n {
		if n[i] != other[i] {
			return false
		}
	}
	return true
}

// Less orders names lexicographically by segment.
func (n QualifiedName) Less(other QualifiedName) bool {
	for i := 0; i < len(n) && i < len(other); i++ {
		if n[i] != other[i] {
			return n[i] < other[i]
		}
	}
	return len(n) < len(other)
}
