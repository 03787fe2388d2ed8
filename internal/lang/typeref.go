package lang

import "strings"

// TypeRef refers to a named type, either precise (`Foo`, `collections::Foo`)
// or generic (`Foo<Bar, Baz>`). A ref is generic iff it carries arguments.
type TypeRef struct {
	Base QualifiedName
	Args []TypeRef
}

// PreciseType builds a non-generic reference.
func PreciseType(base QualifiedName) TypeRef {
	return TypeRef{Base: base}
}

// GenericType builds a reference with generic arguments.
func GenericType(base QualifiedName, args ...TypeRef) TypeRef {
	return TypeRef{Base: base, Args: args}
}

func (t TypeRef) Generic() bool {
	return len(t.Args) > 0
}

// Path renders the reference as a qualified name, with generic arguments
// expanded into the final segment: `collections::Foo<Bar>`.
func (t TypeRef) Path() QualifiedName {
	if !t.Generic() {
		return t.Base
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.Path().String()
	}
	out := make(QualifiedName, len(t.Base))
	copy(out, t.Base)
	out[len(out)-1] = out[len(out)-1] + "<" + strings.Join(args, ", ") + ">"
	return out
}

func (t TypeRef) String() string {
	return t.Path().String()
}

// Key renders the reference into a string usable as a map key.
func (t TypeRef) Key() string {
	return t.Path().String()
}

func (t TypeRef) Equal(other TypeRef) bool {
	if !t.Base.Equal(other.Base) || len(t.Args) != len(other.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(other.Args[i]) {
			return false
		}
	}
	return true
}

// EqualIgnoreArgs compares two refs disregarding generic arguments:
// two generic refs match on their base paths alone, two precise refs must
// be fully equal, and a generic ref never matches a precise one.
func (t TypeRef) EqualIgnoreArgs(other TypeRef) bool {
	if t.Generic() != other.Generic() {
		return false
	}
	if t.Generic() {
		return t.Base.Equal(other.Base)
	}
	return t.Equal(other)
}

// ParseTypeRef parses a rendered type path such as `Foo`, `a::b::Foo` or
// `Foo<Bar, a::Baz>` back into a TypeRef. Malformed input yields a precise
// ref over the raw string, never an error: callers use this for
// configuration values where a best-effort reading is preferable.
func ParseTypeRef(s string) TypeRef {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '<')
	if open < 0 || !strings.HasSuffix(s, ">") {
		return PreciseType(ParseName(s))
	}
	base := ParseName(s[:open])
	inner := s[open+1 : len(s)-1]
	var args []TypeRef
	depth, start := 0, 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, ParseTypeRef(inner[start:i]))
				start = i + 1
			}
		}
	}
	if strings.TrimSpace(inner[start:]) != "" {
		args = append(args, ParseTypeRef(inner[start:]))
	}
	return GenericType(base, args...)
}
