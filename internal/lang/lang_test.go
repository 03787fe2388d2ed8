package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualifiedName(t *testing.T) {
	t.Run("String and Ident", func(t *testing.T) {
		n := Name("collections", "Stack", "push")
		assert.Equal(t, "collections::Stack::push", n.String())
		assert.Equal(t, "collections___Stack___push", n.Ident())
	})

	t.Run("Parse round trip", func(t *testing.T) {
		n := ParseName("a::b::c")
		assert.Equal(t, Name("a", "b", "c"), n)
		assert.Equal(t, n, UnflattenIdent(n.Ident()))
	})

	t.Run("Join does not mutate", func(t *testing.T) {
		n := Name("a", "b")
		joined := n.Join("c")
		assert.Equal(t, "a::b", n.String())
		assert.Equal(t, "a::b::c", joined.String())
	})

	t.Run("Ordering", func(t *testing.T) {
		assert.True(t, Name("a").Less(Name("b")))
		assert.True(t, Name("a").Less(Name("a", "b")))
		assert.False(t, Name("b", "a").Less(Name("b")))
	})
}

func TestTypeRef(t *testing.T) {
	t.Run("Precise path", func(t *testing.T) {
		tr := PreciseType(Name("collections", "Foo"))
		assert.False(t, tr.Generic())
		assert.Equal(t, "collections::Foo", tr.Path().String())
	})

	t.Run("Generic path expands args into last segment", func(t *testing.T) {
		tr := GenericType(Name("Foo"), PreciseType(Name("Bar")), PreciseType(Name("a", "Baz")))
		assert.True(t, tr.Generic())
		assert.Equal(t, "Foo<Bar, a::Baz>", tr.Path().String())
	})

	t.Run("EqualIgnoreArgs", func(t *testing.T) {
		g1 := GenericType(Name("Foo"), PreciseType(Name("Bar")))
		g2 := GenericType(Name("Foo"), PreciseType(Name("Baz")))
		p := PreciseType(Name("Foo"))
		assert.True(t, g1.EqualIgnoreArgs(g2))
		assert.False(t, g1.Equal(g2))
		assert.False(t, g1.EqualIgnoreArgs(p), "generic never matches precise")
		assert.True(t, p.EqualIgnoreArgs(PreciseType(Name("Foo"))))
	})

	t.Run("ParseTypeRef", func(t *testing.T) {
		tr := ParseTypeRef("Foo<Bar, a::Baz<u32>>")
		assert.Equal(t, "Foo", tr.Base.String())
		assert.Len(t, tr.Args, 2)
		assert.Equal(t, "a::Baz<u32>", tr.Args[1].Path().String())
		assert.Equal(t, PreciseType(Name("a", "B")), ParseTypeRef("a::B"))
	})
}

func TestSignatureEqual(t *testing.T) {
	u32 := PreciseType(Name("u32"))
	ret := PreciseType(Name("bool"))

	base := Signature{
		Ident: "push",
		Params: []Param{
			{Receiver: true, ByRef: true, Mutable: true},
			{Name: "x", Type: u32},
		},
		Return: &ret,
	}

	t.Run("identical signatures match", func(t *testing.T) {
		assert.True(t, base.Equal(base))
	})

	t.Run("different identifier", func(t *testing.T) {
		other := base
		other.Ident = "pop"
		assert.False(t, base.Equal(other))
	})

	t.Run("receiver versus typed parameter", func(t *testing.T) {
		other := base
		other.Params = []Param{
			{Name: "s", Type: PreciseType(Name("Stack"))},
			{Name: "x", Type: u32},
		}
		assert.False(t, base.Equal(other))
	})

	t.Run("return type mismatch", func(t *testing.T) {
		other := base
		r := PreciseType(Name("u64"))
		other.Return = &r
		assert.False(t, base.Equal(other))

		other.Return = nil
		assert.False(t, base.Equal(other))
	})

	t.Run("generic arguments are ignored", func(t *testing.T) {
		a := base
		a.Params = []Param{{Name: "v", Type: GenericType(Name("Vec"), u32)}}
		a.Return = nil
		b := a
		b.Params = []Param{{Name: "v", Type: GenericType(Name("Vec"), PreciseType(Name("i64")))}}
		assert.True(t, a.Equal(b))
	})
}
