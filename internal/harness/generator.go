// Package harness turns classified function pairs into one generated
// comparison artifact. The generator owns everything the engines share
// (capability imports, argument containers, receiver shapes, hook order)
// while a Backend contributes the engine-specific routine bodies and the
// final file shape.
package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"verieq/internal/classify"
	"verieq/internal/lang"
)

// ReceiverShape is the method receiver exactly as declared.
type ReceiverShape struct {
	ByRef   bool
	Mutable bool
}

// Prefix renders the argument prefix used when the method is invoked in
// path form: `Stack::push(&mut s, x)`.
func (r ReceiverShape) Prefix() string {
	switch {
	case r.ByRef && r.Mutable:
		return "&mut "
	case r.ByRef:
		return "&"
	case r.Mutable:
		return "mut "
	}
	return ""
}

// Backend supplies the engine-specific pieces of a harness. Hooks are
// invoked in a fixed order (arg structs, function routines, method
// routines, auxiliary code, assembly) and must not depend on each other's
// side effects.
type Backend interface {
	// ArgStructAttrs returns the attribute lines placed on every
	// generated argument container.
	ArgStructAttrs() string

	// FunctionHarness builds the comparison routine for one free function.
	// args are the container field names in declaration order.
	FunctionHarness(fn *lang.MatchedFunction, args []string, pre *lang.Precondition) string

	// MethodHarness builds the comparison routine for one method, with its
	// constructor and optional state getter.
	MethodHarness(m, ctor, getter *lang.MatchedFunction, methodArgs, ctorArgs []string, recv ReceiverShape, pre *lang.Precondition) string

	// Auxiliary contributes engine-specific glue such as a dispatch table.
	Auxiliary(b *classify.Buckets) string

	// Assemble produces the final artifact from the rendered pieces.
	Assemble(imports, argStructs, functions, methods []string, auxiliary string) string
}

// Generator drives a Backend over a set of classified pairs.
type Generator struct {
	buckets  *classify.Buckets
	preconds []lang.Precondition
	backend  Backend
}

func New(buckets *classify.Buckets, preconds []lang.Precondition, backend Backend) *Generator {
	return &Generator{buckets: buckets, preconds: preconds, backend: backend}
}

// CheckedNames lists the qualified names the artifact will exercise:
// every free function and method, in generation order.
func (g *Generator) CheckedNames() []lang.QualifiedName {
	var names []lang.QualifiedName
	for _, fn := range g.buckets.Functions {
		names = append(names, fn.Name)
	}
	for _, m := range g.buckets.Methods {
		names = append(names, m.Name)
	}
	return names
}

// Generate produces the comparison artifact. A method without a
// constructor cannot occur after classifier pruning; seeing one here is an
// internal consistency fault, not a checkable outcome.
func (g *Generator) Generate() (string, error) {
	imports := g.renderImports()
	argStructs := g.renderArgStructs()

	var functions []string
	for _, fn := range g.buckets.Functions {
		functions = append(functions, g.backend.FunctionHarness(fn, paramNames(fn), g.precondFor(fn, false)))
	}

	var methods []string
	for _, m := range g.buckets.Methods {
		ctor, ok := g.buckets.Constructors[m.Owner.Key()]
		if !ok {
			return "", errors.Errorf("internal: method %s survived pruning without a constructor", m.Name)
		}
		getter := g.buckets.Getters[m.Owner.Key()]
		recv, _ := m.Sig.Receiver()
		shape := ReceiverShape{ByRef: recv.ByRef, Mutable: recv.Mutable}
		methods = append(methods, g.backend.MethodHarness(
			m, ctor, getter, paramNames(m), paramNames(ctor), shape, g.precondFor(m, true)))
	}

	auxiliary := g.backend.Auxiliary(g.buckets)
	return g.backend.Assemble(imports, argStructs, functions, methods, auxiliary), nil
}

// renderImports computes the deduplicated capability imports, one aliased
// `use` per implemented trait per version namespace.
func (g *Generator) renderImports() []string {
	seen := make(map[string]lang.QualifiedName)
	collect := func(pairs []*lang.MatchedFunction) {
		for _, p := range pairs {
			if p.Trait != nil {
				seen[p.Trait.String()] = *p.Trait
			}
		}
	}
	collect(g.buckets.Functions)
	collect(g.buckets.Methods)
	for _, p := range g.buckets.Constructors {
		collect([]*lang.MatchedFunction{p})
	}
	for _, p := range g.buckets.Getters {
		collect([]*lang.MatchedFunction{p})
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		trait := seen[k]
		out = append(out,
			fmt.Sprintf("use mod1::%s as Mod1%s;", trait, trait.Last()),
			fmt.Sprintf("use mod2::%s as Mod2%s;", trait, trait.Last()))
	}
	return out
}

// renderArgStructs emits one argument container per free function, per
// used constructor and per method, in that order.
func (g *Generator) renderArgStructs() []string {
	var out []string
	for _, fn := range g.buckets.Functions {
		out = append(out, g.renderArgStruct(fn))
	}

	seenCtors := make(map[string]bool)
	var methodStructs []string
	for _, m := range g.buckets.Methods {
		methodStructs = append(methodStructs, g.renderArgStruct(m))
		ctor := g.buckets.Constructors[m.Owner.Key()]
		if ctor != nil && !seenCtors[ctor.Name.String()] {
			seenCtors[ctor.Name.String()] = true
			out = append(out, g.renderArgStruct(ctor))
		}
	}
	return append(out, methodStructs...)
}

func (g *Generator) renderArgStruct(fn *lang.MatchedFunction) string {
	var b strings.Builder
	if attrs := g.backend.ArgStructAttrs(); attrs != "" {
		b.WriteString(attrs)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "pub struct %s {\n", ArgStructName(fn))
	for _, p := range fn.Sig.TypedParams() {
		fmt.Fprintf(&b, "    pub %s: %s,\n", p.Name, p.Text)
	}
	b.WriteString("}")
	return b.String()
}

// ArgStructName is the container type name for a pair's arguments.
func ArgStructName(fn *lang.MatchedFunction) string {
	return "Args" + fn.Name.Ident()
}

// RoutineName is the comparison routine name for a pair.
func RoutineName(fn *lang.MatchedFunction) string {
	return "check_" + fn.Name.Ident()
}

func (g *Generator) precondFor(fn *lang.MatchedFunction, method bool) *lang.Precondition {
	for i := range g.preconds {
		if g.preconds[i].Method == method && g.preconds[i].Name.Equal(fn.Name) {
			return &g.preconds[i]
		}
	}
	return nil
}

func paramNames(fn *lang.MatchedFunction) []string {
	var names []string
	for _, p := range fn.Sig.TypedParams() {
		names = append(names, p.Name)
	}
	return names
}
