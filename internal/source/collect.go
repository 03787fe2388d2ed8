package source

import (
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"verieq/internal/lang"
)

// collector walks the syntax tree accumulating declarations. It keeps a
// module stack for qualified naming and a `use` alias map for resolving
// imported type names.
type collector struct {
	src       []byte
	log       *slog.Logger
	modules   []string
	useAlias  map[string]lang.QualifiedName
	functions []lang.FunctionRecord
	traits    []lang.QualifiedName
	aliases   []lang.InstantiatedAlias
}

func newCollector(src []byte, log *slog.Logger) *collector {
	return &collector{src: src, log: log, useAlias: map[string]lang.QualifiedName{}}
}

func (c *collector) walk(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "mod_item":
			c.walkModule(child)
		case "use_declaration":
			if arg := child.ChildByFieldName("argument"); arg != nil {
				c.collectUse(arg, nil)
			}
		case "function_item":
			c.collectFunction(child, nil, nil)
		case "impl_item":
			c.walkImpl(child)
		case "trait_item":
			if name := child.ChildByFieldName("name"); name != nil {
				c.traits = append(c.traits, c.qualify(name.Content(c.src)))
			}
		case "type_item":
			c.collectTypeAlias(child)
		}
	}
}

func (c *collector) walkModule(node *sitter.Node) {
	name := node.ChildByFieldName("name")
	body := node.ChildByFieldName("body")
	if name == nil || body == nil {
		return
	}
	c.modules = append(c.modules, name.Content(c.src))
	c.walk(body)
	c.modules = c.modules[:len(c.modules)-1]
}

func (c *collector) walkImpl(node *sitter.Node) {
	typeNode := node.ChildByFieldName("type")
	body := node.ChildByFieldName("body")
	if typeNode == nil || body == nil {
		return
	}
	owner, ok := c.typeRef(typeNode)
	if !ok {
		c.log.Debug("skipping impl block with unsupported self type",
			slog.String("type", typeNode.Content(c.src)))
		return
	}
	owner.Base = c.resolve(owner.Base)

	var trait *lang.QualifiedName
	if traitNode := node.ChildByFieldName("trait"); traitNode != nil {
		if t, ok := c.typeRef(traitNode); ok {
			name := c.resolve(t.Base)
			trait = &name
		}
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() == "function_item" {
			c.collectFunction(child, &owner, trait)
		}
	}
}

// collectFunction records one function or impl method. Functions with
// their own generic parameters are skipped: they cannot be invoked from a
// harness without instantiation.
func (c *collector) collectFunction(node *sitter.Node, owner *lang.TypeRef, trait *lang.QualifiedName) {
	if node.ChildByFieldName("type_parameters") != nil {
		return
	}
	nameNode := node.ChildByFieldName("name")
	body := node.ChildByFieldName("body")
	if nameNode == nil || body == nil {
		return
	}
	ident := nameNode.Content(c.src)

	sig := lang.Signature{Ident: ident}
	if params := node.ChildByFieldName("parameters"); params != nil {
		sig.Params = c.collectParams(params)
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		r, ok := c.typeRef(ret)
		if !ok {
			r = unsupportedType()
		}
		sig.Return = &r
	}

	var name lang.QualifiedName
	if owner != nil {
		name = owner.Path().Join(ident)
	} else {
		name = c.qualify(ident)
	}

	c.functions = append(c.functions, lang.FunctionRecord{
		Name:  name,
		Sig:   sig,
		Owner: owner,
		Trait: trait,
		Body:  body.Content(c.src),
	})
}

func (c *collector) collectParams(params *sitter.Node) []lang.Param {
	var out []lang.Param
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "self_parameter":
			text := p.Content(c.src)
			out = append(out, lang.Param{
				Receiver: true,
				ByRef:    strings.Contains(text, "&"),
				Mutable:  strings.Contains(text, "mut"),
			})
		case "parameter":
			pattern := p.ChildByFieldName("pattern")
			typeNode := p.ChildByFieldName("type")
			if typeNode == nil {
				continue
			}
			name := "arg"
			if pattern != nil && pattern.Type() == "identifier" {
				name = pattern.Content(c.src)
			}
			t, ok := c.typeRef(typeNode)
			if !ok {
				t = unsupportedType()
			}
			out = append(out, lang.Param{
				Name: name,
				Type: t,
				Text: typeNode.Content(c.src),
			})
		}
	}
	return out
}

// collectTypeAlias records `type A = Foo<Bar>` style aliases. Aliases over
// non-generic types carry no instantiation information and are ignored.
func (c *collector) collectTypeAlias(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	typeNode := node.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil || node.ChildByFieldName("type_parameters") != nil {
		return
	}
	concrete, ok := c.typeRef(typeNode)
	if !ok || !concrete.Generic() {
		return
	}
	concrete.Base = c.resolve(concrete.Base)
	c.aliases = append(c.aliases, lang.InstantiatedAlias{
		Alias:    c.qualify(nameNode.Content(c.src)),
		Concrete: concrete,
	})
}

// collectUse flattens a use tree into the alias map. prefix carries the
// path accumulated from enclosing scoped lists.
func (c *collector) collectUse(node *sitter.Node, prefix lang.QualifiedName) {
	switch node.Type() {
	case "identifier", "type_identifier":
		full := append(append(lang.QualifiedName{}, prefix...), node.Content(c.src))
		c.useAlias[node.Content(c.src)] = full
	case "scoped_identifier":
		full := append(append(lang.QualifiedName{}, prefix...), c.scopedPath(node)...)
		c.useAlias[full.Last()] = full
	case "use_as_clause":
		path := node.ChildByFieldName("path")
		alias := node.ChildByFieldName("alias")
		if path == nil || alias == nil {
			return
		}
		full := append(append(lang.QualifiedName{}, prefix...), c.pathOf(path)...)
		c.useAlias[alias.Content(c.src)] = full
	case "scoped_use_list":
		path := node.ChildByFieldName("path")
		list := node.ChildByFieldName("list")
		if list == nil {
			return
		}
		next := prefix
		if path != nil {
			next = append(append(lang.QualifiedName{}, prefix...), c.pathOf(path)...)
		}
		for i := 0; i < int(list.NamedChildCount()); i++ {
			c.collectUse(list.NamedChild(i), next)
		}
	}
}

func (c *collector) pathOf(node *sitter.Node) lang.QualifiedName {
	if node.Type() == "scoped_identifier" {
		return c.scopedPath(node)
	}
	return lang.Name(node.Content(c.src))
}

func (c *collector) scopedPath(node *sitter.Node) lang.QualifiedName {
	var segs lang.QualifiedName
	if path := node.ChildByFieldName("path"); path != nil {
		segs = append(segs, c.pathOf(path)...)
	}
	if name := node.ChildByFieldName("name"); name != nil {
		segs = append(segs, name.Content(c.src))
	}
	return segs
}

// qualify prefixes an identifier with the current module stack.
func (c *collector) qualify(ident string) lang.QualifiedName {
	name := make(lang.QualifiedName, 0, len(c.modules)+1)
	name = append(name, c.modules...)
	return append(name, ident)
}

// resolve expands a path whose first segment is a `use` alias.
func (c *collector) resolve(path lang.QualifiedName) lang.QualifiedName {
	if len(path) == 0 {
		return path
	}
	full, ok := c.useAlias[path[0]]
	if !ok {
		return path
	}
	out := make(lang.QualifiedName, 0, len(full)+len(path)-1)
	out = append(out, full...)
	return append(out, path[1:]...)
}
