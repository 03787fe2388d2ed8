package source

import (
	sitter "github.com/smacker/go-tree-sitter"

	"verieq/internal/lang"
)

// typeRef converts a type node into a TypeRef. Only path-shaped types
// (plain, scoped or generic identifiers) convert; anything else reports
// ok=false and the caller decides whether to skip or degrade.
func (c *collector) typeRef(node *sitter.Node) (lang.TypeRef, bool) {
	switch node.Type() {
	case "type_identifier", "primitive_type", "identifier":
		return lang.PreciseType(lang.Name(node.Content(c.src))), true
	case "scoped_type_identifier", "scoped_identifier":
		return lang.PreciseType(c.scopedPath(node)), true
	case "generic_type":
		base := node.ChildByFieldName("type")
		argsNode := node.ChildByFieldName("type_arguments")
		if base == nil {
			return lang.TypeRef{}, false
		}
		baseRef, ok := c.typeRef(base)
		if !ok || baseRef.Generic() {
			return lang.TypeRef{}, false
		}
		var args []lang.TypeRef
		if argsNode != nil {
			for i := 0; i < int(argsNode.NamedChildCount()); i++ {
				arg, ok := c.typeRef(argsNode.NamedChild(i))
				if !ok {
					return lang.TypeRef{}, false
				}
				args = append(args, arg)
			}
		}
		return lang.GenericType(baseRef.Base, args...), true
	}
	return lang.TypeRef{}, false
}

// unsupportedType stands in for parameter types that are not path-shaped
// (references, tuples, slices). Matching degrades to "any unsupported type
// equals any other"; the original spelling survives in Param.Text for
// harness emission.
func unsupportedType() lang.TypeRef {
	return lang.PreciseType(lang.Name("unsupported"))
}
