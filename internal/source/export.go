package source

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"verieq/internal/lang"
)

// ExportNames rewrites the source so every non-generic function carries an
// `#[export_name = "..."]` attribute with its `___`-flattened qualified
// name. The binary-equivalence component needs stable, demangled symbol
// names in the emitted LLVM IR; flattened names map back to qualified
// names when the report is parsed.
//
// Generic functions and members of generic impl blocks keep their mangled
// names: they have no single symbol to pin.
func ExportNames(content []byte) (string, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(rust.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return "", errors.Wrap(err, "parse source for export rewriting")
	}
	defer tree.Close()

	e := &exporter{src: content}
	e.walk(tree.RootNode())

	// Apply insertions back to front so earlier offsets stay valid.
	sort.Slice(e.edits, func(i, j int) bool { return e.edits[i].offset > e.edits[j].offset })
	out := string(content)
	for _, edit := range e.edits {
		out = out[:edit.offset] + edit.text + out[edit.offset:]
	}
	return out, nil
}

type exportEdit struct {
	offset uint32
	text   string
}

type exporter struct {
	src   []byte
	scope []string
	edits []exportEdit
}

func (e *exporter) walk(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "mod_item":
			name := child.ChildByFieldName("name")
			body := child.ChildByFieldName("body")
			if name == nil || body == nil {
				continue
			}
			e.scope = append(e.scope, name.Content(e.src))
			e.walk(body)
			e.scope = e.scope[:len(e.scope)-1]
		case "impl_item":
			if child.ChildByFieldName("type_parameters") != nil {
				continue
			}
			typeNode := child.ChildByFieldName("type")
			body := child.ChildByFieldName("body")
			if typeNode == nil || body == nil {
				continue
			}
			e.scope = append(e.scope, flattenTypePath(typeNode.Content(e.src)))
			e.walk(body)
			e.scope = e.scope[:len(e.scope)-1]
		case "function_item":
			if child.ChildByFieldName("type_parameters") != nil {
				continue
			}
			name := child.ChildByFieldName("name")
			if name == nil {
				continue
			}
			exported := lang.Name(append(append([]string{}, e.scope...), name.Content(e.src))...)
			e.edits = append(e.edits, exportEdit{
				offset: child.StartByte(),
				text:   "#[export_name = \"" + exported.Ident() + "\"]\n",
			})
		}
	}
}

// flattenTypePath turns an impl self-type spelling into a symbol-safe
// segment: `a::Foo` becomes `a___Foo`.
func flattenTypePath(text string) string {
	return strings.ReplaceAll(strings.TrimSpace(text), "::", "___")
}
