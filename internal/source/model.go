// Package source loads one Rust source unit and exposes the declarations
// the pipeline works with: function records, declared trait names and
// instantiated generic type aliases.
package source

import (
	"context"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"verieq/internal/lang"
	"verieq/internal/logging"
)

// Model is one parsed source unit.
type Model struct {
	Path    string
	Content string
	// Functions holds every non-generic function and impl method declared
	// in the unit, in source order.
	Functions []lang.FunctionRecord
	// Traits lists the capability (trait) names the unit declares.
	Traits []lang.QualifiedName
	// Aliases lists type aliases whose right-hand side instantiates a
	// generic type, e.g. `type FB = Foo<Bar>`.
	Aliases []lang.InstantiatedAlias
}

// Load reads and parses a Rust file.
func Load(path string) (*Model, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read source %s", path)
	}
	return Parse(path, content)
}

// Parse builds a model from raw source text. Records that cannot be
// interpreted (unsupported self types, parse oddities) are skipped with a
// diagnostic; a skipped record never fails the whole load.
func Parse(path string, content []byte) (*Model, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(rust.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, errors.Wrapf(err, "parse source %s", path)
	}
	defer tree.Close()

	c := newCollector(content, logging.Default.With(slog.String("source", path)))
	c.walk(tree.RootNode())

	return &Model{
		Path:      path,
		Content:   string(content),
		Functions: c.functions,
		Traits:    c.traits,
		Aliases:   c.aliases,
	}, nil
}
