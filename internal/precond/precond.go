// Package precond loads user-supplied precondition declarations. Each
// entry names a function whose inputs are constrained by a predicate
// defined alongside the sources; formal components assume the predicate
// before comparing outputs.
package precond

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"verieq/internal/lang"
)

type entry struct {
	Name   string `yaml:"name"`
	Method bool   `yaml:"method"`
}

// Load parses the precondition file at path. An empty path yields no
// preconditions. Method entries derive their owner type from the
// qualified name so alias alignment can rewrite them.
func Load(path string) ([]lang.Precondition, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read preconditions %s", path)
	}

	var entries []entry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, errors.Wrapf(err, "parse preconditions %s", path)
	}

	out := make([]lang.Precondition, 0, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			return nil, errors.Errorf("precondition with empty name in %s", path)
		}
		name := lang.ParseName(e.Name)
		p := lang.Precondition{Name: name, Method: e.Method}
		if e.Method {
			if len(name) < 2 {
				return nil, errors.Errorf("method precondition %q has no owner segment", e.Name)
			}
			owner := lang.ParseTypeRef(name[:len(name)-1].String())
			p.Owner = &owner
		}
		out = append(out, p)
	}
	return out, nil
}
