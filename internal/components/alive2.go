package components

import (
	"bufio"
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"verieq/internal/checker"
	"verieq/internal/lang"
	"verieq/internal/source"
	"verieq/internal/toolchain"
)

// Alive2 validates equivalence at the LLVM IR level with alive-tv. Both
// sources are rewritten so every non-generic function carries a stable
// export name, compiled with rustc, then compared pairwise by symbol.
type Alive2 struct {
	log  *slog.Logger
	path string // alive-tv binary
	keep bool
}

func NewAlive2(log *slog.Logger, path string, keep bool) *Alive2 {
	return &Alive2{log: log, path: path, keep: keep}
}

func (a *Alive2) Name() string   { return "alive2" }
func (a *Alive2) IsFormal() bool { return true }

func (a *Alive2) Note() string {
	return "validates translation equivalence on LLVM IR with alive-tv"
}

func (a *Alive2) Run(ctx context.Context, c *checker.Checker) checker.Result {
	w, err := toolchain.NewWorkspace(a.log, "alive2", a.keep)
	if err != nil {
		return checker.Failed(err)
	}
	defer w.Close()

	ir1, err := a.emitIR(ctx, w, c.OldSource().Content, "mod1")
	if err != nil {
		return checker.Failed(err)
	}
	ir2, err := a.emitIR(ctx, w, c.NewSource().Content, "mod2")
	if err != nil {
		return checker.Failed(err)
	}

	out, err := toolchain.Run(ctx, a.log, w.Dir, a.path, ir1, ir2)
	// alive-tv reports failed transformations on stdout and exits
	// non-zero; the report is still the verdict source.
	if err != nil && out == "" {
		return checker.Failed(err)
	}
	return parseAlive2Report(out)
}

// emitIR rewrites the source with export names and compiles it to LLVM IR.
func (a *Alive2) emitIR(ctx context.Context, w *toolchain.Workspace, content, label string) (string, error) {
	exported, err := source.ExportNames([]byte(content))
	if err != nil {
		return "", err
	}
	src, err := w.WriteFile(label+".rs", exported)
	if err != nil {
		return "", err
	}

	ir := filepath.Join(w.Dir, label+".ll")
	if _, err := toolchain.Run(ctx, a.log, w.Dir,
		"rustc", "--emit=llvm-ir", "--crate-type=lib", src, "-o", ir); err != nil {
		return "", err
	}
	return ir, nil
}

// parseAlive2Report walks the alive-tv output. The first "define" line of
// each transformation block names the symbol under comparison; a
// correctness line settles it and an ERROR line discards it.
func parseAlive2Report(out string) checker.Result {
	var res checker.Result
	var current lang.QualifiedName

	scanner := bufio.NewScanner(strings.NewReader(out))
	scanner.Buffer(nil, 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "define"):
			if current == nil {
				at := strings.Index(line, "@")
				paren := strings.Index(line, "(")
				if at >= 0 && paren > at {
					current = lang.UnflattenIdent(line[at+1 : paren])
				}
			}
		case strings.HasPrefix(line, "Transformation seems to be correct!"):
			if current != nil {
				res.OK = append(res.OK, current)
				current = nil
			}
		case strings.HasPrefix(line, "ERROR"):
			current = nil
		}
	}
	return res
}
