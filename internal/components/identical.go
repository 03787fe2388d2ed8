package components

import (
	"context"
	"log/slog"

	"github.com/pmezard/go-difflib/difflib"

	"verieq/internal/checker"
)

// Identical settles pairs whose bodies are byte-for-byte equal. Differing
// bodies are neither ok nor fail; later components decide those.
type Identical struct {
	log *slog.Logger
}

func NewIdentical(log *slog.Logger) *Identical {
	return &Identical{log: log}
}

func (i *Identical) Name() string   { return "identical" }
func (i *Identical) IsFormal() bool { return true }

func (i *Identical) Note() string {
	return "compares function bodies for textual identity"
}

func (i *Identical) Run(ctx context.Context, c *checker.Checker) checker.Result {
	var res checker.Result
	for _, fn := range c.Unchecked() {
		if fn.BodyOld == fn.BodyNew {
			res.OK = append(res.OK, fn.Name)
			continue
		}
		if i.log.Enabled(ctx, slog.LevelDebug) {
			diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
				A:        difflib.SplitLines(fn.BodyOld),
				B:        difflib.SplitLines(fn.BodyNew),
				FromFile: "old/" + fn.Name.String(),
				ToFile:   "new/" + fn.Name.String(),
				Context:  2,
			})
			if err == nil {
				i.log.Debug("bodies differ", "name", fn.Name.String(), "diff", diff)
			}
		}
	}
	return res
}
