// Package report renders the end-of-run summary.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"verieq/internal/checker"
	"verieq/internal/lang"
)

var (
	verifiedStyle  = color.New(color.FgGreen, color.Bold)
	testedStyle    = color.New(color.FgCyan, color.Bold)
	uncheckedStyle = color.New(color.FgYellow, color.Bold)
	failStyle      = color.New(color.FgRed, color.Bold)
	nameStyle      = color.New(color.FgWhite)
)

// Print writes the final partition summary. inconsistency is the fail
// verdict that stopped the run, or nil when every component completed.
func Print(w io.Writer, c *checker.Checker, inconsistency *checker.InconsistencyError) {
	verified := sorted(c.Verified())
	tested := sorted(c.Tested())

	fmt.Fprintln(w)
	verifiedStyle.Fprintf(w, "verified (%d)\n", len(verified))
	for _, name := range verified {
		nameStyle.Fprintf(w, "  %s", name.String())
		fmt.Fprintf(w, "  [%s]\n", c.SettledBy(name))
	}

	testedStyle.Fprintf(w, "tested (%d)\n", len(tested))
	for _, name := range tested {
		nameStyle.Fprintf(w, "  %s", name.String())
		fmt.Fprintf(w, "  [%s]\n", c.SettledBy(name))
	}

	unchecked := c.Unchecked()
	uncheckedStyle.Fprintf(w, "unchecked (%d)\n", len(unchecked))
	for _, fn := range unchecked {
		nameStyle.Fprintf(w, "  %s\n", fn.Name.String())
	}

	if inconsistency != nil {
		failStyle.Fprintf(w, "inconsistent (%d, found by %s)\n",
			len(inconsistency.Names), inconsistency.Component)
		for _, name := range inconsistency.Names {
			nameStyle.Fprintf(w, "  %s\n", name.String())
		}
	}
}

func sorted(names []lang.QualifiedName) []lang.QualifiedName {
	out := make([]lang.QualifiedName, len(names))
	copy(out, names)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
