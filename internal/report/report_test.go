package report

import (
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verieq/internal/checker"
	"verieq/internal/lang"
	"verieq/internal/logging"
	"verieq/internal/source"
)

type stubComponent struct {
	name   string
	formal bool
	result checker.Result
}

func (s stubComponent) Name() string   { return s.name }
func (s stubComponent) IsFormal() bool { return s.formal }
func (s stubComponent) Note() string   { return "" }
func (s stubComponent) Run(context.Context, *checker.Checker) checker.Result {
	return s.result
}

func record(name string) lang.FunctionRecord {
	qn := lang.ParseName(name)
	return lang.FunctionRecord{Name: qn, Sig: lang.Signature{Ident: qn.Last()}, Body: "{}"}
}

func TestPrint(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	oldSrc := &source.Model{Functions: []lang.FunctionRecord{record("add"), record("sub"), record("mul")}}
	newSrc := &source.Model{Functions: []lang.FunctionRecord{record("add"), record("sub"), record("mul")}}
	c := checker.New(oldSrc, newSrc, nil, logging.New("quiet"))

	prover := stubComponent{name: "kani", formal: true,
		result: checker.Result{OK: []lang.QualifiedName{lang.ParseName("add")}}}
	tester := stubComponent{name: "proptest",
		result: checker.Result{OK: []lang.QualifiedName{lang.ParseName("sub")}}}
	require.NoError(t, ignoreIncomplete(c.Run(context.Background(), []checker.Component{prover, tester})))

	var sb strings.Builder
	Print(&sb, c, nil)
	out := sb.String()

	assert.Contains(t, out, "verified (1)")
	assert.Contains(t, out, "add  [kani]")
	assert.Contains(t, out, "tested (1)")
	assert.Contains(t, out, "sub  [proptest]")
	assert.Contains(t, out, "unchecked (1)")
	assert.Contains(t, out, "mul")
	assert.NotContains(t, out, "inconsistent")
}

func TestPrintInconsistency(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	oldSrc := &source.Model{Functions: []lang.FunctionRecord{record("add")}}
	newSrc := &source.Model{Functions: []lang.FunctionRecord{record("add")}}
	c := checker.New(oldSrc, newSrc, nil, logging.New("quiet"))

	var sb strings.Builder
	Print(&sb, c, &checker.InconsistencyError{
		Component: "fuzz",
		Names:     []lang.QualifiedName{lang.ParseName("add")},
	})
	out := sb.String()

	assert.Contains(t, out, "inconsistent (1, found by fuzz)")
	assert.Contains(t, out, "unchecked (1)")
}

func ignoreIncomplete(err error) error {
	if _, ok := err.(*checker.IncompleteError); ok {
		return nil
	}
	return err
}
