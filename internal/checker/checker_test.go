package checker

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verieq/internal/harness"
	"verieq/internal/lang"
	"verieq/internal/logging"
	"verieq/internal/source"
)

// fakeComponent returns a fixed Result and records whether it ran.
type fakeComponent struct {
	name   string
	formal bool
	result Result
	ran    bool
}

func (f *fakeComponent) Name() string     { return f.name }
func (f *fakeComponent) IsFormal() bool   { return f.formal }
func (f *fakeComponent) Note() string     { return "" }
func (f *fakeComponent) Run(context.Context, *Checker) Result {
	f.ran = true
	return f.result
}

func record(name string, params ...string) lang.FunctionRecord {
	qn := lang.ParseName(name)
	sig := lang.Signature{Ident: qn.Last()}
	for _, p := range params {
		sig.Params = append(sig.Params, lang.Param{
			Name: p, Type: lang.PreciseType(lang.Name("i32")), Text: "i32",
		})
	}
	return lang.FunctionRecord{Name: qn, Sig: sig, Body: "{}"}
}

func model(records ...lang.FunctionRecord) *source.Model {
	return &source.Model{Functions: records}
}

func newChecker(t *testing.T, oldSrc, newSrc *source.Model) *Checker {
	t.Helper()
	return New(oldSrc, newSrc, nil, logging.New("quiet"))
}

func TestNewMatchesAndClassifies(t *testing.T) {
	oldSrc := model(record("add", "a", "b"), record("gone"))
	newSrc := model(record("add", "a", "b"), record("fresh"))

	c := newChecker(t, oldSrc, newSrc)

	require.Len(t, c.Unchecked(), 1)
	assert.Equal(t, "add", c.Unchecked()[0].Name.String())
	assert.Empty(t, c.Verified())
	assert.Empty(t, c.Tested())
}

func TestRunFormalAndTestedPartitions(t *testing.T) {
	oldSrc := model(record("add", "a"), record("sub", "a"))
	newSrc := model(record("add", "a"), record("sub", "a"))
	c := newChecker(t, oldSrc, newSrc)

	formal := &fakeComponent{name: "prover", formal: true,
		result: Result{OK: []lang.QualifiedName{lang.ParseName("add")}}}
	tester := &fakeComponent{name: "pbt",
		result: Result{OK: []lang.QualifiedName{lang.ParseName("sub")}}}

	err := c.Run(context.Background(), []Component{formal, tester})
	require.NoError(t, err)

	assert.Empty(t, c.Unchecked())
	require.Len(t, c.Verified(), 1)
	assert.Equal(t, "add", c.Verified()[0].String())
	require.Len(t, c.Tested(), 1)
	assert.Equal(t, "sub", c.Tested()[0].String())
	assert.Equal(t, "prover", c.SettledBy(lang.ParseName("add")))
	assert.Equal(t, "pbt", c.SettledBy(lang.ParseName("sub")))
}

func TestRunStopsOnInconsistency(t *testing.T) {
	oldSrc := model(record("add", "a"), record("sub", "a"))
	newSrc := model(record("add", "a"), record("sub", "a"))
	c := newChecker(t, oldSrc, newSrc)

	failing := &fakeComponent{name: "fuzz",
		result: Result{Fail: []lang.QualifiedName{lang.ParseName("add")}}}
	later := &fakeComponent{name: "never",
		result: Result{OK: []lang.QualifiedName{lang.ParseName("sub")}}}

	err := c.Run(context.Background(), []Component{failing, later})
	require.Error(t, err)

	var inc *InconsistencyError
	require.ErrorAs(t, err, &inc)
	assert.Equal(t, "fuzz", inc.Component)
	require.Len(t, inc.Names, 1)
	assert.Equal(t, "add", inc.Names[0].String())
	assert.False(t, later.ran, "components after a fail verdict must not run")
}

func TestRunSkipsOnInfrastructureError(t *testing.T) {
	oldSrc := model(record("add", "a"))
	newSrc := model(record("add", "a"))
	c := newChecker(t, oldSrc, newSrc)

	broken := &fakeComponent{name: "prover", formal: true,
		result: Failed(errors.New("toolchain missing"))}
	tester := &fakeComponent{name: "pbt",
		result: Result{OK: []lang.QualifiedName{lang.ParseName("add")}}}

	err := c.Run(context.Background(), []Component{broken, tester})
	require.NoError(t, err)

	assert.Empty(t, c.Verified())
	require.Len(t, c.Tested(), 1)
	assert.Equal(t, "add", c.Tested()[0].String())
}

func TestRunRepeatedVerdictIsIdempotent(t *testing.T) {
	oldSrc := model(record("add", "a"))
	newSrc := model(record("add", "a"))
	c := newChecker(t, oldSrc, newSrc)

	first := &fakeComponent{name: "identical", formal: true,
		result: Result{OK: []lang.QualifiedName{lang.ParseName("add")}}}
	// Settles nothing: "add" already left the unchecked partition.
	second := &fakeComponent{name: "pbt",
		result: Result{OK: []lang.QualifiedName{lang.ParseName("add")}}}

	err := c.Run(context.Background(), []Component{first, second})
	require.NoError(t, err)

	require.Len(t, c.Verified(), 1)
	assert.Empty(t, c.Tested())
	assert.Equal(t, "identical", c.SettledBy(lang.ParseName("add")))
	assert.False(t, second.ran, "nothing left to check, later components are skipped")
}

func TestSettledPairsLeaveHarnessView(t *testing.T) {
	oldSrc := model(record("add", "a"), record("sub", "a"))
	newSrc := model(record("add", "a"), record("sub", "a"))
	c := newChecker(t, oldSrc, newSrc)

	prover := &fakeComponent{name: "prover", formal: true,
		result: Result{OK: []lang.QualifiedName{lang.ParseName("add")}}}
	err := c.Run(context.Background(), []Component{prover})
	require.Error(t, err)

	names := harness.New(c.UncheckedBuckets(), nil, nil).CheckedNames()
	require.Len(t, names, 1)
	assert.Equal(t, "sub", names[0].String(), "settled pairs must not reach later harnesses")
}

func TestRunIncomplete(t *testing.T) {
	oldSrc := model(record("add", "a"), record("sub", "a"))
	newSrc := model(record("add", "a"), record("sub", "a"))
	c := newChecker(t, oldSrc, newSrc)

	partial := &fakeComponent{name: "prover", formal: true,
		result: Result{OK: []lang.QualifiedName{lang.ParseName("add")}}}

	err := c.Run(context.Background(), []Component{partial})
	require.Error(t, err)

	var inc *IncompleteError
	require.ErrorAs(t, err, &inc)
	require.Len(t, inc.Names, 1)
	assert.Equal(t, "sub", inc.Names[0].String())
}
