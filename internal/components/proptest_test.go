package components

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verieq/internal/harness"
	"verieq/internal/lang"
)

func names(ss ...string) []lang.QualifiedName {
	out := make([]lang.QualifiedName, len(ss))
	for i, s := range ss {
		out[i] = lang.ParseName(s)
	}
	return out
}

func TestParseMismatchReport(t *testing.T) {
	covered := names("add", "sub", "Stack::push")
	out := `
running 3 tests
MISMATCH: Stack::push
constructor: ArgsStack___verieq_new { cap: 3 }
r1 = Ok(()), r2 = Err(())
test check_Stack___push ... FAILED
test check_add ... ok
test check_sub ... ok
`
	res := parseMismatchReport(covered, out)

	require.NoError(t, res.Err)
	require.Len(t, res.Fail, 1)
	assert.Equal(t, "Stack::push", res.Fail[0].String())
	require.Len(t, res.OK, 2)
	assert.Equal(t, "add", res.OK[0].String())
	assert.Equal(t, "sub", res.OK[1].String())
}

func TestParseMismatchReportCleanRun(t *testing.T) {
	covered := names("add")
	res := parseMismatchReport(covered, "test check_add ... ok\n")

	assert.Empty(t, res.Fail)
	require.Len(t, res.OK, 1)
}

func TestParseMismatchReportUnknownNameIgnored(t *testing.T) {
	covered := names("add")
	res := parseMismatchReport(covered, "MISMATCH: stranger\n")

	assert.Empty(t, res.Fail)
	require.Len(t, res.OK, 1)
}

func TestParseMismatchReportRepeatedMismatch(t *testing.T) {
	covered := names("add")
	res := parseMismatchReport(covered, "MISMATCH: add\nMISMATCH: add\n")

	require.Len(t, res.Fail, 1)
	assert.Empty(t, res.OK)
}

func TestProptestFunctionHarness(t *testing.T) {
	fn := &lang.MatchedFunction{
		Name: lang.ParseName("add"),
		Sig: lang.Signature{Ident: "add", Params: []lang.Param{
			{Name: "a", Text: "i32"},
		}},
	}

	out := pbtBackend{}.FunctionHarness(fn, []string{"a"}, nil)

	assert.Contains(t, out, "fn check_add(function_arg_struct in any::<Argsadd>())")
	assert.Contains(t, out, "std::panic::catch_unwind")
	assert.Contains(t, out, `println!("MISMATCH: add");`)
}

func TestProptestMethodHarnessWithoutGetter(t *testing.T) {
	owner := lang.PreciseType(lang.Name("Stack"))
	m := &lang.MatchedFunction{
		Name:  lang.ParseName("Stack::push"),
		Owner: &owner,
		Sig: lang.Signature{Ident: "push", Params: []lang.Param{
			{Receiver: true, ByRef: true, Mutable: true},
			{Name: "x", Text: "u8"},
		}},
	}
	ctor := &lang.MatchedFunction{
		Name:  lang.ParseName("Stack::verieq_new"),
		Owner: &owner,
		Sig:   lang.Signature{Ident: "verieq_new"},
	}

	out := pbtBackend{}.MethodHarness(m, ctor, nil, []string{"x"}, nil,
		harness.ReceiverShape{ByRef: true, Mutable: true}, nil)

	assert.Contains(t, out, "mod1::Stack::verieq_new()")
	assert.Contains(t, out, "mod1::Stack::push(&mut s1, method_arg_struct.x.clone())")
	assert.Contains(t, out, "if r1 != r2 {")
	assert.NotContains(t, out, "verieq_get")
}

func TestProptestAssemble(t *testing.T) {
	out := pbtBackend{cases: 512}.Assemble(nil,
		[]string{"pub struct Argsadd {}"},
		[]string{"#[test]\nfn check_add() {}"},
		nil, "")

	assert.Contains(t, out, "use proptest::prelude::*;")
	assert.Contains(t, out, "ProptestConfig::with_cases(512)")
	assert.Contains(t, out, "proptest! {")
	assert.Contains(t, out, "    fn check_add() {}")
	assert.Contains(t, out, "fn main() {}")
}
