package components

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verieq/internal/harness"
	"verieq/internal/lang"
)

func TestParseKaniReport(t *testing.T) {
	out := `
Checking harness check_add...

VERIFICATION RESULT:
 ** 0 of 1 failed

VERIFICATION:- SUCCESSFUL

Checking harness check_Stack___push...

VERIFICATION RESULT:
 ** 1 of 2 failed

VERIFICATION:- FAILED

Checking harness check_inner___double...

VERIFICATION:- SUCCESSFUL
`
	res := parseKaniReport(out)

	require.NoError(t, res.Err)
	require.Len(t, res.OK, 2)
	assert.Equal(t, "add", res.OK[0].String())
	assert.Equal(t, "inner::double", res.OK[1].String())
	// A failed proof yields no verdict at all.
	assert.Empty(t, res.Fail)
}

func TestParseKaniReportVerdictWithoutHarness(t *testing.T) {
	res := parseKaniReport("VERIFICATION:- SUCCESSFUL\n")
	assert.Empty(t, res.OK)
}

func TestKaniFunctionHarness(t *testing.T) {
	fn := &lang.MatchedFunction{
		Name: lang.ParseName("add"),
		Sig: lang.Signature{Ident: "add", Params: []lang.Param{
			{Name: "a", Text: "i32"},
			{Name: "b", Text: "i32"},
		}},
	}

	out := kaniBackend{}.FunctionHarness(fn, []string{"a", "b"}, nil)

	assert.Contains(t, out, "#[kani::proof]")
	assert.Contains(t, out, "pub fn check_add()")
	assert.Contains(t, out, "let function_arg_struct = kani::any::<Argsadd>();")
	assert.Contains(t, out, "let r1 = mod1::add(function_arg_struct.a.clone(), function_arg_struct.b.clone());")
	assert.Contains(t, out, "assert!(r1 == r2);")
	assert.NotContains(t, out, "kani::assume")
}

func TestKaniFunctionHarnessWithPrecondition(t *testing.T) {
	fn := &lang.MatchedFunction{
		Name: lang.ParseName("div"),
		Sig: lang.Signature{Ident: "div", Params: []lang.Param{
			{Name: "a", Text: "i32"},
			{Name: "b", Text: "i32"},
		}},
	}
	pre := &lang.Precondition{Name: lang.ParseName("div")}

	out := kaniBackend{}.FunctionHarness(fn, []string{"a", "b"}, pre)

	assert.Contains(t, out, "kani::assume(precond_div(function_arg_struct.a.clone(), function_arg_struct.b.clone()));")
}

func TestKaniMethodHarness(t *testing.T) {
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
		Sig:   lang.Signature{Ident: "verieq_new", Params: []lang.Param{{Name: "cap", Text: "usize"}}},
	}
	getter := &lang.MatchedFunction{
		Name:  lang.ParseName("Stack::verieq_get"),
		Owner: &owner,
		Sig:   lang.Signature{Ident: "verieq_get", Params: []lang.Param{{Receiver: true, ByRef: true}}},
	}

	out := kaniBackend{}.MethodHarness(m, ctor, getter,
		[]string{"x"}, []string{"cap"},
		harness.ReceiverShape{ByRef: true, Mutable: true}, nil)

	assert.Contains(t, out, "pub fn check_Stack___push()")
	assert.Contains(t, out, "let mut s1 = mod1::Stack::verieq_new(constr_arg_struct.cap.clone());")
	assert.Contains(t, out, "let r1 = mod1::Stack::push(&mut s1, method_arg_struct.x.clone());")
	assert.Contains(t, out, "assert!(s1.verieq_get() == s2.verieq_get());")
}

func TestKaniAssemble(t *testing.T) {
	out := kaniBackend{}.Assemble(
		[]string{"use mod1::T as Mod1T;"},
		[]string{"pub struct Argsadd {}"},
		[]string{"fn check_add() {}"},
		nil, "")

	assert.Contains(t, out, "mod mod1;\nmod mod2;")
	assert.Contains(t, out, "use mod1::T as Mod1T;")
	assert.Contains(t, out, "fn main() {}")
}
