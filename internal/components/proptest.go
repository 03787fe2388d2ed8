package components

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"verieq/internal/checker"
	"verieq/internal/classify"
	"verieq/internal/harness"
	"verieq/internal/lang"
	"verieq/internal/toolchain"
)

const proptestManifest = `[package]
name = "harness"
version = "0.1.0"
edition = "2024"

[dependencies]
proptest = "1.9"
proptest-derive = "0.2.0"
`

// Proptest exercises each pair with randomly generated inputs via the
// proptest crate. Every pair the harness covers starts as ok; a MISMATCH
// report line demotes it to fail.
type Proptest struct {
	log   *slog.Logger
	cases int
	keep  bool
}

func NewProptest(log *slog.Logger, cases int, keep bool) *Proptest {
	return &Proptest{log: log, cases: cases, keep: keep}
}

func (p *Proptest) Name() string   { return "proptest" }
func (p *Proptest) IsFormal() bool { return false }

func (p *Proptest) Note() string {
	return "compares behavior on generated inputs with proptest"
}

func (p *Proptest) Run(ctx context.Context, c *checker.Checker) checker.Result {
	gen := harness.New(c.UncheckedBuckets(), c.Preconditions(), pbtBackend{cases: p.cases})
	text, err := gen.Generate()
	if err != nil {
		return checker.Failed(err)
	}

	w, err := toolchain.NewWorkspace(p.log, "proptest", p.keep)
	if err != nil {
		return checker.Failed(err)
	}
	defer w.Close()

	if err := w.WriteCargoProject(c.OldSource().Content, c.NewSource().Content, text, proptestManifest, "main.rs"); err != nil {
		return checker.Failed(err)
	}

	out, err := toolchain.Run(ctx, p.log, w.Dir, "cargo", "test")
	// cargo test exits non-zero on assertion failures; the MISMATCH lines
	// on stdout carry the actual verdicts.
	if err != nil && out == "" {
		return checker.Failed(err)
	}
	return parseMismatchReport(gen.CheckedNames(), out)
}

var mismatchRe = regexp.MustCompile(`MISMATCH:\s*(\S+)`)

// parseMismatchReport starts from the full harness coverage and demotes
// every name a MISMATCH line identifies. Names outside the covered set
// are ignored, as is any other report content.
func parseMismatchReport(covered []lang.QualifiedName, out string) checker.Result {
	ok := make([]lang.QualifiedName, len(covered))
	copy(ok, covered)

	var fail []lang.QualifiedName
	scanner := bufio.NewScanner(strings.NewReader(out))
	scanner.Buffer(nil, 1<<20)
	for scanner.Scan() {
		caps := mismatchRe.FindStringSubmatch(scanner.Text())
		if caps == nil {
			continue
		}
		name := lang.ParseName(caps[1])
		for i, n := range ok {
			if n.Equal(name) {
				ok = append(ok[:i], ok[i+1:]...)
				fail = append(fail, name)
				break
			}
		}
	}
	return checker.Result{OK: ok, Fail: fail}
}

// pbtBackend emits proptest! test cases with derived Arbitrary argument
// containers.
type pbtBackend struct {
	cases int
}

func (pbtBackend) ArgStructAttrs() string {
	return "#[derive(Debug)]\n#[cfg_attr(test, derive(proptest_derive::Arbitrary))]"
}

func (pbtBackend) FunctionHarness(fn *lang.MatchedFunction, args []string, _ *lang.Precondition) string {
	name := fn.Name.String()
	calls := callArgs("function_arg_struct", args)

	var b strings.Builder
	b.WriteString("#[test]\n")
	fmt.Fprintf(&b, "fn %s(function_arg_struct in any::<%s>()) {\n", harness.RoutineName(fn), harness.ArgStructName(fn))
	fmt.Fprintf(&b, "    let r1 = std::panic::catch_unwind(std::panic::AssertUnwindSafe(\n        || mod1::%s(%s))).map_err(|_| ());\n", name, calls)
	fmt.Fprintf(&b, "    let r2 = std::panic::catch_unwind(std::panic::AssertUnwindSafe(\n        || mod2::%s(%s))).map_err(|_| ());\n", name, calls)
	b.WriteString("    if r1 != r2 {\n")
	fmt.Fprintf(&b, "        println!(\"MISMATCH: %s\");\n", name)
	b.WriteString("        println!(\"args: {:?}\", function_arg_struct);\n")
	b.WriteString("        println!(\"r1 = {:?}, r2 = {:?}\", r1, r2);\n")
	b.WriteString("    }\n")
	b.WriteString("    assert!(r1 == r2);\n}")
	return b.String()
}

func (pbtBackend) MethodHarness(m, ctor, getter *lang.MatchedFunction, methodArgs, ctorArgs []string, recv harness.ReceiverShape, _ *lang.Precondition) string {
	methodCalls := callArgs("method_arg_struct", methodArgs)
	ctorCalls := callArgs("constr_arg_struct", ctorArgs)

	var b strings.Builder
	b.WriteString("#[test]\n")
	fmt.Fprintf(&b, "fn %s(\n    constr_arg_struct in any::<%s>(),\n    method_arg_struct in any::<%s>(),\n) {\n",
		harness.RoutineName(m), harness.ArgStructName(ctor), harness.ArgStructName(m))
	fmt.Fprintf(&b, "    let mut s1 = match std::panic::catch_unwind(std::panic::AssertUnwindSafe(\n        || mod1::%s(%s))) {\n        Ok(s) => s,\n        Err(_) => return Ok(()),\n    };\n", ctor.Name, ctorCalls)
	fmt.Fprintf(&b, "    let mut s2 = match std::panic::catch_unwind(std::panic::AssertUnwindSafe(\n        || mod2::%s(%s))) {\n        Ok(s) => s,\n        Err(_) => return Ok(()),\n    };\n", ctor.Name, ctorCalls)
	fmt.Fprintf(&b, "    let r1 = std::panic::catch_unwind(std::panic::AssertUnwindSafe(\n        || mod1::%s(%s))).map_err(|_| ());\n", m.Name, withReceiver(recv.Prefix()+"s1", methodCalls))
	fmt.Fprintf(&b, "    let r2 = std::panic::catch_unwind(std::panic::AssertUnwindSafe(\n        || mod2::%s(%s))).map_err(|_| ());\n", m.Name, withReceiver(recv.Prefix()+"s2", methodCalls))

	mismatch := "r1 != r2"
	if getter != nil {
		mismatch = fmt.Sprintf("r1 != r2 || s1.%s() != s2.%s()", getter.Ident(), getter.Ident())
	}
	fmt.Fprintf(&b, "    if %s {\n", mismatch)
	fmt.Fprintf(&b, "        println!(\"MISMATCH: %s\");\n", m.Name)
	b.WriteString("        println!(\"constructor: {:?}\", constr_arg_struct);\n")
	b.WriteString("        println!(\"method: {:?}\", method_arg_struct);\n")
	b.WriteString("        println!(\"r1 = {:?}, r2 = {:?}\", r1, r2);\n")
	b.WriteString("    }\n")
	b.WriteString("    assert!(r1 == r2);\n")
	if getter != nil {
		fmt.Fprintf(&b, "    assert!(s1.%s() == s2.%s());\n", getter.Ident(), getter.Ident())
	}
	b.WriteString("}")
	return b.String()
}

func (pbtBackend) Auxiliary(*classify.Buckets) string { return "" }

func (p pbtBackend) Assemble(imports, argStructs, functions, methods []string, auxiliary string) string {
	var b strings.Builder
	b.WriteString("mod mod1;\nmod mod2;\n\nuse proptest::prelude::*;\n\n")
	b.WriteString(join(imports, argStructs))
	b.WriteString("\n\nproptest! {\n")
	fmt.Fprintf(&b, "    #![proptest_config(ProptestConfig::with_cases(%d))]\n\n", p.cases)
	b.WriteString(indent(join(functions, methods), "    "))
	b.WriteString("\n}\n\nfn main() {}\n")
	return b.String()
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}
