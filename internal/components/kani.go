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

const kaniManifest = `[package]
name = "harness"
version = "0.1.0"
edition = "2024"

[dev-dependencies]
kani = "*"
`

// Kani proves per-pair equivalence with the Kani model checker. Each pair
// gets one proof harness; the cargo-kani report is parsed per harness.
type Kani struct {
	log     *slog.Logger
	timeout int // seconds per harness, 0 disables the flag
	keep    bool
}

func NewKani(log *slog.Logger, timeout int, keep bool) *Kani {
	return &Kani{log: log, timeout: timeout, keep: keep}
}

func (k *Kani) Name() string   { return "kani" }
func (k *Kani) IsFormal() bool { return true }

func (k *Kani) Note() string {
	return "model checks each pair with cargo-kani proof harnesses"
}

func (k *Kani) Run(ctx context.Context, c *checker.Checker) checker.Result {
	gen := harness.New(c.UncheckedBuckets(), c.Preconditions(), kaniBackend{})
	text, err := gen.Generate()
	if err != nil {
		return checker.Failed(err)
	}

	w, err := toolchain.NewWorkspace(k.log, "kani", k.keep)
	if err != nil {
		return checker.Failed(err)
	}
	defer w.Close()

	if err := w.WriteCargoProject(c.OldSource().Content, c.NewSource().Content, text, kaniManifest, "main.rs"); err != nil {
		return checker.Failed(err)
	}

	args := []string{"kani"}
	if k.timeout > 0 {
		args = append(args, "-Z", "unstable-options", "--harness-timeout", fmt.Sprintf("%ds", k.timeout))
	}
	out, err := toolchain.Run(ctx, k.log, w.Dir, "cargo", args...)
	// cargo kani exits non-zero when any harness fails; the report on
	// stdout is still authoritative.
	if err != nil && out == "" {
		return checker.Failed(err)
	}
	return parseKaniReport(out)
}

var kaniHarnessRe = regexp.MustCompile(`Checking harness check_([0-9a-zA-Z_]+)\.`)

// parseKaniReport walks the cargo-kani output. Each "Checking harness"
// line opens a block for one pair; a SUCCESSFUL verdict inside the block
// settles it. A FAILED verdict only closes the block: an unproven harness
// is not a behavioral difference.
func parseKaniReport(out string) checker.Result {
	var res checker.Result
	var current lang.QualifiedName

	scanner := bufio.NewScanner(strings.NewReader(out))
	scanner.Buffer(nil, 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if caps := kaniHarnessRe.FindStringSubmatch(line); caps != nil {
			current = lang.UnflattenIdent(caps[1])
			continue
		}
		switch {
		case strings.Contains(line, "VERIFICATION:- SUCCESSFUL"):
			if current != nil {
				res.OK = append(res.OK, current)
				current = nil
			}
		case strings.Contains(line, "VERIFICATION:- FAILED"):
			current = nil
		}
	}
	return res
}

// kaniBackend emits #[kani::proof] harnesses with nondeterministic
// arguments and precondition assumes.
type kaniBackend struct{}

func (kaniBackend) ArgStructAttrs() string {
	return "#[derive(Debug, kani::Arbitrary)]"
}

func (kaniBackend) FunctionHarness(fn *lang.MatchedFunction, args []string, pre *lang.Precondition) string {
	name := fn.Name.String()
	calls := callArgs("function_arg_struct", args)

	var b strings.Builder
	b.WriteString("#[cfg(kani)]\n#[kani::proof]\n#[allow(non_snake_case)]\n")
	fmt.Fprintf(&b, "pub fn %s() {\n", harness.RoutineName(fn))
	fmt.Fprintf(&b, "    let function_arg_struct = kani::any::<%s>();\n", harness.ArgStructName(fn))
	if pre != nil {
		fmt.Fprintf(&b, "    kani::assume(%s(%s));\n", pre.CheckIdent(), calls)
	}
	fmt.Fprintf(&b, "    let r1 = mod1::%s(%s);\n", name, calls)
	fmt.Fprintf(&b, "    let r2 = mod2::%s(%s);\n", name, calls)
	b.WriteString("    assert!(r1 == r2);\n}")
	return b.String()
}

func (kaniBackend) MethodHarness(m, ctor, getter *lang.MatchedFunction, methodArgs, ctorArgs []string, recv harness.ReceiverShape, pre *lang.Precondition) string {
	methodCalls := callArgs("method_arg_struct", methodArgs)
	ctorCalls := callArgs("constr_arg_struct", ctorArgs)

	var b strings.Builder
	b.WriteString("#[cfg(kani)]\n#[kani::proof]\n#[allow(non_snake_case)]\n")
	fmt.Fprintf(&b, "pub fn %s() {\n", harness.RoutineName(m))
	fmt.Fprintf(&b, "    let constr_arg_struct = kani::any::<%s>();\n", harness.ArgStructName(ctor))
	fmt.Fprintf(&b, "    let mut s1 = mod1::%s(%s);\n", ctor.Name, ctorCalls)
	fmt.Fprintf(&b, "    let mut s2 = mod2::%s(%s);\n", ctor.Name, ctorCalls)
	fmt.Fprintf(&b, "    let method_arg_struct = kani::any::<%s>();\n", harness.ArgStructName(m))
	if pre != nil {
		fmt.Fprintf(&b, "    kani::assume(s2.%s(%s));\n", pre.CheckIdent(), methodCalls)
	}
	fmt.Fprintf(&b, "    let r1 = mod1::%s(%s);\n", m.Name, withReceiver(recv.Prefix()+"s1", methodCalls))
	fmt.Fprintf(&b, "    let r2 = mod2::%s(%s);\n", m.Name, withReceiver(recv.Prefix()+"s2", methodCalls))
	b.WriteString("    assert!(r1 == r2);\n")
	if getter != nil {
		fmt.Fprintf(&b, "    assert!(s1.%s() == s2.%s());\n", getter.Ident(), getter.Ident())
	}
	b.WriteString("}")
	return b.String()
}

func (kaniBackend) Auxiliary(*classify.Buckets) string { return "" }

func (kaniBackend) Assemble(imports, argStructs, functions, methods []string, auxiliary string) string {
	var b strings.Builder
	b.WriteString("#![allow(unused)]\n#![allow(non_snake_case)]\n#![allow(non_camel_case_types)]\n")
	b.WriteString("mod mod1;\nmod mod2;\n\n")
	b.WriteString(join(imports, argStructs, functions, methods))
	b.WriteString("\n\nfn main() {}\n")
	return b.String()
}
