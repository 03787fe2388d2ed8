package components

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"verieq/internal/checker"
	"verieq/internal/classify"
	"verieq/internal/harness"
	"verieq/internal/lang"
	"verieq/internal/toolchain"
)

const fuzzManifest = `[package]
name = "harness"
version = "0.1.0"
edition = "2024"

[dependencies]
serde = "*"
postcard = "*"
`

// Fuzz drives both versions with a differential fuzzer. The generated
// harness is a library crate consumed by a pre-built fuzz runner project;
// the first input byte dispatches to one comparison routine, the rest is
// decoded into its arguments with postcard.
type Fuzz struct {
	log       *slog.Logger
	runnerDir string
	runs      int
	keep      bool
}

func NewFuzz(log *slog.Logger, runnerDir string, runs int, keep bool) *Fuzz {
	return &Fuzz{log: log, runnerDir: runnerDir, runs: runs, keep: keep}
}

func (f *Fuzz) Name() string   { return "fuzz" }
func (f *Fuzz) IsFormal() bool { return false }

func (f *Fuzz) Note() string {
	return "compares behavior under differential fuzzing"
}

func (f *Fuzz) Run(ctx context.Context, c *checker.Checker) checker.Result {
	if f.runnerDir == "" {
		return checker.Failed(errors.New("fuzz runner directory not configured"))
	}

	gen := harness.New(c.UncheckedBuckets(), c.Preconditions(), fuzzBackend{})
	text, err := gen.Generate()
	if err != nil {
		return checker.Failed(err)
	}

	// The runner project expects the harness crate at <runner>/harness.
	harnessDir := filepath.Join(f.runnerDir, "harness")
	if err := writeHarnessCrate(harnessDir, c.OldSource().Content, c.NewSource().Content, text); err != nil {
		return checker.Failed(err)
	}
	defer f.removeHarnessCrate(harnessDir)

	args := []string{"run", "--release"}
	if f.runs > 0 {
		args = append(args, "--", fmt.Sprintf("--runs=%d", f.runs))
	}
	out, err := toolchain.Run(ctx, f.log, f.runnerDir, "cargo", args...)
	if err != nil && out == "" {
		return checker.Failed(err)
	}
	return parseMismatchReport(gen.CheckedNames(), out)
}

func writeHarnessCrate(dir, mod1, mod2, harnessText string) error {
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		return errors.Wrapf(err, "create harness crate %s", dir)
	}
	files := map[string]string{
		filepath.Join(dir, "Cargo.toml"):     fuzzManifest,
		filepath.Join(dir, "src", "mod1.rs"): mod1,
		filepath.Join(dir, "src", "mod2.rs"): mod2,
		filepath.Join(dir, "src", "lib.rs"):  harnessText,
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return errors.Wrapf(err, "write %s", path)
		}
	}
	return nil
}

func (f *Fuzz) removeHarnessCrate(dir string) {
	if f.keep {
		f.log.Info("keeping fuzz harness crate", "dir", dir)
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		f.log.Warn("could not remove fuzz harness crate", "dir", dir, "err", err)
	}
}

// fuzzBackend emits byte-driven comparison routines plus the dispatch
// entry point the runner calls.
type fuzzBackend struct{}

func (fuzzBackend) ArgStructAttrs() string {
	return "#[derive(Debug, serde::Deserialize)]"
}

func (fuzzBackend) FunctionHarness(fn *lang.MatchedFunction, args []string, _ *lang.Precondition) string {
	name := fn.Name.String()
	calls := callArgs("function_arg_struct", args)

	var b strings.Builder
	fmt.Fprintf(&b, "fn %s(input: &[u8]) -> bool {\n", harness.RoutineName(fn))
	fmt.Fprintf(&b, "    let function_arg_struct = match postcard::from_bytes::<%s>(&input[..]) {\n", harness.ArgStructName(fn))
	b.WriteString("        Ok(args) => args,\n        Err(_) => return true,\n    };\n")
	fmt.Fprintf(&b, "    let r1 = std::panic::catch_unwind(std::panic::AssertUnwindSafe(\n        || mod1::%s(%s))).map_err(|_| ());\n", name, calls)
	fmt.Fprintf(&b, "    let r2 = std::panic::catch_unwind(std::panic::AssertUnwindSafe(\n        || mod2::%s(%s))).map_err(|_| ());\n", name, calls)
	b.WriteString("    if r1 != r2 {\n")
	fmt.Fprintf(&b, "        println!(\"MISMATCH: %s\");\n", name)
	b.WriteString("        println!(\"args: {:?}\", function_arg_struct);\n")
	b.WriteString("        println!(\"r1 = {:?}, r2 = {:?}\", r1, r2);\n")
	b.WriteString("    }\n")
	b.WriteString("    r1 == r2\n}")
	return b.String()
}

func (fuzzBackend) MethodHarness(m, ctor, getter *lang.MatchedFunction, methodArgs, ctorArgs []string, recv harness.ReceiverShape, _ *lang.Precondition) string {
	methodCalls := callArgs("method_arg_struct", methodArgs)
	ctorCalls := callArgs("constr_arg_struct", ctorArgs)

	var b strings.Builder
	fmt.Fprintf(&b, "fn %s(input: &[u8]) -> bool {\n", harness.RoutineName(m))
	fmt.Fprintf(&b, "    let (constr_arg_struct, remain) = match postcard::take_from_bytes::<%s>(&input[..]) {\n", harness.ArgStructName(ctor))
	b.WriteString("        Ok((args, remain)) => (args, remain),\n        Err(_) => return true,\n    };\n")
	fmt.Fprintf(&b, "    let method_arg_struct = match postcard::from_bytes::<%s>(&remain[..]) {\n", harness.ArgStructName(m))
	b.WriteString("        Ok(args) => args,\n        Err(_) => return true,\n    };\n")
	fmt.Fprintf(&b, "    let mut s1 = match std::panic::catch_unwind(std::panic::AssertUnwindSafe(\n        || mod1::%s(%s))) {\n        Ok(s) => s,\n        Err(_) => return true,\n    };\n", ctor.Name, ctorCalls)
	fmt.Fprintf(&b, "    let mut s2 = match std::panic::catch_unwind(std::panic::AssertUnwindSafe(\n        || mod2::%s(%s))) {\n        Ok(s) => s,\n        Err(_) => return true,\n    };\n", ctor.Name, ctorCalls)
	fmt.Fprintf(&b, "    let r1 = std::panic::catch_unwind(std::panic::AssertUnwindSafe(\n        || mod1::%s(%s))).map_err(|_| ());\n", m.Name, withReceiver(recv.Prefix()+"s1", methodCalls))
	fmt.Fprintf(&b, "    let r2 = std::panic::catch_unwind(std::panic::AssertUnwindSafe(\n        || mod2::%s(%s))).map_err(|_| ());\n", m.Name, withReceiver(recv.Prefix()+"s2", methodCalls))

	equal := "r1 == r2"
	mismatch := "r1 != r2"
	if getter != nil {
		equal = fmt.Sprintf("r1 == r2 && s1.%s() == s2.%s()", getter.Ident(), getter.Ident())
		mismatch = fmt.Sprintf("r1 != r2 || s1.%s() != s2.%s()", getter.Ident(), getter.Ident())
	}
	fmt.Fprintf(&b, "    if %s {\n", mismatch)
	fmt.Fprintf(&b, "        println!(\"MISMATCH: %s\");\n", m.Name)
	b.WriteString("        println!(\"constructor: {:?}\", constr_arg_struct);\n")
	b.WriteString("        println!(\"method: {:?}\", method_arg_struct);\n")
	b.WriteString("        println!(\"r1 = {:?}, r2 = {:?}\", r1, r2);\n")
	b.WriteString("    }\n")
	fmt.Fprintf(&b, "    %s\n}", equal)
	return b.String()
}

// Auxiliary emits the dispatch entry point: the first input byte selects
// a routine modulo the routine count, the rest feeds it.
func (fuzzBackend) Auxiliary(b *classify.Buckets) string {
	var routines []string
	for _, fn := range b.Functions {
		routines = append(routines, harness.RoutineName(fn))
	}
	for _, m := range b.Methods {
		routines = append(routines, harness.RoutineName(m))
	}
	if len(routines) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("pub fn run_harness(input: &[u8]) -> bool {\n")
	sb.WriteString("    if input.len() == 0 {\n        return true;\n    }\n")
	fmt.Fprintf(&sb, "    let fn_id = (input[0] as usize) %% %d;\n", len(routines))
	sb.WriteString("    match fn_id {\n")
	for i, name := range routines {
		fmt.Fprintf(&sb, "        %d => %s(&input[1..]),\n", i, name)
	}
	sb.WriteString("        _ => true,\n    }\n}")
	return sb.String()
}

func (fuzzBackend) Assemble(imports, argStructs, functions, methods []string, auxiliary string) string {
	var b strings.Builder
	b.WriteString("#![allow(unused)]\n#![allow(non_snake_case)]\n")
	b.WriteString("mod mod1;\nmod mod2;\n\n")
	b.WriteString(join(imports, argStructs, functions, methods))
	if auxiliary != "" {
		b.WriteString("\n\n")
		b.WriteString(auxiliary)
	}
	b.WriteString("\n")
	return b.String()
}
