// Package toolchain runs external verification tools and manages the
// throwaway Cargo projects they operate on.
package toolchain

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Run executes an external tool in dir and returns its combined standard
// output. Tool diagnostics on stderr are forwarded to the log at debug
// level instead of the terminal. Callers parse the returned stdout; a
// non-zero exit is not necessarily an error for them, so stdout is
// returned alongside the wrapped error.
func Run(ctx context.Context, log *slog.Logger, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("running tool", "cmd", name, "args", strings.Join(args, " "), "dir", dir)
	err := cmd.Run()
	if stderr.Len() > 0 {
		log.Debug("tool stderr", "cmd", name, "output", stderr.String())
	}
	if err != nil {
		return stdout.String(), errors.Wrapf(err, "%s %s", name, strings.Join(args, " "))
	}
	return stdout.String(), nil
}

// Workspace is a temporary directory holding one generated Cargo project.
type Workspace struct {
	Dir  string
	keep bool
	log  *slog.Logger
}

// NewWorkspace creates a uniquely named scratch directory. With keep set,
// Close leaves the directory in place for inspection.
func NewWorkspace(log *slog.Logger, label string, keep bool) (*Workspace, error) {
	dir := filepath.Join(os.TempDir(), "verieq-"+label+"-"+uuid.NewString())
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		return nil, errors.Wrapf(err, "create workspace %s", dir)
	}
	log.Debug("created workspace", "dir", dir)
	return &Workspace{Dir: dir, keep: keep, log: log}, nil
}

// Close removes the workspace unless it was created with keep.
func (w *Workspace) Close() {
	if w.keep {
		w.log.Info("keeping workspace", "dir", w.Dir)
		return
	}
	if err := os.RemoveAll(w.Dir); err != nil {
		w.log.Warn("could not remove workspace", "dir", w.Dir, "err", err)
	}
}

// WriteCargoProject lays out a comparison project inside the workspace:
// both source versions as modules, the generated harness as the crate
// root, and a manifest. mainName is the crate root file name, main.rs for
// binaries and lib.rs for proof harnesses.
func (w *Workspace) WriteCargoProject(mod1, mod2, harness, manifest, mainName string) error {
	files := map[string]string{
		filepath.Join(w.Dir, "Cargo.toml"):     manifest,
		filepath.Join(w.Dir, "src", "mod1.rs"): mod1,
		filepath.Join(w.Dir, "src", "mod2.rs"): mod2,
		filepath.Join(w.Dir, "src", mainName):  harness,
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return errors.Wrapf(err, "write %s", path)
		}
	}
	return nil
}

// WriteFile places an extra file inside the workspace root.
func (w *Workspace) WriteFile(name, content string) (string, error) {
	path := filepath.Join(w.Dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}
	return path, nil
}
