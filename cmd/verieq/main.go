package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"verieq/internal/checker"
	"verieq/internal/components"
	"verieq/internal/config"
	"verieq/internal/logging"
	"verieq/internal/precond"
	"verieq/internal/report"
	"verieq/internal/source"
	"verieq/internal/storage"
)

var (
	rootCmd = &cobra.Command{
		Use:   "verieq",
		Short: "Differential equivalence checker for two versions of a Rust source file",
	}

	cfgPath       string
	dbPath        string
	componentList []string
	precondPath   string
	keepArtifacts bool
	verbosity     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the run ledger database (SQLite)")

	checkCmd.Flags().StringSliceVar(&componentList, "components", nil, "Components to run, in order (identical, kani, proptest, fuzz, alive2)")
	checkCmd.Flags().StringVar(&precondPath, "preconditions", "", "Path to the precondition file (YAML)")
	checkCmd.Flags().BoolVar(&keepArtifacts, "keep-artifacts", false, "Keep generated harness workspaces")
	checkCmd.Flags().StringVar(&verbosity, "verbosity", "", "Log verbosity (quiet, normal, verbose)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(historyCmd)
}

// loadConfig layers CLI flags over the config file and its defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if len(componentList) > 0 {
		cfg.Components = componentList
	}
	if precondPath != "" {
		cfg.PrecondPath = precondPath
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if keepArtifacts {
		cfg.KeepArtifacts = true
	}
	if verbosity != "" {
		cfg.Verbosity = verbosity
	}
	return cfg, nil
}

// buildComponents resolves configured component names into runnable
// components, preserving order.
func buildComponents(cfg *config.Config, log *slog.Logger) ([]checker.Component, error) {
	var out []checker.Component
	for _, name := range cfg.Components {
		switch name {
		case "identical":
			out = append(out, components.NewIdentical(log))
		case "kani":
			out = append(out, components.NewKani(log, cfg.Kani.Timeout, cfg.KeepArtifacts))
		case "proptest":
			out = append(out, components.NewProptest(log, cfg.Proptest.Cases, cfg.KeepArtifacts))
		case "fuzz":
			out = append(out, components.NewFuzz(log, cfg.Fuzz.RunnerDir, cfg.Fuzz.Runs, cfg.KeepArtifacts))
		case "alive2":
			out = append(out, components.NewAlive2(log, cfg.Alive2.Path, cfg.KeepArtifacts))
		default:
			return nil, errors.Errorf("unknown component %q", name)
		}
	}
	return out, nil
}

var checkCmd = &cobra.Command{
	Use:   "check <old.rs> <new.rs>",
	Short: "Check behavioral equivalence between two versions of a source file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		ctx := context.Background()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logging.New(cfg.Verbosity)

		oldSrc, err := source.Load(args[0])
		if err != nil {
			return err
		}
		newSrc, err := source.Load(args[1])
		if err != nil {
			return err
		}
		preconds, err := precond.Load(cfg.PrecondPath)
		if err != nil {
			return err
		}

		comps, err := buildComponents(cfg, log)
		if err != nil {
			return err
		}

		c := checker.New(oldSrc, newSrc, preconds, log)
		log.Info("checking", "old", args[0], "new", args[1], "pairs", len(c.Unchecked()))

		runErr := c.Run(ctx, comps)

		var inconsistency *checker.InconsistencyError
		errors.As(runErr, &inconsistency)
		report.Print(os.Stdout, c, inconsistency)

		if cfg.DBPath != "" {
			if err := persistRun(ctx, cfg.DBPath, args[0], args[1], c, inconsistency, runErr); err != nil {
				log.Warn("could not persist run", "err", err)
			}
		}

		return runErr
	},
}

// persistRun writes one ledger entry with the final state of every pair.
func persistRun(ctx context.Context, path, oldPath, newPath string, c *checker.Checker, inconsistency *checker.InconsistencyError, runErr error) error {
	store, err := storage.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	runID, err := store.BeginRun(ctx, oldPath, newPath)
	if err != nil {
		return err
	}

	var verdicts []storage.Verdict
	for _, name := range c.Verified() {
		verdicts = append(verdicts, storage.Verdict{
			Name: name.String(), State: "verified", Component: c.SettledBy(name),
		})
	}
	for _, name := range c.Tested() {
		verdicts = append(verdicts, storage.Verdict{
			Name: name.String(), State: "tested", Component: c.SettledBy(name),
		})
	}
	for _, fn := range c.Unchecked() {
		verdicts = append(verdicts, storage.Verdict{Name: fn.Name.String(), State: "unchecked"})
	}
	if inconsistency != nil {
		for _, name := range inconsistency.Names {
			verdicts = append(verdicts, storage.Verdict{
				Name: name.String(), State: "failed", Component: inconsistency.Component,
			})
		}
	}
	if err := store.SaveVerdicts(ctx, runID, verdicts); err != nil {
		return err
	}

	outcome := "ok"
	switch {
	case inconsistency != nil:
		outcome = "inconsistent"
	case runErr != nil:
		outcome = "incomplete"
	}
	return store.FinishRun(ctx, runID, outcome)
}

var historyCmd = &cobra.Command{
	Use:   "history <name>",
	Short: "Show past verdicts for one function",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		ctx := context.Background()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DBPath == "" {
			return errors.New("no ledger database configured (use --db or db_path)")
		}

		store, err := storage.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		verdicts, err := store.History(ctx, args[0])
		if err != nil {
			return err
		}
		if len(verdicts) == 0 {
			fmt.Printf("no recorded verdicts for %s\n", args[0])
			return nil
		}

		for _, v := range verdicts {
			component := v.Component
			if component == "" {
				component = "-"
			}
			fmt.Printf("%s  %-10s %-10s run %s\n",
				v.StartedAt.Format("2006-01-02 15:04:05"), v.State, component, v.RunID)
		}
		return nil
	},
}
