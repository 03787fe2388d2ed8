package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Components lists the check components to run, in order. Recognized
	// names: identical, kani, proptest, fuzz, alive2.
	Components []string `yaml:"components"`

	// KeepArtifacts leaves generated harness workspaces on disk.
	KeepArtifacts bool `yaml:"keep_artifacts"`

	// DBPath is the SQLite run ledger location. Empty disables persistence.
	DBPath string `yaml:"db_path"`

	// PrecondPath points at the optional precondition file.
	PrecondPath string `yaml:"precond_path"`

	// Verbosity is one of quiet, normal, verbose.
	Verbosity string `yaml:"verbosity"`

	Kani struct {
		Timeout int `yaml:"timeout"` // seconds per cargo-kani run, 0 means none
	} `yaml:"kani"`

	Proptest struct {
		Cases int `yaml:"cases"`
	} `yaml:"proptest"`

	Fuzz struct {
		RunnerDir string `yaml:"runner_dir"` // pre-built fuzz runner project
		Runs      int    `yaml:"runs"`
	} `yaml:"fuzz"`

	Alive2 struct {
		Path string `yaml:"path"` // alive-tv binary
	} `yaml:"alive2"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		Components: []string{"identical", "kani", "proptest"},
		Verbosity:  "normal",
	}
	cfg.Proptest.Cases = 256
	cfg.Fuzz.Runs = 10000
	cfg.Alive2.Path = "alive-tv"
	return cfg
}

// Load reads the YAML config at path, layered over Default. An empty path
// means file-less defaults; environment variables override both.
func Load(path string) (*Config, error) {
	// Pick up VERIEQ_* overrides from a local .env if present.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}

	if db := os.Getenv("VERIEQ_DB_PATH"); db != "" {
		cfg.DBPath = db
	}
	if alive := os.Getenv("VERIEQ_ALIVE_TV"); alive != "" {
		cfg.Alive2.Path = alive
	}
	if verb := os.Getenv("VERIEQ_VERBOSITY"); verb != "" {
		cfg.Verbosity = verb
	}

	return cfg, nil
}
