package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, []string{"identical", "kani", "proptest"}, cfg.Components)
	assert.Equal(t, "normal", cfg.Verbosity)
	assert.Equal(t, 256, cfg.Proptest.Cases)
	assert.Equal(t, "alive-tv", cfg.Alive2.Path)
	assert.False(t, cfg.KeepArtifacts)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Components, cfg.Components)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verieq.yaml")
	body := `
components: [identical, fuzz]
keep_artifacts: true
db_path: runs.db
proptest:
  cases: 64
alive2:
  path: /opt/alive2/alive-tv
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"identical", "fuzz"}, cfg.Components)
	assert.True(t, cfg.KeepArtifacts)
	assert.Equal(t, "runs.db", cfg.DBPath)
	assert.Equal(t, 64, cfg.Proptest.Cases)
	assert.Equal(t, "/opt/alive2/alive-tv", cfg.Alive2.Path)
	// Untouched keys keep their defaults.
	assert.Equal(t, 10000, cfg.Fuzz.Runs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verieq.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_path: from-file.db\n"), 0o644))

	t.Setenv("VERIEQ_DB_PATH", "from-env.db")
	t.Setenv("VERIEQ_VERBOSITY", "verbose")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env.db", cfg.DBPath)
	assert.Equal(t, "verbose", cfg.Verbosity)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
