package cli

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rdql.yaml", "")

	cfg, found, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, found)
	assert.Empty(t, cfg.Database)
	assert.Empty(t, cfg.Ontology)
	assert.False(t, cfg.Spans)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rdql.yaml", `database: data/rdql.db
ontology:
  - ontology
  - /abs/extra.cue
spans: true
log_level: debug
`)

	cfg, _, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data", "rdql.db"), cfg.Database)
	assert.Equal(t, []string{filepath.Join(dir, "ontology"), "/abs/extra.cue"}, cfg.Ontology)
	assert.True(t, cfg.Spans)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadConfig_Env(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rdql.yaml", "database: file.db\n")
	envDB := filepath.Join(t.TempDir(), "env.db")
	t.Setenv("RDQL_DATABASE", envDB)
	t.Setenv("RDQL_LOG_LEVEL", "error")

	cfg, _, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, envDB, cfg.Database)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadConfig_MemoryDatabase(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rdql.yaml", "database: \":memory:\"\n")

	cfg, _, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.Database)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config file not found")
	})

	t.Run("invalid log level", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "rdql.yaml", "log_level: loud\n")
		_, _, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid log_level "loud"`)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "rdql.yaml", "ontology: [unclosed\n")
		_, _, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading config file")
	})
}

func TestFindConfigFile_WalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".git/HEAD", "ref: refs/heads/main\n")
	want := writeFile(t, root, "rdql.yml", "spans: true\n")
	nested := filepath.Join(root, "a", "b")
	writeFile(t, nested, "keep", "")
	t.Chdir(nested)

	got, err := findConfigFile("")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindConfigFile_StopsAtRepoRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "rdql.yaml", "spans: true\n")
	repo := filepath.Join(root, "repo")
	writeFile(t, repo, ".git/HEAD", "ref: refs/heads/main\n")
	t.Chdir(repo)

	got, err := findConfigFile("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolvedDatabase(t *testing.T) {
	cfg := &Config{Database: "config.db"}
	assert.Equal(t, "flag.db", cfg.ResolvedDatabase("flag.db"))
	assert.Equal(t, "config.db", cfg.ResolvedDatabase(""))

	var none *Config
	assert.Empty(t, none.ResolvedDatabase(""))
}
