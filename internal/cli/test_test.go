package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

const passingScenario = `name: literal
description: "Literal projection over two resources"
ontology:
  - literal.cue
query: 'select c.tmp:P from tmp:C c using tmp for "http://tmp/tmp#"'
data:
  resources:
    - { uri: "urn:c1", type: "tmp:C" }
  statements:
    - { subject: "urn:c1", predicate: "tmp:P", object: "hello" }
expect:
  row_count: 1
  rows:
    - { c.tmp:P: hello }
`

const failingScenario = `name: wrong_count
description: "Expects more rows than the data holds"
ontology:
  - literal.cue
query: 'select c.tmp:P from tmp:C c using tmp for "http://tmp/tmp#"'
data:
  resources:
    - { uri: "urn:c1", type: "tmp:C" }
expect:
  row_count: 3
`

// scenarioDir writes the literal ontology and the given scenarios to a new
// directory.
func scenarioDir(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "literal.cue", literalOntology)
	for name, content := range scenarios {
		writeFile(t, dir, name+".yaml", content)
	}
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, _, err := runCLI(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, _, err := runCLI(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	stdout, _, err := runCLI(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stdout, "No scenarios found.")
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	stdout, _, err := runCLI(t, "--format", "json", "test", harnessScenarios)
	require.NoError(t, err, stdout)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Positive(t, resp.Data.Total)
	assert.Equal(t, resp.Data.Total, resp.Data.Passed)
	assert.Zero(t, resp.Data.Failed)
}

func TestTestCommandFilter(t *testing.T) {
	stdout, _, err := runCLI(t, "--format", "json", "test", harnessScenarios, "--filter", "chain*")
	require.NoError(t, err)

	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "chain", resp.Data.Scenarios[0].Name)
}

func TestTestCommandFailure(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"literal": passingScenario, "wrong_count": failingScenario})

	t.Run("text", func(t *testing.T) {
		stdout, _, err := runCLI(t, "test", dir)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, stdout, "✓ literal")
		assert.Contains(t, stdout, "✗ wrong_count")
		assert.Contains(t, stdout, "Test Summary: 1 passed, 1 failed, 2 total")
	})

	t.Run("json", func(t *testing.T) {
		stdout, _, err := runCLI(t, "--format", "json", "test", dir)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))

		var resp CLIResponse
		require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
		assert.Equal(t, "1 scenario(s) failed", resp.Error.Message)
	})
}

func TestTestCommandLoadError(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"broken": "name: broken\n"})

	stdout, _, err := runCLI(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "✗ broken.yaml")
	assert.Contains(t, stdout, "failed to load scenario")
}

func TestTestCommandGolden(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"literal": passingScenario})
	golden := filepath.Join(dir, "golden", "literal.golden")

	stdout, _, err := runCLI(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ literal (golden updated)")

	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), "scenario: literal\n")
	assert.Contains(t, string(data), "  c.tmp:P=hello\n")

	_, _, err = runCLI(t, "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte("scenario: literal\n"), 0644))
	stdout, _, err = runCLI(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "does not match golden file")
}
