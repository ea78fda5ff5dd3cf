package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes content to dir/name and returns the path.
func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// createTestOntology creates a CUE ontology file next to the scenario.
func createTestOntology(t *testing.T, dir string) {
	t.Helper()
	content := `namespace: tmp: {
	uri: "http://tmp/tmp#"
	concept: C: {}
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp.cue"), []byte(content), 0644))
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	createTestOntology(t, dir)

	path := writeScenario(t, dir, "test.yaml", `
name: test_scenario
description: "Test scenario for validation"
ontology:
  - tmp.cue
query: select c.rdf:about from tmp:C c
data:
  resources:
    - { uri: "urn:c1", type: "tmp:C" }
expect:
  columns: [c.rdf:about]
  row_count: 1
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, []string{filepath.Join(dir, "tmp.cue")}, scenario.Ontology, "paths resolve against the scenario directory")
	assert.Equal(t, "select c.rdf:about from tmp:C c", scenario.Query)
	require.NotNil(t, scenario.Data)
	assert.Len(t, scenario.Data.Resources, 1)
	assert.Equal(t, []string{"c.rdf:about"}, scenario.Expect.Columns)
	require.NotNil(t, scenario.Expect.RowCount)
	assert.Equal(t, int64(1), *scenario.Expect.RowCount)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "test.yaml", `
name: typo
description: "has a typo"
query: select c.rdf:about from rdfs:Resource c
expects:
  columns: [c.rdf:about]
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nquery: q\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nquery: q\n",
			wantErr: "description is required",
		},
		{
			name:    "missing query",
			content: "name: n\ndescription: d\n",
			wantErr: "query is required",
		},
		{
			name:    "missing ontology file",
			content: "name: n\ndescription: d\nquery: q\nontology: [nope.cue]\n",
			wantErr: "ontology file not found",
		},
		{
			name:    "unknown phase",
			content: "name: n\ndescription: d\nquery: q\nexpect:\n  error: { phase: run }\n",
			wantErr: `unknown phase "run"`,
		},
		{
			name:    "unknown kind",
			content: "name: n\ndescription: d\nquery: q\nexpect:\n  error: { phase: parse, kind: oops }\n",
			wantErr: `unknown kind "oops"`,
		},
		{
			name:    "error with sql",
			content: "name: n\ndescription: d\nquery: q\nexpect:\n  select: s\n  error: { phase: parse }\n",
			wantErr: "cannot be combined",
		},
		{
			name:    "rows without data",
			content: "name: n\ndescription: d\nquery: q\nexpect:\n  row_count: 1\n",
			wantErr: "row expectations require data",
		},
		{
			name:    "resource without type",
			content: "name: n\ndescription: d\nquery: q\ndata:\n  resources:\n    - { uri: u }\n",
			wantErr: "data.resources[0]: type is required",
		},
		{
			name:    "statement without object",
			content: "name: n\ndescription: d\nquery: q\ndata:\n  statements:\n    - { subject: s, predicate: p }\n",
			wantErr: "data.statements[0]: object is required",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), "test.yaml", tc.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "alpha.yaml", "")
	writeScenario(t, dir, "beta.yml", "")
	writeScenario(t, dir, "notes.txt", "")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	writeScenario(t, filepath.Join(dir, "nested"), "alpha2.yaml", "")

	all, err := FindScenarios(dir, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	filtered, err := FindScenarios(dir, "alpha*")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "alpha.yaml"),
		filepath.Join(dir, "nested", "alpha2.yaml"),
	}, filtered)

	_, err = FindScenarios(dir, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestLoadScenario_Testdata(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios", "")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			_, err := LoadScenario(f)
			require.NoError(t, err)
		})
	}
}
