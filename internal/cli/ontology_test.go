package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chainOntology = `package chain

namespace: tmp: {
	id:  500
	uri: "http://tmp/tmp#"

	concept: C: {id: 1001}
	concept: D: {id: 1002}
	concept: E: {id: 1003}

	predicate: P: {id: 2001, domain: "C", range: "D", cardinality: "*:1"}
	predicate: Q: {id: 2002, domain: "D", range: "E", cardinality: "*:1"}
	predicate: label: {id: 2003, domain: "D", range: "xs:string", cardinality: "1:1"}
	predicate: PLabel: {id: 2004, span: ["P", "label"]}
}
`

func TestOntologyCommand_JSON(t *testing.T) {
	onto := writeFile(t, t.TempDir(), "chain.cue", chainOntology)

	stdout, _, err := runCLI(t, "--format", "json", "--ontology", onto, "ontology", "--namespace", "tmp")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   OntologyView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []NamespaceView{{ID: 500, Code: "tmp", URI: "http://tmp/tmp#"}}, resp.Data.Namespaces)
	assert.Len(t, resp.Data.Concepts, 3)

	byCode := make(map[string]PredicateView)
	for _, p := range resp.Data.Predicates {
		byCode[p.Code] = p
	}
	require.Contains(t, byCode, "tmp:P")
	assert.Equal(t, "tmp:C", byCode["tmp:P"].Domain)
	assert.Equal(t, "tmp:D", byCode["tmp:P"].Range)
	assert.Equal(t, "*:1", byCode["tmp:P"].Cardinality)
	assert.True(t, byCode["tmp:P"].Generic)

	require.Contains(t, byCode, "tmp:PLabel")
	assert.Equal(t, []string{"tmp:P", "tmp:label"}, byCode["tmp:PLabel"].Segments)
	assert.Equal(t, "xs:string", byCode["tmp:PLabel"].Range)
}

func TestOntologyCommand_Text(t *testing.T) {
	onto := writeFile(t, t.TempDir(), "chain.cue", chainOntology)

	stdout, _, err := runCLI(t, "--ontology", onto, "ontology")
	require.NoError(t, err)
	assert.Contains(t, stdout, "NAMESPACE")
	assert.Contains(t, stdout, "http://tmp/tmp#")
	assert.Contains(t, stdout, "rdf_resource")
	assert.Contains(t, stdout, "span tmp:P / tmp:label")
	assert.Contains(t, stdout, "statement")
}

func TestOntologyCommand_Stored(t *testing.T) {
	db := loadLiteral(t)

	stdout, _, err := runCLI(t, "--format", "json", "--db", db, "ontology", "--namespace", "tmp")
	require.NoError(t, err)

	var resp struct {
		Data OntologyView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data.Predicates, 1)
	assert.Equal(t, "tmp:P", resp.Data.Predicates[0].Code)
}

func TestOntologyCommand_UnknownNamespace(t *testing.T) {
	_, _, err := runCLI(t, "ontology", "--namespace", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}
