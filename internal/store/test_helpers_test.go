package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/rdql/internal/ontology"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func literalTableNames() []string {
	names := make([]string, 0, len(ontology.LiteralTables))
	for _, lt := range ontology.LiteralTables {
		names = append(names, lt.Table)
	}
	return names
}
