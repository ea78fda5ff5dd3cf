package testutil

// FixedIDGenerator generates the same compilation ID every time.
//
// This enables deterministic log output and golden comparison of compile
// results.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a new fixed ID generator.
//
// If id is empty, Generate() returns "test-compilation".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-compilation"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
//
// Implements query.IDGenerator interface.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
