package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: an ontology, a query, and
// what compiling and running the query must produce.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Ontology lists CUE files or directories to load on top of the core
	// vocabulary. Paths are relative to the scenario file location.
	Ontology []string `yaml:"ontology"`

	// Spans enables automatic span synthesis after loading the ontology.
	Spans bool `yaml:"spans,omitempty"`

	// Query is the RDQL text to compile.
	Query string `yaml:"query"`

	// Data is loaded into an in-memory store before the query runs.
	// Without data the query is compiled but not executed.
	Data *Data `yaml:"data,omitempty"`

	// Expect holds the expectations. Every field is optional; only the
	// fields present are checked.
	Expect Expect `yaml:"expect"`
}

// Data is the RDF content of a scenario.
type Data struct {
	Resources  []ResourceData  `yaml:"resources"`
	Statements []StatementData `yaml:"statements"`
}

// ResourceData is one resource. Type is a concept code such as "tmp:C".
type ResourceData struct {
	URI  string `yaml:"uri"`
	Type string `yaml:"type"`
}

// StatementData is one statement. Predicate is a predicate code. Object is
// a literal value for literal predicates and a resource URI otherwise.
type StatementData struct {
	Subject   string `yaml:"subject"`
	Predicate string `yaml:"predicate"`
	Object    any    `yaml:"object"`
}

// Expect lists expected compilation and execution results.
type Expect struct {
	// Select and Count are the exact generated SQL.
	Select string `yaml:"select,omitempty"`
	Count  string `yaml:"count,omitempty"`

	// Columns are the expected output column keys, in order.
	Columns []string `yaml:"columns,omitempty"`

	// Error expects the compilation to fail.
	Error *ExpectError `yaml:"error,omitempty"`

	// Rows are the expected result rows keyed by column key, in order.
	// Values are compared by their text form.
	Rows []map[string]any `yaml:"rows,omitempty"`

	// RowCount is the expected store count.
	RowCount *int64 `yaml:"row_count,omitempty"`
}

// ExpectError describes an expected compilation failure.
type ExpectError struct {
	// Phase is "parse", "resolve" or "generate".
	Phase string `yaml:"phase"`

	// Kind is one of the error kinds returned by ErrorKind.
	Kind string `yaml:"kind,omitempty"`

	// Contains is a substring of the error message.
	Contains string `yaml:"contains,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file, resolving ontology
// paths relative to the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expects:" vs "expect:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, p := range scenario.Ontology {
		if !filepath.IsAbs(p) {
			scenario.Ontology[i] = filepath.Join(base, p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDataFile reads a YAML file holding resources and statements in the
// format of a scenario's data section.
func LoadDataFile(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var data Data
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateData(&data); err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	return &data, nil
}

// FindScenarios returns the .yaml and .yml files under dir whose base name
// matches the glob filter. An empty filter matches everything.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if strings.TrimSpace(s.Query) == "" {
		return fmt.Errorf("query is required")
	}

	for _, p := range s.Ontology {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("ontology file not found: %s", p)
		}
	}

	if e := s.Expect.Error; e != nil {
		switch e.Phase {
		case PhaseParse, PhaseResolve, PhaseGenerate:
		default:
			return fmt.Errorf("expect.error: unknown phase %q", e.Phase)
		}
		if e.Kind != "" && !isKnownKind(e.Kind) {
			return fmt.Errorf("expect.error: unknown kind %q", e.Kind)
		}
		if s.Expect.Select != "" || s.Expect.Count != "" || len(s.Expect.Rows) > 0 {
			return fmt.Errorf("expect.error cannot be combined with SQL or row expectations")
		}
	}

	if (len(s.Expect.Rows) > 0 || s.Expect.RowCount != nil) && s.Data == nil {
		return fmt.Errorf("row expectations require data")
	}

	if s.Data != nil {
		return validateData(s.Data)
	}
	return nil
}

func validateData(d *Data) error {
	for i, r := range d.Resources {
		if r.URI == "" {
			return fmt.Errorf("data.resources[%d]: uri is required", i)
		}
		if r.Type == "" {
			return fmt.Errorf("data.resources[%d]: type is required", i)
		}
	}
	for i, st := range d.Statements {
		if st.Subject == "" || st.Predicate == "" {
			return fmt.Errorf("data.statements[%d]: subject and predicate are required", i)
		}
		if st.Object == nil {
			return fmt.Errorf("data.statements[%d]: object is required", i)
		}
	}
	return nil
}
