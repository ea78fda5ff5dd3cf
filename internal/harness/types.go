package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success.
	// True if every expectation matches.
	Pass bool `json:"pass" yaml:"pass"`

	// CompilationID correlates the result with the compiler's log lines.
	CompilationID string `json:"compilation_id,omitempty" yaml:"compilation_id,omitempty"`

	// Select and Count are the generated SQL. Empty when compilation failed.
	Select string `json:"select,omitempty" yaml:"select,omitempty"`
	Count  string `json:"count,omitempty" yaml:"count,omitempty"`

	// Columns lists the output column keys in projection order.
	Columns []string `json:"columns,omitempty" yaml:"columns,omitempty"`

	// Error is the compilation error, if any.
	Error *ErrorOutcome `json:"error,omitempty" yaml:"error,omitempty"`

	// Rows and RowCount are set when the scenario loads data.
	Rows     []map[string]any `json:"rows,omitempty" yaml:"rows,omitempty"`
	RowCount *int64           `json:"row_count,omitempty" yaml:"row_count,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// ErrorOutcome describes a failed compilation.
type ErrorOutcome struct {
	Phase   string `json:"phase" yaml:"phase"`
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
