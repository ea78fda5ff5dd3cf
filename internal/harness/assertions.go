package harness

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// AssertionError is returned when an expectation fails.
type AssertionError struct {
	Type     string // Expectation that failed: "select", "count", "columns", "error", "rows", "row_count"
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateExpectations checks result against expect and returns one message
// per failed expectation.
func EvaluateExpectations(result *Result, expect Expect) []string {
	var errs []string
	add := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	add(assertError(result, expect.Error))
	if expect.Error != nil {
		return errs
	}
	if result.Error != nil {
		// Nothing else can be checked without SQL.
		return errs
	}

	if expect.Select != "" {
		add(assertEqual("select", expect.Select, result.Select))
	}
	if expect.Count != "" {
		add(assertEqual("count", expect.Count, result.Count))
	}
	if expect.Columns != nil {
		add(assertEqual("columns", strings.Join(expect.Columns, ", "), strings.Join(result.Columns, ", ")))
	}
	if expect.RowCount != nil {
		add(assertRowCount(*expect.RowCount, result.RowCount))
	}
	if expect.Rows != nil {
		add(assertRows(expect.Rows, result.Rows))
	}
	return errs
}

// assertError checks the compilation outcome against an expected error.
// Without an expected error the compilation must succeed.
func assertError(result *Result, want *ExpectError) error {
	got := result.Error
	if want == nil {
		if got != nil {
			return &AssertionError{
				Type:     "error",
				Expected: "successful compilation",
				Actual:   fmt.Sprintf("%s error (%s): %s", got.Phase, got.Kind, got.Message),
			}
		}
		return nil
	}

	expected := describeExpectedError(want)
	if got == nil {
		return &AssertionError{Type: "error", Expected: expected, Actual: "successful compilation"}
	}
	actual := fmt.Sprintf("%s error (%s): %s", got.Phase, got.Kind, got.Message)
	if got.Phase != want.Phase ||
		(want.Kind != "" && got.Kind != want.Kind) ||
		(want.Contains != "" && !strings.Contains(got.Message, want.Contains)) {
		return &AssertionError{Type: "error", Expected: expected, Actual: actual}
	}
	return nil
}

func describeExpectedError(want *ExpectError) string {
	s := want.Phase + " error"
	if want.Kind != "" {
		s += " (" + want.Kind + ")"
	}
	if want.Contains != "" {
		s += fmt.Sprintf(" containing %q", want.Contains)
	}
	return s
}

func assertEqual(typ, expected, actual string) error {
	if expected == actual {
		return nil
	}
	return &AssertionError{Type: typ, Expected: expected, Actual: actual}
}

func assertRowCount(expected int64, actual *int64) error {
	if actual == nil {
		return &AssertionError{Type: "row_count", Expected: fmt.Sprint(expected), Actual: "query was not executed"}
	}
	if *actual != expected {
		return &AssertionError{Type: "row_count", Expected: fmt.Sprint(expected), Actual: fmt.Sprint(*actual)}
	}
	return nil
}

// assertRows matches every expected row against a distinct actual row.
// Row order is ignored since generated SQL has no ordering. Values are
// compared by text form, so a YAML 1.5 matches a decimal 1.5.
func assertRows(expected, actual []map[string]any) error {
	if len(expected) != len(actual) {
		return &AssertionError{
			Type:     "rows",
			Expected: fmt.Sprintf("%d rows", len(expected)),
			Actual:   fmt.Sprintf("%d rows: %v", len(actual), actual),
		}
	}
	used := make([]bool, len(actual))
	for i, want := range expected {
		found := false
		for j, got := range actual {
			if !used[j] && matchRow(want, got) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     "rows",
				Expected: fmt.Sprintf("row %d = %v", i, want),
				Actual:   fmt.Sprintf("no matching row in %v", actual),
			}
		}
	}
	return nil
}

// matchRow reports whether every expected column is present in actual with
// the same text form. Columns not listed in expected are ignored.
func matchRow(expected, actual map[string]any) bool {
	for k, want := range expected {
		got, ok := actual[k]
		if !ok {
			return false
		}
		if fmt.Sprint(normalizeValue(want)) != fmt.Sprint(got) {
			return false
		}
	}
	return true
}

// normalizeValue converts a decoded column value to a plain form for
// comparison and golden output.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case *apd.Decimal:
		return x.Text('f')
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.UTC().Format(time.RFC3339Nano)
	case time.Duration:
		return x.String()
	default:
		return v
	}
}
