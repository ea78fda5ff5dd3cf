package harness

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders the golden form of result: one "key: value" line per
// field, then one line per row with its columns in sorted order. Row lines
// are sorted too.
func Snapshot(scenario *Scenario, result *Result) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", scenario.Name)
	fmt.Fprintf(&buf, "query: %s\n", strings.TrimSpace(scenario.Query))

	if e := result.Error; e != nil {
		fmt.Fprintf(&buf, "error: %s %s: %s\n", e.Phase, e.Kind, e.Message)
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "select: %s\n", result.Select)
	fmt.Fprintf(&buf, "count: %s\n", result.Count)
	fmt.Fprintf(&buf, "columns: %s\n", strings.Join(result.Columns, ", "))
	if result.RowCount == nil {
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "row_count: %d\n", *result.RowCount)
	fmt.Fprintf(&buf, "rows:\n")
	lines := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fields := make([]string, len(keys))
		for i, k := range keys {
			fields[i] = fmt.Sprintf("%s=%v", k, row[k])
		}
		lines = append(lines, strings.Join(fields, " "))
	}
	sort.Strings(lines)
	for _, line := range lines {
		fmt.Fprintf(&buf, "  %s\n", line)
	}
	return buf.Bytes()
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario, result)
	return result, nil
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, Snapshot(scenario, result))
}
