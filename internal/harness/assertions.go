package harness

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/pullgraph/internal/canonical"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Path     []string
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s at %s\n", e.Type, formatPath(e.Path))
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// lookup walks path through plain result data. Map segments are keys; list
// segments are decimal indexes.
func lookup(v any, path []string) (any, bool) {
	for _, seg := range path {
		switch node := v.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			v = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			v = node[i]
		default:
			return nil, false
		}
	}
	return v, true
}

func assertPresent(output map[string]any, assertion Assertion) error {
	if _, ok := lookup(output, assertion.Path); ok {
		return nil
	}
	return &AssertionError{
		Type:     AssertPresent,
		Path:     assertion.Path,
		Expected: "a value",
		Actual:   "nothing",
	}
}

func assertAbsent(output map[string]any, assertion Assertion) error {
	v, ok := lookup(output, assertion.Path)
	if !ok {
		return nil
	}
	return &AssertionError{
		Type:     AssertAbsent,
		Path:     assertion.Path,
		Expected: "nothing",
		Actual:   describeValue(v),
	}
}

// assertEquals compares canonical encodings, so YAML ints match int64 graph
// values and map key order is irrelevant.
func assertEquals(output map[string]any, assertion Assertion) error {
	v, ok := lookup(output, assertion.Path)
	if !ok {
		return &AssertionError{
			Type:     AssertEquals,
			Path:     assertion.Path,
			Expected: describeValue(assertion.Value),
			Actual:   "nothing",
		}
	}
	if valuesEqual(v, assertion.Value) {
		return nil
	}
	return &AssertionError{
		Type:     AssertEquals,
		Path:     assertion.Path,
		Expected: describeValue(assertion.Value),
		Actual:   describeValue(v),
	}
}

func assertCount(output map[string]any, assertion Assertion) error {
	v, ok := lookup(output, assertion.Path)
	items, isList := v.([]any)
	if ok && isList && len(items) == assertion.Count {
		return nil
	}

	actual := "nothing"
	switch {
	case ok && isList:
		actual = fmt.Sprintf("%d items", len(items))
	case ok:
		actual = "not a list: " + describeValue(v)
	}
	return &AssertionError{
		Type:     AssertCount,
		Path:     assertion.Path,
		Expected: fmt.Sprintf("%d items", assertion.Count),
		Actual:   actual,
	}
}

func valuesEqual(actual, expected any) bool {
	a, err := canonical.Marshal(actual)
	if err != nil {
		return false
	}
	e, err := canonical.Marshal(expected)
	if err != nil {
		return false
	}
	return bytes.Equal(a, e)
}

func describeValue(v any) string {
	b, err := canonical.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func formatPath(path []string) string {
	return "/" + strings.Join(path, "/")
}

// EvaluateAssertions runs every assertion against the result's output and
// returns the failure messages. Assertions are skipped when resolution
// produced no output; the expectation check reports that case.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	if result.Output == nil {
		if len(assertions) > 0 && result.ErrorCode == "" {
			return []string{"assertions cannot run: no output"}
		}
		return nil
	}

	var errs []string
	for _, assertion := range assertions {
		var err error
		switch assertion.Type {
		case AssertPresent:
			err = assertPresent(result.Output, assertion)
		case AssertAbsent:
			err = assertAbsent(result.Output, assertion)
		case AssertEquals:
			err = assertEquals(result.Output, assertion)
		case AssertCount:
			err = assertCount(result.Output, assertion)
		default:
			err = fmt.Errorf("unknown assertion type %q", assertion.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}
