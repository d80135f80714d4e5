package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  %s\n", FormatEvent(event))
	}

	return buf.String()
}

// FormatEvent renders one trace entry on a single line.
func FormatEvent(e TraceEvent) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "[%d] %s", e.Seq, e.Kind)
	if e.From != "" || e.To != "" {
		fmt.Fprintf(&buf, " %s -> %s", e.From, e.To)
	}
	if e.Call != "" {
		fmt.Fprintf(&buf, " call=%s", e.Call)
	}
	if e.Detail != "" {
		fmt.Fprintf(&buf, " (%s)", e.Detail)
	}
	return buf.String()
}

func matches(e TraceEvent, a Assertion) bool {
	return e.Kind == a.Kind && (a.Detail == "" || e.Detail == a.Detail)
}

// assertTraceContains checks that an entry of the given kind (and detail,
// when set) exists.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, e := range trace {
		if matches(e, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("kind %s detail %q", a.Kind, a.Detail),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceCount checks the exact number of matching entries.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, e := range trace {
		if matches(e, a) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%s exactly %d times", a.Kind, a.Count),
			Actual:   fmt.Sprintf("%d times", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks that the kinds first occur in the given order.
// Intervening entries are allowed.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, e := range trace {
		if _, seen := positions[e.Kind]; !seen {
			positions[e.Kind] = i + 1
		}
	}

	for _, kind := range a.Kinds {
		if positions[kind] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all kinds present: %v", a.Kinds),
				Actual:   fmt.Sprintf("missing kind: %s", kind),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Kinds); i++ {
		prev, curr := a.Kinds[i-1], a.Kinds[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("kinds in order: %v", a.Kinds),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalState:
			if result.State != a.State {
				err = &AssertionError{Type: AssertFinalState, Expected: a.State, Actual: result.State, Trace: result.Trace}
			}
		case AssertOverlay:
			if result.Overlay != a.Caller {
				err = &AssertionError{
					Type:     AssertOverlay,
					Expected: fmt.Sprintf("caller %q", a.Caller),
					Actual:   fmt.Sprintf("caller %q", result.Overlay),
					Trace:    result.Trace,
				}
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
