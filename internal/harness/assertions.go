package harness

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/sofer/internal/node"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Steps that ran, for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nSteps:\n")
		for _, event := range e.Trace {
			if event.Detail != "" {
				fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Step, event.Kind, event.Detail)
			} else {
				fmt.Fprintf(&buf, "  [%d] %s\n", event.Step, event.Kind)
			}
		}
	}

	return buf.String()
}

// findNode resolves the node an assertion is about.
func findNode(doc *node.Tree, result *Result, assertion Assertion) (*node.Tree, error) {
	id, err := uuid.Parse(assertion.Node)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid node %q", assertion.Type, assertion.Node)
	}
	n := doc.Find(id)
	if n == nil {
		return nil, &AssertionError{
			Type:     assertion.Type,
			Expected: fmt.Sprintf("node %s", id),
			Actual:   "node not found",
			Trace:    result.Trace,
		}
	}
	return n, nil
}

// assertEvaled checks the text stored by the last evaluation pass.
func assertEvaled(doc *node.Tree, result *Result, assertion Assertion) error {
	n, err := findNode(doc, result, assertion)
	if err != nil {
		return err
	}
	if n.Value.Evaled == nil {
		return &AssertionError{
			Type:     AssertEvaled,
			Expected: fmt.Sprintf("%q", assertion.Equals),
			Actual:   "node was never evaluated",
			Trace:    result.Trace,
		}
	}
	if *n.Value.Evaled != assertion.Equals {
		return &AssertionError{
			Type:     AssertEvaled,
			Expected: fmt.Sprintf("%q", assertion.Equals),
			Actual:   fmt.Sprintf("%q", *n.Value.Evaled),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertRaw checks the authored text.
func assertRaw(doc *node.Tree, result *Result, assertion Assertion) error {
	n, err := findNode(doc, result, assertion)
	if err != nil {
		return err
	}
	if n.Value.Raw != assertion.Equals {
		return &AssertionError{
			Type:     AssertRaw,
			Expected: fmt.Sprintf("%q", assertion.Equals),
			Actual:   fmt.Sprintf("%q", n.Value.Raw),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertAttribute checks the first attribute carrying the given name.
func assertAttribute(doc *node.Tree, result *Result, assertion Assertion) error {
	n, err := findNode(doc, result, assertion)
	if err != nil {
		return err
	}
	attr, ok := n.Value.Attribute(assertion.Name)
	if !ok {
		return &AssertionError{
			Type:     AssertAttribute,
			Expected: fmt.Sprintf("%s = %q", assertion.Name, assertion.Equals),
			Actual:   "attribute not present",
			Trace:    result.Trace,
		}
	}
	if got := attributeText(attr.Value); got != assertion.Equals {
		return &AssertionError{
			Type:     AssertAttribute,
			Expected: fmt.Sprintf("%s = %q", assertion.Name, assertion.Equals),
			Actual:   fmt.Sprintf("%s = %q (%s)", assertion.Name, got, attr.Value.Kind()),
			Trace:    result.Trace,
		}
	}
	return nil
}

// attributeText renders an attribute value for comparison with YAML text.
func attributeText(v node.Value) string {
	switch v := v.(type) {
	case node.Text:
		return string(v)
	case node.Number:
		return node.FormatNumber(float32(v))
	case node.Boolean:
		if v {
			return "true"
		}
		return "false"
	}
	return ""
}

// assertNodeCount checks the number of nodes below the root.
func assertNodeCount(doc *node.Tree, result *Result, assertion Assertion) error {
	count := doc.Len() - 1
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertNodeCount,
			Expected: fmt.Sprintf("%d nodes", assertion.Count),
			Actual:   fmt.Sprintf("%d nodes", count),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertChildCount checks the number of direct children of a node.
func assertChildCount(doc *node.Tree, result *Result, assertion Assertion) error {
	n, err := findNode(doc, result, assertion)
	if err != nil {
		return err
	}
	count := len(n.Children())
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertChildCount,
			Expected: fmt.Sprintf("%d children", assertion.Count),
			Actual:   fmt.Sprintf("%d children", count),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertOutputContains checks the serialized document.
func assertOutputContains(result *Result, assertion Assertion) error {
	if !strings.Contains(result.Output, assertion.Text) {
		return &AssertionError{
			Type:     AssertOutputContains,
			Expected: fmt.Sprintf("output containing %q", assertion.Text),
			Actual:   result.Output,
			Trace:    result.Trace,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the final document
// and the result's output.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(doc *node.Tree, result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertEvaled:
			err = assertEvaled(doc, result, assertion)
		case AssertRaw:
			err = assertRaw(doc, result, assertion)
		case AssertAttribute:
			err = assertAttribute(doc, result, assertion)
		case AssertNodeCount:
			err = assertNodeCount(doc, result, assertion)
		case AssertChildCount:
			err = assertChildCount(doc, result, assertion)
		case AssertOutputContains:
			err = assertOutputContains(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
