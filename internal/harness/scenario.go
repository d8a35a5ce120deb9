package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/roach88/sofer/internal/interchange"
)

// Scenario defines a document test scenario.
// A scenario imports a document, applies steps to it and asserts on the
// resulting tree and its evaluated sofer output.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Document is the input document text.
	Document string `yaml:"document,omitempty"`

	// DocumentFile names a file holding the input document instead.
	// Relative paths are resolved against the scenario file's directory.
	DocumentFile string `yaml:"document_file,omitempty"`

	// From is the import format of the document. Defaults to sofer.
	From string `yaml:"from,omitempty"`

	// SharedContext evaluates every formula of a pass in one Lua state.
	SharedContext bool `yaml:"shared_context,omitempty"`

	// Steps are applied in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final tree and output.
	// Supported types: evaled, raw, attribute, node_count, child_count,
	// output_contains
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one operation on the document. Exactly one field is set.
type Step struct {
	// EvalAll re-evaluates the whole document.
	EvalAll bool `yaml:"eval_all,omitempty"`

	// Insert adds a node.
	Insert *InsertStep `yaml:"insert,omitempty"`

	// Save stores the document under this name in the scenario's
	// in-memory snapshot store.
	Save string `yaml:"save,omitempty"`

	// Load replaces the document with a stored snapshot.
	Load *LoadStep `yaml:"load,omitempty"`
}

// InsertStep adds a node under Parent.
type InsertStep struct {
	Parent  string `yaml:"parent"`
	Content string `yaml:"content"`

	// ID fixes the new node's identifier. When empty a deterministic
	// identifier is generated.
	ID string `yaml:"id,omitempty"`
}

// LoadStep selects a stored snapshot. Revision 0 is the latest.
type LoadStep struct {
	Name     string `yaml:"name"`
	Revision int    `yaml:"revision,omitempty"`
}

// Assertion validates the final document.
type Assertion struct {
	// Type specifies the assertion type:
	// - "evaled": evaluated text of Node equals Equals
	// - "raw": raw text of Node equals Equals
	// - "attribute": attribute Name of Node renders as Equals
	// - "node_count": the document holds Count nodes besides the root
	// - "child_count": Node has Count children
	// - "output_contains": the evaluated sofer output contains Text
	Type string `yaml:"type"`

	// Node is the identifier of the node under test.
	Node string `yaml:"node,omitempty"`

	// Name is the attribute name (used by attribute).
	Name string `yaml:"name,omitempty"`

	// Equals is the expected text (used by evaled, raw, attribute).
	Equals string `yaml:"equals,omitempty"`

	// Count is the expected number (used by node_count, child_count).
	Count int `yaml:"count,omitempty"`

	// Text is the expected substring (used by output_contains).
	Text string `yaml:"text,omitempty"`
}

// Assertion type constants.
const (
	AssertEvaled         = "evaled"
	AssertRaw            = "raw"
	AssertAttribute      = "attribute"
	AssertNodeCount      = "node_count"
	AssertChildCount     = "child_count"
	AssertOutputContains = "output_contains"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the document file relative to the scenario BEFORE validation
	if scenario.DocumentFile != "" {
		docPath := scenario.DocumentFile
		if !filepath.IsAbs(docPath) {
			docPath = filepath.Join(filepath.Dir(path), docPath)
		}
		content, err := os.ReadFile(docPath)
		if err != nil {
			return nil, fmt.Errorf("invalid scenario: document file: %w", err)
		}
		scenario.Document = string(content)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.From != "" {
		if err := interchange.ValidateImport(s.From); err != nil {
			return fmt.Errorf("from: %w", err)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step *Step) error {
	set := 0
	if step.EvalAll {
		set++
	}
	if step.Insert != nil {
		set++
		if _, err := uuid.Parse(step.Insert.Parent); err != nil {
			return fmt.Errorf("steps[%d].insert: invalid parent %q", index, step.Insert.Parent)
		}
		if step.Insert.ID != "" {
			if _, err := uuid.Parse(step.Insert.ID); err != nil {
				return fmt.Errorf("steps[%d].insert: invalid id %q", index, step.Insert.ID)
			}
		}
	}
	if step.Save != "" {
		set++
	}
	if step.Load != nil {
		set++
		if step.Load.Name == "" {
			return fmt.Errorf("steps[%d].load: name is required", index)
		}
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of eval_all, insert, save, load is required", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needsNode := false
	switch a.Type {
	case AssertEvaled, AssertRaw, AssertChildCount:
		needsNode = true
	case AssertAttribute:
		needsNode = true
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for attribute", index)
		}
	case AssertNodeCount:
	case AssertOutputContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for output_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if needsNode {
		if _, err := uuid.Parse(a.Node); err != nil {
			return fmt.Errorf("assertions[%d]: node must be an identifier for %s, got %q", index, a.Type, a.Node)
		}
	}
	return nil
}
