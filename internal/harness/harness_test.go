package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	rootID = "00000000-0000-0000-0000-000000000000"
	node1  = "00000000-0000-0000-0000-000000000001"
)

func TestRun_MinimalScenario(t *testing.T) {
	scenario := &Scenario{
		Name:     "minimal",
		Document: node1 + " " + rootID + "  Total @ 1+1\n",
		Steps:    []Step{{EvalAll: true}},
		Assertions: []Assertion{
			{Type: AssertEvaled, Node: node1, Equals: "Total 2"},
			{Type: AssertNodeCount, Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, node1+" "+rootID+"  Total 2\n", result.Output)
	assert.Equal(t, []TraceEvent{
		{Step: 0, Kind: "import", Detail: "sofer"},
		{Step: 1, Kind: "eval_all"},
	}, result.Trace)
}

func TestRun_WithoutEvaluationOutputsRaw(t *testing.T) {
	scenario := &Scenario{
		Name:     "unevaluated",
		Document: node1 + " " + rootID + "  Total @ 1+1\n",
		Assertions: []Assertion{
			{Type: AssertEvaled, Node: node1, Equals: "Total 2"},
			{Type: AssertOutputContains, Text: "Total @ 1+1"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "node was never evaluated")
}

func TestRun_InsertGeneratesDeterministicIDs(t *testing.T) {
	scenario := &Scenario{
		Name: "inserts",
		Steps: []Step{
			{Insert: &InsertStep{Parent: rootID, Content: "first"}},
			{Insert: &InsertStep{Parent: "00000000-0000-0000-0000-000000001000", Content: "second"}},
			{Insert: &InsertStep{Parent: rootID, Content: "fixed", ID: "00000000-0000-0000-0000-000000000042"}},
		},
		Assertions: []Assertion{
			{Type: AssertChildCount, Node: "00000000-0000-0000-0000-000000001000", Count: 1},
			{Type: AssertRaw, Node: "00000000-0000-0000-0000-000000001001", Equals: "second"},
			{Type: AssertRaw, Node: "00000000-0000-0000-0000-000000000042", Equals: "fixed"},
			{Type: AssertChildCount, Node: rootID, Count: 2},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_InsertUnknownParentFails(t *testing.T) {
	scenario := &Scenario{
		Name: "orphan",
		Steps: []Step{
			{Insert: &InsertStep{Parent: node1, Content: "lost"}},
			{EvalAll: true},
		},
		Assertions: []Assertion{{Type: AssertNodeCount, Count: 0}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "step 1: parent "+node1+" not found")
	assert.Len(t, result.Trace, 1, "steps after a failed step do not run")
}

func TestRun_InsertDuplicateIDFails(t *testing.T) {
	scenario := &Scenario{
		Name:     "duplicate",
		Document: node1 + " " + rootID + "  one\n",
		Steps: []Step{
			{Insert: &InsertStep{Parent: rootID, Content: "two", ID: node1}},
		},
		Assertions: []Assertion{{Type: AssertNodeCount, Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "already in use")
}

func TestRun_LoadMissingSnapshotFails(t *testing.T) {
	scenario := &Scenario{
		Name:       "missing",
		Steps:      []Step{{Load: &LoadStep{Name: "never-saved"}}},
		Assertions: []Assertion{{Type: AssertNodeCount, Count: 0}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "not found")
}

func TestRun_SaveAndLoadTrace(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "snapshots.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []TraceEvent{
		{Step: 0, Kind: "import", Detail: "sofer"},
		{Step: 1, Kind: "eval_all"},
		{Step: 2, Kind: "save", Detail: "totals@1"},
		{Step: 3, Kind: "insert", Detail: "00000000-0000-0000-0000-000000001000"},
		{Step: 4, Kind: "save", Detail: "totals@2"},
		{Step: 5, Kind: "load", Detail: "totals@1"},
	}, result.Trace)
}

func TestRun_BadDocument(t *testing.T) {
	scenario := &Scenario{
		Name:       "broken",
		Document:   "not a record\n",
		Assertions: []Assertion{{Type: AssertNodeCount, Count: 0}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "document:")
}

func TestRun_FailedAssertionsAreReported(t *testing.T) {
	scenario := &Scenario{
		Name:     "failing",
		Document: node1 + " " + rootID + " qty=2; Apples\n",
		Assertions: []Assertion{
			{Type: AssertRaw, Node: node1, Equals: "Pears"},
			{Type: AssertAttribute, Node: node1, Name: "qty", Equals: "3"},
			{Type: AssertAttribute, Node: node1, Name: "colour", Equals: "red"},
			{Type: AssertChildCount, Node: "00000000-0000-0000-0000-000000000009", Count: 0},
			{Type: AssertNodeCount, Count: 5},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], `Actual: "Apples"`)
	assert.Contains(t, result.Errors[1], `qty = "2" (number)`)
	assert.Contains(t, result.Errors[2], "attribute not present")
	assert.Contains(t, result.Errors[3], "node not found")
	assert.Contains(t, result.Errors[4], "Actual: 1 nodes")
}
