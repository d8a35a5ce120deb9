package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/sofer/internal/eval"
	"github.com/roach88/sofer/internal/interchange"
	"github.com/roach88/sofer/internal/node"
	"github.com/roach88/sofer/internal/script"
	"github.com/roach88/sofer/internal/sofer"
	"github.com/roach88/sofer/internal/store"
	"github.com/roach88/sofer/internal/testutil"
	"github.com/roach88/sofer/internal/tree"
)

// generatedIDStart is the first identifier handed to nodes created by the
// harness. It sits well above the small identifiers scenarios spell out.
const generatedIDStart = 0x1000

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock and identifier source.
type Harness struct {
	doc       *node.Tree
	codec     *interchange.Codec
	evaluator *eval.Evaluator
	ids       tree.IDSource
	clock     *testutil.DeterministicClock
	logger    *slog.Logger

	// store is opened on the first save or load step.
	store *store.Store
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs with its own in-memory snapshot store for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Import the document
// 2. Execute steps in order
// 3. Serialize the final document with evaluated text
// 4. Evaluate assertions against the document and output
//
// A step that cannot be applied (unknown parent, missing snapshot) is
// recorded as a result error and stops the remaining steps. Infrastructure
// failures are returned as errors.
func Run(scenario *Scenario) (*Result, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	ids := testutil.NewSequentialIDs(generatedIDStart)

	factory, err := script.NewLuaFactory(script.LuaOptions{Libraries: script.DefaultLibraries})
	if err != nil {
		return nil, fmt.Errorf("failed to create script factory: %w", err)
	}

	h := &Harness{
		codec: interchange.New(
			interchange.WithLogger(logger),
			interchange.WithScripts(factory),
			interchange.WithIDs(ids),
		),
		evaluator: eval.New(factory,
			eval.WithLogger(logger),
			eval.WithSharedContext(scenario.SharedContext),
		),
		ids:    ids,
		clock:  testutil.NewDeterministicClock(),
		logger: logger,
	}
	defer h.close()

	ctx := context.Background()
	result := NewResult()

	from := scenario.From
	if from == "" {
		from = interchange.Sofer
	}
	doc, err := h.codec.Import(ctx, from, strings.NewReader(scenario.Document))
	if err != nil {
		result.AddError(fmt.Sprintf("document: %v", err))
		return result, nil
	}
	h.doc = doc
	result.AddTrace(0, "import", from)

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i+1, step, result); err != nil {
			var serr *stepError
			if errors.As(err, &serr) {
				result.AddError(serr.Error())
				break
			}
			return nil, fmt.Errorf("failed to execute step %d: %w", i+1, err)
		}
	}

	result.Output = sofer.Serialize(h.doc, node.EvaledText)

	assertionErrors := EvaluateAssertions(h.doc, result, scenario.Assertions)
	for _, errMsg := range assertionErrors {
		result.AddError(errMsg)
	}

	return result, nil
}

// stepError marks a step the scenario itself got wrong.
type stepError struct {
	step int
	msg  string
}

func (e *stepError) Error() string {
	return fmt.Sprintf("step %d: %s", e.step, e.msg)
}

func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	switch {
	case step.EvalAll:
		if err := h.evaluator.EvalAll(ctx, h.doc); err != nil {
			return err
		}
		result.AddTrace(index, "eval_all", "")

	case step.Insert != nil:
		parent := uuid.MustParse(step.Insert.Parent)
		var id uuid.UUID
		if step.Insert.ID != "" {
			id = uuid.MustParse(step.Insert.ID)
		} else {
			id = h.ids.NewID()
		}
		if h.doc.Find(id) != nil {
			return &stepError{step: index, msg: fmt.Sprintf("identifier %s is already in use", id)}
		}
		if !h.doc.Insert(parent, tree.NewWithID(id, node.New(step.Insert.Content))) {
			return &stepError{step: index, msg: fmt.Sprintf("parent %s not found", parent)}
		}
		result.AddTrace(index, "insert", id.String())

	case step.Save != "":
		st, err := h.openStore()
		if err != nil {
			return err
		}
		rev, err := st.Save(ctx, step.Save, h.doc)
		if err != nil {
			return err
		}
		result.AddTrace(index, "save", fmt.Sprintf("%s@%d", step.Save, rev))

	case step.Load != nil:
		st, err := h.openStore()
		if err != nil {
			return err
		}
		doc, snap, err := st.Load(ctx, step.Load.Name, step.Load.Revision)
		if err != nil {
			return &stepError{step: index, msg: err.Error()}
		}
		h.doc = doc
		result.AddTrace(index, "load", fmt.Sprintf("%s@%d", snap.Name, snap.Revision))
	}

	h.logger.Info("step completed", "step", index)
	return nil
}

func (h *Harness) openStore() (*store.Store, error) {
	if h.store != nil {
		return h.store, nil
	}
	st, err := store.Open(":memory:", store.WithClock(h.clock), store.WithLogger(h.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	h.store = st
	return st, nil
}

func (h *Harness) close() {
	if h.store != nil {
		h.store.Close()
	}
}
