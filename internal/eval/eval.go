// Package eval runs node formulas.
//
// A node's raw text is split at its first '@'. The part before it is kept
// verbatim; the part after it is a formula executed by a script context. A
// formula that yields a function is called with the node's projection (see
// bridge.TreeToValue) and the call's result is used instead.
//
// Failures never escape a node: compile and runtime errors are rendered as
// their message, and a failed call renders as FailedCall.
package eval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/sofer/internal/bridge"
	"github.com/roach88/sofer/internal/node"
	"github.com/roach88/sofer/internal/script"
)

// FailedCall replaces the result of a formula function that failed when
// called.
const FailedCall = "#ERR"

// SplitFormula splits raw at the first '@'. The formula is empty when raw
// has no '@' or nothing follows it.
func SplitFormula(raw string) (prefix, formula string) {
	prefix, formula, _ = strings.Cut(raw, "@")
	return prefix, formula
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger for contained formula failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// WithSharedContext makes EvalAll run every formula of a pass in one script
// context instead of a fresh context per node. Globals set by one formula
// are then visible to later ones.
func WithSharedContext(shared bool) Option {
	return func(e *Evaluator) { e.shared = shared }
}

// Evaluator computes evaluated text.
type Evaluator struct {
	factory script.Factory
	logger  *slog.Logger
	shared  bool
}

// New creates an Evaluator that obtains script contexts from factory.
func New(factory script.Factory, opts ...Option) *Evaluator {
	e := &Evaluator{
		factory: factory,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Eval returns the evaluated text of t without storing it. It runs in a
// fresh script context.
func (e *Evaluator) Eval(ctx context.Context, t *node.Tree) string {
	text, _ := e.evalNode(ctx, nil, t)
	return text
}

// EvalAll evaluates t, its descendants and its following siblings in
// pre-order and stores the result in each node. It stops early only when
// ctx is done; nodes not reached keep their previous evaluated text.
func (e *Evaluator) EvalAll(ctx context.Context, t *node.Tree) error {
	var sc script.Context
	if e.shared {
		var err error
		sc, err = e.factory.NewContext()
		if err != nil {
			return fmt.Errorf("create script context: %w", err)
		}
		defer sc.Close()
	}

	entries := t.Traverse()
	failures := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("evaluation interrupted: %w", err)
		}
		text, ok := e.evalNode(ctx, sc, entry.Node)
		if !ok {
			failures++
		}
		entry.Node.Value.SetEvaled(text)
	}

	e.logger.Debug("evaluation pass complete",
		"nodes", len(entries),
		"failures", failures,
		"shared_context", e.shared,
	)
	return nil
}

// evalNode renders t's evaluated text using sc, or a fresh context when sc
// is nil. ok is false when the formula failed.
func (e *Evaluator) evalNode(ctx context.Context, sc script.Context, t *node.Tree) (text string, ok bool) {
	prefix, formula := SplitFormula(t.Value.Raw)
	if formula == "" {
		return prefix, true
	}

	if sc == nil {
		fresh, err := e.factory.NewContext()
		if err != nil {
			e.logger.Debug("script context unavailable", "node", t.ID, "error", err)
			return prefix + err.Error(), false
		}
		defer fresh.Close()
		sc = fresh
	}

	v, err := sc.Eval(ctx, formula)
	if err != nil {
		e.logger.Debug("formula failed", "node", t.ID, "error", err)
		return prefix + err.Error(), false
	}

	fn, isFunc := v.(*script.Function)
	if !isFunc {
		return prefix + script.Format(v), true
	}

	ret, err := fn.Call(bridge.TreeToValue(t))
	if err != nil {
		e.logger.Debug("formula function failed", "node", t.ID, "function", fn.Name(), "error", err)
		return prefix + FailedCall, false
	}
	return prefix + script.Format(ret), true
}
