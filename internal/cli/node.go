package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NodeEvalResult is the JSON payload of node eval.
type NodeEvalResult struct {
	ID     string `json:"id"`
	Raw    string `json:"raw"`
	Evaled string `json:"evaled"`
}

// NewNodeCommand creates the node command group.
func NewNodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Evaluate nodes",
	}

	cmd.AddCommand(newNodeEvalCommand(rootOpts))
	cmd.AddCommand(newNodeEvalAllCommand(rootOpts))

	return cmd
}

func newNodeEvalCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "eval <UUID>",
		Short: "Print the evaluated text of one node",
		Long: `Evaluate the formula of a single node and print the result.

The document is not modified. Exits with status 2 when no node carries the
identifier.

Example:
  sofer node eval 00000000-0000-0000-0000-000000000002 -f outline.sofer`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNodeEval(cmd, rootOpts, args[0])
		},
	}
}

func runNodeEval(cmd *cobra.Command, opts *RootOptions, arg string) error {
	id, err := uuid.Parse(arg)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("invalid identifier %q", arg), err)
	}

	ctx := commandContext(cmd)
	doc, err := loadDocument(ctx, cmd, opts)
	if err != nil {
		return err
	}

	n := doc.Find(id)
	if n == nil {
		return WrapExitError(ExitCommandError, id.String(), errNodeNotFound)
	}

	evaluator, err := opts.newEvaluator()
	if err != nil {
		return err
	}
	text := evaluator.Eval(ctx, n)

	f := formatter(cmd, opts)
	if f.Format == "json" {
		return f.Success(NodeEvalResult{ID: id.String(), Raw: n.Value.Raw, Evaled: text})
	}
	return f.Success(text)
}

func newNodeEvalAllCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "eval-all",
		Short: "Evaluate every node and write the document",
		Long: `Evaluate every formula of the document in pre-order and export the
result. A formula that fails leaves its error text in the node; the other
nodes are still evaluated.

Examples:
  sofer node eval-all -f outline.sofer
  sofer node eval-all -f outline.sofer --to json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			doc, err := loadDocument(ctx, cmd, rootOpts)
			if err != nil {
				return err
			}
			evaluator, err := rootOpts.newEvaluator()
			if err != nil {
				return err
			}
			if err := evaluator.EvalAll(ctx, doc); err != nil {
				return WrapExitError(ExitFailure, "evaluation failed", err)
			}
			return writeDocument(cmd, rootOpts, doc)
		},
	}
}
