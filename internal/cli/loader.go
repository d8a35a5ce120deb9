package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/sofer/internal/eval"
	"github.com/roach88/sofer/internal/interchange"
	"github.com/roach88/sofer/internal/node"
	"github.com/roach88/sofer/internal/script"
)

var errNodeNotFound = errors.New("node not found")

// readsStdin reports whether the document comes from standard input.
func (o *RootOptions) readsStdin() bool {
	return o.File == "" || o.File == "-"
}

// newFactory builds the Lua factory from the script settings.
func (o *RootOptions) newFactory() (script.Factory, error) {
	f, err := script.NewLuaFactory(o.settings().LuaOptions())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to configure scripting", err)
	}
	return f, nil
}

// newCodec builds the interchange codec used for import and export.
func (o *RootOptions) newCodec() (*interchange.Codec, error) {
	factory, err := o.newFactory()
	if err != nil {
		return nil, err
	}
	return interchange.New(
		interchange.WithLogger(o.log()),
		interchange.WithScripts(factory),
		interchange.WithIDs(o.ids()),
	), nil
}

// newEvaluator builds the evaluation engine from the script settings.
func (o *RootOptions) newEvaluator() (*eval.Evaluator, error) {
	factory, err := o.newFactory()
	if err != nil {
		return nil, err
	}
	return eval.New(factory,
		eval.WithLogger(o.log()),
		eval.WithSharedContext(o.settings().Script.SharedContext),
	), nil
}

// loadDocument imports the document named by --file, or stdin.
//
// A missing file is a command error; a malformed document is a failure.
func loadDocument(ctx context.Context, cmd *cobra.Command, opts *RootOptions) (*node.Tree, error) {
	var r io.Reader = cmd.InOrStdin()
	if !opts.readsStdin() {
		f, err := os.Open(opts.File)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, WrapExitError(ExitCommandError, fmt.Sprintf("document not found: %s", opts.File), err)
			}
			return nil, WrapExitError(ExitCommandError, "failed to open document", err)
		}
		defer f.Close()
		r = f
	}

	codec, err := opts.newCodec()
	if err != nil {
		return nil, err
	}

	from := opts.settings().From
	doc, err := codec.Import(ctx, from, r)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to read document", err)
	}
	opts.log().Debug("document loaded", "format", from, "nodes", doc.Len())
	return doc, nil
}

// writeDocument exports doc to the command's output.
func writeDocument(cmd *cobra.Command, opts *RootOptions, doc *node.Tree) error {
	codec, err := opts.newCodec()
	if err != nil {
		return err
	}
	if err := codec.Export(cmd.OutOrStdout(), opts.settings().To, doc, opts.textMode()); err != nil {
		return WrapExitError(ExitFailure, "failed to write document", err)
	}
	return nil
}

// formatter returns the output formatter for cmd.
func formatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}
}

// commandContext returns the command's context, or a background context
// when the command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
