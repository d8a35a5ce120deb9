package cli

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-evaluate a document whenever it changes",
		Long: `Evaluate the document named by --file, export it, and do it again every
time the file is written. A document that fails to load is reported and the
watch continues. Stops on interrupt.

Example:
  sofer watch -f outline.sofer`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rootOpts.readsStdin() {
				return NewExitError(ExitCommandError, "watch requires --file")
			}
			return runWatch(commandContext(cmd), cmd, rootOpts)
		},
	}
}

// runWatch renders the document once, then on every change until ctx is
// done.
//
// The watch is placed on the file's directory: editors that save by
// renaming a temporary file replace the watched inode.
func runWatch(ctx context.Context, cmd *cobra.Command, opts *RootOptions) error {
	path, err := filepath.Abs(opts.File)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid document path", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to create watcher", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return WrapExitError(ExitCommandError, "failed to watch document directory", err)
	}

	logger := opts.log()
	logger.Info("watching document", "path", path)
	renderOnce(ctx, cmd, opts)

	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Info("document changed, re-evaluating", "op", event.Op.String())
			renderOnce(ctx, cmd, opts)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Log error but continue watching
			logger.Error("watch error", "error", err)
		}
	}
}

// renderOnce loads, evaluates and exports the document. The export is
// written in one piece so a failure never leaves partial output.
func renderOnce(ctx context.Context, cmd *cobra.Command, opts *RootOptions) {
	logger := opts.log()

	doc, err := loadDocument(ctx, cmd, opts)
	if err != nil {
		logger.Error("document not loaded", "error", err)
		return
	}
	evaluator, err := opts.newEvaluator()
	if err != nil {
		logger.Error("evaluation not configured", "error", err)
		return
	}
	if err := evaluator.EvalAll(ctx, doc); err != nil {
		logger.Error("evaluation interrupted", "error", err)
		return
	}

	codec, err := opts.newCodec()
	if err != nil {
		logger.Error("export not configured", "error", err)
		return
	}
	var buf bytes.Buffer
	if err := codec.Export(&buf, opts.settings().To, doc, opts.textMode()); err != nil {
		logger.Error("document not exported", "error", err)
		return
	}
	if _, err := fmt.Fprint(cmd.OutOrStdout(), buf.String()); err != nil {
		logger.Error("output not written", "error", err)
	}
}
