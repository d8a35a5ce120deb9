package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/sofer/internal/config"
	"github.com/roach88/sofer/internal/interchange"
	"github.com/roach88/sofer/internal/node"
	"github.com/roach88/sofer/internal/store"
	"github.com/roach88/sofer/internal/tree"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	File       string // document path; empty or "-" reads stdin
	From       string // import format, overrides config
	To         string // export format, overrides config
	Text       string // "raw" | "evaled", overrides config
	ConfigPath string // config file; empty looks for .sofer.yaml

	// IDs allows overriding the identifier source (for testing).
	// If nil, defaults to tree.TimeOrderedIDs.
	IDs tree.IDSource

	// Clock allows overriding the snapshot clock (for testing).
	// If nil, defaults to store.SystemClock.
	Clock store.Clock

	config *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the sofer CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sofer",
		Short: "sofer - outlines with formulas",
		Long: `Read, evaluate and convert outline documents whose nodes may carry
Lua formulas. Text after the first '@' of a node is a formula; evaluation
replaces it with the formula's result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.resolve(cmd.ErrOrStderr())
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.File, "file", "f", "", "document file (default stdin)")
	cmd.PersistentFlags().StringVar(&opts.From, "from", "", fmt.Sprintf("import format %v", interchange.ImportFormats()))
	cmd.PersistentFlags().StringVar(&opts.To, "to", "", fmt.Sprintf("export format %v", interchange.ExportFormats()))
	cmd.PersistentFlags().StringVar(&opts.Text, "text", "", "text written by sofer export (raw|evaled)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default "+config.DefaultFile+")")

	// Add subcommands
	cmd.AddCommand(NewReadCommand(opts))
	cmd.AddCommand(NewNodeCommand(opts))
	cmd.AddCommand(NewTreeCommand(opts))
	cmd.AddCommand(NewUUIDCommand(opts))
	cmd.AddCommand(NewStoreCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// Execute runs the CLI with the given arguments and returns the process
// exit code. Errors are reported on stderr, or as a JSON envelope on stdout
// when --format json is set.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	f := &OutputFormatter{Format: "text", Writer: stderr, Verbose: opts.Verbose}
	if opts.Format == "json" {
		f.Format = "json"
		f.Writer = stdout
	}
	_ = f.Error(ErrorCode(err), err.Error(), nil)
	return GetExitCode(err)
}

// resolve loads the config file, applies flag overrides and installs the
// logger.
func (o *RootOptions) resolve(stderr io.Writer) error {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	var cfg *config.Config
	var err error
	if o.ConfigPath != "" {
		cfg, err = config.Load(o.ConfigPath)
	} else {
		cfg, err = config.LoadOptional(config.DefaultFile)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	if o.From != "" {
		cfg.From = o.From
	}
	if o.To != "" {
		cfg.To = o.To
	}
	if o.Text != "" {
		cfg.Text = o.Text
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid settings", err)
	}

	o.config = cfg
	o.logger.Debug("settings resolved",
		"from", cfg.From,
		"to", cfg.To,
		"text", cfg.Text,
		"shared_context", cfg.Script.SharedContext,
	)
	return nil
}

// settings returns the resolved config, or the defaults when the root
// command's pre-run did not execute.
func (o *RootOptions) settings() *config.Config {
	if o.config == nil {
		o.config = config.Default()
	}
	return o.config
}

func (o *RootOptions) log() *slog.Logger {
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o.logger
}

func (o *RootOptions) ids() tree.IDSource {
	if o.IDs == nil {
		return tree.TimeOrderedIDs{}
	}
	return o.IDs
}

func (o *RootOptions) clock() store.Clock {
	if o.Clock == nil {
		return store.SystemClock{}
	}
	return o.Clock
}

func (o *RootOptions) textMode() node.TextMode {
	return o.settings().TextMode()
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
