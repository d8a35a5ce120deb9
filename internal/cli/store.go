package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/sofer/internal/store"
)

// StoreOptions holds flags for the store commands.
type StoreOptions struct {
	*RootOptions
	Database string // overrides store.path from config
	Revision int
}

// SaveResult is the payload of store save.
type SaveResult struct {
	Name     string `json:"name"`
	Revision int    `json:"revision"`
}

// NewStoreCommand creates the store command group.
func NewStoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Keep document snapshots in SQLite",
		Long: `Save, load and list named document snapshots.

Each save of a name adds a revision numbered from 1. Only raw text is
stored; evaluate a loaded document again with node eval-all.`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default store.path from config)")

	cmd.AddCommand(newStoreSaveCommand(opts))
	cmd.AddCommand(newStoreLoadCommand(opts))
	cmd.AddCommand(newStoreListCommand(opts))

	return cmd
}

// openStore opens the snapshot database.
func (o *StoreOptions) openStore() (*store.Store, error) {
	path := o.Database
	if path == "" {
		path = o.settings().Store.Path
	}
	st, err := store.Open(path, store.WithClock(o.clock()), store.WithLogger(o.log()))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func closeStore(st *store.Store, logger *slog.Logger) {
	if err := st.Close(); err != nil {
		logger.Error("error closing database", "error", err)
	}
}

func newStoreSaveCommand(opts *StoreOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save <NAME>",
		Short: "Store the document as a new revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			doc, err := loadDocument(ctx, cmd, opts.RootOptions)
			if err != nil {
				return err
			}

			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer closeStore(st, opts.log())

			rev, err := st.Save(ctx, args[0], doc)
			if err != nil {
				if errors.Is(err, store.ErrEmptyName) {
					return WrapExitError(ExitCommandError, "invalid snapshot name", err)
				}
				return WrapExitError(ExitFailure, "failed to save snapshot", err)
			}

			f := formatter(cmd, opts.RootOptions)
			if f.Format == "json" {
				return f.Success(SaveResult{Name: args[0], Revision: rev})
			}
			return f.Success(fmt.Sprintf("saved %s revision %d", args[0], rev))
		},
	}
}

func newStoreLoadCommand(opts *StoreOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <NAME>",
		Short: "Write a stored revision",
		Long: `Export a stored snapshot. Without --revision the latest revision is
written. Exits with status 2 when the snapshot does not exist.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Revision < 0 {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid revision %d", opts.Revision))
			}

			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer closeStore(st, opts.log())

			doc, snap, err := st.Load(commandContext(cmd), args[0], opts.Revision)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return WrapExitError(ExitCommandError, "failed to load snapshot", err)
				}
				return WrapExitError(ExitFailure, "failed to load snapshot", err)
			}
			opts.log().Debug("snapshot loaded", "name", snap.Name, "revision", snap.Revision)

			return writeDocument(cmd, opts.RootOptions, doc)
		},
	}

	cmd.Flags().IntVar(&opts.Revision, "revision", 0, "revision to load (default latest)")
	return cmd
}

func newStoreListCommand(opts *StoreOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [NAME]",
		Short: "List snapshots",
		Long: `List the latest revision of every snapshot, or every revision of NAME.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer closeStore(st, opts.log())

			ctx := commandContext(cmd)
			var snaps []store.Snapshot
			if len(args) == 1 {
				snaps, err = st.History(ctx, args[0])
			} else {
				snaps, err = st.List(ctx)
			}
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list snapshots", err)
			}

			f := formatter(cmd, opts.RootOptions)
			if f.Format == "json" {
				if snaps == nil {
					snaps = []store.Snapshot{}
				}
				return f.Success(snaps)
			}

			if len(snaps) == 0 {
				return f.Success("No snapshots found.")
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tREVISION\tNODES\tSAVED")
			for _, s := range snaps {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", s.Name, s.Revision, s.NodeCount, s.CreatedAt.UTC().Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}
