package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/sofer/internal/tree"
)

// NewUUIDCommand creates the uuid command group.
func NewUUIDCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uuid",
		Short: "Identifier utilities",
	}

	var random bool
	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Print a fresh node identifier",
		Long: `Print a fresh identifier in canonical form. Identifiers are time ordered
by default, so nodes created later sort later; --random prints a version 4
identifier instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ids tree.IDSource = rootOpts.ids()
			if random {
				ids = tree.RandomIDs{}
			}
			return formatter(cmd, rootOpts).Success(ids.NewID().String())
		},
	}
	newCmd.Flags().BoolVar(&random, "random", false, "print a random (version 4) identifier")

	cmd.AddCommand(newCmd)
	return cmd
}
