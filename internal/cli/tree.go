package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/sofer/internal/node"
	"github.com/roach88/sofer/internal/tree"
)

// NewTreeCommand creates the tree command group.
func NewTreeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Edit the document tree",
	}

	cmd.AddCommand(newTreeInsertCommand(rootOpts))

	return cmd
}

func newTreeInsertCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "insert <PARENT_UUID> <CONTENT>",
		Short: "Add a node and write the document",
		Long: `Append a new node carrying CONTENT as the last child of PARENT_UUID
and export the document. Use the nil identifier to add a top-level node.
Exits with status 2 when the parent does not exist.

Example:
  sofer tree insert 00000000-0000-0000-0000-000000000000 "Total @ 1+1" -f outline.sofer`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, err := uuid.Parse(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid identifier %q", args[0]), err)
			}

			doc, err := loadDocument(commandContext(cmd), cmd, rootOpts)
			if err != nil {
				return err
			}

			child := tree.NewDetachedFrom(rootOpts.ids(), node.New(args[1]))
			if !doc.Insert(parent, child) {
				return WrapExitError(ExitCommandError, "parent "+parent.String(), errNodeNotFound)
			}
			rootOpts.log().Debug("node inserted", "id", child.ID, "parent", parent)

			return writeDocument(cmd, rootOpts, doc)
		},
	}
}
