package cli

import (
	"github.com/spf13/cobra"
)

// NewReadCommand creates the read command.
func NewReadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read",
		Short: "Import a document and write it back",
		Long: `Import a document and export it without evaluating it.

Converts between formats with --from and --to. Sofer output uses the text
selected by --text; nodes that were never evaluated write their raw text.

Examples:
  sofer read -f outline.sofer --to lua
  sofer read --from opml --to json < feeds.opml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(commandContext(cmd), cmd, rootOpts)
			if err != nil {
				return err
			}
			return writeDocument(cmd, rootOpts, doc)
		},
	}
}
