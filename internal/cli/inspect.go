package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"page-vectorizer/internal/archive"
)

func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect ARCHIVE",
		Short: "List the entries of a contours archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, names, err := archive.ReadEntries(args[0])
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintf(c.out, "%8d  %s\n", len(entries[name]), name)
			}
			return nil
		},
	}
}
