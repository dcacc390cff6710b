package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := opts.openStore(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ migrations applied")
			return nil
		},
	}
}
