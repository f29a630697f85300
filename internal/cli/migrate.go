package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (rt *runtime) migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the SQL migrations to the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.opts.Migrate == nil {
				return fmt.Errorf("migrations are not available")
			}
			dir := rt.v.GetString("migrations-dir")
			if err := rt.opts.Migrate(cmd.Context(), dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations in %s applied\n", dir)
			return nil
		},
	}
	cmd.Flags().String("dir", "migrations", "migrations directory")
	_ = rt.v.BindPFlag("migrations-dir", cmd.Flags().Lookup("dir"))
	return cmd
}
