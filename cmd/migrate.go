package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jabiru-analytics/jabiru/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database migrations",
	Example: `  jabiru migrate up
  jabiru migrate status`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Database is up to date")
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		states, err := st.MigrationStatus(cmd.Context())
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout())
				t.AppendHeader(table.Row{"Version", "Source", "Applied", "Applied At"})
		for _, s := range states {
			at := ""
			if s.Applied {
				at = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
			t.AppendRow(table.Row{s.Version, s.Source, s.Applied, at})
		}
		t.Render()
		return nil
	},
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(cmd.Context(), c.DatabaseDriver, c.DatabaseURL)
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}
