package commands

import (
	"time"

	"github.com/localnerve/bigstone-community/internal/database"
	"github.com/localnerve/bigstone-community/internal/services"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		if err := database.AutoMigrate(e.db); err != nil {
			return fail("Migration failed", err.Error())
		}
		success(cmd.OutOrStdout(), "schema is up to date (%s)", e.cfg.DBType)
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve every standard whose voting window has ended",
	Long: `Runs one pass of the standards resolver. The server does the same on every
RESOLVE_INTERVAL tick; this is for deployments that disable the background resolver.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		n, err := services.ResolveElapsedStandards(e.db.WithContext(cmd.Context()), time.Now())
		if err != nil {
			return fail("Resolve failed", err.Error())
		}
		success(cmd.OutOrStdout(), "resolved %d standard(s)", n)
		return nil
	},
}
