package cli

import (
	"fmt"

	"patient-intake-server/internal/migrations"

	"github.com/spf13/cobra"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `migrate auto-migrates every table and, on postgres, applies the SQL
migrations that install the extract_symptoms function.

With --down the SQL migrations are rolled back instead; tables are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateDown {
			if cfg.Database.Driver != "postgres" {
				return fmt.Errorf("--down is only supported on postgres")
			}
			if err := migrations.Down(cfg.Database.DSN); err != nil {
				return err
			}
			logger.Info("migrations rolled back")
			return nil
		}

		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer closeDatabase(db)
		logger.Info("schema is up to date")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "Roll back the SQL migrations")
}
