package cli

import (
	"patient-intake-server/internal/models"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo patients and the symptom vocabulary",
	Long: `seed inserts the demo patients (ids 1234, 5678 and 9012) and the symptom
vocabulary. Rows that already exist are left alone, so it is safe to run twice.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer closeDatabase(db)

		if err := models.SeedDemoData(db); err != nil {
			return err
		}
		logger.Info("demo data seeded")
		return nil
	},
}
