package cli

import (
	"fmt"

	"patient-intake-server/internal/migrations"
	"patient-intake-server/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// openDatabase connects, auto-migrates the tables and, on postgres, applies
// the SQL migrations.
func openDatabase() (*gorm.DB, error) {
	db, err := models.InitDB(models.DatabaseConfig{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Silent: cfg.Environment == "production",
	})
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if cfg.Database.Driver == "postgres" {
		version, err := migrations.Up(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		logger.Info("migrations applied", zap.Uint("version", version))
	}
	return db, nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
