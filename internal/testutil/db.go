// Package testutil holds helpers shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"patient-intake-server/internal/models"

	"gorm.io/gorm"
)

// NewTestDB opens a migrated sqlite database in a per-test temp directory.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "intake-test.db")
	db, err := models.InitDB(models.DatabaseConfig{Driver: "sqlite", DSN: dbPath, Silent: true})
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewSeededDB is NewTestDB plus the demo fixture.
func NewSeededDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := NewTestDB(t)
	if err := models.SeedDemoData(db); err != nil {
		t.Fatalf("SeedDemoData failed: %v", err)
	}
	return db
}
