package cli

import (
	"context"
	"path/filepath"
	"testing"

	"patient-intake-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	migrateDown = false
	rootCmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	return rootCmd.ExecuteContext(context.Background())
}

func sqliteEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "intake.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", path)
	t.Setenv("APP_ENV", "test")
	return path
}

func TestSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "seed", "create-admin"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}

func TestSeedIsRepeatable(t *testing.T) {
	path := sqliteEnv(t)

	require.NoError(t, run(t, "seed"))
	require.NoError(t, run(t, "seed"))

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	data, err := models.LoadSeedData()
	require.NoError(t, err)

	var patients, symptoms int64
	require.NoError(t, db.Model(&models.Patient{}).Count(&patients).Error)
	require.NoError(t, db.Model(&models.Symptom{}).Count(&symptoms).Error)
	assert.Equal(t, int64(len(data.Patients)), patients)
	assert.Equal(t, int64(len(data.Symptoms)), symptoms)
}

func TestMigrate(t *testing.T) {
	sqliteEnv(t)

	require.NoError(t, run(t, "migrate"))

	err := run(t, "migrate", "--down")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only supported on postgres")
}

func TestInvalidConfig(t *testing.T) {
	sqliteEnv(t)
	t.Setenv("STORAGE_BACKEND", "ftp")

	err := run(t, "seed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_BACKEND")
}

func TestCreateAdmin(t *testing.T) {
	path := sqliteEnv(t)

	require.NoError(t, run(t, "create-admin", "--email", "Root@Clinic.test", "--password", "password123"))

	err := run(t, "create-admin", "--email", "root@clinic.test", "--password", "password123")
	require.Error(t, err)

	err = run(t, "create-admin", "--email", "other@clinic.test", "--password", "short")
	require.Error(t, err)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "root@clinic.test", users[0].Email)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
}
