package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_EXPIRATION_MINUTES", "15")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("STORAGE_BACKEND", "local")
	t.Setenv("ANALYSIS_PROVIDER", "mock")
	t.Setenv("EVENTS_BACKEND", "none")
	t.Setenv("PORT", "3001")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_USERNAME", "intake")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "intake")
	t.Setenv("SESSION_LIMIT", "10000")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "intake:secret@tcp(db:3306)/intake?charset=utf8mb4&parseTime=True&loc=Local", cfg.Database.DSN)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "mock", cfg.Analysis.Provider)
	assert.Equal(t, 15, cfg.JWTExpirationMinutes)
	assert.Equal(t, 10000, cfg.SessionLimit)
}

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		driver string
		want   string
	}{
		{driver: "mysql", want: "u:p@tcp(h:1)/n?charset=utf8mb4&parseTime=True&loc=Local"},
		{driver: "postgres", want: "postgres://u:p@h:1/n?sslmode=disable"},
		{driver: "sqlite", want: "n.db"},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			got, err := buildDSN(DatabaseConfig{Driver: tt.driver, Host: "h", Port: "1", Username: "u", Password: "p", Name: "n"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := buildDSN(DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Run("storage backend", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "sqlite")
		t.Setenv("STORAGE_BACKEND", "ftp")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "STORAGE_BACKEND")
	})

	t.Run("anthropic without key", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "sqlite")
		t.Setenv("STORAGE_BACKEND", "local")
		t.Setenv("ANALYSIS_PROVIDER", "anthropic")
		t.Setenv("ANTHROPIC_API_KEY", "")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "ANTHROPIC_API_KEY")
	})

	t.Run("session limit", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "sqlite")
		t.Setenv("STORAGE_BACKEND", "local")
		t.Setenv("ANALYSIS_PROVIDER", "mock")
		t.Setenv("SESSION_LIMIT", "many")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "SESSION_LIMIT")
	})

	t.Run("jwt expiration", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "sqlite")
		t.Setenv("STORAGE_BACKEND", "local")
		t.Setenv("ANALYSIS_PROVIDER", "mock")
		t.Setenv("JWT_EXPIRATION_MINUTES", "soon")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "JWT_EXPIRATION_MINUTES")
	})
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, splitList(" kafka-1:9092, ,kafka-2:9092 "))
	assert.Nil(t, splitList(""))
}
