package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for our application
type Config struct {
	Port                      string
	Origin                    string
	Environment               string
	LogLevel                  string
	JWTSecret                 string
	JWTRefreshSecret          string
	JWTExpirationMinutes      int
	JWTRefreshExpirationHours int
	SeedDemoData              bool
	SessionLimit              int
	Database                  DatabaseConfig
	Storage                   StorageConfig
	Speech                    SpeechConfig
	Analysis                  AnalysisConfig
	Events                    EventsConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// StorageConfig selects where generated report artifacts are written.
type StorageConfig struct {
	Backend   string // "local" or "s3"
	LocalDir  string
	Bucket    string
	Endpoint  string
	PathStyle bool
}

// SpeechConfig points at the transcription service. An empty URL disables speech capture.
type SpeechConfig struct {
	TranscribeURL  string
	Language       string
	TimeoutSeconds int
}

// AnalysisConfig selects the symptom analyzer implementation.
type AnalysisConfig struct {
	Provider        string // "mock" or "anthropic"
	AnthropicAPIKey string
	Model           string
}

// EventsConfig selects where check-in events are published.
type EventsConfig struct {
	Backend      string // "none", "kafka" or "sqs"
	KafkaBrokers []string
	KafkaTopic   string
	SQSQueueURL  string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	dbConfig := DatabaseConfig{
		Driver:   strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "intake"),
	}

	dsn, err := buildDSN(dbConfig)
	if err != nil {
		return nil, err
	}
	if override := os.Getenv("DB_DSN"); override != "" {
		dsn = override
	}
	dbConfig.DSN = dsn

	storageConfig := StorageConfig{
		Backend:   strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
		LocalDir:  getEnv("STORAGE_LOCAL_DIR", "./reports"),
		Bucket:    getEnv("STORAGE_BUCKET", "patient-reports"),
		Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
		PathStyle: getEnv("STORAGE_PATH_STYLE", "false") == "true",
	}
	if storageConfig.Backend != "local" && storageConfig.Backend != "s3" {
		return nil, fmt.Errorf("invalid STORAGE_BACKEND: %q", storageConfig.Backend)
	}

	speechTimeout, err := strconv.Atoi(getEnv("SPEECH_TIMEOUT_SECONDS", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid SPEECH_TIMEOUT_SECONDS: %w", err)
	}
	speechConfig := SpeechConfig{
		TranscribeURL:  getEnv("SPEECH_TRANSCRIBE_URL", ""),
		Language:       getEnv("SPEECH_LANGUAGE", "en-US"),
		TimeoutSeconds: speechTimeout,
	}

	analysisConfig := AnalysisConfig{
		Provider:        strings.ToLower(getEnv("ANALYSIS_PROVIDER", "mock")),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		Model:           getEnv("ANALYSIS_MODEL", "claude-sonnet-4-5"),
	}
	if analysisConfig.Provider == "anthropic" && analysisConfig.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required when ANALYSIS_PROVIDER=anthropic")
	}

	eventsConfig := EventsConfig{
		Backend:      strings.ToLower(getEnv("EVENTS_BACKEND", "none")),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "patient-checkins"),
		SQSQueueURL:  getEnv("SQS_QUEUE_URL", ""),
	}

	jwtExpMinutes, err := strconv.Atoi(getEnv("JWT_EXPIRATION_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_MINUTES: %w", err)
	}

	jwtRefreshExpHours, err := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168")) // 7 days
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRATION_HOURS: %w", err)
	}

	sessionLimit, err := strconv.Atoi(getEnv("SESSION_LIMIT", "10000"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_LIMIT: %w", err)
	}

	return &Config{
		Port:                      getEnv("PORT", "3001"),
		Origin:                    getEnv("ORIGIN", "http://localhost:5173"),
		Environment:               getEnv("APP_ENV", "development"),
		LogLevel:                  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		JWTSecret:                 getEnv("JWT_SECRET", "default_jwt_secret"),
		JWTRefreshSecret:          getEnv("JWT_REFRESH_SECRET", "default_refresh_secret"),
		JWTExpirationMinutes:      jwtExpMinutes,
		JWTRefreshExpirationHours: jwtRefreshExpHours,
		SeedDemoData:              getEnv("SEED_DEMO_DATA", "true") == "true",
		SessionLimit:              sessionLimit,
		Database:                  dbConfig,
		Storage:                   storageConfig,
		Speech:                    speechConfig,
		Analysis:                  analysisConfig,
		Events:                    eventsConfig,
	}, nil
}

func buildDSN(db DatabaseConfig) (string, error) {
	switch db.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			db.Username, db.Password, db.Host, db.Port, db.Name), nil
	case "postgres":
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			db.Username, db.Password, db.Host, db.Port, db.Name), nil
	case "sqlite":
		return db.Name + ".db", nil
	default:
		return "", fmt.Errorf("invalid DB_DRIVER: %q", db.Driver)
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
