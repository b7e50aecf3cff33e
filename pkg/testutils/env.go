package testutils

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/joho/godotenv"
)

const PostgresDSNKey = "TABLEHUB_POSTGRESQL_DSN"

// LoadEnv loads the .env file from the project root directory, a missing file is not an error.
func LoadEnv() error {
	_, filename, _, _ := runtime.Caller(0)
	envPath := filepath.Join(filepath.Dir(filename), "..", "..", ".env")

	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(envPath)
}

// LoadEnvOrPanic loads the .env file and panics if there's an error
func LoadEnvOrPanic() {
	if err := LoadEnv(); err != nil {
		panic("Failed to load .env file: " + err.Error())
	}
}

// GetEnvOrDefault gets an environment variable with a default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// PostgresDSN returns the integration database DSN or skips the test when none is configured.
func PostgresDSN(t testing.TB) string {
	t.Helper()
	if err := LoadEnv(); err != nil {
		t.Fatalf("load .env: %v", err)
	}
	dsn := os.Getenv(PostgresDSNKey)
	if dsn == "" {
		t.Skipf("%s is not set, skipping integration test", PostgresDSNKey)
	}
	return dsn
}
