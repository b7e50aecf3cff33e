package core

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupConfigFromEnv(t *testing.T) {
	t.Setenv("TABLEHUB_API_SERVICE_ADDRESS", "localhost:11111")
	t.Setenv("TABLEHUB_POSTGRESQL_DSN", "postgres://localhost/tablehub")
	t.Setenv("TABLEHUB_AUTO_REPAIR", "false")
	t.Setenv("TABLEHUB_TOKEN_TTL_HOURS", "2")

	cfg := LoadBaseConfigFromENV()

	assert.Equal(t, "localhost:11111", cfg.Addr)
	assert.Equal(t, "postgres://localhost/tablehub", cfg.Postgres.FormatDSN())
	assert.False(t, cfg.Tables.AutoRepairEnabled())
	assert.Equal(t, 2*time.Hour, cfg.Security.TokenTTL())
	assert.Equal(t, "admin", cfg.Bootstrap.AdminName)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tablehub.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr = ":9000"

[log]
level = "warn"

[postgres]
dsn = "postgres://db/tablehub"

[redis]
addr = "127.0.0.1:6379"

[tables]
repair_cron = "@every 10m"

[object_storage]
driver = "s3"

[object_storage.s3]
bucket = "exports"
region = "us-east-1"
`), 0o600))

	cfg := MustLoadBaseConfig(path)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, slog.LevelWarn, cfg.Log.SlogLevel())
	assert.True(t, cfg.Tables.AutoRepairEnabled())
	assert.Equal(t, "@every 10m", cfg.Tables.RepairCron)
	assert.True(t, cfg.Redis.Enabled())
	require.NotNil(t, cfg.ObjectStorage.S3)
	assert.Equal(t, "exports", cfg.ObjectStorage.S3.Bucket)
	assert.Equal(t, 24*time.Hour, cfg.Security.TokenTTL())
	assert.Equal(t, 10, cfg.Limit.LoginPerMinute)
}
