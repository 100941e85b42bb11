package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CONFIG_FILE", "")

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("JWT_EXPIRES_IN", "2h")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "env-secret", cfg.JWTSecret)
	require.Equal(t, 2*time.Hour, cfg.JWTExpiresIn)
	require.Equal(t, 10, cfg.BcryptCost)
	require.Equal(t, DriverSQLite, cfg.DBDriver)
	require.Equal(t, "8080", cfg.Port)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("port: \"9090\"\njwt_secret: file-secret\ndb_driver: mysql\nlog_format: text\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "file-secret", cfg.JWTSecret)
	require.Equal(t, DriverMySQL, cfg.DBDriver)
	require.Equal(t, "json", cfg.LogFormat)
}

func TestValidate(t *testing.T) {
	base := Defaults()
	base.JWTSecret = "secret"
	require.NoError(t, base.Validate())

	badCost := base
	badCost.BcryptCost = 99
	require.ErrorIs(t, badCost.Validate(), ErrInvalidBcryptCost)

	badDriver := base
	badDriver.DBDriver = "oracle"
	require.ErrorIs(t, badDriver.Validate(), ErrUnknownDriver)

	badExpiry := base
	badExpiry.JWTExpiresIn = 0
	require.ErrorIs(t, badExpiry.Validate(), ErrInvalidJWTExpiry)
}

func TestDSN(t *testing.T) {
	cfg := Defaults()
	cfg.DBDriver = DriverMySQL
	require.Equal(t, "taskuser:taskpassword@tcp(localhost:5432)/task_management?charset=utf8mb4&parseTime=True&loc=Local", cfg.DSN())

	cfg.DBDriver = DriverSQLite
	require.Equal(t, "task_management.db", cfg.DSN())

	cfg.DBDriver = DriverPostgres
	require.Contains(t, cfg.DSN(), "dbname=task_management")
}
