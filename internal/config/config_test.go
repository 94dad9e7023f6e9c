package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.AppHost)
	require.Equal(t, DBDriverPostgres, cfg.DB.Driver)
	require.Equal(t, time.Hour, cfg.JWT.AccessTTL)
	require.Equal(t, StorageDriverLocal, cfg.Storage.Driver)
	require.Equal(t, 15*time.Minute, cfg.Storage.UploadTTL)
	require.Equal(t, 1024, cfg.Identity.CacheSize)
	require.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	settings := `
host: ":9090"
db:
  driver: memory
jwt:
  secret: from-file
  access_ttl: 30m
storage:
  driver: minio
  bucket: vaultify
  endpoint: localhost:9000
  access_key: key
  secret_key: secret
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.yml"), []byte(settings), 0o600))
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(dir)
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.AppHost)
	require.Equal(t, DBDriverMemory, cfg.DB.Driver)
	require.Equal(t, "from-env", cfg.JWT.Secret)
	require.Equal(t, 30*time.Minute, cfg.JWT.AccessTTL)
	require.Equal(t, StorageDriverMinio, cfg.Storage.Driver)
	require.Equal(t, "debug", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "jwt.secret")
	require.Contains(t, err.Error(), "db.source")

	cfg.JWT.Secret = "s"
	cfg.DB.Driver = DBDriverMemory
	require.NoError(t, cfg.Validate())

	cfg.Storage.Driver = "ftp"
	require.Error(t, cfg.Validate())
}
