package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedKeys = []string{
	"HTTP_PORT", "PORT", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_IDLE_TIMEOUT",
	"CORS_ALLOWED_ORIGINS", "JWT_SECRET", "JWT_ISSUER", "BCRYPT_COST",
	"USER_STORE", "DATABASE_URL", "POSTGRES_URL", "PGURL", "DATABASE_URL_FILE",
	"PGHOST", "POSTGRES_HOST", "PGUSER", "POSTGRES_USER", "PGPASSWORD", "POSTGRES_PASSWORD",
	"PGDATABASE", "POSTGRES_DB", "PGPORT", "POSTGRES_PORT", "PGSSLMODE", "REDIS_URL",
	"IMAGE_STORE", "UPLOAD_DIR", "UPLOAD_MAX_BYTES", "S3_BUCKET", "S3_REGION", "S3_ENDPOINT",
	"S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY", "LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "postgresql://u:p@db:5432/accounts")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.IdleTimeout)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "accounts", cfg.JWTIssuer)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, StorePostgres, cfg.UserStore)
	assert.Equal(t, "postgres://u:p@db:5432/accounts", cfg.DatabaseURL)
	assert.Equal(t, ImagesLocal, cfg.ImageStore)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, int64(5<<20), cfg.UploadMaxBytes)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("USER_STORE", "Memory")
	t.Setenv("IMAGE_STORE", "s3")
	t.Setenv("S3_BUCKET", "avatars")
	t.Setenv("BCRYPT_COST", "4")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, StoreMemory, cfg.UserStore)
	assert.Equal(t, ImagesS3, cfg.ImageStore)
	assert.Equal(t, "avatars", cfg.S3.Bucket)
	assert.Equal(t, 4, cfg.BcryptCost)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{"USER_STORE": "memory"}, "JWT_SECRET"},
		{"missing database", map[string]string{"JWT_SECRET": "x"}, "database configuration missing"},
		{"missing redis url", map[string]string{"JWT_SECRET": "x", "USER_STORE": "redis"}, "REDIS_URL"},
		{"unknown store", map[string]string{"JWT_SECRET": "x", "USER_STORE": "mongo"}, "USER_STORE"},
		{"missing bucket", map[string]string{"JWT_SECRET": "x", "USER_STORE": "memory", "IMAGE_STORE": "s3"}, "S3_BUCKET"},
		{"bad cost", map[string]string{"JWT_SECRET": "x", "USER_STORE": "memory", "BCRYPT_COST": "99"}, "BCRYPT_COST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestResolveDatabaseURL_FromParts(t *testing.T) {
	clearEnv(t)
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("PGUSER", "app")
	t.Setenv("PGPASSWORD", "pw")
	t.Setenv("PGDATABASE", "accounts")
	t.Setenv("PGSSLMODE", "disable")

	assert.Equal(t, "postgres://app:pw@db.internal:5432/accounts?sslmode=disable", resolveDatabaseURL())
}

func TestResolveDatabaseURL_FromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "dsn")
	require.NoError(t, os.WriteFile(path, []byte("postgres://file@db/x\n"), 0o600))
	t.Setenv("DATABASE_URL_FILE", path)

	assert.Equal(t, "postgres://file@db/x", resolveDatabaseURL())
}

func TestResolveDatabaseURL_IgnoresNonPostgres(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "mysql://nope")
	assert.Empty(t, resolveDatabaseURL())
}
