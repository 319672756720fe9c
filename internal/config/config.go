package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	neturl "net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// User store backends.
const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

// Image store backends.
const (
	ImagesLocal = "local"
	ImagesS3    = "s3"
)

// Config centralises runtime configuration.
type Config struct {
	HTTPPort       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string

	JWTSecret  string
	JWTIssuer  string
	BcryptCost int

	UserStore   string
	DatabaseURL string
	RedisURL    string

	ImageStore     string
	UploadDir      string
	UploadMaxBytes int64
	S3             S3Config

	LogLevel  string
	LogFormat string
}

// S3Config holds object storage settings used when ImageStore is "s3".
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// Load reads configuration from .env and environment variables providing sane defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	httpPort := getEnv("HTTP_PORT", "")
	if httpPort == "" {
		httpPort = getEnv("PORT", "8080")
	}

	cfg := Config{
		HTTPPort:       httpPort,
		ReadTimeout:    time.Duration(getIntEnv("HTTP_READ_TIMEOUT", 15)) * time.Second,
		WriteTimeout:   time.Duration(getIntEnv("HTTP_WRITE_TIMEOUT", 15)) * time.Second,
		IdleTimeout:    time.Duration(getIntEnv("HTTP_IDLE_TIMEOUT", 60)) * time.Second,
		AllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		JWTIssuer:  getEnv("JWT_ISSUER", "accounts"),
		BcryptCost: getIntEnv("BCRYPT_COST", bcrypt.DefaultCost),

		UserStore:   strings.ToLower(getEnv("USER_STORE", StorePostgres)),
		DatabaseURL: resolveDatabaseURL(),
		RedisURL:    getEnv("REDIS_URL", ""),

		ImageStore:     strings.ToLower(getEnv("IMAGE_STORE", ImagesLocal)),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		UploadMaxBytes: int64(getIntEnv("UPLOAD_MAX_BYTES", 5<<20)),
		S3: S3Config{
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	switch c.UserStore {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database configuration missing: provide DATABASE_URL or PG* env vars")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when USER_STORE=redis")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown USER_STORE %q", c.UserStore)
	}
	switch c.ImageStore {
	case ImagesLocal:
		if c.UploadDir == "" {
			return errors.New("UPLOAD_DIR is required")
		}
	case ImagesS3:
		if c.S3.Bucket == "" {
			return errors.New("S3_BUCKET is required when IMAGE_STORE=s3")
		}
	default:
		return fmt.Errorf("unknown IMAGE_STORE %q", c.ImageStore)
	}
	if c.UploadMaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func splitCSV(value string) []string {
	parts := []string{}
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return []string{"*"}
	}
	return parts
}

// resolveDatabaseURL prefers an explicit URL and falls back to PG* parts.
func resolveDatabaseURL() string {
	for _, key := range []string{"DATABASE_URL", "POSTGRES_URL", "PGURL"} {
		if url := coerceDatabaseURL(os.Getenv(key)); url != "" {
			return url
		}
	}
	if path := os.Getenv("DATABASE_URL_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if url := coerceDatabaseURL(string(data)); url != "" {
				return url
			}
		}
	}

	host := firstNonEmpty(os.Getenv("PGHOST"), os.Getenv("POSTGRES_HOST"))
	user := firstNonEmpty(os.Getenv("PGUSER"), os.Getenv("POSTGRES_USER"))
	if host == "" || user == "" {
		return ""
	}
	password := firstNonEmpty(os.Getenv("PGPASSWORD"), os.Getenv("POSTGRES_PASSWORD"))
	database := firstNonEmpty(os.Getenv("PGDATABASE"), os.Getenv("POSTGRES_DB"), user)
	port := firstNonEmpty(os.Getenv("PGPORT"), os.Getenv("POSTGRES_PORT"), "5432")
	sslMode := firstNonEmpty(os.Getenv("PGSSLMODE"), "require")

	dsn := &neturl.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + database,
		User:   neturl.User(user),
	}
	if password != "" {
		dsn.User = neturl.UserPassword(user, password)
	}
	query := dsn.Query()
	query.Set("sslmode", sslMode)
	dsn.RawQuery = query.Encode()
	return dsn.String()
}

func coerceDatabaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "postgres://"):
		return raw
	case strings.HasPrefix(raw, "postgresql://"):
		return "postgres://" + strings.TrimPrefix(raw, "postgresql://")
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
