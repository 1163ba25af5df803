// Package config loads videohub settings from the environment, optionally
// seeded from a .env file, and validates them up front so that startup
// fails with every problem listed at once.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"

	MetadataJSON     = "json"
	MetadataPostgres = "postgres"
)

const (
	defaultMaxUploadBytes  int64 = 100 << 20
	defaultHTTPTimeout           = 30 * time.Second
	defaultFeedConcurrency       = 4
	maxFeedConcurrency           = 32
)

// Server configures cmd/videohub-server.
type Server struct {
	Addr           string
	DataDir        string
	MaxUploadBytes int64
	CORSOrigin     string

	// UploadRateLimit is uploads per client IP per hour; 0 means unlimited.
	UploadRateLimit int

	Storage string // local | minio
	S3      S3

	Metadata    string // json | postgres
	DatabaseURL string

	Version string
	Commit  string
}

type S3 struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// Client configures the videohub CLI.
type Client struct {
	Dir             string // holds the local state database
	HTTPTimeout     time.Duration
	FeedConcurrency int
}

// LoadEnvFile loads VH_ENV_FILE, or ./.env, into the process environment.
// Variables already set win. A missing file is not an error.
func LoadEnvFile() error {
	path := getenvDefault("VH_ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// LoadServer reads and validates the server settings.
func LoadServer() (Server, error) {
	var v Validator

	cfg := Server{
		Addr:       getenvDefault("VH_ADDR", ":8080"),
		DataDir:    getenvDefault("VH_DATA_DIR", "./data"),
		CORSOrigin: getenvDefault("VH_CORS_ORIGIN", "*"),
		Storage:    getenvDefault("VH_STORAGE", StorageLocal),
		S3: S3{
			Endpoint:  os.Getenv("VH_S3_ENDPOINT"),
			AccessKey: os.Getenv("VH_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("VH_S3_SECRET_KEY"),
			Bucket:    getenvDefault("VH_S3_BUCKET", "videohub"),
		},
		Metadata:    getenvDefault("VH_METADATA", MetadataJSON),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Version:     getenvDefault("VH_VERSION", "dev"),
		Commit:      getenvDefault("VH_COMMIT", "unknown"),
	}
	cfg.MaxUploadBytes = v.PositiveInt("VH_MAX_UPLOAD_BYTES", os.Getenv("VH_MAX_UPLOAD_BYTES"), defaultMaxUploadBytes)
	cfg.UploadRateLimit = int(v.PositiveInt("VH_UPLOAD_RATE_LIMIT", os.Getenv("VH_UPLOAD_RATE_LIMIT"), 0))

	v.Addr("VH_ADDR", cfg.Addr)
	v.Enum("VH_STORAGE", cfg.Storage, []string{StorageLocal, StorageMinio})
	v.Enum("VH_METADATA", cfg.Metadata, []string{MetadataJSON, MetadataPostgres})
	v.Enum("VH_LOG_FORMAT", os.Getenv("VH_LOG_FORMAT"), []string{"", "json", "text"})
	v.Enum("VH_LOG_LEVEL", os.Getenv("VH_LOG_LEVEL"), []string{"", "debug", "info", "warn", "error"})

	if cfg.Storage == StorageLocal || cfg.Metadata == MetadataJSON {
		v.Required("VH_DATA_DIR", strings.TrimSpace(cfg.DataDir))
	}

	if cfg.Storage == StorageMinio {
		v.Required("VH_S3_ENDPOINT", cfg.S3.Endpoint)
		v.Required("VH_S3_ACCESS_KEY", cfg.S3.AccessKey)
		v.Required("VH_S3_SECRET_KEY", cfg.S3.SecretKey)
		if strings.Contains(cfg.S3.Endpoint, "://") {
			v.URL("VH_S3_ENDPOINT", cfg.S3.Endpoint)
		}
	}

	if cfg.Metadata == MetadataPostgres {
		v.Required("DATABASE_URL", cfg.DatabaseURL)
		if cfg.DatabaseURL != "" &&
			!strings.HasPrefix(cfg.DatabaseURL, "postgres://") &&
			!strings.HasPrefix(cfg.DatabaseURL, "postgresql://") {
			v.AddError("DATABASE_URL", "must be a valid PostgreSQL connection string")
		}
	}

	return cfg, v.Err()
}

// LoadClient reads and validates the CLI settings.
func LoadClient() (Client, error) {
	var v Validator

	cfg := Client{
		Dir:         os.Getenv("VH_CLIENT_DIR"),
		HTTPTimeout: v.Duration("VH_HTTP_TIMEOUT", os.Getenv("VH_HTTP_TIMEOUT"), defaultHTTPTimeout),
	}
	if cfg.Dir == "" {
		cfg.Dir = defaultClientDir()
	}

	n := v.PositiveInt("VH_FEED_CONCURRENCY", os.Getenv("VH_FEED_CONCURRENCY"), defaultFeedConcurrency)
	cfg.FeedConcurrency = int(min(n, maxFeedConcurrency))

	return cfg, v.Err()
}

func defaultClientDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".videohub"
	}
	return filepath.Join(home, ".videohub")
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
