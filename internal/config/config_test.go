package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var serverKeys = []string{
	"VH_ADDR", "VH_DATA_DIR", "VH_MAX_UPLOAD_BYTES", "VH_UPLOAD_RATE_LIMIT", "VH_CORS_ORIGIN",
	"VH_STORAGE", "VH_S3_ENDPOINT", "VH_S3_ACCESS_KEY", "VH_S3_SECRET_KEY", "VH_S3_BUCKET",
	"VH_METADATA", "DATABASE_URL", "VH_VERSION", "VH_COMMIT",
	"VH_LOG_FORMAT", "VH_LOG_LEVEL",
}

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadServer_Defaults(t *testing.T) {
	clearEnv(t, serverKeys...)

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.DataDir != "./data" || cfg.CORSOrigin != "*" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.MaxUploadBytes != 100<<20 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if cfg.Storage != StorageLocal || cfg.Metadata != MetadataJSON {
		t.Errorf("unexpected backends: %s/%s", cfg.Storage, cfg.Metadata)
	}
	if cfg.UploadRateLimit != 0 {
		t.Errorf("UploadRateLimit = %d, want unlimited", cfg.UploadRateLimit)
	}
}

func TestLoadServer_CollectsAllErrors(t *testing.T) {
	clearEnv(t, serverKeys...)
	t.Setenv("VH_ADDR", "nonsense")
	t.Setenv("VH_MAX_UPLOAD_BYTES", "-5")
	t.Setenv("VH_STORAGE", "minio")
	t.Setenv("VH_METADATA", "postgres")
	t.Setenv("DATABASE_URL", "mysql://x")

	_, err := LoadServer()
	var errs Errors
	if !errors.As(err, &errs) {
		t.Fatalf("expected Errors, got %v", err)
	}

	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, want := range []string{"VH_ADDR", "VH_MAX_UPLOAD_BYTES", "VH_S3_ENDPOINT", "VH_S3_ACCESS_KEY", "VH_S3_SECRET_KEY", "DATABASE_URL"} {
		if !fields[want] {
			t.Errorf("expected an error for %s, got %v", want, err)
		}
	}
	if !strings.Contains(err.Error(), "error(s)") {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestLoadServer_UnknownBackend(t *testing.T) {
	clearEnv(t, serverKeys...)
	t.Setenv("VH_STORAGE", "ftp")

	if _, err := LoadServer(); err == nil || !strings.Contains(err.Error(), "VH_STORAGE") {
		t.Fatalf("expected VH_STORAGE error, got %v", err)
	}
}

func TestLoadServer_Minio(t *testing.T) {
	clearEnv(t, serverKeys...)
	t.Setenv("VH_STORAGE", "minio")
	t.Setenv("VH_S3_ENDPOINT", "http://minio:9000")
	t.Setenv("VH_S3_ACCESS_KEY", "key")
	t.Setenv("VH_S3_SECRET_KEY", "secret")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.S3.Bucket != "videohub" {
		t.Errorf("Bucket = %q", cfg.S3.Bucket)
	}
}

func TestLoadClient(t *testing.T) {
	tests := []struct {
		name        string
		timeout     string
		concurrency string
		wantTimeout time.Duration
		wantConc    int
		wantErr     bool
	}{
		{"defaults", "", "", 30 * time.Second, 4, false},
		{"explicit", "5s", "8", 5 * time.Second, 8, false},
		{"clamped", "", "500", 30 * time.Second, 32, false},
		{"bad timeout", "soon", "", 30 * time.Second, 4, true},
		{"zero concurrency", "", "0", 30 * time.Second, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("VH_CLIENT_DIR", t.TempDir())
			t.Setenv("VH_HTTP_TIMEOUT", tt.timeout)
			t.Setenv("VH_FEED_CONCURRENCY", tt.concurrency)

			cfg, err := LoadClient()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if cfg.HTTPTimeout != tt.wantTimeout || cfg.FeedConcurrency != tt.wantConc {
				t.Errorf("got %+v", cfg)
			}
		})
	}
}

func TestLoadClient_DefaultDir(t *testing.T) {
	t.Setenv("VH_CLIENT_DIR", "")
	t.Setenv("HOME", "/home/tester")

	cfg, err := LoadClient()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dir != filepath.Join("/home/tester", ".videohub") {
		t.Errorf("Dir = %q", cfg.Dir)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("VH_TEST_FROM_FILE=hello\nVH_TEST_PRESET=file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VH_ENV_FILE", path)
	t.Setenv("VH_TEST_PRESET", "env")
	t.Setenv("VH_TEST_FROM_FILE", "")
	os.Unsetenv("VH_TEST_FROM_FILE")

	if err := LoadEnvFile(); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}

	if got := os.Getenv("VH_TEST_FROM_FILE"); got != "hello" {
		t.Errorf("VH_TEST_FROM_FILE = %q", got)
	}
	if got := os.Getenv("VH_TEST_PRESET"); got != "env" {
		t.Errorf("existing variable overridden: %q", got)
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	t.Setenv("VH_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	if err := LoadEnvFile(); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}

func TestValidator_Addr(t *testing.T) {
	tests := map[string]bool{
		":8080":          true,
		"127.0.0.1:9000": true,
		"8080":           false,
		":http":          false,
		":70000":         false,
	}
	for in, ok := range tests {
		var v Validator
		v.Addr("VH_ADDR", in)
		if v.HasErrors() == ok {
			t.Errorf("Addr(%q) errors = %v", in, v.errors)
		}
	}
}
