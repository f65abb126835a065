package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.AppPort != 7001 || cfg.PublicBaseURL != "http://localhost:7001" {
		t.Fatalf("unexpected listen defaults %d %q", cfg.AppPort, cfg.PublicBaseURL)
	}
	if cfg.TokenTTL != 7*24*time.Hour {
		t.Fatalf("unexpected token ttl %s", cfg.TokenTTL)
	}
	if cfg.Storage.Backend != StorageBackendHTTP || cfg.Storage.BaseURL != "http://localhost:3001" {
		t.Fatalf("unexpected storage defaults %+v", cfg.Storage)
	}
	if cfg.Storage.UpstreamHeaderTimeout != 15*time.Second {
		t.Fatalf("unexpected upstream timeout %s", cfg.Storage.UpstreamHeaderTimeout)
	}
	if err := cfg.ValidateServe(); err == nil {
		t.Fatal("expected serve validation to require a token secret")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SWARUPPLAY_PORT", "8080")
	t.Setenv("SWARUPPLAY_PUBLIC_BASE_URL", "https://play.example.com/")
	t.Setenv("SWARUPPLAY_TOKEN_SECRET", "s3cret")
	t.Setenv("SWARUPPLAY_TOKEN_TTL", "2h")
	t.Setenv("SWARUPPLAY_STORAGE_BACKEND", "S3")
	t.Setenv("SWARUPPLAY_S3_BUCKET", "videos")
	t.Setenv("SWARUPPLAY_S3_PREFIX", "uploads/")
	t.Setenv("SWARUPPLAY_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("SWARUPPLAY_YTDLP_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.AppPort != 8080 || cfg.PublicBaseURL != "https://play.example.com" {
		t.Fatalf("unexpected listen config %d %q", cfg.AppPort, cfg.PublicBaseURL)
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Fatalf("unexpected token ttl %s", cfg.TokenTTL)
	}
	want := ObjectStoreConfig{Bucket: "videos", Region: "us-east-1", Prefix: "uploads/"}
	if diff := cmp.Diff(want, cfg.Storage.ObjectStore); diff != "" {
		t.Fatalf("unexpected object store config (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins); diff != "" {
		t.Fatalf("unexpected origins (-want +got):\n%s", diff)
	}
	if cfg.YTDLPTimeout != 30*time.Second {
		t.Fatalf("expected invalid duration to fall back, got %s", cfg.YTDLPTimeout)
	}
	if err := cfg.ValidateServe(); err != nil {
		t.Fatalf("expected valid serve config: %v", err)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SWARUPPLAY_STORAGE_BACKEND", "ftp")
	if _, err := Load(); err == nil {
		t.Fatal("expected unknown backend to fail")
	}
}

func TestValidateServeRequiresBucketForS3(t *testing.T) {
	cfg := Config{TokenSecret: "x", Storage: StorageConfig{Backend: StorageBackendS3}}
	if err := cfg.ValidateServe(); err == nil {
		t.Fatal("expected missing bucket to fail")
	}
}

func TestLoadReadsDotEnvOutsideProduction(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SWARUPPLAY_LOG_LEVEL=debug\nSWARUPPLAY_STORAGE_TOKEN=from-file\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("SWARUPPLAY_STORAGE_TOKEN", "from-env")
	// godotenv writes into the process environment; Setenv registers a restore.
	t.Setenv("SWARUPPLAY_LOG_LEVEL", "")
	if err := os.Unsetenv("SWARUPPLAY_LOG_LEVEL"); err != nil {
		t.Fatalf("unset: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected level from .env, got %q", cfg.LogLevel)
	}
	if cfg.Storage.Token != "from-env" {
		t.Fatalf("expected environment to win over .env, got %q", cfg.Storage.Token)
	}
}
