package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rapidphoto/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rapidphoto.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %s", resolved)
	}
	if cfg.Uploads.MaxConcurrent != 10 || cfg.Uploads.MaxRetries != 3 || cfg.Uploads.RetryDelayMS != 1000 {
		t.Fatalf("unexpected upload defaults: %#v", cfg.Uploads)
	}
	if cfg.Uploads.MaxBatchFiles != 100 {
		t.Fatalf("unexpected batch limit: %d", cfg.Uploads.MaxBatchFiles)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	base := t.TempDir()
	path := writeConfig(t, `
[paths]
data_dir = "`+filepath.Join(base, "data")+`"
log_dir = "`+filepath.Join(base, "logs")+`"

[api]
base_url = "https://photos.example.com/"
auth_token = "  secret  "

[uploads]
max_concurrent = 4
max_retries = 5

[logging]
format = "JSON"
level = "DEBUG"
`)

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.API.BaseURL != "https://photos.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.API.BaseURL)
	}
	if cfg.API.AuthToken != "secret" {
		t.Fatalf("expected token trimmed, got %q", cfg.API.AuthToken)
	}
	if cfg.Uploads.MaxConcurrent != 4 || cfg.Uploads.MaxRetries != 5 {
		t.Fatalf("unexpected uploads: %#v", cfg.Uploads)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected lowercased logging settings: %#v", cfg.Logging)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "bad base url",
			content: "[api]\nbase_url = \"not a url\"\n",
			wantErr: "base_url",
		},
		{
			name:    "unsupported scheme",
			content: "[api]\nbase_url = \"ftp://photos.example.com\"\n",
			wantErr: "scheme",
		},
		{
			name:    "concurrency too high",
			content: "[uploads]\nmax_concurrent = 200\n",
			wantErr: "max_concurrent",
		},
		{
			name:    "retries too high",
			content: "[uploads]\nmax_retries = 50\n",
			wantErr: "max_retries",
		},
		{
			name:    "bad log format",
			content: "[logging]\nformat = \"xml\"\n",
			wantErr: "logging.format",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			_, _, _, err := config.Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "/var/lib/rapidphoto"

	if got := cfg.QueueDBPath(); got != "/var/lib/rapidphoto/queue.db" {
		t.Fatalf("unexpected queue db path: %s", got)
	}
	if got := cfg.PhotoCachePath(); got != "/var/lib/rapidphoto/photo_cache.json" {
		t.Fatalf("unexpected photo cache path: %s", got)
	}
	if got := cfg.LockPath(); got != "/var/lib/rapidphoto/rapid.lock" {
		t.Fatalf("unexpected lock path: %s", got)
	}
}

func TestEnsureDirectoriesCreatesTree(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "nested", "data")
	cfg.Paths.LogDir = filepath.Join(base, "nested", "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}

func TestSampleConfigParses(t *testing.T) {
	path := writeConfig(t, config.SampleConfig())
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[uploads]") {
		t.Fatal("sample config missing uploads section")
	}
}
