package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromYAML(t *testing.T) {
	t.Chdir(t.TempDir())

	yaml := `
script:
  provider: claude
  max_tokens: 4000
  temperature: 0.3
images:
  width: 768
  poll_interval: 5s
  deadline: 2m
  failure_statuses: [FAILED]
speech:
  voice_id: JBFqnCBsd6RMkjVDRZzb
taxonomy:
  fallback: Outros
  categories:
    - niche: Culinária
      pattern: "(receita|bolo)"
endpoints:
  openai: http://localhost:4000/v1/chat/completions
`
	if err := os.WriteFile("config.yaml", []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Script.Provider != "claude" || cfg.Script.MaxTokens != 4000 {
		t.Errorf("Script = %+v", cfg.Script)
	}
	if cfg.Script.Temperature == nil || *cfg.Script.Temperature != 0.3 {
		t.Errorf("Temperature = %v, want 0.3", cfg.Script.Temperature)
	}
	if cfg.Images.Width != 768 || cfg.Images.Height != defaultImageHeight {
		t.Errorf("Images size = %dx%d", cfg.Images.Width, cfg.Images.Height)
	}
	if cfg.Images.PollInterval != 5*time.Second || cfg.Images.Deadline != 2*time.Minute {
		t.Errorf("Images timing = %v / %v", cfg.Images.PollInterval, cfg.Images.Deadline)
	}
	if len(cfg.Images.FailureStatuses) != 1 {
		t.Errorf("FailureStatuses = %v", cfg.Images.FailureStatuses)
	}
	if cfg.Taxonomy.Fallback != "Outros" || len(cfg.Taxonomy.Categories) != 1 {
		t.Errorf("Taxonomy = %+v", cfg.Taxonomy)
	}
	if cfg.Endpoints["openai"] != "http://localhost:4000/v1/chat/completions" {
		t.Errorf("Endpoints = %v", cfg.Endpoints)
	}
}

func TestLoadMissingConfigFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Script.Provider != defaultScriptProvider {
		t.Errorf("Script.Provider = %q", cfg.Script.Provider)
	}
	if cfg.Images.PollInterval != 2*time.Second || cfg.Images.Deadline != 60*time.Second {
		t.Errorf("poll defaults = %v / %v", cfg.Images.PollInterval, cfg.Images.Deadline)
	}
	if cfg.Retry.MaxAttempts != 1 {
		t.Errorf("Retry.MaxAttempts = %d, want 1", cfg.Retry.MaxAttempts)
	}
	if cfg.Credentials.Backend != BackendFile || cfg.Credentials.File != ".env" {
		t.Errorf("Credentials = %+v", cfg.Credentials)
	}
	if cfg.Credentials.FallbackToEnv == nil || !*cfg.Credentials.FallbackToEnv {
		t.Error("FallbackToEnv should default to true")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	t.Setenv("SCRIPTGEN_PROVIDER", "mistral")
	t.Setenv("SCRIPTGEN_CREDENTIALS_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("GCS_BUCKET", "scripts-bucket")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.GCPProject != "test-project" {
		t.Errorf("GCPProject = %q", cfg.GCPProject)
	}
	if cfg.Script.Provider != "mistral" {
		t.Errorf("Script.Provider = %q", cfg.Script.Provider)
	}
	if cfg.Credentials.Backend != BackendRedis || cfg.Credentials.RedisAddr != "localhost:6379" || cfg.Credentials.RedisDB != 2 {
		t.Errorf("Credentials = %+v", cfg.Credentials)
	}
	if cfg.Export.GCSBucket != "scripts-bucket" {
		t.Errorf("Export.GCSBucket = %q", cfg.Export.GCSBucket)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"badYAML", "script: [unclosed"},
		{"unknownBackend", "credentials:\n  backend: vault\n"},
		{"redisWithoutAddr", "credentials:\n  backend: redis\n"},
		{"secretManagerWithoutProject", "credentials:\n  backend: secretmanager\n"},
		{"negativeSize", "images:\n  width: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv("GOOGLE_CLOUD_PROJECT", "")
			t.Setenv("REDIS_ADDR", "")
			if err := os.WriteFile("config.yaml", []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(context.Background()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	cfg.Script.Provider = "deepseek"
	cfg.Credentials.Backend = BackendEnv

	path := filepath.Join(dir, "saved.yaml")
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := LoadFrom(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if loaded.Script.Provider != "deepseek" || loaded.Credentials.Backend != BackendEnv {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Images.Deadline != cfg.Images.Deadline {
		t.Errorf("Deadline = %v, want %v", loaded.Images.Deadline, cfg.Images.Deadline)
	}
}
