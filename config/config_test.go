package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnvOverrides(t *testing.T) {
	t.Helper()
	for _, key := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "OLLAMA_HOST", "OLLAMA_MODEL", "MINDCLONE_DB"} {
		t.Setenv(key, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnvOverrides(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database != "mindclone.db" {
		t.Errorf("database = %q", cfg.Database)
	}
	if cfg.InferenceTimeout != 60 {
		t.Errorf("inference timeout = %d", cfg.InferenceTimeout)
	}
	if len(cfg.LLMProviders) != 1 || cfg.LLMProviders[0] != "anthropic" {
		t.Errorf("providers = %v", cfg.LLMProviders)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	clearEnvOverrides(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("database: /tmp/custom.db\ninference_timeout: 120\nollama:\n  model: mistral\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database != "/tmp/custom.db" {
		t.Errorf("database = %q", cfg.Database)
	}
	if cfg.InferenceTimeout != 120 {
		t.Errorf("inference timeout = %d", cfg.InferenceTimeout)
	}
	if cfg.Ollama.Model != "mistral" {
		t.Errorf("ollama model = %q", cfg.Ollama.Model)
	}
	// Untouched sections keep their defaults.
	if cfg.Ollama.Host != "http://localhost:11434" {
		t.Errorf("ollama host = %q", cfg.Ollama.Host)
	}
}

func TestLoadEnvWinsOverFile(t *testing.T) {
	clearEnvOverrides(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env")
	t.Setenv("MINDCLONE_DB", "/tmp/env.db")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("database: /tmp/file.db\nanthropic:\n  api_key: sk-ant-file\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Anthropic.APIKey != "sk-ant-env" {
		t.Errorf("api key = %q", cfg.Anthropic.APIKey)
	}
	if cfg.Database != "/tmp/env.db" {
		t.Errorf("database = %q", cfg.Database)
	}
}

func TestGetConfigPathHonorsOverride(t *testing.T) {
	t.Setenv("MINDCLONE_CONFIG_PATH", "/etc/mindclone/config.yaml")
	if got := GetConfigPath(); got != "/etc/mindclone/config.yaml" {
		t.Errorf("GetConfigPath = %q", got)
	}
}
