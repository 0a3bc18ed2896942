package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/colloquy-ai/colloquy/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	if cfg.Listen.Port != 8080 {
		t.Errorf("port = %d", cfg.Listen.Port)
	}
	if cfg.Ollama.BaseURL != "http://localhost:11434" || cfg.Ollama.ChatModel != "mistral" {
		t.Errorf("ollama = %+v", cfg.Ollama)
	}
	if cfg.Index.ChunkSize != 1000 || cfg.Index.ChunkOverlap != 200 || cfg.Index.TopK != 4 {
		t.Errorf("index = %+v", cfg.Index)
	}
	if cfg.Conversation.SystemPrompt == "" {
		t.Error("system prompt unset")
	}
	if cfg.Recognizer.BaseURL != "" {
		t.Errorf("recognizer enabled by default: %+v", cfg.Recognizer)
	}
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colloquy.yaml")
	content := `
listen:
  port: 9999
ollama:
  chat_model: llama3
index:
  top_k: 8
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Listen.Port != 9999 {
		t.Errorf("port = %d", cfg.Listen.Port)
	}
	if cfg.Ollama.ChatModel != "llama3" {
		t.Errorf("chat model = %q", cfg.Ollama.ChatModel)
	}
	// Untouched keys keep their defaults.
	if cfg.Ollama.BaseURL != "http://localhost:11434" {
		t.Errorf("base url = %q", cfg.Ollama.BaseURL)
	}
	if cfg.Index.TopK != 8 || cfg.Index.ChunkSize != 1000 {
		t.Errorf("index = %+v", cfg.Index)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("COLLOQUY_TEST_MODEL", "phi3")

	path := filepath.Join(t.TempDir(), "colloquy.yaml")
	if err := os.WriteFile(path, []byte("ollama:\n  chat_model: ${COLLOQUY_TEST_MODEL}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ollama.ChatModel != "phi3" {
		t.Errorf("chat model = %q", cfg.Ollama.ChatModel)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colloquy.yaml")
	if err := os.WriteFile(path, []byte(":\n  - ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestFindConfigExplicitMustExist(t *testing.T) {
	if _, err := config.FindConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for explicit missing path")
	}

	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := config.FindConfig(path)
	if err != nil || got != path {
		t.Errorf("FindConfig = %q, %v", got, err)
	}
}

func TestListenAddr(t *testing.T) {
	c := config.ListenConfig{Address: "127.0.0.1", Port: 8080}
	if got := c.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("addr = %q", got)
	}
	c = config.ListenConfig{Port: 9090}
	if got := c.Addr(); got != ":9090" {
		t.Errorf("addr = %q", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"trace", config.LevelTrace, false},
		{"debug", slog.LevelDebug, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{" debug ", slog.LevelDebug, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := config.ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestReplaceLogLevelNames(t *testing.T) {
	attr := slog.Attr{Key: slog.LevelKey, Value: slog.AnyValue(config.LevelTrace)}
	got := config.ReplaceLogLevelNames(nil, attr)
	if got.Value.String() != "TRACE" {
		t.Errorf("value = %q", got.Value.String())
	}

	other := slog.String("msg", "hello")
	if got := config.ReplaceLogLevelNames(nil, other); got.Value.String() != "hello" {
		t.Errorf("non-level attr rewritten: %v", got)
	}
}
