// Package config handles colloquy configuration loading.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from the -config flag) is checked first.
// Then: ./colloquy.yaml, ~/.config/colloquy/config.yaml,
// /etc/colloquy/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"colloquy.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "colloquy", "config.yaml"))
	}

	paths = append(paths, "/etc/colloquy/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise the search paths are tried in order and the first that exists
// wins. An empty return with nil error means no file was found anywhere and
// defaults apply.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}

// Config holds all colloquy configuration.
type Config struct {
	Listen       ListenConfig       `yaml:"listen"`
	Ollama       OllamaConfig       `yaml:"ollama"`
	Recognizer   RecognizerConfig   `yaml:"recognizer"`
	Storage      StorageConfig      `yaml:"storage"`
	Index        IndexConfig        `yaml:"index"`
	Watch        WatchConfig        `yaml:"watch"`
	Conversation ConversationConfig `yaml:"conversation"`
	LogLevel     string             `yaml:"log_level"`
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// Addr returns the host:port string for the HTTP listener.
func (c ListenConfig) Addr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// OllamaConfig defines the local model server connection.
type OllamaConfig struct {
	BaseURL         string `yaml:"base_url"`
	ChatModel       string `yaml:"chat_model"`
	EmbedModel      string `yaml:"embed_model"`
	ChatTimeoutSec  int    `yaml:"chat_timeout_sec"`
	EmbedTimeoutSec int    `yaml:"embed_timeout_sec"`
}

// RecognizerConfig defines the entity recognition service used by
// coreference resolution. An empty base URL disables entity substitution.
type RecognizerConfig struct {
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// StorageConfig defines where durable state lives.
type StorageConfig struct {
	SessionsDir string `yaml:"sessions_dir"` // Turn logs, one file per session.
	DataDir     string `yaml:"data_dir"`     // Uploaded documents and indexes.
}

// IndexConfig defines document chunking and retrieval settings.
type IndexConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`
}

// WatchConfig defines the optional document drop directory.
type WatchConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// ConversationConfig defines reasoning behavior per request.
type ConversationConfig struct {
	SystemPrompt      string `yaml:"system_prompt"`
	MaxAttempts       int    `yaml:"max_attempts"`
	MaxIterations     int    `yaml:"max_iterations"`
	AttemptTimeoutSec int    `yaml:"attempt_timeout_sec"`
	ToolTimeoutSec    int    `yaml:"tool_timeout_sec"`
}

// DefaultSystemPrompt is the persona used when the config leaves it unset.
const DefaultSystemPrompt = "You are a helpful, concise assistant. Answer " +
	"directly, use the available tools when they help, and say so when you " +
	"do not know."

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{Port: 8080},
		Ollama: OllamaConfig{
			BaseURL:         "http://localhost:11434",
			ChatModel:       "mistral",
			EmbedModel:      "nomic-embed-text",
			ChatTimeoutSec:  300,
			EmbedTimeoutSec: 60,
		},
		Recognizer: RecognizerConfig{TimeoutSec: 10},
		Storage: StorageConfig{
			SessionsDir: "sessions",
			DataDir:     "data",
		},
		Index: IndexConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
			TopK:         4,
		},
		Watch: WatchConfig{Dir: "documents"},
		Conversation: ConversationConfig{
			SystemPrompt: DefaultSystemPrompt,
		},
	}
}

// Load reads configuration from a YAML file layered over the defaults.
// Environment variables in the file are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return cfg, nil
}

// Duration converts a whole-second config value, zero meaning "use the
// component's own default".
func Duration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
