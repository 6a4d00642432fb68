package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// OpenAIConfig holds the connection settings shared by the OpenAI-compatible clients.
type OpenAIConfig struct {
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	MaxAttempts       int     `yaml:"max_attempts"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// Timeout returns the request timeout as a duration.
func (c OpenAIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string        `yaml:"type"`
	Model     string        `yaml:"model"`
	BatchSize int           `yaml:"batch_size"`
	OpenAI    *OpenAIConfig `yaml:"openai,omitempty"`
}

// CompletionConfig selects the model answers and summaries are generated with.
type CompletionConfig struct {
	Type        string        `yaml:"type"`
	Model       string        `yaml:"model"`
	Temperature *float64      `yaml:"temperature,omitempty"`
	OpenAI      *OpenAIConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type         string `yaml:"type"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
}

// RetrievalConfig tunes indexing and retrieval.
type RetrievalConfig struct {
	TopK                     int `yaml:"top_k"`
	Workers                  int `yaml:"workers"`
	SummaryChunksPerDocument int `yaml:"summary_chunks_per_document"`
	PreviewSentences         int `yaml:"preview_sentences"`
}

// StorageConfig locates uploaded files.
type StorageConfig struct {
	UploadURL string `yaml:"upload_url"`
}

// ServerConfig configures the web UI.
type ServerConfig struct {
	Addr                string `yaml:"addr"`
	ShutdownTimeoutSecs int    `yaml:"shutdown_timeout_secs"`
	MaxUploadMB         int    `yaml:"max_upload_mb"`
	SessionTTLMins      int    `yaml:"session_ttl_mins"`
	MaxSessions         int    `yaml:"max_sessions"`
}

// SessionTTL returns how long an idle web session is kept.
func (c ServerConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMins) * time.Minute
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Completion CompletionConfig `yaml:"completion"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Storage    StorageConfig    `yaml:"storage"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

// Pipeline is the explicit set of settings handed to the indexing and answering components.
type Pipeline struct {
	Model        string
	Temperature  float64
	ChunkSize    int
	ChunkOverlap int
	TopK         int
}

// Pipeline extracts the pipeline settings from the loaded configuration.
func (c *AppConfig) Pipeline() Pipeline {
	p := Pipeline{
		Model:        c.Completion.Model,
		ChunkSize:    c.Chunker.ChunkSize,
		ChunkOverlap: c.Chunker.ChunkOverlap,
		TopK:         c.Retrieval.TopK,
	}
	if c.Completion.Temperature != nil {
		p.Temperature = *c.Completion.Temperature
	}
	return p
}

// Validate reports settings that cannot work together.
func (c *AppConfig) Validate() error {
	if c.Chunker.ChunkOverlap >= c.Chunker.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)", c.Chunker.ChunkOverlap, c.Chunker.ChunkSize)
	}
	if t := c.Pipeline().Temperature; t < 0 || t > 2 {
		return fmt.Errorf("temperature %.2f out of range [0, 2]", t)
	}
	return nil
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docassist/config.yaml.
// If neither exists, it writes defaults to ~/.config/docassist/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := DefaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultUserConfigPath returns ~/.config/docassist/config.yaml.
func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docassist", "config.yaml"), nil
}

// Default returns a fully populated configuration.
func Default() *AppConfig {
	cfg := &AppConfig{
		Embedder:   EmbedderConfig{Type: "openai"},
		Completion: CompletionConfig{Type: "openai"},
		Chunker:    ChunkerConfig{Type: "boundary"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-3-small"
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 32
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIConfig{}
		}
		applyOpenAIDefaults(cfg.Embedder.OpenAI)
	}

	if cfg.Completion.Type == "" {
		cfg.Completion.Type = "openai"
	}
	if cfg.Completion.Model == "" {
		cfg.Completion.Model = "gpt-3.5-turbo"
	}
	if cfg.Completion.Temperature == nil {
		t := 0.1
		cfg.Completion.Temperature = &t
	}
	if cfg.Completion.Type == "openai" {
		if cfg.Completion.OpenAI == nil {
			cfg.Completion.OpenAI = &OpenAIConfig{}
		}
		applyOpenAIDefaults(cfg.Completion.OpenAI)
	}

	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "boundary"
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1024
	}
	if cfg.Chunker.ChunkOverlap == 0 {
		cfg.Chunker.ChunkOverlap = 20
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.Workers == 0 {
		cfg.Retrieval.Workers = 4
	}
	if cfg.Retrieval.SummaryChunksPerDocument == 0 {
		cfg.Retrieval.SummaryChunksPerDocument = 3
	}
	if cfg.Retrieval.PreviewSentences == 0 {
		cfg.Retrieval.PreviewSentences = 2
	}

	if cfg.Storage.UploadURL == "" {
		cfg.Storage.UploadURL = "file://localhost/data"
		if wd, err := os.Getwd(); err == nil {
			cfg.Storage.UploadURL = "file://localhost" + filepath.ToSlash(filepath.Join(wd, "data"))
		}
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8501"
	}
	if cfg.Server.ShutdownTimeoutSecs == 0 {
		cfg.Server.ShutdownTimeoutSecs = 5
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 64
	}
	if cfg.Server.SessionTTLMins == 0 {
		cfg.Server.SessionTTLMins = 60
	}
	if cfg.Server.MaxSessions == 0 {
		cfg.Server.MaxSessions = 1000
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func applyOpenAIDefaults(c *OpenAIConfig) {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = 30
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
}
