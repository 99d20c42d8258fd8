package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/scy/cred/secret"
	"gopkg.in/yaml.v3"
)

// Config defines the assistant settings.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Registry  RegistryConfig  `yaml:"registry"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Web       WebConfig       `yaml:"web"`
	Filter    FilterConfig    `yaml:"filter"`
	Language  string          `yaml:"language"`
}

// StoreConfig defines vector store persistence settings.
type StoreConfig struct {
	BaseURL string `yaml:"baseURL"`
}

// RegistryConfig defines the ingested-source registry settings.
type RegistryConfig struct {
	DSN string `yaml:"dsn"`
}

// ChunkingConfig defines text splitting settings.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// IngestConfig defines ingestion settings.
type IngestConfig struct {
	// Extensions restricts ingestion to the listed file extensions; empty
	// admits every built-in type.
	Extensions []string `yaml:"extensions"`
}

// RetrievalConfig defines question answering settings.
type RetrievalConfig struct {
	TopK          int `yaml:"topK"`
	HistoryWindow int `yaml:"historyWindow"`
}

// OpenAIConfig defines model and credential settings.
type OpenAIConfig struct {
	APIKey         string `yaml:"apiKey,omitempty"`
	APIKeySecret   string `yaml:"apiKeySecret,omitempty"`
	EmbeddingModel string `yaml:"embeddingModel"`
	ChatModel      string `yaml:"chatModel"`
}

// WebConfig defines web page fetching settings.
type WebConfig struct {
	FetchTimeoutSeconds int `yaml:"fetchTimeoutSeconds"`
}

// FilterConfig defines directory ingestion filters.
type FilterConfig struct {
	Include      []string `yaml:"include"`
	Exclude      []string `yaml:"exclude"`
	MaxSizeBytes int      `yaml:"max_size_bytes"`
}

const (
	defaultChunkSize      = 1000
	defaultChunkOverlap   = 200
	defaultTopK           = 4
	defaultHistoryWindow  = 3
	defaultFetchTimeout   = 10
	defaultEmbeddingModel = "text-embedding-3-small"
	defaultChatModel      = "gpt-4o-mini"
	defaultLanguage       = "english"
)

// DefaultConfig returns settings used when no config file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Store.BaseURL == "" {
		c.Store.BaseURL = "~/.doctalk/index"
	}
	if c.Registry.DSN == "" {
		c.Registry.DSN = "~/.doctalk/registry.db"
	}
	if c.Chunking.Size <= 0 {
		c.Chunking.Size = defaultChunkSize
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		c.Chunking.Overlap = defaultChunkOverlap
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = defaultTopK
	}
	if c.Retrieval.HistoryWindow <= 0 {
		c.Retrieval.HistoryWindow = defaultHistoryWindow
	}
	if c.Web.FetchTimeoutSeconds <= 0 {
		c.Web.FetchTimeoutSeconds = defaultFetchTimeout
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = defaultEmbeddingModel
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = defaultChatModel
	}
	if c.Language == "" {
		c.Language = defaultLanguage
	}
}

// LoadConfig reads settings from a YAML file, fills defaults, expands user
// paths and resolves the API key secret. An empty path returns defaults.
func LoadConfig(ctx context.Context, path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		expanded, err := expandUserPath(path)
		if err != nil {
			return nil, err
		}
		b, err := os.ReadFile(expanded)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyDefaults()
	baseURL, err := expandUserPath(cfg.Store.BaseURL)
	if err != nil {
		return nil, err
	}
	cfg.Store.BaseURL = baseURL
	dsn, err := expandUserPath(cfg.Registry.DSN)
	if err != nil {
		return nil, err
	}
	cfg.Registry.DSN = dsn
	if cfg.OpenAI.APIKeySecret != "" {
		key, err := ExpandKeyWithSecret(ctx, cfg.OpenAI.APIKey, cfg.OpenAI.APIKeySecret)
		if err != nil {
			return nil, err
		}
		cfg.OpenAI.APIKey = key
	}
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg, nil
}

// ExpandKeyWithSecret loads a secret and expands placeholders in the API
// key template.
func ExpandKeyWithSecret(ctx context.Context, key, secretRef string) (string, error) {
	secretRef = strings.TrimSpace(secretRef)
	if secretRef == "" {
		return key, nil
	}
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("secret %q provided but apiKey template is empty", secretRef)
	}
	svc := secret.New()
	sec, err := svc.Lookup(ctx, secret.Resource(secretRef))
	if err != nil {
		return "", err
	}
	return sec.Expand(key), nil
}

func expandUserPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return path, nil
	}
	if trimmed[0] != '~' && !strings.HasPrefix(trimmed, "file:") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if trimmed == "~" {
		return home, nil
	}
	if strings.HasPrefix(trimmed, "~/") {
		return filepath.Join(home, trimmed[2:]), nil
	}
	if strings.HasPrefix(trimmed, "file:") {
		rest := strings.TrimPrefix(trimmed, "file://")
		if rest == trimmed {
			rest = strings.TrimPrefix(trimmed, "file:")
		}
		rest = strings.TrimLeft(rest, "/")
		if strings.HasPrefix(rest, "~") {
			abs := filepath.Join(home, strings.TrimPrefix(rest, "~"))
			return "file:///" + strings.TrimLeft(filepath.ToSlash(abs), "/"), nil
		}
		return path, nil
	}
	return "", fmt.Errorf("config: unsupported ~user path: %s", path)
}
