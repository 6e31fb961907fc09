// Package config provides layered YAML configuration for ctxrag.
//
// Configuration is applied in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/ctxrag/config.yaml)
//  3. Project config (.ctxrag.yaml in the working directory)
//  4. Environment variables (CTXRAG_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete ctxrag configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	LLM        LLMConfig        `yaml:"llm" json:"llm"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Index      IndexConfig      `yaml:"index" json:"index"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// LLMConfig configures the completion provider used for chunk
// contextualization and reranking.
type LLMConfig struct {
	// Provider selects the completion backend: "openai" or "none".
	// "none" runs the pipeline in degraded mode with deterministic fallbacks.
	Provider string `yaml:"provider" json:"provider"`

	// Model is the completion model (default: gpt-3.5-turbo).
	Model string `yaml:"model" json:"model"`

	// APIKeyEnv names the environment variable holding the API key
	// (default: OPENAI_API_KEY). The key itself never lives in config files.
	APIKeyEnv string `yaml:"api_key_env" json:"api_key_env"`

	// MaxTokens caps completion length for context generation (default: 150).
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`

	// Temperature for completions (default: 0.3).
	Temperature float64 `yaml:"temperature" json:"temperature"`

	// Timeout is the per-call timeout (default: 30s).
	Timeout string `yaml:"timeout" json:"timeout"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider selects the embedding backend: "openai", "static", or ""
	// for auto-detection (openai when the API key env is set, else static).
	Provider string `yaml:"provider" json:"provider"`

	// Model is the embedding model (default: text-embedding-ada-002).
	Model string `yaml:"model" json:"model"`

	// Dimensions is the embedding dimension (0 = auto-detect from provider).
	Dimensions int `yaml:"dimensions" json:"dimensions"`

	// BatchSize is texts per embedding API request (default: 10).
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// CacheSize is the number of query embeddings to keep in the LRU cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// SearchConfig configures hybrid search parameters.
// Weights are configurable via:
//  1. User config (~/.config/ctxrag/config.yaml) - personal defaults
//  2. Project config (.ctxrag.yaml) - per-corpus tuning
//  3. Env vars (CTXRAG_DENSE_WEIGHT, CTXRAG_LEXICAL_WEIGHT) - highest priority
type SearchConfig struct {
	// DenseWeight is the weight for embedding similarity (0.0-1.0).
	// Must sum to 1.0 with LexicalWeight.
	DenseWeight float64 `yaml:"dense_weight" json:"dense_weight"`

	// LexicalWeight is the weight for TF-IDF similarity (0.0-1.0).
	// Must sum to 1.0 with DenseWeight.
	LexicalWeight float64 `yaml:"lexical_weight" json:"lexical_weight"`

	// InitialPool is the per-index recall pool size before fusion (default: 150).
	InitialPool int `yaml:"initial_pool" json:"initial_pool"`

	// FinalResults is the number of results returned (default: 20).
	FinalResults int `yaml:"final_results" json:"final_results"`

	// Rerank enables the LLM reranking pass when a provider is configured.
	Rerank bool `yaml:"rerank" json:"rerank"`

	// LexicalBackend selects the lexical index backend.
	// Options: "memory" (default, fitted TF-IDF) or "bleve".
	LexicalBackend string `yaml:"lexical_backend" json:"lexical_backend"`

	// VectorBackend selects the dense index backend.
	// Options: "memory" (default, exact cosine) or "hnsw" (approximate).
	VectorBackend string `yaml:"vector_backend" json:"vector_backend"`
}

// IndexConfig configures the batch indexing pipeline.
type IndexConfig struct {
	// DataDir is where derived artifacts (chunk records, vectors) are saved.
	// Defaults to .ctxrag/ under the working directory.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// Workers is the bounded concurrency for contextualization and embedding.
	Workers int `yaml:"workers" json:"workers"`

	// DocContextChars caps the concatenated document text passed to the
	// contextualizer prompt (default: 16000, truncated with a marker).
	DocContextChars int `yaml:"doc_context_chars" json:"doc_context_chars"`

	// ChunkSize is the target chunk size in characters for ingestion.
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`

	// ChunkOverlap is the character overlap between adjacent chunks.
	ChunkOverlap int `yaml:"chunk_overlap" json:"chunk_overlap"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		LLM: LLMConfig{
			Provider:    "", // Empty triggers auto-detection: openai when key is set, else none
			Model:       "gpt-3.5-turbo",
			APIKeyEnv:   "OPENAI_API_KEY",
			MaxTokens:   150,
			Temperature: 0.3,
			Timeout:     "30s",
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "",
			Model:      "text-embedding-ada-002",
			Dimensions: 0, // Auto-detect from embedder
			BatchSize:  10,
			CacheSize:  1000,
		},
		Search: SearchConfig{
			// Favor semantic recall, keep keyword precision as tie-breaker
			DenseWeight:    0.6,
			LexicalWeight:  0.4,
			InitialPool:    150,
			FinalResults:   20,
			Rerank:         true,
			LexicalBackend: "memory",
			VectorBackend:  "memory",
		},
		Index: IndexConfig{
			DataDir:         "",
			Workers:         runtime.NumCPU(),
			DocContextChars: 16000,
			ChunkSize:       1500,
			ChunkOverlap:    200,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/ctxrag/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/ctxrag/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ctxrag", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "ctxrag", "config.yaml")
	}
	return filepath.Join(home, ".config", "ctxrag", "config.yaml")
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist (that's OK).
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()

	if !fileExists(configPath) {
		return nil, nil // No user config is fine
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}

	return cfg, nil
}

// Load loads configuration from the specified directory with full precedence.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .ctxrag.yaml or .ctxrag.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".ctxrag.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".ctxrag.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine - use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// LLM
	if other.LLM.Provider != "" {
		c.LLM.Provider = other.LLM.Provider
	}
	if other.LLM.Model != "" {
		c.LLM.Model = other.LLM.Model
	}
	if other.LLM.APIKeyEnv != "" {
		c.LLM.APIKeyEnv = other.LLM.APIKeyEnv
	}
	if other.LLM.MaxTokens != 0 {
		c.LLM.MaxTokens = other.LLM.MaxTokens
	}
	if other.LLM.Temperature != 0 {
		c.LLM.Temperature = other.LLM.Temperature
	}
	if other.LLM.Timeout != "" {
		c.LLM.Timeout = other.LLM.Timeout
	}

	// Embeddings
	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}

	// Search weights
	// Note: 0 is not a practical value for weights, so we only merge non-zero values
	if other.Search.DenseWeight != 0 {
		c.Search.DenseWeight = other.Search.DenseWeight
	}
	if other.Search.LexicalWeight != 0 {
		c.Search.LexicalWeight = other.Search.LexicalWeight
	}
	if other.Search.InitialPool != 0 {
		c.Search.InitialPool = other.Search.InitialPool
	}
	if other.Search.FinalResults != 0 {
		c.Search.FinalResults = other.Search.FinalResults
	}
	if other.Search.LexicalBackend != "" {
		c.Search.LexicalBackend = other.Search.LexicalBackend
	}
	if other.Search.VectorBackend != "" {
		c.Search.VectorBackend = other.Search.VectorBackend
	}
	// Rerank defaults true; a bare struct from YAML can't distinguish
	// false from unset, so only backend-bearing configs flip it off.
	if other.Search.LexicalBackend != "" || other.Search.VectorBackend != "" ||
		other.Search.InitialPool != 0 || other.Search.FinalResults != 0 {
		c.Search.Rerank = other.Search.Rerank
	}

	// Index
	if other.Index.DataDir != "" {
		c.Index.DataDir = other.Index.DataDir
	}
	if other.Index.Workers != 0 {
		c.Index.Workers = other.Index.Workers
	}
	if other.Index.DocContextChars != 0 {
		c.Index.DocContextChars = other.Index.DocContextChars
	}
	if other.Index.ChunkSize != 0 {
		c.Index.ChunkSize = other.Index.ChunkSize
	}
	if other.Index.ChunkOverlap != 0 {
		c.Index.ChunkOverlap = other.Index.ChunkOverlap
	}

	// Logging
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
}

// applyEnvOverrides applies CTXRAG_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CTXRAG_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("CTXRAG_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("CTXRAG_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("CTXRAG_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("CTXRAG_DENSE_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Search.DenseWeight = w
		}
	}
	if v := os.Getenv("CTXRAG_LEXICAL_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Search.LexicalWeight = w
		}
	}
	if v := os.Getenv("CTXRAG_INITIAL_POOL"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Search.InitialPool = k
		}
	}
	if v := os.Getenv("CTXRAG_FINAL_RESULTS"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Search.FinalResults = k
		}
	}
	if v := os.Getenv("CTXRAG_RERANK"); v != "" {
		c.Search.Rerank = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("CTXRAG_DATA_DIR"); v != "" {
		c.Index.DataDir = v
	}
	if v := os.Getenv("CTXRAG_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Search.DenseWeight < 0 || c.Search.DenseWeight > 1 {
		return fmt.Errorf("search.dense_weight must be in [0,1], got %v", c.Search.DenseWeight)
	}
	if c.Search.LexicalWeight < 0 || c.Search.LexicalWeight > 1 {
		return fmt.Errorf("search.lexical_weight must be in [0,1], got %v", c.Search.LexicalWeight)
	}
	sum := c.Search.DenseWeight + c.Search.LexicalWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("search weights must sum to 1.0, got %v", sum)
	}
	if c.Search.InitialPool <= 0 {
		return fmt.Errorf("search.initial_pool must be positive, got %d", c.Search.InitialPool)
	}
	if c.Search.FinalResults <= 0 {
		return fmt.Errorf("search.final_results must be positive, got %d", c.Search.FinalResults)
	}
	if c.Search.FinalResults > c.Search.InitialPool {
		return fmt.Errorf("search.final_results (%d) cannot exceed search.initial_pool (%d)",
			c.Search.FinalResults, c.Search.InitialPool)
	}
	switch c.Search.LexicalBackend {
	case "", "memory", "bleve":
	default:
		return fmt.Errorf("search.lexical_backend must be \"memory\" or \"bleve\", got %q", c.Search.LexicalBackend)
	}
	switch c.Search.VectorBackend {
	case "", "memory", "hnsw":
	default:
		return fmt.Errorf("search.vector_backend must be \"memory\" or \"hnsw\", got %q", c.Search.VectorBackend)
	}
	switch c.LLM.Provider {
	case "", "openai", "none":
	default:
		return fmt.Errorf("llm.provider must be \"openai\" or \"none\", got %q", c.LLM.Provider)
	}
	switch c.Embeddings.Provider {
	case "", "openai", "static":
	default:
		return fmt.Errorf("embeddings.provider must be \"openai\" or \"static\", got %q", c.Embeddings.Provider)
	}
	if c.Embeddings.BatchSize < 0 {
		return fmt.Errorf("embeddings.batch_size must be non-negative, got %d", c.Embeddings.BatchSize)
	}
	if c.Index.Workers < 0 {
		return fmt.Errorf("index.workers must be non-negative, got %d", c.Index.Workers)
	}
	if c.Index.DocContextChars <= 0 {
		return fmt.Errorf("index.doc_context_chars must be positive, got %d", c.Index.DocContextChars)
	}
	return nil
}

// DataDir returns the resolved artifact directory for a project root.
func (c *Config) DataDir(root string) string {
	if c.Index.DataDir != "" {
		return c.Index.DataDir
	}
	return filepath.Join(root, ".ctxrag")
}

// APIKey resolves the configured API key from the environment.
// Returns empty string when no key is configured (degraded mode).
func (c *Config) APIKey() string {
	return c.LLM.APIKey()
}

// APIKey resolves the API key from the configured environment variable.
func (l LLMConfig) APIKey() string {
	env := l.APIKeyEnv
	if env == "" {
		env = "OPENAI_API_KEY"
	}
	return os.Getenv(env)
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// parseFloat64 parses a string to float64, used for config parsing.
func parseFloat64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f, err
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
