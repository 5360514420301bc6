package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the alfred API configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Auth    AuthConfig    `yaml:"auth"`
	Cache   CacheConfig   `yaml:"cache"`
	Vector  VectorConfig  `yaml:"vector"`
	LLM     LLMConfig     `yaml:"llm"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Logging LoggingConfig `yaml:"logging"`
}

// AuthConfig holds API authentication settings. An empty key list
// disables authentication.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CacheConfig holds query cache settings.
type CacheConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Addrs        []string `yaml:"addrs"`
	Password     string   `yaml:"password"`
	Namespace    string   `yaml:"namespace"`
	TTLSec       int      `yaml:"ttl_sec"`
	OpTimeoutSec int      `yaml:"op_timeout_sec"`
}

// VectorConfig holds vector index connection settings.
type VectorConfig struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	APIKey            string `yaml:"api_key"`
	UseTLS            bool   `yaml:"use_tls"`
	DefaultCollection string `yaml:"default_collection"`
	TimeoutSec        int    `yaml:"timeout_sec"`
}

// ModelConfig holds generation parameters for one model role.
type ModelConfig struct {
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	TopP        float32 `yaml:"top_p"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSec  int     `yaml:"timeout_sec"`
}

// LLMConfig holds settings for the OpenAI-compatible provider
// (e.g. Ollama's /v1 endpoint).
type LLMConfig struct {
	BaseURL        string      `yaml:"base_url"`
	APIKey         string      `yaml:"api_key"`
	EmbeddingModel string      `yaml:"embedding_model"`
	Generation     ModelConfig `yaml:"generation"`
	Advisor        ModelConfig `yaml:"advisor"`
}

// IngestConfig holds document ingest settings.
type IngestConfig struct {
	ChunkSentences   int `yaml:"chunk_sentences"`
	OverlapSentences int `yaml:"overlap_sentences"`
	PoolSize         int `yaml:"pool_size"`
	VectorDimensions int `yaml:"vector_dimensions"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.Namespace == "" {
		c.Cache.Namespace = "alfred"
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 3600
	}
	if c.Cache.OpTimeoutSec <= 0 {
		c.Cache.OpTimeoutSec = 5
	}
	if c.Vector.Host == "" {
		c.Vector.Host = "localhost"
	}
	if c.Vector.Port <= 0 {
		c.Vector.Port = 6334
	}
	if c.Vector.DefaultCollection == "" {
		c.Vector.DefaultCollection = "alfred_knowledge"
	}
	if c.Vector.TimeoutSec <= 0 {
		c.Vector.TimeoutSec = 10
	}
	if c.LLM.EmbeddingModel == "" {
		c.LLM.EmbeddingModel = "all-minilm"
	}
	if c.LLM.Generation.Model == "" {
		c.LLM.Generation.Model = "llama3.1"
	}
	if c.LLM.Generation.Temperature <= 0 {
		c.LLM.Generation.Temperature = 0.7
	}
	if c.LLM.Generation.TopP <= 0 {
		c.LLM.Generation.TopP = 0.9
	}
	if c.LLM.Generation.TimeoutSec <= 0 {
		c.LLM.Generation.TimeoutSec = 30
	}
	if c.LLM.Advisor.Model == "" {
		c.LLM.Advisor.Model = "llama3.2:1b"
	}
	if c.LLM.Advisor.Temperature <= 0 {
		c.LLM.Advisor.Temperature = 0.1
	}
	if c.LLM.Advisor.TopP <= 0 {
		c.LLM.Advisor.TopP = 0.9
	}
	if c.LLM.Advisor.MaxTokens <= 0 {
		c.LLM.Advisor.MaxTokens = 5
	}
	if c.LLM.Advisor.TimeoutSec <= 0 {
		c.LLM.Advisor.TimeoutSec = 10
	}
	if c.Ingest.ChunkSentences <= 0 {
		c.Ingest.ChunkSentences = 5
	}
	if c.Ingest.OverlapSentences < 0 {
		c.Ingest.OverlapSentences = 0
	}
	if c.Ingest.PoolSize <= 0 {
		c.Ingest.PoolSize = 4
	}
	if c.Ingest.VectorDimensions <= 0 {
		c.Ingest.VectorDimensions = 384
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache is enabled")
	}
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	if c.Ingest.OverlapSentences >= c.Ingest.ChunkSentences {
		return fmt.Errorf(
			"ingest.overlap_sentences must be less than chunk_sentences, got %d >= %d",
			c.Ingest.OverlapSentences, c.Ingest.ChunkSentences,
		)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
