package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/docmind/internal/chunker"
)

// Config holds the docmind configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Auth      AuthConfig      `yaml:"auth"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Search    SearchConfig    `yaml:"search"`
	Index     IndexConfig     `yaml:"index"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig maps API keys to the owner identity they act as.
type AuthConfig struct {
	APIKeys []APIKey `yaml:"api_keys"`
}

// APIKey binds one bearer token to an owner.
type APIKey struct {
	Key   string `yaml:"key"`
	Owner string `yaml:"owner"`
}

// Owners returns the key -> owner lookup table.
func (a AuthConfig) Owners() map[string]string {
	out := make(map[string]string, len(a.APIKeys))
	for _, k := range a.APIKeys {
		if k.Key != "" {
			out[k.Key] = k.Owner
		}
	}
	return out
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxUploadBytes  int64 `yaml:"max_upload_bytes"`
}

// DatabaseConfig holds vector store (Redis with the search module) connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds the durable document store settings.
type StorageConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// EmbeddingConfig holds embedding provider and cache settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"`
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	BatchSize           int    `yaml:"batch_size"`
	CacheTTLSec         int    `yaml:"cache_ttl_sec"` // 0 = no expiry
}

// ChunkingConfig holds word-window settings.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// Params converts the section to chunker parameters.
func (c ChunkingConfig) Params() chunker.Params {
	return chunker.Params{Size: c.Size, Overlap: c.Overlap}
}

// SearchConfig holds fusion settings.
type SearchConfig struct {
	Alpha              *float64 `yaml:"alpha"`
	DefaultTopK        int      `yaml:"default_top_k"`
	MaxTopK            int      `yaml:"max_top_k"`
	MinSimilarity      float64  `yaml:"min_similarity"`
	MinScore           float64  `yaml:"min_score"`
	LexicalWaitMS      int      `yaml:"lexical_wait_ms"`
	VerifyLexicalOwner *bool    `yaml:"verify_lexical_owner"`
}

// AlphaValue returns alpha, defaulting to 0.7 when unset.
func (s SearchConfig) AlphaValue() float64 {
	if s.Alpha == nil {
		return 0.7
	}
	return *s.Alpha
}

// VerifyOwner reports whether lexical-only hits are verified against the document store.
func (s SearchConfig) VerifyOwner() bool {
	return s.VerifyLexicalOwner == nil || *s.VerifyLexicalOwner
}

// IndexConfig holds HNSW index settings.
type IndexConfig struct {
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, if present, is loaded first.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		c.HTTP.MaxUploadBytes = 32 << 20
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "docmind.db"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 256
	}
	if c.Chunking.Size == 0 {
		c.Chunking.Size = chunker.DefaultSize
		if c.Chunking.Overlap == 0 {
			c.Chunking.Overlap = chunker.DefaultOverlap
		}
	}
	if c.Search.DefaultTopK <= 0 {
		c.Search.DefaultTopK = 10
	}
	if c.Search.MaxTopK <= 0 {
		c.Search.MaxTopK = 50
	}
	if c.Search.LexicalWaitMS <= 0 {
		c.Search.LexicalWaitMS = 2000
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if err := c.Chunking.Params().Validate(); err != nil {
		return fmt.Errorf("chunking: %w", err)
	}
	if a := c.Search.AlphaValue(); a < 0 || a > 1 {
		return fmt.Errorf("search.alpha must be within [0, 1], got %v", a)
	}
	if c.Search.DefaultTopK > c.Search.MaxTopK {
		return fmt.Errorf("search.default_top_k %d exceeds search.max_top_k %d",
			c.Search.DefaultTopK, c.Search.MaxTopK)
	}
	if c.Search.MinSimilarity < 0 || c.Search.MinSimilarity > 1 {
		return fmt.Errorf("search.min_similarity must be within [0, 1], got %v", c.Search.MinSimilarity)
	}
	if c.Search.MinScore < 0 {
		return fmt.Errorf("search.min_score must not be negative, got %v", c.Search.MinScore)
	}
	for i, k := range c.Auth.APIKeys {
		if k.Key != "" && k.Owner == "" {
			return fmt.Errorf("auth.api_keys[%d].owner is required", i)
		}
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
