package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/serpdex/internal/domain/authority"
	"github.com/kailas-cloud/serpdex/internal/domain/search/request"
)

// Config holds the serpdex API configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	VectorIndex VectorIndexConfig `yaml:"vector_index"`
	ChunkStore  ChunkStoreConfig  `yaml:"chunk_store"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Authority   AuthorityConfig   `yaml:"authority"`
	Limits      LimitsConfig      `yaml:"limits"`
	Timeouts    TimeoutsConfig    `yaml:"timeouts"`
	Cache       CacheConfig       `yaml:"cache"`
	Logging     LoggingConfig     `yaml:"logging"`
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

// Vector index drivers.
const (
	DriverRedis   = "redis"
	DriverValkey  = "valkey"
	DriverChromem = "chromem"
)

// VectorIndexConfig holds the document-level vector index settings.
type VectorIndexConfig struct {
	Driver           string   `yaml:"driver"` // redis, valkey, chromem (default: redis)
	IndexName        string   `yaml:"index_name"`
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	Path             string   `yaml:"path"` // chromem persistence directory, empty = in memory
	Compress         bool     `yaml:"compress"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Chunk store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ChunkStoreConfig holds the per-URL chunk store settings.
type ChunkStoreConfig struct {
	Driver      string `yaml:"driver"` // postgres, sqlite (default: postgres)
	DSN         string `yaml:"dsn"`
	Path        string `yaml:"path"`
	Table       string `yaml:"table"`
	Dim         int    `yaml:"dim"`
	BatchSize   int    `yaml:"batch_size"`
	MaxParallel int    `yaml:"max_parallel"`
	MaxConns    int    `yaml:"max_conns"`
	MinConns    int    `yaml:"min_conns"`
}

// EmbeddingConfig holds the query embedder settings.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"`
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"` // requested from the API, 0 = model default
	Instruction string `yaml:"instruction"`
	TimeoutSec  int    `yaml:"timeout_sec"`
}

// AuthorityConfig holds the domain authority rerank settings.
type AuthorityConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Importance float64 `yaml:"importance"`
	File       string  `yaml:"file"` // .csv or .parquet
}

// LimitsConfig holds per-request stage limits used when a request omits them.
type LimitsConfig struct {
	Broad        int `yaml:"broad_results"`
	Deduped      int `yaml:"deduped_url_results"`
	Hierarchical int `yaml:"hierarchical_url_results"`
	Final        int `yaml:"final_results"`
}

// TimeoutsConfig holds per-stage timeouts in milliseconds. 0 disables a bound.
type TimeoutsConfig struct {
	EmbedMs       int `yaml:"embed_ms"`
	BroadSearchMs int `yaml:"broad_search_ms"`
	ChunkFetchMs  int `yaml:"chunk_fetch_ms"`
}

// CacheConfig holds query embedding cache settings.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands environment variables in data, decodes it, applies defaults and validates.
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
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.VectorIndex.Driver == "" {
		c.VectorIndex.Driver = DriverRedis
	}
	if c.VectorIndex.IndexName == "" {
		c.VectorIndex.IndexName = "serp_idx"
	}
	if c.VectorIndex.ReadinessTimeout <= 0 {
		c.VectorIndex.ReadinessTimeout = 10
	}

	if c.ChunkStore.Driver == "" {
		c.ChunkStore.Driver = DriverPostgres
	}
	if c.ChunkStore.Table == "" {
		c.ChunkStore.Table = "chunks"
	}
	if c.ChunkStore.Dim <= 0 {
		c.ChunkStore.Dim = 768
	}
	if c.ChunkStore.BatchSize <= 0 {
		c.ChunkStore.BatchSize = 256
	}
	if c.ChunkStore.MaxParallel <= 0 {
		c.ChunkStore.MaxParallel = 4
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}

	def := request.DefaultLimits()
	if c.Limits.Broad == 0 {
		c.Limits.Broad = def.Broad
	}
	if c.Limits.Deduped == 0 {
		c.Limits.Deduped = def.Deduped
	}
	if c.Limits.Hierarchical == 0 {
		c.Limits.Hierarchical = def.Hierarchical
	}
	if c.Limits.Final == 0 {
		c.Limits.Final = def.Final
	}

	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 7 * 24 * 3600
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.VectorIndex.Driver {
	case DriverRedis, DriverValkey:
		if len(c.VectorIndex.Addrs) == 0 {
			return errors.New("vector_index.addrs is required")
		}
	case DriverChromem:
		if c.Cache.Enabled {
			return errors.New("cache requires a redis or valkey vector_index")
		}
	default:
		return fmt.Errorf("vector_index.driver must be redis, valkey or chromem, got %q", c.VectorIndex.Driver)
	}

	switch c.ChunkStore.Driver {
	case DriverPostgres:
		if c.ChunkStore.DSN == "" {
			return errors.New("chunk_store.dsn is required for postgres")
		}
	case DriverSQLite:
		if c.ChunkStore.Path == "" {
			return errors.New("chunk_store.path is required for sqlite")
		}
	default:
		return fmt.Errorf("chunk_store.driver must be postgres or sqlite, got %q", c.ChunkStore.Driver)
	}

	if c.Embedding.BaseURL == "" {
		return errors.New("embedding.base_url is required")
	}
	if c.Embedding.Model == "" {
		return errors.New("embedding.model is required")
	}

	if c.Authority.Enabled {
		if c.Authority.File == "" {
			return errors.New("authority.file is required when authority is enabled")
		}
		if !authority.ValidImportance(c.Authority.Importance) {
			return fmt.Errorf("authority.importance must be in [0, 1], got %v", c.Authority.Importance)
		}
	}

	if _, err := request.New("limits", c.RequestLimits(), nil); err != nil {
		return fmt.Errorf("limits: %w", err)
	}

	for name, ms := range map[string]int{
		"embed_ms":        c.Timeouts.EmbedMs,
		"broad_search_ms": c.Timeouts.BroadSearchMs,
		"chunk_fetch_ms":  c.Timeouts.ChunkFetchMs,
	} {
		if ms < 0 {
			return fmt.Errorf("timeouts.%s must not be negative, got %d", name, ms)
		}
	}
	return nil
}

// RequestLimits returns the configured default limits of a search request.
func (c *Config) RequestLimits() request.Limits {
	return request.Limits{
		Broad:        c.Limits.Broad,
		Deduped:      c.Limits.Deduped,
		Hierarchical: c.Limits.Hierarchical,
		Final:        c.Limits.Final,
	}
}

// Duration converts a millisecond setting.
func Duration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
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
