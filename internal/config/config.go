package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Store backends
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Restore policies
const (
	PolicyPrompt = "prompt"
	PolicyAuto   = "auto"
)

// Config is the full drafts configuration
type Config struct {
	Store      Store      `mapstructure:"store" toml:"store"`
	Draft      Draft      `mapstructure:"draft" toml:"draft"`
	Retention  Retention  `mapstructure:"retention" toml:"retention"`
	Log        Log        `mapstructure:"log" toml:"log"`
	Embeddings Embeddings `mapstructure:"embeddings" toml:"embeddings"`
	Search     Search     `mapstructure:"search" toml:"search"`
}

// Store selects and locates the key-value backend
type Store struct {
	Backend     string `mapstructure:"backend" toml:"backend"`
	Dir         string `mapstructure:"dir" toml:"dir"`
	SQLitePath  string `mapstructure:"sqlite_path" toml:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn" toml:"postgres_dsn,omitempty"`
}

// Draft holds auto-save behaviour
type Draft struct {
	Debounce      time.Duration `mapstructure:"debounce" toml:"debounce"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout" toml:"write_timeout"`
	RestorePolicy string        `mapstructure:"restore_policy" toml:"restore_policy"`
}

// Retention controls prune
type Retention struct {
	Days             int      `mapstructure:"days" toml:"days"`
	PreservePrefixes []string `mapstructure:"preserve_prefixes" toml:"preserve_prefixes"`
}

// Log configures the zap logger
type Log struct {
	Level  string `mapstructure:"level" toml:"level"`
	Format string `mapstructure:"format" toml:"format"`
}

// Embeddings configures semantic search
type Embeddings struct {
	Enabled   bool   `mapstructure:"enabled" toml:"enabled"`
	Model     string `mapstructure:"model" toml:"model"`
	OllamaURL string `mapstructure:"ollama_url" toml:"ollama_url"`
}

// Search weights for hybrid scoring
type Search struct {
	KeywordWeight  float64 `mapstructure:"keyword_weight" toml:"keyword_weight"`
	SemanticWeight float64 `mapstructure:"semantic_weight" toml:"semantic_weight"`
}

// Dir returns the default configuration directory
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "drafts"), nil
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper, dataDir string) {
	v.SetDefault("store.backend", BackendFile)
	v.SetDefault("store.dir", filepath.Join(dataDir, "store"))
	v.SetDefault("store.sqlite_path", filepath.Join(dataDir, "drafts.db"))
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("draft.debounce", time.Second)
	v.SetDefault("draft.write_timeout", 5*time.Second)
	v.SetDefault("draft.restore_policy", PolicyPrompt)
	v.SetDefault("retention.days", 30)
	v.SetDefault("retention.preserve_prefixes", []string{})
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("embeddings.enabled", false)
	v.SetDefault("embeddings.model", "nomic-embed-text")
	v.SetDefault("embeddings.ollama_url", "http://localhost:11434")
	v.SetDefault("search.keyword_weight", 0.3)
	v.SetDefault("search.semantic_weight", 0.7)
}

// Default returns the configuration produced by the defaults alone
func Default(dataDir string) (*Config, error) {
	v := viper.New()
	SetDefaults(v, dataDir)
	return Load(v)
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	cfg.Draft.RestorePolicy = strings.ToLower(strings.TrimSpace(cfg.Draft.RestorePolicy))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the commands cannot run with
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile:
		if strings.TrimSpace(c.Store.Dir) == "" {
			return fmt.Errorf("store.dir is required for the file backend")
		}
	case BackendSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite backend")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.Store.PostgresDSN) == "" {
			return fmt.Errorf("store.postgres_dsn is required for the postgres backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid store.backend: %s (must be: file, memory, sqlite, postgres)", c.Store.Backend)
	}
	if c.Draft.Debounce <= 0 {
		return fmt.Errorf("draft.debounce must be positive, got %s", c.Draft.Debounce)
	}
	if c.Draft.WriteTimeout <= 0 {
		return fmt.Errorf("draft.write_timeout must be positive, got %s", c.Draft.WriteTimeout)
	}
	switch c.Draft.RestorePolicy {
	case PolicyPrompt, PolicyAuto:
	default:
		return fmt.Errorf("invalid draft.restore_policy: %s (must be: prompt, auto)", c.Draft.RestorePolicy)
	}
	if c.Retention.Days < 0 {
		return fmt.Errorf("retention.days cannot be negative")
	}
	return nil
}

// RetentionCutoff returns the save time before which unpreserved drafts are pruned
func (c *Config) RetentionCutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -c.Retention.Days)
}

// ShouldPreserve checks if a draft key matches a preserve prefix
func (c *Config) ShouldPreserve(key string) bool {
	for _, prefix := range c.Retention.PreservePrefixes {
		if prefix != "" && strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
