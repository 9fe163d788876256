package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nsxbet/sql-optimizer/pkg/types"
)

// RuleLevel switches a rule on or off.
type RuleLevel string

const (
	RuleLevelEnabled  RuleLevel = "ENABLED"
	RuleLevelDisabled RuleLevel = "DISABLED"
)

// Config represents the configuration of the optimizer
type Config struct {
	ID      string        `yaml:"id"      json:"id"`
	Dialect types.Dialect `yaml:"dialect" json:"dialect"`
	// Strict adds ANTLR grammar validation for MySQL and PostgreSQL.
	Strict      bool          `yaml:"strict"      json:"strict"`
	Parallelism int           `yaml:"parallelism" json:"parallelism"`
	Rules       []*RuleConfig `yaml:"rules"       json:"rules"`
	Server      ServerConfig  `yaml:"server"      json:"server"`
	Cache       CacheConfig   `yaml:"cache"       json:"cache"`
	Log         LogConfig     `yaml:"log"         json:"log"`
}

// RuleConfig configures one rule.
type RuleConfig struct {
	Type  string    `yaml:"type"  json:"type"`
	Level RuleLevel `yaml:"level" json:"level"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `yaml:"addr"            json:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	// MaxBodyBytes bounds the size of a request body.
	MaxBodyBytes int64 `yaml:"max_body_bytes" json:"max_body_bytes"`
}

// CacheConfig configures the Redis result cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"     json:"enabled"`
	Addr       string `yaml:"addr"        json:"addr"`
	Password   string `yaml:"password"    json:"password"`
	DB         int    `yaml:"db"          json:"db"`
	TTLSeconds int    `yaml:"ttl_seconds" json:"ttl_seconds"`
	Prefix     string `yaml:"prefix"      json:"prefix"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level"  json:"level"`
	Format string `yaml:"format" json:"format"`
	// File enables rotated file output in addition to stderr.
	File       string `yaml:"file"         json:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"  json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"  json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
}

// Defaults.
const (
	DefaultAddr         = ":8000"
	DefaultOrigin       = "http://localhost:3000"
	DefaultMaxBodyBytes = 1 << 20
	DefaultCacheAddr    = "localhost:6379"
	DefaultCacheTTL     = 3600
	DefaultCachePrefix  = "sql-optimizer:"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
)

// LoadFromFile loads configuration from a file
func LoadFromFile(filename string) (*Config, error) {
	slog.Debug("Loading config from file", "filename", filename)
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", filename)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", filename)
	}
	slog.Debug("Loaded config", "rules_count", len(cfg.Rules))
	return cfg, nil
}

// Parse decodes a YAML or JSON document and fills in defaults.
func Parse(data []byte) (*Config, error) {
	var config Config

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, &config); err != nil {
		slog.Debug("YAML unmarshal failed", "error", err)
		config = Config{}
		if jsonErr := json.Unmarshal(data, &config); jsonErr != nil {
			return nil, errors.Wrap(err, "neither YAML nor JSON")
		}
	}

	for i, rule := range config.Rules {
		if rule == nil || strings.TrimSpace(rule.Type) == "" {
			return nil, errors.Errorf("rule #%d has no type", i+1)
		}
		rule.Level = RuleLevel(strings.ToUpper(string(rule.Level)))
		switch rule.Level {
		case "":
			rule.Level = RuleLevelEnabled
		case RuleLevelEnabled, RuleLevelDisabled:
		default:
			return nil, errors.Errorf("rule %s has unknown level %q", rule.Type, rule.Level)
		}
	}
	config.applyDefaults()
	return &config, nil
}

// DefaultConfig returns a default configuration
func DefaultConfig(id string) *Config {
	config := &Config{
		ID:    id,
		Rules: []*RuleConfig{},
	}
	config.applyDefaults()
	return config
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{DefaultOrigin}
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Cache.Addr == "" {
		c.Cache.Addr = DefaultCacheAddr
	}
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = DefaultCacheTTL
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = DefaultCachePrefix
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// DisabledRules returns the types of the rules switched off.
func (c *Config) DisabledRules() []string {
	var out []string
	for _, rule := range c.Rules {
		if rule.Level == RuleLevelDisabled {
			out = append(out, rule.Type)
		}
	}
	return out
}

// Validate checks that every configured rule is one of known.
func (c *Config) Validate(known []string) error {
	set := make(map[string]bool, len(known))
	for _, k := range known {
		set[k] = true
	}
	var unknown []string
	for _, rule := range c.Rules {
		if !set[rule.Type] {
			unknown = append(unknown, rule.Type)
		}
	}
	if len(unknown) > 0 {
		return errors.Errorf("unknown rule types: %s", strings.Join(unknown, ", "))
	}
	if c.Parallelism < 0 {
		return errors.Errorf("parallelism must not be negative, got %d", c.Parallelism)
	}
	return nil
}

// FindFile returns the first existing default config file, or "" when there is none.
func FindFile() string {
	candidates := []string{
		".sql-optimizer.yaml",
		".sql-optimizer.yml",
		"config/sql-optimizer.yaml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, home+"/.sql-optimizer.yaml")
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
