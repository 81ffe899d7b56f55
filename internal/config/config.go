package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Defaults
const (
	DefaultMinFragmentLength = 50
	DefaultRRFConstant       = 60.0
	DefaultHalfLifeDays      = 7
	DefaultSearchLimit       = 5
	DefaultOllamaURL         = "http://localhost:11434"
	DefaultEmbeddingModel    = "nomic-embed-text"
	DefaultEmbeddingProvider = "ollama"
	DefaultCacheSize         = 10000
	DefaultCacheTTLMinutes   = 60
)

// Config holds all runtime settings
type Config struct {
	DBPath            string  `json:"db_path"`
	MinFragmentLength int     `json:"min_fragment_length"`
	RRFConstant       float64 `json:"rrf_constant"`
	HalfLifeDays      int     `json:"half_life_days"`
	SearchLimit       int     `json:"search_limit"`
	EmbeddingProvider string  `json:"embedding_provider"`
	EmbeddingModel    string  `json:"embedding_model"`
	OllamaURL         string  `json:"ollama_url"`
	CacheSize         int     `json:"cache_size"`
	CacheTTLMinutes   int     `json:"cache_ttl_minutes"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		DBPath:            defaultDBPath(),
		MinFragmentLength: DefaultMinFragmentLength,
		RRFConstant:       DefaultRRFConstant,
		HalfLifeDays:      DefaultHalfLifeDays,
		SearchLimit:       DefaultSearchLimit,
		EmbeddingProvider: DefaultEmbeddingProvider,
		EmbeddingModel:    DefaultEmbeddingModel,
		OllamaURL:         DefaultOllamaURL,
		CacheSize:         DefaultCacheSize,
		CacheTTLMinutes:   DefaultCacheTTLMinutes,
	}
}

// defaultDBPath resolves ~/.engram/memory.db, falling back to the working
// directory when the home directory is unknown
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "memory.db"
	}
	return filepath.Join(home, ".engram", "memory.db")
}

// DefaultConfigPath resolves ~/.engram/config.json
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(home, ".engram", "config.json")
}

// Load builds the effective configuration: defaults, overlaid by the JSON
// file at path if it exists, overlaid by ENGRAM_* environment variables.
// A missing or corrupt config file silently yields defaults; a bad config
// must never prevent startup.
func Load(path string) Config {
	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		var fileCfg Config
		if err := json.Unmarshal(data, &fileCfg); err == nil {
			cfg.merge(fileCfg)
		}
	}

	cfg.applyEnv()
	cfg.clamp()
	return cfg
}

// merge overlays non-zero fields from other
func (c *Config) merge(other Config) {
	if other.DBPath != "" {
		c.DBPath = other.DBPath
	}
	if other.MinFragmentLength > 0 {
		c.MinFragmentLength = other.MinFragmentLength
	}
	if other.RRFConstant > 0 {
		c.RRFConstant = other.RRFConstant
	}
	if other.HalfLifeDays > 0 {
		c.HalfLifeDays = other.HalfLifeDays
	}
	if other.SearchLimit > 0 {
		c.SearchLimit = other.SearchLimit
	}
	if other.EmbeddingProvider != "" {
		c.EmbeddingProvider = other.EmbeddingProvider
	}
	if other.EmbeddingModel != "" {
		c.EmbeddingModel = other.EmbeddingModel
	}
	if other.OllamaURL != "" {
		c.OllamaURL = other.OllamaURL
	}
	if other.CacheSize > 0 {
		c.CacheSize = other.CacheSize
	}
	if other.CacheTTLMinutes > 0 {
		c.CacheTTLMinutes = other.CacheTTLMinutes
	}
}

// applyEnv overlays ENGRAM_* environment variables
func (c *Config) applyEnv() {
	if v := os.Getenv("ENGRAM_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("ENGRAM_MIN_FRAGMENT_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MinFragmentLength = n
		}
	}
	if v := os.Getenv("ENGRAM_HALF_LIFE_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.HalfLifeDays = n
		}
	}
	if v := os.Getenv("ENGRAM_SEARCH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.SearchLimit = n
		}
	}
	if v := os.Getenv("ENGRAM_EMBEDDING_PROVIDER"); v != "" {
		c.EmbeddingProvider = v
	}
	if v := os.Getenv("ENGRAM_EMBEDDING_MODEL"); v != "" {
		c.EmbeddingModel = v
	}
	if v := os.Getenv("ENGRAM_OLLAMA_URL"); v != "" {
		c.OllamaURL = v
	}
	if v := os.Getenv("ENGRAM_CACHE_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.CacheTTLMinutes = n
		}
	}
}

// clamp keeps derived values inside sane bounds
func (c *Config) clamp() {
	if c.SearchLimit > 100 {
		c.SearchLimit = 100
	}
}

// HalfLife returns the recency decay half-life as a duration
func (c Config) HalfLife() time.Duration {
	return time.Duration(c.HalfLifeDays) * 24 * time.Hour
}

// CacheTTL returns how long cached search responses stay valid
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}
