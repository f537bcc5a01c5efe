// Package config loads and validates the on-disk configuration for the
// indexer and search engine, following the teacher's shape: plain YAML
// tags, a Default(), a tolerant Load(), and a hand-written Validate().
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level on-disk configuration.
type Config struct {
	// DatabaseName overrides the default primary database filename
	// within the project root.
	DatabaseName string `yaml:"database_name"`

	Pragma  PragmaConfig  `yaml:"pragma"`
	Indexer IndexerConfig `yaml:"indexer"`
	Search  SearchConfig  `yaml:"search"`

	// IgnoreExtras are additional gitignore-style patterns applied by the
	// walker on top of the project root's own .gitignore. Only the root
	// .gitignore is read; .gitignore files in subdirectories are not.
	IgnoreExtras []string `yaml:"ignore_extras"`
}

// PragmaConfig mirrors spec §6's tuning knob table.
type PragmaConfig struct {
	JournalMode   string `yaml:"journal_mode"`
	Synchronous   string `yaml:"synchronous"`
	CacheSize     int    `yaml:"cache_size"`
	TempStore     string `yaml:"temp_store"`
	MmapSize      int64  `yaml:"mmap_size"`
	PageSize      int    `yaml:"page_size"`
	BusyTimeoutMs int    `yaml:"busy_timeout_ms"`
}

// IndexerConfig mirrors spec §4.5/§4.6's Walker/Indexer knobs.
type IndexerConfig struct {
	MaxFileSize    int64 `yaml:"max_file_size"`
	BatchSize      int   `yaml:"batch_size"`
	FollowSymlinks bool  `yaml:"follow_symlinks"`
}

// SearchConfig mirrors spec §4.8's Searcher knobs.
type SearchConfig struct {
	MaxResults int `yaml:"max_results"`
}

// defaultMmapSize follows spec §6: 0 on macOS, 256 MiB elsewhere.
func defaultMmapSize() int64 {
	if runtime.GOOS == "darwin" {
		return 0
	}
	return 256 * 1024 * 1024
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		DatabaseName: ".ffts-index.db",
		Pragma: PragmaConfig{
			JournalMode:   "WAL",
			Synchronous:   "NORMAL",
			CacheSize:     -32000,
			TempStore:     "MEMORY",
			MmapSize:      defaultMmapSize(),
			PageSize:      4096,
			BusyTimeoutMs: 5000,
		},
		Indexer: IndexerConfig{
			MaxFileSize:    1024 * 1024,
			BatchSize:      500,
			FollowSymlinks: false,
		},
		Search: SearchConfig{
			MaxResults: 15,
		},
	}
}

// Load reads a YAML config file at path, returning Default() if it does
// not exist, exactly like the teacher's Load.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration against spec §6's PragmaConfig
// constraints plus the Indexer/Search knobs.
func (c *Config) Validate() error {
	if c.DatabaseName == "" {
		return fmt.Errorf("database_name is required")
	}

	if err := c.Pragma.validate(); err != nil {
		return fmt.Errorf("invalid pragma config: %w", err)
	}

	if c.Indexer.MaxFileSize <= 0 {
		return fmt.Errorf("indexer.max_file_size must be positive")
	}
	if c.Indexer.BatchSize <= 0 {
		return fmt.Errorf("indexer.batch_size must be positive")
	}

	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive")
	}

	return nil
}

func (p *PragmaConfig) validate() error {
	switch strings.ToUpper(p.JournalMode) {
	case "WAL":
	default:
		return fmt.Errorf("journal_mode: only WAL is supported, got %q", p.JournalMode)
	}

	switch strings.ToUpper(p.Synchronous) {
	case "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return fmt.Errorf("synchronous: must be one of OFF, NORMAL, FULL, EXTRA, got %q", p.Synchronous)
	}

	if p.CacheSize > 0 {
		// positive = pages, any positive value accepted
	} else if p.CacheSize < -1000000 || p.CacheSize > -1000 {
		return fmt.Errorf("cache_size: negative value must be within -1000000..-1000 (KiB), got %d", p.CacheSize)
	}

	switch strings.ToUpper(p.TempStore) {
	case "DEFAULT", "FILE", "MEMORY":
	default:
		return fmt.Errorf("temp_store: must be one of DEFAULT, FILE, MEMORY, got %q", p.TempStore)
	}

	if p.MmapSize < 0 || p.MmapSize > 256*1024*1024 {
		return fmt.Errorf("mmap_size: must be within 0..256MiB, got %d", p.MmapSize)
	}

	if p.PageSize < 512 || p.PageSize > 65536 || p.PageSize&(p.PageSize-1) != 0 {
		return fmt.Errorf("page_size: must be a power of two within 512..65536, got %d", p.PageSize)
	}

	if p.BusyTimeoutMs < 0 {
		return fmt.Errorf("busy_timeout_ms: must be non-negative, got %d", p.BusyTimeoutMs)
	}

	return nil
}
