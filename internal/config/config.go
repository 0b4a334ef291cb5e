// Package config merges built-in defaults, the .scanline.yml file at
// the scan root, and command-line flags (flags win).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Run modes.
const (
	ModeAudit   = "audit"
	ModeWarn    = "warn"
	ModeEnforce = "enforce"
)

// Output formats.
const (
	FormatTable  = "table"
	FormatJSON   = "json"
	FormatSARIF  = "sarif"
	FormatGitHub = "github"
)

// fileName is the per-project configuration file at the scan root.
const fileName = ".scanline.yml"

// Config is the merged run configuration.
type Config struct {
	Extensions         []string
	Concurrency        int
	CacheEnabled       bool
	StreamingThreshold int64
	Mode               string
	Format             string
	RulesDB            string
	BaselineFile       string
	Overrides          map[string]string
	Ignores            []string
}

// fileConfig is the .scanline.yml shape. Cache is a pointer so an
// explicit "cache: false" is distinguishable from the key being absent.
type fileConfig struct {
	Extensions         []string          `yaml:"extensions"`
	Concurrency        int               `yaml:"concurrency"`
	Cache              *bool             `yaml:"cache"`
	StreamingThreshold int64             `yaml:"streamingThreshold"`
	Mode               string            `yaml:"mode"`
	Format             string            `yaml:"format"`
	RulesDB            string            `yaml:"rulesDb"`
	BaselineFile       string            `yaml:"baselineFile"`
	Overrides          map[string]string `yaml:"rules"`
	Ignores            []string          `yaml:"ignore"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Extensions:         []string{"go", "js", "jsx", "ts", "tsx", "py", "rb", "java", "c", "cc", "cpp", "h", "cs", "php", "rs", "sh"},
		Concurrency:        runtime.NumCPU(),
		CacheEnabled:       true,
		StreamingThreshold: 1 << 20, // 1 MiB
		Mode:               ModeWarn,
		Format:             FormatTable,
	}
}

// Load merges the defaults with .scanline.yml under root, if present.
// A missing file is fine; a malformed one is an error.
func Load(root string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(root, fileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.merge(&file)
	return cfg, nil
}

// merge overlays explicitly set fields from file onto cfg.
func (c *Config) merge(file *fileConfig) {
	if len(file.Extensions) > 0 {
		c.Extensions = file.Extensions
	}
	if file.Concurrency > 0 {
		c.Concurrency = file.Concurrency
	}
	if file.Cache != nil {
		c.CacheEnabled = *file.Cache
	}
	if file.StreamingThreshold > 0 {
		c.StreamingThreshold = file.StreamingThreshold
	}
	if file.Mode != "" {
		c.Mode = file.Mode
	}
	if file.Format != "" {
		c.Format = file.Format
	}
	if file.RulesDB != "" {
		c.RulesDB = file.RulesDB
	}
	if file.BaselineFile != "" {
		c.BaselineFile = file.BaselineFile
	}
	if len(file.Overrides) > 0 {
		c.Overrides = file.Overrides
	}
	if len(file.Ignores) > 0 {
		c.Ignores = file.Ignores
	}
}

// Validate checks the enum-valued fields.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeAudit, ModeWarn, ModeEnforce:
	default:
		return fmt.Errorf("unknown mode %q (want audit, warn, or enforce)", c.Mode)
	}
	switch c.Format {
	case FormatTable, FormatJSON, FormatSARIF, FormatGitHub:
	default:
		return fmt.Errorf("unknown format %q (want table, json, sarif, or github)", c.Format)
	}
	return nil
}

// ExtensionSet returns the extension filter as a lookup set, keys
// without the leading dot.
func (c *Config) ExtensionSet() map[string]bool {
	set := make(map[string]bool, len(c.Extensions))
	for _, e := range c.Extensions {
		set[e] = true
	}
	return set
}
