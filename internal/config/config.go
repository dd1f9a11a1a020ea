// Package config loads phaseline.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joshharrison/phaseline/internal/cascade"
	"github.com/joshharrison/phaseline/internal/graph"
)

// DefaultPath is read when no --config flag is given and the file exists.
const DefaultPath = "phaseline.yaml"

// Advisor providers.
const (
	ProviderNone   = "none"
	ProviderClaude = "claude"
)

// Config is the on-disk configuration.
type Config struct {
	// Categories is the implicit sequencing table. Empty means the
	// built-in construction table.
	Categories []Category `yaml:"categories"`
	// ImplicitSequencing turns category-based edges on or off. Nil means on.
	ImplicitSequencing *bool `yaml:"implicit_sequencing"`

	Policy  PolicyConfig  `yaml:"policy"`
	Advisor AdvisorConfig `yaml:"advisor"`
	History HistoryConfig `yaml:"history"`
	Server  ServerConfig  `yaml:"server"`
}

// Category is one row of the sequencing table.
type Category struct {
	Name     string   `yaml:"name"`
	Order    int      `yaml:"order"`
	Keywords []string `yaml:"keywords"`
}

type PolicyConfig struct {
	HighDelayDays   int `yaml:"high_delay_days"`
	MediumDelayDays int `yaml:"medium_delay_days"`
	MaxMediumDepth  int `yaml:"max_medium_depth"`
}

type AdvisorConfig struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	Timeout      string `yaml:"timeout"`
	TemplatePath string `yaml:"template_path"`
	APIKeyEnv    string `yaml:"api_key_env"`
}

type HistoryConfig struct {
	Dir string `yaml:"dir"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if len(c.Categories) == 0 {
		for _, cat := range graph.DefaultCategories() {
			c.Categories = append(c.Categories, Category{Name: cat.Name, Order: cat.Order, Keywords: cat.Keywords})
		}
	}
	def := cascade.DefaultPolicy()
	if c.Policy.HighDelayDays == 0 {
		c.Policy.HighDelayDays = def.HighDelayDays
	}
	if c.Policy.MediumDelayDays == 0 {
		c.Policy.MediumDelayDays = def.MediumDelayDays
	}
	if c.Policy.MaxMediumDepth == 0 {
		c.Policy.MaxMediumDepth = def.MaxMediumDepth
	}
	if c.Advisor.Provider == "" {
		c.Advisor.Provider = ProviderNone
	}
	if c.Advisor.Timeout == "" {
		c.Advisor.Timeout = "20s"
	}
	if c.Advisor.APIKeyEnv == "" {
		c.Advisor.APIKeyEnv = "ANTHROPIC_API_KEY"
	}
	if c.History.Dir == "" {
		c.History.Dir = ".phaseline"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// Load reads a configuration file. An empty path loads DefaultPath if it
// exists and built-in defaults otherwise.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates YAML configuration.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges after defaults are applied.
func (c Config) Validate() error {
	var errs []error

	p := c.Policy
	if p.HighDelayDays < 1 || p.MediumDelayDays < 1 || p.MaxMediumDepth < 1 {
		errs = append(errs, errors.New("policy thresholds must be positive"))
	}
	if p.MediumDelayDays >= p.HighDelayDays {
		errs = append(errs, fmt.Errorf("policy.medium_delay_days (%d) must be below high_delay_days (%d)", p.MediumDelayDays, p.HighDelayDays))
	}

	for i, cat := range c.Categories {
		if cat.Name == "" {
			errs = append(errs, fmt.Errorf("categories[%d]: name is required", i))
		}
		if len(cat.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("categories[%d]: at least one keyword is required", i))
		}
	}

	switch c.Advisor.Provider {
	case "", ProviderNone, ProviderClaude:
	default:
		errs = append(errs, fmt.Errorf("advisor.provider %q is not one of none, claude", c.Advisor.Provider))
	}
	if _, err := time.ParseDuration(c.Advisor.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("advisor.timeout: %w", err))
	}

	return errors.Join(errs...)
}

// ToCategories returns the sequencing table for the graph builder. It is
// empty when implicit sequencing is disabled.
func (c Config) ToCategories() graph.Categories {
	if c.ImplicitSequencing != nil && !*c.ImplicitSequencing {
		return graph.Categories{}
	}
	out := make(graph.Categories, len(c.Categories))
	for i, cat := range c.Categories {
		out[i] = graph.Category{Name: cat.Name, Order: cat.Order, Keywords: cat.Keywords}
	}
	return out
}

// RiskPolicy returns the cascade thresholds.
func (c Config) RiskPolicy() cascade.Policy {
	return cascade.Policy{
		HighDelayDays:   c.Policy.HighDelayDays,
		MediumDelayDays: c.Policy.MediumDelayDays,
		MaxMediumDepth:  c.Policy.MaxMediumDepth,
	}
}

// AdvisorTimeout returns the parsed advisor timeout.
func (c Config) AdvisorTimeout() time.Duration {
	d, err := time.ParseDuration(c.Advisor.Timeout)
	if err != nil || d <= 0 {
		return 20 * time.Second
	}
	return d
}
