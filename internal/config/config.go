// Package config loads and validates the engine configuration: the
// indicator universe, category weights, SLA tables, and the thresholds
// of the regime, signal, and divergence components.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pxilabs/pxi/internal/composite"
	"github.com/pxilabs/pxi/internal/divergence"
	"github.com/pxilabs/pxi/internal/domain"
	"github.com/pxilabs/pxi/internal/ingest"
	"github.com/pxilabs/pxi/internal/regime"
	"github.com/pxilabs/pxi/internal/signal"
	"github.com/pxilabs/pxi/internal/sla"
)

// IndicatorConfig is the yaml shape of one indicator definition.
type IndicatorConfig struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Category  string `yaml:"category"`
	Source    string `yaml:"source"`
	Method    string `yaml:"method"`
	Inverted  bool   `yaml:"inverted"`
	Frequency string `yaml:"frequency"`
}

// DatabaseConfig points at the upsert store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig points at the snapshot cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ScheduleConfig holds the batch cron expressions.
type ScheduleConfig struct {
	Daily           string `yaml:"daily"`
	Intraday        string `yaml:"intraday"`
	IntradayEnabled bool   `yaml:"intraday_enabled"`
}

// Config is the full engine configuration.
type Config struct {
	LogLevel   string             `yaml:"log_level"`
	Database   DatabaseConfig     `yaml:"database"`
	Redis      RedisConfig        `yaml:"redis"`
	Schedule   ScheduleConfig     `yaml:"schedule"`
	Indicators []IndicatorConfig  `yaml:"indicators"`
	Weights    map[string]float64 `yaml:"weights"`
	SLA        sla.Tables         `yaml:"sla"`
	Regime     regime.Config      `yaml:"regime"`
	Signal     signal.Config      `yaml:"signal"`
	Divergence divergence.Config  `yaml:"divergence"`
	Ingest     ingest.GateConfig  `yaml:"ingest"`
}

// LoadFromFile reads, parses, and validates a yaml config.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the indicator universe and category weights.
func (c *Config) Validate() error {
	if len(c.Indicators) == 0 {
		return fmt.Errorf("no indicators configured")
	}
	seen := make(map[string]bool, len(c.Indicators))
	for _, ind := range c.Indicators {
		if ind.ID == "" {
			return fmt.Errorf("indicator with empty id")
		}
		if seen[ind.ID] {
			return fmt.Errorf("duplicate indicator id %s", ind.ID)
		}
		seen[ind.ID] = true
		if _, err := domain.ParseCategory(ind.Category); err != nil {
			return fmt.Errorf("indicator %s: %w", ind.ID, err)
		}
		if _, err := domain.ParseNormalizationMethod(ind.Method); err != nil {
			return fmt.Errorf("indicator %s: %w", ind.ID, err)
		}
	}
	return c.CategoryWeights().Validate()
}

// Definitions materializes the immutable indicator definitions keyed by id.
func (c *Config) Definitions() map[string]domain.IndicatorDefinition {
	defs := make(map[string]domain.IndicatorDefinition, len(c.Indicators))
	for _, ind := range c.Indicators {
		cat, _ := domain.ParseCategory(ind.Category)
		method, _ := domain.ParseNormalizationMethod(ind.Method)
		defs[ind.ID] = domain.IndicatorDefinition{
			ID:        ind.ID,
			Name:      ind.Name,
			Category:  cat,
			Source:    ind.Source,
			Method:    method,
			Inverted:  ind.Inverted,
			Frequency: domain.ParseFrequency(ind.Frequency),
		}
	}
	return defs
}

// CategoryWeights converts the yaml weight map to the typed weight set.
func (c *Config) CategoryWeights() composite.Weights {
	w := make(composite.Weights, len(c.Weights))
	for name, weight := range c.Weights {
		w[domain.Category(name)] = weight
	}
	return w
}
