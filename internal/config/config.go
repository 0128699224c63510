// Package config provides configuration management for the strategy lab.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"options-lab/internal/payoff"
)

// Config holds all application configuration.
type Config struct {
	Pricing PricingConfig `mapstructure:"pricing"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PricingConfig holds the evaluator knobs. These are hoisted into explicit
// configuration instead of living as hardcoded module constants.
type PricingConfig struct {
	ContractMultiplier float64 `mapstructure:"contract_multiplier"`
	RiskFreeRate       float64 `mapstructure:"risk_free_rate"`
	GridSteps          int     `mapstructure:"grid_steps"`
	GridWidth          float64 `mapstructure:"grid_width"`
	PriceEpsilon       float64 `mapstructure:"price_epsilon"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-lab"
	}
	return filepath.Join(home, ".config", "options-lab")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	def := payoff.DefaultConfig()
	v.SetDefault("pricing.contract_multiplier", def.ContractMultiplier)
	v.SetDefault("pricing.risk_free_rate", def.RiskFreeRate)
	v.SetDefault("pricing.grid_steps", def.GridSteps)
	v.SetDefault("pricing.grid_width", def.GridWidth)
	v.SetDefault("pricing.price_epsilon", def.PriceEpsilon)
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "02-Jan-2006")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// First run: write a template, then continue on defaults.
			if werr := createTemplateConfig(configDir); werr != nil {
				return werr
			}
			return v.Unmarshal(target)
		}
		return err
	}
	return v.Unmarshal(target)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPTLAB_RISK_FREE_RATE"); v != "" {
		var rate float64
		if _, err := fmt.Sscanf(v, "%f", &rate); err == nil {
			cfg.Pricing.RiskFreeRate = rate
		}
	}
	if v := os.Getenv("OPTLAB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Pricing.ContractMultiplier <= 0 {
		return fmt.Errorf("contract_multiplier must be positive")
	}
	if c.Pricing.GridSteps < 2 {
		return fmt.Errorf("grid_steps must be at least 2")
	}
	if c.Pricing.GridWidth <= 0 || c.Pricing.GridWidth >= 1 {
		return fmt.Errorf("grid_width must be between 0 and 1")
	}
	if c.Pricing.PriceEpsilon <= 0 {
		return fmt.Errorf("price_epsilon must be positive")
	}
	if c.Pricing.RiskFreeRate < -0.05 || c.Pricing.RiskFreeRate > 0.5 {
		return fmt.Errorf("risk_free_rate %.4f is out of plausible range", c.Pricing.RiskFreeRate)
	}
	return nil
}

// EvaluatorConfig converts the pricing section into the evaluator's config.
func (c *Config) EvaluatorConfig() payoff.Config {
	return payoff.Config{
		ContractMultiplier: c.Pricing.ContractMultiplier,
		RiskFreeRate:       c.Pricing.RiskFreeRate,
		GridSteps:          c.Pricing.GridSteps,
		GridWidth:          c.Pricing.GridWidth,
		PriceEpsilon:       c.Pricing.PriceEpsilon,
	}
}
