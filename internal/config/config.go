package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Events     EventsConfig     `yaml:"events"`
	Simulation SimulationConfig `yaml:"simulation"`
	Site       SiteConfig       `yaml:"site"`
	Risk       RiskConfig       `yaml:"risk"`
	IRR        IRRConfig        `yaml:"irr"`
	Engine     EngineConfig     `yaml:"engine"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type EventsConfig struct {
	URL string `yaml:"url"`
}

type SimulationConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// SiteConfig is the per-site configuration: the fixed set of return periods
// damages are computed at, the default discount rate, and the income data
// used for equity weighting.
type SiteConfig struct {
	ReturnPeriods []float64    `yaml:"return_periods"`
	DiscountRate  float64      `yaml:"discount_rate"`
	Equity        EquityConfig `yaml:"equity"`
}

type EquityConfig struct {
	Elasticity        float64  `yaml:"elasticity"`
	AggregationLevels []string `yaml:"aggregation_levels"`
}

// RiskConfig selects the interpolation mode and the two tail-extrapolation
// rules for risk integration. Both tails accept "hold" or "zero".
type RiskConfig struct {
	FrequentTail  string `yaml:"frequent_tail"`
	RareTail      string `yaml:"rare_tail"`
	Interpolation string `yaml:"interpolation"`
}

type IRRConfig struct {
	MinRate       float64 `yaml:"min_rate"`
	MaxRate       float64 `yaml:"max_rate"`
	MaxIterations int     `yaml:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance"`
}

type EngineConfig struct {
	SweepIntervalMs int `yaml:"sweep_interval_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Engine.SweepIntervalMs) * time.Millisecond
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		Events: EventsConfig{
			URL: "nats://localhost:4222",
		},
		Simulation: SimulationConfig{
			URL: "http://localhost:8710",
		},
		Site: SiteConfig{
			ReturnPeriods: []float64{1, 2, 5, 10, 25, 50, 100, 500},
			DiscountRate:  0.03,
			Equity: EquityConfig{
				Elasticity:        1.0,
				AggregationLevels: []string{"census_tract"},
			},
		},
		Risk: RiskConfig{
			FrequentTail:  "hold",
			RareTail:      "hold",
			Interpolation: "log",
		},
		IRR: IRRConfig{
			MinRate:       -0.5,
			MaxRate:       10.0,
			MaxIterations: 200,
			Tolerance:     1e-7,
		},
		Engine: EngineConfig{
			SweepIntervalMs: 5000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Site.ReturnPeriods) < 2 {
		return fmt.Errorf("site needs at least 2 return periods, got %d", len(c.Site.ReturnPeriods))
	}
	for _, t := range c.Site.ReturnPeriods {
		if t <= 0 {
			return fmt.Errorf("return periods must be positive, got %g", t)
		}
	}
	if c.Site.DiscountRate < 0 || c.Site.DiscountRate >= 1 {
		return fmt.Errorf("discount rate must be in [0, 1), got %g", c.Site.DiscountRate)
	}
	for _, tail := range []string{c.Risk.FrequentTail, c.Risk.RareTail} {
		if tail != "hold" && tail != "zero" {
			return fmt.Errorf("tail rule must be hold or zero, got %q", tail)
		}
	}
	if c.Risk.Interpolation != "log" && c.Risk.Interpolation != "linear" {
		return fmt.Errorf("interpolation must be log or linear, got %q", c.Risk.Interpolation)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FLOODRISK_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("FLOODRISK_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("FLOODRISK_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("FLOODRISK_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("FLOODRISK_EVENTS_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("FLOODRISK_SIMULATION_URL"); v != "" {
		cfg.Simulation.URL = v
	}
	if v := os.Getenv("FLOODRISK_SIMULATION_TOKEN"); v != "" {
		cfg.Simulation.Token = v
	}
	if v := os.Getenv("FLOODRISK_DISCOUNT_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Site.DiscountRate = f
		}
	}
	if v := os.Getenv("FLOODRISK_SWEEP_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.SweepIntervalMs = n
		}
	}
	if v := os.Getenv("FLOODRISK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
