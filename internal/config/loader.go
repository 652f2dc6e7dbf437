package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

const (
	envPrefix     = "PORTINSIGHT_"
	envConfigPath = envPrefix + "CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if PORTINSIGHT_CONFIG is set
//  3. env (prefix PORTINSIGHT_)
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(envConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// PORTINSIGHT_DB_PATH -> db_path. Keys are flat, so underscores are kept.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	switch {
	case c.DBPath == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.AnalysisPeriodDays <= 0:
		return fmt.Errorf("%w: analysis_period_days must be positive", ErrInvalidConfig)
	case c.MaxDurationHours < 0:
		return fmt.Errorf("%w: max_duration_hours must not be negative", ErrInvalidConfig)
	case c.GrowthMode != "joint" && c.GrowthMode != "vessels":
		return fmt.Errorf("%w: growth_mode must be joint or vessels, got %q", ErrInvalidConfig, c.GrowthMode)
	case c.BackfillWorkers <= 0:
		return fmt.Errorf("%w: backfill_workers must be positive", ErrInvalidConfig)
	}

	sum := c.WeightTradeVolume + c.WeightEfficiency + c.WeightGrowthPotential
	if c.WeightTradeVolume < 0 || c.WeightEfficiency < 0 || c.WeightGrowthPotential < 0 || math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("%w: score weights must be non-negative and sum to 1, got %v", ErrInvalidConfig, sum)
	}

	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return fmt.Errorf("%w: schedule %q: %w", ErrInvalidConfig, c.Schedule, err)
	}
	return nil
}
