package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if ROTA_CONFIG is set
//  3. env (prefix ROTA_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("ROTA_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: ROTA_DATABASE_PATH, ROTA_TIME_LIMIT_SECONDS, ...
	// Map env keys like ROTA_LEAD_DAYS -> lead_days (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("ROTA_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "rota_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("%w: database_path must not be empty", ErrInvalidConfig)
	}
	if cfg.TimeLimitSeconds <= 0 {
		return nil, fmt.Errorf("%w: time_limit_seconds must be positive", ErrInvalidConfig)
	}
	if cfg.HorizonWeeks <= 0 {
		return nil, fmt.Errorf("%w: horizon_weeks must be positive", ErrInvalidConfig)
	}
	if cfg.LeadDays < 0 {
		return nil, fmt.Errorf("%w: lead_days must not be negative", ErrInvalidConfig)
	}
	return &cfg, nil
}
