// Package config reads the application settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/mauv0809/valuedash/internal/valuation"
)

// Config holds every setting the server and the CLI need.
type Config struct {
	DatabaseURL  string
	Port         string
	NasdaqAPIKey string

	RootUsername string
	RootPassword string
	SessionTTL   time.Duration

	InflationRate float64
	CAGRBase      valuation.CAGRBase

	DefaultAssumptions valuation.Assumptions

	RatesBaseURL string
}

// AuthEnabled reports whether a dashboard password is configured.
func (c Config) AuthEnabled() bool {
	return c.RootPassword != ""
}

// Load reads a .env file if present and builds a Config from the
// environment.
func Load() (Config, error) {
	// Load .env file if it exists (local dev)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		Port:         getenv("PORT", "8080"),
		NasdaqAPIKey: os.Getenv("NASDAQ_API_KEY"),
		RootUsername: os.Getenv("ROOT_USERNAME"),
		RootPassword: os.Getenv("ROOT_PASSWORD"),
		RatesBaseURL: getenv("RATES_BASE_URL", "https://www.x-rates.com"),
	}

	var errs []error
	var err error

	if cfg.SessionTTL, err = time.ParseDuration(getenv("SESSION_TTL", "1h")); err != nil {
		errs = append(errs, fmt.Errorf("SESSION_TTL: %w", err))
	}
	if cfg.InflationRate, err = strconv.ParseFloat(getenv("INFLATION_RATE", strconv.FormatFloat(valuation.DefaultInflationRate, 'f', -1, 64)), 64); err != nil {
		errs = append(errs, fmt.Errorf("INFLATION_RATE: %w", err))
	}
	if cfg.CAGRBase, err = valuation.ParseCAGRBase(os.Getenv("CAGR_BASE")); err != nil {
		errs = append(errs, fmt.Errorf("CAGR_BASE: %w", err))
	}

	if cfg.DefaultAssumptions.GrowthRate, err = strconv.ParseFloat(getenv("DEFAULT_GROWTH_RATE", "0"), 64); err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_GROWTH_RATE: %w", err))
	}
	if cfg.DefaultAssumptions.Years, err = strconv.Atoi(getenv("DEFAULT_YEARS", "10")); err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_YEARS: %w", err))
	}
	if cfg.DefaultAssumptions.SafetyMargin, err = strconv.ParseFloat(getenv("DEFAULT_SAFETY_MARGIN", "0.25"), 64); err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_SAFETY_MARGIN: %w", err))
	}
	if len(errs) == 0 {
		if err := cfg.DefaultAssumptions.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("default assumptions: %w", err))
		}
	}

	return cfg, errors.Join(errs...)
}

// EngineOptions returns the valuation engine options this config selects.
func (c Config) EngineOptions() []valuation.Option {
	return []valuation.Option{
		valuation.WithInflationRate(c.InflationRate),
		valuation.WithCAGRBase(c.CAGRBase),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
