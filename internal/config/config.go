// Package config holds the wireplan CLI configuration.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the CLI configuration. Flags override what Load reads from the environment.
type Config struct {
	// DeclFile is the declaration document written by the extractor.
	DeclFile string
	// OutFile receives the plan as JSON; "-" means stdout.
	OutFile string
	// MetricsFile, when set, receives Prometheus text-format metrics on exit.
	MetricsFile string
	// Watch keeps running and re-resolves whenever DeclFile changes.
	Watch    bool
	Debounce time.Duration

	Log LogConfig
}

type LogConfig struct {
	Level       string // debug | info | warn | error
	Development bool
}

// Load reads .env (if present) and populates a Config from WIREPLAN_* variables.
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env is optional.
	_ = godotenv.Load(files...)

	return &Config{
		DeclFile:    env("WIREPLAN_DECL_FILE", "wireplan.yaml"),
		OutFile:     env("WIREPLAN_OUT_FILE", "-"),
		MetricsFile: env("WIREPLAN_METRICS_FILE", ""),
		Watch:       envBool("WIREPLAN_WATCH", false),
		Debounce:    envDuration("WIREPLAN_WATCH_DEBOUNCE", 250*time.Millisecond),
		Log: LogConfig{
			Level:       env("WIREPLAN_LOG_LEVEL", "info"),
			Development: envBool("WIREPLAN_LOG_DEVELOPMENT", false),
		},
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
