// Package config loads the settings of a contract test run from an optional .env file and the
// environment. Command-line flags take their defaults from here.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is the prefix of every environment variable that Load reads.
const EnvPrefix = "CRUD_CONTRACT_"

// DefaultEnvFile is the .env file that Load reads if it exists.
const DefaultEnvFile = ".env"

// Config holds the settings for a run. Each field can be set with EnvPrefix plus its env tag.
type Config struct {
	BaseURL    string `env:"BASE_URL"    envDefault:"https://dummyjson.com"`
	StatusPath string `env:"STATUS_PATH" envDefault:"/test"`

	// Resources limits the run to the named kinds. Empty means all of them.
	Resources []string `env:"RESOURCES" envSeparator:","`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	ServiceTimeout time.Duration `env:"SERVICE_TIMEOUT" envDefault:"10s"`
	RateLimit      float64       `env:"RATE_LIMIT"      envDefault:"5"`
	RateBurst      int           `env:"RATE_BURST"      envDefault:"1"`

	RedactFields []string `env:"REDACT_FIELDS" envSeparator:"," envDefault:"password"`

	Host string `env:"HOST" envDefault:"localhost"`
	Port int    `env:"PORT" envDefault:"8111"`

	JUnitFile      string `env:"JUNIT_FILE"`
	ReportFile     string `env:"REPORT_FILE"`
	RecordFailures string `env:"RECORD_FAILURES"`
	RedisURL       string `env:"REDIS_URL"`
	RedisChannel   string `env:"REDIS_CHANNEL"`
	PushgatewayURL string `env:"PUSHGATEWAY_URL"`
	OTelEndpoint   string `env:"OTEL_ENDPOINT"`

	// Mock, if set to "loose" or "strict", runs against the built-in mock API instead of BaseURL.
	Mock string `env:"MOCK"`
}

// Load reads envFile, if it exists, and then the process environment, which takes precedence.
// An empty envFile means DefaultEnvFile.
func Load(envFile string) (Config, error) {
	return load(envFile, os.Environ())
}

func load(envFile string, environ []string) (Config, error) {
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	vars, err := godotenv.Read(envFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
		vars = make(map[string]string)
	}
	for k, v := range env.ToMap(environ) {
		vars[k] = v
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix, Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
