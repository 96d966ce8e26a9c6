// Package config loads runtime configuration from environment variables.
package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the configuration for the conversion proxy
type Config struct {
	Port    int    `env:"PORT" env-default:"8369" env-description:"HTTP server port"`
	TempDir string `env:"TEMP_DIR" env-default:"/tmp/docbridge" env-description:"Directory for temporary conversion files"`

	UnstructuredURL string `env:"UNSTRUCTURED_URL" env-default:"http://localhost:8000" env-description:"unstructured-io base URL"`
	LibreOfficeURL  string `env:"LIBREOFFICE_URL" env-default:"http://localhost:2004" env-description:"LibreOffice (unoserver-web) base URL"`
	PandocURL       string `env:"PANDOC_URL" env-default:"http://localhost:3030" env-description:"pandoc-server base URL"`
	GotenbergURL    string `env:"GOTENBERG_URL" env-default:"http://localhost:3000" env-description:"Gotenberg base URL"`

	MaxFetchBytes  int64         `env:"MAX_FETCH_BYTES" env-default:"52428800" env-description:"Maximum size of a fetched or uploaded document"`
	FetchTimeout   time.Duration `env:"FETCH_TIMEOUT" env-default:"30s" env-description:"Timeout for downloading remote documents"`
	ConvertTimeout time.Duration `env:"CONVERT_TIMEOUT" env-default:"120s" env-description:"Timeout for a single backend conversion call"`

	RetryMaxAttempts   int           `env:"RETRY_MAX_ATTEMPTS" env-default:"3" env-description:"Attempts per backend call before falling back"`
	RetryBaseDelay     time.Duration `env:"RETRY_BASE_DELAY" env-default:"500ms" env-description:"Initial retry backoff delay"`
	RetryMaxDelay      time.Duration `env:"RETRY_MAX_DELAY" env-default:"30s" env-description:"Upper bound on retry backoff delay"`
	RetryBackoffFactor float64       `env:"RETRY_BACKOFF_FACTOR" env-default:"2.0" env-description:"Multiplier applied to the delay each attempt"`
	RetryJitter        bool          `env:"RETRY_JITTER" env-default:"true" env-description:"Randomize retry delays by ±25%"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s" env-description:"Grace period for in-flight requests on shutdown"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// WithPort sets the server port
func (c Config) WithPort(port int) Config {
	c.Port = port
	return c
}

// WithTempDir sets the temp file directory
func (c Config) WithTempDir(dir string) Config {
	c.TempDir = dir
	return c
}
