package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the API process reads from the environment.
// Values come from real env vars or from a .env file loaded in main.
type Config struct {
	DatabaseDSN string `envconfig:"DB_DSN" required:"true"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	JWTSecret   string `envconfig:"JWT_SECRET" default:"dev-only-secret-change-me"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	GinMode     string `envconfig:"GIN_MODE" default:"debug"`
	CORSOrigin  string `envconfig:"CORS_ORIGIN" default:"http://localhost:3000"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
