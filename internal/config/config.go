// Package config loads the settings shared by the marketctl client and the stub service.
// Values are layered: built-in defaults, then a .env file, then an optional TOML file,
// then environment variables, each layer overriding the previous one.
package config

import (
	"log"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL        = "http://localhost:3030/api"
	DefaultLogLevel      = "info"
	DefaultRunAddress    = "0.0.0.0:3030"
	DefaultPublicDir     = "public"
	DefaultSessionSecret = "supersecretkey"
)

// Config holds every setting. DatabaseURI left empty selects in-memory storage for the stub.
type Config struct {
	APIURL        string `toml:"api_url" env:"MARKET_API_URL"`
	LogLevel      string `toml:"log_level" env:"LOG_LEVEL"`
	Username      string `toml:"username" env:"MARKET_USERNAME"`
	Password      string `toml:"password" env:"MARKET_PASSWORD"`
	RunAddress    string `toml:"run_address" env:"STUB_RUN_ADDRESS"`
	DatabaseURI   string `toml:"database_uri" env:"DATABASE_URI"`
	SessionSecret string `toml:"session_secret" env:"SESSION_SECRET"`
	PublicDir     string `toml:"public_dir" env:"PUBLIC_DIR"`
	Debug         bool   `toml:"debug" env:"STUB_DEBUG"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		APIURL:        DefaultAPIURL,
		LogLevel:      DefaultLogLevel,
		RunAddress:    DefaultRunAddress,
		SessionSecret: DefaultSessionSecret,
		PublicDir:     DefaultPublicDir,
	}
}

// Load builds the configuration. A missing .env file is tolerated; path names an
// optional TOML file and is skipped when empty.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Println("Failed to read .env file:", err)
	}

	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
