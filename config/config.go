package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"cryptoalert/auth"
)

const (
	LocalBaseURL  = "http://localhost:8000/api"
	RemoteBaseURL = "https://api.cryptoalert.app/api"
)

type Config struct {
	APIURL         string        `env:"API_URL"`
	Env            string        `env:"ENV,             default=production"`
	LogLevel       string        `env:"LOG_LEVEL,       default=info"`
	LogFile        string        `env:"LOG_FILE"`
	ConfigDir      string        `env:"CONFIG_DIR"`
	PollInterval   time.Duration `env:"POLL_INTERVAL,   default=30s"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT, default=30s"`
	StrictLogin    bool          `env:"STRICT_LOGIN,    default=false"`
}

// Load reads CRYPTOALERT_* variables from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper("CRYPTOALERT_", lookuper),
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}

	if cfg.ConfigDir == "" {
		dir, err := auth.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		cfg.ConfigDir = dir
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.ConfigDir, "cryptoalert.log")
	}
	return &cfg, nil
}

// Local reports whether the client targets a backend on this machine.
func (c *Config) Local() bool {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "development", "dev", "local":
		return true
	}
	return false
}

// BaseURL is the explicit API_URL, else the localhost default in a local
// environment, else the hosted backend.
func (c *Config) BaseURL() string {
	if u := strings.TrimSpace(c.APIURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	if c.Local() {
		return LocalBaseURL
	}
	return RemoteBaseURL
}
