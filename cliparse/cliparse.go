// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// MemoryURL selects the in-memory store.
const MemoryURL = "memory://"

type Config struct {
	Port           int           `yaml:"port"`
	DatabaseURL    string        `yaml:"database_url"`
	JWTSecret      string        `yaml:"jwt_secret"`
	BaseURL        string        `yaml:"base_url"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	NATSURL        string        `yaml:"nats_url"`
	DurableTimers  bool          `yaml:"durable_timers"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	LogLevel       string        `yaml:"log_level"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps"`
	RateLimitBurst int           `yaml:"rate_limit_burst"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Port:           3318,
		BaseURL:        "http://localhost:5173",
		RequestTimeout: 10 * time.Second,
		LogLevel:       "INFO",
		RateLimitRPS:   5,
		RateLimitBurst: 10,
	}
}

// UsesMemory reports whether the in-memory store is selected.
func (c Config) UsesMemory() bool {
	return c.DatabaseURL == MemoryURL
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DatabaseURL == "" {
		return errors.New("database URL required (use --database-url or DATABASE_URL env)")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET required")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return errors.New("rate limit must allow at least one request")
	}
	if c.DurableTimers && c.UsesMemory() {
		return errors.New("durable timers require a PostgreSQL database")
	}
	return nil
}

// Flags are the global flags shared by every command. Each falls back to an
// environment variable.
func Flags() []cli.Flag {
	d := Defaults()
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file", EnvVars: []string{"CONFIG_FILE"}},
		&cli.StringFlag{Name: "env-file", Usage: ".env file to load", Value: ".env"},
		&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "server port", EnvVars: []string{"PORT"}, Value: d.Port},
		&cli.StringFlag{Name: "database-url", Aliases: []string{"d"}, Usage: "PostgreSQL URL, or memory://", EnvVars: []string{"DATABASE_URL"}},
		&cli.StringFlag{Name: "jwt-secret", Usage: "admin token signing secret (prefer env)", EnvVars: []string{"JWT_SECRET"}},
		&cli.StringFlag{Name: "base-url", Usage: "public frontend URL for share and invite links", EnvVars: []string{"BASE_URL"}, Value: d.BaseURL},
		&cli.StringSliceFlag{Name: "cors-origin", Usage: "allowed CORS origin (repeatable)", EnvVars: []string{"CORS_ORIGINS"}},
		&cli.StringFlag{Name: "nats-url", Usage: "NATS URL for the live feed; empty keeps it in process", EnvVars: []string{"NATS_URL"}},
		&cli.BoolFlag{Name: "durable-timers", Usage: "keep vote deadlines in PostgreSQL with River", EnvVars: []string{"DURABLE_TIMERS"}},
		&cli.DurationFlag{Name: "request-timeout", Usage: "per-request timeout", EnvVars: []string{"REQUEST_TIMEOUT"}, Value: d.RequestTimeout},
		&cli.StringFlag{Name: "log-level", Usage: "DEBUG, INFO, WARN or ERROR", EnvVars: []string{"LOG_LEVEL"}, Value: d.LogLevel},
		&cli.Float64Flag{Name: "rate-limit-rps", Usage: "public write requests per second per IP", EnvVars: []string{"RATE_LIMIT_RPS"}, Value: d.RateLimitRPS},
		&cli.IntFlag{Name: "rate-limit-burst", Usage: "public write burst per IP", EnvVars: []string{"RATE_LIMIT_BURST"}, Value: d.RateLimitBurst},
	}
}

// LoadEnvFile loads a .env file into the environment without overriding
// variables already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadFile overlays a YAML config file on cfg.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// FromContext resolves the configuration as flag > env > YAML > default.
// The .env file must already be loaded so its values count as env.
func FromContext(c *cli.Context) (Config, error) {
	cfg := Defaults()
	if path := c.String("config"); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	// IsSet is true for both flags and their env vars.
	if c.IsSet("port") {
		cfg.Port = c.Int("port")
	}
	if c.IsSet("database-url") {
		cfg.DatabaseURL = c.String("database-url")
	}
	if c.IsSet("jwt-secret") {
		cfg.JWTSecret = c.String("jwt-secret")
	}
	if c.IsSet("base-url") {
		cfg.BaseURL = c.String("base-url")
	}
	if c.IsSet("cors-origin") {
		cfg.CORSOrigins = splitOrigins(c.StringSlice("cors-origin"))
	}
	if c.IsSet("nats-url") {
		cfg.NATSURL = c.String("nats-url")
	}
	if c.IsSet("durable-timers") {
		cfg.DurableTimers = c.Bool("durable-timers")
	}
	if c.IsSet("request-timeout") {
		cfg.RequestTimeout = c.Duration("request-timeout")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("rate-limit-rps") {
		cfg.RateLimitRPS = c.Float64("rate-limit-rps")
	}
	if c.IsSet("rate-limit-burst") {
		cfg.RateLimitBurst = c.Int("rate-limit-burst")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseFlags resolves the configuration from an argument list, without the
// program name.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	app := &cli.App{
		Name:      "quickly-score",
		Flags:     Flags(),
		Writer:    io.Discard,
		ErrWriter: io.Discard,
		Before: func(c *cli.Context) error {
			return LoadEnvFile(c.String("env-file"))
		},
		Action: func(c *cli.Context) error {
			var err error
			cfg, err = FromContext(c)
			return err
		},
	}
	if err := app.Run(append([]string{"quickly-score"}, args...)); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func splitOrigins(values []string) []string {
	var out []string
	for _, v := range values {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}
