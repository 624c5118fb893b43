// Package config assembles server settings from defaults, an optional TOML
// file, a .env file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/kdimtricp/cineck/internal/browse"
	"github.com/kdimtricp/cineck/internal/database"
	"github.com/kdimtricp/cineck/internal/querycache"
)

const (
	DefaultPort              = "8080"
	DefaultSQLitePath        = "./cineck.db"
	DefaultTrendingLimit     = 5
	DefaultRequestsPerSecond = 20
	DefaultRequestBurst      = 5
)

type Config struct {
	Port string `toml:"port"`

	// APIBaseURL and APIKey are required.
	APIBaseURL string `toml:"api_base_url"`
	APIKey     string `toml:"api_key"`

	Database DatabaseConfig `toml:"database"`

	StaleTime     Duration `toml:"stale_time"`
	Debounce      Duration `toml:"debounce"`
	TrendingLimit int      `toml:"trending_limit"`

	RequestsPerSecond float64 `toml:"requests_per_second"`
	RequestBurst      int     `toml:"request_burst"`
}

type DatabaseConfig struct {
	Type     string `toml:"type"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
	Path     string `toml:"path"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func Default() *Config {
	return &Config{
		Port:     DefaultPort,
		Database: DatabaseConfig{
			Type:     database.TypeSQLite,
			Host:     "localhost",
			Port:     5432,
			User:     "cineck",
			Password: "cineck_dev",
			Name:     "cineck",
			Path:     DefaultSQLitePath,
		},
		StaleTime:         Duration{querycache.DefaultStaleTime},
		Debounce:          Duration{browse.DefaultDebounce},
		TrendingLimit:     DefaultTrendingLimit,
		RequestsPerSecond: DefaultRequestsPerSecond,
		RequestBurst:      DefaultRequestBurst,
	}
}

// LoadDotEnv loads variables from the given .env files without overriding
// ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load reads path (skipped when empty or missing) over the defaults and then
// applies environment overrides. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("unmarshaling config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&c.Port, "PORT")
	setString(&c.APIBaseURL, "API_BASE_URL")
	setString(&c.APIKey, "TMDB_API_KEY")
	setString(&c.Database.Type, "DB_TYPE")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.Path, "DB_PATH")

	if v := os.Getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DB_PORT %q: %w", v, err)
		}
		c.Database.Port = port
	}

	if v := os.Getenv("STALE_TIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid STALE_TIME %q: %w", v, err)
		}
		c.StaleTime = Duration{d}
	}

	if v := os.Getenv("SEARCH_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SEARCH_DEBOUNCE %q: %w", v, err)
		}
		c.Debounce = Duration{d}
	}
	return nil
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.Port == "" {
		c.Port = def.Port
	}
	if c.Database.Type == "" {
		c.Database.Type = def.Database.Type
	}
	if c.Database.Path == "" {
		c.Database.Path = def.Database.Path
	}
	if c.StaleTime.Duration <= 0 {
		c.StaleTime = def.StaleTime
	}
	if c.Debounce.Duration <= 0 {
		c.Debounce = def.Debounce
	}
	if c.TrendingLimit <= 0 {
		c.TrendingLimit = def.TrendingLimit
	}
}

// Validate reports the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.APIBaseURL == "" {
		errs = append(errs, errors.New("API_BASE_URL is required"))
	}
	if c.APIKey == "" {
		errs = append(errs, errors.New("TMDB_API_KEY is required"))
	}
	switch c.Database.Type {
	case database.TypeSQLite, database.TypePostgres:
	default:
		errs = append(errs, fmt.Errorf("unsupported database type: %s", c.Database.Type))
	}
	return errors.Join(errs...)
}

func (c *Config) DatabaseConfig() database.Config {
	return database.Config{
		Type:       c.Database.Type,
		Host:       c.Database.Host,
		Port:       c.Database.Port,
		User:       c.Database.User,
		Password:   c.Database.Password,
		Name:       c.Database.Name,
		SQLitePath: c.Database.Path,
	}
}
