// Package config loads the service configuration from defaults, an optional
// YAML file and CPTRACKER_ environment variables.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	EnvDevelopment = "dev"
	EnvProduction  = "prod"

	PlatformLeetCode   = "leetcode"
	PlatformCodeforces = "codeforces"

	StoreMongo  = "mongo"
	StoreMemory = "memory"

	kEnvPrefix     = "CPTRACKER_"
	kConfigFileEnv = "CPTRACKER_CONFIG"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config contains process configuration.
type Config struct {
	Environment string `koanf:"environment"`
	Addr        string `koanf:"addr"`
	Platform    string `koanf:"platform"`
	Store       string `koanf:"store"`

	// CronSecret guards /api/cron/update-rankings in production.
	CronSecret string `koanf:"cron_secret"`

	Mongo     MongoConfig     `koanf:"mongo"`
	Redis     RedisConfig     `koanf:"redis"`
	Scraper   ScraperConfig   `koanf:"scraper"`
	Tracker   TrackerConfig   `koanf:"tracker"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Contests  ContestsConfig  `koanf:"contests"`
}

type MongoConfig struct {
	URI      string `koanf:"uri"`
	Database string `koanf:"database"`
}

// RedisConfig enables listing caching when Addr is set.
type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	TTL      time.Duration `koanf:"ttl"`
}

type ScraperConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

type TrackerConfig struct {
	UpdateDelay time.Duration `koanf:"update_delay"`
}

type SchedulerConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Cooldown time.Duration `koanf:"cooldown"`
}

// ContestsConfig controls the Codeforces contest listing. Listings are
// cached in Redis for TTL when redis.addr is set.
type ContestsConfig struct {
	Enabled bool          `koanf:"enabled"`
	BaseURL string        `koanf:"base_url"`
	TTL     time.Duration `koanf:"ttl"`
}

// New returns the defaults.
func New() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Addr:        ":8080",
		Platform:    PlatformLeetCode,
		Store:       StoreMongo,
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "cptracker-local",
		},
		Redis: RedisConfig{
			TTL: 5 * time.Minute,
		},
		Scraper: ScraperConfig{
			Timeout: 30 * time.Second,
		},
		Tracker: TrackerConfig{
			UpdateDelay: time.Second,
		},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			Cooldown: 6 * time.Hour,
		},
		Contests: ContestsConfig{
			Enabled: true,
			TTL:     time.Hour,
		},
	}
}

// Load layers, from low to high precedence: defaults, the YAML file at path
// (or $CPTRACKER_CONFIG when path is empty), and CPTRACKER_ env variables.
// A double underscore in an env name nests, so CPTRACKER_MONGO__URI sets
// mongo.uri.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(kConfigFileEnv)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "could not load config file %s", path)
		}
	}

	envProvider := env.Provider(kEnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, kEnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errors.Wrap(err, "could not load environment")
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Wrap(err, "could not decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that have no usable fallback.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.Wrap(ErrInvalidConfig, "addr must not be empty")
	}
	switch c.Platform {
	case PlatformLeetCode, PlatformCodeforces:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown platform %q", c.Platform)
	}
	switch c.Store {
	case StoreMemory:
	case StoreMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return errors.Wrap(ErrInvalidConfig, "mongo.uri and mongo.database are required")
		}
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown store %q", c.Store)
	}
	if c.Scheduler.Enabled && c.Scheduler.Cooldown <= 0 {
		return errors.Wrap(ErrInvalidConfig, "scheduler.cooldown must be positive")
	}
	if c.Tracker.UpdateDelay < 0 || c.Scraper.Timeout < 0 || c.Contests.TTL < 0 {
		return errors.Wrap(ErrInvalidConfig, "durations must not be negative")
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment != EnvDevelopment
}
