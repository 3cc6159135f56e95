package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Fallbacks used when a duration is missing or unparseable.
const (
	DefaultStoreTimeout = 5 * time.Second
	DefaultSessionIdle  = 30 * time.Minute
	DefaultSessionSweep = time.Minute
)

type Config struct {
	Server struct {
		Port         string `yaml:"port" validate:"omitempty,numeric"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"server"`
	Store struct {
		// Driver selects the document store backend.
		Driver  string `yaml:"driver" validate:"omitempty,oneof=memory redis postgres mongo"`
		Timeout string `yaml:"timeout"`
	} `yaml:"store"`
	Redis struct {
		Addr     string `yaml:"addr" validate:"omitempty,hostname_port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db" validate:"gte=0"`
		Prefix   string `yaml:"prefix"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Objects struct {
		Provider      string `yaml:"provider" validate:"omitempty,oneof=local s3"`
		LocalRoot     string `yaml:"local_root"`
		Bucket        string `yaml:"bucket"`
		PublicBaseURL string `yaml:"public_base_url" validate:"omitempty,url"`
		Endpoint      string `yaml:"endpoint"`
		Region        string `yaml:"region"`
		KeyID         string `yaml:"key_id"`
		AppKey        string `yaml:"app_key"`
	} `yaml:"objects"`
	Results struct {
		DeleteConcurrency int `yaml:"delete_concurrency" validate:"gte=0,lte=64"`
		// SessionIdle expires admin result sessions nobody has touched for this long.
		SessionIdle  string `yaml:"session_idle"`
		SessionSweep string `yaml:"session_sweep"`
	} `yaml:"results"`
	Report struct {
		Timezone string `yaml:"timezone" validate:"omitempty,timezone"`
	} `yaml:"report"`
}

// Load reads YAML config from path, applies defaults and validates it.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = "memory"
	}
	if c.Objects.Provider == "" {
		c.Objects.Provider = "local"
	}
	if c.Objects.LocalRoot == "" {
		c.Objects.LocalRoot = "./data"
	}
	if c.Objects.Bucket == "" {
		c.Objects.Bucket = "media"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "liveclass"
	}
	if c.Store.Timeout == "" {
		c.Store.Timeout = DefaultStoreTimeout.String()
	}
	if c.Redis.TTL == "" {
		c.Redis.TTL = DefaultSessionIdle.String()
	}
	if c.Results.SessionIdle == "" {
		c.Results.SessionIdle = DefaultSessionIdle.String()
	}
	if c.Results.SessionSweep == "" {
		c.Results.SessionSweep = DefaultSessionSweep.String()
	}
	if c.Report.Timezone == "" {
		c.Report.Timezone = "UTC"
	}
}

// Validate checks field rules and the settings each backend needs.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	switch c.Store.Driver {
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("invalid config: redis.addr is required for the redis store")
		}
	case "postgres":
		if c.Postgres.URL == "" {
			return fmt.Errorf("invalid config: postgres.url is required for the postgres store")
		}
	case "mongo":
		if c.Mongo.URI == "" {
			return fmt.Errorf("invalid config: mongo.uri is required for the mongo store")
		}
	}
	if c.Objects.Provider == "s3" && c.Objects.Bucket == "" {
		return fmt.Errorf("invalid config: objects.bucket is required for s3")
	}
	return nil
}

// Location resolves the report timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Report.Timezone)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
