package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/isopage/internal/errors"
)

const (
	// EnvPrefix is prepended to every environment override.
	EnvPrefix = "ISOPAGE_"

	// DefaultListen is the default HTTP listen address.
	DefaultListen = ":3000"

	// DefaultContainerID is the ID of the element views are mounted into.
	DefaultContainerID = "page"

	// DefaultClientScript is the path of the client bootstrap script.
	DefaultClientScript = "/_isopage/client.js"

	// DefaultStaticPrefix is the URL prefix static assets are served under.
	DefaultStaticPrefix = "/_isopage/"

	// DefaultTickInterval is the batching tick used by the client renderer.
	DefaultTickInterval = 16 * time.Millisecond
)

// FileNames lists the configuration files Find looks for, in order.
var FileNames = []string{"isopage.yaml", "isopage.yml", "isopage.json"}

// Config is the complete application configuration.
type Config struct {
	// Environment is the environment name embedded in the revival payload
	// (e.g., "dev", "prod").
	Environment string `yaml:"environment" json:"environment" env:"ENV"`

	// Debug enables full error logging before errors are returned.
	Debug bool `yaml:"debug" json:"debug" env:"DEBUG"`

	// Version is the application version handed to the client.
	Version string `yaml:"version" json:"version" env:"VERSION"`

	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen" env:"LISTEN"`

	// Protocol, Host and Root describe the public URL of the application.
	// Empty Protocol and Host are taken from each request.
	Protocol string `yaml:"protocol" json:"protocol" env:"PROTOCOL"`
	Host     string `yaml:"host" json:"host" env:"HOST"`
	Root     string `yaml:"root" json:"root" env:"ROOT"`

	// Languages are the supported locales, first one is the default.
	Languages []string `yaml:"languages" json:"languages" env:"LANGUAGES" envSeparator:","`

	// LanguagePrefix enables /<lang>/ URL prefixes.
	LanguagePrefix bool `yaml:"languagePrefix" json:"languagePrefix" env:"LANGUAGE_PREFIX"`

	// ContainerID is the element ID views are mounted into.
	ContainerID string `yaml:"containerId" json:"containerId" env:"CONTAINER_ID"`

	// ClientScript is the path of the client bootstrap script.
	ClientScript string `yaml:"clientScript" json:"clientScript" env:"CLIENT_SCRIPT"`

	// TickIntervalMS is the client renderer batching tick in milliseconds.
	TickIntervalMS int `yaml:"tickIntervalMs" json:"tickIntervalMs" env:"TICK_INTERVAL_MS"`

	// Cache configures the resource cache backend.
	Cache CacheConfig `yaml:"cache" json:"cache" envPrefix:"CACHE_"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics" json:"metrics" envPrefix:"METRICS_"`

	// Static configures static asset serving.
	Static StaticConfig `yaml:"static" json:"static" envPrefix:"STATIC_"`

	// path stores where the config was loaded from.
	path string
}

// CacheConfig configures the resource cache.
type CacheConfig struct {
	// RedisAddr enables the shared Redis backend when set.
	RedisAddr     string `yaml:"redisAddr" json:"redisAddr" env:"REDIS_ADDR"`
	RedisPassword string `yaml:"redisPassword" json:"redisPassword" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redisDb" json:"redisDb" env:"REDIS_DB"`

	// Prefix is prepended to every Redis key.
	Prefix string `yaml:"prefix" json:"prefix" env:"PREFIX"`

	// TTLSeconds is the entry lifetime; 0 keeps entries forever.
	TTLSeconds int `yaml:"ttlSeconds" json:"ttlSeconds" env:"TTL_SECONDS"`
}

// MetricsConfig configures the metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" json:"path" env:"PATH"`
}

// StaticConfig configures static asset serving. Assets are served only when
// Dir is set.
type StaticConfig struct {
	Dir    string `yaml:"dir" json:"dir" env:"DIR"`
	Prefix string `yaml:"prefix" json:"prefix" env:"PREFIX"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Environment:    "prod",
		Version:        "0.1.0",
		Listen:         DefaultListen,
		Root:           "",
		Languages:      []string{"en"},
		ContainerID:    DefaultContainerID,
		ClientScript:   DefaultClientScript,
		TickIntervalMS: int(DefaultTickInterval / time.Millisecond),
		Cache: CacheConfig{
			Prefix: "isopage:cache:",
		},
		Metrics: MetricsConfig{
			Path: "/metrics",
		},
		Static: StaticConfig{
			Prefix: DefaultStaticPrefix,
		},
	}
}

// Find returns the first configuration file present in dir, or "".
func Find(dir string) string {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load reads the configuration file at path (if non-empty), applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := New()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("environment overrides").
			Wrap(err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.New(errors.CodeConfigInvalid).WithDetail(path).Wrap(err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".json":
		err = json.Unmarshal(data, c)
	default:
		return errors.New(errors.CodeConfigInvalid).
			WithDetailf("unsupported config file extension %q", filepath.Ext(path))
	}
	if err != nil {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("failed to parse " + filepath.Base(path)).
			Wrap(err)
	}

	c.path = path
	return nil
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if len(c.Languages) == 0 {
		c.Languages = []string{"en"}
	}
	if c.ContainerID == "" {
		c.ContainerID = DefaultContainerID
	}
	if c.ClientScript == "" {
		c.ClientScript = DefaultClientScript
	}
	if c.TickIntervalMS == 0 {
		c.TickIntervalMS = int(DefaultTickInterval / time.Millisecond)
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Static.Prefix == "" {
		c.Static.Prefix = DefaultStaticPrefix
	}
	if !strings.HasSuffix(c.Static.Prefix, "/") {
		c.Static.Prefix += "/"
	}
	c.Root = strings.TrimSuffix(c.Root, "/")
}

// Validate reports configuration values that cannot work.
func (c *Config) Validate() error {
	if c.TickIntervalMS < 0 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetailf("tickIntervalMs must be positive, got %d", c.TickIntervalMS)
	}
	if c.Cache.TTLSeconds < 0 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetailf("cache.ttlSeconds must not be negative, got %d", c.Cache.TTLSeconds)
	}
	if c.Root != "" && !strings.HasPrefix(c.Root, "/") {
		return errors.New(errors.CodeConfigInvalid).
			WithDetailf("root must start with '/', got %q", c.Root)
	}
	if !strings.HasPrefix(c.Static.Prefix, "/") {
		return errors.New(errors.CodeConfigInvalid).
			WithDetailf("static.prefix must start with '/', got %q", c.Static.Prefix)
	}
	if c.Protocol != "" && c.Protocol != "http:" && c.Protocol != "https:" {
		return errors.New(errors.CodeConfigInvalid).
			WithDetailf(`protocol must be "http:" or "https:", got %q`, c.Protocol)
	}
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// TickInterval returns the batching tick as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// CacheTTL returns the cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// DefaultLanguage returns the first configured language.
func (c *Config) DefaultLanguage() string {
	return c.Languages[0]
}
