package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Black-And-White-Club/scorecard/pkg/observability"
)

// Config struct to hold the configuration settings
type Config struct {
	Store         StoreConfig         `yaml:"store"`
	Remote        RemoteConfig        `yaml:"remote"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	Sync          SyncConfig          `yaml:"sync"`
	JWT           JWTConfig           `yaml:"jwt"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// StoreConfig selects the local round store. Driver is "sqlite" or "postgres".
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// RemoteConfig points at the club scoring API.
type RemoteConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"`
	Burst     int           `yaml:"burst"`
	// Token is used when a request carries no session of its own (CLI, scheduled jobs).
	Token string `yaml:"token"`
}

// NATSConfig holds NATS configuration. An empty URL selects the in-process bus.
type NATSConfig struct {
	URL      string `yaml:"url"`
	NKeySeed string `yaml:"nkey_seed"`
}

// HTTPConfig holds the local API listener.
type HTTPConfig struct {
	Address        string   `yaml:"address"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimit      float64  `yaml:"rate_limit"`
	Burst          int      `yaml:"burst"`
}

// SyncConfig controls background reconciliation.
type SyncConfig struct {
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	ProbeInterval     time.Duration `yaml:"probe_interval"`
	Timezone          string        `yaml:"timezone"`
	ClubID            string        `yaml:"club_id"`
	// AnchorDate (YYYY-MM-DD) pins "today" for replaying or testing a past round.
	AnchorDate string `yaml:"anchor_date"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"` // json|text
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
}

// LoadConfig loads the configuration from a YAML file, falling back to the
// environment when the file cannot be read.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("REMOTE_BASE_URL"); v != "" {
		cfg.Remote.BaseURL = v
	}
	if v := os.Getenv("REMOTE_TOKEN"); v != "" {
		cfg.Remote.Token = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("NATS_NKEY_SEED"); v != "" {
		cfg.NATS.NKeySeed = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("SYNC_TIMEZONE"); v != "" {
		cfg.Sync.Timezone = v
	}
	if v := os.Getenv("SYNC_CLUB_ID"); v != "" {
		cfg.Sync.ClubID = v
	}
	if v := os.Getenv("SYNC_ANCHOR_DATE"); v != "" {
		cfg.Sync.AnchorDate = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"REMOTE_TIMEOUT", &cfg.Remote.Timeout},
		{"SYNC_RECONCILE_INTERVAL", &cfg.Sync.ReconcileInterval},
		{"SYNC_PROBE_INTERVAL", &cfg.Sync.ProbeInterval},
		{"JWT_DEFAULT_TTL", &cfg.JWT.DefaultTTL},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", d.env, err)
		}
		*d.dst = parsed
	}

	if v := os.Getenv("REMOTE_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid REMOTE_RATE_LIMIT value: %w", err)
		}
		cfg.Remote.RateLimit = f
	}
	if v := os.Getenv("REMOTE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REMOTE_BURST value: %w", err)
		}
		cfg.Remote.Burst = n
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite"
	}
	if cfg.Store.DSN == "" && cfg.Store.Driver == "sqlite" {
		cfg.Store.DSN = "file:scorecard.db?_foreign_keys=on"
	}
	if cfg.Remote.Timeout == 0 {
		cfg.Remote.Timeout = 10 * time.Second
	}
	if cfg.Remote.RateLimit == 0 {
		cfg.Remote.RateLimit = 5
	}
	if cfg.Remote.Burst == 0 {
		cfg.Remote.Burst = 10
	}
	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = "127.0.0.1:8080"
	}
	if cfg.HTTP.RateLimit == 0 {
		cfg.HTTP.RateLimit = 20
	}
	if cfg.HTTP.Burst == 0 {
		cfg.HTTP.Burst = 40
	}
	if cfg.Sync.ReconcileInterval == 0 {
		cfg.Sync.ReconcileInterval = 5 * time.Minute
	}
	if cfg.Sync.ProbeInterval == 0 {
		cfg.Sync.ProbeInterval = 30 * time.Second
	}
	if cfg.JWT.DefaultTTL == 0 {
		cfg.JWT.DefaultTTL = 24 * time.Hour
	}
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	if cfg.Observability.LogFormat == "" {
		cfg.Observability.LogFormat = "json"
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}
	if c.Store.DSN == "" {
		return fmt.Errorf("store dsn is required for driver %q", c.Store.Driver)
	}
	if c.Sync.Timezone != "" {
		if _, err := time.LoadLocation(c.Sync.Timezone); err != nil {
			return fmt.Errorf("invalid sync timezone: %w", err)
		}
	}
	if c.Sync.AnchorDate != "" {
		if _, err := time.Parse(time.DateOnly, c.Sync.AnchorDate); err != nil {
			return fmt.Errorf("invalid sync anchor date: %w", err)
		}
	}
	return nil
}

// Anchor returns midday of the configured anchor date in Location, if one is set.
func (c *Config) Anchor() (time.Time, bool) {
	if c.Sync.AnchorDate == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(time.DateOnly, c.Sync.AnchorDate, c.Location())
	if err != nil {
		return time.Time{}, false
	}
	return t.Add(12 * time.Hour), true
}

// Location is the timezone that decides which calendar day a round belongs to.
func (c *Config) Location() *time.Location {
	if c.Sync.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Sync.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func ToObsConfig(appCfg *Config) observability.Config {
	return observability.Config{
		ServiceName: "scorecard",
		Environment: appCfg.Observability.Environment,
		LogLevel:    appCfg.Observability.LogLevel,
		LogFormat:   appCfg.Observability.LogFormat,
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
