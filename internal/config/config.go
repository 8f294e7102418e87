package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Overpass  OverpassConfig  `mapstructure:"overpass"`
	OSRM      OSRMConfig      `mapstructure:"osrm"`
	Search    SearchConfig    `mapstructure:"search"`
	Animation AnimationConfig `mapstructure:"animation"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Session   SessionConfig   `mapstructure:"session"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type OverpassConfig struct {
	URL             string  `mapstructure:"url"`
	MaxRadiusMeters float64 `mapstructure:"max_radius_meters"`
	QueryTimeout    int     `mapstructure:"query_timeout"`
	// HTTP client timeout in seconds.
	ClientTimeout int `mapstructure:"client_timeout"`
}

type OSRMConfig struct {
	URL           string `mapstructure:"url"`
	Profile       string `mapstructure:"profile"`
	ClientTimeout int    `mapstructure:"client_timeout"`
}

type SearchConfig struct {
	InitialRadiusMeters float64 `mapstructure:"initial_radius_meters"`
	MaxAttempts         int     `mapstructure:"max_attempts"`
	RadiusMultiplier    float64 `mapstructure:"radius_multiplier"`
}

type AnimationConfig struct {
	MinSeconds float64 `mapstructure:"min_seconds"`
	MaxSeconds float64 `mapstructure:"max_seconds"`
	TickMillis int     `mapstructure:"tick_millis"`
}

func (a AnimationConfig) Min() time.Duration {
	return time.Duration(a.MinSeconds * float64(time.Second))
}

func (a AnimationConfig) Max() time.Duration {
	return time.Duration(a.MaxSeconds * float64(time.Second))
}

func (a AnimationConfig) Tick() time.Duration {
	return time.Duration(a.TickMillis) * time.Millisecond
}

// DatabaseConfig enables the Postgres route cache when URL is set.
type DatabaseConfig struct {
	URL           string `mapstructure:"url"`
	RouteCacheTTL int    `mapstructure:"route_cache_ttl"`
}

// RedisConfig enables the facility cache when Addr is set.
type RedisConfig struct {
	Addr string `mapstructure:"addr"`
	DB   int    `mapstructure:"db"`
	// Facility cache TTL in seconds.
	FacilityTTL int `mapstructure:"facility_ttl"`
}

type SessionConfig struct {
	IdleTTL       int `mapstructure:"idle_ttl"`
	SweepInterval int `mapstructure:"sweep_interval"`
}

type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Enabled      bool   `mapstructure:"enabled"`
}

// Load reads configuration from defaults, an optional config.yaml and
// FACILITY_* environment variables, in increasing priority.
func Load(service string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("overpass.url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.max_radius_meters", 200000)
	v.SetDefault("overpass.query_timeout", 25)
	v.SetDefault("overpass.client_timeout", 30)
	v.SetDefault("osrm.url", "https://router.project-osrm.org")
	v.SetDefault("osrm.profile", "driving")
	v.SetDefault("osrm.client_timeout", 15)
	v.SetDefault("search.initial_radius_meters", 50000)
	v.SetDefault("search.max_attempts", 4)
	v.SetDefault("search.radius_multiplier", 2)
	v.SetDefault("animation.min_seconds", 4)
	v.SetDefault("animation.max_seconds", 12)
	v.SetDefault("animation.tick_millis", 50)
	v.SetDefault("database.url", "")
	v.SetDefault("database.route_cache_ttl", 86400)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.facility_ttl", 300)
	v.SetDefault("session.idle_ttl", 1800)
	v.SetDefault("session.sweep_interval", 60)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: FACILITY_SEARCH_MAX_ATTEMPTS → search.max_attempts
	v.SetEnvPrefix("FACILITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Overpass.URL == "" {
		errs = append(errs, "overpass.url is required")
	}
	if c.Overpass.MaxRadiusMeters <= 0 {
		errs = append(errs, "overpass.max_radius_meters must be positive")
	}
	if c.OSRM.URL == "" {
		errs = append(errs, "osrm.url is required")
	}
	if c.Search.InitialRadiusMeters <= 0 {
		errs = append(errs, "search.initial_radius_meters must be positive")
	}
	if c.Search.MaxAttempts < 1 {
		errs = append(errs, fmt.Sprintf("search.max_attempts must be at least 1, got %d", c.Search.MaxAttempts))
	}
	if c.Search.RadiusMultiplier <= 1 {
		errs = append(errs, fmt.Sprintf("search.radius_multiplier must be greater than 1, got %v", c.Search.RadiusMultiplier))
	}
	if c.Animation.MinSeconds <= 0 || c.Animation.MaxSeconds < c.Animation.MinSeconds {
		errs = append(errs, "animation.min_seconds must be positive and not above animation.max_seconds")
	}
	if c.Animation.TickMillis <= 0 {
		errs = append(errs, "animation.tick_millis must be positive")
	}
	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		errs = append(errs, "telemetry.otlp_endpoint is required when telemetry is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Get returns the environment variable key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
