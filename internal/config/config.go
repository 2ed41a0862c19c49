package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const DefaultSourceBaseURL = "https://bancodepreco.tce.mg.gov.br/api/public"

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Source    SourceConfig
	Cache     CacheConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type LogConfig struct {
	Level string
}

// SourceConfig points at the public price registry
type SourceConfig struct {
	BaseURL string
	Timeout time.Duration
}

type CacheConfig struct {
	Enabled    bool
	Expiration time.Duration
	// Backend is "memory" or "redis"
	Backend string
	// Namespace prefixes every redis key
	Namespace string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerWindow int
	Window            time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

// IsDevelopment reports whether the server runs outside production
func (c *Config) IsDevelopment() bool {
	return c.Server.Env != "production"
}

// UsesRedis reports whether any component needs a redis connection
func (c *Config) UsesRedis() bool {
	return (c.Cache.Enabled && c.Cache.Backend == "redis") || c.RateLimit.Enabled
}

// Load reads .env (if present) and the process environment into a new Config
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not read .env file: %v", err)
	}
	return FromViper(viper.New())
}

// FromViper builds a Config from v after installing defaults and env binding
func FromViper(v *viper.Viper) *Config {
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TCE_API_BASE_URL", DefaultSourceBaseURL)
	v.SetDefault("SOURCE_TIMEOUT", 30)
	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("CACHE_EXPIRATION", 3600)
	v.SetDefault("CACHE_BACKEND", "memory")
	v.SetDefault("CACHE_NAMESPACE", "banco-precos:")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", 60)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("OTEL_ENABLED", true)
	v.SetDefault("OTEL_SERVICE_NAME", "banco-precos")

	return &Config{
		Server: ServerConfig{
			Port: v.GetString("SERVER_PORT"),
			Env:  v.GetString("SERVER_ENV"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Source: SourceConfig{
			BaseURL: strings.TrimRight(v.GetString("TCE_API_BASE_URL"), "/"),
			Timeout: time.Duration(v.GetInt("SOURCE_TIMEOUT")) * time.Second,
		},
		Cache: CacheConfig{
			Enabled:    v.GetBool("CACHE_ENABLED"),
			Expiration: time.Duration(v.GetInt("CACHE_EXPIRATION")) * time.Second,
			Backend:    strings.ToLower(v.GetString("CACHE_BACKEND")),
			Namespace:  v.GetString("CACHE_NAMESPACE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           v.GetBool("RATE_LIMIT_ENABLED"),
			RequestsPerWindow: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:            time.Duration(v.GetInt("RATE_LIMIT_WINDOW")) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Telemetry: TelemetryConfig{
			Enabled:     v.GetBool("OTEL_ENABLED"),
			Endpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName: v.GetString("OTEL_SERVICE_NAME"),
		},
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
