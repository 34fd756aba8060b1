// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Lookup   LookupConfig
	CORS     CORSConfig
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            string        `env:"PORT" envDefault:"5000"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

type DatabaseConfig struct {
	// URL takes precedence over the discrete connection fields.
	URL             string        `env:"DATABASE_URL"`
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            int           `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER"`
	Password        string        `env:"DB_PASSWORD"`
	Name            string        `env:"DB_NAME"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"25"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	QueryTimeout    time.Duration `env:"DB_QUERY_TIMEOUT" envDefault:"5s"`
	AutoSchema      bool          `env:"DB_AUTO_SCHEMA" envDefault:"true"`
}

type RedisConfig struct {
	URL            string        `env:"REDIS_URL"`
	Password       string        `env:"REDIS_PASSWORD"`
	DB             int           `env:"REDIS_DB" envDefault:"0"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
}

type JWTConfig struct {
	Secret     string        `env:"JWT_KEY" envDefault:"change-this-secret"`
	Expiration time.Duration `env:"JWT_EXPIRATION" envDefault:"1h"`
}

type AuthConfig struct {
	BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`
}

type LookupConfig struct {
	CountriesURL  string        `env:"COUNTRIES_API_URL" envDefault:"https://restcountries.com/v3.1"`
	GeocodeURL    string        `env:"GEOCODE_API_URL" envDefault:"https://api.bigdatacloud.net/data"`
	GeocodeAPIKey string        `env:"GEOCODE_API_KEY"`
	DeviceURL     string        `env:"DEVICE_API_URL" envDefault:"http://api.userstack.com"`
	DeviceAPIKey  string        `env:"DEVICE_API_KEY"`
	Timeout       time.Duration `env:"LOOKUP_TIMEOUT" envDefault:"5s"`
}

type CORSConfig struct {
	AllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
}

// Load reads an optional .env file and parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// DSN returns the Postgres connection string.
func (c DatabaseConfig) DSN() string {
	if strings.TrimSpace(c.URL) != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	return u.String()
}

// Origins splits the comma-separated CORS origin list.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Options builds go-redis options. URL may be a redis:// or rediss:// URL
// (credentials and DB number included) or a bare host:port; REDIS_PASSWORD
// and REDIS_DB fill in what the URL leaves out.
func (c RedisConfig) Options() (*redis.Options, error) {
	raw := strings.TrimSpace(c.URL)
	if !strings.Contains(raw, "://") {
		return &redis.Options{Addr: raw, Password: c.Password, DB: c.DB}, nil
	}
	opts, err := redis.ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if opts.Password == "" {
		opts.Password = c.Password
	}
	if opts.DB == 0 {
		opts.DB = c.DB
	}
	return opts, nil
}
