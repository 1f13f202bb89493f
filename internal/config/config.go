package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env   string `env:"APP_ENV" envDefault:"dev"`
	Port  int    `env:"PORT" envDefault:"8080"`
	DBURL string `env:"DATABASE_URL"`

	DB DBConfig `envPrefix:"DB_"`

	// postgres | memory
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`

	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"168h"`

	AdminEmail          string `env:"ADMIN_EMAIL"`
	AdminPassword       string `env:"ADMIN_PASSWORD"`
	AdminName           string `env:"ADMIN_NAME" envDefault:"Admin"`
	AdminSecurityAnswer string `env:"ADMIN_SECURITY_ANSWER"`

	// memory | redis
	CacheDriver string        `env:"CACHE_DRIVER" envDefault:"memory"`
	CacheTTL    time.Duration `env:"CACHE_TTL" envDefault:"30s"`
	Redis       RedisConfig   `envPrefix:"REDIS_"`

	OTelEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint    string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4317"`
	OTelSampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	MaxBodyBytes       int64    `env:"MAX_BODY_BYTES" envDefault:"1048576"`
}

type DBConfig struct {
	Host     string `env:"HOST" envDefault:"127.0.0.1"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"shopapi"`
	Password string `env:"PASSWORD" envDefault:"shopapi"`
	Name     string `env:"NAME" envDefault:"shopapi"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"127.0.0.1:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

const minSecretLen = 16

// Load reads an optional .env file, then the process environment. Values
// already set in the environment win over .env.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DBURL == "" {
		cfg.DBURL = cfg.DB.URL()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.Env != "dev" && c.Env != "test" && len(c.JWTSecret) < minSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes outside dev", minSecretLen)
	}

	switch c.StoreDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.CacheDriver {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown CACHE_DRIVER %q", c.CacheDriver)
	}

	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}

	return nil
}

func (d DBConfig) URL() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host + ":" + d.Port,
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()

	return u.String()
}

// HasAdminSeed reports whether ADMIN_* is complete enough to seed an admin.
func (c Config) HasAdminSeed() bool {
	return c.AdminEmail != "" && c.AdminPassword != "" && c.AdminSecurityAnswer != ""
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}
