package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultsAndDerivedDBURL(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-123456")
	t.Setenv("APP_ENV", "test")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "shop")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Fatalf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.JWTTTL != 168*time.Hour {
		t.Fatalf("JWTTTL = %s, want 168h", cfg.JWTTTL)
	}
	if !strings.HasPrefix(cfg.DBURL, "postgres://") || !strings.Contains(cfg.DBURL, "db.internal:5432/shop") {
		t.Fatalf("unexpected DBURL %q", cfg.DBURL)
	}
	if !strings.Contains(cfg.DBURL, "sslmode=disable") {
		t.Fatalf("DBURL missing sslmode: %q", cfg.DBURL)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when JWT_SECRET is empty")
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		Env:         "prod",
		JWTSecret:   "0123456789abcdef",
		JWTTTL:      time.Hour,
		StoreDriver: "postgres",
		CacheDriver: "memory",
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "short_secret_prod", mutate: func(c *Config) { c.JWTSecret = "short" }, wantErr: true},
		{name: "short_secret_dev", mutate: func(c *Config) { c.Env = "dev"; c.JWTSecret = "short" }},
		{name: "bad_store", mutate: func(c *Config) { c.StoreDriver = "mongo" }, wantErr: true},
		{name: "bad_cache", mutate: func(c *Config) { c.CacheDriver = "memcached" }, wantErr: true},
		{name: "zero_ttl", mutate: func(c *Config) { c.JWTTTL = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
