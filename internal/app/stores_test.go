package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/geocoder89/shopapi/internal/config"
)

func TestOpenStores_Memory(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := OpenStores(context.Background(), config.Config{StoreDriver: "memory"}, nil, true, log)
	if err != nil {
		t.Fatalf("OpenStores() error = %v", err)
	}
	defer s.Close()

	if s.Users == nil || s.Categories == nil || s.Products == nil || s.Comments == nil {
		t.Fatalf("memory stores not wired: %+v", s)
	}
	if err := s.Users.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestOpenStores_UnknownDriver(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	if _, err := OpenStores(context.Background(), config.Config{StoreDriver: "mongo"}, nil, false, log); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestOpenCache_Memory(t *testing.T) {
	c, closeFn, err := OpenCache(context.Background(), config.Config{CacheDriver: "memory", CacheTTL: time.Second})
	if err != nil {
		t.Fatalf("OpenCache() error = %v", err)
	}
	defer closeFn()

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}
