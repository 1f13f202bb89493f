package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/shopapi/internal/accounts"
	"github.com/geocoder89/shopapi/internal/app"
	"github.com/geocoder89/shopapi/internal/auth"
	"github.com/geocoder89/shopapi/internal/cache"
	"github.com/geocoder89/shopapi/internal/config"
	"github.com/geocoder89/shopapi/internal/db"
	httpx "github.com/geocoder89/shopapi/internal/http"
	"github.com/geocoder89/shopapi/internal/http/handlers"
	"github.com/geocoder89/shopapi/internal/observability"
	"github.com/geocoder89/shopapi/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTelEnabled {
		shutdown, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName:    "shopapi",
			ServiceVersion: version,
			Env:            cfg.Env,
			Endpoint:       cfg.OTelEndpoint,
			SampleRatio:    cfg.OTelSampleRatio,
		})
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdown(sctx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	stores, err := app.OpenStores(ctx, cfg, prom, true, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	baseCache, closeCache, err := app.OpenCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()
	shopCache := cache.Observed(baseCache, prom)

	hasher := security.NewBcryptHasher(0)
	tokens := auth.NewManager(cfg.JWTSecret)

	seeded, err := db.EnsureAdminUser(ctx, stores.Users, hasher, cfg)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if seeded {
		log.Info("admin user created", "email", cfg.AdminEmail)
	}

	svc, err := accounts.NewService(accounts.Config{TokenTTL: cfg.JWTTTL}, stores.Users, hasher, tokens, log)
	if err != nil {
		return err
	}

	router := httpx.NewRouter(log, httpx.Deps{
		Env:                cfg.Env,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MaxBodyBytes:       cfg.MaxBodyBytes,
		Tracing:            cfg.OTelEnabled,
		Accounts:           svc,
		Tokens:             tokens,
		Users:              stores.Users,
		Categories:         stores.Categories,
		Products:           stores.Products,
		Comments:           stores.Comments,
		Cache:              shopCache,
		Ready: map[string]handlers.Pinger{
			"store": stores.Users,
			"cache": shopCache,
		},
		Prom:     prom,
		Gatherer: reg,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver, "cache", cfg.CacheDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("server shutting down")

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}
