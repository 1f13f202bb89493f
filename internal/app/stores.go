// Package app builds the stores and caches selected by configuration. It is
// shared by the API server and shopctl.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geocoder89/shopapi/internal/cache"
	"github.com/geocoder89/shopapi/internal/config"
	"github.com/geocoder89/shopapi/internal/db"
	"github.com/geocoder89/shopapi/internal/domain/user"
	apphttp "github.com/geocoder89/shopapi/internal/http"
	"github.com/geocoder89/shopapi/internal/http/handlers"
	"github.com/geocoder89/shopapi/internal/redisclient"
	"github.com/geocoder89/shopapi/internal/repo/memory"
	"github.com/geocoder89/shopapi/internal/repo/postgres"
)

// UserStore is the identity store contract both backends satisfy.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (user.User, error)
	FindByID(ctx context.Context, id string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
	Update(ctx context.Context, id string, patch user.Patch) (user.User, error)
	SetRole(ctx context.Context, email string, role user.Role) (user.User, error)
	Ping(ctx context.Context) error
}

type Stores struct {
	Users      UserStore
	Categories handlers.CategoryStore
	Products   apphttp.ProductRepo
	Comments   handlers.CommentStore

	close func()
}

func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStores connects the configured backend. With migrate set, postgres
// schema migrations run before the repos are returned.
func OpenStores(ctx context.Context, cfg config.Config, obs postgres.DBObserver, migrate bool, log *slog.Logger) (*Stores, error) {
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("using in-memory store; data is lost on restart")
		catalog := memory.NewCatalog()
		return &Stores{
			Users:      memory.NewUsersRepo(),
			Categories: catalog.Categories,
			Products:   catalog.Products,
			Comments:   catalog.Comments,
		}, nil

	case "postgres":
		if migrate {
			if err := db.MigrateUp(cfg.DBURL); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}

		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return nil, err
		}

		return &Stores{
			Users:      postgres.NewUsersRepo(pool, obs),
			Categories: postgres.NewCategoriesRepo(pool, obs),
			Products:   postgres.NewProductsRepo(pool, obs),
			Comments:   postgres.NewCommentsRepo(pool, obs),
			close:      pool.Close,
		}, nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// OpenCache returns the configured cache and a close func.
func OpenCache(ctx context.Context, cfg config.Config) (cache.Store, func(), error) {
	switch cfg.CacheDriver {
	case "memory":
		return cache.NewMemory(cfg.CacheTTL), func() {}, nil

	case "redis":
		client, err := redisclient.Connect(ctx, redisclient.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("redis connect: %w", err)
		}
		closeFn := func() { _ = client.Close() }
		return cache.NewRedis(client.Raw(), "shopapi", cfg.CacheTTL), closeFn, nil
	}

	return nil, nil, fmt.Errorf("unknown cache driver %q", cfg.CacheDriver)
}
