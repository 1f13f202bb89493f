package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/geocoder89/shopapi/internal/cache"
)

// readCache returns the raw JSON stored under key. Cache failures count as
// misses so a flaky cache never fails a read.
func readCache(ctx context.Context, c cache.Store, key string) (json.RawMessage, bool) {
	if c == nil {
		return nil, false
	}

	b, ok, err := c.Get(ctx, key)
	if err != nil {
		slog.Default().WarnContext(ctx, "cache get failed", "key", key, "err", err)
		return nil, false
	}
	if !ok || !json.Valid(b) {
		return nil, false
	}
	return json.RawMessage(b), true
}

func writeCache(ctx context.Context, c cache.Store, key string, payload interface{}) {
	if c == nil {
		return
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := c.Set(ctx, key, b); err != nil {
		slog.Default().WarnContext(ctx, "cache set failed", "key", key, "err", err)
	}
}

func invalidateCache(ctx context.Context, c cache.Store, keys ...string) {
	if c == nil {
		return
	}
	if err := c.Delete(ctx, keys...); err != nil {
		slog.Default().WarnContext(ctx, "cache delete failed", "keys", keys, "err", err)
	}
}

func invalidateCachePrefix(ctx context.Context, c cache.Store, prefix string) {
	if c == nil {
		return
	}
	if err := c.DeletePrefix(ctx, prefix); err != nil {
		slog.Default().WarnContext(ctx, "cache delete failed", "prefix", prefix, "err", err)
	}
}
