package storage

import (
	"context"
	"errors"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
)

// Value reads key from store and returns def when the key is missing or the
// stored value cannot be decoded as T. Corrupt entries are logged at debug
// level and otherwise ignored.
func Value[T any](ctx context.Context, store domain.SettingsStore, key string, def T, log *logger.Logger) T {
	var out T
	err := store.Get(ctx, key, &out)
	switch {
	case err == nil:
		return out
	case errors.Is(err, domain.ErrNotFound):
		return def
	default:
		log.Debug("settings: %s unreadable, using default: %v", key, err)
		return def
	}
}

// Put writes a value and logs failures instead of returning them. The
// in-memory state stays authoritative when persistence is unavailable.
func Put(ctx context.Context, store domain.SettingsStore, key string, value any, log *logger.Logger) {
	if err := store.Set(ctx, key, value); err != nil {
		log.Warn("settings: saving %s: %v", key, err)
	}
}
