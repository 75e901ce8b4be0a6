package memo

import (
	"context"
	"fmt"

	"github.com/LiboWorks/promptlab/internal/config"
)

// Open returns the store selected by cfg.MemoStore.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.MemoStore {
	case "", config.MemoMemory:
		return NewMemory(), nil
	case config.MemoSQLite:
		return OpenSQLite(cfg.MemoPath)
	case config.MemoRedis:
		return OpenRedis(ctx, cfg.RedisAddr)
	default:
		return nil, fmt.Errorf("unknown memo store %q", cfg.MemoStore)
	}
}
