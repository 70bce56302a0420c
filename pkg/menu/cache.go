package menu

import (
	"context"
	"strconv"
)

// CacheKeyPrefix starts every menu cache key.
const CacheKeyPrefix = "menu:"

// Cache stores serialized trees. Read and write failures are logged and
// otherwise ignored by the Builder.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Clear removes every menu entry.
	Clear(ctx context.Context) error
}

// CacheKey returns the key of the tree below parentID.
func CacheKey(parentID int64) string {
	return CacheKeyPrefix + strconv.FormatInt(parentID, 10)
}
