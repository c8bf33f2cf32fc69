// Package cache stores computed analytics payloads keyed by dataset version
// and canonical request parameters. Entries never go stale on their own:
// datasets are immutable, so a cache entry is only removed when its dataset
// is superseded and explicitly invalidated.
package cache

import (
	"context"
	"sort"
	"strings"

	"github.com/muridae/tumorboard/internal/storage"
)

// Cache wraps an AnalyticsCacheStore with key canonicalization.
// A nil store makes every operation a no-op miss.
type Cache struct {
	store storage.AnalyticsCacheStore
}

// New creates a cache over the given store.
func New(store storage.AnalyticsCacheStore) *Cache {
	return &Cache{store: store}
}

// Key builds a canonical cache key from the dataset id, the operation name,
// and its parameters. Parameter order does not affect the key.
func Key(datasetID, op string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(datasetID)
	b.WriteByte('/')
	b.WriteString(op)
	for _, name := range names {
		b.WriteByte('?')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
	}
	return b.String()
}

// Get returns the cached payload for the key, if present.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c == nil || c.store == nil {
		return nil, false, nil
	}
	entry, found, err := c.store.GetCacheEntry(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}
	return entry.Payload, true, nil
}

// Put stores a payload under the key, recording which dataset produced it.
func (c *Cache) Put(ctx context.Context, datasetID, key string, payload []byte) error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.PutCacheEntry(ctx, storage.CacheEntry{
		CacheKey:  key,
		DatasetID: datasetID,
		Payload:   payload,
	})
}

// Invalidate removes every entry computed from the dataset.
func (c *Cache) Invalidate(ctx context.Context, datasetID string) error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.DeleteCacheForDataset(ctx, datasetID)
}
