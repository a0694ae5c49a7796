package govdata

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"nregahub/pkg/models"
)

const (
	cacheTTL             = 24 * time.Hour
	cacheCleanupInterval = 48 * time.Hour
)

// Cache memoizes fetch results per district/period for a day so repeated
// sync runs don't hammer the upstream API. Force-refresh bypasses reads but
// still writes.
type Cache struct {
	c *gocache.Cache
}

func NewCache() *Cache {
	return &Cache{c: gocache.New(cacheTTL, cacheCleanupInterval)}
}

// CacheKey builds keys like "mgnrega_data_MH-PUN_latest" or
// "mgnrega_data_all_Maharashtra_all".
func CacheKey(scope, code, period string) string {
	if period == "" {
		period = "latest"
	}
	return fmt.Sprintf("%s_%s_%s", scope, code, period)
}

func (c *Cache) Get(key string) ([]models.RawRecord, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.c.Get(key)
	if !ok {
		return nil, false
	}
	records, ok := v.([]models.RawRecord)
	return records, ok
}

func (c *Cache) Set(key string, records []models.RawRecord) {
	if c == nil {
		return
	}
	c.c.Set(key, records, gocache.DefaultExpiration)
}
