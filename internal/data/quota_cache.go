package data

import (
	"context"
	"encoding/json"
	"fmt"

	"brightcopy/plan-service/internal/biz"
	"brightcopy/plan-service/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

// quotaCache caches usage summaries in redis with a short TTL. It is
// best-effort: every redis failure degrades to a cache miss and the caller
// falls through to MySQL.
type quotaCache struct {
	rdb *redis.Client
	log *log.Helper
}

// NewQuotaCache creates the redis-backed summary cache.
func NewQuotaCache(rdb *redis.Client, logger log.Logger) biz.QuotaCache {
	return &quotaCache{
		rdb: rdb,
		log: log.NewHelper(logger),
	}
}

func summaryKey(uid string) string {
	return fmt.Sprintf(constants.QuotaSummaryCacheKey, uid)
}

func (c *quotaCache) GetSummary(ctx context.Context, uid string) ([]*biz.FeatureUsage, bool) {
	raw, err := c.rdb.Get(ctx, summaryKey(uid)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warnf("Failed to read summary cache for user %s: %v", uid, err)
		}
		return nil, false
	}

	var items []*biz.FeatureUsage
	if err := json.Unmarshal(raw, &items); err != nil {
		c.log.Warnf("Failed to decode summary cache for user %s: %v", uid, err)
		return nil, false
	}
	return items, true
}

func (c *quotaCache) SetSummary(ctx context.Context, uid string, items []*biz.FeatureUsage) {
	raw, err := json.Marshal(items)
	if err != nil {
		c.log.Warnf("Failed to encode summary cache for user %s: %v", uid, err)
		return
	}
	if err := c.rdb.Set(ctx, summaryKey(uid), raw, constants.QuotaSummaryCacheTTL).Err(); err != nil {
		c.log.Warnf("Failed to write summary cache for user %s: %v", uid, err)
	}
}

func (c *quotaCache) Invalidate(ctx context.Context, uid string) {
	if err := c.rdb.Del(ctx, summaryKey(uid)).Err(); err != nil {
		c.log.Warnf("Failed to invalidate summary cache for user %s: %v", uid, err)
	}
}
