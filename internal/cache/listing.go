package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dealerpix/api/internal/models"
)

// ListingCache holds whole-gallery listings in Redis, keyed by the scoping
// triple and invalidated on every mutation of that gallery. Redis trouble
// degrades to a miss; it never fails a read.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewListingCache(client *redis.Client, ttl time.Duration, log zerolog.Logger) *ListingCache {
	return &ListingCache{client: client, ttl: ttl, log: log}
}

func listingKey(ref models.GalleryRef) string {
	contextID := "_"
	if ref.ContextID != nil {
		contextID = *ref.ContextID
	}
	return strings.Join([]string{"gallery", "listing", ref.TenantID, contextID, ref.OwnerID}, ":")
}

func (c *ListingCache) Get(ctx context.Context, ref models.GalleryRef) ([]models.PhotoAsset, bool) {
	payload, err := c.client.Get(ctx, listingKey(ref)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug().Err(err).Msg("listing cache read failed")
		}
		return nil, false
	}

	var assets []models.PhotoAsset
	if err := json.Unmarshal(payload, &assets); err != nil {
		c.log.Debug().Err(err).Msg("listing cache payload invalid")
		return nil, false
	}
	return assets, true
}

func (c *ListingCache) Set(ctx context.Context, ref models.GalleryRef, assets []models.PhotoAsset) {
	payload, err := json.Marshal(assets)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, listingKey(ref), payload, c.ttl).Err(); err != nil {
		c.log.Debug().Err(err).Msg("listing cache write failed")
	}
}

func (c *ListingCache) Invalidate(ctx context.Context, ref models.GalleryRef) {
	if err := c.client.Del(ctx, listingKey(ref)).Err(); err != nil {
		c.log.Debug().Err(err).Msg("listing cache invalidate failed")
	}
}
