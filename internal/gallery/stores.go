package gallery

import (
	"context"
	"time"

	"dealerpix/api/internal/models"
)

// BlobStore is the binary object store the gallery writes originals to.
// Keys are hierarchical and built by the store so callers never assemble
// paths by hand.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, keys []string) error
	PublicURL(key string) string
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	PhotoKey(ref models.GalleryRef, filename string) string
}

// AssetStore is the transactional metadata backend. Add, SetCover and
// Reorder are atomic per gallery: Add serializes concurrent registrations
// and resolves ordinal/cover collisions, Reorder applies all assignments or
// none.
type AssetStore interface {
	List(ctx context.Context, ref models.GalleryRef) ([]models.PhotoAsset, error)
	Add(ctx context.Context, ref models.GalleryRef, descriptors []models.AssetDescriptor) error
	Remove(ctx context.Context, ref models.GalleryRef, ids []string) error
	SetCover(ctx context.Context, ref models.GalleryRef, id string) error
	Reorder(ctx context.Context, ref models.GalleryRef, assignments []models.OrdinalAssignment) error
	Count(ctx context.Context, ref models.GalleryRef) (int, error)

	// Read side for cover resolution: one batched fetch across owners in the
	// requested context or the null (context-independent) context, and the
	// unscoped per-owner fallback.
	ListForOwners(ctx context.Context, tenantID string, contextID *string, ownerIDs []string) ([]models.PhotoAsset, error)
	ListForOwner(ctx context.Context, tenantID, ownerID string) ([]models.PhotoAsset, error)
}

// ListingCache caches a gallery's persisted listing between mutations.
// Implementations must treat cache failures as misses, never as errors.
type ListingCache interface {
	Get(ctx context.Context, ref models.GalleryRef) ([]models.PhotoAsset, bool)
	Set(ctx context.Context, ref models.GalleryRef, assets []models.PhotoAsset)
	Invalidate(ctx context.Context, ref models.GalleryRef)
}

// OrphanRecorder collects blob keys (and metadata ids) left behind by
// partial two-phase failures, for the periodic sweep to reconcile.
type OrphanRecorder interface {
	Record(ctx context.Context, entry string)
}
