package gallery

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"dealerpix/api/internal/models"
)

// Service carries the mutation and read operations on persisted galleries:
// list, remove, set-cover, reorder. Uploads live in Uploader; the two share
// the listing cache so every mutation invalidates precisely the gallery it
// touched.
type Service struct {
	assets  AssetStore
	blobs   BlobStore
	cache   ListingCache
	orphans OrphanRecorder
	log     zerolog.Logger
}

func NewService(assets AssetStore, blobs BlobStore, cache ListingCache, orphans OrphanRecorder, log zerolog.Logger) *Service {
	return &Service{
		assets:  assets,
		blobs:   blobs,
		cache:   cache,
		orphans: orphans,
		log:     log,
	}
}

// List returns the gallery in ordinal order, serving from the cache when a
// mutation has not invalidated it.
func (s *Service) List(ctx context.Context, ref models.GalleryRef) ([]models.PhotoAsset, error) {
	if assets, ok := s.cache.Get(ctx, ref); ok {
		return assets, nil
	}

	assets, err := s.assets.List(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("list gallery: %w", err)
	}

	s.cache.Set(ctx, ref, assets)
	return assets, nil
}

// Remove deletes the blob first and the metadata row only after the blob
// delete succeeded. A failed blob delete aborts with the row untouched; a
// failed row delete after a successful blob delete leaves a dangling row,
// which is recorded for the sweep.
func (s *Service) Remove(ctx context.Context, ref models.GalleryRef, assetID string) error {
	assets, err := s.assets.List(ctx, ref)
	if err != nil {
		return fmt.Errorf("list gallery: %w", err)
	}

	var target *models.PhotoAsset
	for i := range assets {
		if assets[i].ID == assetID {
			target = &assets[i]
			break
		}
	}
	if target == nil {
		return ErrAssetNotFound
	}

	if err := s.blobs.Delete(ctx, []string{target.BlobKey}); err != nil {
		return fmt.Errorf("%w: delete blob: %v", ErrRemovalFailed, err)
	}

	if err := s.assets.Remove(ctx, ref, []string{assetID}); err != nil {
		s.log.Error().Err(err).Str("asset_id", assetID).Msg("metadata delete failed after blob delete")
		s.orphans.Record(ctx, "meta:"+assetID)
		return fmt.Errorf("%w: delete metadata: %v", ErrRemovalFailed, err)
	}

	s.cache.Invalidate(ctx, ref)
	return nil
}

// SetCover atomically re-designates the gallery's single cover.
func (s *Service) SetCover(ctx context.Context, ref models.GalleryRef, assetID string) error {
	if err := s.assets.SetCover(ctx, ref, assetID); err != nil {
		if errors.Is(err, ErrAssetNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrSetCoverFailed, err)
	}
	s.cache.Invalidate(ctx, ref)
	return nil
}

// Move applies a single reorder gesture: movedID to targetIndex within the
// current ordinal order, then a full dense reassignment.
func (s *Service) Move(ctx context.Context, ref models.GalleryRef, movedID string, targetIndex int) error {
	assets, err := s.assets.List(ctx, ref)
	if err != nil {
		return fmt.Errorf("list gallery: %w", err)
	}

	order := make([]string, len(assets))
	found := false
	for i, asset := range assets {
		order[i] = asset.ID
		if asset.ID == movedID {
			found = true
		}
	}
	if !found {
		return ErrAssetNotFound
	}

	return s.applyOrder(ctx, ref, Reapply(order, movedID, targetIndex))
}

// ApplyOrder submits an explicit full ordering. It must be a permutation of
// the gallery's current ids; anything else means the caller's view is stale
// and it should refetch.
func (s *Service) ApplyOrder(ctx context.Context, ref models.GalleryRef, orderedIDs []string) error {
	assets, err := s.assets.List(ctx, ref)
	if err != nil {
		return fmt.Errorf("list gallery: %w", err)
	}

	if len(orderedIDs) != len(assets) {
		return fmt.Errorf("%w: order names %d ids, gallery has %d", ErrReorderFailed, len(orderedIDs), len(assets))
	}
	current := make(map[string]struct{}, len(assets))
	for _, asset := range assets {
		current[asset.ID] = struct{}{}
	}
	for _, id := range orderedIDs {
		if _, ok := current[id]; !ok {
			return fmt.Errorf("%w: unknown asset %s", ErrReorderFailed, id)
		}
		delete(current, id)
	}

	return s.applyOrder(ctx, ref, orderedIDs)
}

func (s *Service) applyOrder(ctx context.Context, ref models.GalleryRef, order []string) error {
	if err := s.assets.Reorder(ctx, ref, Assignments(order)); err != nil {
		// The batch was rejected atomically; drop the cached view so the
		// caller refetches canonical ordinals.
		s.cache.Invalidate(ctx, ref)
		return fmt.Errorf("%w: %v", ErrReorderFailed, err)
	}
	s.cache.Invalidate(ctx, ref)
	return nil
}
