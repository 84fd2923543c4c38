package gallery

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"dealerpix/api/internal/models"
)

// Resolver answers "which photo represents this owner" for listing
// surfaces, in batch. One query covers every requested owner in the
// requested context plus the context-independent rows; owners that miss
// entirely get one memoized unscoped fetch each, so round trips stay at
// 1 + misses rather than N + 1.
type Resolver struct {
	assets AssetStore
	log    zerolog.Logger
}

func NewResolver(assets AssetStore, log zerolog.Logger) *Resolver {
	return &Resolver{assets: assets, log: log}
}

// Resolve returns one Resolution per requested owner. Duplicate owner ids
// are collapsed. A failing secondary fetch degrades that owner to
// no-photo instead of failing the whole pass.
func (r *Resolver) Resolve(ctx context.Context, tenantID string, contextID *string, ownerIDs []string) (map[string]models.Resolution, error) {
	results := make(map[string]models.Resolution, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return results, nil
	}

	owners := make([]string, 0, len(ownerIDs))
	seen := make(map[string]struct{}, len(ownerIDs))
	for _, id := range ownerIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		owners = append(owners, id)
	}

	rows, err := r.assets.ListForOwners(ctx, tenantID, contextID, owners)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}

	byOwner := make(map[string][]models.PhotoAsset, len(owners))
	for _, row := range rows {
		byOwner[row.OwnerID] = append(byOwner[row.OwnerID], row)
	}

	// Unscoped fetches are memoized per owner for the lifetime of this
	// pass only.
	extra := make(map[string][]models.PhotoAsset)
	fetched := make(map[string]bool)

	for _, owner := range owners {
		candidates := byOwner[owner]
		if len(candidates) == 0 {
			if !fetched[owner] {
				fetched[owner] = true
				all, err := r.assets.ListForOwner(ctx, tenantID, owner)
				if err != nil {
					r.log.Warn().Err(err).Str("owner_id", owner).Msg("unscoped cover fetch failed")
				} else {
					extra[owner] = all
				}
			}
			candidates = extra[owner]
		}

		if pick, ok := pickRepresentative(candidates, contextID); ok {
			results[owner] = models.Resolution{HasPhoto: true, RepresentativeKey: pick.BlobKey}
		} else {
			results[owner] = models.Resolution{}
		}
	}

	return results, nil
}

// pickRepresentative applies the fallback tiers: context match first, then
// context-independent rows, then anything the owner has. Within the first
// non-empty tier the flagged cover wins, else the lowest ordinal.
func pickRepresentative(rows []models.PhotoAsset, contextID *string) (models.PhotoAsset, bool) {
	var contextual, global []models.PhotoAsset
	for _, row := range rows {
		switch {
		case row.ContextID == nil:
			global = append(global, row)
		case contextID != nil && *row.ContextID == *contextID:
			contextual = append(contextual, row)
		}
	}

	for _, tier := range [][]models.PhotoAsset{contextual, global, rows} {
		if len(tier) == 0 {
			continue
		}
		best := tier[0]
		for _, row := range tier[1:] {
			if row.IsCover && !best.IsCover {
				best = row
			} else if row.IsCover == best.IsCover && row.Ordinal < best.Ordinal {
				best = row
			}
		}
		return best, true
	}
	return models.PhotoAsset{}, false
}
