package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dealerpix/api/internal/gallery"
	"dealerpix/api/internal/ids"
	"dealerpix/api/internal/models"
)

const assetColumns = `id, tenant_id, context_id, owner_id, blob_key, original_filename,
	       content_type, size_bytes, ordinal, is_cover, created_at, updated_at`

const galleryScope = `tenant_id = $1 AND context_id IS NOT DISTINCT FROM $2 AND owner_id = $3`

// AssetRepository is the Postgres metadata backend. Every write that can
// race within a gallery (add, set-cover, reorder) runs in a transaction
// holding the gallery's advisory lock, so concurrent registrations are
// serialized and ordinal/cover collisions resolved here rather than
// trusted from the client.
type AssetRepository struct {
	pool *pgxpool.Pool
}

func NewAssetRepository(pool *pgxpool.Pool) *AssetRepository {
	return &AssetRepository{pool: pool}
}

func galleryLockKey(ref models.GalleryRef) string {
	contextID := ""
	if ref.ContextID != nil {
		contextID = *ref.ContextID
	}
	return strings.Join([]string{ref.TenantID, contextID, ref.OwnerID}, "/")
}

func lockGallery(ctx context.Context, tx pgx.Tx, ref models.GalleryRef) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, galleryLockKey(ref))
	if err != nil {
		return fmt.Errorf("lock gallery: %w", err)
	}
	return nil
}

func (r *AssetRepository) List(ctx context.Context, ref models.GalleryRef) ([]models.PhotoAsset, error) {
	query := `
		SELECT ` + assetColumns + `
		FROM photo_assets
		WHERE ` + galleryScope + `
		ORDER BY ordinal ASC
	`
	rows, err := r.pool.Query(ctx, query, ref.TenantID, ref.ContextID, ref.OwnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssets(rows)
}

func (r *AssetRepository) Count(ctx context.Context, ref models.GalleryRef) (int, error) {
	query := `SELECT COUNT(*) FROM photo_assets WHERE ` + galleryScope
	var count int
	if err := r.pool.QueryRow(ctx, query, ref.TenantID, ref.ContextID, ref.OwnerID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Add registers one or more assets under the gallery lock. The descriptor's
// ordinal and cover flag are hints computed from the submitter's snapshot
// and may be stale by the time the lock is held: the ordinal actually
// written is always the gallery's dense continuation, and the cover hint is
// demoted when a cover already exists. Two racing first uploads therefore
// end with ordinals {1,2} and exactly one cover.
func (r *AssetRepository) Add(ctx context.Context, ref models.GalleryRef, descriptors []models.AssetDescriptor) error {
	if len(descriptors) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockGallery(ctx, tx, ref); err != nil {
		return err
	}

	var maxOrdinal, coverCount int
	stateQuery := `
		SELECT COALESCE(MAX(ordinal), 0), COUNT(*) FILTER (WHERE is_cover)
		FROM photo_assets
		WHERE ` + galleryScope
	if err := tx.QueryRow(ctx, stateQuery, ref.TenantID, ref.ContextID, ref.OwnerID).Scan(&maxOrdinal, &coverCount); err != nil {
		return fmt.Errorf("read gallery state: %w", err)
	}

	const insert = `
		INSERT INTO photo_assets (
			id, tenant_id, context_id, owner_id, blob_key, original_filename,
			content_type, size_bytes, ordinal, is_cover, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`
	for _, descriptor := range descriptors {
		maxOrdinal++
		ordinal := maxOrdinal

		isCover := descriptor.IsCover && coverCount == 0
		if isCover {
			coverCount++
		}

		if _, err := tx.Exec(ctx, insert,
			ids.New(),
			ref.TenantID,
			ref.ContextID,
			ref.OwnerID,
			descriptor.BlobKey,
			descriptor.OriginalFilename,
			descriptor.ContentType,
			descriptor.SizeBytes,
			ordinal,
			isCover,
		); err != nil {
			return fmt.Errorf("insert asset: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *AssetRepository) Remove(ctx context.Context, ref models.GalleryRef, assetIDs []string) error {
	query := `DELETE FROM photo_assets WHERE ` + galleryScope + ` AND id = ANY($4)`
	tag, err := r.pool.Exec(ctx, query, ref.TenantID, ref.ContextID, ref.OwnerID, assetIDs)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return gallery.ErrAssetNotFound
	}
	return nil
}

// SetCover flips the single cover in one transaction; a reader never sees
// zero or two covers in a non-empty gallery. The demote must run before
// the promote: the partial unique cover index is enforced per statement,
// so promoting while the old cover still holds its index entry would
// abort with a unique violation. A zero-cover state mid-transaction is
// fine, the index only constrains rows where is_cover is true.
func (r *AssetRepository) SetCover(ctx context.Context, ref models.GalleryRef, assetID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockGallery(ctx, tx, ref); err != nil {
		return err
	}

	demote := `
		UPDATE photo_assets
		SET is_cover = FALSE, updated_at = NOW()
		WHERE ` + galleryScope + ` AND id <> $4 AND is_cover
	`
	if _, err := tx.Exec(ctx, demote, ref.TenantID, ref.ContextID, ref.OwnerID, assetID); err != nil {
		return err
	}

	promote := `
		UPDATE photo_assets
		SET is_cover = TRUE, updated_at = NOW()
		WHERE ` + galleryScope + ` AND id = $4
	`
	tag, err := tx.Exec(ctx, promote, ref.TenantID, ref.ContextID, ref.OwnerID, assetID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Rolling back restores the demoted row.
		return gallery.ErrAssetNotFound
	}

	return tx.Commit(ctx)
}

// Reorder applies the full ordinal assignment atomically. The uniqueness
// constraint on (tenant, context, owner, ordinal) is deferred to commit, so
// intermediate states inside the transaction may collide but a partial
// application can never land.
func (r *AssetRepository) Reorder(ctx context.Context, ref models.GalleryRef, assignments []models.OrdinalAssignment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockGallery(ctx, tx, ref); err != nil {
		return err
	}

	update := `
		UPDATE photo_assets
		SET ordinal = $5, updated_at = NOW()
		WHERE ` + galleryScope + ` AND id = $4
	`
	batch := &pgx.Batch{}
	for _, assignment := range assignments {
		batch.Queue(update, ref.TenantID, ref.ContextID, ref.OwnerID, assignment.ID, assignment.Ordinal)
	}

	results := tx.SendBatch(ctx, batch)
	for _, assignment := range assignments {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return fmt.Errorf("assign ordinal: %w", err)
		}
		if tag.RowsAffected() != 1 {
			results.Close()
			return fmt.Errorf("asset %s not in gallery", assignment.ID)
		}
	}
	if err := results.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListForOwners is the resolver's initial batched query: every asset of
// the requested owners whose context is the requested one or null.
func (r *AssetRepository) ListForOwners(ctx context.Context, tenantID string, contextID *string, ownerIDs []string) ([]models.PhotoAsset, error) {
	query := `
		SELECT ` + assetColumns + `
		FROM photo_assets
		WHERE tenant_id = $1
		  AND owner_id = ANY($2)
		  AND (context_id IS NOT DISTINCT FROM $3 OR context_id IS NULL)
		ORDER BY owner_id, ordinal ASC
	`
	rows, err := r.pool.Query(ctx, query, tenantID, ownerIDs, contextID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssets(rows)
}

// ListForOwner is the unscoped secondary fetch for owners the batch query
// missed entirely.
func (r *AssetRepository) ListForOwner(ctx context.Context, tenantID, ownerID string) ([]models.PhotoAsset, error) {
	query := `
		SELECT ` + assetColumns + `
		FROM photo_assets
		WHERE tenant_id = $1 AND owner_id = $2
		ORDER BY ordinal ASC
	`
	rows, err := r.pool.Query(ctx, query, tenantID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssets(rows)
}

func scanAssets(rows pgx.Rows) ([]models.PhotoAsset, error) {
	var assets []models.PhotoAsset
	for rows.Next() {
		var asset models.PhotoAsset
		if err := rows.Scan(
			&asset.ID,
			&asset.TenantID,
			&asset.ContextID,
			&asset.OwnerID,
			&asset.BlobKey,
			&asset.OriginalFilename,
			&asset.ContentType,
			&asset.SizeBytes,
			&asset.Ordinal,
			&asset.IsCover,
			&asset.CreatedAt,
			&asset.UpdatedAt,
		); err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}
