package gallery

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"dealerpix/api/internal/models"
)

// fakeAssetStore mimics the metadata backend, including the serializing
// Add contract: ordinal collisions land on the dense continuation and the
// cover hint is demoted when a cover already exists.
type fakeAssetStore struct {
	mu     sync.Mutex
	assets map[string][]models.PhotoAsset
	seq    int

	addErr      error
	listErr     error
	countErr    error
	removeErr   error
	setCoverErr error
	reorderErr  error
	ownersErr   error
	ownerErr    map[string]error

	addGate chan struct{}

	listCalls   int
	ownersCalls int
	ownerCalls  map[string]int
	lastReorder []models.OrdinalAssignment
}

func newFakeAssetStore() *fakeAssetStore {
	return &fakeAssetStore{
		assets:     make(map[string][]models.PhotoAsset),
		ownerErr:   make(map[string]error),
		ownerCalls: make(map[string]int),
	}
}

func galleryKey(ref models.GalleryRef) string {
	contextID := "_"
	if ref.ContextID != nil {
		contextID = *ref.ContextID
	}
	return strings.Join([]string{ref.TenantID, contextID, ref.OwnerID}, "/")
}

func (f *fakeAssetStore) seed(ref models.GalleryRef, count int, withCover bool) []models.PhotoAsset {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := galleryKey(ref)
	for i := 0; i < count; i++ {
		f.seq++
		f.assets[key] = append(f.assets[key], models.PhotoAsset{
			ID:        fmt.Sprintf("a%d", f.seq),
			TenantID:  ref.TenantID,
			OwnerID:   ref.OwnerID,
			ContextID: ref.ContextID,
			BlobKey:   fmt.Sprintf("%s/blob-%d.jpg", key, f.seq),
			Ordinal:   i + 1,
			IsCover:   withCover && i == 0,
			CreatedAt: time.Now().UTC(),
		})
	}
	return append([]models.PhotoAsset(nil), f.assets[key]...)
}

func (f *fakeAssetStore) List(_ context.Context, ref models.GalleryRef) ([]models.PhotoAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.PhotoAsset(nil), f.assets[galleryKey(ref)]...), nil
}

func (f *fakeAssetStore) Count(_ context.Context, ref models.GalleryRef) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.assets[galleryKey(ref)]), nil
}

func (f *fakeAssetStore) Add(_ context.Context, ref models.GalleryRef, descriptors []models.AssetDescriptor) error {
	if f.addGate != nil {
		<-f.addGate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}

	key := galleryKey(ref)
	maxOrdinal, hasCover := 0, false
	for _, asset := range f.assets[key] {
		if asset.Ordinal > maxOrdinal {
			maxOrdinal = asset.Ordinal
		}
		hasCover = hasCover || asset.IsCover
	}

	for _, descriptor := range descriptors {
		maxOrdinal++
		ordinal := maxOrdinal

		isCover := descriptor.IsCover && !hasCover
		hasCover = hasCover || isCover

		f.seq++
		f.assets[key] = append(f.assets[key], models.PhotoAsset{
			ID:               fmt.Sprintf("a%d", f.seq),
			TenantID:         ref.TenantID,
			OwnerID:          ref.OwnerID,
			ContextID:        ref.ContextID,
			BlobKey:          descriptor.BlobKey,
			OriginalFilename: descriptor.OriginalFilename,
			ContentType:      descriptor.ContentType,
			SizeBytes:        descriptor.SizeBytes,
			Ordinal:          ordinal,
			IsCover:          isCover,
			CreatedAt:        time.Now().UTC(),
		})
	}
	return nil
}

func (f *fakeAssetStore) Remove(_ context.Context, ref models.GalleryRef, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}

	key := galleryKey(ref)
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	var kept []models.PhotoAsset
	for _, asset := range f.assets[key] {
		if _, gone := drop[asset.ID]; !gone {
			kept = append(kept, asset)
		}
	}
	if len(kept) == len(f.assets[key]) {
		return ErrAssetNotFound
	}
	f.assets[key] = kept
	return nil
}

// SetCover mirrors the real backend's statement order, demote then
// promote, and checks the single-cover index invariant after each step.
// A promote issued while the old cover still stands would fail here the
// same way the partial unique index rejects it in Postgres.
func (f *fakeAssetStore) SetCover(_ context.Context, ref models.GalleryRef, assetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setCoverErr != nil {
		return f.setCoverErr
	}

	key := galleryKey(ref)
	found := false
	for i := range f.assets[key] {
		if f.assets[key][i].ID == assetID {
			found = true
		}
	}
	if !found {
		return ErrAssetNotFound
	}

	for i := range f.assets[key] {
		if f.assets[key][i].ID != assetID {
			f.assets[key][i].IsCover = false
		}
	}
	if err := f.coverIndexLocked(key); err != nil {
		return err
	}

	for i := range f.assets[key] {
		if f.assets[key][i].ID == assetID {
			f.assets[key][i].IsCover = true
		}
	}
	return f.coverIndexLocked(key)
}

func (f *fakeAssetStore) coverIndexLocked(key string) error {
	covers := 0
	for _, asset := range f.assets[key] {
		if asset.IsCover {
			covers++
		}
	}
	if covers > 1 {
		return fmt.Errorf("unique violation: %d covers in gallery %s", covers, key)
	}
	return nil
}

func (f *fakeAssetStore) Reorder(_ context.Context, ref models.GalleryRef, assignments []models.OrdinalAssignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastReorder = append([]models.OrdinalAssignment(nil), assignments...)
	if f.reorderErr != nil {
		return f.reorderErr
	}

	key := galleryKey(ref)
	ordinals := make(map[string]int, len(assignments))
	for _, assignment := range assignments {
		ordinals[assignment.ID] = assignment.Ordinal
	}
	for i := range f.assets[key] {
		ordinal, ok := ordinals[f.assets[key][i].ID]
		if !ok {
			return fmt.Errorf("asset %s missing from assignment", f.assets[key][i].ID)
		}
		f.assets[key][i].Ordinal = ordinal
	}
	sortByOrdinal(f.assets[key])
	return nil
}

func (f *fakeAssetStore) ListForOwners(_ context.Context, tenantID string, contextID *string, ownerIDs []string) ([]models.PhotoAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ownersCalls++
	if f.ownersErr != nil {
		return nil, f.ownersErr
	}

	wanted := make(map[string]struct{}, len(ownerIDs))
	for _, id := range ownerIDs {
		wanted[id] = struct{}{}
	}

	var out []models.PhotoAsset
	for _, assets := range f.assets {
		for _, asset := range assets {
			if asset.TenantID != tenantID {
				continue
			}
			if _, ok := wanted[asset.OwnerID]; !ok {
				continue
			}
			if asset.ContextID == nil || (contextID != nil && *asset.ContextID == *contextID) {
				out = append(out, asset)
			}
		}
	}
	return out, nil
}

func (f *fakeAssetStore) ListForOwner(_ context.Context, tenantID, ownerID string) ([]models.PhotoAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ownerCalls[ownerID]++
	if err := f.ownerErr[ownerID]; err != nil {
		return nil, err
	}

	var out []models.PhotoAsset
	for _, assets := range f.assets {
		for _, asset := range assets {
			if asset.TenantID == tenantID && asset.OwnerID == ownerID {
				out = append(out, asset)
			}
		}
	}
	return out, nil
}

func sortByOrdinal(assets []models.PhotoAsset) {
	for i := 1; i < len(assets); i++ {
		for j := i; j > 0 && assets[j].Ordinal < assets[j-1].Ordinal; j-- {
			assets[j], assets[j-1] = assets[j-1], assets[j]
		}
	}
}

type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string

	putErr    func(key string) error
	deleteErr error
	putGate   chan struct{}
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(_ context.Context, key string, data []byte, _ string) error {
	if f.putGate != nil {
		<-f.putGate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		if err := f.putErr(key); err != nil {
			return err
		}
	}
	f.objects[key] = data
	return nil
}

func (f *fakeBlobStore) Delete(_ context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for _, key := range keys {
		delete(f.objects, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

func (f *fakeBlobStore) PublicURL(key string) string {
	return "https://blobs.test/" + key
}

func (f *fakeBlobStore) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://blobs.test/" + key + "?signed", nil
}

// PhotoKey is deterministic in the fake so tests can assert on exact keys.
func (f *fakeBlobStore) PhotoKey(ref models.GalleryRef, filename string) string {
	return path.Join(galleryKey(ref), filename)
}

func (f *fakeBlobStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

type memListingCache struct {
	mu            sync.Mutex
	data          map[string][]models.PhotoAsset
	invalidations int
}

func newMemListingCache() *memListingCache {
	return &memListingCache{data: make(map[string][]models.PhotoAsset)}
}

func (c *memListingCache) Get(_ context.Context, ref models.GalleryRef) ([]models.PhotoAsset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	assets, ok := c.data[galleryKey(ref)]
	return assets, ok
}

func (c *memListingCache) Set(_ context.Context, ref models.GalleryRef, assets []models.PhotoAsset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[galleryKey(ref)] = assets
}

func (c *memListingCache) Invalidate(_ context.Context, ref models.GalleryRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, galleryKey(ref))
	c.invalidations++
}

type memOrphans struct {
	mu      sync.Mutex
	entries []string
}

func (o *memOrphans) Record(_ context.Context, entry string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries = append(o.entries, entry)
}

func (o *memOrphans) recorded() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.entries...)
}
