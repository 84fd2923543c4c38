package gallery

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"dealerpix/api/internal/models"
)

func strPtr(s string) *string { return &s }

func resolverFixture() (*fakeAssetStore, *Resolver) {
	store := newFakeAssetStore()
	return store, NewResolver(store, zerolog.Nop())
}

func TestResolvePrefersRequestedContext(t *testing.T) {
	store, resolver := resolverFixture()
	store.seed(models.GalleryRef{TenantID: "t1", OwnerID: "v1", ContextID: strPtr("storeA")}, 2, true)
	store.seed(models.GalleryRef{TenantID: "t1", OwnerID: "v1"}, 1, true)

	results, err := resolver.Resolve(context.Background(), "t1", strPtr("storeA"), []string{"v1"})
	require.NoError(t, err)
	require.True(t, results["v1"].HasPhoto)
	require.Contains(t, results["v1"].RepresentativeKey, "t1/storeA/v1/")
}

func TestResolveFallsBackToNullContext(t *testing.T) {
	store, resolver := resolverFixture()
	store.seed(models.GalleryRef{TenantID: "t1", OwnerID: "v1"}, 2, true)

	results, err := resolver.Resolve(context.Background(), "t1", strPtr("storeA"), []string{"v1"})
	require.NoError(t, err)
	require.True(t, results["v1"].HasPhoto)
	require.Contains(t, results["v1"].RepresentativeKey, "t1/_/v1/")
	// Null-context rows arrive with the initial batch, no secondary fetch.
	require.Equal(t, 0, store.ownerCalls["v1"])
}

// An owner whose photos live only in a different store context misses the
// initial batch entirely and is found by the unscoped fetch.
func TestResolveCrossContextFallback(t *testing.T) {
	store, resolver := resolverFixture()
	store.seed(models.GalleryRef{TenantID: "t1", OwnerID: "v1", ContextID: strPtr("storeB")}, 3, true)

	results, err := resolver.Resolve(context.Background(), "t1", strPtr("storeA"), []string{"v1"})
	require.NoError(t, err)
	require.True(t, results["v1"].HasPhoto)
	require.Contains(t, results["v1"].RepresentativeKey, "t1/storeB/v1/")
	require.Equal(t, 1, store.ownerCalls["v1"])
}

func TestResolveCoverBeatsLowerOrdinal(t *testing.T) {
	store, resolver := resolverFixture()
	ref := models.GalleryRef{TenantID: "t1", OwnerID: "v1", ContextID: strPtr("storeA")}
	assets := store.seed(ref, 3, false)
	require.NoError(t, store.SetCover(context.Background(), ref, assets[2].ID))

	results, err := resolver.Resolve(context.Background(), "t1", strPtr("storeA"), []string{"v1"})
	require.NoError(t, err)
	require.Equal(t, assets[2].BlobKey, results["v1"].RepresentativeKey)
}

func TestResolveLowestOrdinalWhenNoCover(t *testing.T) {
	store, resolver := resolverFixture()
	ref := models.GalleryRef{TenantID: "t1", OwnerID: "v1", ContextID: strPtr("storeA")}
	assets := store.seed(ref, 3, false)

	results, err := resolver.Resolve(context.Background(), "t1", strPtr("storeA"), []string{"v1"})
	require.NoError(t, err)
	require.Equal(t, assets[0].BlobKey, results["v1"].RepresentativeKey)
}

func TestResolveBatchBoundsRoundTrips(t *testing.T) {
	store, resolver := resolverFixture()
	store.seed(models.GalleryRef{TenantID: "t1", OwnerID: "v1", ContextID: strPtr("storeA")}, 1, true)
	store.seed(models.GalleryRef{TenantID: "t1", OwnerID: "v2", ContextID: strPtr("storeA")}, 1, true)
	store.seed(models.GalleryRef{TenantID: "t1", OwnerID: "v3", ContextID: strPtr("storeB")}, 1, true)

	// v1/v2 hit the batch, v3 misses, v4 has nothing anywhere. Duplicates
	// of v3 must not refetch.
	owners := []string{"v1", "v2", "v3", "v3", "v4", "v3"}
	results, err := resolver.Resolve(context.Background(), "t1", strPtr("storeA"), owners)
	require.NoError(t, err)

	require.Equal(t, 1, store.ownersCalls)
	require.Equal(t, 1, store.ownerCalls["v3"])
	require.Equal(t, 1, store.ownerCalls["v4"])
	require.Equal(t, 0, store.ownerCalls["v1"])

	require.True(t, results["v1"].HasPhoto)
	require.True(t, results["v2"].HasPhoto)
	require.True(t, results["v3"].HasPhoto)
	require.False(t, results["v4"].HasPhoto)
	require.Empty(t, results["v4"].RepresentativeKey)
}

func TestResolveSecondaryFailureDegradesToNoPhoto(t *testing.T) {
	store, resolver := resolverFixture()
	store.seed(models.GalleryRef{TenantID: "t1", OwnerID: "v1", ContextID: strPtr("storeA")}, 1, true)
	store.ownerErr["v2"] = errors.New("timeout")

	results, err := resolver.Resolve(context.Background(), "t1", strPtr("storeA"), []string{"v1", "v2"})
	require.NoError(t, err)
	require.True(t, results["v1"].HasPhoto)
	require.False(t, results["v2"].HasPhoto)
}

func TestResolveInitialBatchFailure(t *testing.T) {
	store, resolver := resolverFixture()
	store.ownersErr = errors.New("db down")

	_, err := resolver.Resolve(context.Background(), "t1", strPtr("storeA"), []string{"v1"})
	require.ErrorIs(t, err, ErrResolutionFailed)
}

func TestResolveEmptyInput(t *testing.T) {
	store, resolver := resolverFixture()

	results, err := resolver.Resolve(context.Background(), "t1", nil, nil)
	require.NoError(t, err)
	require.Empty(t, results)
	require.Equal(t, 0, store.ownersCalls)
}

func TestResolveNilContextUsesGlobalRows(t *testing.T) {
	store, resolver := resolverFixture()
	store.seed(models.GalleryRef{TenantID: "t1", OwnerID: "v1"}, 2, true)

	results, err := resolver.Resolve(context.Background(), "t1", nil, []string{"v1"})
	require.NoError(t, err)
	require.True(t, results["v1"].HasPhoto)
}
