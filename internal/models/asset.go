package models

import "time"

// MaxGalleryAssets caps the live size of a gallery: persisted assets plus
// pending uploads that have not terminated.
const MaxGalleryAssets = 30

// GalleryRef scopes every gallery operation. ContextID nil means the asset
// is context-independent (visible from any store context).
type GalleryRef struct {
	TenantID  string
	OwnerID   string
	ContextID *string
}

type PhotoAsset struct {
	ID               string
	TenantID         string
	OwnerID          string
	ContextID        *string
	BlobKey          string
	OriginalFilename string
	ContentType      string
	SizeBytes        int64
	Ordinal          int
	IsCover          bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AssetDescriptor is what registration submits; Ordinal and IsCover are
// hints that the metadata backend may override under its gallery lock.
type AssetDescriptor struct {
	BlobKey          string
	OriginalFilename string
	ContentType      string
	SizeBytes        int64
	Ordinal          int
	IsCover          bool
}

type OrdinalAssignment struct {
	ID      string
	Ordinal int
}

// Resolution is the per-owner outcome of a cover resolution pass.
type Resolution struct {
	HasPhoto          bool
	RepresentativeKey string
}
