package models

import "time"

type PendingStatus string

const (
	PendingStatusQueued      PendingStatus = "queued"
	PendingStatusUploading   PendingStatus = "uploading"
	PendingStatusRegistering PendingStatus = "registering"
	PendingStatusDone        PendingStatus = "done"
	PendingStatusError       PendingStatus = "error"
	PendingStatusCanceled    PendingStatus = "canceled"
)

// Terminal reports whether the status no longer counts against gallery
// capacity.
func (s PendingStatus) Terminal() bool {
	return s == PendingStatusDone || s == PendingStatusError || s == PendingStatusCanceled
}

// Cancelable reports whether a cancel request is still legal: only before
// registration has started.
func (s PendingStatus) Cancelable() bool {
	return s == PendingStatusQueued || s == PendingStatusUploading
}

// PendingUpload tracks one submitted file from enqueue until it either
// becomes a PhotoAsset or terminates with error/canceled. It never touches
// the metadata backend itself.
type PendingUpload struct {
	TempID      string
	Gallery     GalleryRef
	Filename    string
	ContentType string
	SizeBytes   int64
	Status      PendingStatus
	Message     string
	EnqueuedAt  time.Time
}
