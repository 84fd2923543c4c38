package gallery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dealerpix/api/internal/ids"
	"dealerpix/api/internal/models"
)

// FileInput is one file offered for upload. Bytes are already in memory;
// format normalization happens upstream.
type FileInput struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EnqueueResult reports what a submission produced. Files beyond capacity
// are dropped silently apart from the single LimitReached flag.
type EnqueueResult struct {
	Accepted     []models.PendingUpload
	LimitReached bool
}

// Uploader drives one state machine per submitted file: queued → uploading
// (blob write) → registering (metadata add) → done. Tasks run concurrently
// and independently; one file failing never touches its siblings.
type Uploader struct {
	assets    AssetStore
	blobs     BlobStore
	cache     ListingCache
	orphans   OrphanRecorder
	pending   *pendingSet
	maxAssets int
	log       zerolog.Logger

	wg sync.WaitGroup
}

func NewUploader(assets AssetStore, blobs BlobStore, cache ListingCache, orphans OrphanRecorder, maxAssets int, log zerolog.Logger) *Uploader {
	if maxAssets <= 0 {
		maxAssets = models.MaxGalleryAssets
	}
	return &Uploader{
		assets:    assets,
		blobs:     blobs,
		cache:     cache,
		orphans:   orphans,
		pending:   newPendingSet(),
		maxAssets: maxAssets,
		log:       log,
	}
}

// Enqueue admits the batch against remaining capacity, creates one pending
// entry per accepted file and spawns its upload task. It returns as soon as
// the entries exist; progress is observable through Pending.
func (u *Uploader) Enqueue(ctx context.Context, ref models.GalleryRef, files []FileInput) (EnqueueResult, error) {
	if len(files) == 0 {
		return EnqueueResult{}, nil
	}

	persisted, err := u.assets.Count(ctx, ref)
	if err != nil {
		return EnqueueResult{}, fmt.Errorf("count gallery: %w", err)
	}

	now := time.Now().UTC()
	candidates := make([]models.PendingUpload, len(files))
	for i, file := range files {
		candidates[i] = models.PendingUpload{
			TempID:      ids.New(),
			Gallery:     ref,
			Filename:    file.Filename,
			ContentType: file.ContentType,
			SizeBytes:   int64(len(file.Data)),
			EnqueuedAt:  now,
		}
	}

	accepted, firstEver, limitReached := u.pending.reserve(ref, persisted, u.maxAssets, candidates)
	if len(accepted) == 0 && limitReached {
		return EnqueueResult{LimitReached: true}, ErrAdmissionDenied
	}
	if limitReached {
		u.log.Info().
			Str("owner_id", ref.OwnerID).
			Int("requested", len(files)).
			Int("accepted", len(accepted)).
			Msg("gallery capacity reached, batch truncated")
	}

	for i, entry := range accepted {
		task := uploadTask{
			entry:      entry,
			file:       files[i],
			ordinal:    persisted + i + 1,
			wantsCover: firstEver && i == 0,
		}
		u.wg.Add(1)
		go u.run(task)
	}

	return EnqueueResult{Accepted: accepted, LimitReached: limitReached}, nil
}

type uploadTask struct {
	entry      models.PendingUpload
	file       FileInput
	ordinal    int
	wantsCover bool
}

// run executes one upload task to a terminal state. It deliberately uses a
// background context: the submitting request may end long before the blob
// write does, and cancellation is cooperative state-flipping, not a hard
// abort of the in-flight call.
func (u *Uploader) run(task uploadTask) {
	defer u.wg.Done()

	ctx := context.Background()
	ref := task.entry.Gallery
	tempID := task.entry.TempID

	if _, ok := u.pending.transition(tempID, models.PendingStatusUploading, ""); !ok {
		return // canceled while queued
	}

	key := u.blobs.PhotoKey(ref, task.file.Filename)
	if err := u.blobs.Put(ctx, key, task.file.Data, task.file.ContentType); err != nil {
		u.log.Error().Err(err).Str("temp_id", tempID).Str("blob_key", key).Msg("blob upload failed")
		u.pending.transition(tempID, models.PendingStatusError, fmt.Sprintf("%s: %v", ErrUploadFailed, err))
		return
	}

	if _, ok := u.pending.transition(tempID, models.PendingStatusRegistering, ""); !ok {
		// Canceled mid-upload: the write completed anyway, so the blob is
		// now unreferenced and goes to the sweep.
		u.orphans.Record(ctx, key)
		return
	}

	descriptor := models.AssetDescriptor{
		BlobKey:          key,
		OriginalFilename: task.file.Filename,
		ContentType:      task.file.ContentType,
		SizeBytes:        int64(len(task.file.Data)),
		Ordinal:          task.ordinal,
		IsCover:          task.wantsCover,
	}
	if err := u.assets.Add(ctx, ref, []models.AssetDescriptor{descriptor}); err != nil {
		u.log.Error().Err(err).Str("temp_id", tempID).Str("blob_key", key).Msg("registration failed, blob orphaned")
		u.orphans.Record(ctx, key)
		u.pending.transition(tempID, models.PendingStatusError, fmt.Sprintf("%s: %v", ErrRegistrationFailed, err))
		return
	}

	if _, ok := u.pending.transition(tempID, models.PendingStatusDone, ""); ok {
		u.pending.remove(tempID)
	}
	u.cache.Invalidate(ctx, ref)
}

// Cancel flips a pending upload to canceled. Only legal before registration
// has started; an already-dispatched blob write still completes and its
// result is discarded. A temp id belonging to a different gallery reads as
// not found, so one tenant can never touch another's entries.
func (u *Uploader) Cancel(ref models.GalleryRef, tempID string) error {
	entry, ok := u.pending.get(tempID)
	if !ok || !sameGallery(entry.Gallery, ref) {
		return ErrPendingNotFound
	}
	if !entry.Status.Cancelable() {
		return ErrCancelNotAllowed
	}
	if _, ok := u.pending.transition(tempID, models.PendingStatusCanceled, ""); !ok {
		return ErrCancelNotAllowed
	}
	return nil
}

// Dismiss removes a terminally failed or canceled entry from the pending
// view. There are no automatic retries. Scoped like Cancel.
func (u *Uploader) Dismiss(ref models.GalleryRef, tempID string) error {
	entry, ok := u.pending.get(tempID)
	if !ok || !sameGallery(entry.Gallery, ref) {
		return ErrPendingNotFound
	}
	if !u.pending.dismiss(tempID) {
		return ErrPendingNotFound
	}
	return nil
}

// Pending returns the gallery's in-flight entries, most recently submitted
// first. Display ordering only; unrelated to persisted ordinals.
func (u *Uploader) Pending(ref models.GalleryRef) []models.PendingUpload {
	return u.pending.snapshot(ref)
}

// Drain blocks until every spawned upload task has reached a terminal
// state. Used on shutdown and in tests.
func (u *Uploader) Drain() {
	u.wg.Wait()
}
