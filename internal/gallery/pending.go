package gallery

import (
	"sync"

	"dealerpix/api/internal/models"
)

// pendingSet is the in-process collection of uploads that have been
// submitted but not yet registered. All mutation goes through per-entity
// transitions so concurrently completing tasks can never clobber each
// other; the collection itself is only ever touched under the mutex.
type pendingSet struct {
	mu      sync.Mutex
	entries map[string]*models.PendingUpload
	order   []string // most recently submitted first
}

func newPendingSet() *pendingSet {
	return &pendingSet{entries: make(map[string]*models.PendingUpload)}
}

// reserve admits as many of the candidates as the gallery has capacity for
// and inserts them as queued, all under one lock acquisition so the
// first-photo decision and the capacity check see a consistent snapshot.
// firstEver is true when the gallery had zero persisted assets and zero
// live pending entries at the moment of reservation.
func (s *pendingSet) reserve(ref models.GalleryRef, persisted, maxAssets int, candidates []models.PendingUpload) (accepted []models.PendingUpload, firstEver, limitReached bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.liveCountLocked(ref)
	allowed := Admit(persisted, live, len(candidates), maxAssets)
	limitReached = allowed < len(candidates)
	firstEver = persisted == 0 && live == 0

	for i := 0; i < allowed; i++ {
		entry := candidates[i]
		entry.Status = models.PendingStatusQueued
		stored := entry
		s.entries[entry.TempID] = &stored
		s.order = append([]string{entry.TempID}, s.order...)
		accepted = append(accepted, entry)
	}
	return accepted, firstEver, limitReached
}

func (s *pendingSet) liveCountLocked(ref models.GalleryRef) int {
	count := 0
	for _, entry := range s.entries {
		if sameGallery(entry.Gallery, ref) && !entry.Status.Terminal() {
			count++
		}
	}
	return count
}

// transition advances exactly one entry, and only along a legal edge of
// the status machine. It returns the updated entry and whether the
// transition was applied; callers discard their work when it was not
// (e.g. an upload completing after a cancel).
func (s *pendingSet) transition(tempID string, to models.PendingStatus, message string) (models.PendingUpload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[tempID]
	if !ok || !legalTransition(entry.Status, to) {
		return models.PendingUpload{}, false
	}
	entry.Status = to
	entry.Message = message
	return *entry, true
}

func legalTransition(from, to models.PendingStatus) bool {
	switch to {
	case models.PendingStatusUploading:
		return from == models.PendingStatusQueued
	case models.PendingStatusRegistering:
		return from == models.PendingStatusUploading
	case models.PendingStatusDone:
		return from == models.PendingStatusRegistering
	case models.PendingStatusError:
		return from == models.PendingStatusUploading || from == models.PendingStatusRegistering
	case models.PendingStatusCanceled:
		return from.Cancelable()
	default:
		return false
	}
}

func (s *pendingSet) get(tempID string) (models.PendingUpload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[tempID]
	if !ok {
		return models.PendingUpload{}, false
	}
	return *entry, true
}

func (s *pendingSet) remove(tempID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(tempID)
}

func (s *pendingSet) removeLocked(tempID string) {
	delete(s.entries, tempID)
	for i, id := range s.order {
		if id == tempID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// dismiss drops a terminally failed or canceled entry, the manual action
// behind the error indicator. Entries still in flight stay.
func (s *pendingSet) dismiss(tempID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[tempID]
	if !ok || !entry.Status.Terminal() {
		return false
	}
	s.removeLocked(tempID)
	return true
}

func (s *pendingSet) snapshot(ref models.GalleryRef) []models.PendingUpload {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.PendingUpload
	for _, id := range s.order {
		if entry, ok := s.entries[id]; ok && sameGallery(entry.Gallery, ref) {
			out = append(out, *entry)
		}
	}
	return out
}

func sameGallery(a, b models.GalleryRef) bool {
	if a.TenantID != b.TenantID || a.OwnerID != b.OwnerID {
		return false
	}
	if (a.ContextID == nil) != (b.ContextID == nil) {
		return false
	}
	return a.ContextID == nil || *a.ContextID == *b.ContextID
}
