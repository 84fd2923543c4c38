package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dealerpix/api/internal/gallery"
	"dealerpix/api/internal/middleware"
	"dealerpix/api/internal/models"
)

type photoResponse struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"originalFilename"`
	ContentType      string    `json:"contentType"`
	SizeBytes        int64     `json:"sizeBytes"`
	Ordinal          int       `json:"ordinal"`
	IsCover          bool      `json:"isCover"`
	URL              string    `json:"url"`
	CreatedAt        time.Time `json:"createdAt"`
}

type pendingResponse struct {
	TempID     string    `json:"tempId"`
	Filename   string    `json:"filename"`
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

func (h HandlerSet) galleryRef(c *gin.Context) (models.GalleryRef, bool) {
	tenantID := c.GetString(middleware.TenantKey)
	if tenantID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return models.GalleryRef{}, false
	}

	ref := models.GalleryRef{TenantID: tenantID, OwnerID: c.Param("owner")}
	if contextID := c.Query("context"); contextID != "" {
		ref.ContextID = &contextID
	}
	return ref, true
}

func (h HandlerSet) ListPhotos(c *gin.Context) {
	ref, ok := h.galleryRef(c)
	if !ok {
		return
	}

	assets, err := h.service.List(c.Request.Context(), ref)
	if err != nil {
		h.log.Error().Err(err).Str("owner_id", ref.OwnerID).Msg("list gallery failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}

	signed := c.Query("signed") == "true"
	photos := make([]photoResponse, 0, len(assets))
	for _, asset := range assets {
		url := h.blobs.PublicURL(asset.BlobKey)
		if signed {
			if u, err := h.blobs.SignedURL(c.Request.Context(), asset.BlobKey, h.cfg.Gallery.SignedURLTTL); err == nil {
				url = u
			}
		}
		photos = append(photos, photoResponse{
			ID:               asset.ID,
			OriginalFilename: asset.OriginalFilename,
			ContentType:      asset.ContentType,
			SizeBytes:        asset.SizeBytes,
			Ordinal:          asset.Ordinal,
			IsCover:          asset.IsCover,
			URL:              url,
			CreatedAt:        asset.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"photos": photos})
}

func (h HandlerSet) UploadPhotos(c *gin.Context) {
	ref, ok := h.galleryRef(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart_required"})
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "files_required"})
		return
	}

	files := make([]gallery.FileInput, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable_file"})
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable_file"})
			return
		}
		files = append(files, gallery.FileInput{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	result, err := h.uploader.Enqueue(c.Request.Context(), ref, files)
	if errors.Is(err, gallery.ErrAdmissionDenied) {
		c.JSON(http.StatusConflict, gin.H{"error": "gallery_full", "limitReached": true})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("owner_id", ref.OwnerID).Msg("enqueue failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue_failed"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"pending":      pendingResponses(result.Accepted),
		"limitReached": result.LimitReached,
	})
}

func (h HandlerSet) ListPending(c *gin.Context) {
	ref, ok := h.galleryRef(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": pendingResponses(h.uploader.Pending(ref))})
}

func (h HandlerSet) CancelPending(c *gin.Context) {
	ref, ok := h.galleryRef(c)
	if !ok {
		return
	}

	switch err := h.uploader.Cancel(ref, c.Param("tempId")); {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, gallery.ErrPendingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "pending_not_found"})
	case errors.Is(err, gallery.ErrCancelNotAllowed):
		c.JSON(http.StatusConflict, gin.H{"error": "cancel_not_allowed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h HandlerSet) DismissPending(c *gin.Context) {
	ref, ok := h.galleryRef(c)
	if !ok {
		return
	}

	if err := h.uploader.Dismiss(ref, c.Param("tempId")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "pending_not_found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) RemovePhoto(c *gin.Context) {
	ref, ok := h.galleryRef(c)
	if !ok {
		return
	}

	err := h.service.Remove(c.Request.Context(), ref, c.Param("id"))
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, gallery.ErrAssetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "asset_not_found"})
	default:
		h.log.Error().Err(err).Str("asset_id", c.Param("id")).Msg("remove failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "removal_failed"})
	}
}

func (h HandlerSet) SetCover(c *gin.Context) {
	ref, ok := h.galleryRef(c)
	if !ok {
		return
	}

	err := h.service.SetCover(c.Request.Context(), ref, c.Param("id"))
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, gallery.ErrAssetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "asset_not_found"})
	default:
		h.log.Error().Err(err).Str("asset_id", c.Param("id")).Msg("set cover failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "set_cover_failed"})
	}
}

type reorderRequest struct {
	MovedID     string   `json:"movedId"`
	TargetIndex *int     `json:"targetIndex"`
	OrderedIDs  []string `json:"orderedIds"`
}

func (h HandlerSet) ReorderPhotos(c *gin.Context) {
	ref, ok := h.galleryRef(c)
	if !ok {
		return
	}

	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}

	var err error
	switch {
	case len(req.OrderedIDs) > 0:
		err = h.service.ApplyOrder(c.Request.Context(), ref, req.OrderedIDs)
	case req.MovedID != "" && req.TargetIndex != nil:
		err = h.service.Move(c.Request.Context(), ref, req.MovedID, *req.TargetIndex)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}

	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, gallery.ErrAssetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "asset_not_found"})
	case errors.Is(err, gallery.ErrReorderFailed):
		// Client-side ordinals are stale; the caller refetches the listing.
		c.JSON(http.StatusConflict, gin.H{"error": "reorder_rejected"})
	default:
		h.log.Error().Err(err).Str("owner_id", ref.OwnerID).Msg("reorder failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reorder_failed"})
	}
}

func pendingResponses(entries []models.PendingUpload) []pendingResponse {
	out := make([]pendingResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, pendingResponse{
			TempID:     entry.TempID,
			Filename:   entry.Filename,
			Status:     string(entry.Status),
			Message:    entry.Message,
			EnqueuedAt: entry.EnqueuedAt,
		})
	}
	return out
}
