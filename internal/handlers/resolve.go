package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dealerpix/api/internal/middleware"
)

type resolveRequest struct {
	ContextID *string  `json:"contextId"`
	OwnerIDs  []string `json:"ownerIds" binding:"required"`
}

type resolveResponse struct {
	HasPhoto          bool   `json:"hasPhoto"`
	RepresentativeKey string `json:"representativeKey,omitempty"`
	URL               string `json:"url,omitempty"`
}

// ResolveCovers answers a listing surface's batch: one representative photo
// per owner, with cross-context fallback.
func (h HandlerSet) ResolveCovers(c *gin.Context) {
	tenantID := c.GetString(middleware.TenantKey)
	if tenantID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}

	resolutions, err := h.resolver.Resolve(c.Request.Context(), tenantID, req.ContextID, req.OwnerIDs)
	if err != nil {
		h.log.Error().Err(err).Int("owners", len(req.OwnerIDs)).Msg("cover resolution failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolution_failed"})
		return
	}

	covers := make(map[string]resolveResponse, len(resolutions))
	for owner, resolution := range resolutions {
		entry := resolveResponse{HasPhoto: resolution.HasPhoto}
		if resolution.HasPhoto {
			entry.RepresentativeKey = resolution.RepresentativeKey
			entry.URL = h.blobs.PublicURL(resolution.RepresentativeKey)
		}
		covers[owner] = entry
	}

	c.JSON(http.StatusOK, gin.H{"covers": covers})
}
