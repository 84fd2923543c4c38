package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dealerpix/api/internal/cache"
	"dealerpix/api/internal/config"
	"dealerpix/api/internal/gallery"
	"dealerpix/api/internal/middleware"
	"dealerpix/api/internal/repository"
	"dealerpix/api/internal/storage"
)

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	db       *pgxpool.Pool
	cache    *redis.Client
	blobs    *storage.ObjectStore
	uploader *gallery.Uploader
	service  *gallery.Service
	resolver *gallery.Resolver
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, redisClient *redis.Client, blobs *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	assetRepo := repository.NewAssetRepository(db)
	listings := cache.NewListingCache(redisClient, cfg.Gallery.ListingTTL, log)
	orphans := cache.NewOrphanRecorder(redisClient, cfg.Sweep.OrphanSet, log)

	uploader := gallery.NewUploader(assetRepo, blobs, listings, orphans, cfg.Gallery.MaxAssets, log)
	service := gallery.NewService(assetRepo, blobs, listings, orphans, log)
	resolver := gallery.NewResolver(assetRepo, log)

	return HandlerSet{
		log:      log,
		cfg:      cfg,
		db:       db,
		cache:    redisClient,
		blobs:    blobs,
		uploader: uploader,
		service:  service,
		resolver: resolver,
	}
}

// Uploader exposes the orchestrator so main can drain in-flight uploads on
// shutdown.
func (h HandlerSet) Uploader() *gallery.Uploader {
	return h.uploader
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	v1.Use(middleware.TenantAuth(h.cfg))

	photos := v1.Group("/galleries/:owner/photos")
	{
		photos.GET("", h.ListPhotos)
		photos.POST("", h.UploadPhotos)
		photos.GET("/pending", h.ListPending)
		photos.POST("/pending/:tempId/cancel", h.CancelPending)
		photos.DELETE("/pending/:tempId", h.DismissPending)
		photos.PUT("/order", h.ReorderPhotos)
		photos.PUT("/:id/cover", h.SetCover)
		photos.DELETE("/:id", h.RemovePhoto)
	}

	v1.POST("/covers/resolve", h.ResolveCovers)
}
