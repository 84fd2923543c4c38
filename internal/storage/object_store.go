package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"dealerpix/api/internal/config"
	"dealerpix/api/internal/models"
)

// ObjectStore is the minio-backed blob store. Originals live under
// hierarchical keys so a tenant's data is one prefix.
type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.Bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.Bucket, err)
		}
	}
	return nil
}

// Healthy verifies the bucket is reachable; used by the health endpoint.
func (s *ObjectStore) Healthy(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.cfg.Bucket); err != nil {
		return fmt.Errorf("bucket check: %w", err)
	}
	return nil
}

func (s *ObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *ObjectStore) Delete(ctx context.Context, keys []string) error {
	for _, key := range keys {
		if err := s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove object %s: %w", key, err)
		}
	}
	return nil
}

func (s *ObjectStore) PublicURL(key string) string {
	base := strings.TrimSuffix(s.cfg.Endpoint, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/%s/%s", base, s.cfg.Bucket, key)
}

func (s *ObjectStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.cfg.Bucket, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

// PhotoKey builds {tenant}/{context|_}/{owner}/{uuid}.{ext}. The underscore
// segment keeps context-independent photos addressable under one prefix.
func (s *ObjectStore) PhotoKey(ref models.GalleryRef, filename string) string {
	return PhotoKey(ref, filename)
}

func PhotoKey(ref models.GalleryRef, filename string) string {
	contextSegment := "_"
	if ref.ContextID != nil {
		contextSegment = *ref.ContextID
	}
	return path.Join(ref.TenantID, contextSegment, ref.OwnerID, uuid.NewString()+extension(filename))
}

// DocumentKey builds the dated, typed layout used by document-style
// galleries: {tenant}/{context}/{owner}/{yyyy}/{mm}/{dd}/{assetType}/{uuid}-{filename}.
func DocumentKey(ref models.GalleryRef, assetType, filename string, now time.Time) string {
	contextSegment := "_"
	if ref.ContextID != nil {
		contextSegment = *ref.ContextID
	}
	datePrefix := now.UTC().Format("2006/01/02")
	return path.Join(ref.TenantID, contextSegment, ref.OwnerID, datePrefix, assetType, uuid.NewString()+"-"+path.Base(filename))
}

func extension(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		return ".bin"
	}
	return ext
}
