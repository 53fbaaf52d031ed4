package stores

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/adampresley/photogallery/pkg/models"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioBlobStoreConfig struct {
	AccessKey     string
	Bucket        string
	Endpoint      string
	PublicBaseURL string
	Region        string
	SecretKey     string
	URLExpiration time.Duration
	UseSSL        bool
}

/*
MinioBlobStore stores images in any S3 compatible service reachable with
the MinIO client. Locators are built the same way as for S3BlobStore.
*/
type MinioBlobStore struct {
	baseURL       string
	bucket        string
	client        *minio.Client
	presign       bool
	region        string
	urlExpiration time.Duration
}

func NewMinioBlobStore(config MinioBlobStoreConfig) (*MinioBlobStore, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})

	if err != nil {
		return nil, fmt.Errorf("error creating minio client for '%s': %w", config.Endpoint, err)
	}

	if config.URLExpiration <= 0 {
		config.URLExpiration = time.Hour
	}

	baseURL := config.PublicBaseURL

	if baseURL == "" {
		if baseURL, err = bucketBaseURL(client.EndpointURL().String(), config.Bucket); err != nil {
			return nil, err
		}
	}

	return &MinioBlobStore{
		baseURL:       baseURL,
		bucket:        config.Bucket,
		client:        client,
		presign:       config.PublicBaseURL == "",
		region:        config.Region,
		urlExpiration: config.URLExpiration,
	}, nil
}

func (s *MinioBlobStore) EnsureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)

	if err != nil {
		return fmt.Errorf("error ensuring bucket '%s' exists: %w", s.bucket, err)
	}

	if exists {
		return nil
	}

	slog.Info("creating bucket", "bucketName", s.bucket)

	if err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("error creating bucket '%s': %w", s.bucket, err)
	}

	return nil
}

func (s *MinioBlobStore) List(ctx context.Context, prefix string) ([]models.BlobRef, error) {
	folder := folderOf(prefix)
	result := []models.BlobRef{}

	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    folder,
		Recursive: false,
	})

	for obj := range objects {
		if obj.Err != nil {
			return nil, fmt.Errorf("error listing objects in '%s/%s': %w", s.bucket, folder, obj.Err)
		}

		if !isDirectChild(folder, obj.Key) {
			continue
		}

		result = append(result, models.BlobRef{
			Name: strings.TrimPrefix(obj.Key, folder),
			Key:  obj.Key,
		})
	}

	return result, nil
}

func (s *MinioBlobStore) Write(ctx context.Context, key string, blob models.FileBlob) (models.BlobRef, error) {
	_, err := s.client.PutObject(
		ctx,
		s.bucket,
		key,
		bytes.NewReader(blob.Data),
		int64(len(blob.Data)),
		minio.PutObjectOptions{ContentType: blob.ContentType},
	)

	if err != nil {
		return models.BlobRef{}, fmt.Errorf("error putting object '%s/%s': %w", s.bucket, key, err)
	}

	return refForKey(key), nil
}

func (s *MinioBlobStore) ResolveURL(ctx context.Context, ref models.BlobRef) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return publicURL(s.baseURL, ref.Key)
}

func (s *MinioBlobStore) SignURL(ctx context.Context, locator string) (string, error) {
	if !s.presign {
		return locator, nil
	}

	key, err := keyFromURL(s.baseURL, locator)

	if err != nil {
		return "", err
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.urlExpiration, url.Values{})

	if err != nil {
		return "", fmt.Errorf("error presigning URL for '%s/%s': %w", s.bucket, key, err)
	}

	return u.String(), nil
}
