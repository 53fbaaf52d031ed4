package stores

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/adamgokit/s3/createbucketoptions"
	"github.com/adampresley/adamgokit/s3/geturloptions"
	"github.com/adampresley/adamgokit/s3/listoptions"
	"github.com/adampresley/photogallery/pkg/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3BlobStoreConfig struct {
	Bucket        string
	EndpointURL   string
	PublicBaseURL string
	Region        string
	S3Client      s3.S3Client
	URLExpiration time.Duration
}

/*
S3BlobStore stores images in an S3 bucket. Locators are path style URLs
on the endpoint, or on the public base URL when one is configured.
Without a public base URL, locators are presigned for display.
*/
type S3BlobStore struct {
	baseURL       string
	bucket        string
	presign       bool
	region        string
	s3Client      s3.S3Client
	urlExpiration time.Duration
}

func NewS3BlobStore(config S3BlobStoreConfig) (S3BlobStore, error) {
	var (
		err     error
		baseURL string
	)

	if config.URLExpiration <= 0 {
		config.URLExpiration = time.Hour
	}

	baseURL = config.PublicBaseURL

	if baseURL == "" {
		endpoint := config.EndpointURL

		if endpoint == "" {
			endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", config.Region)
		}

		if baseURL, err = bucketBaseURL(endpoint, config.Bucket); err != nil {
			return S3BlobStore{}, err
		}
	}

	return S3BlobStore{
		baseURL:       baseURL,
		bucket:        config.Bucket,
		presign:       config.PublicBaseURL == "",
		region:        config.Region,
		s3Client:      config.S3Client,
		urlExpiration: config.URLExpiration,
	}, nil
}

func (s S3BlobStore) EnsureBucketExists() error {
	var (
		err    error
		exists bool
	)

	if exists, err = s.s3Client.BucketExists(s.bucket); err != nil {
		return fmt.Errorf("error ensuring bucket '%s' exists: %w", s.bucket, err)
	}

	if exists {
		return nil
	}

	slog.Info("creating bucket", "bucketName", s.bucket)

	if err = s.s3Client.CreateBucket(s.bucket, createbucketoptions.WithRegion(s.region)); err != nil {
		return fmt.Errorf("error creating bucket '%s': %w", s.bucket, err)
	}

	return nil
}

/*
List returns the objects directly under prefix. Objects in deeper
folders, such as generated thumbnails, are skipped.
*/
func (s S3BlobStore) List(ctx context.Context, prefix string) ([]models.BlobRef, error) {
	var (
		err      error
		response s3.ListResponse
	)

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	folder := folderOf(prefix)

	response, err = s.s3Client.List(
		s.bucket,
		folder,
		listoptions.WithGetAll(),
		listoptions.WithFilter(func(obj types.Object) bool {
			return isDirectChild(folder, aws.ToString(obj.Key))
		}),
	)

	if err != nil {
		return nil, fmt.Errorf("error listing objects in '%s/%s': %w", s.bucket, folder, err)
	}

	result := make([]models.BlobRef, 0, len(response.Objects))

	for _, obj := range response.Objects {
		result = append(result, models.BlobRef{
			Name: strings.TrimPrefix(obj.Key, folder),
			Key:  obj.Key,
		})
	}

	return result, nil
}

func (s S3BlobStore) Write(ctx context.Context, key string, blob models.FileBlob) (models.BlobRef, error) {
	var (
		err error
	)

	if err = ctx.Err(); err != nil {
		return models.BlobRef{}, err
	}

	if _, err = s.s3Client.Put(s.bucket, key, bytes.NewReader(blob.Data)); err != nil {
		return models.BlobRef{}, fmt.Errorf("error putting object '%s/%s': %w", s.bucket, key, err)
	}

	return refForKey(key), nil
}

func (s S3BlobStore) ResolveURL(ctx context.Context, ref models.BlobRef) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return publicURL(s.baseURL, ref.Key)
}

func (s S3BlobStore) SignURL(ctx context.Context, locator string) (string, error) {
	var (
		err error
		key string
		u   string
	)

	if !s.presign {
		return locator, nil
	}

	if key, err = keyFromURL(s.baseURL, locator); err != nil {
		return "", err
	}

	u, err = s.s3Client.GetUrl(
		s.bucket,
		key,
		geturloptions.WithContext(ctx),
		geturloptions.WithExpiration(s.urlExpiration),
	)

	if err != nil {
		return "", fmt.Errorf("error getting URL for '%s/%s': %w", s.bucket, key, err)
	}

	return u, nil
}
