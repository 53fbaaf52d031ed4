package services

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/adampresley/photogallery/pkg/models"
)

const (
	DefaultPacingDelay = 3000 * time.Millisecond
)

type UploadServicer interface {
	Submit(ctx context.Context, selection models.FileSelection) error
	Validate(files []models.FileBlob) error
}

type UploadServiceConfig struct {
	BlobStore      BlobStorer
	CatalogService CatalogServicer
	ImagePrefix    string
	Notifier       Notifier
	OnUploaded     func(image models.Image)
	PacingDelay    time.Duration
}

type UploadService struct {
	blobStore      BlobStorer
	catalogService CatalogServicer
	imagePrefix    string
	notifier       Notifier
	onUploaded     func(image models.Image)
	pacingDelay    time.Duration
}

func NewUploadService(config UploadServiceConfig) UploadService {
	if config.PacingDelay <= 0 {
		config.PacingDelay = DefaultPacingDelay
	}

	return UploadService{
		blobStore:      config.BlobStore,
		catalogService: config.CatalogService,
		imagePrefix:    config.ImagePrefix,
		notifier:       config.Notifier,
		onUploaded:     config.OnUploaded,
		pacingDelay:    config.PacingDelay,
	}
}

/*
Validate checks a batch before anything is written. An empty batch is
ErrNoFilesSelected. A file whose name cannot be used as an object name
fails the batch with an UploadFailedError.
*/
func (s UploadService) Validate(files []models.FileBlob) error {
	if len(files) == 0 {
		return models.ErrNoFilesSelected
	}

	for _, file := range files {
		if _, ok := objectName(file.Name); !ok {
			return &models.UploadFailedError{Name: file.Name, Err: models.ErrInvalidFileName}
		}
	}

	return nil
}

/*
Submit writes the selected files one at a time under the image prefix,
keyed by file name. Existing objects with the same name are overwritten.
Each written file is added to the catalog right away, and the next file
starts only after the pacing delay. The first failure stops the batch;
files already written stay written. On success the selection is reset
and an upload notification is raised.
*/
func (s UploadService) Submit(ctx context.Context, selection models.FileSelection) error {
	var (
		err error
		ref models.BlobRef
		u   string
	)

	files := selection.Files()

	if err = s.Validate(files); err != nil {
		return err
	}

	l := slog.With("prefix", s.imagePrefix, "numFiles", len(files))
	l.Info("starting upload batch")

	for index, file := range files {
		if index > 0 {
			if err = s.pace(ctx); err != nil {
				return err
			}
		}

		name, _ := objectName(file.Name)
		key := path.Join(s.imagePrefix, name)

		if ref, err = s.blobStore.Write(ctx, key, file); err != nil {
			return &models.UploadFailedError{Name: name, Err: fmt.Errorf("error writing '%s': %w", key, err)}
		}

		if u, err = s.blobStore.ResolveURL(ctx, ref); err != nil {
			return &models.UploadFailedError{Name: name, Err: fmt.Errorf("error resolving URL for '%s': %w", key, err)}
		}

		if err = ctx.Err(); err != nil {
			return err
		}

		image := models.Image{
			Name:         name,
			URL:          u,
			ThumbnailURL: ResolveThumbnailURL(u, name),
		}

		s.catalogService.AppendLocal(image)

		if s.onUploaded != nil {
			s.onUploaded(image)
		}

		l.Info("uploaded image", "name", name, "key", key)
	}

	selection.Reset()

	if s.notifier != nil {
		s.notifier.Notify(models.NotificationUploadSucceeded, "Photo upload complete")
	}

	l.Info("upload batch complete")
	return nil
}

func (s UploadService) pace(ctx context.Context) error {
	timer := time.NewTimer(s.pacingDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()

	case <-timer.C:
		return nil
	}
}

func objectName(fileName string) (string, bool) {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))

	if name == "" || name == "." || name == "/" || name == ".." {
		return "", false
	}

	return name, true
}
