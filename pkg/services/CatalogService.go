package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/adampresley/photogallery/pkg/models"
	"github.com/alitto/pond/v2"
)

const (
	defaultResolveWorkers = 10
)

type CatalogServicer interface {
	AppendLocal(image models.Image)
	Current() models.Catalog
	Load(ctx context.Context) (models.Catalog, error)
}

type CatalogServiceConfig struct {
	BlobStore    BlobStorer
	ImagePrefix  string
	ResolverPool pond.Pool
}

type CatalogService struct {
	blobStore    BlobStorer
	imagePrefix  string
	resolverPool pond.Pool
	state        *catalogState
}

type catalogState struct {
	sync.RWMutex
	images models.Catalog
}

func NewCatalogService(config CatalogServiceConfig) CatalogService {
	if config.ResolverPool == nil {
		config.ResolverPool = pond.NewPool(defaultResolveWorkers)
	}

	return CatalogService{
		blobStore:    config.BlobStore,
		imagePrefix:  config.ImagePrefix,
		resolverPool: config.ResolverPool,
		state:        &catalogState{images: models.Catalog{}},
	}
}

/*
Load lists every image under the image prefix, sorts them by name and
resolves their URLs. Any failure aborts the whole load and the catalog
held in memory is left as it was.
*/
func (s CatalogService) Load(ctx context.Context) (models.Catalog, error) {
	var (
		err  error
		refs []models.BlobRef
	)

	l := slog.With("prefix", s.imagePrefix)

	if refs, err = s.blobStore.List(ctx, s.imagePrefix); err != nil {
		return nil, fmt.Errorf("%w: error listing images under '%s': %w", models.ErrCatalogLoadFailed, s.imagePrefix, err)
	}

	refs = sortAndDedupe(refs)
	images := make(models.Catalog, len(refs))
	group := s.resolverPool.NewGroup()

	for index, ref := range refs {
		group.SubmitErr(func() error {
			u, err := s.blobStore.ResolveURL(ctx, ref)

			if err != nil {
				return fmt.Errorf("error resolving URL for '%s': %w", ref.Key, err)
			}

			images[index] = models.Image{
				Name:         ref.Name,
				URL:          u,
				ThumbnailURL: ResolveThumbnailURL(u, ref.Name),
			}

			return nil
		})
	}

	if err = group.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrCatalogLoadFailed, err)
	}

	if err = ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrCatalogLoadFailed, err)
	}

	s.state.Lock()
	s.state.images = images
	s.state.Unlock()

	l.Debug("catalog loaded", "numImages", len(images))
	return slices.Clone(images), nil
}

/*
AppendLocal places image into the in-memory catalog at its sorted
position. An image with the same name replaces the existing entry, since
the upload overwrote the object.
*/
func (s CatalogService) AppendLocal(image models.Image) {
	s.state.Lock()
	defer s.state.Unlock()

	images := s.state.images
	index := sort.Search(len(images), func(i int) bool {
		return images[i].Name > image.Name
	})

	if index > 0 && images[index-1].Name == image.Name {
		images[index-1] = image
		return
	}

	s.state.images = slices.Insert(images, index, image)
}

/*
Current returns a copy of the catalog held in memory.
*/
func (s CatalogService) Current() models.Catalog {
	s.state.RLock()
	defer s.state.RUnlock()

	return slices.Clone(s.state.images)
}

func sortAndDedupe(refs []models.BlobRef) []models.BlobRef {
	sorted := slices.Clone(refs)

	slices.SortStableFunc(sorted, func(a, b models.BlobRef) int {
		return strings.Compare(a.Name, b.Name)
	})

	return slices.CompactFunc(sorted, func(a, b models.BlobRef) bool {
		return a.Name == b.Name
	})
}
