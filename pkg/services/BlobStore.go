package services

import (
	"context"

	"github.com/adampresley/photogallery/pkg/models"
)

/*
BlobStorer is the remote object store holding the original images.
ResolveURL returns the canonical locator of an object. It never carries
credentials and stays the same for the life of the object, so it can be
stored as a favorite.
*/
type BlobStorer interface {
	List(ctx context.Context, prefix string) ([]models.BlobRef, error)
	Write(ctx context.Context, key string, blob models.FileBlob) (models.BlobRef, error)
	ResolveURL(ctx context.Context, ref models.BlobRef) (string, error)
}

/*
URLSigner turns a canonical locator into one a browser can fetch. Signed
URLs expire and change on every call, so they are only used for display.
*/
type URLSigner interface {
	SignURL(ctx context.Context, locator string) (string, error)
}

/*
FavoriteStorer is a path addressed key-value store. ReadAll returns
models.ErrFavoritesPathAbsent when nothing exists under path.
*/
type FavoriteStorer interface {
	ReadAll(ctx context.Context, path string) (map[string]models.FavoriteEntry, error)
	Append(ctx context.Context, path string, entry models.FavoriteEntry) (string, error)
	Delete(ctx context.Context, path, key string) error
}
