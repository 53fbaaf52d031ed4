package viewmodels

import (
	internalmodels "github.com/adampresley/photogallery/cmd/gallery/internal/models"
)

type GalleryPage struct {
	BaseViewModel

	Images         []internalmodels.Image
	NumFavorites   int
	MaxFavorites   int
	FavoritesFull  bool
	UploadInFlight bool
}
