package models

import (
	"github.com/adampresley/adamgokit/slices"
	"github.com/adampresley/photogallery/pkg/models"
)

/*
Image is one grid entry. URL is the canonical locator used to toggle the
favorite. OriginalURL and ThumbnailURL are what the browser loads.
*/
type Image struct {
	Name         string
	URL          string
	OriginalURL  string
	ThumbnailURL string
	IsFavorite   bool
}

func NewImages(catalog models.Catalog, favorites models.FavoriteSet) []Image {
	return slices.Map(catalog, func(img models.Image, index int) Image {
		return Image{
			Name:         img.Name,
			URL:          img.URL,
			OriginalURL:  img.URL,
			ThumbnailURL: img.ThumbnailURL,
			IsFavorite:   favorites.Contains(img.URL),
		}
	})
}
