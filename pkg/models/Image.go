package models

/*
Image is a single photo in the gallery. Name is the object name relative
to the image prefix and is unique within a catalog. URL is the canonical
fetch locator. ThumbnailURL is derived from Name and URL and is never
stored.
*/
type Image struct {
	Name         string
	URL          string
	ThumbnailURL string
}

/*
Catalog is the ordered list of images, ascending by Name using ordinal
comparison. Equal names keep their discovery order.
*/
type Catalog []Image

func (c Catalog) Names() []string {
	result := make([]string, 0, len(c))

	for _, img := range c {
		result = append(result, img.Name)
	}

	return result
}
