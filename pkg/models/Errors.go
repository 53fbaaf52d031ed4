package models

import (
	"errors"
	"fmt"
)

var (
	ErrCatalogLoadFailed        = fmt.Errorf("catalog load failed")
	ErrNoFilesSelected          = fmt.Errorf("no files selected")
	ErrUploadFailed             = fmt.Errorf("upload failed")
	ErrInvalidFileName          = fmt.Errorf("invalid file name")
	ErrFavoriteLimitExceeded    = fmt.Errorf("favorite limit of %d exceeded", MaxFavorites)
	ErrFavoritesLoadFailed      = fmt.Errorf("favorites load failed")
	ErrFavoriteStoreWriteFailed = fmt.Errorf("favorite store write failed")
	ErrFavoritesPathAbsent      = fmt.Errorf("favorites path does not exist")
)

/*
UploadFailedError reports the first file of a batch that could not be
written. Files before it in the batch remain written.
*/
type UploadFailedError struct {
	Name string
	Err  error
}

func (e *UploadFailedError) Error() string {
	return fmt.Sprintf("upload of '%s' failed: %s", e.Name, e.Err)
}

func (e *UploadFailedError) Unwrap() error {
	return e.Err
}

func (e *UploadFailedError) Is(target error) bool {
	return target == ErrUploadFailed
}

/*
UploadFailedName returns the name of the failing file if err is an
upload failure.
*/
func UploadFailedName(err error) (string, bool) {
	var uploadErr *UploadFailedError

	if errors.As(err, &uploadErr) {
		return uploadErr.Name, true
	}

	return "", false
}
