package gallery

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/adampresley/photogallery/pkg/models"
)

const (
	filesField      = "files"
	maxMemoryBuffer = 32 << 20
)

/*
multipartSelection is the file picker of an upload form. Reset clears
the picked files once the batch is written; release drops the temporary
files of the form whatever the outcome.
*/
type multipartSelection struct {
	form  *multipart.Form
	files []models.FileBlob
}

func (s *multipartSelection) Files() []models.FileBlob {
	return s.files
}

func (s *multipartSelection) Reset() {
	s.files = nil
}

func (s *multipartSelection) release() {
	if s.form != nil {
		_ = s.form.RemoveAll()
	}
}

func readSelection(w http.ResponseWriter, r *http.Request, maxBytes int64) (*multipartSelection, error) {
	var (
		err  error
		data []byte
	)

	result := &multipartSelection{
		files: []models.FileBlob{},
	}

	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	if err = r.ParseMultipartForm(maxMemoryBuffer); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return result, nil
		}

		return nil, fmt.Errorf("error parsing upload form: %w", err)
	}

	result.form = r.MultipartForm

	for _, header := range r.MultipartForm.File[filesField] {
		if header.Filename == "" && header.Size == 0 {
			continue
		}

		if data, err = readPart(header); err != nil {
			result.release()
			return nil, err
		}

		result.files = append(result.files, models.FileBlob{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	return result, nil
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()

	if err != nil {
		return nil, fmt.Errorf("error opening uploaded file '%s': %w", header.Filename, err)
	}

	defer f.Close()

	data, err := io.ReadAll(f)

	if err != nil {
		return nil, fmt.Errorf("error reading uploaded file '%s': %w", header.Filename, err)
	}

	return data, nil
}
