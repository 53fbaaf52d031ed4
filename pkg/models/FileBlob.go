package models

/*
FileBlob is an in-memory file picked by the user for upload.
*/
type FileBlob struct {
	Name        string
	ContentType string
	Data        []byte
}

/*
FileSelection is the surface the user picks files with. Reset is called
after a batch has been written successfully.
*/
type FileSelection interface {
	Files() []FileBlob
	Reset()
}

/*
StaticSelection is a FileSelection over a fixed slice of files.
*/
type StaticSelection struct {
	Blobs    []FileBlob
	WasReset bool
}

func (s *StaticSelection) Files() []FileBlob {
	return s.Blobs
}

func (s *StaticSelection) Reset() {
	s.Blobs = nil
	s.WasReset = true
}
