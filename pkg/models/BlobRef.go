package models

/*
BlobRef points at an object in the blob store. Key is the full object key
and Name is the part of the key below the listed prefix.
*/
type BlobRef struct {
	Name string
	Key  string
}
