package services

import (
	"net/url"
	"strings"
)

const (
	ThumbnailFolder = "resized"
	ThumbnailSuffix = "_200x200"
)

/*
ThumbnailName returns the object name of the thumbnail generated for
objectName. The suffix goes between the base name and the extension.
Names without an extension, or with only a leading dot, keep the whole
name as the base and get no extension.
*/
func ThumbnailName(objectName string) string {
	base := objectName
	ext := ""

	if index := strings.LastIndex(objectName, "."); index > 0 {
		base = objectName[:index]
		ext = objectName[index:]
	}

	return base + ThumbnailSuffix + ext
}

/*
ResolveThumbnailURL derives the thumbnail locator for an image by
replacing the object name inside its canonical URL with the encoded
thumbnail key. Host and query string are left untouched. If the name
cannot be found in the URL path the canonical URL is returned.

	ResolveThumbnailURL("https://host/o/images%2Fa.jpg?token=x", "a.jpg")
	// https://host/o/images%2Fresized%2Fa_200x200.jpg?token=x
*/
func ResolveThumbnailURL(canonicalURL, objectName string) string {
	if objectName == "" {
		return canonicalURL
	}

	location, query, hasQuery := strings.Cut(canonicalURL, "?")
	thumbnailName := ThumbnailName(objectName)

	replaced, ok := replaceLast(location, objectName, ThumbnailFolder+"%2F"+thumbnailName)

	if !ok {
		escapedName := url.PathEscape(objectName)

		if replaced, ok = replaceLast(location, escapedName, ThumbnailFolder+"%2F"+url.PathEscape(thumbnailName)); !ok {
			return canonicalURL
		}
	}

	if hasQuery {
		return replaced + "?" + query
	}

	return replaced
}

func replaceLast(s, old, replacement string) (string, bool) {
	index := strings.LastIndex(s, old)

	if index < 0 {
		return s, false
	}

	return s[:index] + replacement + s[index+len(old):], true
}
