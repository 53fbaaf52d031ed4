package stores

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/adampresley/photogallery/pkg/models"
)

func folderOf(prefix string) string {
	prefix = strings.Trim(prefix, "/")

	if prefix == "" {
		return ""
	}

	return prefix + "/"
}

func isDirectChild(folder, key string) bool {
	if !strings.HasPrefix(key, folder) {
		return false
	}

	rest := strings.TrimPrefix(key, folder)
	return rest != "" && !strings.Contains(rest, "/")
}

func refForKey(key string) models.BlobRef {
	return models.BlobRef{
		Name: path.Base(key),
		Key:  key,
	}
}

func publicURL(baseURL, key string) (string, error) {
	result, err := url.JoinPath(baseURL, strings.Split(key, "/")...)

	if err != nil {
		return "", fmt.Errorf("error building public URL for '%s': %w", key, err)
	}

	return result, nil
}

func bucketBaseURL(endpoint, bucket string) (string, error) {
	result, err := url.JoinPath(endpoint, bucket)

	if err != nil {
		return "", fmt.Errorf("error building base URL for bucket '%s': %w", bucket, err)
	}

	return result, nil
}

/*
keyFromURL recovers the object key from a locator built on baseURL.
Encoded slashes in the locator are part of the key.
*/
func keyFromURL(baseURL, locator string) (string, error) {
	var (
		err  error
		base *url.URL
		u    *url.URL
	)

	if base, err = url.Parse(baseURL); err != nil {
		return "", fmt.Errorf("error parsing base URL '%s': %w", baseURL, err)
	}

	if u, err = url.Parse(locator); err != nil {
		return "", fmt.Errorf("error parsing locator '%s': %w", locator, err)
	}

	if u.Scheme != base.Scheme || u.Host != base.Host {
		return "", fmt.Errorf("locator '%s' does not belong to '%s'", locator, baseURL)
	}

	key, ok := strings.CutPrefix(u.Path, strings.TrimSuffix(base.Path, "/")+"/")

	if !ok || key == "" {
		return "", fmt.Errorf("locator '%s' does not belong to '%s'", locator, baseURL)
	}

	return key, nil
}
