package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/adampresley/photogallery/pkg/models"
)

type fakeBlobStore struct {
	sync.Mutex

	keys       []string
	objects    map[string][]byte
	listErr    error
	listExtra  []models.BlobRef
	writeErr   map[string]error
	resolveErr map[string]error
	writes     []string
}

func newFakeBlobStore(keys ...string) *fakeBlobStore {
	f := &fakeBlobStore{
		objects:    map[string][]byte{},
		writeErr:   map[string]error{},
		resolveErr: map[string]error{},
	}

	for _, key := range keys {
		f.keys = append(f.keys, key)
		f.objects[key] = []byte(key)
	}

	return f
}

func (f *fakeBlobStore) List(ctx context.Context, prefix string) ([]models.BlobRef, error) {
	f.Lock()
	defer f.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	folder := strings.Trim(prefix, "/") + "/"
	result := []models.BlobRef{}

	for _, key := range f.keys {
		rest, ok := strings.CutPrefix(key, folder)

		if !ok || rest == "" || strings.Contains(rest, "/") {
			continue
		}

		result = append(result, models.BlobRef{Name: rest, Key: key})
	}

	return append(result, f.listExtra...), nil
}

func (f *fakeBlobStore) Write(ctx context.Context, key string, blob models.FileBlob) (models.BlobRef, error) {
	f.Lock()
	defer f.Unlock()

	if err := f.writeErr[key]; err != nil {
		return models.BlobRef{}, err
	}

	if _, ok := f.objects[key]; !ok {
		f.keys = append(f.keys, key)
	}

	f.objects[key] = blob.Data
	f.writes = append(f.writes, key)

	return models.BlobRef{Name: key[strings.LastIndex(key, "/")+1:], Key: key}, nil
}

func (f *fakeBlobStore) ResolveURL(ctx context.Context, ref models.BlobRef) (string, error) {
	f.Lock()
	defer f.Unlock()

	if err := f.resolveErr[ref.Key]; err != nil {
		return "", err
	}

	return fakeURL(ref.Key), nil
}

func (f *fakeBlobStore) writeCount() int {
	f.Lock()
	defer f.Unlock()

	return len(f.writes)
}

func fakeURL(key string) string {
	return "https://storage.example.com/v0/b/gallery/o/" + url.PathEscape(key) + "?alt=media&token=x"
}

type fakeFavoriteStore struct {
	sync.Mutex

	entries   map[string]map[string]models.FavoriteEntry
	gate      chan struct{}
	started   chan struct{}
	nextKey   int
	readErr   error
	appendErr error
	deleteErr error
	reads     int
	appends   int
	deletes   int
}

func newFakeFavoriteStore() *fakeFavoriteStore {
	return &fakeFavoriteStore{
		entries: map[string]map[string]models.FavoriteEntry{},
	}
}

func (f *fakeFavoriteStore) ReadAll(ctx context.Context, path string) (map[string]models.FavoriteEntry, error) {
	f.Lock()
	defer f.Unlock()

	f.reads++

	if f.readErr != nil {
		return nil, f.readErr
	}

	if len(f.entries[path]) == 0 {
		return nil, models.ErrFavoritesPathAbsent
	}

	result := map[string]models.FavoriteEntry{}

	for key, entry := range f.entries[path] {
		result[key] = entry
	}

	return result, nil
}

func (f *fakeFavoriteStore) Append(ctx context.Context, path string, entry models.FavoriteEntry) (string, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}

	if f.gate != nil {
		<-f.gate
	}

	f.Lock()
	defer f.Unlock()

	f.appends++

	if f.appendErr != nil {
		return "", f.appendErr
	}

	f.nextKey++
	key := fmt.Sprintf("-key%03d", f.nextKey)

	if f.entries[path] == nil {
		f.entries[path] = map[string]models.FavoriteEntry{}
	}

	entry.Key = key
	entry.Path = path
	f.entries[path][key] = entry

	return key, nil
}

func (f *fakeFavoriteStore) Delete(ctx context.Context, path, key string) error {
	f.Lock()
	defer f.Unlock()

	f.deletes++

	if f.deleteErr != nil {
		return f.deleteErr
	}

	delete(f.entries[path], key)
	return nil
}

func (f *fakeFavoriteStore) urls(path string) []string {
	f.Lock()
	defer f.Unlock()

	result := []string{}

	for _, entry := range f.entries[path] {
		result = append(result, entry.URL)
	}

	return result
}

type fakeNotifier struct {
	sync.Mutex
	notifications []models.Notification
}

func (f *fakeNotifier) Notify(kind models.NotificationKind, message string) {
	f.Lock()
	defer f.Unlock()

	f.notifications = append(f.notifications, models.Notification{Kind: kind, Message: message})
}

func (f *fakeNotifier) kinds() []models.NotificationKind {
	f.Lock()
	defer f.Unlock()

	result := []models.NotificationKind{}

	for _, n := range f.notifications {
		result = append(result, n.Kind)
	}

	return result
}
