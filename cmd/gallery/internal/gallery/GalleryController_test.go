package gallery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adampresley/photogallery/cmd/gallery/internal/viewmodels"
	"github.com/adampresley/photogallery/pkg/models"
	"github.com/adampresley/photogallery/pkg/services"
	"github.com/alitto/pond/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBlobStore struct {
	sync.Mutex
	keys    []string
	listErr error
}

func (s *memoryBlobStore) List(ctx context.Context, prefix string) ([]models.BlobRef, error) {
	s.Lock()
	defer s.Unlock()

	if s.listErr != nil {
		return nil, s.listErr
	}

	result := []models.BlobRef{}

	for _, key := range s.keys {
		result = append(result, models.BlobRef{Name: strings.TrimPrefix(key, prefix+"/"), Key: key})
	}

	return result, nil
}

func (s *memoryBlobStore) Write(ctx context.Context, key string, blob models.FileBlob) (models.BlobRef, error) {
	s.Lock()
	defer s.Unlock()

	s.keys = append(s.keys, key)
	return models.BlobRef{Name: strings.TrimPrefix(key, "images/"), Key: key}, nil
}

func (s *memoryBlobStore) ResolveURL(ctx context.Context, ref models.BlobRef) (string, error) {
	return "https://host/" + ref.Key, nil
}

func (s *memoryBlobStore) writeCount() int {
	s.Lock()
	defer s.Unlock()

	return len(s.keys)
}

func (s *memoryBlobStore) failListing(err error) {
	s.Lock()
	defer s.Unlock()

	s.listErr = err
}

type suffixSigner struct{}

func (suffixSigner) SignURL(ctx context.Context, locator string) (string, error) {
	return locator + "?signed=1", nil
}

type memoryFavoriteStore struct {
	sync.Mutex
	entries   map[string]models.FavoriteEntry
	appendErr error
}

func (s *memoryFavoriteStore) ReadAll(ctx context.Context, path string) (map[string]models.FavoriteEntry, error) {
	s.Lock()
	defer s.Unlock()

	if len(s.entries) == 0 {
		return nil, models.ErrFavoritesPathAbsent
	}

	result := map[string]models.FavoriteEntry{}

	for key, entry := range s.entries {
		result[key] = entry
	}

	return result, nil
}

func (s *memoryFavoriteStore) Append(ctx context.Context, path string, entry models.FavoriteEntry) (string, error) {
	s.Lock()
	defer s.Unlock()

	if s.appendErr != nil {
		return "", s.appendErr
	}

	key := fmt.Sprintf("key%d", len(s.entries)+1)
	s.entries[key] = entry
	return key, nil
}

func (s *memoryFavoriteStore) Delete(ctx context.Context, path, key string) error {
	s.Lock()
	defer s.Unlock()

	delete(s.entries, key)
	return nil
}

type recordingRenderer struct {
	pages []string
	data  []any
}

func (r *recordingRenderer) Render(templateName string, data any, w io.Writer) error {
	r.pages = append(r.pages, templateName)
	r.data = append(r.data, data)
	return nil
}

func (r *recordingRenderer) RenderString(templateString string, data any, w io.Writer) error {
	return nil
}

func (r *recordingRenderer) lastPage(t *testing.T) viewmodels.GalleryPage {
	t.Helper()

	require.NotEmpty(t, r.data)
	page, ok := r.data[len(r.data)-1].(viewmodels.GalleryPage)
	require.True(t, ok)

	return page
}

type controllerFixture struct {
	blobStore     *memoryBlobStore
	catalog       services.CatalogService
	favorites     services.FavoriteService
	favoriteStore *memoryFavoriteStore
	notifications services.NotificationService
	renderer      *recordingRenderer
	uploadPool    pond.Pool
	controller    GalleryController
}

func newControllerFixture(t *testing.T) controllerFixture {
	t.Helper()

	blobStore := &memoryBlobStore{}
	favoriteStore := &memoryFavoriteStore{entries: map[string]models.FavoriteEntry{}}
	renderer := &recordingRenderer{}
	resolverPool := pond.NewPool(2)
	uploadPool := pond.NewPool(1)

	t.Cleanup(func() {
		uploadPool.StopAndWait()
		resolverPool.StopAndWait()
	})

	notifications := services.NewNotificationService(services.NotificationServiceConfig{DismissAfter: time.Minute})
	t.Cleanup(notifications.Close)

	catalog := services.NewCatalogService(services.CatalogServiceConfig{
		BlobStore:    blobStore,
		ImagePrefix:  "images",
		ResolverPool: resolverPool,
	})

	upload := services.NewUploadService(services.UploadServiceConfig{
		BlobStore:      blobStore,
		CatalogService: catalog,
		ImagePrefix:    "images",
		Notifier:       notifications,
		PacingDelay:    time.Millisecond,
	})

	favorites := services.NewFavoriteService(services.FavoriteServiceConfig{Store: favoriteStore})

	return controllerFixture{
		blobStore:     blobStore,
		catalog:       catalog,
		favorites:     favorites,
		favoriteStore: favoriteStore,
		notifications: notifications,
		renderer:      renderer,
		uploadPool:    uploadPool,
		controller: NewGalleryController(GalleryControllerConfig{
			CatalogService:      catalog,
			FavoriteService:     favorites,
			MaxUploadBytes:      1 << 20,
			NotificationService: notifications,
			Owner:               "me",
			Renderer:            renderer,
			ShutdownCtx:         context.Background(),
			UploadPool:          uploadPool,
			UploadService:       upload,
			URLSigner:           suffixSigner{},
		}),
	}
}

func uploadRequest(t *testing.T, names ...string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, name := range names {
		part, err := writer.CreateFormFile(filesField, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("image " + name))
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())

	r := httptest.NewRequest(http.MethodPost, "/upload", body)
	r.Header.Set("Content-Type", writer.FormDataContentType())
	return r
}

func visibleKinds(s services.NotificationService) []models.NotificationKind {
	result := []models.NotificationKind{}

	for _, n := range s.Visible() {
		result = append(result, n.Kind)
	}

	return result
}

func toggleRequest(imageURL string) *http.Request {
	return httptest.NewRequest(http.MethodPut, "/favorites/toggle?url="+url.QueryEscape(imageURL), nil)
}

func TestGalleryController_GalleryPage(t *testing.T) {
	t.Run("marks favorites and signs display URLs", func(t *testing.T) {
		f := newControllerFixture(t)
		f.blobStore.keys = []string{"images/b.jpg", "images/a.jpg"}
		require.NoError(t, f.favorites.Add(context.Background(), "me", "https://host/images/b.jpg"))

		f.controller.GalleryPage(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		page := f.renderer.lastPage(t)
		assert.Equal(t, []string{"pages/gallery"}, f.renderer.pages)
		require.Len(t, page.Images, 2)
		assert.Equal(t, "a.jpg", page.Images[0].Name)
		assert.False(t, page.Images[0].IsFavorite)
		assert.True(t, page.Images[1].IsFavorite)
		assert.Equal(t, "https://host/images/b.jpg", page.Images[1].URL)
		assert.Equal(t, "https://host/images/b.jpg?signed=1", page.Images[1].OriginalURL)
		assert.Equal(t, "https://host/images/resized%2Fb_200x200.jpg?signed=1", page.Images[1].ThumbnailURL)
		assert.Equal(t, 1, page.NumFavorites)
		assert.False(t, page.FavoritesFull)
		assert.Empty(t, page.Notifications)
	})

	t.Run("keeps showing the last catalog when a load fails", func(t *testing.T) {
		f := newControllerFixture(t)
		f.blobStore.keys = []string{"images/a.jpg"}

		f.controller.GalleryPage(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		f.blobStore.failListing(errors.New("unavailable"))
		f.controller.GalleryPage(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		page := f.renderer.lastPage(t)
		require.Len(t, page.Images, 1)
		assert.Equal(t, "a.jpg", page.Images[0].Name)
		assert.Equal(t, []models.NotificationKind{models.NotificationLoadFailed}, visibleKinds(f.notifications))
		require.Len(t, page.Notifications, 1)
		assert.True(t, page.Notifications[0].IsError())
	})

	t.Run("flags an upload in flight", func(t *testing.T) {
		f := newControllerFixture(t)
		f.controller.uploadsInFlight.Add(1)

		f.controller.GalleryPage(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		assert.True(t, f.renderer.lastPage(t).UploadInFlight)
	})
}

func TestGalleryController_ToggleFavorite(t *testing.T) {
	imageURL := "https://host/images/a.jpg"

	t.Run("adds then removes a favorite", func(t *testing.T) {
		f := newControllerFixture(t)

		w := httptest.NewRecorder()
		f.controller.ToggleFavorite(w, toggleRequest(imageURL))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, favoriteIconMarkup(true), w.Body.String())
		assert.Len(t, f.favoriteStore.entries, 1)

		w = httptest.NewRecorder()
		f.controller.ToggleFavorite(w, toggleRequest(imageURL))

		assert.Equal(t, favoriteIconMarkup(false), w.Body.String())
		assert.Empty(t, f.favoriteStore.entries)
		assert.Empty(t, visibleKinds(f.notifications))
	})

	t.Run("reports the favorite limit and keeps the empty heart", func(t *testing.T) {
		f := newControllerFixture(t)

		for index := 1; index <= models.MaxFavorites; index++ {
			require.NoError(t, f.favorites.Add(context.Background(), "me", fmt.Sprintf("https://host/images/%d.jpg", index)))
		}

		w := httptest.NewRecorder()
		f.controller.ToggleFavorite(w, toggleRequest(imageURL))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, favoriteIconMarkup(false), w.Body.String())
		assert.Equal(t, []models.NotificationKind{models.NotificationFavoriteLimitExceeded}, visibleKinds(f.notifications))
		assert.Len(t, f.favoriteStore.entries, models.MaxFavorites)
	})

	t.Run("reports a failed save and keeps the previous state", func(t *testing.T) {
		f := newControllerFixture(t)
		f.favoriteStore.appendErr = errors.New("unavailable")

		w := httptest.NewRecorder()
		f.controller.ToggleFavorite(w, toggleRequest(imageURL))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, favoriteIconMarkup(false), w.Body.String())
		assert.Equal(t, []models.NotificationKind{models.NotificationFavoriteSaveFailed}, visibleKinds(f.notifications))
		assert.False(t, f.favorites.Favorites("me").Contains(imageURL))
	})

	t.Run("requires a url", func(t *testing.T) {
		f := newControllerFixture(t)
		w := httptest.NewRecorder()

		f.controller.ToggleFavorite(w, httptest.NewRequest(http.MethodPut, "/favorites/toggle", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGalleryController_UploadAction(t *testing.T) {
	t.Run("reports an empty selection", func(t *testing.T) {
		f := newControllerFixture(t)
		w := httptest.NewRecorder()

		f.controller.UploadAction(w, uploadRequest(t))

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, []models.NotificationKind{models.NotificationNoFileSelected}, visibleKinds(f.notifications))
		assert.Equal(t, 0, f.blobStore.writeCount())
	})

	t.Run("uploads in the background and updates the catalog", func(t *testing.T) {
		f := newControllerFixture(t)
		w := httptest.NewRecorder()

		f.controller.UploadAction(w, uploadRequest(t, "b.jpg", "a.jpg"))

		assert.Equal(t, http.StatusSeeOther, w.Code)

		assert.Eventually(t, func() bool {
			return len(f.notifications.Visible()) == 1
		}, time.Second, 5*time.Millisecond)

		assert.Equal(t, []models.NotificationKind{models.NotificationUploadSucceeded}, visibleKinds(f.notifications))
		assert.Equal(t, []string{"a.jpg", "b.jpg"}, f.catalog.Current().Names())
	})

	t.Run("rejects a batch once the upload pool has stopped", func(t *testing.T) {
		f := newControllerFixture(t)
		f.uploadPool.StopAndWait()
		w := httptest.NewRecorder()

		f.controller.UploadAction(w, uploadRequest(t, "a.jpg"))

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, int64(0), f.controller.uploadsInFlight.Load())
		assert.Equal(t, []models.NotificationKind{models.NotificationUploadFailed}, visibleKinds(f.notifications))
		assert.Equal(t, 0, f.blobStore.writeCount())
	})
}

func TestGalleryController_Notifications(t *testing.T) {
	t.Run("renders visible notifications", func(t *testing.T) {
		f := newControllerFixture(t)
		f.notifications.Notify(models.NotificationUploadFailed, "Upload of '<b>.jpg' failed")
		w := httptest.NewRecorder()

		f.controller.Notifications(w, httptest.NewRequest(http.MethodGet, "/notifications", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "data-kind='upload-failed'")
		assert.Contains(t, w.Body.String(), "&lt;b&gt;.jpg")
	})
}

func TestNotificationFor(t *testing.T) {
	t.Run("maps each error kind", func(t *testing.T) {
		cases := map[error]models.NotificationKind{
			models.ErrNoFilesSelected:                                      models.NotificationNoFileSelected,
			&models.UploadFailedError{Name: "a.jpg", Err: errors.New("x")}: models.NotificationUploadFailed,
			fmt.Errorf("%w: full", models.ErrFavoriteLimitExceeded):        models.NotificationFavoriteLimitExceeded,
			fmt.Errorf("%w: x", models.ErrFavoriteStoreWriteFailed):        models.NotificationFavoriteSaveFailed,
			fmt.Errorf("%w: x", models.ErrCatalogLoadFailed):               models.NotificationLoadFailed,
		}

		for err, want := range cases {
			kind, _, ok := notificationFor(err)
			assert.True(t, ok)
			assert.Equal(t, want, kind, err.Error())
		}
	})

	t.Run("names the failing file", func(t *testing.T) {
		_, message, _ := notificationFor(&models.UploadFailedError{Name: "a.jpg", Err: errors.New("x")})
		assert.Contains(t, message, "a.jpg")
	})

	t.Run("ignores cancellation", func(t *testing.T) {
		_, _, ok := notificationFor(fmt.Errorf("%w: %w", models.ErrCatalogLoadFailed, context.Canceled))
		assert.False(t, ok)
	})
}

func TestFavoriteIconMarkup(t *testing.T) {
	assert.Equal(t, "<i class='icon icon-heart'></i>", favoriteIconMarkup(true))
	assert.Equal(t, "<i class='icon icon-empty-heart'></i>", favoriteIconMarkup(false))
}
