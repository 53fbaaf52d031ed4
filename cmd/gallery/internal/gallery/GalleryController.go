package gallery

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/rendering"
	internalmodels "github.com/adampresley/photogallery/cmd/gallery/internal/models"
	"github.com/adampresley/photogallery/cmd/gallery/internal/viewmodels"
	"github.com/adampresley/photogallery/pkg/models"
	"github.com/adampresley/photogallery/pkg/services"
	"github.com/alitto/pond/v2"
	"golang.org/x/sync/errgroup"
)

type GalleryHandlers interface {
	GalleryPage(w http.ResponseWriter, r *http.Request)
	Notifications(w http.ResponseWriter, r *http.Request)
	ToggleFavorite(w http.ResponseWriter, r *http.Request)
	UploadAction(w http.ResponseWriter, r *http.Request)
}

type GalleryControllerConfig struct {
	CatalogService      services.CatalogServicer
	FavoriteService     services.FavoriteServicer
	MaxUploadBytes      int64
	NotificationService services.NotificationServicer
	Owner               string
	Renderer            rendering.TemplateRenderer
	ShutdownCtx         context.Context
	UploadPool          pond.Pool
	UploadService       services.UploadServicer
	URLSigner           services.URLSigner
}

type GalleryController struct {
	catalogService      services.CatalogServicer
	favoriteService     services.FavoriteServicer
	maxUploadBytes      int64
	notificationService services.NotificationServicer
	owner               string
	renderer            rendering.TemplateRenderer
	shutdownCtx         context.Context
	uploadPool          pond.Pool
	uploadService       services.UploadServicer
	uploadsInFlight     *atomic.Int64
	urlSigner           services.URLSigner
}

func NewGalleryController(config GalleryControllerConfig) GalleryController {
	return GalleryController{
		catalogService:      config.CatalogService,
		favoriteService:     config.FavoriteService,
		maxUploadBytes:      config.MaxUploadBytes,
		notificationService: config.NotificationService,
		owner:               config.Owner,
		renderer:            config.Renderer,
		shutdownCtx:         config.ShutdownCtx,
		uploadPool:          config.UploadPool,
		uploadService:       config.UploadService,
		uploadsInFlight:     &atomic.Int64{},
		urlSigner:           config.URLSigner,
	}
}

/*
GET /
GET /list
*/
func (c GalleryController) GalleryPage(w http.ResponseWriter, r *http.Request) {
	var (
		catalog   models.Catalog
		favorites models.FavoriteSet
		g         errgroup.Group
	)

	pageName := "pages/gallery"
	ctx := r.Context()

	/*
	 * The catalog and the favorites are loaded side by side. A failed
	 * catalog load keeps showing the last good catalog.
	 */
	g.Go(func() error {
		var err error

		if catalog, err = c.catalogService.Load(ctx); err != nil {
			slog.Error("error loading catalog. showing last good catalog", "error", err)
			catalogLoadsTotal.WithLabelValues("failed").Inc()
			c.notifyError(err)

			catalog = c.catalogService.Current()
			return nil
		}

		catalogLoadsTotal.WithLabelValues("succeeded").Inc()
		return nil
	})

	g.Go(func() error {
		var err error

		if favorites, err = c.favoriteService.Load(ctx, c.owner); err != nil {
			slog.Warn("error loading favorites. showing none", "error", err, "owner", c.owner)
		}

		return nil
	})

	_ = g.Wait()

	images := internalmodels.NewImages(catalog, favorites)

	for index := range images {
		images[index].OriginalURL = c.displayURL(ctx, images[index].OriginalURL)
		images[index].ThumbnailURL = c.displayURL(ctx, images[index].ThumbnailURL)
	}

	viewData := viewmodels.GalleryPage{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx: httphelpers.IsHtmx(r),
			JavascriptIncludes: []rendering.JavascriptInclude{
				{Type: "module", Src: "/static/js/pages/gallery.js"},
			},
			Notifications: c.notificationService.Visible(),
		},
		Images:         images,
		NumFavorites:   favorites.Len(),
		MaxFavorites:   models.MaxFavorites,
		FavoritesFull:  favorites.Len() >= models.MaxFavorites,
		UploadInFlight: c.uploadsInFlight.Load() > 0,
	}

	c.renderer.Render(pageName, viewData, w)
}

/*
POST /upload
*/
func (c GalleryController) UploadAction(w http.ResponseWriter, r *http.Request) {
	var (
		err       error
		selection *multipartSelection
	)

	if selection, err = readSelection(w, r, c.maxUploadBytes); err != nil {
		slog.Error("error reading upload form", "error", err)
		uploadBatchesTotal.WithLabelValues("rejected").Inc()
		c.notificationService.Notify(models.NotificationUploadFailed, "The selected files could not be read.")

		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err = c.uploadService.Validate(selection.Files()); err != nil {
		selection.release()
		uploadBatchesTotal.WithLabelValues("rejected").Inc()
		c.notifyError(err)

		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	/*
	 * The batch runs in the background on a single worker so batches
	 * never interleave. The page polls while it runs.
	 */
	c.uploadsInFlight.Add(1)

	_, accepted := c.uploadPool.TrySubmit(func() {
		defer c.uploadsInFlight.Add(-1)
		defer selection.release()

		if err := c.uploadService.Submit(c.shutdownCtx, selection); err != nil {
			slog.Error("error uploading files", "error", err)
			uploadBatchesTotal.WithLabelValues("failed").Inc()

			if errors.Is(err, models.ErrUploadFailed) {
				uploadFailuresTotal.Inc()
			}

			c.notifyError(err)
			return
		}

		uploadBatchesTotal.WithLabelValues("succeeded").Inc()
	})

	if !accepted {
		c.uploadsInFlight.Add(-1)
		selection.release()

		slog.Error("upload pool is not accepting batches")
		uploadBatchesTotal.WithLabelValues("rejected").Inc()
		c.notificationService.Notify(models.NotificationUploadFailed, "The upload could not be started. Please try again.")
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

/*
PUT /favorites/toggle
*/
func (c GalleryController) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var (
		err        error
		isFavorite bool
	)

	imageURL := httphelpers.GetFromRequest[string](r, "url")

	if imageURL == "" {
		httphelpers.WriteText(w, http.StatusBadRequest, "url is required")
		return
	}

	if isFavorite, err = c.favoriteService.Toggle(r.Context(), c.owner, imageURL); err != nil {
		slog.Error("error toggling favorite", "error", err, "owner", c.owner, "url", imageURL)
		favoriteTogglesTotal.WithLabelValues(toggleOutcome(err)).Inc()
		c.notifyError(err)

		isFavorite = c.favoriteService.Favorites(c.owner).Contains(imageURL)
	} else {
		favoriteTogglesTotal.WithLabelValues("succeeded").Inc()
	}

	httphelpers.WriteHtml(w, http.StatusOK, favoriteIconMarkup(isFavorite))
}

/*
GET /notifications
*/
func (c GalleryController) Notifications(w http.ResponseWriter, r *http.Request) {
	httphelpers.WriteHtml(w, http.StatusOK, notificationsMarkup(c.notificationService.Visible()))
}

/*
displayURL signs a locator for the browser. The locator itself is shown
when signing fails so the page still renders.
*/
func (c GalleryController) displayURL(ctx context.Context, locator string) string {
	if c.urlSigner == nil || locator == "" {
		return locator
	}

	u, err := c.urlSigner.SignURL(ctx, locator)

	if err != nil {
		slog.Warn("error signing image URL", "error", err, "url", locator)
		return locator
	}

	return u
}

func (c GalleryController) notifyError(err error) {
	kind, message, ok := notificationFor(err)

	if !ok {
		return
	}

	c.notificationService.Notify(kind, message)
}

/*
notificationFor maps an error from a user action to the notification
shown for it. Cancellation is not reported.
*/
func notificationFor(err error) (models.NotificationKind, string, bool) {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return "", "", false

	case errors.Is(err, models.ErrNoFilesSelected):
		return models.NotificationNoFileSelected, "No file selected", true

	case errors.Is(err, models.ErrUploadFailed):
		name, _ := models.UploadFailedName(err)
		return models.NotificationUploadFailed, fmt.Sprintf("Upload of '%s' failed. Please try again.", name), true

	case errors.Is(err, models.ErrFavoriteLimitExceeded):
		return models.NotificationFavoriteLimitExceeded, fmt.Sprintf("You can pick up to %d favorites.", models.MaxFavorites), true

	case errors.Is(err, models.ErrFavoriteStoreWriteFailed):
		return models.NotificationFavoriteSaveFailed, "Your favorite could not be saved. Please try again.", true

	case errors.Is(err, models.ErrCatalogLoadFailed):
		return models.NotificationLoadFailed, "There was a problem getting photos for this page.", true
	}

	return models.NotificationLoadFailed, "An unexpected error occurred.", true
}

func toggleOutcome(err error) string {
	if errors.Is(err, models.ErrFavoriteLimitExceeded) {
		return "limit_exceeded"
	}

	return "failed"
}

func favoriteIconMarkup(isFavorite bool) string {
	icon := "icon"

	if isFavorite {
		icon += " icon-heart"
	} else {
		icon += " icon-empty-heart"
	}

	return fmt.Sprintf("<i class='%s'></i>", icon)
}

func notificationsMarkup(notifications []models.Notification) string {
	b := strings.Builder{}

	for _, n := range notifications {
		class := "notification"

		if n.IsError() {
			class += " is-error"
		}

		fmt.Fprintf(&b, "<div class='%s' data-kind='%s'>%s</div>", class, html.EscapeString(string(n.Kind)), html.EscapeString(n.Message))
	}

	return b.String()
}
