package main

import (
	"context"
	"embed"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/adampresley/adamgokit/awsconfig"
	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/mux"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/adamgokit/retrier"
	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/photogallery/cmd/gallery/internal/configuration"
	"github.com/adampresley/photogallery/cmd/gallery/internal/gallery"
	"github.com/adampresley/photogallery/pkg/services"
	"github.com/adampresley/photogallery/pkg/stores"
	"github.com/alitto/pond/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rfberaldo/sqlz"
)

var (
	Version string = "development"
	appName string = "photogallery"

	//go:embed app
	appFS embed.FS

	config configuration.Config

	/* Services */
	blobStore           services.BlobStorer
	catalogService      services.CatalogService
	db                  *sqlz.DB
	favoriteService     services.FavoriteService
	notificationService services.NotificationService
	renderer            rendering.TemplateRenderer
	uploadService       services.UploadService
	urlSigner           services.URLSigner

	/* Controllers */
	galleryController gallery.GalleryHandlers
)

func main() {
	var (
		err error
	)

	config = configuration.LoadConfig()
	setupLogger(&config, Version)

	slog.Info("configuration loaded",
		slog.String("app", appName),
		slog.String("version", Version),
		slog.String("loglevel", config.LogLevel),
		slog.String("host", config.Host),
		slog.String("blobBackend", config.BlobBackend),
		slog.String("awsEndpointUrl", config.AwsEndpointUrl),
		slog.String("awsRegion", config.AwsRegion),
		slog.String("imagePrefix", config.ImagePrefix),
	)

	slog.Debug("setting up...")

	shutdownCtx, cancel := context.WithCancel(context.Background())

	/*
	 * Setup services
	 */
	if db, err = stores.OpenSqlite(config.DSN); err != nil {
		panic(err)
	}

	if blobStore, urlSigner, err = setupBlobStore(shutdownCtx); err != nil {
		panic(err)
	}

	urlSigner = stores.NewCachingURLSigner(stores.CachingURLSignerConfig{
		Signer: urlSigner,
		Size:   config.URLCacheSize,
		TTL:    time.Duration(config.URLCacheTTLMinutes) * time.Minute,
	})

	renderer, err = rendering.NewGoTemplateRenderer(rendering.GoTemplateRendererConfig{
		TemplateDir:       "app",
		TemplateExtension: ".html",
		TemplateFS:        appFS,
		PagesDir:          "pages",
	})

	if err != nil {
		panic(err)
	}

	resolverPool := pond.NewPool(config.MaxResolveWorkers, pond.WithContext(shutdownCtx))
	uploadPool := pond.NewPool(1, pond.WithContext(shutdownCtx))

	notificationService = services.NewNotificationService(services.NotificationServiceConfig{
		DismissAfter: time.Duration(config.NotificationDismissMS) * time.Millisecond,
	})

	catalogService = services.NewCatalogService(services.CatalogServiceConfig{
		BlobStore:    blobStore,
		ImagePrefix:  config.ImagePrefix,
		ResolverPool: resolverPool,
	})

	favoriteService = services.NewFavoriteService(services.FavoriteServiceConfig{
		Store: stores.NewSqliteFavoriteStore(stores.SqliteFavoriteStoreConfig{
			DB: db,
		}),
	})

	uploadService = services.NewUploadService(services.UploadServiceConfig{
		BlobStore:      blobStore,
		CatalogService: catalogService,
		ImagePrefix:    config.ImagePrefix,
		Notifier:       notificationService,
		OnUploaded:     gallery.CountUploadedImage,
		PacingDelay:    time.Duration(config.UploadPacingMS) * time.Millisecond,
	})

	logNotifications()

	/*
	 * Setup controllers
	 */
	galleryController = gallery.NewGalleryController(gallery.GalleryControllerConfig{
		CatalogService:      catalogService,
		FavoriteService:     favoriteService,
		MaxUploadBytes:      int64(config.MaxUploadMB) << 20,
		NotificationService: notificationService,
		Owner:               config.OwnerID,
		Renderer:            renderer,
		ShutdownCtx:         shutdownCtx,
		UploadPool:          uploadPool,
		UploadService:       uploadService,
		URLSigner:           urlSigner,
	})

	/*
	 * Setup router and http server
	 */
	slog.Debug("setting up routes...")

	requestLogger := newRequestLoggerMiddleware([]string{"/static", "/heartbeat", "/metrics"})

	routes := []mux.Route{
		{Path: "GET /heartbeat", HandlerFunc: heartbeat},
		{Path: "GET /metrics", HandlerFunc: promhttp.Handler().ServeHTTP},
		{Path: "GET /", HandlerFunc: galleryController.GalleryPage, Middlewares: []mux.MiddlewareFunc{requestLogger}},
		{Path: "GET /list", HandlerFunc: galleryController.GalleryPage, Middlewares: []mux.MiddlewareFunc{requestLogger}},
		{Path: "GET /notifications", HandlerFunc: galleryController.Notifications},
		{Path: "POST /upload", HandlerFunc: galleryController.UploadAction, Middlewares: []mux.MiddlewareFunc{requestLogger}},
		{Path: "PUT /favorites/toggle", HandlerFunc: galleryController.ToggleFavorite, Middlewares: []mux.MiddlewareFunc{requestLogger}},
	}

	routerConfig := mux.RouterConfig{
		Address:              config.Host,
		Debug:                Version == "development",
		ServeStaticContent:   true,
		StaticContentRootDir: "app",
		StaticContentPrefix:  "/static/",
		StaticFS:             appFS,
		HttpWriteTimeout:     60,
	}

	m := mux.SetupRouter(routerConfig, routes)
	httpServer, quit := mux.SetupServer(routerConfig, m)

	/*
	 * Wait for graceful shutdown
	 */
	slog.Info("server started")

	<-quit

	cancel()
	mux.Shutdown(httpServer)

	uploadPool.StopAndWait()
	resolverPool.StopAndWait()
	notificationService.Close()

	slog.Info("server stopped")
}

func heartbeat(w http.ResponseWriter, r *http.Request) {
	httphelpers.TextOK(w, "OK")
}

func setupLogger(config *configuration.Config, version string) {
	var (
		handler slog.Handler
	)

	level := slog.LevelInfo

	switch strings.ToLower(config.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	options := &slog.HandlerOptions{Level: level}

	if version == "development" {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}

	slog.SetDefault(slog.New(handler).With("version", version))
}

/*
setupBlobStore returns the configured backend twice: once as the blob
store and once as the signer for display URLs.
*/
func setupBlobStore(ctx context.Context) (services.BlobStorer, services.URLSigner, error) {
	var (
		err     error
		s3Store stores.S3BlobStore
	)

	urlExpiration := time.Duration(config.URLExpirationMinutes) * time.Minute

	if strings.EqualFold(config.BlobBackend, "minio") {
		minioStore, err := stores.NewMinioBlobStore(stores.MinioBlobStoreConfig{
			AccessKey:     config.AwsAccessKeyId,
			Bucket:        config.AwsBucket,
			Endpoint:      config.MinioEndpoint,
			PublicBaseURL: config.PublicBaseURL,
			Region:        config.AwsRegion,
			SecretKey:     config.AwsSecretAccessKey,
			URLExpiration: urlExpiration,
			UseSSL:        config.MinioUseSSL,
		})

		if err != nil {
			return nil, nil, err
		}

		retrier.Retry(func() error {
			if err = minioStore.EnsureBucketExists(ctx); err != nil {
				slog.Error("failed to reach minio. trying again", "error", err)
				return err
			}

			return nil
		})

		return minioStore, minioStore, err
	}

	awsConfig := &awsconfig.Config{
		Endpoint:        config.AwsEndpointUrl,
		Region:          config.AwsRegion,
		AccessKeyID:     config.AwsAccessKeyId,
		SecretAccessKey: config.AwsSecretAccessKey,
	}

	retrier.Retry(func() error {
		if err = awsConfig.Load(); err != nil {
			slog.Error("failed to load AWS config. trying again", "error", err)
			return err
		}

		return nil
	})

	if err != nil {
		return nil, nil, err
	}

	s3Client, err := s3.NewClient(awsConfig)

	if err != nil {
		return nil, nil, err
	}

	s3Store, err = stores.NewS3BlobStore(stores.S3BlobStoreConfig{
		Bucket:        config.AwsBucket,
		EndpointURL:   config.AwsEndpointUrl,
		PublicBaseURL: config.PublicBaseURL,
		Region:        config.AwsRegion,
		S3Client:      s3Client,
		URLExpiration: urlExpiration,
	})

	if err != nil {
		return nil, nil, err
	}

	if err = s3Store.EnsureBucketExists(); err != nil {
		return nil, nil, err
	}

	return s3Store, s3Store, nil
}

func logNotifications() {
	notifications, _ := notificationService.Subscribe()

	go func() {
		for n := range notifications {
			slog.Info("notification raised", "kind", n.Kind, "message", n.Message)
		}
	}()
}
