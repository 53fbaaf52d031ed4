package gallery

import (
	"github.com/adampresley/photogallery/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	catalogLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photogallery",
			Name:      "catalog_loads_total",
			Help:      "Catalog loads by outcome.",
		},
		[]string{"outcome"},
	)

	uploadBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photogallery",
			Name:      "upload_batches_total",
			Help:      "Upload batches by outcome.",
		},
		[]string{"outcome"},
	)

	uploadedFilesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "photogallery",
			Name:      "uploaded_files_total",
			Help:      "Files written to the blob store.",
		},
	)

	uploadFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "photogallery",
			Name:      "upload_failures_total",
			Help:      "Files that failed to upload.",
		},
	)

	favoriteTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photogallery",
			Name:      "favorite_toggles_total",
			Help:      "Favorite toggles by outcome.",
		},
		[]string{"outcome"},
	)
)

/*
CountUploadedImage is handed to the upload service and records every file
that reaches the blob store.
*/
func CountUploadedImage(image models.Image) {
	uploadedFilesTotal.Inc()
}
