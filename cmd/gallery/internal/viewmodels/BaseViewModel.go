package viewmodels

import (
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/photogallery/pkg/models"
)

type BaseViewModel struct {
	Message            string
	IsError            bool
	IsWarning          bool
	IsHtmx             bool
	JavascriptIncludes []rendering.JavascriptInclude
	Notifications      []models.Notification
}
