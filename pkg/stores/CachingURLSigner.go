package stores

import (
	"context"
	"time"

	"github.com/adampresley/photogallery/pkg/services"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

type CachingURLSignerConfig struct {
	Signer services.URLSigner
	Size   int
	TTL    time.Duration
}

/*
CachingURLSigner remembers signed URLs per locator for a while so a page
render does not presign every image again. The TTL must stay below the
lifetime of the URLs handed out by the wrapped signer.
*/
type CachingURLSigner struct {
	signer services.URLSigner
	urls   *expirable.LRU[string, string]
}

func NewCachingURLSigner(config CachingURLSignerConfig) CachingURLSigner {
	if config.Size <= 0 {
		config.Size = 1000
	}

	return CachingURLSigner{
		signer: config.Signer,
		urls:   expirable.NewLRU[string, string](config.Size, nil, config.TTL),
	}
}

func (s CachingURLSigner) SignURL(ctx context.Context, locator string) (string, error) {
	if u, ok := s.urls.Get(locator); ok {
		return u, nil
	}

	u, err := s.signer.SignURL(ctx, locator)

	if err != nil {
		return "", err
	}

	s.urls.Add(locator, u)
	return u, nil
}
