package api

import (
	"context"
	"fmt"

	"kz-tracker/internal/config"
	"kz-tracker/internal/domain"

	"github.com/valyala/fasthttp"
)

const imageService = "image host"

// ImageClient fetches map thumbnails from the static image host. Callers
// treat every failure as "no thumbnail"; nothing here is load-bearing.
type ImageClient struct {
	legacyURL   string
	extendedURL string
	client      *fasthttp.Client
}

func NewImageClient(cfg *config.Config) *ImageClient {
	return &ImageClient{
		legacyURL:   cfg.LegacyImageURL,
		extendedURL: cfg.ExtendedImageURL,
		client:      newHTTPClient(),
	}
}

func (c *ImageClient) LegacyThumbnail(ctx context.Context, name string) ([]byte, error) {
	return c.fetch(ctx, fmt.Sprintf("%s/%s.webp", c.legacyURL, name))
}

// ExtendedThumbnail is keyed by map name plus the 1-based course index.
func (c *ImageClient) ExtendedThumbnail(ctx context.Context, name string, courseID int) ([]byte, error) {
	return c.fetch(ctx, fmt.Sprintf("%s/%s/%d.webp", c.extendedURL, name, courseID))
}

func (c *ImageClient) fetch(ctx context.Context, url string) ([]byte, error) {
	status, body, err := get(ctx, c.client, imageService, url)
	if err != nil {
		return nil, err
	}
	if status != fasthttp.StatusOK {
		return nil, &domain.UpstreamUnavailableError{Service: imageService, Err: fmt.Errorf("HTTP %d", status)}
	}
	return body, nil
}
