package api

import (
	"context"
	"fmt"

	"kz-tracker/internal/config"
	"kz-tracker/internal/domain"

	"github.com/valyala/fasthttp"
)

const vnlService = "vnl.kz API"

// VNLClient talks to the secondary tier-rating service that rates legacy
// maps on the 10-step vanilla scale.
type VNLClient struct {
	baseURL string
	client  *fasthttp.Client
}

func NewVNLClient(cfg *config.Config) *VNLClient {
	return &VNLClient{
		baseURL: cfg.VNLAPIURL,
		client:  newHTTPClient(),
	}
}

type VNLMapEntry struct {
	ID      *int64 `json:"id"`
	TPTier  *int   `json:"tpTier"`
	ProTier *int   `json:"proTier"`
}

func (c *VNLClient) Maps(ctx context.Context) ([]VNLMapEntry, error) {
	url := c.baseURL + "/maps"
	status, body, err := get(ctx, c.client, vnlService, url)
	if err != nil {
		return nil, err
	}
	if status != fasthttp.StatusOK {
		return nil, &domain.UpstreamUnavailableError{Service: vnlService, Err: fmt.Errorf("HTTP %d", status)}
	}
	entries, err := decode[[]VNLMapEntry](vnlService, body)
	if err != nil {
		return nil, err
	}
	return *entries, nil
}

// TiersForMap returns the TP and PRO tiers for one map. A 404 means the map
// is not rated yet and comes back as the hardest-tier sentinel, not as an
// error; that is a documented quirk of the service.
func (c *VNLClient) TiersForMap(ctx context.Context, name string) (int, int, error) {
	url := c.baseURL + "/maps/" + name
	status, body, err := get(ctx, c.client, vnlService, url)
	if err != nil {
		return 0, 0, err
	}
	if status == fasthttp.StatusNotFound {
		return domain.SentinelTier, domain.SentinelTier, nil
	}
	if status != fasthttp.StatusOK {
		return 0, 0, &domain.UpstreamUnavailableError{Service: vnlService, Err: fmt.Errorf("HTTP %d", status)}
	}
	entry, err := decode[VNLMapEntry](vnlService, body)
	if err != nil {
		return 0, 0, err
	}
	if entry.TPTier == nil {
		return 0, 0, &domain.MalformedResponseError{Service: vnlService, Field: "tpTier"}
	}
	if entry.ProTier == nil {
		return 0, 0, &domain.MalformedResponseError{Service: vnlService, Field: "proTier"}
	}
	return *entry.TPTier, *entry.ProTier, nil
}
