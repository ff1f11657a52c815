package api

import (
	"context"
	"fmt"

	"kz-tracker/internal/config"
	"kz-tracker/internal/constants"
	"kz-tracker/internal/domain"

	"github.com/valyala/fasthttp"
)

const globalService = "global API"

// GlobalClient talks to the legacy records service. Response fields are
// pointers so the providers can tell "absent" from "zero" and report the
// exact field that broke the schema.
type GlobalClient struct {
	baseURL string
	client  *fasthttp.Client
}

func NewGlobalClient(cfg *config.Config) *GlobalClient {
	return &GlobalClient{
		baseURL: cfg.GlobalAPIURL,
		client:  newHTTPClient(),
	}
}

type GlobalMapEntry struct {
	ID         *int64  `json:"id"`
	Name       *string `json:"name"`
	Difficulty *int    `json:"difficulty"`
	Validated  *bool   `json:"validated"`
}

// Maps pages through the full catalog listing. The service has no "all"
// selector, so one oversized page stands in for it.
func (c *GlobalClient) Maps(ctx context.Context) ([]GlobalMapEntry, error) {
	url := fmt.Sprintf("%s/maps?limit=%d", c.baseURL, constants.RecordsPageLimit)
	status, body, err := get(ctx, c.client, globalService, url)
	if err != nil {
		return nil, err
	}
	if status != fasthttp.StatusOK {
		return nil, &domain.UpstreamUnavailableError{Service: globalService, Err: fmt.Errorf("HTTP %d", status)}
	}
	entries, err := decode[[]GlobalMapEntry](globalService, body)
	if err != nil {
		return nil, err
	}
	return *entries, nil
}

// MapByName looks a map up in the catalog. The service answers 200 with a
// JSON null body for unknown names; that is returned as (nil, nil).
func (c *GlobalClient) MapByName(ctx context.Context, name string) (*GlobalMapEntry, error) {
	url := fmt.Sprintf("%s/maps/name/%s", c.baseURL, name)
	status, body, err := get(ctx, c.client, globalService, url)
	if err != nil {
		return nil, err
	}
	if status != fasthttp.StatusOK {
		return nil, &domain.UpstreamUnavailableError{Service: globalService, Err: fmt.Errorf("HTTP %d", status)}
	}
	if isNull(body) {
		return nil, nil
	}
	return decode[GlobalMapEntry](globalService, body)
}

type GlobalRecord struct {
	ID         *int64   `json:"id"`
	SteamID64  *string  `json:"steamid64"`
	PlayerName *string  `json:"player_name"`
	MapName    *string  `json:"map_name"`
	Stage      *int     `json:"stage"`
	Time       *float64 `json:"time"`
	Teleports  *int     `json:"teleports"`
	Points     *int     `json:"points"`
	CreatedOn  *string  `json:"created_on"`
}

type PlayerRecordsQuery struct {
	SteamID64 int64
	APIMode   string // kz_timer, kz_simple, kz_vanilla
	RunClass  domain.RunClass
	MapName   string // optional
	Stage     *int   // optional
	Limit     int    // 0 means the full-page limit
}

// PlayerRecords fetches a player's top records with the given filters.
func (c *GlobalClient) PlayerRecords(ctx context.Context, q PlayerRecordsQuery) ([]GlobalRecord, error) {
	url := fmt.Sprintf("%s/records/top?steamid64=%d&tickrate=128&modes_list_string=%s",
		c.baseURL, q.SteamID64, q.APIMode)
	if q.Stage != nil {
		url += fmt.Sprintf("&stage=%d", *q.Stage)
	}
	url += runClassFilter(q.RunClass)
	if q.MapName != "" {
		url += "&map_name=" + q.MapName
	}
	if q.Limit > 0 {
		url += fmt.Sprintf("&limit=%d", q.Limit)
	} else {
		url += fmt.Sprintf("&limit=%d", constants.RecordsPageLimit)
	}
	return c.records(ctx, url)
}

// MapRecord fetches the single fastest record on a map stage, optionally
// restricted to one run class. Returns (nil, nil) when nobody has a time.
func (c *GlobalClient) MapRecord(ctx context.Context, mapName string, stage int, apiMode string, rc domain.RunClass) (*GlobalRecord, error) {
	url := fmt.Sprintf("%s/records/top?map_name=%s&stage=%d&modes_list_string=%s&limit=1",
		c.baseURL, mapName, stage, apiMode)
	url += runClassFilter(rc)
	records, err := c.records(ctx, url)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func (c *GlobalClient) records(ctx context.Context, url string) ([]GlobalRecord, error) {
	status, body, err := get(ctx, c.client, globalService, url)
	if err != nil {
		return nil, err
	}
	if status != fasthttp.StatusOK {
		return nil, &domain.UpstreamUnavailableError{Service: globalService, Err: fmt.Errorf("HTTP %d", status)}
	}
	records, err := decode[[]GlobalRecord](globalService, body)
	if err != nil {
		return nil, err
	}
	return *records, nil
}

// Place returns a record's global rank on its leaderboard.
func (c *GlobalClient) Place(ctx context.Context, recordID int64) (int, error) {
	url := fmt.Sprintf("%s/records/place/%d", c.baseURL, recordID)
	status, body, err := get(ctx, c.client, globalService, url)
	if err != nil {
		return 0, err
	}
	if status != fasthttp.StatusOK {
		return 0, &domain.UpstreamUnavailableError{Service: globalService, Err: fmt.Errorf("HTTP %d", status)}
	}
	place, err := decode[int](globalService, body)
	if err != nil {
		return 0, err
	}
	return *place, nil
}

type GlobalPlayerRank struct {
	PlayerName *string  `json:"player_name"`
	Points     *int     `json:"points"`
	Average    *float64 `json:"average"`
}

// PlayerRanks returns the cumulative point standing for a player in one
// mode. Empty when the player has no records at all.
func (c *GlobalClient) PlayerRanks(ctx context.Context, steamID64 int64, modeID int) ([]GlobalPlayerRank, error) {
	url := fmt.Sprintf("%s/player_ranks?steamid64s=%d&stages=0&mode_ids=%d&tickrates=128",
		c.baseURL, steamID64, modeID)
	status, body, err := get(ctx, c.client, globalService, url)
	if err != nil {
		return nil, err
	}
	if status != fasthttp.StatusOK {
		return nil, &domain.UpstreamUnavailableError{Service: globalService, Err: fmt.Errorf("HTTP %d", status)}
	}
	ranks, err := decode[[]GlobalPlayerRank](globalService, body)
	if err != nil {
		return nil, err
	}
	return *ranks, nil
}

func runClassFilter(rc domain.RunClass) string {
	switch rc {
	case domain.RunTP:
		return "&has_teleports=true"
	case domain.RunPro:
		return "&has_teleports=false"
	}
	return ""
}
