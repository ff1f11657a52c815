package api

import (
	"context"
	"fmt"
	"net/url"

	"kz-tracker/internal/config"
	"kz-tracker/internal/domain"

	"github.com/valyala/fasthttp"
)

const cs2Service = "cs2kz API"

// CS2Client talks to the extended records service. Unlike the legacy one it
// wraps list results in a {"values": [...]} envelope and reports not-found
// with a real 404.
type CS2Client struct {
	baseURL string
	client  *fasthttp.Client
}

func NewCS2Client(cfg *config.Config) *CS2Client {
	return &CS2Client{
		baseURL: cfg.ExtendedAPIURL,
		client:  newHTTPClient(),
	}
}

type CS2MapEntry struct {
	ID      *int64      `json:"id"`
	Name    *string     `json:"name"`
	State   *string     `json:"state"`
	Courses []CS2Course `json:"courses"`
}

type CS2Course struct {
	Name    *string     `json:"name"`
	Filters *CS2Filters `json:"filters"`
}

type CS2Filters struct {
	Classic *CS2Filter `json:"classic"`
	Vanilla *CS2Filter `json:"vanilla"`
}

type CS2Filter struct {
	NubTier *string `json:"nub_tier"`
	ProTier *string `json:"pro_tier"`
}

type cs2MapsEnvelope struct {
	Values *[]CS2MapEntry `json:"values"`
}

func (c *CS2Client) Maps(ctx context.Context) ([]CS2MapEntry, error) {
	url := c.baseURL + "/maps"
	status, body, err := get(ctx, c.client, cs2Service, url)
	if err != nil {
		return nil, err
	}
	if status != fasthttp.StatusOK {
		return nil, &domain.UpstreamUnavailableError{Service: cs2Service, Err: fmt.Errorf("HTTP %d", status)}
	}
	envelope, err := decode[cs2MapsEnvelope](cs2Service, body)
	if err != nil {
		return nil, err
	}
	if envelope.Values == nil {
		return nil, &domain.MalformedResponseError{Service: cs2Service, Field: "values"}
	}
	return *envelope.Values, nil
}

// MapByName returns (nil, nil) on 404.
func (c *CS2Client) MapByName(ctx context.Context, name string) (*CS2MapEntry, error) {
	url := c.baseURL + "/maps/" + name
	status, body, err := get(ctx, c.client, cs2Service, url)
	if err != nil {
		return nil, err
	}
	if status == fasthttp.StatusNotFound {
		return nil, nil
	}
	if status != fasthttp.StatusOK {
		return nil, &domain.UpstreamUnavailableError{Service: cs2Service, Err: fmt.Errorf("HTTP %d", status)}
	}
	return decode[CS2MapEntry](cs2Service, body)
}

type CS2Record struct {
	ID          *int64        `json:"id"`
	Player      *CS2Player    `json:"player"`
	Map         *CS2RecordRef `json:"map"`
	Course      *CS2RecordRef `json:"course"`
	Teleports   *int          `json:"teleports"`
	Time        *float64      `json:"time"`
	SubmittedAt *string       `json:"submitted_at"`
	NubPoints   *float64      `json:"nub_points"`
	ProPoints   *float64      `json:"pro_points"`
	NubRank     *int          `json:"nub_rank"`
	ProRank     *int          `json:"pro_rank"`
}

type CS2Player struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
}

type CS2RecordRef struct {
	ID   *int64  `json:"id"`
	Name *string `json:"name"`
}

type cs2RecordsEnvelope struct {
	Values *[]CS2Record `json:"values"`
}

type CS2RecordQuery struct {
	APIMode   string // classic, vanilla
	SteamID64 int64  // 0 means no player filter
	MapName   string // optional; Course only meaningful with MapName
	Course    string
	RunClass  domain.RunClass
	Latest    bool // newest submission first instead of fastest time first
}

// TopRecord fetches the single best-matching record from the unified
// leaderboard. Returns (nil, nil) when nothing matches.
func (c *CS2Client) TopRecord(ctx context.Context, q CS2RecordQuery) (*CS2Record, error) {
	u := fmt.Sprintf("%s/records?mode=%s&top=true", c.baseURL, q.APIMode)
	if q.SteamID64 != 0 {
		u += fmt.Sprintf("&player=%d", q.SteamID64)
	}
	if q.MapName != "" {
		course := q.Course
		if course == "" {
			course = "Main"
		}
		// Course names may contain spaces; map names are plain identifiers.
		u += fmt.Sprintf("&map=%s&course=%s", q.MapName, url.QueryEscape(course))
	}
	u += runClassFilter(q.RunClass)
	if q.Latest {
		u += "&sort_by=submission-date&sort_order=descending"
	} else {
		u += "&sort_by=time&sort_order=ascending"
	}
	u += "&limit=1"

	status, body, err := get(ctx, c.client, cs2Service, u)
	if err != nil {
		return nil, err
	}
	if status != fasthttp.StatusOK {
		return nil, &domain.UpstreamUnavailableError{Service: cs2Service, Err: fmt.Errorf("HTTP %d", status)}
	}
	envelope, err := decode[cs2RecordsEnvelope](cs2Service, body)
	if err != nil {
		return nil, err
	}
	if envelope.Values == nil {
		return nil, &domain.MalformedResponseError{Service: cs2Service, Field: "values"}
	}
	records := *envelope.Values
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

type CS2Profile struct {
	Name   *string  `json:"name"`
	Rating *float64 `json:"rating"`
}

// Profile returns (nil, nil) on 404, meaning the player has no records in
// that mode.
func (c *CS2Client) Profile(ctx context.Context, steamID64 int64, apiMode string) (*CS2Profile, error) {
	url := fmt.Sprintf("%s/players/%d/profile?mode=%s", c.baseURL, steamID64, apiMode)
	status, body, err := get(ctx, c.client, cs2Service, url)
	if err != nil {
		return nil, err
	}
	if status == fasthttp.StatusNotFound {
		return nil, nil
	}
	if status != fasthttp.StatusOK {
		return nil, &domain.UpstreamUnavailableError{Service: cs2Service, Err: fmt.Errorf("HTTP %d", status)}
	}
	return decode[CS2Profile](cs2Service, body)
}
