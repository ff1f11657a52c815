package api

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"kz-tracker/internal/config"
	"kz-tracker/internal/constants"
	"kz-tracker/internal/domain"

	"github.com/valyala/fasthttp"
)

const (
	steamService = "Steam"
	steamHost    = "steamcommunity.com"
)

// SteamClient resolves identities against the Steam community XML profile
// endpoint. Profile URLs are validated against the real host regardless of
// the configured base URL, which only exists so tests can fake the upstream.
type SteamClient struct {
	baseURL string
	client  *fasthttp.Client
}

func NewSteamClient(cfg *config.Config) *SteamClient {
	return &SteamClient{
		baseURL: cfg.SteamCommunityURL,
		client:  newHTTPClient(),
	}
}

type steamProfile struct {
	SteamID64  string `xml:"steamID64"`
	SteamID    string `xml:"steamID"`
	AvatarFull string `xml:"avatarFull"`
}

// ResolveProfileURL turns a user-pasted profile URL into a steamid64.
func (c *SteamClient) ResolveProfileURL(ctx context.Context, profileURL string) (int64, error) {
	u, err := url.Parse(profileURL)
	if err != nil || u.Host != steamHost {
		return 0, &domain.InvalidInputError{Reason: "invalid Steam profile URL"}
	}

	profile, err := c.fetchProfile(ctx, c.baseURL+u.Path+"?xml=1")
	if err != nil {
		return 0, err
	}
	if profile.SteamID64 == "" {
		return 0, &domain.MalformedResponseError{Service: steamService, Field: "steamID64"}
	}
	steamID64, err := strconv.ParseInt(profile.SteamID64, 10, 64)
	if err != nil {
		return 0, &domain.MalformedResponseError{Service: steamService, Field: "steamID64"}
	}
	return steamID64, nil
}

// Name returns the display name for a steamid64.
func (c *SteamClient) Name(ctx context.Context, steamID64 int64) (string, error) {
	profile, err := c.fetchProfile(ctx, fmt.Sprintf("%s/profiles/%d?xml=1", c.baseURL, steamID64))
	if err != nil {
		return "", err
	}
	if profile.SteamID == "" {
		return "", &domain.MalformedResponseError{Service: steamService, Field: "steamID"}
	}
	return profile.SteamID, nil
}

// Avatar fetches the full-size avatar image bytes: one request for the
// profile document, a second for the image it points at.
func (c *SteamClient) Avatar(ctx context.Context, steamID64 int64) ([]byte, error) {
	profile, err := c.fetchProfile(ctx, fmt.Sprintf("%s/profiles/%d?xml=1", c.baseURL, steamID64))
	if err != nil {
		return nil, err
	}
	if profile.AvatarFull == "" {
		return nil, &domain.MalformedResponseError{Service: steamService, Field: "avatarFull"}
	}

	status, body, err := get(ctx, c.client, steamService, profile.AvatarFull)
	if err != nil {
		return nil, err
	}
	if status != fasthttp.StatusOK {
		return nil, &domain.UpstreamUnavailableError{Service: steamService, Err: fmt.Errorf("HTTP %d", status)}
	}
	return body, nil
}

func (c *SteamClient) fetchProfile(ctx context.Context, profileURL string) (*steamProfile, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(profileURL)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(constants.ExternalAPITimeout)
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, &domain.UpstreamUnavailableError{Service: steamService, Err: err}
	}

	contentType := string(resp.Header.ContentType())
	if resp.StatusCode() != fasthttp.StatusOK || !strings.HasPrefix(contentType, "text/xml") {
		return nil, &domain.UpstreamUnavailableError{
			Service: steamService,
			Err:     fmt.Errorf("HTTP %d (%s)", resp.StatusCode(), contentType),
		}
	}

	var profile steamProfile
	if err := xml.Unmarshal(resp.Body(), &profile); err != nil {
		return nil, &domain.MalformedResponseError{Service: steamService, Field: "xml"}
	}
	return &profile, nil
}
