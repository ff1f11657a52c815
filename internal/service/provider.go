package service

import (
	"context"

	"kz-tracker/internal/api"
	"kz-tracker/internal/domain"
	"kz-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// Provider is the mode-scoped adapter over one upstream records family.
// The two families disagree on schemas, filters, and pagination, so each
// keeps its own parsing behind this boundary.
type Provider interface {
	Mode() domain.Mode

	// HasTPAndProWRs reports whether the family tracks teleport and pro
	// world records as genuinely separate leaderboards.
	HasTPAndProWRs() bool

	// GetMap resolves a user-supplied name. course is only meaningful on the
	// extended family, bonus only on the legacy one; passing the unsupported
	// one is an input error.
	GetMap(ctx context.Context, name, course string, bonus int) (*domain.Map, error)

	// GetPersonalBest returns the player's fastest qualifying run on a map,
	// or nil when they have none. The global place is attached best-effort.
	GetPersonalBest(ctx context.Context, steamID64 int64, m *domain.Map, class domain.RunClass) (*domain.Record, error)

	// GetLatest returns the player's most recently submitted record across
	// all maps, or nil when they have none.
	GetLatest(ctx context.Context, steamID64 int64, class domain.RunClass) (*domain.Record, error)

	// GetWorldRecords returns up to two records: the fastest TP run and the
	// fastest pro run on the map.
	GetWorldRecords(ctx context.Context, m *domain.Map) ([]domain.Record, error)

	// GetProfile aggregates the player's standing in this mode, falling back
	// to the identity service for a name when they have no records.
	GetProfile(ctx context.Context, steamID64 int64) (*domain.Profile, error)
}

// Providers constructs mode-scoped Provider values over the shared clients
// and the map cache.
type Providers struct {
	global *api.GlobalClient
	cs2    *api.CS2Client
	vnl    *api.VNLClient
	images *api.ImageClient
	steam  *api.SteamClient
	maps   *repository.MapRepository
	logger zerolog.Logger
}

func NewProviders(
	global *api.GlobalClient,
	cs2 *api.CS2Client,
	vnl *api.VNLClient,
	images *api.ImageClient,
	steam *api.SteamClient,
	maps *repository.MapRepository,
	logger zerolog.Logger,
) *Providers {
	return &Providers{
		global: global,
		cs2:    cs2,
		vnl:    vnl,
		images: images,
		steam:  steam,
		maps:   maps,
		logger: logger,
	}
}

func (p *Providers) ForMode(mode domain.Mode) Provider {
	if mode.Extended() {
		return &CS2Provider{
			mode:   mode,
			client: p.cs2,
			images: p.images,
			steam:  p.steam,
			maps:   p.maps,
			logger: p.logger,
		}
	}
	return &LegacyProvider{
		mode:   mode,
		client: p.global,
		vnl:    p.vnl,
		images: p.images,
		steam:  p.steam,
		maps:   p.maps,
		logger: p.logger,
	}
}
