package service

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"kz-tracker/internal/api"
	"kz-tracker/internal/constants"
	"kz-tracker/internal/domain"
	"kz-tracker/internal/ranking"
	"kz-tracker/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var legacyAPIModes = map[domain.Mode]string{
	domain.ModeKZT: "kz_timer",
	domain.ModeSKZ: "kz_simple",
	domain.ModeVNL: "kz_vanilla",
}

var legacyModeIDs = map[domain.Mode]int{
	domain.ModeKZT: 200,
	domain.ModeSKZ: 201,
	domain.ModeVNL: 202,
}

// LegacyProvider serves the legacy records family. It keeps separate TP and
// pro leaderboards, supports numbered bonus stages, and rates maps on the
// 7-step scale (10-step for the vanilla mode, via the secondary service).
type LegacyProvider struct {
	mode   domain.Mode
	client *api.GlobalClient
	vnl    *api.VNLClient
	images *api.ImageClient
	steam  *api.SteamClient
	maps   *repository.MapRepository
	logger zerolog.Logger
}

func (p *LegacyProvider) Mode() domain.Mode { return p.mode }

func (p *LegacyProvider) HasTPAndProWRs() bool { return true }

func (p *LegacyProvider) GetMap(ctx context.Context, name, course string, bonus int) (*domain.Map, error) {
	if course != "" {
		return nil, &domain.InvalidInputError{
			Reason: "courses aren't supported on this mode; did you mean to specify a bonus?",
		}
	}

	m, err := resolveCached(ctx, p.maps, name, false)
	if err != nil {
		return nil, err
	}
	if m == nil {
		// Read-through only: ad-hoc lookups never populate the cache.
		m, err = p.lookupRemote(ctx, name)
		if err != nil {
			return nil, err
		}
	}

	m.Bonus = bonus
	m.MaxTier = domain.LegacyMaxTier

	if bonus > 0 {
		// Bonus stages carry no tier rating.
		m.Tier = nil
		m.ProTier = nil
	} else if p.mode == domain.ModeVNL {
		m.MaxTier = domain.ExtendedMaxTier
		if m.VNLTier != nil && m.VNLProTier != nil {
			m.Tier = m.VNLTier
			m.ProTier = m.VNLProTier
		} else {
			tp, pro, err := p.vnl.TiersForMap(ctx, m.Name)
			if err != nil {
				p.logger.Error().Err(err).Str("map", m.Name).Msg("couldn't get vnl map tiers")
				m.Tier = nil
				m.ProTier = nil
			} else {
				m.Tier = intPtr(tp)
				m.ProTier = intPtr(pro)
			}
		}
	}

	if m.Thumbnail == nil {
		thumbnail, err := p.images.LegacyThumbnail(ctx, m.Name)
		if err != nil {
			p.logger.Debug().Err(err).Str("map", m.Name).Msg("couldn't get map thumbnail")
		}
		m.Thumbnail = thumbnail
	}

	return m, nil
}

func (p *LegacyProvider) lookupRemote(ctx context.Context, name string) (*domain.Map, error) {
	entry, err := p.client.MapByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, &domain.MapNotFoundError{Name: name}
	}
	if entry.Difficulty == nil {
		return nil, &domain.MalformedResponseError{Service: "global API", Field: "difficulty"}
	}

	m := &domain.Map{Name: name}
	if entry.ID != nil {
		m.CatalogID = *entry.ID
	}
	if entry.Name != nil {
		m.Name = *entry.Name
	}
	m.Tier = intPtr(*entry.Difficulty)
	m.ProTier = intPtr(*entry.Difficulty)
	return m, nil
}

func (p *LegacyProvider) GetPersonalBest(ctx context.Context, steamID64 int64, m *domain.Map, class domain.RunClass) (*domain.Record, error) {
	stage := m.Bonus
	raw, err := p.client.PlayerRecords(ctx, api.PlayerRecordsQuery{
		SteamID64: steamID64,
		APIMode:   legacyAPIModes[p.mode],
		MapName:   m.Name,
		Stage:     &stage,
		Limit:     constants.PersonalBestFetchLimit,
	})
	if err != nil {
		return nil, err
	}

	var records []*domain.Record
	for i := range raw {
		record, err := p.recordFromGlobal(&raw[i], m)
		if err != nil {
			return nil, err
		}
		switch class {
		case domain.RunPro:
			if record.Teleports != 0 {
				continue
			}
		case domain.RunTP:
			if record.Teleports == 0 {
				continue
			}
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Stable sort: on an exact time tie the upstream list order wins.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Time < records[j].Time
	})
	best := records[0]
	p.attachPlace(ctx, best)
	return best, nil
}

func (p *LegacyProvider) GetLatest(ctx context.Context, steamID64 int64, class domain.RunClass) (*domain.Record, error) {
	stage := 0

	// The service has no unified leaderboard, so "either" means fetching
	// both flavors and merging.
	var tpRecords, proRecords []api.GlobalRecord
	g, gctx := errgroup.WithContext(ctx)
	fetch := func(rc domain.RunClass, out *[]api.GlobalRecord) func() error {
		return func() error {
			var err error
			*out, err = p.client.PlayerRecords(gctx, api.PlayerRecordsQuery{
				SteamID64: steamID64,
				APIMode:   legacyAPIModes[p.mode],
				RunClass:  rc,
				Stage:     &stage,
			})
			return err
		}
	}
	if class == domain.RunTP || class == domain.RunAny {
		g.Go(fetch(domain.RunTP, &tpRecords))
	}
	if class == domain.RunPro || class == domain.RunAny {
		g.Go(fetch(domain.RunPro, &proRecords))
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := append(tpRecords, proRecords...)
	if len(merged) == 0 {
		return nil, nil
	}

	// Newest submission first; exact timestamp ties fall back to list order
	// (TP before pro), which is as good as the upstream data allows.
	sort.SliceStable(merged, func(i, j int) bool {
		return createdOn(&merged[i]) > createdOn(&merged[j])
	})
	newest := &merged[0]

	if newest.MapName == nil {
		return nil, &domain.MalformedResponseError{Service: "global API", Field: "map_name"}
	}
	m, err := p.GetMap(ctx, *newest.MapName, "", 0)
	if err != nil {
		if isMapResolutionError(err) {
			return nil, &domain.MalformedResponseError{Service: "global API", Field: "map_name"}
		}
		return nil, err
	}

	record, err := p.recordFromGlobal(newest, m)
	if err != nil {
		return nil, err
	}
	p.attachPlace(ctx, record)
	return record, nil
}

func (p *LegacyProvider) GetWorldRecords(ctx context.Context, m *domain.Map) ([]domain.Record, error) {
	var tpRecord, proRecord *api.GlobalRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tpRecord, err = p.client.MapRecord(gctx, m.Name, m.Bonus, legacyAPIModes[p.mode], domain.RunTP)
		return err
	})
	g.Go(func() error {
		var err error
		proRecord, err = p.client.MapRecord(gctx, m.Name, m.Bonus, legacyAPIModes[p.mode], domain.RunPro)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var records []domain.Record
	for _, raw := range []*api.GlobalRecord{tpRecord, proRecord} {
		if raw == nil {
			continue
		}
		record, err := p.recordFromGlobal(raw, m)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}

func (p *LegacyProvider) GetProfile(ctx context.Context, steamID64 int64) (*domain.Profile, error) {
	ranks, err := p.client.PlayerRanks(ctx, steamID64, legacyModeIDs[p.mode])
	if err != nil {
		return nil, err
	}

	if len(ranks) == 0 {
		// No records at all: resolve a display name so the profile isn't
		// blank, but a dead identity service shouldn't fail the call.
		name, err := p.steam.Name(ctx, steamID64)
		if err != nil {
			p.logger.Warn().Err(err).Int64("steamid64", steamID64).Msg("couldn't resolve player name")
		}
		return &domain.Profile{
			Name:    name,
			Mode:    p.mode,
			Rank:    domain.RankNew,
			Points:  0,
			Average: intPtr(0),
		}, nil
	}

	info := ranks[0]
	if info.Points == nil {
		return nil, &domain.MalformedResponseError{Service: "global API", Field: "points"}
	}
	if info.Average == nil {
		return nil, &domain.MalformedResponseError{Service: "global API", Field: "average"}
	}

	profile := &domain.Profile{
		Mode:    p.mode,
		Rank:    ranking.Legacy(p.mode, *info.Points),
		Points:  *info.Points,
		Average: intPtr(int(*info.Average)),
	}
	if info.PlayerName != nil {
		profile.Name = *info.PlayerName
	}
	return profile, nil
}

func (p *LegacyProvider) recordFromGlobal(raw *api.GlobalRecord, m *domain.Map) (*domain.Record, error) {
	malformed := func(field string) error {
		return &domain.MalformedResponseError{Service: "global API", Field: field}
	}
	if raw.SteamID64 == nil {
		return nil, malformed("steamid64")
	}
	steamID64, err := strconv.ParseInt(*raw.SteamID64, 10, 64)
	if err != nil {
		return nil, malformed("steamid64")
	}
	if raw.ID == nil {
		return nil, malformed("id")
	}
	if raw.Stage == nil {
		return nil, malformed("stage")
	}
	if raw.Time == nil {
		return nil, malformed("time")
	}
	if raw.Teleports == nil {
		return nil, malformed("teleports")
	}
	if raw.Points == nil {
		return nil, malformed("points")
	}
	if raw.CreatedOn == nil {
		return nil, malformed("created_on")
	}
	submitted, ok := parseSubmissionTime(*raw.CreatedOn)
	if !ok {
		return nil, malformed("created_on")
	}

	record := &domain.Record{
		ID:          *raw.ID,
		SteamID64:   steamID64,
		Map:         m,
		Time:        secondsToDuration(*raw.Time),
		Teleports:   *raw.Teleports,
		Points:      *raw.Points,
		PointScale:  1000,
		SubmittedAt: submitted,
	}
	if raw.PlayerName != nil {
		record.PlayerName = *raw.PlayerName
	}
	return record, nil
}

// attachPlace is best-effort: a failed place lookup degrades to an absent
// place, never to a failed operation.
func (p *LegacyProvider) attachPlace(ctx context.Context, record *domain.Record) {
	place, err := p.client.Place(ctx, record.ID)
	if err != nil {
		p.logger.Warn().Err(err).Int64("record_id", record.ID).Msg("couldn't get record place")
		return
	}
	record.Place = intPtr(place)
}

func createdOn(raw *api.GlobalRecord) string {
	if raw.CreatedOn == nil {
		return ""
	}
	return *raw.CreatedOn
}

// isMapResolutionError tells user-facing map errors apart from transport
// failures; when an upstream record references an unresolvable map, that is
// the upstream's data being wrong, not the user's input.
func isMapResolutionError(err error) bool {
	var invalid *domain.InvalidInputError
	var notFound *domain.MapNotFoundError
	var ambiguous *domain.AmbiguousMapError
	return errors.As(err, &invalid) || errors.As(err, &notFound) || errors.As(err, &ambiguous)
}
