package service

import (
	"context"
	"strconv"
	"strings"

	"kz-tracker/internal/api"
	"kz-tracker/internal/domain"
	"kz-tracker/internal/ranking"
	"kz-tracker/internal/repository"

	"github.com/rs/zerolog"
)

var extendedAPIModes = map[domain.Mode]string{
	domain.ModeCKZ:  "classic",
	domain.ModeVNL2: "vanilla",
}

// CS2Provider serves the extended records family: named courses instead of
// numbered bonuses, a unified leaderboard, and 10-step tier ratings carried
// as string codes in the catalog.
type CS2Provider struct {
	mode   domain.Mode
	client *api.CS2Client
	images *api.ImageClient
	steam  *api.SteamClient
	maps   *repository.MapRepository
	logger zerolog.Logger
}

func (p *CS2Provider) Mode() domain.Mode { return p.mode }

func (p *CS2Provider) HasTPAndProWRs() bool { return false }

func (p *CS2Provider) GetMap(ctx context.Context, name, course string, bonus int) (*domain.Map, error) {
	if bonus != 0 {
		return nil, &domain.InvalidInputError{
			Reason: "bonuses aren't supported on this mode; did you mean to specify a course?",
		}
	}

	m, err := resolveCached(ctx, p.maps, name, true)
	if err != nil {
		return nil, err
	}

	// The cache only carries the main course, so an explicit non-main course
	// always goes to the remote catalog.
	if m != nil && (course == "" || strings.EqualFold(course, m.Course)) {
		m.MaxTier = domain.ExtendedMaxTier
		if p.mode == domain.ModeVNL2 {
			m.Tier = m.VNLTier
			m.ProTier = m.VNLProTier
		}
		if m.Thumbnail == nil {
			p.attachThumbnail(ctx, m, 1)
		}
		return m, nil
	}

	return p.lookupRemote(ctx, name, course)
}

func (p *CS2Provider) lookupRemote(ctx context.Context, name, course string) (*domain.Map, error) {
	entry, err := p.client.MapByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, &domain.MapNotFoundError{Name: name}
	}
	if len(entry.Courses) == 0 {
		return nil, &domain.MalformedResponseError{Service: "cs2kz API", Field: "courses"}
	}

	// Course IDs are the 1-based position in the catalog's course list; the
	// thumbnail host is keyed the same way.
	courseID := 0
	var matched *api.CS2Course
	for i := range entry.Courses {
		c := &entry.Courses[i]
		if course == "" || (c.Name != nil && strings.Contains(strings.ToLower(*c.Name), strings.ToLower(course))) {
			courseID = i + 1
			matched = c
			break
		}
	}
	if matched == nil {
		return nil, &domain.InvalidInputError{Reason: "map course not found"}
	}

	m := &domain.Map{
		Extended: true,
		Name:     name,
		MaxTier:  domain.ExtendedMaxTier,
	}
	if entry.ID != nil {
		m.CatalogID = *entry.ID
	}
	if entry.Name != nil {
		m.Name = *entry.Name
	}
	if matched.Name != nil {
		m.Course = *matched.Name
	}
	m.Tier, m.ProTier = courseTiers(matched, p.mode)
	p.attachThumbnail(ctx, m, courseID)
	return m, nil
}

// courseTiers picks the mode's filter and converts its string tier codes.
// Unknown or absent codes leave the tier unset.
func courseTiers(c *api.CS2Course, mode domain.Mode) (tier, proTier *int) {
	if c.Filters == nil {
		return nil, nil
	}
	filter := c.Filters.Classic
	if mode == domain.ModeVNL2 {
		filter = c.Filters.Vanilla
	}
	if filter == nil {
		return nil, nil
	}
	if filter.NubTier != nil {
		if t := domain.TierFromCode(*filter.NubTier); t != 0 {
			tier = intPtr(t)
		}
	}
	if filter.ProTier != nil {
		if t := domain.TierFromCode(*filter.ProTier); t != 0 {
			proTier = intPtr(t)
		}
	}
	return tier, proTier
}

func (p *CS2Provider) attachThumbnail(ctx context.Context, m *domain.Map, courseID int) {
	thumbnail, err := p.images.ExtendedThumbnail(ctx, m.Name, courseID)
	if err != nil {
		p.logger.Debug().Err(err).Str("map", m.Name).Msg("couldn't get map thumbnail")
		return
	}
	m.Thumbnail = thumbnail
}

func (p *CS2Provider) GetPersonalBest(ctx context.Context, steamID64 int64, m *domain.Map, class domain.RunClass) (*domain.Record, error) {
	raw, err := p.client.TopRecord(ctx, api.CS2RecordQuery{
		APIMode:   extendedAPIModes[p.mode],
		SteamID64: steamID64,
		MapName:   m.Name,
		Course:    m.Course,
		RunClass:  class,
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return p.recordFromCS2(raw, m)
}

func (p *CS2Provider) GetLatest(ctx context.Context, steamID64 int64, class domain.RunClass) (*domain.Record, error) {
	raw, err := p.client.TopRecord(ctx, api.CS2RecordQuery{
		APIMode:   extendedAPIModes[p.mode],
		SteamID64: steamID64,
		RunClass:  class,
		Latest:    true,
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	if raw.Map == nil || raw.Map.Name == nil {
		return nil, &domain.MalformedResponseError{Service: "cs2kz API", Field: "map"}
	}
	course := ""
	if raw.Course != nil && raw.Course.Name != nil {
		course = *raw.Course.Name
	}
	m, err := p.GetMap(ctx, *raw.Map.Name, course, 0)
	if err != nil {
		if isMapResolutionError(err) {
			return nil, &domain.MalformedResponseError{Service: "cs2kz API", Field: "map"}
		}
		return nil, err
	}
	return p.recordFromCS2(raw, m)
}

func (p *CS2Provider) GetWorldRecords(ctx context.Context, m *domain.Map) ([]domain.Record, error) {
	overall, err := p.client.TopRecord(ctx, api.CS2RecordQuery{
		APIMode: extendedAPIModes[p.mode],
		MapName: m.Name,
		Course:  m.Course,
	})
	if err != nil {
		return nil, err
	}
	if overall == nil {
		return nil, nil
	}
	record, err := p.recordFromCS2(overall, m)
	if err != nil {
		return nil, err
	}
	if record.Pro() {
		// The overall fastest run is also the pro record, so the board has a
		// single entry.
		return []domain.Record{*record}, nil
	}

	records := []domain.Record{*record}
	pro, err := p.client.TopRecord(ctx, api.CS2RecordQuery{
		APIMode:  extendedAPIModes[p.mode],
		MapName:  m.Name,
		Course:   m.Course,
		RunClass: domain.RunPro,
	})
	if err != nil {
		return nil, err
	}
	if pro != nil {
		proRecord, err := p.recordFromCS2(pro, m)
		if err != nil {
			return nil, err
		}
		records = append(records, *proRecord)
	}
	return records, nil
}

func (p *CS2Provider) GetProfile(ctx context.Context, steamID64 int64) (*domain.Profile, error) {
	raw, err := p.client.Profile(ctx, steamID64, extendedAPIModes[p.mode])
	if err != nil {
		return nil, err
	}

	if raw == nil {
		name, err := p.steam.Name(ctx, steamID64)
		if err != nil {
			p.logger.Warn().Err(err).Int64("steamid64", steamID64).Msg("couldn't resolve player name")
		}
		return &domain.Profile{
			Name: name,
			Mode: p.mode,
			Rank: domain.RankUnknown,
		}, nil
	}
	if raw.Rating == nil {
		return nil, &domain.MalformedResponseError{Service: "cs2kz API", Field: "rating"}
	}

	points := *raw.Rating / 10
	profile := &domain.Profile{
		Mode:   p.mode,
		Rank:   ranking.Extended(points),
		Points: int(points),
	}
	if raw.Name != nil {
		profile.Name = *raw.Name
	}
	return profile, nil
}

func (p *CS2Provider) recordFromCS2(raw *api.CS2Record, m *domain.Map) (*domain.Record, error) {
	malformed := func(field string) error {
		return &domain.MalformedResponseError{Service: "cs2kz API", Field: field}
	}
	if raw.ID == nil {
		return nil, malformed("id")
	}
	if raw.Player == nil || raw.Player.ID == nil {
		return nil, malformed("player")
	}
	steamID64, err := steamIDToSteamID64(*raw.Player.ID)
	if err != nil {
		return nil, malformed("player.id")
	}
	if raw.Teleports == nil {
		return nil, malformed("teleports")
	}
	if raw.Time == nil {
		return nil, malformed("time")
	}
	if raw.SubmittedAt == nil {
		return nil, malformed("submitted_at")
	}
	submitted, ok := parseSubmissionTime(*raw.SubmittedAt)
	if !ok {
		return nil, malformed("submitted_at")
	}

	// A pro run is scored on the pro board, anything with teleports on the
	// overall (nub) one.
	points := raw.NubPoints
	rank := raw.NubRank
	pointsField, rankField := "nub_points", "nub_rank"
	if *raw.Teleports == 0 {
		points = raw.ProPoints
		rank = raw.ProRank
		pointsField, rankField = "pro_points", "pro_rank"
	}
	if points == nil {
		return nil, malformed(pointsField)
	}
	if rank == nil {
		return nil, malformed(rankField)
	}

	record := &domain.Record{
		ID:          *raw.ID,
		SteamID64:   steamID64,
		Map:         m,
		Time:        secondsToDuration(*raw.Time),
		Teleports:   *raw.Teleports,
		Points:      int(*points),
		PointScale:  10000,
		Place:       intPtr(*rank),
		SubmittedAt: submitted,
	}
	if raw.Player.Name != nil {
		record.PlayerName = *raw.Player.Name
	}
	return record, nil
}

const steamID64Base = 76561197960265728

// steamIDToSteamID64 converts the textual STEAM_X:Y:Z form the extended API
// reports into the 64-bit account identifier.
func steamIDToSteamID64(steamID string) (int64, error) {
	rest, ok := strings.CutPrefix(steamID, "STEAM_")
	if !ok {
		return 0, strconv.ErrSyntax
	}
	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return 0, strconv.ErrSyntax
	}
	parity, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || (parity != 0 && parity != 1) {
		return 0, strconv.ErrSyntax
	}
	accountID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || accountID < 0 {
		return 0, strconv.ErrSyntax
	}
	return steamID64Base + accountID*2 + parity, nil
}
