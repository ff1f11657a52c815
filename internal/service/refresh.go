package service

import (
	"context"
	"errors"

	"kz-tracker/internal/api"
	"kz-tracker/internal/domain"
	"kz-tracker/internal/repository"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// RefreshStats counts what one refresh run changed in the map cache.
type RefreshStats struct {
	New     int
	Updated int
	Deleted int
}

func (s RefreshStats) add(o RefreshStats) RefreshStats {
	return RefreshStats{New: s.New + o.New, Updated: s.Updated + o.Updated, Deleted: s.Deleted + o.Deleted}
}

// RefreshService synchronizes the local map cache against both upstream
// catalogs. Runs are idempotent; a second run against unchanged catalogs
// writes nothing. Not safe for concurrent runs, callers serialize.
type RefreshService struct {
	global *api.GlobalClient
	cs2    *api.CS2Client
	vnl    *api.VNLClient
	images *api.ImageClient
	maps   *repository.MapRepository
	logger zerolog.Logger
}

func NewRefreshService(
	global *api.GlobalClient,
	cs2 *api.CS2Client,
	vnl *api.VNLClient,
	images *api.ImageClient,
	maps *repository.MapRepository,
	logger zerolog.Logger,
) *RefreshService {
	return &RefreshService{
		global: global,
		cs2:    cs2,
		vnl:    vnl,
		images: images,
		maps:   maps,
		logger: logger,
	}
}

// RefreshAll refreshes both families. A dead catalog fails its family but
// never the other one; malformed single entries are logged and skipped so one
// bad row cannot block the rest of the run.
func (s *RefreshService) RefreshAll(ctx context.Context) (RefreshStats, error) {
	refreshID, err := gonanoid.New()
	if err != nil {
		refreshID = "unknown"
	}
	logger := s.logger.With().Str("refresh_id", refreshID).Logger()
	logger.Info().Msg("map cache refresh started")

	legacyStats, legacyErr := s.refreshLegacy(ctx, logger)
	extendedStats, extendedErr := s.refreshExtended(ctx, logger)

	stats := legacyStats.add(extendedStats)
	logger.Info().
		Int("new", stats.New).
		Int("updated", stats.Updated).
		Int("deleted", stats.Deleted).
		Msg("map cache refresh finished")
	return stats, errors.Join(legacyErr, extendedErr)
}

func (s *RefreshService) refreshLegacy(ctx context.Context, logger zerolog.Logger) (RefreshStats, error) {
	var stats RefreshStats

	entries, err := s.global.Maps(ctx)
	if err != nil {
		return stats, err
	}
	vnlTiers := s.vnlTiers(ctx, logger)

	for i := range entries {
		entry := &entries[i]
		if entry.ID == nil || entry.Name == nil || entry.Difficulty == nil || entry.Validated == nil {
			logger.Warn().Interface("entry", entry).Msg("skipping malformed legacy catalog entry")
			continue
		}

		if !*entry.Validated {
			deleted, err := s.maps.Delete(ctx, *entry.ID, false)
			if err != nil {
				logger.Error().Err(err).Str("map", *entry.Name).Msg("couldn't delete map")
				continue
			}
			if deleted {
				stats.Deleted++
			}
			continue
		}

		vnlTier, vnlProTier := domain.SentinelTier, domain.SentinelTier
		if tiers, ok := vnlTiers[*entry.ID]; ok {
			vnlTier, vnlProTier = tiers[0], tiers[1]
		}

		cached, err := s.maps.GetByCatalogID(ctx, *entry.ID, false)
		if err != nil {
			logger.Error().Err(err).Str("map", *entry.Name).Msg("couldn't read cached map")
			continue
		}

		if cached == nil {
			m := &domain.Map{
				CatalogID:  *entry.ID,
				Name:       *entry.Name,
				Tier:       intPtr(*entry.Difficulty),
				ProTier:    intPtr(*entry.Difficulty),
				VNLTier:    intPtr(vnlTier),
				VNLProTier: intPtr(vnlProTier),
			}
			m.Thumbnail = s.fetchThumbnail(ctx, logger, m.Name, 0)
			if err := s.maps.Insert(ctx, m); err != nil {
				logger.Error().Err(err).Str("map", m.Name).Msg("couldn't insert map")
				continue
			}
			stats.New++
			continue
		}

		changed := mergeString(&cached.Name, *entry.Name)
		changed = mergeTier(&cached.Tier, intPtr(*entry.Difficulty)) || changed
		changed = mergeTier(&cached.ProTier, intPtr(*entry.Difficulty)) || changed
		changed = mergeTier(&cached.VNLTier, intPtr(vnlTier)) || changed
		changed = mergeTier(&cached.VNLProTier, intPtr(vnlProTier)) || changed
		if cached.Thumbnail == nil {
			if thumbnail := s.fetchThumbnail(ctx, logger, cached.Name, 0); thumbnail != nil {
				cached.Thumbnail = thumbnail
				changed = true
			}
		}
		if !changed {
			continue
		}
		if err := s.maps.Update(ctx, cached); err != nil {
			logger.Error().Err(err).Str("map", cached.Name).Msg("couldn't update map")
			continue
		}
		stats.Updated++
	}
	return stats, nil
}

// vnlTiers is best-effort: when the tier service is down every legacy map
// falls back to the unrated sentinel, same as a per-map 404 would.
func (s *RefreshService) vnlTiers(ctx context.Context, logger zerolog.Logger) map[int64][2]int {
	tiers := make(map[int64][2]int)
	entries, err := s.vnl.Maps(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("couldn't list vnl map tiers")
		return tiers
	}
	for _, entry := range entries {
		if entry.ID == nil || entry.TPTier == nil || entry.ProTier == nil {
			continue
		}
		tiers[*entry.ID] = [2]int{*entry.TPTier, *entry.ProTier}
	}
	return tiers
}

func (s *RefreshService) refreshExtended(ctx context.Context, logger zerolog.Logger) (RefreshStats, error) {
	var stats RefreshStats

	entries, err := s.cs2.Maps(ctx)
	if err != nil {
		return stats, err
	}

	for i := range entries {
		entry := &entries[i]
		if entry.ID == nil || entry.Name == nil || entry.State == nil {
			logger.Warn().Interface("entry", entry).Msg("skipping malformed extended catalog entry")
			continue
		}

		if *entry.State != "approved" {
			deleted, err := s.maps.Delete(ctx, *entry.ID, true)
			if err != nil {
				logger.Error().Err(err).Str("map", *entry.Name).Msg("couldn't delete map")
				continue
			}
			if deleted {
				stats.Deleted++
			}
			continue
		}

		if len(entry.Courses) == 0 {
			logger.Warn().Str("map", *entry.Name).Msg("skipping extended catalog entry without courses")
			continue
		}
		main := &entry.Courses[0]
		courseName := ""
		if main.Name != nil {
			courseName = *main.Name
		}
		tier, proTier := extendedTierPair(main, false)
		vnlTier, vnlProTier := extendedTierPair(main, true)

		cached, err := s.maps.GetByCatalogID(ctx, *entry.ID, true)
		if err != nil {
			logger.Error().Err(err).Str("map", *entry.Name).Msg("couldn't read cached map")
			continue
		}

		if cached == nil {
			m := &domain.Map{
				CatalogID:  *entry.ID,
				Extended:   true,
				Name:       *entry.Name,
				Course:     courseName,
				Tier:       intPtr(tier),
				ProTier:    intPtr(proTier),
				VNLTier:    intPtr(vnlTier),
				VNLProTier: intPtr(vnlProTier),
			}
			m.Thumbnail = s.fetchThumbnail(ctx, logger, m.Name, 1)
			if err := s.maps.Insert(ctx, m); err != nil {
				logger.Error().Err(err).Str("map", m.Name).Msg("couldn't insert map")
				continue
			}
			stats.New++
			continue
		}

		changed := mergeString(&cached.Name, *entry.Name)
		changed = mergeString(&cached.Course, courseName) || changed
		changed = mergeTier(&cached.Tier, intPtr(tier)) || changed
		changed = mergeTier(&cached.ProTier, intPtr(proTier)) || changed
		changed = mergeTier(&cached.VNLTier, intPtr(vnlTier)) || changed
		changed = mergeTier(&cached.VNLProTier, intPtr(vnlProTier)) || changed
		if cached.Thumbnail == nil {
			if thumbnail := s.fetchThumbnail(ctx, logger, cached.Name, 1); thumbnail != nil {
				cached.Thumbnail = thumbnail
				changed = true
			}
		}
		if !changed {
			continue
		}
		if err := s.maps.Update(ctx, cached); err != nil {
			logger.Error().Err(err).Str("map", cached.Name).Msg("couldn't update map")
			continue
		}
		stats.Updated++
	}
	return stats, nil
}

// extendedTierPair reads the course's tier codes for one filter. Absent or
// unknown codes fall back to the unrated sentinel.
func extendedTierPair(c *api.CS2Course, vanilla bool) (tier, proTier int) {
	tier, proTier = domain.SentinelTier, domain.SentinelTier
	if c.Filters == nil {
		return tier, proTier
	}
	filter := c.Filters.Classic
	if vanilla {
		filter = c.Filters.Vanilla
	}
	if filter == nil {
		return tier, proTier
	}
	if filter.NubTier != nil {
		if t := domain.TierFromCode(*filter.NubTier); t != 0 {
			tier = t
		}
	}
	if filter.ProTier != nil {
		if t := domain.TierFromCode(*filter.ProTier); t != 0 {
			proTier = t
		}
	}
	return tier, proTier
}

// fetchThumbnail never fails the refresh; a missing image just leaves the
// column empty until a later run.
func (s *RefreshService) fetchThumbnail(ctx context.Context, logger zerolog.Logger, name string, courseID int) []byte {
	var thumbnail []byte
	var err error
	if courseID > 0 {
		thumbnail, err = s.images.ExtendedThumbnail(ctx, name, courseID)
	} else {
		thumbnail, err = s.images.LegacyThumbnail(ctx, name)
	}
	if err != nil {
		logger.Debug().Err(err).Str("map", name).Msg("couldn't get map thumbnail")
		return nil
	}
	return thumbnail
}

func mergeString(dst *string, v string) bool {
	if v != "" && v != *dst {
		*dst = v
		return true
	}
	return false
}

func mergeTier(dst **int, v *int) bool {
	if v != nil && (*dst == nil || **dst != *v) {
		*dst = v
		return true
	}
	return false
}
