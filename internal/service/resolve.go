package service

import (
	"context"
	"regexp"
	"time"

	"kz-tracker/internal/domain"
	"kz-tracker/internal/repository"
)

var mapNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// resolveCached runs the local part of map resolution, shared by both
// families: exact case-insensitive match first, then substring match. One
// substring hit resolves; several are ambiguous and terminal. Returns
// (nil, nil) when nothing matched, which sends the caller to the remote
// catalog. Validation happens before any lookup.
func resolveCached(ctx context.Context, maps *repository.MapRepository, name string, extended bool) (*domain.Map, error) {
	if !mapNamePattern.MatchString(name) {
		return nil, &domain.InvalidInputError{Reason: "invalid map name"}
	}

	m, err := maps.GetByName(ctx, name, extended)
	if err != nil {
		return nil, err
	}
	if m != nil {
		return m, nil
	}

	candidates, err := maps.SearchByName(ctx, name, extended)
	if err != nil {
		return nil, err
	}
	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return &candidates[0], nil
	default:
		return nil, &domain.AmbiguousMapError{Name: name, Candidates: candidates}
	}
}

// parseSubmissionTime accepts the upstreams' timestamp flavors: RFC 3339
// with an offset, or a bare ISO timestamp which is UTC by convention.
func parseSubmissionTime(value string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", value); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func intPtr(v int) *int { return &v }
