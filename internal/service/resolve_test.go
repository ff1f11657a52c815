package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"kz-tracker/internal/config"
	"kz-tracker/internal/database"
	"kz-tracker/internal/domain"
	"kz-tracker/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(&config.Config{DBPath: ":memory:"}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestMaps(t *testing.T) *repository.MapRepository {
	t.Helper()
	return repository.NewMapRepository(newTestDB(t), zerolog.Nop())
}

func seedMap(t *testing.T, maps *repository.MapRepository, m domain.Map) {
	t.Helper()
	require.NoError(t, maps.Insert(context.Background(), &m))
}

func TestResolveCachedValidatesBeforeLookup(t *testing.T) {
	// A nil repository proves no I/O happens for invalid names.
	_, err := resolveCached(context.Background(), nil, "kz map!", false)
	var invalid *domain.InvalidInputError
	require.True(t, errors.As(err, &invalid))

	_, err = resolveCached(context.Background(), nil, "", false)
	require.True(t, errors.As(err, &invalid))
}

func TestResolveCachedExactMatchWinsOverSubstring(t *testing.T) {
	maps := newTestMaps(t)
	seedMap(t, maps, domain.Map{CatalogID: 1, Name: "kz_grotto"})
	seedMap(t, maps, domain.Map{CatalogID: 2, Name: "kz_grotto_v2"})

	m, err := resolveCached(context.Background(), maps, "KZ_GROTTO", false)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "kz_grotto", m.Name)
}

func TestResolveCachedSingleSubstringHit(t *testing.T) {
	maps := newTestMaps(t)
	seedMap(t, maps, domain.Map{CatalogID: 1, Name: "kz_apricity_v3"})
	seedMap(t, maps, domain.Map{CatalogID: 2, Name: "kz_grotto"})

	m, err := resolveCached(context.Background(), maps, "apricity", false)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "kz_apricity_v3", m.Name)
}

func TestResolveCachedAmbiguous(t *testing.T) {
	maps := newTestMaps(t)
	seedMap(t, maps, domain.Map{CatalogID: 1, Name: "kz_grotto"})
	seedMap(t, maps, domain.Map{CatalogID: 2, Name: "kz_grotto_v2"})

	_, err := resolveCached(context.Background(), maps, "grotto", false)
	var ambiguous *domain.AmbiguousMapError
	require.True(t, errors.As(err, &ambiguous))
	assert.Len(t, ambiguous.Candidates, 2)
}

func TestResolveCachedMissFallsThrough(t *testing.T) {
	maps := newTestMaps(t)
	seedMap(t, maps, domain.Map{CatalogID: 1, Name: "kz_grotto"})

	m, err := resolveCached(context.Background(), maps, "kz_unknown", false)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestParseSubmissionTime(t *testing.T) {
	// The legacy service reports bare timestamps, the extended one offsets.
	got, ok := parseSubmissionTime("2023-06-01T12:30:45")
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 6, 1, 12, 30, 45, 0, time.UTC), got)

	got, ok = parseSubmissionTime("2023-06-01T12:30:45+02:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 6, 1, 10, 30, 45, 0, time.UTC), got)

	_, ok = parseSubmissionTime("yesterday")
	assert.False(t, ok)
}
