package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"kz-tracker/internal/api"
	"kz-tracker/internal/config"
	"kz-tracker/internal/domain"
	"kz-tracker/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCS2Provider(t *testing.T, mode domain.Mode, mux *http.ServeMux, maps *repository.MapRepository) *CS2Provider {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(dead.Close)

	cfg := &config.Config{
		ExtendedAPIURL:    server.URL,
		SteamCommunityURL: dead.URL,
		LegacyImageURL:    dead.URL,
		ExtendedImageURL:  dead.URL,
	}
	return &CS2Provider{
		mode:   mode,
		client: api.NewCS2Client(cfg),
		images: api.NewImageClient(cfg),
		steam:  api.NewSteamClient(cfg),
		maps:   maps,
		logger: zerolog.Nop(),
	}
}

const cs2MapBody = `{
	"id": 11, "name": "kz_grotto", "state": "approved",
	"courses": [
		{"name": "Main", "filters": {
			"classic": {"nub_tier": "medium", "pro_tier": "hard"},
			"vanilla": {"nub_tier": "advanced", "pro_tier": "impossible"}
		}},
		{"name": "Cave Route", "filters": {
			"classic": {"nub_tier": "extreme", "pro_tier": "death"},
			"vanilla": null
		}}
	]
}`

func TestCS2GetMapRejectsBonus(t *testing.T) {
	p := newCS2Provider(t, domain.ModeCKZ, http.NewServeMux(), newTestMaps(t))

	_, err := p.GetMap(context.Background(), "kz_grotto", "", 1)
	var invalid *domain.InvalidInputError
	require.True(t, errors.As(err, &invalid))
	assert.Contains(t, invalid.Reason, "course")
}

func TestCS2GetMapResolvesNamedCourse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/maps/kz_grotto", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(cs2MapBody))
	})
	p := newCS2Provider(t, domain.ModeCKZ, mux, newTestMaps(t))

	m, err := p.GetMap(context.Background(), "kz_grotto", "cave", 0)
	require.NoError(t, err)
	assert.Equal(t, "Cave Route", m.Course)
	assert.Equal(t, 7, *m.Tier)
	assert.Equal(t, 8, *m.ProTier)
	assert.Equal(t, domain.ExtendedMaxTier, m.MaxTier)
}

func TestCS2GetMapVanillaFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/maps/kz_grotto", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(cs2MapBody))
	})
	p := newCS2Provider(t, domain.ModeVNL2, mux, newTestMaps(t))

	m, err := p.GetMap(context.Background(), "kz_grotto", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "Main", m.Course)
	assert.Equal(t, 4, *m.Tier)
	assert.Equal(t, 10, *m.ProTier)
}

func TestCS2GetMapUnknownCourse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/maps/kz_grotto", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(cs2MapBody))
	})
	p := newCS2Provider(t, domain.ModeCKZ, mux, newTestMaps(t))

	_, err := p.GetMap(context.Background(), "kz_grotto", "secret", 0)
	var invalid *domain.InvalidInputError
	require.True(t, errors.As(err, &invalid))
}

func TestCS2GetMapCachedMainCourse(t *testing.T) {
	maps := newTestMaps(t)
	seedMap(t, maps, domain.Map{
		CatalogID: 11, Extended: true, Name: "kz_grotto", Course: "Main",
		Tier: intPtr(3), ProTier: intPtr(5),
		VNLTier: intPtr(4), VNLProTier: intPtr(10),
	})
	p := newCS2Provider(t, domain.ModeVNL2, http.NewServeMux(), maps)

	m, err := p.GetMap(context.Background(), "kz_grotto", "main", 0)
	require.NoError(t, err)
	// The vanilla mode reads the secondary tier pair off the cached row.
	assert.Equal(t, 4, *m.Tier)
	assert.Equal(t, 10, *m.ProTier)
}

const cs2RecordBody = `{"values": [{
	"id": 77,
	"player": {"id": "STEAM_0:0:11101", "name": "p"},
	"map": {"id": 11, "name": "kz_grotto"},
	"course": {"id": 1, "name": "Main"},
	"teleports": 0,
	"time": 62.5,
	"submitted_at": "2024-03-01T08:00:00+00:00",
	"nub_points": 9100.5,
	"pro_points": 9350.25,
	"nub_rank": 4,
	"pro_rank": 2
}]}`

func TestCS2PersonalBest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/records", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "time", q.Get("sort_by"))
		assert.Equal(t, "ascending", q.Get("sort_order"))
		w.Write([]byte(cs2RecordBody))
	})
	p := newCS2Provider(t, domain.ModeCKZ, mux, newTestMaps(t))

	m := &domain.Map{Extended: true, Name: "kz_grotto", Course: "Main"}
	pb, err := p.GetPersonalBest(context.Background(), 76561197960287930, m, domain.RunAny)
	require.NoError(t, err)
	require.NotNil(t, pb)
	assert.Equal(t, int64(76561197960287930), pb.SteamID64)
	// A teleport-free run is scored off the pro leaderboard.
	assert.Equal(t, 9350, pb.Points)
	assert.Equal(t, 10000, pb.PointScale)
	require.NotNil(t, pb.Place)
	assert.Equal(t, 2, *pb.Place)
}

func TestCS2WorldRecordsSingleEntryWhenOverallIsPro(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/records", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(cs2RecordBody))
	})
	p := newCS2Provider(t, domain.ModeCKZ, mux, newTestMaps(t))
	assert.False(t, p.HasTPAndProWRs())

	wrs, err := p.GetWorldRecords(context.Background(), &domain.Map{Name: "kz_grotto", Course: "Main"})
	require.NoError(t, err)
	require.Len(t, wrs, 1)
	assert.True(t, wrs[0].Pro())
	assert.Equal(t, 1, calls)
}

func TestCS2ProfileRanksOnTenthOfRating(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/players/76561197960287930/profile", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "classic", r.URL.Query().Get("mode"))
		w.Write([]byte(`{"name": "p", "rating": 62345.7}`))
	})
	p := newCS2Provider(t, domain.ModeCKZ, mux, newTestMaps(t))

	profile, err := p.GetProfile(context.Background(), 76561197960287930)
	require.NoError(t, err)
	assert.Equal(t, domain.RankCasual, profile.Rank)
	assert.Equal(t, 6234, profile.Points)
	assert.Nil(t, profile.Average)
}

func TestCS2ProfileTinyRatingIsNotNew(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/players/76561197960287930/profile", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name": "p", "rating": 3.0}`))
	})
	p := newCS2Provider(t, domain.ModeCKZ, mux, newTestMaps(t))

	profile, err := p.GetProfile(context.Background(), 76561197960287930)
	require.NoError(t, err)
	// 0.3 points rounds down to zero, but the rank must not.
	assert.Equal(t, domain.RankBeginner, profile.Rank)
	assert.Equal(t, 0, profile.Points)
}

func TestCS2ProfileUnknownPlayer(t *testing.T) {
	p := newCS2Provider(t, domain.ModeCKZ, http.NewServeMux(), newTestMaps(t))

	profile, err := p.GetProfile(context.Background(), 76561197960287930)
	require.NoError(t, err)
	assert.Equal(t, domain.RankUnknown, profile.Rank)
	assert.Empty(t, profile.Name)
}

func TestSteamIDToSteamID64(t *testing.T) {
	id, err := steamIDToSteamID64("STEAM_0:0:11101")
	require.NoError(t, err)
	assert.Equal(t, int64(76561197960287930), id)

	id, err = steamIDToSteamID64("STEAM_1:1:46661")
	require.NoError(t, err)
	assert.Equal(t, int64(76561197960265728+46661*2+1), id)

	for _, bad := range []string{"", "76561197960287930", "STEAM_0:2:1", "STEAM_0:0:x"} {
		_, err := steamIDToSteamID64(bad)
		assert.Error(t, err, bad)
	}
}
