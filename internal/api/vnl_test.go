package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"kz-tracker/internal/config"
	"kz-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVNLClient(t *testing.T, handler http.HandlerFunc) *VNLClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewVNLClient(&config.Config{VNLAPIURL: server.URL})
}

func TestTiersForMap(t *testing.T) {
	client := newVNLClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/kz_gy_agitated", r.URL.Path)
		w.Write([]byte(`{"id": 3, "tpTier": 4, "proTier": 6}`))
	})

	tp, pro, err := client.TiersForMap(context.Background(), "kz_gy_agitated")
	require.NoError(t, err)
	assert.Equal(t, 4, tp)
	assert.Equal(t, 6, pro)
}

func TestTiersForMapNotRatedIsSentinel(t *testing.T) {
	client := newVNLClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	tp, pro, err := client.TiersForMap(context.Background(), "kz_unrated")
	require.NoError(t, err)
	assert.Equal(t, domain.SentinelTier, tp)
	assert.Equal(t, domain.SentinelTier, pro)
}

func TestTiersForMapMissingField(t *testing.T) {
	client := newVNLClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": 3, "tpTier": 4}`))
	})

	_, _, err := client.TiersForMap(context.Background(), "kz_partial")
	var malformed *domain.MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "proTier", malformed.Field)
}
