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

func newCS2Client(t *testing.T, handler http.HandlerFunc) *CS2Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewCS2Client(&config.Config{ExtendedAPIURL: server.URL})
}

func TestCS2MapsMissingEnvelope(t *testing.T) {
	client := newCS2Client(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total": 0}`))
	})

	_, err := client.Maps(context.Background())
	var malformed *domain.MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "values", malformed.Field)
}

func TestCS2MapByNameNotFound(t *testing.T) {
	client := newCS2Client(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	entry, err := client.MapByName(context.Background(), "kz_nope")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestTopRecordQueryShape(t *testing.T) {
	client := newCS2Client(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "classic", q.Get("mode"))
		assert.Equal(t, "true", q.Get("top"))
		assert.Equal(t, "kz_grotto", q.Get("map"))
		assert.Equal(t, "Main", q.Get("course"))
		assert.Equal(t, "time", q.Get("sort_by"))
		assert.Equal(t, "ascending", q.Get("sort_order"))
		assert.Equal(t, "1", q.Get("limit"))
		w.Write([]byte(`{"values": [{"id": 7, "teleports": 0, "time": 62.5}]}`))
	})

	record, err := client.TopRecord(context.Background(), CS2RecordQuery{
		APIMode: "classic",
		MapName: "kz_grotto",
	})
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, int64(7), *record.ID)
}

func TestTopRecordLatestSortsBySubmission(t *testing.T) {
	client := newCS2Client(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "submission-date", q.Get("sort_by"))
		assert.Equal(t, "descending", q.Get("sort_order"))
		assert.Equal(t, "76561197960287930", q.Get("player"))
		w.Write([]byte(`{"values": []}`))
	})

	record, err := client.TopRecord(context.Background(), CS2RecordQuery{
		APIMode:   "vanilla",
		SteamID64: 76561197960287930,
		Latest:    true,
	})
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestCS2ProfileNotFound(t *testing.T) {
	client := newCS2Client(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	profile, err := client.Profile(context.Background(), 1, "classic")
	require.NoError(t, err)
	assert.Nil(t, profile)
}
