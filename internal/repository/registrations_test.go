package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"kz-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationLifecycle(t *testing.T) {
	repo := NewRegistrationRepository(newTestDB(t), zerolog.Nop())
	ctx := context.Background()

	reg, err := repo.Get(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Nil(t, reg)

	require.NoError(t, repo.Upsert(ctx, &domain.Registration{
		UserID: "u1", GuildID: "g1", SteamID64: 76561197960287930, Mode: domain.ModeSKZ,
	}))

	reg, err = repo.Get(ctx, "u1", "g1")
	require.NoError(t, err)
	require.NotNil(t, reg)
	assert.Equal(t, domain.ModeSKZ, reg.Mode)

	// Re-registering replaces the identity and mode.
	require.NoError(t, repo.Upsert(ctx, &domain.Registration{
		UserID: "u1", GuildID: "g1", SteamID64: 76561197960265730, Mode: domain.ModeCKZ,
	}))
	reg, err = repo.Get(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(76561197960265730), reg.SteamID64)
	assert.Equal(t, domain.ModeCKZ, reg.Mode)

	ok, err := repo.SetMode(ctx, "u1", "g1", domain.ModeVNL)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SetMode(ctx, "stranger", "g1", domain.ModeVNL)
	require.NoError(t, err)
	assert.False(t, ok)

	deleted, err := repo.Delete(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestImportFileKeepsExistingRows(t *testing.T) {
	repo := NewRegistrationRepository(newTestDB(t), zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &domain.Registration{
		UserID: "u1", GuildID: "g1", SteamID64: 111, Mode: domain.ModeVNL,
	}))

	path := filepath.Join(t.TempDir(), "players.json")
	payload := `[
		{"user_id": "u1", "guild_id": "g1", "steamid64": 999, "mode": "kzt"},
		{"user_id": "u2", "guild_id": "g1", "steamid64": 222, "mode": "bogus"},
		{"user_id": "", "guild_id": "g1", "steamid64": 333}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	imported, err := repo.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, imported)

	// The pre-existing row wins over the file entry.
	reg, err := repo.Get(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(111), reg.SteamID64)
	assert.Equal(t, domain.ModeVNL, reg.Mode)

	// Unknown modes fall back to the default.
	reg, err = repo.Get(ctx, "u2", "g1")
	require.NoError(t, err)
	require.NotNil(t, reg)
	assert.Equal(t, domain.ModeKZT, reg.Mode)
}
