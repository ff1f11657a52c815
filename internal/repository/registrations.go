package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"kz-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// RegistrationRepository stores chat-account to steam-identity mappings.
// The aggregation core only ever reads these.
type RegistrationRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRegistrationRepository(sqlDB *sql.DB, logger zerolog.Logger) *RegistrationRepository {
	return &RegistrationRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// Get returns (nil, nil) when the user never registered in that guild.
func (r *RegistrationRepository) Get(ctx context.Context, userID, guildID string) (*domain.Registration, error) {
	var reg domain.Registration
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id, guild_id, steamid64, mode FROM registrations WHERE user_id = ? AND guild_id = ?",
		userID, guildID).Scan(&reg.UserID, &reg.GuildID, &reg.SteamID64, &reg.Mode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *RegistrationRepository) Upsert(ctx context.Context, reg *domain.Registration) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO registrations (user_id, guild_id, steamid64, mode, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, guild_id) DO UPDATE SET
		 steamid64 = excluded.steamid64, mode = excluded.mode, updated_at = excluded.updated_at`,
		reg.UserID, reg.GuildID, reg.SteamID64, reg.Mode, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert registration for %s: %w", reg.UserID, err)
	}
	return nil
}

// SetMode updates only the default mode. Reports false when the user has no
// registration row to update.
func (r *RegistrationRepository) SetMode(ctx context.Context, userID, guildID string, mode domain.Mode) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE registrations SET mode = ?, updated_at = ? WHERE user_id = ? AND guild_id = ?",
		mode, time.Now().UTC(), userID, guildID)
	if err != nil {
		return false, fmt.Errorf("failed to set mode for %s: %w", userID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *RegistrationRepository) Delete(ctx context.Context, userID, guildID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM registrations WHERE user_id = ? AND guild_id = ?", userID, guildID)
	if err != nil {
		return false, fmt.Errorf("failed to delete registration for %s: %w", userID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ImportFile seeds registrations from a JSON file at startup. Existing rows
// win over file entries so user-chosen settings survive restarts.
func (r *RegistrationRepository) ImportFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read default players file: %w", err)
	}

	var entries []struct {
		UserID    string      `json:"user_id"`
		GuildID   string      `json:"guild_id"`
		SteamID64 int64       `json:"steamid64"`
		Mode      domain.Mode `json:"mode"`
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("failed to parse default players file: %w", err)
	}

	imported := 0
	now := time.Now().UTC()
	for _, e := range entries {
		if e.UserID == "" || e.SteamID64 == 0 {
			r.logger.Warn().Str("user_id", e.UserID).Msg("skipping incomplete default player entry")
			continue
		}
		mode := e.Mode
		if !mode.Valid() {
			mode = domain.ModeKZT
		}
		result, err := r.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO registrations (user_id, guild_id, steamid64, mode, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			e.UserID, e.GuildID, e.SteamID64, mode, now, now)
		if err != nil {
			return imported, fmt.Errorf("failed to import registration for %s: %w", e.UserID, err)
		}
		if affected, err := result.RowsAffected(); err == nil && affected > 0 {
			imported++
		}
	}

	r.logger.Info().Int("imported", imported).Int("total", len(entries)).Msg("default players imported")
	return imported, nil
}
