package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DiscordToken string
	DBPath       string
	LogLevel     string

	// Upstream base URLs. The defaults are the production services; tests
	// point them at local fakes.
	GlobalAPIURL      string
	ExtendedAPIURL    string
	VNLAPIURL         string
	SteamCommunityURL string
	LegacyImageURL    string
	ExtendedImageURL  string

	RefreshInterval    time.Duration
	DefaultPlayersPath string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DiscordToken:       getEnv("DISCORD_TOKEN", ""),
		DBPath:             getEnv("DB_PATH", "kz-tracker.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		GlobalAPIURL:       getEnv("GLOBAL_API_URL", "https://kztimerglobal.com/api/v2.0"),
		ExtendedAPIURL:     getEnv("EXTENDED_API_URL", "https://api.cs2kz.org"),
		VNLAPIURL:          getEnv("VNL_API_URL", "https://vnl.kz/api"),
		SteamCommunityURL:  getEnv("STEAM_COMMUNITY_URL", "https://steamcommunity.com"),
		LegacyImageURL:     getEnv("LEGACY_IMAGE_URL", "https://raw.githubusercontent.com/KZGlobalTeam/map-images/public/webp/medium"),
		ExtendedImageURL:   getEnv("EXTENDED_IMAGE_URL", "https://raw.githubusercontent.com/KZGlobalTeam/cs2kz-images/public/webp/medium"),
		RefreshInterval:    getDuration("REFRESH_INTERVAL", time.Hour),
		DefaultPlayersPath: getEnv("DEFAULT_PLAYERS_PATH", ""),
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("log_level", cfg.LogLevel).
		Dur("refresh_interval", cfg.RefreshInterval).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

var Module = fx.Provide(Load)
