package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	"kz-tracker/internal/bot"
	"kz-tracker/internal/config"
	"kz-tracker/internal/constants"
	fxmodules "kz-tracker/internal/fx"
	"kz-tracker/internal/repository"
	"kz-tracker/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "refresh" {
		fx.New(
			fxmodules.Module,
			fx.Invoke(runRefresh),
		).Run()
		return
	}
	fx.New(
		fxmodules.Module,
		fx.Invoke(runBot),
	).Run()
}

// runRefresh is the one-shot mode: synchronize the map cache and exit. It
// never touches the gateway, so it works without a bot token.
func runRefresh(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	refresh *service.RefreshService,
	db *sql.DB,
	logger zerolog.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if _, err := refresh.RefreshAll(context.Background()); err != nil {
					logger.Error().Err(err).Msg("map cache refresh failed")
				}
				if err := shutdowner.Shutdown(); err != nil {
					logger.Error().Err(err).Msg("shutdown failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})
}

func runBot(
	lc fx.Lifecycle,
	b *bot.Bot,
	refresh *service.RefreshService,
	registrations *repository.RegistrationRepository,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	stop := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := b.Start(ctx); err != nil {
				return err
			}
			logger.Info().Msg("bot started")

			if cfg.DefaultPlayersPath != "" {
				go func() {
					if _, err := registrations.ImportFile(context.Background(), cfg.DefaultPlayersPath); err != nil {
						logger.Warn().Err(err).Msg("default players import failed")
					}
				}()
			}

			go refreshLoop(stop, refresh, cfg, logger)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down bot")
			close(stop)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := b.Stop(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("error closing discord session")
			}
			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}
			logger.Info().Msg("bot stopped gracefully")
			return nil
		},
	})
}

// refreshLoop keeps the map cache in sync: one run at startup, then on the
// configured interval. Runs never overlap since the loop is the only caller.
func refreshLoop(stop <-chan struct{}, refresh *service.RefreshService, cfg *config.Config, logger zerolog.Logger) {
	run := func() {
		if _, err := refresh.RefreshAll(context.Background()); err != nil {
			logger.Error().Err(err).Msg("map cache refresh failed")
		}
	}
	run()

	ticker := time.NewTicker(cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			run()
		case <-stop:
			return
		}
	}
}
