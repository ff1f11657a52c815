package fx

import (
	"kz-tracker/internal/api"
	"kz-tracker/internal/bot"
	"kz-tracker/internal/config"
	"kz-tracker/internal/database"
	"kz-tracker/internal/logger"
	"kz-tracker/internal/repository"
	"kz-tracker/internal/service"

	"go.uber.org/fx"
)

func provideSteamResolver(steam *api.SteamClient) bot.SteamResolver {
	return steam
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewMapRepository),
	fx.Provide(repository.NewRegistrationRepository),
	// api clients
	fx.Provide(api.NewGlobalClient),
	fx.Provide(api.NewCS2Client),
	fx.Provide(api.NewVNLClient),
	fx.Provide(api.NewImageClient),
	fx.Provide(api.NewSteamClient),
	fx.Provide(provideSteamResolver),
	// svc
	fx.Provide(service.NewProviders),
	fx.Provide(service.NewRefreshService),
	// bot
	fx.Provide(bot.New),
)
