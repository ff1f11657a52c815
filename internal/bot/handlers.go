package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"kz-tracker/internal/constants"
	"kz-tracker/internal/domain"
	"kz-tracker/internal/service"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

var errNotRegistered = errors.New("not registered")

// response is one finished slash-command reply: either plain content or an
// embed with its attachments.
type response struct {
	content string
	embed   *discordgo.MessageEmbed
	files   []*discordgo.File
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

// getRegistration resolves the invoker's registration, or the selected
// player's when the command has a player option.
func (b *Bot) getRegistration(ctx context.Context, i *discordgo.InteractionCreate, opts options) (*domain.Registration, error) {
	userID := opts.playerID()
	if userID == "" {
		userID = interactionUser(i).ID
	}
	reg, err := b.registrations.Get(ctx, userID, i.GuildID)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, errNotRegistered
	}
	return reg, nil
}

// resolveMode prefers an explicit mode option over the registered default.
// The second result reports whether the user named the mode themselves,
// which disables cross-family fallback.
func resolveMode(reg *domain.Registration, opts options) (domain.Mode, bool) {
	if name := opts.str("mode"); name != "" {
		return domain.Mode(name), true
	}
	return reg.Mode, false
}

// getMap resolves a map with cross-family fallback: when the user didn't
// name a mode and their default family can't serve the map, the other family
// gets one try. A vanilla map rated impossible additionally falls back to
// the classic view, since nobody has vanilla times on those.
func (b *Bot) getMap(ctx context.Context, mode domain.Mode, explicit bool, name, course string, bonus int, logger zerolog.Logger) (service.Provider, *domain.Map, error) {
	provider := b.providers.ForMode(mode)
	m, err := provider.GetMap(ctx, name, course, bonus)
	if err != nil {
		if explicit || !shouldFallBack(err) {
			return nil, nil, err
		}
		var unavailable *domain.UpstreamUnavailableError
		if errors.As(err, &unavailable) {
			logger.Error().Err(err).Msg("upstream failure during map lookup")
		}
		other := domain.ModeCKZ
		if mode.Extended() {
			other = domain.ModeKZT
		}
		provider = b.providers.ForMode(other)
		m, err = provider.GetMap(ctx, name, course, bonus)
		return provider, m, err
	}

	if bonus == 0 && !explicit &&
		(mode == domain.ModeVNL || mode == domain.ModeVNL2) &&
		m.Tier != nil && *m.Tier == domain.SentinelTier {
		other := domain.ModeKZT
		if mode == domain.ModeVNL2 {
			other = domain.ModeCKZ
		}
		provider = b.providers.ForMode(other)
		m, err = provider.GetMap(ctx, name, course, bonus)
		if err != nil {
			return nil, nil, err
		}
	}
	return provider, m, nil
}

func shouldFallBack(err error) bool {
	var unavailable *domain.UpstreamUnavailableError
	var notFound *domain.MapNotFoundError
	return errors.As(err, &unavailable) || errors.As(err, &notFound)
}

func (b *Bot) handleRegister(ctx context.Context, i *discordgo.InteractionCreate, opts options) (*response, error) {
	steamID64, err := b.steam.ResolveProfileURL(ctx, opts.str("profile"))
	if err != nil {
		var invalid *domain.InvalidInputError
		if errors.As(err, &invalid) {
			return &response{content: "Invalid Steam profile URL"}, nil
		}
		return nil, err
	}

	mode := domain.Mode(opts.str("mode"))
	if !mode.Valid() {
		mode = domain.ModeKZT
	}
	reg := &domain.Registration{
		UserID:    interactionUser(i).ID,
		GuildID:   i.GuildID,
		SteamID64: steamID64,
		Mode:      mode,
	}
	if err := b.registrations.Upsert(ctx, reg); err != nil {
		return nil, err
	}
	return &response{content: "Registered"}, nil
}

func (b *Bot) handleUnregister(ctx context.Context, i *discordgo.InteractionCreate) (*response, error) {
	deleted, err := b.registrations.Delete(ctx, interactionUser(i).ID, i.GuildID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, errNotRegistered
	}
	return &response{content: "Unregistered"}, nil
}

func (b *Bot) handleMode(ctx context.Context, i *discordgo.InteractionCreate, opts options) (*response, error) {
	name := opts.str("mode")
	if name == "" {
		reg, err := b.getRegistration(ctx, i, opts)
		if err != nil {
			return nil, err
		}
		return &response{content: fmt.Sprintf("Mode set to %s", reg.Mode)}, nil
	}

	updated, err := b.registrations.SetMode(ctx, interactionUser(i).ID, i.GuildID, domain.Mode(name))
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, errNotRegistered
	}
	return &response{content: fmt.Sprintf("Mode set to %s", name)}, nil
}

func (b *Bot) handlePB(ctx context.Context, i *discordgo.InteractionCreate, opts options) (*response, error) {
	reg, err := b.getRegistration(ctx, i, opts)
	if err != nil {
		return nil, err
	}
	mode, explicit := resolveMode(reg, opts)

	provider, m, err := b.getMap(ctx, mode, explicit, opts.str("map"), opts.str("course"), opts.integer("bonus"), b.logger)
	if err != nil {
		return nil, err
	}
	pb, err := provider.GetPersonalBest(ctx, reg.SteamID64, m, runClass(opts))
	if err != nil {
		return nil, err
	}
	if pb == nil {
		return &response{content: "No times found"}, nil
	}
	return b.recordResponse(ctx, pb, provider.Mode(), reg, interactionUser(i)), nil
}

func (b *Bot) handleLatest(ctx context.Context, i *discordgo.InteractionCreate, opts options) (*response, error) {
	reg, err := b.getRegistration(ctx, i, opts)
	if err != nil {
		return nil, err
	}
	mode, _ := resolveMode(reg, opts)

	provider := b.providers.ForMode(mode)
	pb, err := provider.GetLatest(ctx, reg.SteamID64, runClass(opts))
	if err != nil {
		return nil, err
	}
	if pb == nil {
		return &response{content: "No times found"}, nil
	}
	return b.recordResponse(ctx, pb, mode, reg, interactionUser(i)), nil
}

func (b *Bot) handleMap(ctx context.Context, i *discordgo.InteractionCreate, opts options, logger zerolog.Logger) (*response, error) {
	var mode domain.Mode
	explicit := false
	if name := opts.str("mode"); name != "" {
		mode = domain.Mode(name)
		explicit = true
	} else {
		reg, err := b.getRegistration(ctx, i, opts)
		switch {
		case errors.Is(err, errNotRegistered):
			mode = domain.ModeKZT
		case err != nil:
			return nil, err
		default:
			mode = reg.Mode
		}
	}

	provider, m, err := b.getMap(ctx, mode, explicit, opts.str("map"), opts.str("course"), opts.integer("bonus"), logger)
	if err != nil {
		return nil, err
	}
	wrs, err := provider.GetWorldRecords(ctx, m)
	if err != nil {
		return nil, err
	}

	embed, files := mapEmbed(m, provider.Mode(), wrs, provider.HasTPAndProWRs())
	return &response{embed: embed, files: files}, nil
}

func (b *Bot) handleProfile(ctx context.Context, i *discordgo.InteractionCreate, opts options) (*response, error) {
	reg, err := b.getRegistration(ctx, i, opts)
	if err != nil {
		return nil, err
	}
	mode, _ := resolveMode(reg, opts)

	provider := b.providers.ForMode(mode)
	profile, err := provider.GetProfile(ctx, reg.SteamID64)
	if err != nil {
		return nil, err
	}

	embed, files := profileEmbed(profile, reg, interactionUser(i), b.fetchAvatar(ctx, reg.SteamID64))
	return &response{embed: embed, files: files}, nil
}

func runClass(opts options) domain.RunClass {
	rc := domain.RunClass(opts.str("type"))
	if !rc.Valid() {
		return domain.RunAny
	}
	return rc
}

func (b *Bot) recordResponse(ctx context.Context, record *domain.Record, mode domain.Mode, reg *domain.Registration, user *discordgo.User) *response {
	embed, files := recordEmbed(record, mode, reg, user, b.fetchAvatar(ctx, reg.SteamID64))
	return &response{embed: embed, files: files}
}

// fetchAvatar is best-effort; a missing avatar just means a plainer embed.
func (b *Bot) fetchAvatar(ctx context.Context, steamID64 int64) []byte {
	avatar, err := b.steam.Avatar(ctx, steamID64)
	if err != nil {
		b.logger.Debug().Err(err).Int64("steamid64", steamID64).Msg("couldn't get player avatar")
		return nil
	}
	return avatar
}

// errorMessage folds the core's error taxonomy into chat replies. Input
// problems surface verbatim, everything upstream collapses into a generic
// unavailability notice.
func (b *Bot) errorMessage(err error, logger zerolog.Logger) string {
	var invalid *domain.InvalidInputError
	var notFound *domain.MapNotFoundError
	var ambiguous *domain.AmbiguousMapError
	var malformed *domain.MalformedResponseError
	var unavailable *domain.UpstreamUnavailableError

	switch {
	case errors.Is(err, errNotRegistered):
		return "Not registered"
	case errors.As(err, &ambiguous):
		if len(ambiguous.Candidates) > constants.AmbiguousDisplayLimit {
			return fmt.Sprintf("More than %d maps found", constants.AmbiguousDisplayLimit)
		}
		names := make([]string, 0, len(ambiguous.Candidates))
		for _, m := range ambiguous.Candidates {
			names = append(names, m.Name)
		}
		sort.Strings(names)
		return "Multiple maps found: " + strings.Join(names, ", ")
	case errors.As(err, &notFound):
		return "Map not found"
	case errors.As(err, &invalid):
		return invalid.Reason
	case errors.As(err, &unavailable):
		logger.Error().Err(err).Msg("upstream unavailable")
		if unavailable.Service == "Steam" {
			return "Couldn't access Steam API"
		}
		return "Couldn't access global API"
	case errors.As(err, &malformed):
		logger.Error().Err(err).Msg("malformed upstream response")
		return "Couldn't access global API"
	}
	logger.Error().Err(err).Msg("command failed")
	return "Something went wrong"
}
