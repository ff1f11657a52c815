package bot

import (
	"context"
	"errors"
	"fmt"

	"kz-tracker/internal/config"
	"kz-tracker/internal/constants"
	"kz-tracker/internal/repository"
	"kz-tracker/internal/service"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Bot is the Discord front end over the aggregation core. It owns the
// gateway session and translates slash commands into provider calls.
type Bot struct {
	session       *discordgo.Session
	providers     *service.Providers
	registrations *repository.RegistrationRepository
	maps          *repository.MapRepository
	steam         SteamResolver
	logger        zerolog.Logger
}

// SteamResolver is the slice of the identity client the bot needs.
type SteamResolver interface {
	ResolveProfileURL(ctx context.Context, profileURL string) (int64, error)
	Avatar(ctx context.Context, steamID64 int64) ([]byte, error)
}

func New(
	cfg *config.Config,
	providers *service.Providers,
	registrations *repository.RegistrationRepository,
	maps *repository.MapRepository,
	steam SteamResolver,
	logger zerolog.Logger,
) (*Bot, error) {
	if cfg.DiscordToken == "" {
		return nil, errors.New("discord token is not set")
	}
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsNone

	b := &Bot{
		session:       session,
		providers:     providers,
		registrations: registrations,
		maps:          maps,
		steam:         steam,
		logger:        logger,
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)
	return b, nil
}

func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	if _, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, "", commands); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	return nil
}

func (b *Bot) Stop(ctx context.Context) error {
	return b.session.Close()
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info().Str("username", r.User.Username).Msg("discord session ready")
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(s, i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		b.handleAutocomplete(s, i)
	}
}

func (b *Bot) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	logger := b.logger.With().
		Str("interaction_id", uuid.NewString()).
		Str("command", data.Name).
		Logger()

	// Every reply goes through a deferred response so slow upstreams never
	// hit the 3-second interaction deadline.
	ephemeral := data.Name == "register" || data.Name == "unregister" || data.Name == "mode"
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags},
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to defer interaction response")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.RequestTimeout)
	defer cancel()

	resp, err := b.dispatch(ctx, i, logger)
	if err != nil {
		resp = &response{content: b.errorMessage(err, logger)}
	}

	edit := &discordgo.WebhookEdit{Content: &resp.content}
	if resp.embed != nil {
		edit.Embeds = &[]*discordgo.MessageEmbed{resp.embed}
		edit.Files = resp.files
	}
	if _, err := s.InteractionResponseEdit(i.Interaction, edit); err != nil {
		logger.Error().Err(err).Msg("failed to edit interaction response")
	}
}

func (b *Bot) dispatch(ctx context.Context, i *discordgo.InteractionCreate, logger zerolog.Logger) (*response, error) {
	opts := parseOptions(i.ApplicationCommandData().Options)
	switch i.ApplicationCommandData().Name {
	case "register":
		return b.handleRegister(ctx, i, opts)
	case "unregister":
		return b.handleUnregister(ctx, i)
	case "mode":
		return b.handleMode(ctx, i, opts)
	case "pb":
		return b.handlePB(ctx, i, opts)
	case "latest":
		return b.handleLatest(ctx, i, opts)
	case "map":
		return b.handleMap(ctx, i, opts, logger)
	case "profile":
		return b.handleProfile(ctx, i, opts)
	}
	return nil, fmt.Errorf("unknown command %q", i.ApplicationCommandData().Name)
}

func (b *Bot) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var focused string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Focused {
			focused = opt.StringValue()
			break
		}
	}

	var choices []*discordgo.ApplicationCommandOptionChoice
	if len(focused) >= constants.AutocompleteMinLength && !boringPrefixes[focused] {
		ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
		defer cancel()
		names, err := b.maps.SearchNames(ctx, focused, constants.AutocompleteLimit)
		if err != nil {
			b.logger.Error().Err(err).Msg("map name autocomplete failed")
		}
		for _, name := range names {
			choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name})
		}
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to respond to autocomplete")
	}
}

// boringPrefixes are partial inputs that would match most of the catalog.
var boringPrefixes = map[string]bool{
	"kz_":  true,
	"bkz":  true,
	"bkz_": true,
}
