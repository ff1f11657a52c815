package bot

import (
	"github.com/bwmarrin/discordgo"

	"kz-tracker/internal/domain"
)

var modeChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: string(domain.ModeKZT), Value: string(domain.ModeKZT)},
	{Name: string(domain.ModeSKZ), Value: string(domain.ModeSKZ)},
	{Name: string(domain.ModeVNL), Value: string(domain.ModeVNL)},
	{Name: string(domain.ModeCKZ), Value: string(domain.ModeCKZ)},
	{Name: string(domain.ModeVNL2), Value: string(domain.ModeVNL2)},
}

var typeChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: string(domain.RunPro), Value: string(domain.RunPro)},
	{Name: string(domain.RunTP), Value: string(domain.RunTP)},
	{Name: string(domain.RunAny), Value: string(domain.RunAny)},
}

func modeOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "mode",
		Description: "Game mode",
		Choices:     modeChoices,
	}
}

func typeOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "type",
		Description: "Pro or teleport run",
		Choices:     typeChoices,
	}
}

func mapOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionString,
		Name:         "map",
		Description:  "Map name",
		Required:     true,
		Autocomplete: true,
	}
}

func courseOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "course",
		Description: "Course",
	}
}

func bonusOption() *discordgo.ApplicationCommandOption {
	one := float64(1)
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "bonus",
		Description: "Bonus",
		MinValue:    &one,
	}
}

func playerOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "player",
		Description: "Player",
	}
}

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "register",
		Description: "Register account",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "profile",
				Description: "Steam profile URL",
				Required:    true,
			},
			modeOption(),
		},
	},
	{
		Name:        "unregister",
		Description: "Delete account settings",
	},
	{
		Name:        "mode",
		Description: "Show or set default game mode",
		Options:     []*discordgo.ApplicationCommandOption{modeOption()},
	},
	{
		Name:        "pb",
		Description: "Show personal best times",
		Options: []*discordgo.ApplicationCommandOption{
			mapOption(), typeOption(), modeOption(), courseOption(), bonusOption(), playerOption(),
		},
	},
	{
		Name:        "latest",
		Description: "Show most recent personal best",
		Options: []*discordgo.ApplicationCommandOption{
			typeOption(), modeOption(), playerOption(),
		},
	},
	{
		Name:        "map",
		Description: "Show map info and world record times",
		Options: []*discordgo.ApplicationCommandOption{
			mapOption(), modeOption(), courseOption(), bonusOption(),
		},
	},
	{
		Name:        "profile",
		Description: "Show rank, point total, and point average",
		Options: []*discordgo.ApplicationCommandOption{
			modeOption(), playerOption(),
		},
	},
}

// options is a by-name view over an interaction's flat option list.
type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func parseOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) options {
	m := make(options, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

func (o options) str(name string) string {
	if opt, ok := o[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func (o options) integer(name string) int {
	if opt, ok := o[name]; ok {
		return int(opt.IntValue())
	}
	return 0
}

// playerID returns the selected user's id, or "" when the option is absent.
func (o options) playerID() string {
	opt, ok := o["player"]
	if !ok {
		return ""
	}
	if user := opt.UserValue(nil); user != nil {
		return user.ID
	}
	return ""
}
