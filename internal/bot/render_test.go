package bot

import (
	"testing"
	"time"

	"kz-tracker/internal/domain"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{59 * time.Second, "59"},
		{62*time.Second + 500*time.Millisecond, "1:02.5"},
		{time.Hour + 2*time.Second, "1:00:02"},
		{250 * time.Millisecond, "0.25"},
		{65*time.Second + 250250*time.Microsecond, "1:05.25025"},
		{25*time.Hour + time.Second, "1 day, 1:00:01"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d), tt.d.String())
	}
}

func TestGroupDigits(t *testing.T) {
	assert.Equal(t, "0", groupDigits(0))
	assert.Equal(t, "999", groupDigits(999))
	assert.Equal(t, "1,000", groupDigits(1000))
	assert.Equal(t, "1,234,567", groupDigits(1234567))
}

func intp(v int) *int { return &v }

func TestRecordEmbedProRun(t *testing.T) {
	record := &domain.Record{
		ID:         1,
		SteamID64:  76561197960287930,
		PlayerName: "runner",
		Map:        &domain.Map{Name: "kz_grotto", Tier: intp(3), ProTier: intp(4), MaxTier: 7},
		Time:       62*time.Second + 500*time.Millisecond,
		Teleports:  0,
		Points:     1000,
		PointScale: 1000,
		Place:      intp(1),
	}
	reg := &domain.Registration{SteamID64: 76561197960287930}
	user := &discordgo.User{Username: "someone"}

	embed, files := recordEmbed(record, domain.ModeKZT, reg, user, nil)
	assert.Equal(t, proColor, embed.Color)
	assert.Contains(t, embed.Description, ":first_place:")
	assert.Contains(t, embed.Description, "(PRO)")
	// Pro runs show the pro tier.
	assert.Contains(t, embed.Description, "4 - Hard")
	assert.Contains(t, embed.Description, "1:02.5 (#1)")
	assert.Contains(t, embed.Description, "1,000 :trophy:")
	assert.NotContains(t, embed.Description, "Teleports")
	assert.Empty(t, files)
}

func TestRecordEmbedFlairScalesWithPointCeiling(t *testing.T) {
	record := &domain.Record{
		PlayerName: "runner",
		Map:        &domain.Map{Name: "kz_grotto", MaxTier: 10},
		Time:       30 * time.Second,
		Teleports:  2,
		Points:     9100,
		PointScale: 10000,
		Place:      intp(50),
	}
	reg := &domain.Registration{SteamID64: 1}
	user := &discordgo.User{Username: "someone"}

	embed, _ := recordEmbed(record, domain.ModeCKZ, reg, user, nil)
	assert.Equal(t, tpColor, embed.Color)
	assert.Contains(t, embed.Description, "9,100 :fire:")
	assert.Contains(t, embed.Description, "**Teleports**: 2")
}

func TestRecordEmbedAttachments(t *testing.T) {
	record := &domain.Record{
		PlayerName: "runner",
		Map:        &domain.Map{Name: "kz_grotto", Thumbnail: []byte{1, 2}},
		Time:       time.Second,
		Points:     10,
		PointScale: 1000,
	}
	reg := &domain.Registration{SteamID64: 1}
	user := &discordgo.User{Username: "someone"}

	embed, files := recordEmbed(record, domain.ModeKZT, reg, user, []byte{3, 4})
	require.Len(t, files, 2)
	require.NotNil(t, embed.Thumbnail)
	assert.Equal(t, "attachment://avatar.jpg", embed.Thumbnail.URL)
	require.NotNil(t, embed.Image)
	assert.Equal(t, "attachment://map.webp", embed.Image.URL)
}

func TestProfileEmbed(t *testing.T) {
	profile := &domain.Profile{
		Name:   "runner",
		Mode:   domain.ModeVNL,
		Rank:   domain.RankLegend,
		Points: 612345,
	}
	reg := &domain.Registration{SteamID64: 76561197960287930}
	user := &discordgo.User{Username: "someone"}

	embed, _ := profileEmbed(profile, reg, user, nil)
	assert.Equal(t, rankColors[domain.RankLegend], embed.Color)
	assert.Contains(t, embed.Description, "612,345")
	assert.Contains(t, embed.Description, "**Average**: (unknown)")
	assert.Contains(t, embed.Description, "vnl.kz/#/stats/76561197960287930")
}

func TestMapEmbedSplitTiers(t *testing.T) {
	m := &domain.Map{Name: "kz_grotto", Tier: intp(4), ProTier: intp(6), MaxTier: 10}
	wrs := []domain.Record{
		{PlayerName: "tp wr", SteamID64: 1, Time: time.Minute, Teleports: 3},
		{PlayerName: "pro wr", SteamID64: 2, Time: 2 * time.Minute, Teleports: 0},
	}

	embed, _ := mapEmbed(m, domain.ModeVNL, wrs, true)
	assert.Contains(t, embed.Description, "**Tier** (TP): 4 - Advanced")
	assert.Contains(t, embed.Description, "**Tier** (PRO): 6 - Very Hard")
	assert.Contains(t, embed.Description, "**WR** (TP): 1:00 by [tp wr]")
	assert.Contains(t, embed.Description, "**WR** (PRO): 2:00 by [pro wr]")
	assert.Equal(t, longTierColors[4], embed.Color)
}

func TestMapEmbedUnifiedLeaderboard(t *testing.T) {
	m := &domain.Map{Name: "kz_grotto", Course: "Cave Route", Tier: intp(2), ProTier: intp(2), MaxTier: 10}
	wrs := []domain.Record{
		{PlayerName: "wr", SteamID64: 1, Time: time.Minute, Teleports: 0},
	}

	embed, _ := mapEmbed(m, domain.ModeCKZ, wrs, false)
	assert.Contains(t, embed.Description, "kz_grotto (Cave Route)")
	assert.Contains(t, embed.Description, "**Tier**: 2 - Easy")
	assert.Contains(t, embed.Description, "**WR**: 1:00 by [wr]")
	assert.Contains(t, embed.Description, "**WR** (PRO): 1:00 by [wr]")
}

func TestMapEmbedNoRecords(t *testing.T) {
	m := &domain.Map{Name: "kz_grotto", MaxTier: 7}

	embed, _ := mapEmbed(m, domain.ModeKZT, nil, true)
	assert.Contains(t, embed.Description, "**Tier**: (unknown)")
	assert.Contains(t, embed.Description, "**WR** (TP): (none)")
	assert.Equal(t, neutralColor, embed.Color)
}
