package bot

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"kz-tracker/internal/domain"

	"github.com/bwmarrin/discordgo"
)

const (
	proColor     = 0x1e90ff
	tpColor      = 0xffa500
	neutralColor = 0xcccccc
)

var shortTierColors = map[int]int{
	1: 0x049c49, 2: 0x007053, 3: 0xf39c12, 4: 0xfd7e14,
	5: 0xe74c3c, 6: 0xc52412, 7: 0xd22ce5,
}

var longTierColors = map[int]int{
	1: 0x049c49, 2: 0x007053, 3: 0xb6b007, 4: 0xf39c12, 5: 0xfd7e14,
	6: 0xe74c3c, 7: 0xc52412, 8: 0xd22ce5, 9: 0x555555, 10: 0x000000,
}

var rankColors = map[domain.Rank]int{
	domain.RankBeginnerMinus: 0xffffff,
	domain.RankBeginner:      0xffffff,
	domain.RankBeginnerPlus:  0xffffff,
	domain.RankAmateurMinus:  0x99ccff,
	domain.RankAmateur:       0x99ccff,
	domain.RankAmateurPlus:   0x99ccff,
	domain.RankCasualMinus:   0x99ff99,
	domain.RankCasual:        0x99ff99,
	domain.RankCasualPlus:    0x99ff99,
	domain.RankRegularMinus:  0x3eff3e,
	domain.RankRegular:       0x3eff3e,
	domain.RankRegularPlus:   0x3eff3e,
	domain.RankSkilledMinus:  0x800080,
	domain.RankSkilled:       0x800080,
	domain.RankSkilledPlus:   0x800080,
	domain.RankExpertMinus:   0xda70d6,
	domain.RankExpert:        0xda70d6,
	domain.RankExpertPlus:    0xda70d6,
	domain.RankSemipro:       0xe84a49,
	domain.RankPro:           0xe84a49,
	domain.RankMaster:        0xff4040,
	domain.RankLegend:        0xffd700,
}

func mapURL(m *domain.Map, mode domain.Mode) string {
	if mode == domain.ModeVNL {
		return "https://vnl.kz/#/map/" + m.Name
	}
	return fmt.Sprintf("https://kzgo.eu/maps/%s?%s", m.Name, mode)
}

func profileURL(steamID64 int64, mode domain.Mode) string {
	if mode == domain.ModeVNL {
		return fmt.Sprintf("https://vnl.kz/#/stats/%d", steamID64)
	}
	return fmt.Sprintf("https://kzgo.eu/players/%d?%s", steamID64, mode)
}

func tierLabel(tier *int, mode domain.Mode) string {
	if tier == nil {
		return "(unknown)"
	}
	return fmt.Sprintf("%d - %s", *tier, domain.TierName(tier, mode))
}

func displayName(user *discordgo.User) string {
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}

// formatDuration renders a run time the way players read them: seconds only
// for short runs, h:mm:ss for long ones, fractional part trimmed of
// trailing zeros.
func formatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	days := total / 86400
	rest := total % 86400
	hh, mm, ss := rest/3600, rest%3600/60, rest%60

	var s string
	switch {
	case hh > 0:
		s = fmt.Sprintf("%d:%02d:%02d", hh, mm, ss)
	case mm > 0:
		s = fmt.Sprintf("%d:%02d", mm, ss)
	default:
		s = fmt.Sprintf("%d", ss)
	}
	if days > 0 {
		unit := "days"
		if days == 1 {
			unit = "day"
		}
		s = fmt.Sprintf("%d %s, %s", days, unit, s)
	}
	if micros := int64(d % time.Second / time.Microsecond); micros > 0 {
		frac := strings.TrimRight(fmt.Sprintf(".%06d", micros), "0")
		s += strings.TrimSuffix(frac, ".")
	}
	return s
}

// groupDigits inserts thousands separators, matching how point totals read
// on the leaderboard sites.
func groupDigits(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		out.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if out.Len() > 0 {
			out.WriteByte(',')
		}
		out.WriteString(s[i : i+3])
	}
	return out.String()
}

// recordEmbed renders a personal best or latest run.
func recordEmbed(record *domain.Record, mode domain.Mode, reg *domain.Registration, user *discordgo.User, avatar []byte) (*discordgo.MessageEmbed, []*discordgo.File) {
	m := record.Map
	playerName := record.PlayerName
	if playerName == "" {
		playerName = displayName(user)
	}

	tier := m.Tier
	if record.Pro() {
		tier = m.ProTier
	}

	var medal string
	top100 := false
	if record.Place != nil {
		medal = map[int]string{1: ":first_place:", 2: ":second_place:", 3: ":third_place:"}[*record.Place]
		top100 = *record.Place <= 100
	}

	// Point flair scales with the family's point ceiling: a perfect run gets
	// the trophy, 90% the fire, 80% the sparkles.
	points := groupDigits(record.Points)
	switch {
	case record.Points == record.PointScale:
		points += " :trophy:"
	case record.Points*10 >= record.PointScale*9:
		points += " :fire:"
		if medal == "" {
			medal = ":fire:"
		}
	case record.Points*10 >= record.PointScale*8:
		points += " :sparkles:"
		if medal == "" {
			medal = ":sparkles:"
		}
	}

	var body strings.Builder
	body.WriteString("## ")
	if medal != "" {
		body.WriteString(medal + " ")
	}
	fmt.Fprintf(&body, "[%s](%s) on [%s](%s)\n\n",
		playerName, profileURL(reg.SteamID64, mode), m.Name, mapURL(m, mode))
	fmt.Fprintf(&body, "**Mode**: %s", mode)
	if record.Pro() {
		body.WriteString(" (PRO)")
	}
	body.WriteString("\n")
	fmt.Fprintf(&body, "**Tier**: %s\n", tierLabel(tier, mode))
	fmt.Fprintf(&body, "**Time**: %s", formatDuration(record.Time))
	if top100 {
		fmt.Fprintf(&body, " (#%d)", *record.Place)
	}
	body.WriteString("\n")
	if record.Teleports > 0 {
		fmt.Fprintf(&body, "**Teleports**: %d\n", record.Teleports)
	}
	fmt.Fprintf(&body, "**Points**: %s\n", points)

	color := tpColor
	if record.Pro() {
		color = proColor
	}
	embed := &discordgo.MessageEmbed{
		Description: body.String(),
		Color:       color,
		Timestamp:   record.SubmittedAt.Format(time.RFC3339),
	}
	files := attachImages(embed, avatar, m.Thumbnail)
	return embed, files
}

func profileEmbed(profile *domain.Profile, reg *domain.Registration, user *discordgo.User, avatar []byte) (*discordgo.MessageEmbed, []*discordgo.File) {
	playerName := profile.Name
	if playerName == "" {
		playerName = displayName(user)
	}

	average := "(unknown)"
	if profile.Average != nil {
		average = groupDigits(*profile.Average)
	}
	body := fmt.Sprintf("## [%s](%s)\n\n**Mode**: %s\n**Rank**: %s\n**Points**: %s\n**Average**: %s\n",
		playerName, profileURL(reg.SteamID64, profile.Mode),
		profile.Mode, profile.Rank, groupDigits(profile.Points), average)

	color, ok := rankColors[profile.Rank]
	if !ok {
		color = neutralColor
	}
	embed := &discordgo.MessageEmbed{
		Description: body,
		Color:       color,
	}
	files := attachImages(embed, avatar, nil)
	return embed, files
}

func mapEmbed(m *domain.Map, mode domain.Mode, wrs []domain.Record, tpAndPro bool) (*discordgo.MessageEmbed, []*discordgo.File) {
	var tier string
	if m.Tier != nil && m.ProTier != nil && *m.Tier != *m.ProTier {
		tier = fmt.Sprintf("**Tier** (TP): %s\n**Tier** (PRO): %s",
			tierLabel(m.Tier, mode), tierLabel(m.ProTier, mode))
	} else {
		tier = "**Tier**: " + tierLabel(m.Tier, mode)
	}

	var tpWR, proWR *domain.Record
	for i := range wrs {
		if wrs[i].Pro() {
			proWR = &wrs[i]
		} else {
			tpWR = &wrs[i]
		}
	}
	wrLine := func(r *domain.Record) string {
		if r == nil {
			return "(none)"
		}
		name := r.PlayerName
		if name == "" {
			name = "(unknown)"
		}
		return fmt.Sprintf("%s by [%s](%s)", formatDuration(r.Time), name, profileURL(r.SteamID64, mode))
	}

	var wrBody string
	if tpAndPro {
		wrBody = fmt.Sprintf("**WR** (TP): %s\n**WR** (PRO): %s", wrLine(tpWR), wrLine(proWR))
	} else {
		// The unified leaderboard has one overall record; the pro line only
		// differs when the overall best used teleports.
		var overall *domain.Record
		if len(wrs) > 0 {
			overall = &wrs[0]
		}
		wrBody = fmt.Sprintf("**WR**: %s\n**WR** (PRO): %s", wrLine(overall), wrLine(proWR))
	}

	name := m.Name
	if m.Course != "" && !strings.EqualFold(m.Course, "Main") {
		name = m.Name + " (" + m.Course + ")"
	}
	body := fmt.Sprintf("## [%s](%s)\n\n**Mode**: %s\n%s\n%s\n",
		name, mapURL(m, mode), mode, tier, wrBody)

	colors := shortTierColors
	if m.MaxTier == domain.ExtendedMaxTier {
		colors = longTierColors
	}
	color := neutralColor
	if m.Tier != nil {
		if c, ok := colors[*m.Tier]; ok {
			color = c
		}
	}

	embed := &discordgo.MessageEmbed{
		Description: body,
		Color:       color,
	}
	files := attachImages(embed, nil, m.Thumbnail)
	return embed, files
}

// attachImages wires the avatar in as the embed thumbnail and the map image
// as the embed body image, both as attachments.
func attachImages(embed *discordgo.MessageEmbed, avatar, thumbnail []byte) []*discordgo.File {
	var files []*discordgo.File
	if avatar != nil {
		files = append(files, &discordgo.File{
			Name:        "avatar.jpg",
			ContentType: "image/jpeg",
			Reader:      bytes.NewReader(avatar),
		})
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: "attachment://avatar.jpg"}
	}
	if thumbnail != nil {
		files = append(files, &discordgo.File{
			Name:        "map.webp",
			ContentType: "image/webp",
			Reader:      bytes.NewReader(thumbnail),
		})
		embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://map.webp"}
	}
	return files
}
