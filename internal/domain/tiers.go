package domain

// Rank is a named skill tier derived from cumulative points.
type Rank string

const (
	RankUnknown       Rank = "Unknown"
	RankNew           Rank = "New"
	RankBeginnerMinus Rank = "Beginner-"
	RankBeginner      Rank = "Beginner"
	RankBeginnerPlus  Rank = "Beginner+"
	RankAmateurMinus  Rank = "Amateur-"
	RankAmateur       Rank = "Amateur"
	RankAmateurPlus   Rank = "Amateur+"
	RankCasualMinus   Rank = "Casual-"
	RankCasual        Rank = "Casual"
	RankCasualPlus    Rank = "Casual+"
	RankRegularMinus  Rank = "Regular-"
	RankRegular       Rank = "Regular"
	RankRegularPlus   Rank = "Regular+"
	RankSkilledMinus  Rank = "Skilled-"
	RankSkilled       Rank = "Skilled"
	RankSkilledPlus   Rank = "Skilled+"
	RankExpertMinus   Rank = "Expert-"
	RankExpert        Rank = "Expert"
	RankExpertPlus    Rank = "Expert+"
	RankSemipro       Rank = "Semipro"
	RankPro           Rank = "Pro"
	RankMaster        Rank = "Master"
	RankLegend        Rank = "Legend"
)

const (
	LegacyMaxTier   = 7
	ExtendedMaxTier = 10

	// SentinelTier is what the secondary tier service's 404 means: the map
	// exists but has no rating yet, so it is treated as hardest.
	SentinelTier = 10
)

var shortScaleNames = map[int]string{
	1: "Very Easy", 2: "Easy", 3: "Medium", 4: "Hard",
	5: "Very Hard", 6: "Extreme", 7: "Death",
}

var longScaleNames = map[int]string{
	1: "Very Easy", 2: "Easy", 3: "Medium", 4: "Advanced", 5: "Hard",
	6: "Very Hard", 7: "Extreme", 8: "Death", 9: "Unfeasible",
	10: "Impossible",
}

// TierName renders a numeric tier for display. The vanilla legacy mode and
// both extended modes use the 10-step scale, everything else the 7-step one.
func TierName(tier *int, mode Mode) string {
	if tier == nil {
		return "Unknown"
	}
	names := shortScaleNames
	if mode == ModeVNL || mode.Extended() {
		names = longScaleNames
	}
	if name, ok := names[*tier]; ok {
		return name
	}
	return "Unknown"
}

var tierCodes = map[string]int{
	"very-easy": 1, "easy": 2, "medium": 3, "advanced": 4, "hard": 5,
	"very-hard": 6, "extreme": 7, "death": 8, "unfeasible": 9,
	"impossible": 10,
}

// TierFromCode maps the extended catalog's string tier codes to the numeric
// scale. Returns 0 for codes it does not know; callers decide the fallback.
func TierFromCode(code string) int {
	return tierCodes[code]
}
