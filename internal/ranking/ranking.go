// Package ranking converts cumulative points into named skill tiers. Pure
// functions, no I/O; every table is walked highest threshold first and the
// boundary is inclusive (meeting a threshold exactly earns its rank).
package ranking

import (
	"kz-tracker/internal/domain"
)

type threshold struct {
	min  int
	rank domain.Rank
}

// Mode-specific heads of the legacy tables. The three modes disagree only
// above the Skilled+ cutoff.
var legacyVNL = []threshold{
	{600000, domain.RankLegend},
	{400000, domain.RankMaster},
	{300000, domain.RankPro},
	{250000, domain.RankSemipro},
	{200000, domain.RankExpertPlus},
	{180000, domain.RankExpert},
	{160000, domain.RankExpertMinus},
	{140000, domain.RankSkilledPlus},
}

var legacySKZ = []threshold{
	{800000, domain.RankLegend},
	{500000, domain.RankMaster},
	{400000, domain.RankPro},
	{300000, domain.RankSemipro},
	{250000, domain.RankExpertPlus},
	{230000, domain.RankExpert},
	{200000, domain.RankExpertMinus},
	{150000, domain.RankSkilledPlus},
}

var legacyKZT = []threshold{
	{1000000, domain.RankLegend},
	{800000, domain.RankMaster},
	{600000, domain.RankPro},
	{400000, domain.RankSemipro},
	{250000, domain.RankExpertPlus},
	{230000, domain.RankExpert},
	{200000, domain.RankExpertMinus},
	{150000, domain.RankSkilledPlus},
}

// legacyTail is shared by every legacy mode below its Skilled+ cutoff.
var legacyTail = []threshold{
	{120000, domain.RankSkilled},
	{100000, domain.RankSkilledMinus},
	{80000, domain.RankRegularPlus},
	{70000, domain.RankRegular},
	{60000, domain.RankRegularMinus},
	{40000, domain.RankCasualPlus},
	{30000, domain.RankCasual},
	{20000, domain.RankCasualMinus},
	{10000, domain.RankAmateurPlus},
	{5000, domain.RankAmateur},
	{2000, domain.RankAmateurMinus},
	{1000, domain.RankBeginnerPlus},
	{500, domain.RankBeginner},
	{1, domain.RankBeginnerMinus},
}

// The extended family reports fractional points, so its table keeps float
// thresholds. Any positive amount below Casual is still Beginner.
var extended = []struct {
	min  float64
	rank domain.Rank
}{
	{37500, domain.RankLegend},
	{35000, domain.RankMaster},
	{30000, domain.RankPro},
	{25000, domain.RankSemipro},
	{20000, domain.RankExpert},
	{15000, domain.RankSkilled},
	{10000, domain.RankRegular},
	{5000, domain.RankCasual},
	{0, domain.RankBeginner},
}

// Legacy resolves a rank for total points in a legacy mode. Zero points is
// always the New sentinel.
func Legacy(mode domain.Mode, points int) domain.Rank {
	if points <= 0 {
		return domain.RankNew
	}
	var head []threshold
	switch mode {
	case domain.ModeVNL:
		head = legacyVNL
	case domain.ModeSKZ:
		head = legacySKZ
	default:
		head = legacyKZT
	}
	if rank, ok := walk(head, points); ok {
		return rank
	}
	if rank, ok := walk(legacyTail, points); ok {
		return rank
	}
	return domain.RankNew
}

// Extended resolves a rank for total points in an extended mode.
func Extended(points float64) domain.Rank {
	if points <= 0 {
		return domain.RankNew
	}
	for _, t := range extended {
		if points >= t.min {
			return t.rank
		}
	}
	return domain.RankBeginner
}

func walk(thresholds []threshold, points int) (domain.Rank, bool) {
	for _, t := range thresholds {
		if points >= t.min {
			return t.rank, true
		}
	}
	return domain.RankNew, false
}
