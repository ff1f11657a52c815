package domain

import (
	"time"
)

// Mode selects a game-mode variant. The first three belong to the legacy
// records family, the last two to the extended family.
type Mode string

const (
	ModeKZT  Mode = "kzt"
	ModeSKZ  Mode = "skz"
	ModeVNL  Mode = "vnl"
	ModeCKZ  Mode = "ckz"
	ModeVNL2 Mode = "vnl2"
)

// Extended reports whether the mode is served by the extended records family.
func (m Mode) Extended() bool {
	return m == ModeCKZ || m == ModeVNL2
}

func (m Mode) Valid() bool {
	switch m {
	case ModeKZT, ModeSKZ, ModeVNL, ModeCKZ, ModeVNL2:
		return true
	}
	return false
}

// RunClass filters records by teleport usage.
type RunClass string

const (
	RunAny RunClass = "any"
	RunTP  RunClass = "tp"
	RunPro RunClass = "pro"
)

func (rc RunClass) Valid() bool {
	return rc == RunAny || rc == RunTP || rc == RunPro
}

// Map is a resolved map value. CatalogID plus Extended identify the row in
// the upstream catalog that produced it; the two catalogs assign ids
// independently and may reuse names.
type Map struct {
	CatalogID int64
	Extended  bool
	Name      string

	// Course is the extended-family course name, empty on legacy maps.
	// Bonus is the legacy-family bonus stage, 0 for the main stage.
	Course string
	Bonus  int

	// Tier/ProTier are nil when unknown (bonus stages, missing filters).
	Tier    *int
	ProTier *int

	// Secondary-scale tier pair, only populated on legacy cache rows.
	VNLTier    *int
	VNLProTier *int

	MaxTier   int
	Thumbnail []byte
}

// Record is a normalized personal-best or world-record entry. Constructed
// fresh on every query, never persisted.
type Record struct {
	ID          int64
	SteamID64   int64
	PlayerName  string // may be empty, upstream sometimes omits it
	Map         *Map
	Time        time.Duration
	Teleports   int
	Points      int
	PointScale  int
	Place       *int
	SubmittedAt time.Time
}

// Pro reports whether the run used no teleports.
func (r *Record) Pro() bool { return r.Teleports == 0 }

// Profile aggregates a player's standing in one mode. Average is nil when
// the upstream does not report one.
type Profile struct {
	Name    string
	Mode    Mode
	Rank    Rank
	Points  int
	Average *int
}

// Registration maps a chat account to a steam identity and default mode.
// The aggregation core treats registrations as read-only lookups.
type Registration struct {
	UserID    string
	GuildID   string
	SteamID64 int64
	Mode      Mode
}
