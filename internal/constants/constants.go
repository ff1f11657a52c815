package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// RecordsPageLimit is the page size for full-listing requests against
	// the legacy records service; it has no "all" selector.
	RecordsPageLimit = 9999

	// PersonalBestFetchLimit covers the at-most-two rows (TP and PRO) the
	// legacy service stores per player and map.
	PersonalBestFetchLimit = 2
)

const (
	AutocompleteMinLength = 3
	AutocompleteLimit     = 25
	AmbiguousDisplayLimit = 10
)
