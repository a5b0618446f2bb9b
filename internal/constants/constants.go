package constants

import "time"

const (
	// NewPlayerBackfill is how far back game loading starts for a player
	// that was never loaded before.
	NewPlayerBackfill = 365 * 24 * time.Hour
	// ForcedLoadWindow is the window reloaded by a forced matchmade load.
	ForcedLoadWindow = 180 * 24 * time.Hour
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	IngestTimeout      = 2 * time.Minute
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	RedisKeyPrefix = "tracker:riot:"
)
