package domain

import (
	"context"
	"tracker/internal/events"
	"tracker/internal/riot"
	"tracker/internal/store"

	"github.com/rs/zerolog"
)

type GameType int

const (
	GamesMatchmade GameType = iota
	GamesClashPlus
)

func (t GameType) String() string {
	switch t {
	case GamesClashPlus:
		return "clash_plus"
	default:
		return "matchmade"
	}
}

// GameLoader ingests game data for a player. Failures are returned to the
// caller, which owns the retry policy.
type GameLoader interface {
	LoadGames(ctx context.Context, p *Player, kind GameType, force bool) error
	LoadMastery(ctx context.Context, p *Player) error
}

// Deps are the collaborators shared by every entity loaded in one process.
type Deps struct {
	Store  store.Persistence
	Games  riot.GameData
	Loader GameLoader
	Bus    *events.Bus
	Logger zerolog.Logger
}
