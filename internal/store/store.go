package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("store: not found")

// ErrUnknownColumn is returned by UpdateColumns for a column that does not
// belong to the table.
var ErrUnknownColumn = errors.New("store: unknown column")

type Table string

const (
	TablePlayer        Table = "player"
	TableTeam          Table = "team"
	TableLinkedAccount Table = "linked_account"
)

type Column string

const (
	ColPUUID         Column = "lol_puuid"
	ColSummonerID    Column = "lol_summoner"
	ColName          Column = "lol_name"
	ColTag           Column = "lol_tag"
	ColLinkedAccount Column = "linked_account"
	ColTeam          Column = "team"
	ColUpdated       Column = "updated"
	ColPlayed        Column = "played"
	// ColExternalID is the player's id on the league website.
	ColExternalID Column = "external_id"

	ColTeamName         Column = "name"
	ColTeamAbbreviation Column = "abbreviation"
	ColTeamLeague       Column = "league"
)

// Columns maps column to new value. A nil value clears the column.
type Columns map[Column]any

// Persistence is the storage port of the entity graph. Single-row reads
// return (nil, nil) when nothing matches. UpdateColumns is atomic per call.
type Persistence interface {
	PlayerByID(ctx context.Context, id int64) (*PlayerRow, error)
	PlayerByColumn(ctx context.Context, col Column, value any) (*PlayerRow, error)
	InsertPlayer(ctx context.Context, row PlayerRow) (int64, error)
	TeamByID(ctx context.Context, id int64) (*TeamRow, error)
	TeamByExternalID(ctx context.Context, externalID int64) (*TeamRow, error)
	TeamMembers(ctx context.Context, teamID int64) ([]PlayerRow, error)
	UpsertTeam(ctx context.Context, row TeamRow) (int64, error)
	UpsertLeague(ctx context.Context, row LeagueRow) (int64, error)
	LinkedAccountByID(ctx context.Context, id int64) (*LinkedAccountRow, error)
	UpsertLinkedAccount(ctx context.Context, row LinkedAccountRow) (int64, error)
	PlayerRanks(ctx context.Context, playerID int64) ([]RankRow, error)
	UpdateColumns(ctx context.Context, table Table, id int64, cols Columns) error
}

type PlayerRow struct {
	ID              int64
	PUUID           *string
	ExternalID      *int64
	SummonerID      *string
	Name            string
	Tag             *string
	LinkedAccountID *int64
	TeamID          *int64
	Updated         time.Time
	Played          bool
}

type TeamRow struct {
	ID           int64
	ExternalID   *int64
	Name         string
	Abbreviation string
	Kind         string
	League       *LeagueRow
}

type LeagueRow struct {
	ID        int64
	Name      string
	Organized bool
}

type LinkedAccountRow struct {
	ID        int64
	DiscordID string
	Name      string
}

type RankRow struct {
	Season       string
	Tier         string
	Division     string
	LeaguePoints int
	Wins         int
	Losses       int
}

// Nullable turns an optional value into a column value.
func Nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}
