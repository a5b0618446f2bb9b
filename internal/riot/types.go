package riot

import (
	"context"
	"errors"
	"time"
)

// ErrUpstreamUnavailable is returned when a lookup needs a game record that
// the upstream source cannot provide.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// GameData is the game-statistics source. Lookups that find nothing return
// (nil, nil); an error means the source could not be queried.
type GameData interface {
	AccountByPUUID(ctx context.Context, puuid string) (*Account, error)
	AccountByIdentity(ctx context.Context, name, tag string) (*Account, error)
	SummonerByPUUID(ctx context.Context, puuid string) (*Summoner, error)
	SummonerByIdentity(ctx context.Context, name string, tag *string) (*Summoner, error)
	MatchIDs(ctx context.Context, puuid string, q MatchQuery) ([]string, error)
	Mastery(ctx context.Context, puuid string) ([]ChampionMastery, error)
	LeagueEntries(ctx context.Context, puuid string) ([]LeagueEntry, error)
}

type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

type Summoner struct {
	ID            string `json:"id"`
	AccountID     string `json:"accountId"`
	PUUID         string `json:"puuid"`
	Name          string `json:"name,omitempty"`
	ProfileIconID int    `json:"profileIconId"`
	RevisionDate  int64  `json:"revisionDate"`
	SummonerLevel int64  `json:"summonerLevel"`
}

type ChampionMastery struct {
	ChampionID     int64 `json:"championId"`
	ChampionLevel  int   `json:"championLevel"`
	ChampionPoints int   `json:"championPoints"`
	LastPlayTime   int64 `json:"lastPlayTime"`
}

// RankedSoloQueue is the queueType of solo/duo league entries.
const RankedSoloQueue = "RANKED_SOLO_5x5"

type LeagueEntry struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

type QueueType int

const (
	QueueAny         QueueType = 0
	QueueNormalDraft QueueType = 400
	QueueRankedSolo  QueueType = 420
	QueueRankedFlex  QueueType = 440
	QueueClash       QueueType = 700
)

type MatchType string

const (
	MatchTypeAny     MatchType = ""
	MatchTypeRanked  MatchType = "ranked"
	MatchTypeNormal  MatchType = "normal"
	MatchTypeTourney MatchType = "tourney"
)

const MatchPageSize = 100

// MatchQuery selects a page of match ids. Zero Queue and empty Type mean no
// filter; a zero EndTime means now.
type MatchQuery struct {
	Queue     QueueType
	Type      MatchType
	Start     int
	StartTime time.Time
	EndTime   time.Time
}
