package server

import (
	"time"
	"tracker/internal/domain"
	"tracker/internal/history"
)

type FindPlayerRequest struct {
	PUUID string `json:"puuid,omitempty"`
	// Name is a riot id, "Name#Tag" or a bare name.
	Name string `json:"name,omitempty"`
	// ExternalID is the member id on the league website. It is used when no
	// puuid is given.
	ExternalID int64 `json:"external_id,omitempty"`
}

type FindPlayerResponse struct {
	Player  Player `json:"player"`
	Outcome string `json:"outcome"`
}

type PlayerRequest struct {
	PlayerID int64 `json:"player_id"`
}

type PlayerResponse struct {
	Player Player `json:"player"`
}

type PlayerExistsResponse struct {
	Exists bool `json:"exists"`
}

type SetPlayerTeamRequest struct {
	PlayerID int64  `json:"player_id"`
	TeamID   *int64 `json:"team_id"`
}

type LinkAccountRequest struct {
	PlayerID  int64  `json:"player_id"`
	DiscordID string `json:"discord_id"`
	Name      string `json:"name"`
}

type MatchIDsRequest struct {
	PlayerID    int64 `json:"player_id"`
	Competitive bool  `json:"competitive,omitempty"`
	// Days defaults to the standard scouting window.
	Days int `json:"days,omitempty"`
}

type MatchIDsResponse struct {
	MatchIDs []string `json:"match_ids"`
}

type LoadGamesRequest struct {
	PlayerID  int64 `json:"player_id"`
	ClashPlus bool  `json:"clash_plus,omitempty"`
	Force     bool  `json:"force,omitempty"`
	Mastery   bool  `json:"mastery,omitempty"`
}

type LoadTeamResponse struct {
	Team    Team              `json:"team"`
	Members []Player          `json:"members"`
	Left    []int64           `json:"left,omitempty"`
	Failed  []FailedMember    `json:"failed,omitempty"`
	History *history.Snapshot `json:"history,omitempty"`
}

// FailedMember is a roster entry that did not load; PlayerID is 0 when no
// player was found for it.
type FailedMember struct {
	ExternalID int64  `json:"external_id"`
	Name       string `json:"name"`
	PlayerID   int64  `json:"player_id,omitempty"`
	Error      string `json:"error"`
}

type Player struct {
	ID              int64     `json:"id"`
	PUUID           string    `json:"puuid,omitempty"`
	ExternalID      *int64    `json:"external_id,omitempty"`
	SummonerID      string    `json:"summoner_id,omitempty"`
	Name            string    `json:"name"`
	Tag             *string   `json:"tag,omitempty"`
	TeamID          *int64    `json:"team_id,omitempty"`
	LinkedAccountID *int64    `json:"linked_account_id,omitempty"`
	Updated         time.Time `json:"updated"`
	Played          bool      `json:"played"`
}

type Team struct {
	ID           int64  `json:"id"`
	ExternalID   *int64 `json:"external_id,omitempty"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation,omitempty"`
	Kind         string `json:"kind"`
	League       string `json:"league,omitempty"`
	Organized    bool   `json:"organized"`
}

func playerView(p *domain.Player) Player {
	rec := p.Record()
	v := Player{
		ID:              rec.ID,
		ExternalID:      rec.ExternalID,
		Name:            rec.Identity.Name,
		Tag:             rec.Identity.Tag,
		TeamID:          rec.TeamID,
		LinkedAccountID: rec.LinkedAccountID,
		Updated:         rec.Updated,
		Played:          rec.Played,
	}
	if rec.PUUID != nil {
		v.PUUID = *rec.PUUID
	}
	if rec.SummonerID != nil {
		v.SummonerID = *rec.SummonerID
	}
	return v
}

func teamView(t *domain.Team) Team {
	v := Team{
		ID:           t.ID,
		ExternalID:   t.ExternalID,
		Name:         t.Name,
		Abbreviation: t.Abbreviation,
		Kind:         string(t.Kind),
		Organized:    t.InOrganizedLeague(),
	}
	if t.League != nil {
		v.League = t.League.Name
	}
	return v
}
