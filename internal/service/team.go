package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"tracker/internal/domain"
	"tracker/internal/events"
	"tracker/internal/history"
	"tracker/internal/identity"
	"tracker/internal/store"

	"github.com/rs/zerolog"
)

// TeamPage is a team page as read from the league website.
type TeamPage struct {
	ExternalID int64                 `json:"external_id"`
	Slug       string                `json:"slug"`
	Title      string                `json:"title"`
	League     *LeagueInfo           `json:"league,omitempty"`
	Members    []Member              `json:"members"`
	Seasons    []history.SeasonBlock `json:"seasons,omitempty"`
}

type LeagueInfo struct {
	Name      string `json:"name"`
	Organized bool   `json:"organized"`
}

// Member is a roster entry; Name is the riot id shown on the page.
type Member struct {
	ExternalID int64  `json:"external_id"`
	Name       string `json:"name"`
}

type LoadedTeam struct {
	Team    *domain.Team
	History *history.Snapshot
	Left    []*domain.Player
	// Failed lists the members whose load or team change did not complete.
	Failed []*MemberError
}

// Err joins the member failures; nil when every member loaded.
func (l *LoadedTeam) Err() error {
	errs := make([]error, len(l.Failed))
	for i, f := range l.Failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// MemberError is a listed member that could not be looked up, or whose team
// change failed in a follow-up such as a game load. PlayerID is 0 when no
// player was found.
type MemberError struct {
	ExternalID int64
	Name       string
	PlayerID   int64
	Err        error
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("member %q (%d): %v", e.Name, e.ExternalID, e.Err)
}

func (e *MemberError) Unwrap() error {
	return e.Err
}

// Batch keeps the teams and players loaded during one batch of team loads,
// so a team is loaded once and a player is mutated through one instance.
// A Batch is not safe for concurrent use.
type Batch struct {
	teams   map[int64]*LoadedTeam
	players map[int64]*domain.Player
}

func NewBatch() *Batch {
	return &Batch{
		teams:   map[int64]*LoadedTeam{},
		players: map[int64]*domain.Player{},
	}
}

func (b *Batch) Team(externalID int64) *LoadedTeam {
	return b.teams[externalID]
}

func (b *Batch) Len() int {
	return len(b.teams)
}

// player returns the batch instance for p's id, registering p when the id
// is new.
func (b *Batch) player(p *domain.Player) *domain.Player {
	if existing, ok := b.players[p.ID()]; ok {
		return existing
	}
	b.players[p.ID()] = p
	return p
}

type TeamService struct {
	players *PlayerService
	store   store.Persistence
	bus     *events.Bus
	logger  zerolog.Logger
}

func NewTeamService(players *PlayerService, logger zerolog.Logger) *TeamService {
	return &TeamService{
		players: players,
		store:   players.deps.Store,
		bus:     players.deps.Bus,
		logger:  logger.With().Str("component", "team_service").Logger(),
	}
}

// ParseTitle splits a page title "Name (ABBR)" at its last " (".
func ParseTitle(title string) (name, abbreviation string) {
	title = strings.TrimSpace(title)
	idx := strings.LastIndex(title, " (")
	if idx < 0 {
		return title, ""
	}
	name = strings.TrimSpace(title[:idx])
	abbreviation = title[idx+2:]
	if end := strings.LastIndex(abbreviation, ")"); end >= 0 {
		abbreviation = abbreviation[:end]
	}
	return name, strings.TrimSpace(abbreviation)
}

// Load stores the team of page, puts every listed member on it and takes
// members that are no longer listed off it. A failing member does not stop
// the others: the team is returned with the failures in Failed and joined
// into the error. Members are only taken off the team when every listed
// member was found. A team already loaded in batch is returned as is.
func (s *TeamService) Load(ctx context.Context, batch *Batch, page TeamPage) (*LoadedTeam, error) {
	if loaded := batch.Team(page.ExternalID); loaded != nil {
		return loaded, loaded.Err()
	}

	logger := s.logger.With().Int64("external_id", page.ExternalID).Logger()
	name, abbreviation := ParseTitle(page.Title)
	if name == "" {
		return nil, fmt.Errorf("team page %d has no title", page.ExternalID)
	}

	stored, err := s.store.TeamByExternalID(ctx, page.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up team %d: %w", page.ExternalID, err)
	}

	row := store.TeamRow{
		ExternalID:   &page.ExternalID,
		Name:         name,
		Abbreviation: abbreviation,
		Kind:         string(domain.TeamKindRoster),
	}
	switch {
	case page.League != nil:
		leagueID, err := s.store.UpsertLeague(ctx, store.LeagueRow{Name: page.League.Name, Organized: page.League.Organized})
		if err != nil {
			return nil, err
		}
		row.League = &store.LeagueRow{ID: leagueID, Name: page.League.Name, Organized: page.League.Organized}
		if stored != nil && stored.League != nil && stored.League.ID != leagueID {
			logger.Info().Str("from", stored.League.Name).Str("to", page.League.Name).Msg("team changed league")
		}
	case stored != nil:
		// pages between seasons list no league
		row.League = stored.League
	}

	teamID, err := s.store.UpsertTeam(ctx, row)
	if err != nil {
		return nil, err
	}
	row.ID = teamID
	team := domain.TeamFromRow(&row)

	previous, err := s.store.TeamMembers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load members of team %d: %w", teamID, err)
	}

	loaded := &LoadedTeam{Team: team, History: history.Find(page.Seasons, page.Slug)}
	listed := make(map[int64]bool, len(page.Members))
	complete := true
	for _, m := range page.Members {
		id := identity.Parse(m.Name)
		p, outcome, err := s.players.findOrCreate(ctx, m.ExternalID, "", id, batch.player)
		if errors.Is(err, ErrNoIdentity) {
			logger.Warn().Int64("member", m.ExternalID).Msg("member without name skipped")
			continue
		}
		if err != nil {
			complete = false
			loaded.Failed = append(loaded.Failed, &MemberError{ExternalID: m.ExternalID, Name: m.Name, Err: err})
			logger.Warn().Err(err).Int64("member", m.ExternalID).Str("identity", id.String()).Msg("member lookup failed")
			continue
		}
		listed[p.ID()] = true

		if err := p.SetTeam(ctx, team); err != nil {
			loaded.Failed = append(loaded.Failed, &MemberError{ExternalID: m.ExternalID, Name: m.Name, PlayerID: p.ID(), Err: err})
			logger.Warn().Err(err).Int64("player_id", p.ID()).Msg("team change of member failed")
		}
		if tid := p.TeamID(); tid != nil && *tid == team.ID {
			team.AddPlayer(p)
		}

		logger.Debug().
			Int64("player_id", p.ID()).
			Str("identity", p.Identity().String()).
			Str("outcome", outcome.String()).
			Msg("member loaded")
	}

	if complete {
		for _, prev := range previous {
			if listed[prev.ID] {
				continue
			}
			p := batch.player(domain.NewPlayer(s.players.deps, domain.RecordFromRow(prev)))
			if err := p.SetTeam(ctx, nil); err != nil {
				return nil, err
			}
			loaded.Left = append(loaded.Left, p)
			logger.Info().Int64("player_id", p.ID()).Msg("player left team")
		}
	} else {
		logger.Warn().Int("failed", len(loaded.Failed)).Msg("roster incomplete, keeping unlisted members")
	}

	batch.teams[page.ExternalID] = loaded

	if err := s.bus.Publish(ctx, events.Event{Name: events.TeamLoaded, Payload: team}); err != nil {
		return nil, err
	}

	logger.Info().
		Int64("team_id", teamID).
		Str("team", team.String()).
		Int("members", len(team.Players())).
		Int("left", len(loaded.Left)).
		Int("failed", len(loaded.Failed)).
		Msg("team loaded")
	return loaded, loaded.Err()
}
