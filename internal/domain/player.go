package domain

import (
	"cmp"
	"context"
	"fmt"
	"time"
	"tracker/internal/account"
	"tracker/internal/events"
	"tracker/internal/identity"
	"tracker/internal/lazy"
	"tracker/internal/riot"
	"tracker/internal/store"
)

// Record holds the persisted fields of a player.
type Record struct {
	ID              int64
	PUUID           *string
	ExternalID      *int64
	SummonerID      *string
	Identity        identity.Riot
	LinkedAccountID *int64
	TeamID          *int64
	Updated         time.Time
	Played          bool
}

func RecordFromRow(row store.PlayerRow) Record {
	return Record{
		ID:              row.ID,
		PUUID:           row.PUUID,
		ExternalID:      row.ExternalID,
		SummonerID:      row.SummonerID,
		Identity:        identity.Riot{Name: row.Name, Tag: row.Tag},
		LinkedAccountID: row.LinkedAccountID,
		TeamID:          row.TeamID,
		Updated:         row.Updated,
		Played:          row.Played,
	}
}

func (r Record) Row() store.PlayerRow {
	return store.PlayerRow{
		ID:              r.ID,
		PUUID:           r.PUUID,
		ExternalID:      r.ExternalID,
		SummonerID:      r.SummonerID,
		Name:            r.Identity.Name,
		Tag:             r.Identity.Tag,
		LinkedAccountID: r.LinkedAccountID,
		TeamID:          r.TeamID,
		Updated:         r.Updated,
		Played:          r.Played,
	}
}

// Player is a tracked player. Relations are resolved lazily and every
// setter writes through to storage before the in-memory value changes.
// A Player is not safe for concurrent use; route all mutation of one player
// id through one instance.
type Player struct {
	rec  Record
	deps *Deps

	team          lazy.Value[Team]
	linkedAccount lazy.Value[LinkedAccount]
	ranks         *RankHandle
	analyzer      *Analyzer
	resolver      *account.Resolver
}

func NewPlayer(deps *Deps, rec Record) *Player {
	return &Player{rec: rec, deps: deps}
}

type TeamChange struct {
	Player *Player
	Team   *Team
}

func (c TeamChange) EventFields() map[string]any {
	fields := map[string]any{"player_id": c.Player.ID()}
	if c.Team != nil {
		fields["team_id"] = c.Team.ID
	}
	return fields
}

type LinkedAccountChange struct {
	Player  *Player
	Account *LinkedAccount
}

func (c LinkedAccountChange) EventFields() map[string]any {
	fields := map[string]any{"player_id": c.Player.ID()}
	if c.Account != nil {
		fields["linked_account_id"] = c.Account.ID
	}
	return fields
}

func (p *Player) ID() int64 {
	return p.rec.ID
}

// Record returns a copy of the persisted fields.
func (p *Player) Record() Record {
	return p.rec
}

func (p *Player) Identity() identity.Riot {
	return p.rec.Identity
}

func (p *Player) Updated() time.Time {
	return p.rec.Updated
}

func (p *Player) Played() bool {
	return p.rec.Played
}

func (p *Player) TeamID() *int64 {
	return p.rec.TeamID
}

func (p *Player) LinkedAccountID() *int64 {
	return p.rec.LinkedAccountID
}

func (p *Player) ExternalID() *int64 {
	return p.rec.ExternalID
}

func (p *Player) update(ctx context.Context, cols store.Columns) error {
	if err := p.deps.Store.UpdateColumns(ctx, store.TablePlayer, p.rec.ID, cols); err != nil {
		return fmt.Errorf("failed to update player %d: %w", p.rec.ID, err)
	}
	return nil
}

// Team returns nil without a lookup when the player has no team.
func (p *Player) Team(ctx context.Context) (*Team, error) {
	if p.team.Resolved() || p.rec.TeamID == nil {
		return p.team.Peek(), nil
	}
	teamID := *p.rec.TeamID
	return p.team.GetOrResolve(ctx, func(ctx context.Context) (*Team, error) {
		row, err := p.deps.Store.TeamByID(ctx, teamID)
		if err != nil {
			return nil, fmt.Errorf("failed to load team %d: %w", teamID, err)
		}
		return TeamFromRow(row), nil
	})
}

// SetTeam is a no-op when team is the cached team or already the stored
// team id. Otherwise it stores the new team id, adds the player to the
// team's roster and publishes events.PlayerTeamChanged.
func (p *Player) SetTeam(ctx context.Context, team *Team) error {
	if p.team.Resolved() && p.team.Peek() == team {
		return nil
	}
	if team == nil && p.rec.TeamID == nil {
		return nil
	}
	if team != nil && p.rec.TeamID != nil && *p.rec.TeamID == team.ID {
		return nil
	}

	var teamID *int64
	if team != nil {
		id := team.ID
		teamID = &id
	}
	if err := p.update(ctx, store.Columns{store.ColTeam: store.Nullable(teamID)}); err != nil {
		return err
	}

	if old := p.team.Peek(); old != nil {
		old.RemovePlayer(p)
	}
	p.team.Set(team)
	p.rec.TeamID = teamID
	if team != nil {
		team.AddPlayer(p)
	}

	return p.deps.Bus.Publish(ctx, events.Event{
		Name:    events.PlayerTeamChanged,
		Payload: TeamChange{Player: p, Team: team},
	})
}

func (p *Player) LinkedAccount(ctx context.Context) (*LinkedAccount, error) {
	if p.linkedAccount.Resolved() || p.rec.LinkedAccountID == nil {
		return p.linkedAccount.Peek(), nil
	}
	accountID := *p.rec.LinkedAccountID
	return p.linkedAccount.GetOrResolve(ctx, func(ctx context.Context) (*LinkedAccount, error) {
		row, err := p.deps.Store.LinkedAccountByID(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("failed to load linked account %d: %w", accountID, err)
		}
		return linkedAccountFromRow(row), nil
	})
}

// SetLinkedAccount follows the SetTeam rules and publishes
// events.PlayerLinkedAccountChanged on every stored change.
func (p *Player) SetLinkedAccount(ctx context.Context, acc *LinkedAccount) error {
	if p.linkedAccount.Resolved() && p.linkedAccount.Peek() == acc {
		return nil
	}
	if acc == nil && p.rec.LinkedAccountID == nil {
		return nil
	}
	if acc != nil && p.rec.LinkedAccountID != nil && *p.rec.LinkedAccountID == acc.ID {
		return nil
	}

	var accountID *int64
	if acc != nil {
		id := acc.ID
		accountID = &id
	}
	if err := p.update(ctx, store.Columns{store.ColLinkedAccount: store.Nullable(accountID)}); err != nil {
		return err
	}
	p.linkedAccount.Set(acc)
	p.rec.LinkedAccountID = accountID

	return p.deps.Bus.Publish(ctx, events.Event{
		Name:    events.PlayerLinkedAccountChanged,
		Payload: LinkedAccountChange{Player: p, Account: acc},
	})
}

func (p *Player) SetPlayed(ctx context.Context, played bool) error {
	if p.rec.Played == played {
		return nil
	}
	if err := p.update(ctx, store.Columns{store.ColPlayed: played}); err != nil {
		return err
	}
	p.rec.Played = played
	return nil
}

func (p *Player) SetUpdated(ctx context.Context, updated time.Time) error {
	if p.rec.Updated.Equal(updated) {
		return nil
	}
	if err := p.update(ctx, store.Columns{store.ColUpdated: updated}); err != nil {
		return err
	}
	p.rec.Updated = updated
	return nil
}

// SetIdentity stores a new name and tag. A nil identity means the name
// lookup failed upstream; it is logged and nothing changes.
func (p *Player) SetIdentity(ctx context.Context, id *identity.Riot) error {
	if id == nil {
		p.deps.Logger.Warn().Int64("player_id", p.rec.ID).Msg("player name not found")
		return nil
	}
	if sameText(p.rec.Identity, *id) {
		return nil
	}
	if err := p.update(ctx, store.Columns{
		store.ColName: id.Name,
		store.ColTag:  store.Nullable(id.Tag),
	}); err != nil {
		return err
	}
	p.rec.Identity = *id
	return nil
}

func (p *Player) SetExternalID(ctx context.Context, externalID int64) error {
	if p.rec.ExternalID != nil && *p.rec.ExternalID == externalID {
		return nil
	}
	if err := p.update(ctx, store.Columns{store.ColExternalID: externalID}); err != nil {
		return err
	}
	p.rec.ExternalID = &externalID
	return nil
}

// SetPUUIDAndIdentity attaches a game account to a player stored by name
// only. The summoner id belonged to the old account and is cleared when the
// puuid changes.
func (p *Player) SetPUUIDAndIdentity(ctx context.Context, puuid string, id identity.Riot) error {
	samePUUID := p.rec.PUUID != nil && *p.rec.PUUID == puuid
	if samePUUID && sameText(p.rec.Identity, id) {
		return nil
	}

	cols := store.Columns{
		store.ColPUUID: puuid,
		store.ColName:  id.Name,
		store.ColTag:   store.Nullable(id.Tag),
	}
	if !samePUUID {
		cols[store.ColSummonerID] = nil
	}
	if err := p.update(ctx, cols); err != nil {
		return err
	}
	p.rec.PUUID = &puuid
	if !samePUUID {
		p.rec.SummonerID = nil
	}
	p.rec.Identity = id
	return nil
}

// Resolver returns the account resolver of this player instance.
func (p *Player) Resolver() *account.Resolver {
	if p.resolver == nil {
		puuid := ""
		if p.rec.PUUID != nil {
			puuid = *p.rec.PUUID
		}
		p.resolver = account.NewResolver(p.deps.Games, puuid, p.rec.Identity,
			p.deps.Logger.With().Int64("player_id", p.rec.ID).Logger())
	}
	return p.resolver
}

// PUUID resolves and stores the puuid when it is not known yet. "" means
// the account could not be found.
func (p *Player) PUUID(ctx context.Context) (string, error) {
	if p.rec.PUUID != nil {
		return *p.rec.PUUID, nil
	}
	puuid, err := p.Resolver().PUUID(ctx)
	if err != nil || puuid == "" {
		return "", err
	}
	if err := p.update(ctx, store.Columns{store.ColPUUID: puuid}); err != nil {
		return "", err
	}
	p.rec.PUUID = &puuid
	return puuid, nil
}

func (p *Player) SummonerID(ctx context.Context) (string, error) {
	if p.rec.SummonerID != nil {
		return *p.rec.SummonerID, nil
	}
	summonerID, err := p.Resolver().SummonerID(ctx)
	if err != nil || summonerID == "" {
		return "", err
	}
	if err := p.update(ctx, store.Columns{store.ColSummonerID: summonerID}); err != nil {
		return "", err
	}
	p.rec.SummonerID = &summonerID
	return summonerID, nil
}

// Name returns the full identity, completing a missing tag from the
// account. nil means the account does not exist.
func (p *Player) Name(ctx context.Context) (*identity.Riot, error) {
	return p.Resolver().Identity(ctx)
}

// UpdateName refreshes the identity from the account and stores it.
func (p *Player) UpdateName(ctx context.Context) (identity.Riot, error) {
	id, err := p.Resolver().UpdateIdentity(ctx)
	if err != nil {
		return p.rec.Identity, err
	}
	if err := p.SetIdentity(ctx, &id); err != nil {
		return p.rec.Identity, err
	}
	return p.rec.Identity, nil
}

func (p *Player) Exists(ctx context.Context) (bool, error) {
	return p.Resolver().Exists(ctx)
}

func (p *Player) MatchIDs(ctx context.Context, q riot.MatchQuery) ([]string, error) {
	return p.Resolver().MatchIDs(ctx, q)
}

func (p *Player) Ranks() *RankHandle {
	if p.ranks == nil {
		p.ranks = newRankHandle(p)
	}
	return p.ranks
}

// Analyze returns a scouting analyzer. Only the default matchmade window is
// kept on the player; other windows get a fresh analyzer.
func (p *Player) Analyze(kind ScoutingGameType, days int) *Analyzer {
	if kind == ScoutingMatchmade && days == DefaultScoutingDays {
		if p.analyzer == nil {
			p.analyzer = newAnalyzer(p, kind, days)
		}
		return p.analyzer
	}
	return newAnalyzer(p, kind, days)
}

func (p *Player) LoadGames(ctx context.Context, kind GameType) error {
	return p.deps.Loader.LoadGames(ctx, p, kind, false)
}

func (p *Player) LoadMastery(ctx context.Context) error {
	return p.deps.Loader.LoadMastery(ctx, p)
}

func (p *Player) ForceLoadMatchmade(ctx context.Context) error {
	return p.deps.Loader.LoadGames(ctx, p, GamesMatchmade, true)
}

// Equal compares ids only; cached relations never take part.
func (p *Player) Equal(other *Player) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.rec.ID == other.rec.ID
}

func (p *Player) Compare(other *Player) int {
	return cmp.Compare(p.rec.ID, other.rec.ID)
}

func (p *Player) String() string {
	if current := p.Ranks().Cached(); current != nil {
		return p.rec.Identity.String() + " | " + current.String()
	}
	return p.rec.Identity.String()
}

func (p *Player) EventFields() map[string]any {
	return map[string]any{"player_id": p.rec.ID, "identity": p.rec.Identity.String()}
}

func sameText(a, b identity.Riot) bool {
	if a.Name != b.Name || a.HasTag() != b.HasTag() {
		return false
	}
	return !a.HasTag() || *a.Tag == *b.Tag
}
