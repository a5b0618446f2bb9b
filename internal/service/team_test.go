package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"tracker/internal/config"
	"tracker/internal/domain"
	"tracker/internal/events"
	"tracker/internal/history"
	"tracker/internal/repository"
	"tracker/internal/repository/testutil"
	"tracker/internal/riot"
	"tracker/internal/riot/riottest"
	"tracker/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParseTitle(t *testing.T) {
	tests := []struct {
		title, name, abbreviation string
	}{
		{"Team Rocket (TR)", "Team Rocket", "TR"},
		{"Eintracht (Frankfurt) (SGE)", "Eintracht (Frankfurt)", "SGE"},
		{"  No Abbreviation  ", "No Abbreviation", ""},
		{"Open (ABC", "Open", "ABC"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			name, abbreviation := ParseTitle(tt.title)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.abbreviation, abbreviation)
		})
	}
}

func rocketPage() TeamPage {
	return TeamPage{
		ExternalID: 4242,
		Slug:       "4242-team-rocket",
		Title:      "Team Rocket (TR)",
		League:     &LeagueInfo{Name: "Prime League", Organized: false},
		Members: []Member{
			{ExternalID: 1, Name: "Caps#EUW"},
			{ExternalID: 2, Name: "  "},
		},
		Seasons: []history.SeasonBlock{{Rows: []history.Row{
			{Label: "Kalibrierung", Result: "Platz (3/8)"},
			{Label: "Gruppe 4.2", Result: "Rang: 2.", Link: "/teams/4242-team-rocket"},
			{Label: "-", Result: "-"},
		}}},
	}
}

func (f *fixture) expectTeamUpsert(previous []store.PlayerRow) {
	f.store.On("TeamByExternalID", mock.Anything, int64(4242)).Return(nil, nil).Once()
	f.store.On("UpsertLeague", mock.Anything, store.LeagueRow{Name: "Prime League"}).Return(int64(2), nil).Once()
	f.store.On("UpsertTeam", mock.Anything, store.TeamRow{
		ExternalID:   ptr(int64(4242)),
		Name:         "Team Rocket",
		Abbreviation: "TR",
		Kind:         "roster",
		League:       &store.LeagueRow{ID: 2, Name: "Prime League"},
	}).Return(int64(8), nil).Once()
	f.store.On("TeamMembers", mock.Anything, int64(8)).Return(previous, nil).Once()
}

func TestTeamService_Load(t *testing.T) {
	f := newFixture()
	var loadedEvents int
	f.bus.Subscribe(events.TeamLoaded, func(_ context.Context, e events.Event) error {
		loadedEvents++
		return nil
	})

	stayed := storedRow(5, "puuid-1", "Caps", "EUW")
	stayed.TeamID = ptr(int64(8))
	stayed.ExternalID = ptr(int64(1))
	left := storedRow(6, "puuid-2", "Perkz", "EUW")
	left.TeamID = ptr(int64(8))
	f.expectTeamUpsert([]store.PlayerRow{*stayed, *left})

	f.store.On("PlayerByColumn", mock.Anything, store.ColExternalID, int64(1)).Return(stayed, nil).Once()
	f.store.On("PlayerByColumn", mock.Anything, store.ColExternalID, int64(2)).Return(nil, nil).Once()
	f.store.On("UpdateColumns", mock.Anything, store.TablePlayer, int64(6), store.Columns{store.ColTeam: nil}).Return(nil).Once()

	batch := NewBatch()
	loaded, err := f.teams.Load(context.Background(), batch, rocketPage())
	require.NoError(t, err)

	assert.Equal(t, "Team Rocket (TR)", loaded.Team.String())
	assert.Equal(t, int64(8), loaded.Team.ID)
	assert.False(t, loaded.Team.InOrganizedLeague())

	players := loaded.Team.Players()
	require.Len(t, players, 1)
	assert.Equal(t, int64(5), players[0].ID())

	require.Len(t, loaded.Left, 1)
	assert.Equal(t, int64(6), loaded.Left[0].ID())
	assert.Nil(t, loaded.Left[0].TeamID())

	require.NotNil(t, loaded.History)
	assert.Equal(t, 3, *loaded.History.Qualifier)
	assert.Equal(t, 4, *loaded.History.Group)
	assert.Equal(t, 2, *loaded.History.GroupResult)
	assert.Nil(t, loaded.History.Playoff)

	assert.Equal(t, 1, loadedEvents)
	assert.Equal(t, 1, batch.Len())
	f.store.AssertExpectations(t)
	f.games.AssertNotCalled(t, "AccountByIdentity", mock.Anything, mock.Anything, mock.Anything)
}

func TestTeamService_Load_NewMemberJoins(t *testing.T) {
	f := newFixture()
	f.expectTeamUpsert([]store.PlayerRow{})

	f.games.On("AccountByIdentity", mock.Anything, "Caps", "EUW").
		Return(&riot.Account{PUUID: "puuid-1", GameName: "Caps", TagLine: "EUW"}, nil).Once()
	f.store.On("PlayerByColumn", mock.Anything, store.ColExternalID, int64(1)).Return(nil, nil).Once()
	f.store.On("PlayerByColumn", mock.Anything, store.ColExternalID, int64(2)).Return(nil, nil).Once()
	f.store.On("PlayerByColumn", mock.Anything, store.ColPUUID, "puuid-1").Return(storedRow(5, "puuid-1", "Caps", "EUW"), nil).Once()
	f.store.On("UpdateColumns", mock.Anything, store.TablePlayer, int64(5), store.Columns{store.ColExternalID: int64(1)}).Return(nil).Once()
	f.store.On("UpdateColumns", mock.Anything, store.TablePlayer, int64(5), store.Columns{store.ColTeam: int64(8)}).Return(nil).Once()

	loaded, err := f.teams.Load(context.Background(), NewBatch(), rocketPage())
	require.NoError(t, err)

	require.Len(t, loaded.Team.Players(), 1)
	assert.Equal(t, int64(8), *loaded.Team.Players()[0].TeamID())
	assert.Equal(t, int64(1), *loaded.Team.Players()[0].ExternalID())
	assert.Empty(t, loaded.Left)
	f.store.AssertExpectations(t)
}

func TestTeamService_Load_BatchLoadsTeamOnce(t *testing.T) {
	f := newFixture()
	f.expectTeamUpsert([]store.PlayerRow{})
	page := rocketPage()
	page.Members = nil

	batch := NewBatch()
	first, err := f.teams.Load(context.Background(), batch, page)
	require.NoError(t, err)
	second, err := f.teams.Load(context.Background(), batch, page)
	require.NoError(t, err)

	assert.Same(t, first, second)
	f.store.AssertNumberOfCalls(t, "UpsertTeam", 1)
	assert.Same(t, first, batch.Team(4242))
	assert.Nil(t, batch.Team(1))
}

func TestTeamService_Load_RequiresTitle(t *testing.T) {
	f := newFixture()

	_, err := f.teams.Load(context.Background(), NewBatch(), TeamPage{ExternalID: 1})
	assert.Error(t, err)
	f.store.AssertNotCalled(t, "UpsertTeam", mock.Anything, mock.Anything)
}

func TestBatch_PlayerInstancesAreShared(t *testing.T) {
	f := newFixture()
	batch := NewBatch()
	deps := f.players.deps

	a := domain.NewPlayer(deps, domain.Record{ID: 1})
	b := domain.NewPlayer(deps, domain.Record{ID: 1})

	assert.Same(t, a, batch.player(a))
	assert.Same(t, a, batch.player(b))
}

func TestTeamService_Load_MemberRenameGoesThroughBatchInstance(t *testing.T) {
	f := newFixture()
	f.expectTeamUpsert([]store.PlayerRow{})
	row := storedRow(5, "puuid-1", "Caps", "EUW")
	row.ExternalID = ptr(int64(1))
	f.store.On("PlayerByColumn", mock.Anything, store.ColExternalID, int64(1)).Return(row, nil).Once()
	f.store.On("PlayerByColumn", mock.Anything, store.ColExternalID, int64(2)).Return(nil, nil).Once()
	f.store.On("UpdateColumns", mock.Anything, store.TablePlayer, int64(5), store.Columns{
		store.ColName: "Capsen",
		store.ColTag:  "EUW",
	}).Return(nil).Once()
	f.store.On("UpdateColumns", mock.Anything, store.TablePlayer, int64(5), store.Columns{store.ColTeam: int64(8)}).Return(nil).Once()

	batch := NewBatch()
	known := batch.player(domain.NewPlayer(f.players.deps, domain.RecordFromRow(*row)))

	page := rocketPage()
	page.Members[0].Name = "Capsen"
	loaded, err := f.teams.Load(context.Background(), batch, page)
	require.NoError(t, err)

	require.Len(t, loaded.Team.Players(), 1)
	assert.Same(t, known, loaded.Team.Players()[0])
	assert.Equal(t, "Capsen#EUW", known.Identity().String())
	f.store.AssertExpectations(t)
}

func TestTeamService_Load_FailedLookupKeepsUnlistedMembers(t *testing.T) {
	f := newFixture()
	boom := errors.New("riot down")
	previous := storedRow(6, "puuid-2", "Perkz", "EUW")
	previous.TeamID = ptr(int64(8))
	f.expectTeamUpsert([]store.PlayerRow{*previous})
	f.store.On("PlayerByColumn", mock.Anything, store.ColExternalID, int64(1)).Return(nil, nil).Once()
	f.store.On("PlayerByColumn", mock.Anything, store.ColExternalID, int64(2)).Return(nil, nil).Once()
	f.games.On("AccountByIdentity", mock.Anything, "Caps", "EUW").Return(nil, boom).Once()

	batch := NewBatch()
	loaded, err := f.teams.Load(context.Background(), batch, rocketPage())
	require.ErrorIs(t, err, boom)
	require.NotNil(t, loaded)

	require.Len(t, loaded.Failed, 1)
	assert.Equal(t, int64(1), loaded.Failed[0].ExternalID)
	assert.Zero(t, loaded.Failed[0].PlayerID)
	assert.Empty(t, loaded.Left)
	assert.Same(t, loaded, batch.Team(4242))
	f.store.AssertNotCalled(t, "UpdateColumns", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTeamService_Load_PageWithoutLeagueKeepsStoredLeague(t *testing.T) {
	f := newFixture()
	league := &store.LeagueRow{ID: 2, Name: "Prime League", Organized: true}
	f.store.On("TeamByExternalID", mock.Anything, int64(4242)).Return(&store.TeamRow{
		ID:         8,
		ExternalID: ptr(int64(4242)),
		Name:       "Team Rocket",
		Kind:       "roster",
		League:     league,
	}, nil).Once()
	f.store.On("UpsertTeam", mock.Anything, store.TeamRow{
		ExternalID:   ptr(int64(4242)),
		Name:         "Team Rocket",
		Abbreviation: "TR",
		Kind:         "roster",
		League:       league,
	}).Return(int64(8), nil).Once()
	f.store.On("TeamMembers", mock.Anything, int64(8)).Return([]store.PlayerRow{}, nil).Once()

	page := rocketPage()
	page.League = nil
	page.Members = nil
	loaded, err := f.teams.Load(context.Background(), NewBatch(), page)
	require.NoError(t, err)

	assert.True(t, loaded.Team.InOrganizedLeague())
	f.store.AssertNotCalled(t, "UpsertLeague", mock.Anything, mock.Anything)
	f.store.AssertExpectations(t)
}

// sqlFixture runs the services on a migrated sqlite database.
type sqlFixture struct {
	db      *sql.DB
	repo    *repository.Repository
	games   *riottest.MockGameData
	loader  *mockLoader
	players *PlayerService
	teams   *TeamService
}

func newSQLFixture(t *testing.T) *sqlFixture {
	db := testutil.SetupSQLite(t)
	f := &sqlFixture{
		db:     db,
		repo:   repository.New(db, config.DriverSQLite, zerolog.Nop()),
		games:  new(riottest.MockGameData),
		loader: new(mockLoader),
	}
	bus := events.NewBus()
	deps := &domain.Deps{Store: f.repo, Games: f.games, Loader: f.loader, Bus: bus, Logger: zerolog.Nop()}
	f.players = NewPlayerService(deps, zerolog.Nop())
	f.players.Subscribe(bus)
	f.teams = NewTeamService(f.players, zerolog.Nop())
	return f
}

func (f *sqlFixture) countPlayers(t *testing.T, name string) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM player WHERE lol_name = ?", name).Scan(&n))
	return n
}

func TestTeamService_Load_UnresolvableMemberIsStoredOnce(t *testing.T) {
	ctx := context.Background()
	f := newSQLFixture(t)
	f.games.On("AccountByIdentity", mock.Anything, "Ghost", "EUW").Return(nil, nil)

	page := TeamPage{
		ExternalID: 4242,
		Title:      "Team Rocket (TR)",
		Members:    []Member{{ExternalID: 7001, Name: "Ghost#EUW"}},
	}

	var first *LoadedTeam
	for i := range 3 {
		loaded, err := f.teams.Load(ctx, NewBatch(), page)
		require.NoError(t, err)
		require.Len(t, loaded.Team.Players(), 1)
		assert.Empty(t, loaded.Left, "load %d", i)
		if first == nil {
			first = loaded
		}
		assert.Equal(t, first.Team.Players()[0].ID(), loaded.Team.Players()[0].ID())
	}

	assert.Equal(t, 1, f.countPlayers(t, "Ghost"))
	members, err := f.repo.TeamMembers(ctx, first.Team.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, int64(7001), *members[0].ExternalID)
	assert.Nil(t, members[0].PUUID)
}

func TestTeamService_Load_GhostGetsAccountOnceResolvable(t *testing.T) {
	ctx := context.Background()
	f := newSQLFixture(t)
	f.games.On("AccountByIdentity", mock.Anything, "Ghost", "EUW").Return(nil, nil).Once()
	f.games.On("AccountByIdentity", mock.Anything, "Ghost", "EUW").
		Return(&riot.Account{PUUID: "puuid-ghost", GameName: "Ghost", TagLine: "EUW"}, nil).Once()

	page := TeamPage{
		ExternalID: 4242,
		Title:      "Team Rocket (TR)",
		Members:    []Member{{ExternalID: 7001, Name: "Ghost#EUW"}},
	}
	_, err := f.teams.Load(ctx, NewBatch(), page)
	require.NoError(t, err)
	loaded, err := f.teams.Load(ctx, NewBatch(), page)
	require.NoError(t, err)

	p := loaded.Team.Players()[0]
	require.NotNil(t, p.Record().PUUID)
	assert.Equal(t, "puuid-ghost", *p.Record().PUUID)

	row, err := f.repo.PlayerByColumn(ctx, store.ColPUUID, "puuid-ghost")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, p.ID(), row.ID)
	assert.Equal(t, 1, f.countPlayers(t, "Ghost"))
}

func TestTeamService_Load_FailingGameLoadDoesNotStopOtherMembers(t *testing.T) {
	ctx := context.Background()
	f := newSQLFixture(t)
	f.games.On("AccountByIdentity", mock.Anything, "Ghost", "EUW").Return(nil, nil)
	f.games.On("AccountByIdentity", mock.Anything, "Caps", "EUW").
		Return(&riot.Account{PUUID: "puuid-caps", GameName: "Caps", TagLine: "EUW"}, nil).Once()

	isGhost := mock.MatchedBy(func(p *domain.Player) bool { return p.Identity().Name == "Ghost" })
	isCaps := mock.MatchedBy(func(p *domain.Player) bool { return p.Identity().Name == "Caps" })
	f.loader.On("LoadGames", mock.Anything, isGhost, domain.GamesClashPlus, false).
		Return(fmt.Errorf("player has no summoner: %w", riot.ErrUpstreamUnavailable)).Once()
	f.loader.On("LoadGames", mock.Anything, isCaps, domain.GamesClashPlus, false).Return(nil).Once()

	batch := NewBatch()
	loaded, err := f.teams.Load(ctx, batch, TeamPage{
		ExternalID: 4242,
		Title:      "Team Rocket (TR)",
		League:     &LeagueInfo{Name: "Prime League", Organized: true},
		Members: []Member{
			{ExternalID: 7001, Name: "Ghost#EUW"},
			{ExternalID: 7002, Name: "Caps#EUW"},
		},
	})
	require.ErrorIs(t, err, riot.ErrUpstreamUnavailable)
	require.NotNil(t, loaded)

	require.Len(t, loaded.Failed, 1)
	assert.Equal(t, "Ghost#EUW", loaded.Failed[0].Name)
	assert.NotZero(t, loaded.Failed[0].PlayerID)
	assert.Len(t, loaded.Team.Players(), 2)
	assert.Same(t, loaded, batch.Team(4242))

	members, err := f.repo.TeamMembers(ctx, loaded.Team.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
	assert.Equal(t, 1, f.countPlayers(t, "Caps"))
	f.loader.AssertExpectations(t)

	again, err := f.teams.Load(ctx, batch, TeamPage{ExternalID: 4242})
	assert.Same(t, loaded, again)
	assert.ErrorIs(t, err, riot.ErrUpstreamUnavailable)
}
