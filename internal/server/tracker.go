package server

import (
	"context"
	"errors"
	"net/http"
	"time"
	"tracker/internal/constants"
	"tracker/internal/domain"
	"tracker/internal/identity"
	"tracker/internal/riot"
	"tracker/internal/service"
	"tracker/internal/store"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

const TrackerServicePath = "/tracker.v1.TrackerService/"

const (
	FindPlayerProcedure    = TrackerServicePath + "FindPlayer"
	GetPlayerProcedure     = TrackerServicePath + "GetPlayer"
	PlayerExistsProcedure  = TrackerServicePath + "PlayerExists"
	SetPlayerTeamProcedure = TrackerServicePath + "SetPlayerTeam"
	LinkAccountProcedure   = TrackerServicePath + "LinkAccount"
	GetMatchIDsProcedure   = TrackerServicePath + "GetMatchIDs"
	LoadGamesProcedure     = TrackerServicePath + "LoadGames"
	LoadTeamProcedure      = TrackerServicePath + "LoadTeam"
)

type TrackerServer struct {
	players *service.PlayerService
	teams   *service.TeamService
}

func NewTrackerServer(players *service.PlayerService, teams *service.TeamService) *TrackerServer {
	return &TrackerServer{players: players, teams: teams}
}

// Handler returns the path prefix and handler serving every procedure.
func (s *TrackerServer) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(FindPlayerProcedure, connect.NewUnaryHandler(FindPlayerProcedure, s.FindPlayer, opts...))
	mux.Handle(GetPlayerProcedure, connect.NewUnaryHandler(GetPlayerProcedure, s.GetPlayer, opts...))
	mux.Handle(PlayerExistsProcedure, connect.NewUnaryHandler(PlayerExistsProcedure, s.PlayerExists, opts...))
	mux.Handle(SetPlayerTeamProcedure, connect.NewUnaryHandler(SetPlayerTeamProcedure, s.SetPlayerTeam, opts...))
	mux.Handle(LinkAccountProcedure, connect.NewUnaryHandler(LinkAccountProcedure, s.LinkAccount, opts...))
	mux.Handle(GetMatchIDsProcedure, connect.NewUnaryHandler(GetMatchIDsProcedure, s.GetMatchIDs, opts...))
	mux.Handle(LoadGamesProcedure, connect.NewUnaryHandler(LoadGamesProcedure, s.LoadGames, opts...))
	mux.Handle(LoadTeamProcedure, connect.NewUnaryHandler(LoadTeamProcedure, s.LoadTeam, opts...))
	return TrackerServicePath, mux
}

func (s *TrackerServer) FindPlayer(ctx context.Context, req *connect.Request[FindPlayerRequest]) (*connect.Response[FindPlayerResponse], error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	var (
		p       *domain.Player
		outcome service.Outcome
		err     error
	)
	id := identity.Parse(req.Msg.Name)
	if req.Msg.PUUID == "" && req.Msg.ExternalID != 0 {
		p, outcome, err = s.players.FindOrCreateMember(ctx, req.Msg.ExternalID, id)
	} else {
		p, outcome, err = s.players.FindOrCreate(ctx, req.Msg.PUUID, id)
	}
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&FindPlayerResponse{Player: playerView(p), Outcome: outcome.String()}), nil
}

func (s *TrackerServer) GetPlayer(ctx context.Context, req *connect.Request[PlayerRequest]) (*connect.Response[PlayerResponse], error) {
	p, err := s.players.Get(ctx, req.Msg.PlayerID)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&PlayerResponse{Player: playerView(p)}), nil
}

func (s *TrackerServer) PlayerExists(ctx context.Context, req *connect.Request[PlayerRequest]) (*connect.Response[PlayerExistsResponse], error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	p, err := s.players.Get(ctx, req.Msg.PlayerID)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	exists, err := p.Exists(ctx)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&PlayerExistsResponse{Exists: exists}), nil
}

func (s *TrackerServer) SetPlayerTeam(ctx context.Context, req *connect.Request[SetPlayerTeamRequest]) (*connect.Response[PlayerResponse], error) {
	ctx, cancel := context.WithTimeout(ctx, constants.IngestTimeout)
	defer cancel()

	p, err := s.players.SetTeam(ctx, req.Msg.PlayerID, req.Msg.TeamID)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&PlayerResponse{Player: playerView(p)}), nil
}

func (s *TrackerServer) LinkAccount(ctx context.Context, req *connect.Request[LinkAccountRequest]) (*connect.Response[PlayerResponse], error) {
	if req.Msg.DiscordID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("discord_id is required"))
	}

	ctx, cancel := context.WithTimeout(ctx, constants.IngestTimeout)
	defer cancel()

	p, err := s.players.LinkAccount(ctx, req.Msg.PlayerID, req.Msg.DiscordID, req.Msg.Name)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&PlayerResponse{Player: playerView(p)}), nil
}

func (s *TrackerServer) GetMatchIDs(ctx context.Context, req *connect.Request[MatchIDsRequest]) (*connect.Response[MatchIDsResponse], error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	p, err := s.players.Get(ctx, req.Msg.PlayerID)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	kind := domain.ScoutingMatchmade
	if req.Msg.Competitive {
		kind = domain.ScoutingCompetitive
	}
	days := req.Msg.Days
	if days <= 0 {
		days = domain.DefaultScoutingDays
	}

	start := time.Now()
	ids, err := p.Analyze(kind, days).MatchIDs(ctx)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	zerolog.Ctx(ctx).Debug().
		Int64("player_id", p.ID()).
		Int("days", days).
		Int("count", len(ids)).
		Dur("took", time.Since(start)).
		Msg("match ids fetched")

	if ids == nil {
		ids = []string{}
	}
	return connect.NewResponse(&MatchIDsResponse{MatchIDs: ids}), nil
}

func (s *TrackerServer) LoadGames(ctx context.Context, req *connect.Request[LoadGamesRequest]) (*connect.Response[PlayerResponse], error) {
	ctx, cancel := context.WithTimeout(ctx, constants.IngestTimeout)
	defer cancel()

	p, err := s.players.Get(ctx, req.Msg.PlayerID)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	switch {
	case req.Msg.ClashPlus:
		err = p.LoadGames(ctx, domain.GamesClashPlus)
	case req.Msg.Force:
		err = p.ForceLoadMatchmade(ctx)
	default:
		err = p.LoadGames(ctx, domain.GamesMatchmade)
	}
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	if req.Msg.Mastery {
		if err := p.LoadMastery(ctx); err != nil {
			return nil, toConnectError(ctx, err)
		}
	}
	return connect.NewResponse(&PlayerResponse{Player: playerView(p)}), nil
}

func (s *TrackerServer) LoadTeam(ctx context.Context, req *connect.Request[service.TeamPage]) (*connect.Response[LoadTeamResponse], error) {
	ctx, cancel := context.WithTimeout(ctx, constants.IngestTimeout)
	defer cancel()

	loaded, err := s.teams.Load(ctx, service.NewBatch(), *req.Msg)
	if loaded == nil {
		return nil, toConnectError(ctx, err)
	}
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int64("external_id", req.Msg.ExternalID).Msg("team loaded with failed members")
	}

	resp := &LoadTeamResponse{
		Team:    teamView(loaded.Team),
		Members: []Player{},
		History: loaded.History,
	}
	for _, p := range loaded.Team.Players() {
		resp.Members = append(resp.Members, playerView(p))
	}
	for _, p := range loaded.Left {
		resp.Left = append(resp.Left, p.ID())
	}
	for _, f := range loaded.Failed {
		resp.Failed = append(resp.Failed, FailedMember{
			ExternalID: f.ExternalID,
			Name:       f.Name,
			PlayerID:   f.PlayerID,
			Error:      f.Err.Error(),
		})
	}
	return connect.NewResponse(resp), nil
}

func toConnectError(ctx context.Context, err error) error {
	code := connect.CodeInternal
	switch {
	case errors.Is(err, service.ErrPlayerNotFound), errors.Is(err, service.ErrTeamNotFound), errors.Is(err, store.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, service.ErrNoIdentity):
		code = connect.CodeInvalidArgument
	case errors.Is(err, riot.ErrUpstreamUnavailable):
		code = connect.CodeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	}

	if code == connect.CodeInternal {
		zerolog.Ctx(ctx).Error().Err(err).Msg("request failed")
	}
	return connect.NewError(code, err)
}
