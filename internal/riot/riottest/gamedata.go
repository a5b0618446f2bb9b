package riottest

import (
	"context"
	"tracker/internal/riot"

	"github.com/stretchr/testify/mock"
)

// MockGameData is a mock implementation of riot.GameData
type MockGameData struct {
	mock.Mock
}

func (m *MockGameData) AccountByPUUID(ctx context.Context, puuid string) (*riot.Account, error) {
	args := m.Called(ctx, puuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*riot.Account), args.Error(1)
}

func (m *MockGameData) AccountByIdentity(ctx context.Context, name, tag string) (*riot.Account, error) {
	args := m.Called(ctx, name, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*riot.Account), args.Error(1)
}

func (m *MockGameData) SummonerByPUUID(ctx context.Context, puuid string) (*riot.Summoner, error) {
	args := m.Called(ctx, puuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*riot.Summoner), args.Error(1)
}

func (m *MockGameData) SummonerByIdentity(ctx context.Context, name string, tag *string) (*riot.Summoner, error) {
	args := m.Called(ctx, name, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*riot.Summoner), args.Error(1)
}

func (m *MockGameData) MatchIDs(ctx context.Context, puuid string, q riot.MatchQuery) ([]string, error) {
	args := m.Called(ctx, puuid, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockGameData) Mastery(ctx context.Context, puuid string) ([]riot.ChampionMastery, error) {
	args := m.Called(ctx, puuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]riot.ChampionMastery), args.Error(1)
}

func (m *MockGameData) LeagueEntries(ctx context.Context, puuid string) ([]riot.LeagueEntry, error) {
	args := m.Called(ctx, puuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]riot.LeagueEntry), args.Error(1)
}
