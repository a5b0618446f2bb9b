package storetest

import (
	"context"
	"tracker/internal/store"

	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of store.Persistence
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) PlayerByID(ctx context.Context, id int64) (*store.PlayerRow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.PlayerRow), args.Error(1)
}

func (m *MockPersistence) PlayerByColumn(ctx context.Context, col store.Column, value any) (*store.PlayerRow, error) {
	args := m.Called(ctx, col, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.PlayerRow), args.Error(1)
}

func (m *MockPersistence) InsertPlayer(ctx context.Context, row store.PlayerRow) (int64, error) {
	args := m.Called(ctx, row)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPersistence) TeamByID(ctx context.Context, id int64) (*store.TeamRow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.TeamRow), args.Error(1)
}

func (m *MockPersistence) TeamByExternalID(ctx context.Context, externalID int64) (*store.TeamRow, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.TeamRow), args.Error(1)
}

func (m *MockPersistence) TeamMembers(ctx context.Context, teamID int64) ([]store.PlayerRow, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.PlayerRow), args.Error(1)
}

func (m *MockPersistence) UpsertTeam(ctx context.Context, row store.TeamRow) (int64, error) {
	args := m.Called(ctx, row)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPersistence) UpsertLeague(ctx context.Context, row store.LeagueRow) (int64, error) {
	args := m.Called(ctx, row)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPersistence) UpsertLinkedAccount(ctx context.Context, row store.LinkedAccountRow) (int64, error) {
	args := m.Called(ctx, row)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPersistence) LinkedAccountByID(ctx context.Context, id int64) (*store.LinkedAccountRow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.LinkedAccountRow), args.Error(1)
}

func (m *MockPersistence) PlayerRanks(ctx context.Context, playerID int64) ([]store.RankRow, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.RankRow), args.Error(1)
}

func (m *MockPersistence) UpdateColumns(ctx context.Context, table store.Table, id int64, cols store.Columns) error {
	args := m.Called(ctx, table, id, cols)
	return args.Error(0)
}
