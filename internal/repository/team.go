package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"tracker/internal/store"
)

const teamSelect = `
	SELECT t.id, t.external_id, t.name, t.abbreviation, t.kind, l.id, l.name, l.organized
	FROM team t LEFT JOIN league l ON l.id = t.league`

func (r *Repository) TeamByID(ctx context.Context, id int64) (*store.TeamRow, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(teamSelect+" WHERE t.id = ?"), id)
	team, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team %d: %w", id, err)
	}
	return team, nil
}

func (r *Repository) TeamByExternalID(ctx context.Context, externalID int64) (*store.TeamRow, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(teamSelect+" WHERE t.external_id = ?"), externalID)
	team, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team by external id %d: %w", externalID, err)
	}
	return team, nil
}

// UpsertTeam updates the team by id when set, by external id when that is
// already stored, and inserts it otherwise.
func (r *Repository) UpsertTeam(ctx context.Context, t store.TeamRow) (int64, error) {
	var league any
	if t.League != nil {
		league = t.League.ID
	}

	if t.ID != 0 {
		_, err := r.db.ExecContext(ctx, r.rebind(`
			UPDATE team SET external_id = ?, name = ?, abbreviation = ?, kind = ?, league = ?
			WHERE id = ?`),
			store.Nullable(t.ExternalID), t.Name, t.Abbreviation, t.Kind, league, t.ID)
		if err != nil {
			r.logger.Error().Err(err).Int64("id", t.ID).Msg("failed to update team")
			return 0, fmt.Errorf("failed to update team %d: %w", t.ID, err)
		}
		return t.ID, nil
	}

	var id int64
	err := r.db.QueryRowContext(ctx, r.rebind(`
		INSERT INTO team (external_id, name, abbreviation, kind, league)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (external_id) DO UPDATE SET
			name = excluded.name,
			abbreviation = excluded.abbreviation,
			kind = excluded.kind,
			league = excluded.league
		RETURNING id`),
		store.Nullable(t.ExternalID), t.Name, t.Abbreviation, t.Kind, league,
	).Scan(&id)
	if err != nil {
		r.logger.Error().Err(err).Str("name", t.Name).Msg("failed to upsert team")
		return 0, fmt.Errorf("failed to upsert team: %w", err)
	}

	r.logger.Debug().Int64("id", id).Str("name", t.Name).Msg("team upserted")
	return id, nil
}

func (r *Repository) UpsertLeague(ctx context.Context, l store.LeagueRow) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, r.rebind(`
		INSERT INTO league (name, organized) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET organized = excluded.organized
		RETURNING id`), l.Name, l.Organized).Scan(&id)
	if err != nil {
		r.logger.Error().Err(err).Str("name", l.Name).Msg("failed to upsert league")
		return 0, fmt.Errorf("failed to upsert league: %w", err)
	}
	return id, nil
}

func scanTeam(s scanner) (*store.TeamRow, error) {
	var (
		t          store.TeamRow
		externalID sql.NullInt64
		leagueID   sql.NullInt64
		leagueName sql.NullString
		organized  sql.NullBool
	)
	if err := s.Scan(&t.ID, &externalID, &t.Name, &t.Abbreviation, &t.Kind, &leagueID, &leagueName, &organized); err != nil {
		return nil, err
	}
	t.ExternalID = optInt64(externalID)
	if leagueID.Valid {
		t.League = &store.LeagueRow{
			ID:        leagueID.Int64,
			Name:      leagueName.String,
			Organized: organized.Bool,
		}
	}
	return &t, nil
}
