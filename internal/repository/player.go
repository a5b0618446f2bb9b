package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"tracker/internal/store"
)

const playerColumns = "id, lol_puuid, external_id, lol_summoner, lol_name, lol_tag, linked_account, team, updated, played"

// lookupColumns are the player columns PlayerByColumn may filter on.
var lookupColumns = map[store.Column]bool{
	store.ColPUUID:      true,
	store.ColSummonerID: true,
	store.ColName:       true,
	store.ColExternalID: true,
}

func (r *Repository) PlayerByID(ctx context.Context, id int64) (*store.PlayerRow, error) {
	row := r.db.QueryRowContext(ctx, r.rebind("SELECT "+playerColumns+" FROM player WHERE id = ?"), id)
	return r.scanOnePlayer(row, "id", id)
}

func (r *Repository) PlayerByColumn(ctx context.Context, col store.Column, value any) (*store.PlayerRow, error) {
	if !lookupColumns[col] {
		return nil, fmt.Errorf("%w: player.%s", store.ErrUnknownColumn, col)
	}
	query := fmt.Sprintf("SELECT %s FROM player WHERE %s = ? ORDER BY id LIMIT 1", playerColumns, col)
	row := r.db.QueryRowContext(ctx, r.rebind(query), value)
	return r.scanOnePlayer(row, string(col), value)
}

func (r *Repository) InsertPlayer(ctx context.Context, p store.PlayerRow) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, r.rebind(`
		INSERT INTO player (lol_puuid, external_id, lol_summoner, lol_name, lol_tag, linked_account, team, updated, played)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		store.Nullable(p.PUUID),
		store.Nullable(p.ExternalID),
		store.Nullable(p.SummonerID),
		p.Name,
		store.Nullable(p.Tag),
		store.Nullable(p.LinkedAccountID),
		store.Nullable(p.TeamID),
		p.Updated.UTC(),
		p.Played,
	).Scan(&id)
	if err != nil {
		r.logger.Error().Err(err).Str("name", p.Name).Msg("failed to insert player")
		return 0, fmt.Errorf("failed to insert player: %w", err)
	}

	r.logger.Debug().Int64("id", id).Str("name", p.Name).Msg("player inserted")
	return id, nil
}

func (r *Repository) TeamMembers(ctx context.Context, teamID int64) ([]store.PlayerRow, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind("SELECT "+playerColumns+" FROM player WHERE team = ? ORDER BY id"), teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %d: %w", teamID, err)
	}
	defer rows.Close()

	members := []store.PlayerRow{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member of team %d: %w", teamID, err)
		}
		members = append(members, *p)
	}
	return members, rows.Err()
}

func (r *Repository) PlayerRanks(ctx context.Context, playerID int64) ([]store.RankRow, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(`
		SELECT season, tier, division, league_points, wins, losses
		FROM player_rank WHERE player = ? ORDER BY season DESC`), playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ranks of player %d: %w", playerID, err)
	}
	defer rows.Close()

	ranks := []store.RankRow{}
	for rows.Next() {
		var rk store.RankRow
		if err := rows.Scan(&rk.Season, &rk.Tier, &rk.Division, &rk.LeaguePoints, &rk.Wins, &rk.Losses); err != nil {
			return nil, fmt.Errorf("failed to scan rank: %w", err)
		}
		ranks = append(ranks, rk)
	}
	return ranks, rows.Err()
}

// UpsertRank stores the rank of a player for one season.
func (r *Repository) UpsertRank(ctx context.Context, playerID int64, rk store.RankRow) error {
	_, err := r.db.ExecContext(ctx, r.rebind(`
		INSERT INTO player_rank (player, season, tier, division, league_points, wins, losses)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (player, season) DO UPDATE SET
			tier = excluded.tier,
			division = excluded.division,
			league_points = excluded.league_points,
			wins = excluded.wins,
			losses = excluded.losses`),
		playerID, rk.Season, rk.Tier, rk.Division, rk.LeaguePoints, rk.Wins, rk.Losses)
	if err != nil {
		r.logger.Error().Err(err).Int64("player", playerID).Str("season", rk.Season).Msg("failed to upsert rank")
		return fmt.Errorf("failed to upsert rank: %w", err)
	}
	return nil
}

func (r *Repository) scanOnePlayer(row *sql.Row, key string, value any) (*store.PlayerRow, error) {
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Debug().Str("by", key).Interface("value", value).Msg("player not found")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player by %s: %w", key, err)
	}
	return p, nil
}

func scanPlayer(s scanner) (*store.PlayerRow, error) {
	var (
		p             store.PlayerRow
		puuid         sql.NullString
		externalID    sql.NullInt64
		summoner      sql.NullString
		tag           sql.NullString
		linkedAccount sql.NullInt64
		team          sql.NullInt64
	)
	if err := s.Scan(&p.ID, &puuid, &externalID, &summoner, &p.Name, &tag, &linkedAccount, &team, &p.Updated, &p.Played); err != nil {
		return nil, err
	}
	p.PUUID = optString(puuid)
	p.ExternalID = optInt64(externalID)
	p.SummonerID = optString(summoner)
	p.Tag = optString(tag)
	p.LinkedAccountID = optInt64(linkedAccount)
	p.TeamID = optInt64(team)
	return &p, nil
}
