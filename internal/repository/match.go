package repository

import (
	"context"
	"fmt"
	"time"
	"tracker/internal/constants"
	"tracker/internal/riot"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// SavePlayerMatches records the match ids of a player under a game type and
// returns how many were new.
func (r *Repository) SavePlayerMatches(ctx context.Context, playerID int64, gameType string, matchIDs []string) (int, error) {
	if len(matchIDs) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, r.rebind(`
		INSERT INTO player_match (id, player, match_id, game_type, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (player, match_id) DO NOTHING`))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare match insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	inserted := 0
	for i := 0; i < len(matchIDs); i += constants.DBBatchSize {
		end := min(i+constants.DBBatchSize, len(matchIDs))

		for _, matchID := range matchIDs[i:end] {
			id, err := gonanoid.New()
			if err != nil {
				return 0, fmt.Errorf("failed to generate id: %w", err)
			}
			res, err := stmt.ExecContext(ctx, id, playerID, matchID, gameType, now)
			if err != nil {
				return 0, fmt.Errorf("failed to insert match %s: %w", matchID, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Debug().
		Int64("player", playerID).
		Str("game_type", gameType).
		Int("count", len(matchIDs)).
		Int("inserted", inserted).
		Msg("player matches saved")
	return inserted, nil
}

// PlayerMatchIDs lists the stored match ids of a player for a game type,
// newest first.
func (r *Repository) PlayerMatchIDs(ctx context.Context, playerID int64, gameType string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(`
		SELECT match_id FROM player_match
		WHERE player = ? AND game_type = ?
		ORDER BY match_id DESC`), playerID, gameType)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of player %d: %w", playerID, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan match id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) SaveMastery(ctx context.Context, playerID int64, masteries []riot.ChampionMastery) error {
	if len(masteries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, r.rebind(`
		INSERT INTO player_mastery (id, player, champion_id, champion_level, champion_points, last_play_time)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (player, champion_id) DO UPDATE SET
			champion_level = excluded.champion_level,
			champion_points = excluded.champion_points,
			last_play_time = excluded.last_play_time`))
	if err != nil {
		return fmt.Errorf("failed to prepare mastery upsert: %w", err)
	}
	defer stmt.Close()

	for _, m := range masteries {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate id: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, id, playerID, m.ChampionID, m.ChampionLevel, m.ChampionPoints, m.LastPlayTime); err != nil {
			return fmt.Errorf("failed to upsert mastery of champion %d: %w", m.ChampionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Debug().Int64("player", playerID).Int("count", len(masteries)).Msg("mastery saved")
	return nil
}
