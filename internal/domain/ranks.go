package domain

import (
	"context"
	"fmt"
	"tracker/internal/lazy"
)

type Rank struct {
	Season       string
	Tier         string
	Division     string
	LeaguePoints int
	Wins         int
	Losses       int
}

func (r Rank) String() string {
	if r.Tier == "" {
		return "Unranked"
	}
	if r.Division == "" {
		return fmt.Sprintf("%s %d LP", r.Tier, r.LeaguePoints)
	}
	return fmt.Sprintf("%s %s %d LP", r.Tier, r.Division, r.LeaguePoints)
}

// RankHandle loads the stored ranks of a player once, newest season first.
type RankHandle struct {
	player *Player
	ranks  lazy.Value[[]Rank]
}

func newRankHandle(p *Player) *RankHandle {
	return &RankHandle{player: p}
}

func (h *RankHandle) All(ctx context.Context) ([]Rank, error) {
	ranks, err := h.ranks.GetOrResolve(ctx, func(ctx context.Context) (*[]Rank, error) {
		rows, err := h.player.deps.Store.PlayerRanks(ctx, h.player.ID())
		if err != nil {
			return nil, fmt.Errorf("failed to load ranks of player %d: %w", h.player.ID(), err)
		}
		ranks := make([]Rank, len(rows))
		for i, row := range rows {
			ranks[i] = Rank{
				Season:       row.Season,
				Tier:         row.Tier,
				Division:     row.Division,
				LeaguePoints: row.LeaguePoints,
				Wins:         row.Wins,
				Losses:       row.Losses,
			}
		}
		return &ranks, nil
	})
	if err != nil || ranks == nil {
		return nil, err
	}
	return *ranks, nil
}

func (h *RankHandle) Current(ctx context.Context) (*Rank, error) {
	ranks, err := h.All(ctx)
	if err != nil || len(ranks) == 0 {
		return nil, err
	}
	return &ranks[0], nil
}

// Cached returns the current rank if the ranks were loaded already.
func (h *RankHandle) Cached() *Rank {
	ranks := h.ranks.Peek()
	if ranks == nil || len(*ranks) == 0 {
		return nil
	}
	return &(*ranks)[0]
}
