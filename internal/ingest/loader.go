package ingest

import (
	"context"
	"fmt"
	"strconv"
	"time"
	"tracker/internal/constants"
	"tracker/internal/domain"
	"tracker/internal/riot"
	"tracker/internal/store"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Store is where ingested game data ends up.
type Store interface {
	SavePlayerMatches(ctx context.Context, playerID int64, gameType string, matchIDs []string) (int, error)
	SaveMastery(ctx context.Context, playerID int64, masteries []riot.ChampionMastery) error
	UpsertRank(ctx context.Context, playerID int64, rank store.RankRow) error
}

// Loader pulls match ids, ranks and mastery for players from the game-data
// source.
type Loader struct {
	games  riot.GameData
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

var _ domain.GameLoader = (*Loader)(nil)

func NewLoader(games riot.GameData, st Store, logger zerolog.Logger) *Loader {
	return &Loader{
		games:  games,
		store:  st,
		logger: logger.With().Str("component", "ingest").Logger(),
		now:    time.Now,
	}
}

// queries lists the match searches run for a game type.
func queries(kind domain.GameType) []riot.MatchQuery {
	if kind == domain.GamesClashPlus {
		return []riot.MatchQuery{
			{Queue: riot.QueueClash},
			{Type: riot.MatchTypeTourney},
		}
	}
	return []riot.MatchQuery{
		{Type: riot.MatchTypeRanked},
		{Queue: riot.QueueNormalDraft},
	}
}

// LoadGames stores the match ids of p since its last matchmade load. A
// forced load re-reads the last ForcedLoadWindow instead. Clash-plus loads
// always read ForcedLoadWindow and mark the player as played when anything
// turned up.
func (l *Loader) LoadGames(ctx context.Context, p *domain.Player, kind domain.GameType, force bool) error {
	ctx, cancel := context.WithTimeout(ctx, constants.IngestTimeout)
	defer cancel()

	summoner, err := p.Resolver().Summoner(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve summoner of player %d: %w", p.ID(), err)
	}
	if summoner == nil {
		return fmt.Errorf("player %d has no summoner: %w", p.ID(), riot.ErrUpstreamUnavailable)
	}

	now := l.now()
	since := p.Updated()
	if force || kind == domain.GamesClashPlus {
		since = now.Add(-constants.ForcedLoadWindow)
	}

	logger := l.logger.With().
		Int64("player_id", p.ID()).
		Str("game_type", kind.String()).
		Bool("force", force).
		Logger()
	logger.Info().Time("since", since).Msg("loading games")

	searches := queries(kind)
	results := make([][]string, len(searches))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range searches {
		q.StartTime = since
		q.EndTime = now
		g.Go(func() error {
			ids, err := l.collect(gctx, summoner.PUUID, q)
			if err != nil {
				return err
			}
			results[i] = ids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("failed to fetch match ids")
		return fmt.Errorf("failed to fetch match ids of player %d: %w", p.ID(), err)
	}

	matchIDs := merge(results)
	inserted, err := l.store.SavePlayerMatches(ctx, p.ID(), kind.String(), matchIDs)
	if err != nil {
		return err
	}

	switch kind {
	case domain.GamesClashPlus:
		if len(matchIDs) > 0 {
			if err := p.SetPlayed(ctx, true); err != nil {
				return err
			}
		}
	default:
		if err := l.refreshRank(ctx, p, summoner.PUUID, now); err != nil {
			return err
		}
		if err := p.SetUpdated(ctx, now); err != nil {
			return err
		}
	}

	logger.Info().
		Int("found", len(matchIDs)).
		Int("inserted", inserted).
		Msg("games loaded")
	return nil
}

func (l *Loader) LoadMastery(ctx context.Context, p *domain.Player) error {
	ctx, cancel := context.WithTimeout(ctx, constants.IngestTimeout)
	defer cancel()

	masteries, err := p.Resolver().Mastery(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch mastery of player %d: %w", p.ID(), err)
	}
	if err := l.store.SaveMastery(ctx, p.ID(), masteries); err != nil {
		return err
	}

	l.logger.Debug().Int64("player_id", p.ID()).Int("count", len(masteries)).Msg("mastery loaded")
	return nil
}

// collect pages through one match search.
func (l *Loader) collect(ctx context.Context, puuid string, q riot.MatchQuery) ([]string, error) {
	var all []string
	for {
		page, err := l.games.MatchIDs(ctx, puuid, q)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < riot.MatchPageSize {
			return all, nil
		}
		q.Start += riot.MatchPageSize
	}
}

func (l *Loader) refreshRank(ctx context.Context, p *domain.Player, puuid string, now time.Time) error {
	entries, err := l.games.LeagueEntries(ctx, puuid)
	if err != nil {
		return fmt.Errorf("failed to fetch league entries of player %d: %w", p.ID(), err)
	}

	for _, e := range entries {
		if e.QueueType != riot.RankedSoloQueue {
			continue
		}
		return l.store.UpsertRank(ctx, p.ID(), store.RankRow{
			Season:       strconv.Itoa(now.Year()),
			Tier:         e.Tier,
			Division:     e.Rank,
			LeaguePoints: e.LeaguePoints,
			Wins:         e.Wins,
			Losses:       e.Losses,
		})
	}
	return nil
}

// merge joins match id lists keeping the first occurrence of each id.
func merge(lists [][]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, ids := range lists {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
