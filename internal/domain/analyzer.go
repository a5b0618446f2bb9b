package domain

import (
	"context"
	"time"
	"tracker/internal/lazy"
	"tracker/internal/riot"
)

type ScoutingGameType int

const (
	ScoutingMatchmade ScoutingGameType = iota
	ScoutingCompetitive
)

const DefaultScoutingDays = 180

// Analyzer collects the games of a player inside a scouting window.
type Analyzer struct {
	player   *Player
	kind     ScoutingGameType
	days     int
	matchIDs lazy.Value[[]string]
}

func newAnalyzer(p *Player, kind ScoutingGameType, days int) *Analyzer {
	return &Analyzer{player: p, kind: kind, days: days}
}

func (a *Analyzer) Kind() ScoutingGameType {
	return a.kind
}

func (a *Analyzer) Days() int {
	return a.days
}

func (a *Analyzer) Window(now time.Time) (time.Time, time.Time) {
	return now.AddDate(0, 0, -a.days), now
}

func (a *Analyzer) query(now time.Time) riot.MatchQuery {
	start, end := a.Window(now)
	q := riot.MatchQuery{StartTime: start, EndTime: end}
	switch a.kind {
	case ScoutingCompetitive:
		q.Queue = riot.QueueClash
	default:
		q.Type = riot.MatchTypeRanked
	}
	return q
}

// MatchIDs pages through all match ids of the window. The result is kept
// for the analyzer's lifetime.
func (a *Analyzer) MatchIDs(ctx context.Context) ([]string, error) {
	ids, err := a.matchIDs.GetOrResolve(ctx, func(ctx context.Context) (*[]string, error) {
		q := a.query(time.Now())
		var all []string
		for {
			page, err := a.player.MatchIDs(ctx, q)
			if err != nil {
				return nil, err
			}
			all = append(all, page...)
			if len(page) < riot.MatchPageSize {
				break
			}
			q.Start += len(page)
		}
		return &all, nil
	})
	if err != nil || ids == nil {
		return nil, err
	}
	return *ids, nil
}
