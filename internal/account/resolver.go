package account

import (
	"context"
	"fmt"
	"time"
	"tracker/internal/identity"
	"tracker/internal/lazy"
	"tracker/internal/riot"

	"github.com/rs/zerolog"
)

// Resolver resolves the account and summoner records behind one game
// account from whatever is known about it: puuid first, tagged identity
// second, bare name last. Resolved records, including "not found", are kept
// for the resolver's lifetime. Not safe for concurrent use.
type Resolver struct {
	games    riot.GameData
	puuid    string
	identity identity.Riot
	account  lazy.Value[riot.Account]
	summoner lazy.Value[riot.Summoner]
	logger   zerolog.Logger
}

func NewResolver(games riot.GameData, puuid string, id identity.Riot, logger zerolog.Logger) *Resolver {
	return &Resolver{
		games:    games,
		puuid:    puuid,
		identity: id,
		logger:   logger,
	}
}

// KnownPUUID returns the puuid without resolving; "" when unknown.
func (r *Resolver) KnownPUUID() string {
	return r.puuid
}

func (r *Resolver) KnownIdentity() identity.Riot {
	return r.identity
}

// Account returns nil without error when the source has no such account.
func (r *Resolver) Account(ctx context.Context) (*riot.Account, error) {
	return r.account.GetOrResolve(ctx, r.fetchAccount)
}

func (r *Resolver) fetchAccount(ctx context.Context) (*riot.Account, error) {
	var (
		acc *riot.Account
		err error
	)
	switch {
	case r.puuid != "":
		acc, err = r.games.AccountByPUUID(ctx, r.puuid)
	case !r.identity.HasTag():
		if _, err := r.Summoner(ctx); err != nil {
			return nil, err
		}
		if r.puuid == "" {
			return nil, nil
		}
		acc, err = r.games.AccountByPUUID(ctx, r.puuid)
	default:
		acc, err = r.games.AccountByIdentity(ctx, r.identity.Name, *r.identity.Tag)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account of %s: %w", r.identity, err)
	}
	if acc == nil {
		return nil, nil
	}

	r.identity = identity.New(acc.GameName, acc.TagLine)
	if r.puuid == "" {
		r.puuid = acc.PUUID
	}
	return acc, nil
}

// Summoner returns nil without error when the source has no such summoner.
func (r *Resolver) Summoner(ctx context.Context) (*riot.Summoner, error) {
	return r.summoner.GetOrResolve(ctx, r.fetchSummoner)
}

func (r *Resolver) fetchSummoner(ctx context.Context) (*riot.Summoner, error) {
	var (
		s   *riot.Summoner
		err error
	)
	switch {
	case r.puuid != "":
		s, err = r.games.SummonerByPUUID(ctx, r.puuid)
	case r.identity.HasTag():
		if _, err := r.Account(ctx); err != nil {
			return nil, err
		}
		if r.puuid == "" {
			return nil, nil
		}
		s, err = r.games.SummonerByPUUID(ctx, r.puuid)
	default:
		// bare names are ambiguous, best effort
		s, err = r.games.SummonerByIdentity(ctx, r.identity.Name, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch summoner of %s: %w", r.identity, err)
	}
	if s != nil && r.puuid == "" {
		r.puuid = s.PUUID
	}
	return s, nil
}

func (r *Resolver) PUUID(ctx context.Context) (string, error) {
	if r.puuid != "" {
		return r.puuid, nil
	}
	acc, err := r.Account(ctx)
	if err != nil {
		return "", err
	}
	if acc != nil {
		return r.puuid, nil
	}
	if _, err := r.Summoner(ctx); err != nil {
		return "", err
	}
	return r.puuid, nil
}

// Identity returns the full name and tag. When the tag is not known yet it
// is completed from the account; nil means the account does not exist.
func (r *Resolver) Identity(ctx context.Context) (*identity.Riot, error) {
	if r.identity.Name != "" && r.identity.HasTag() {
		id := r.identity
		return &id, nil
	}
	acc, err := r.Account(ctx)
	if err != nil || acc == nil {
		return nil, err
	}
	id := r.identity
	return &id, nil
}

// UpdateIdentity refreshes the identity from the account. An unresolvable
// account is only logged; the identity stays as it was.
func (r *Resolver) UpdateIdentity(ctx context.Context) (identity.Riot, error) {
	acc, err := r.Account(ctx)
	if err != nil {
		return r.identity, err
	}
	if acc == nil {
		r.logger.Warn().Str("identity", r.identity.String()).Msg("could not load account")
		return r.identity, nil
	}
	r.identity = identity.New(acc.GameName, acc.TagLine)
	return r.identity, nil
}

func (r *Resolver) SummonerID(ctx context.Context) (string, error) {
	s, err := r.Summoner(ctx)
	if err != nil || s == nil {
		return "", err
	}
	return s.ID, nil
}

// Exists may query the source the first time; later calls are served from
// the cached records.
func (r *Resolver) Exists(ctx context.Context) (bool, error) {
	acc, err := r.Account(ctx)
	if err != nil {
		return false, err
	}
	if acc != nil {
		return true, nil
	}
	s, err := r.Summoner(ctx)
	if err != nil {
		return false, err
	}
	return s != nil, nil
}

func (r *Resolver) Mastery(ctx context.Context) ([]riot.ChampionMastery, error) {
	s, err := r.Summoner(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return []riot.ChampionMastery{}, nil
	}
	return r.games.Mastery(ctx, s.PUUID)
}

func (r *Resolver) MatchIDs(ctx context.Context, q riot.MatchQuery) ([]string, error) {
	s, err := r.Summoner(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		r.logger.Warn().Str("identity", r.identity.String()).Msg("cannot load summoner")
		return nil, fmt.Errorf("cannot load summoner of %s: %w", r.identity, riot.ErrUpstreamUnavailable)
	}
	if q.EndTime.IsZero() {
		q.EndTime = time.Now()
	}
	return r.games.MatchIDs(ctx, s.PUUID, q)
}
