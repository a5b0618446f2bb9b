package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"tracker/internal/account"
	"tracker/internal/constants"
	"tracker/internal/domain"
	"tracker/internal/events"
	"tracker/internal/identity"
	"tracker/internal/store"

	"github.com/rs/zerolog"
)

var (
	ErrNoIdentity     = errors.New("player needs a puuid or a name")
	ErrPlayerNotFound = errors.New("player not found")
	ErrTeamNotFound   = errors.New("team not found")
)

// Outcome tells how FindOrCreate produced a player.
type Outcome int

const (
	Created Outcome = iota + 1
	Rehydrated
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Rehydrated:
		return "rehydrated"
	default:
		return "unknown"
	}
}

type PlayerService struct {
	deps   *domain.Deps
	logger zerolog.Logger
	now    func() time.Time
}

func NewPlayerService(deps *domain.Deps, logger zerolog.Logger) *PlayerService {
	return &PlayerService{
		deps:   deps,
		logger: logger.With().Str("component", "player_service").Logger(),
		now:    time.Now,
	}
}

// FindOrCreate returns the stored player with the given puuid, or inserts a
// new one. Without a puuid it is looked up through the account of id first.
// A rehydrated player keeps its stored relations and timestamps; a changed
// identity is written through, keeping the stored tag when id has none.
func (s *PlayerService) FindOrCreate(ctx context.Context, puuid string, id identity.Riot) (*domain.Player, Outcome, error) {
	return s.findOrCreate(ctx, 0, puuid, id, sameInstance)
}

// FindOrCreateMember is FindOrCreate for a league member, keyed by the
// member's id on the league website first. New players are stored with that
// id, so a member whose account cannot be resolved is found again on the
// next load instead of being inserted twice.
func (s *PlayerService) FindOrCreateMember(ctx context.Context, externalID int64, id identity.Riot) (*domain.Player, Outcome, error) {
	return s.findOrCreate(ctx, externalID, "", id, sameInstance)
}

// instanceFunc picks the instance that carries the mutations of a player id.
type instanceFunc func(*domain.Player) *domain.Player

func sameInstance(p *domain.Player) *domain.Player {
	return p
}

func (s *PlayerService) findOrCreate(ctx context.Context, externalID int64, puuid string, id identity.Riot, instance instanceFunc) (*domain.Player, Outcome, error) {
	if externalID != 0 {
		row, err := s.deps.Store.PlayerByColumn(ctx, store.ColExternalID, externalID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to look up member %d: %w", externalID, err)
		}
		if row != nil {
			p := instance(domain.NewPlayer(s.deps, domain.RecordFromRow(*row)))
			if err := s.rename(ctx, p, id); err != nil {
				return nil, 0, err
			}
			if err := s.attachAccount(ctx, p); err != nil {
				return nil, 0, err
			}
			s.logger.Debug().Int64("player_id", p.ID()).Int64("external_id", externalID).Msg("member rehydrated")
			return p, Rehydrated, nil
		}
	}

	if puuid == "" && id.IsZero() {
		return nil, 0, ErrNoIdentity
	}

	if puuid == "" {
		resolver := account.NewResolver(s.deps.Games, "", id, s.logger)
		resolved, err := resolver.PUUID(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to resolve puuid of %s: %w", id, err)
		}
		puuid = resolved
		id = resolver.KnownIdentity()
	}

	if puuid != "" {
		row, err := s.deps.Store.PlayerByColumn(ctx, store.ColPUUID, puuid)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to look up player %s: %w", puuid, err)
		}
		if row != nil {
			p := instance(domain.NewPlayer(s.deps, domain.RecordFromRow(*row)))
			if err := s.rename(ctx, p, id); err != nil {
				return nil, 0, err
			}
			if externalID != 0 {
				if err := p.SetExternalID(ctx, externalID); err != nil {
					return nil, 0, err
				}
			}
			s.logger.Debug().Int64("player_id", p.ID()).Str("puuid", puuid).Msg("player rehydrated")
			return p, Rehydrated, nil
		}
	}

	rec := domain.Record{
		Identity: id,
		Updated:  s.now().Add(-constants.NewPlayerBackfill),
		Played:   false,
	}
	if puuid != "" {
		rec.PUUID = &puuid
	}
	if externalID != 0 {
		rec.ExternalID = &externalID
	}

	newID, err := s.deps.Store.InsertPlayer(ctx, rec.Row())
	if err != nil {
		return nil, 0, err
	}
	rec.ID = newID
	p := instance(domain.NewPlayer(s.deps, rec))

	s.logger.Info().
		Int64("player_id", newID).
		Str("puuid", puuid).
		Str("identity", id.String()).
		Msg("player created")

	if err := s.deps.Bus.Publish(ctx, events.Event{Name: events.PlayerCreated, Payload: p}); err != nil {
		return nil, 0, err
	}
	return p, Created, nil
}

// rename writes id through p. An untagged id never clears a stored tag.
func (s *PlayerService) rename(ctx context.Context, p *domain.Player, id identity.Riot) error {
	if id.IsZero() {
		return nil
	}
	id = id.KeepTag(p.Identity())
	return p.SetIdentity(ctx, &id)
}

// attachAccount gives a player stored without a puuid its account once the
// account resolves. Upstream failures are logged and retried on the next
// lookup; the player itself was found.
func (s *PlayerService) attachAccount(ctx context.Context, p *domain.Player) error {
	if p.Record().PUUID != nil {
		return nil
	}

	logger := s.logger.With().Int64("player_id", p.ID()).Str("identity", p.Identity().String()).Logger()
	resolver := p.Resolver()
	puuid, err := resolver.PUUID(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("account lookup failed")
		return nil
	}
	if puuid == "" {
		return nil
	}

	owner, err := s.deps.Store.PlayerByColumn(ctx, store.ColPUUID, puuid)
	if err != nil {
		return fmt.Errorf("failed to look up player %s: %w", puuid, err)
	}
	if owner != nil && owner.ID != p.ID() {
		logger.Warn().Int64("owner_id", owner.ID).Str("puuid", puuid).Msg("account already belongs to another player")
		return nil
	}

	id := resolver.KnownIdentity().KeepTag(p.Identity())
	if err := p.SetPUUIDAndIdentity(ctx, puuid, id); err != nil {
		return err
	}
	logger.Info().Str("puuid", puuid).Msg("account attached")
	return nil
}

func (s *PlayerService) Get(ctx context.Context, id int64) (*domain.Player, error) {
	row, err := s.deps.Store.PlayerByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player %d: %w", id, err)
	}
	if row == nil {
		return nil, fmt.Errorf("%w: %d", ErrPlayerNotFound, id)
	}
	return domain.NewPlayer(s.deps, domain.RecordFromRow(*row)), nil
}

// SetTeam moves a player to the team with teamID, or out of any team when
// teamID is nil.
func (s *PlayerService) SetTeam(ctx context.Context, playerID int64, teamID *int64) (*domain.Player, error) {
	p, err := s.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}

	var team *domain.Team
	if teamID != nil {
		row, err := s.deps.Store.TeamByID(ctx, *teamID)
		if err != nil {
			return nil, fmt.Errorf("failed to get team %d: %w", *teamID, err)
		}
		if row == nil {
			return nil, fmt.Errorf("%w: %d", ErrTeamNotFound, *teamID)
		}
		team = domain.TeamFromRow(row)
	}

	if err := p.SetTeam(ctx, team); err != nil {
		return nil, err
	}
	return p, nil
}

// LinkAccount links a player to a chat account, creating the account record
// on first use.
func (s *PlayerService) LinkAccount(ctx context.Context, playerID int64, discordID, name string) (*domain.Player, error) {
	p, err := s.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}

	accountID, err := s.deps.Store.UpsertLinkedAccount(ctx, store.LinkedAccountRow{DiscordID: discordID, Name: name})
	if err != nil {
		return nil, err
	}

	acc := &domain.LinkedAccount{ID: accountID, DiscordID: discordID, Name: name}
	if err := p.SetLinkedAccount(ctx, acc); err != nil {
		return nil, err
	}
	return p, nil
}

// Subscribe reloads clash-plus games when a player is linked to an account,
// and when a player joins a roster team of an organized league.
func (s *PlayerService) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.PlayerLinkedAccountChanged, func(ctx context.Context, e events.Event) error {
		change, ok := e.Payload.(domain.LinkedAccountChange)
		if !ok {
			return nil
		}
		return change.Player.LoadGames(ctx, domain.GamesClashPlus)
	})

	bus.Subscribe(events.PlayerTeamChanged, func(ctx context.Context, e events.Event) error {
		change, ok := e.Payload.(domain.TeamChange)
		if !ok || !change.Team.InOrganizedLeague() {
			return nil
		}
		return change.Player.LoadGames(ctx, domain.GamesClashPlus)
	})
}
