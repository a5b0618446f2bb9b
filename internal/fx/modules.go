package fx

import (
	"context"
	"tracker/internal/config"
	"tracker/internal/database"
	"tracker/internal/domain"
	"tracker/internal/events"
	"tracker/internal/ingest"
	"tracker/internal/logger"
	"tracker/internal/repository"
	"tracker/internal/riot"
	"tracker/internal/server"
	"tracker/internal/service"
	"tracker/internal/store"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// ProvideGameData returns the riot client, behind a redis cache when
// REDIS_URL is set.
func ProvideGameData(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (riot.GameData, error) {
	client := riot.NewClient(cfg, logger)
	if cfg.RedisURL == "" {
		return client, nil
	}

	rdb, err := riot.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return rdb.Close()
		},
	})
	logger.Info().Dur("ttl", cfg.RedisTTL).Msg("riot lookups cached in redis")
	return riot.NewCachedGameData(client, rdb, cfg.RedisTTL, logger), nil
}

// ProvideBus returns the in-process event bus, forwarding to NATS when
// NATS_URL is set.
func ProvideBus(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (*events.Bus, error) {
	bus := events.NewBus()
	if cfg.NATSURL == "" {
		return bus, nil
	}

	fwd, err := events.NewNATSForwarder(cfg.NATSURL, cfg.NATSSubject, logger)
	if err != nil {
		return nil, err
	}
	fwd.Attach(bus)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			fwd.Close()
			return nil
		},
	})
	return bus, nil
}

func ProvideDeps(st store.Persistence, games riot.GameData, loader domain.GameLoader, bus *events.Bus, logger zerolog.Logger) *domain.Deps {
	return &domain.Deps{Store: st, Games: games, Loader: loader, Bus: bus, Logger: logger}
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	// persistence
	fx.Provide(fx.Annotate(
		repository.NewRepository,
		fx.As(new(store.Persistence)),
		fx.As(new(ingest.Store)),
	)),
	// game data and events
	fx.Provide(ProvideGameData),
	fx.Provide(ProvideBus),
	fx.Provide(fx.Annotate(ingest.NewLoader, fx.As(new(domain.GameLoader)))),
	fx.Provide(ProvideDeps),
	// svc
	fx.Provide(service.NewPlayerService),
	fx.Provide(service.NewTeamService),
	fx.Invoke(func(players *service.PlayerService, bus *events.Bus) {
		players.Subscribe(bus)
	}),
	// server
	fx.Provide(server.NewTrackerServer),
)
