package riot

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"tracker/internal/constants"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.ConnMaxIdleTime = 5 * time.Minute

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), constants.ExternalAPITimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// CachedGameData keeps account and summoner lookups in redis. Only found
// records are cached; match ids, mastery and league entries always go to
// the wrapped source. Redis failures are logged and the lookup falls
// through.
type CachedGameData struct {
	GameData
	rdb    redis.Cmdable
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCachedGameData(next GameData, rdb redis.Cmdable, ttl time.Duration, logger zerolog.Logger) *CachedGameData {
	return &CachedGameData{
		GameData: next,
		rdb:      rdb,
		ttl:      ttl,
		logger:   logger.With().Str("component", "riot_cache").Logger(),
	}
}

func cacheKey(parts ...string) string {
	return constants.RedisKeyPrefix + strings.Join(parts, ":")
}

func (c *CachedGameData) AccountByPUUID(ctx context.Context, puuid string) (*Account, error) {
	return cached(ctx, c, cacheKey("account", "puuid", puuid), func(ctx context.Context) (*Account, error) {
		return c.GameData.AccountByPUUID(ctx, puuid)
	})
}

func (c *CachedGameData) AccountByIdentity(ctx context.Context, name, tag string) (*Account, error) {
	key := cacheKey("account", "riot-id", strings.ToLower(name), strings.ToLower(tag))
	return cached(ctx, c, key, func(ctx context.Context) (*Account, error) {
		return c.GameData.AccountByIdentity(ctx, name, tag)
	})
}

func (c *CachedGameData) SummonerByPUUID(ctx context.Context, puuid string) (*Summoner, error) {
	return cached(ctx, c, cacheKey("summoner", "puuid", puuid), func(ctx context.Context) (*Summoner, error) {
		return c.GameData.SummonerByPUUID(ctx, puuid)
	})
}

func (c *CachedGameData) SummonerByIdentity(ctx context.Context, name string, tag *string) (*Summoner, error) {
	if tag != nil {
		acc, err := c.AccountByIdentity(ctx, name, *tag)
		if err != nil || acc == nil {
			return nil, err
		}
		return c.SummonerByPUUID(ctx, acc.PUUID)
	}
	return cached(ctx, c, cacheKey("summoner", "name", strings.ToLower(name)), func(ctx context.Context) (*Summoner, error) {
		return c.GameData.SummonerByIdentity(ctx, name, nil)
	})
}

func cached[T any](ctx context.Context, c *CachedGameData, key string, fetch func(context.Context) (*T, error)) (*T, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			c.logger.Debug().Str("key", key).Msg("cache hit")
			return &v, nil
		}
		c.logger.Warn().Str("key", key).Msg("dropping undecodable cache entry")
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	v, err := fetch(ctx)
	if err != nil || v == nil {
		return v, err
	}

	data, err = json.Marshal(v)
	if err != nil {
		return v, nil
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return v, nil
}
