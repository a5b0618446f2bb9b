package riot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"
	"tracker/internal/config"
	"tracker/internal/constants"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

var errNotFound = errors.New("riot: not found")

type APIError struct {
	StatusCode int
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("riot API error: %d (%s)", e.StatusCode, e.URL)
}

type Client struct {
	apiKey      string
	regionURL   string
	platformURL string
	client      *fasthttp.Client
	limiter     *rate.Limiter
	logger      zerolog.Logger
	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	// "limit:window" pairs as sent by the API, e.g. "20:1,100:120"
	AppLimit      string `json:"app_limit"`
	AppCount      string `json:"app_count"`
	RetryAfterSec int    `json:"retry_after"`

	UpdatedAt time.Time `json:"updated_at"`
}

func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		apiKey:      cfg.RiotAPIKey,
		regionURL:   fmt.Sprintf("https://%s.api.riotgames.com", cfg.RiotRegion),
		platformURL: fmt.Sprintf("https://%s.api.riotgames.com", cfg.RiotPlatform),
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RiotRateLimit), cfg.RiotRateBurst),
		logger:  logger.With().Str("component", "riot").Logger(),
		rateLimit: RateLimitInfo{
			UpdatedAt: time.Now(),
		},
	}
}

func (c *Client) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *Client) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if limit := string(resp.Header.Peek("X-App-Rate-Limit")); limit != "" {
		c.rateLimit.AppLimit = limit
	}
	if count := string(resp.Header.Peek("X-App-Rate-Limit-Count")); count != "" {
		c.rateLimit.AppCount = count
	}
	c.rateLimit.RetryAfterSec = 0
	if retry := string(resp.Header.Peek("Retry-After")); retry != "" {
		if val, err := strconv.Atoi(retry); err == nil {
			c.rateLimit.RetryAfterSec = val
		}
	}
	c.rateLimit.UpdatedAt = time.Now()
}

func (c *Client) AccountByPUUID(ctx context.Context, puuid string) (*Account, error) {
	u := fmt.Sprintf("%s/riot/account/v1/accounts/by-puuid/%s", c.regionURL, url.PathEscape(puuid))
	return absent(doRequest[Account](ctx, c, u))
}

func (c *Client) AccountByIdentity(ctx context.Context, name, tag string) (*Account, error) {
	u := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s", c.regionURL, url.PathEscape(name), url.PathEscape(tag))
	return absent(doRequest[Account](ctx, c, u))
}

func (c *Client) SummonerByPUUID(ctx context.Context, puuid string) (*Summoner, error) {
	u := fmt.Sprintf("%s/lol/summoner/v4/summoners/by-puuid/%s", c.platformURL, url.PathEscape(puuid))
	return absent(doRequest[Summoner](ctx, c, u))
}

// SummonerByIdentity looks a summoner up by its bare name when no tag is
// known. With a tag the account endpoint is authoritative, so the summoner is
// read through the account's puuid.
func (c *Client) SummonerByIdentity(ctx context.Context, name string, tag *string) (*Summoner, error) {
	if tag != nil {
		acc, err := c.AccountByIdentity(ctx, name, *tag)
		if err != nil || acc == nil {
			return nil, err
		}
		return c.SummonerByPUUID(ctx, acc.PUUID)
	}
	u := fmt.Sprintf("%s/lol/summoner/v4/summoners/by-name/%s", c.platformURL, url.PathEscape(name))
	return absent(doRequest[Summoner](ctx, c, u))
}

func (c *Client) MatchIDs(ctx context.Context, puuid string, q MatchQuery) ([]string, error) {
	params := url.Values{}
	if q.Queue != QueueAny {
		params.Set("queue", strconv.Itoa(int(q.Queue)))
	}
	if q.Type != MatchTypeAny {
		params.Set("type", string(q.Type))
	}
	params.Set("start", strconv.Itoa(q.Start))
	params.Set("count", strconv.Itoa(MatchPageSize))
	if !q.StartTime.IsZero() {
		params.Set("startTime", strconv.FormatInt(q.StartTime.Unix(), 10))
	}
	if !q.EndTime.IsZero() {
		params.Set("endTime", strconv.FormatInt(q.EndTime.Unix(), 10))
	}

	u := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?%s", c.regionURL, url.PathEscape(puuid), params.Encode())
	ids, err := doRequest[[]string](ctx, c, u)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return *ids, nil
}

func (c *Client) Mastery(ctx context.Context, puuid string) ([]ChampionMastery, error) {
	u := fmt.Sprintf("%s/lol/champion-mastery/v4/champion-masteries/by-puuid/%s", c.platformURL, url.PathEscape(puuid))
	masteries, err := doRequest[[]ChampionMastery](ctx, c, u)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return *masteries, nil
}

func (c *Client) LeagueEntries(ctx context.Context, puuid string) ([]LeagueEntry, error) {
	u := fmt.Sprintf("%s/lol/league/v4/entries/by-puuid/%s", c.platformURL, url.PathEscape(puuid))
	entries, err := doRequest[[]LeagueEntry](ctx, c, u)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return *entries, nil
}

func absent[T any](v *T, err error) (*T, error) {
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	return v, err
}

func doRequest[T any](ctx context.Context, client *Client, url string) (*T, error) {
	if err := client.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("X-Riot-Token", client.apiKey)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.DoTimeout(req, resp, constants.ExternalAPITimeout); err != nil {
			return nil, err
		}
	}

	client.updateRateLimit(resp)

	switch resp.StatusCode() {
	case fasthttp.StatusOK:
	case fasthttp.StatusNotFound:
		client.logger.Debug().Str("url", url).Msg("resource not found")
		return nil, errNotFound
	default:
		client.logger.Warn().Int("status", resp.StatusCode()).Str("url", url).Msg("unexpected response")
		return nil, &APIError{StatusCode: resp.StatusCode(), URL: url}
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
