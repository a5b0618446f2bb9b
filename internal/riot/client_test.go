package riot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"tracker/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(&config.Config{
		RiotAPIKey:    "test-key",
		RiotPlatform:  "euw1",
		RiotRegion:    "europe",
		RiotRateLimit: 1000,
		RiotRateBurst: 1000,
	}, zerolog.Nop())
	c.regionURL = srv.URL
	c.platformURL = srv.URL
	return c
}

func TestClient_AccountByIdentity(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Riot-Token"))
		assert.Equal(t, "/riot/account/v1/accounts/by-riot-id/Caps/EUW", r.URL.Path)
		w.Header().Set("X-App-Rate-Limit", "20:1,100:120")
		w.Header().Set("X-App-Rate-Limit-Count", "1:1,1:120")
		w.Write([]byte(`{"puuid":"puuid-1","gameName":"Caps","tagLine":"EUW"}`))
	})

	acc, err := c.AccountByIdentity(context.Background(), "Caps", "EUW")
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, Account{PUUID: "puuid-1", GameName: "Caps", TagLine: "EUW"}, *acc)

	info := c.GetRateLimitInfo()
	assert.Equal(t, "20:1,100:120", info.AppLimit)
	assert.Equal(t, "1:1,1:120", info.AppCount)
}

func TestClient_NotFoundIsAbsent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	acc, err := c.AccountByPUUID(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, acc)

	s, err := c.SummonerByIdentity(context.Background(), "Nobody", nil)
	assert.NoError(t, err)
	assert.Nil(t, s)

	ids, err := c.MatchIDs(context.Background(), "missing", MatchQuery{})
	assert.NoError(t, err)
	assert.Nil(t, ids)
}

func TestClient_ErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.SummonerByPUUID(context.Background(), "puuid-1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, 7, c.GetRateLimitInfo().RetryAfterSec)
}

func TestClient_MatchIDsQuery(t *testing.T) {
	start := time.Unix(1700000000, 0)
	end := time.Unix(1700086400, 0)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lol/match/v5/matches/by-puuid/puuid-1/ids", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "700", q.Get("queue"))
		assert.Equal(t, "", q.Get("type"))
		assert.Equal(t, "100", q.Get("start"))
		assert.Equal(t, "100", q.Get("count"))
		assert.Equal(t, "1700000000", q.Get("startTime"))
		assert.Equal(t, "1700086400", q.Get("endTime"))
		w.Write([]byte(`["EUW1_1","EUW1_2"]`))
	})

	ids, err := c.MatchIDs(context.Background(), "puuid-1", MatchQuery{Queue: QueueClash, Start: 100, StartTime: start, EndTime: end})
	require.NoError(t, err)
	assert.Equal(t, []string{"EUW1_1", "EUW1_2"}, ids)
}

func TestClient_SummonerByIdentityWithTagGoesThroughAccount(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/riot/account/v1/accounts/by-riot-id/Caps/EUW":
			w.Write([]byte(`{"puuid":"puuid-1","gameName":"Caps","tagLine":"EUW"}`))
		case "/lol/summoner/v4/summoners/by-puuid/puuid-1":
			w.Write([]byte(`{"id":"summ-1","puuid":"puuid-1","summonerLevel":512}`))
		default:
			http.NotFound(w, r)
		}
	})

	tag := "EUW"
	s, err := c.SummonerByIdentity(context.Background(), "Caps", &tag)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "summ-1", s.ID)
	assert.Equal(t, int64(512), s.SummonerLevel)
	assert.Len(t, paths, 2)
}

func TestClient_LeagueEntries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lol/league/v4/entries/by-puuid/puuid-1", r.URL.Path)
		w.Write([]byte(`[{"queueType":"RANKED_SOLO_5x5","tier":"GOLD","rank":"II","leaguePoints":45,"wins":10,"losses":8}]`))
	})

	entries, err := c.LeagueEntries(context.Background(), "puuid-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, RankedSoloQueue, entries[0].QueueType)
	assert.Equal(t, 45, entries[0].LeaguePoints)
}
