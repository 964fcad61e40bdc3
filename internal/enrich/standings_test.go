package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golazo/internal/config"
)

const standingsPayload = `{
	"competition": {"name": "Premier League"},
	"standings": [
		{"type": "HOME", "table": [
			{"position": 1, "team": {"name": "Everton"}, "playedGames": 10, "points": 30}
		]},
		{"type": "TOTAL", "table": [
			{"position": 1, "team": {"name": "Arsenal"}, "playedGames": 20, "points": 48},
			{"position": 2, "team": {"name": "Liverpool"}, "playedGames": 20, "points": 45},
			{"position": 3, "team": {"name": "Manchester City"}, "playedGames": 20, "points": 44},
			{"position": 4, "team": {"name": "Chelsea"}, "playedGames": 20, "points": 40},
			{"position": 5, "team": {"name": "Newcastle"}, "playedGames": 20, "points": 36},
			{"position": 6, "team": {"name": "Aston Villa"}, "playedGames": 20, "points": 35},
			{"position": 7, "team": {"name": "Tottenham"}, "playedGames": 20, "points": 33}
		]}
	]
}`

func newStandingsServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("X-Auth-Token") != "test-token" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(standingsPayload))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCompetitionTableFormatsTopSix(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := newStandingsServer(t, &calls)

	client := NewStandingsClient(config.StandingsConfig{
		BaseURL:     server.URL,
		Token:       "test-token",
		MinInterval: time.Millisecond,
	}, NewTTLCache(time.Minute), nil)

	got := client.CompetitionTable(context.Background(), "PL")
	want := "Clasament Premier League:\n" +
		"1. Arsenal - 48 puncte (20 meciuri)\n" +
		"2. Liverpool - 45 puncte (20 meciuri)\n" +
		"3. Manchester City - 44 puncte (20 meciuri)\n" +
		"4. Chelsea - 40 puncte (20 meciuri)\n" +
		"5. Newcastle - 36 puncte (20 meciuri)\n" +
		"6. Aston Villa - 35 puncte (20 meciuri)"
	if got != want {
		t.Fatalf("unexpected table:\n%s", got)
	}
}

func TestCompetitionTableUsesCache(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := newStandingsServer(t, &calls)

	client := NewStandingsClient(config.StandingsConfig{
		BaseURL:     server.URL,
		Token:       "test-token",
		MinInterval: time.Millisecond,
	}, NewTTLCache(time.Minute), nil)

	first := client.CompetitionTable(context.Background(), "PL")
	second := client.CompetitionTable(context.Background(), "PL")
	if first == "" || first != second {
		t.Fatalf("cached result differs: %q vs %q", first, second)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single upstream call, got %d", got)
	}
}

func TestCompetitionTableEmptyWithoutToken(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := newStandingsServer(t, &calls)

	client := NewStandingsClient(config.StandingsConfig{
		BaseURL:     server.URL,
		MinInterval: time.Millisecond,
	}, NewTTLCache(time.Minute), nil)

	if got := client.CompetitionTable(context.Background(), "PL"); got != "" {
		t.Fatalf("expected empty result without a token, got %q", got)
	}
	if calls.Load() != 0 {
		t.Fatalf("unexpected upstream call without a token")
	}
}

func TestCompetitionTableEmptyOnUpstreamError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client := NewStandingsClient(config.StandingsConfig{
		BaseURL:     server.URL,
		Token:       "test-token",
		MinInterval: time.Millisecond,
	}, NewTTLCache(time.Minute), nil)

	if got := client.CompetitionTable(context.Background(), "PL"); got != "" {
		t.Fatalf("expected empty result on upstream error, got %q", got)
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	t.Parallel()

	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cache := NewTTLCache(5 * time.Minute)
	cache.now = func() time.Time { return current }

	cache.Set("k", "v")
	if got, ok := cache.Get("k"); !ok || got != "v" {
		t.Fatalf("expected fresh entry, got %q ok=%v", got, ok)
	}

	current = current.Add(5*time.Minute + time.Second)
	if _, ok := cache.Get("k"); ok {
		t.Fatalf("expected entry to expire")
	}
}
