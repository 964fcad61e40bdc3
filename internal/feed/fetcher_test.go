package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"testing"
	"time"

	"golazo/internal/domain"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Sport</title>
    <item>
      <title>Meciul de ieri</title>
      <link>https://example.com/a</link>
      <description>Rezumatul meciului.</description>
      <pubDate>Mon, 09 Mar 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Transfer nou</title>
      <link>https://example.com/b</link>
      <description>Detalii despre transfer.</description>
      <pubDate>Tue, 10 Mar 2026 10:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestFetchAllTolerantOfBadFeeds(t *testing.T) {
	t.Parallel()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rssFixture))
	}))
	defer good.Close()

	malformed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not xml at all"))
	}))
	defer malformed.Close()

	// closed before use: simulates an unreachable feed
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	fetcher := NewFetcher([]string{good.URL, deadURL, malformed.URL}, nil, nil)

	items, err := fetcher.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items from the healthy feed, got %d", len(items))
	}
}

func TestFetchAllSortsNewestFirst(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rssFixture))
	}))
	defer server.Close()

	fetcher := NewFetcher([]string{server.URL}, nil, nil)

	items, err := fetcher.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Title != "Transfer nou" {
		t.Fatalf("expected newest item first, got %q", items[0].Title)
	}
}

func TestStableSortIsIdempotent(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	items := []domain.FeedItem{
		{Title: "a", PubDate: base},
		{Title: "b", PubDate: base},
		{Title: "c", PubDate: base.Add(time.Hour)},
	}

	sortItems := func(in []domain.FeedItem) []domain.FeedItem {
		out := append([]domain.FeedItem(nil), in...)
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].PubDate.After(out[j].PubDate)
		})
		return out
	}

	once := sortItems(items)
	twice := sortItems(once)

	if once[0].Title != "c" || once[1].Title != "a" || once[2].Title != "b" {
		t.Fatalf("unexpected order after sort: %+v", once)
	}
	for i := range once {
		if once[i].Title != twice[i].Title {
			t.Fatalf("sort not idempotent at %d: %q vs %q", i, once[i].Title, twice[i].Title)
		}
	}
}

func TestCacheBustAddsParameter(t *testing.T) {
	t.Parallel()

	busted := cacheBust("https://example.com/rss?x=1")
	parsed, err := url.Parse(busted)
	if err != nil {
		t.Fatalf("parse busted url: %v", err)
	}
	if parsed.Query().Get("x") != "1" {
		t.Fatalf("existing query lost: %s", busted)
	}
	if parsed.Query().Get("_cb") == "" {
		t.Fatalf("cache buster missing: %s", busted)
	}
	if cacheBust("https://example.com/rss") == cacheBust("https://example.com/rss") {
		t.Fatalf("cache buster should differ between calls")
	}
}
