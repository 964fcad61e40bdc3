package feed

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"golazo/internal/domain"
	"golazo/internal/ports"
)

// Fetcher pulls every configured feed in parallel and flattens the items.
// One bad feed never fails the batch: it just contributes nothing.
type Fetcher struct {
	urls   []string
	parser *gofeed.Parser
	client *http.Client
	logger *slog.Logger
}

var _ ports.FeedSource = (*Fetcher)(nil)

// NewFetcher wires the feed URL list; client defaults to a 30s timeout.
func NewFetcher(urls []string, client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{
		urls:   urls,
		parser: gofeed.NewParser(),
		client: client,
		logger: logger,
	}
}

type fetchResult struct {
	index int
	items []domain.FeedItem
}

// FetchAll retrieves and parses all feeds concurrently. Output preserves
// feed order for equal publish times: items are concatenated in input
// order and then stable-sorted by PubDate descending.
func (f *Fetcher) FetchAll(ctx context.Context) ([]domain.FeedItem, error) {
	results := make(chan fetchResult, len(f.urls))
	var wg sync.WaitGroup

	for i, feedURL := range f.urls {
		wg.Add(1)
		go func(index int, feedURL string) {
			defer wg.Done()
			items, err := f.fetchOne(ctx, feedURL)
			if err != nil {
				f.warn("feed failed", "url", feedURL, "error", err)
				items = nil
			}
			results <- fetchResult{index: index, items: items}
		}(i, feedURL)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	perFeed := make([][]domain.FeedItem, len(f.urls))
	for res := range results {
		perFeed[res.index] = res.items
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []domain.FeedItem
	for _, items := range perFeed {
		all = append(all, items...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PubDate.After(all[j].PubDate)
	})

	f.debug("fetch done", "feeds", len(f.urls), "items", len(all))
	return all, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, feedURL string) ([]domain.FeedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cacheBust(feedURL), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "golazo/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &url.Error{Op: "Get", URL: feedURL, Err: errStatus(resp.Status)}
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, err
	}

	items := make([]domain.FeedItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Title == "" || item.Link == "" {
			continue
		}
		items = append(items, normalize(item))
	}
	return items, nil
}

// cacheBust appends a throwaway query parameter so intermediary caches
// never serve a stale document.
func cacheBust(feedURL string) string {
	parsed, err := url.Parse(feedURL)
	if err != nil {
		return feedURL
	}
	q := parsed.Query()
	q.Set("_cb", uuid.NewString())
	parsed.RawQuery = q.Encode()
	return parsed.String()
}

func normalize(item *gofeed.Item) domain.FeedItem {
	content := item.Description
	if item.Content != "" {
		content = item.Content
	}

	pubDate := time.Now()
	if item.PublishedParsed != nil {
		pubDate = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		pubDate = *item.UpdatedParsed
	}

	imageURL := ""
	if item.Image != nil {
		imageURL = item.Image.URL
	} else {
		for _, enc := range item.Enclosures {
			if len(enc.Type) >= 6 && enc.Type[:6] == "image/" {
				imageURL = enc.URL
				break
			}
		}
	}

	return domain.FeedItem{
		Title:     item.Title,
		Content:   content,
		SourceURL: item.Link,
		ImageURL:  imageURL,
		PubDate:   pubDate,
	}
}

type errStatus string

func (e errStatus) Error() string { return "unexpected status " + string(e) }

func (f *Fetcher) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}

func (f *Fetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
