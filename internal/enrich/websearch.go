package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"golazo/internal/config"
)

// Placeholder returned when every provider in the chain fails. Prompt
// construction downstream must always receive some text.
const searchUnavailable = "Nu am găsit rezultate de căutare recente pentru acest subiect."

// searchProvider is one tier of the fallback chain.
type searchProvider interface {
	name() string
	search(ctx context.Context, query string) (string, error)
}

// SearchChain runs providers in order until one returns usable text.
// It never surfaces an error: total failure degrades to a filler blurb.
type SearchChain struct {
	providers []searchProvider
	logger    *slog.Logger
}

// NewSearchChain assembles the provider tiers from configuration.
// Unconfigured providers are skipped; Wikipedia needs no credentials and
// always participates as the free tier.
func NewSearchChain(cfg config.SearchConfig, client *http.Client, logger *slog.Logger) *SearchChain {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	var providers []searchProvider
	if cfg.GoogleAPIKey != "" && cfg.GoogleEngineID != "" {
		providers = append(providers, &googleProvider{
			apiKey:   cfg.GoogleAPIKey,
			engineID: cfg.GoogleEngineID,
			http:     client,
		})
	}
	if cfg.SerpAPIKey != "" {
		providers = append(providers, &serpProvider{apiKey: cfg.SerpAPIKey, http: client})
	}
	providers = append(providers, &wikipediaProvider{http: client})

	return &SearchChain{providers: providers, logger: logger}
}

// Search returns a formatted context blob for query.
func (c *SearchChain) Search(ctx context.Context, query string) string {
	for _, provider := range c.providers {
		text, err := provider.search(ctx, query)
		if err != nil {
			c.warn("search provider failed", "provider", provider.name(), "error", err)
			continue
		}
		if strings.TrimSpace(text) != "" {
			return text
		}
	}
	return searchUnavailable
}

func (c *SearchChain) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

// googleProvider queries the Google Custom Search JSON API.
type googleProvider struct {
	apiKey   string
	engineID string
	endpoint string
	http     *http.Client
}

func (g *googleProvider) name() string { return "google-cse" }

func (g *googleProvider) search(ctx context.Context, query string) (string, error) {
	endpoint := g.endpoint
	if endpoint == "" {
		endpoint = "https://www.googleapis.com/customsearch/v1"
	}

	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("cx", g.engineID)
	params.Set("q", query)
	params.Set("num", "5")

	var payload struct {
		Items []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			Link    string `json:"link"`
		} `json:"items"`
	}
	if err := getJSON(ctx, g.http, endpoint+"?"+params.Encode(), &payload); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, item := range payload.Items {
		fmt.Fprintf(&sb, "- %s: %s (%s)\n", item.Title, item.Snippet, item.Link)
	}
	return sb.String(), nil
}

// serpProvider queries SerpAPI's Google engine.
type serpProvider struct {
	apiKey   string
	endpoint string
	http     *http.Client
}

func (s *serpProvider) name() string { return "serpapi" }

func (s *serpProvider) search(ctx context.Context, query string) (string, error) {
	endpoint := s.endpoint
	if endpoint == "" {
		endpoint = "https://serpapi.com/search.json"
	}

	params := url.Values{}
	params.Set("api_key", s.apiKey)
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("num", "5")

	var payload struct {
		OrganicResults []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			Link    string `json:"link"`
		} `json:"organic_results"`
	}
	if err := getJSON(ctx, s.http, endpoint+"?"+params.Encode(), &payload); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, item := range payload.OrganicResults {
		fmt.Fprintf(&sb, "- %s: %s (%s)\n", item.Title, item.Snippet, item.Link)
	}
	return sb.String(), nil
}

// wikipediaProvider is the free tier: resolve the query through the
// opensearch API, then lift the first paragraphs off the article page.
type wikipediaProvider struct {
	apiBase string
	http    *http.Client
}

func (w *wikipediaProvider) name() string { return "wikipedia" }

func (w *wikipediaProvider) search(ctx context.Context, query string) (string, error) {
	apiBase := w.apiBase
	if apiBase == "" {
		apiBase = "https://ro.wikipedia.org/w/api.php"
	}

	params := url.Values{}
	params.Set("action", "opensearch")
	params.Set("search", query)
	params.Set("limit", "1")
	params.Set("format", "json")

	var payload []json.RawMessage
	if err := getJSON(ctx, w.http, apiBase+"?"+params.Encode(), &payload); err != nil {
		return "", err
	}
	if len(payload) < 4 {
		return "", fmt.Errorf("unexpected opensearch shape")
	}

	var links []string
	if err := json.Unmarshal(payload[3], &links); err != nil {
		return "", fmt.Errorf("opensearch links: %w", err)
	}
	if len(links) == 0 {
		return "", nil
	}

	return w.extract(ctx, links[0])
}

func (w *wikipediaProvider) extract(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "golazo/1.0")

	resp, err := w.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wikipedia returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	var sb strings.Builder
	doc.Find("#mw-content-text p").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
		return i < 2
	})

	if sb.Len() == 0 {
		return "", nil
	}
	return "Context (Wikipedia):\n" + sb.String(), nil
}

func getJSON(ctx context.Context, client *http.Client, reqURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
