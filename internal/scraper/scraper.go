package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/temoto/robotstxt"

	"golazo/internal/ports"
)

const userAgent = "golazo/1.0"

// Scraper fetches article pages and extracts their readable text. Hosts
// that disallow us via robots.txt are skipped; the verdicts are cached
// per host for the scraper's lifetime.
type Scraper struct {
	client *http.Client
	logger *slog.Logger

	mu     sync.Mutex
	robots map[string]*robotstxt.Group
}

var _ ports.PageScraper = (*Scraper)(nil)

// New builds a scraper; client defaults to a 20s timeout.
func New(client *http.Client, logger *slog.Logger) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Scraper{
		client: client,
		logger: logger,
		robots: make(map[string]*robotstxt.Group),
	}
}

// FullText returns the readable body text behind pageURL. Readability is
// tried first; when it yields nothing the paragraphs are lifted straight
// off the document with goquery.
func (s *Scraper) FullText(ctx context.Context, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page url %s: %w", pageURL, err)
	}

	if !s.allowed(ctx, parsed) {
		return "", fmt.Errorf("robots.txt disallows %s", pageURL)
	}

	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(string(raw)), parsed)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return strings.TrimSpace(article.TextContent), nil
	}

	return s.paragraphFallback(string(raw))
}

func (s *Scraper) paragraphFallback(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}

	var sb strings.Builder
	doc.Find("article p, .article-content p, main p, p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) > 40 {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	})

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("no readable content found")
	}
	return text, nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}
	return resp.Body, nil
}

// allowed consults the host's robots.txt. An unreachable or malformed
// robots.txt allows the fetch.
func (s *Scraper) allowed(ctx context.Context, pageURL *url.URL) bool {
	group := s.robotsGroup(ctx, pageURL)
	if group == nil {
		return true
	}
	return group.Test(pageURL.Path)
}

func (s *Scraper) robotsGroup(ctx context.Context, pageURL *url.URL) *robotstxt.Group {
	host := pageURL.Scheme + "://" + pageURL.Host

	s.mu.Lock()
	group, ok := s.robots[host]
	s.mu.Unlock()
	if ok {
		return group
	}

	group = s.fetchRobots(ctx, host)

	s.mu.Lock()
	s.robots[host] = group
	s.mu.Unlock()
	return group
}

func (s *Scraper) fetchRobots(ctx context.Context, host string) *robotstxt.Group {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.debug("robots.txt unreachable", "host", host, "error", err)
		return nil
	}
	defer resp.Body.Close()

	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return robots.FindGroup(userAgent)
}

func (s *Scraper) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
