package domain

import (
	"fmt"
	"net/url"
	"time"
)

// Origin tells where an article row came from. Provenance is modeled as
// its own column; the source ref stays a pure deduplication key.
type Origin string

const (
	OriginRSS         Origin = "rss"
	OriginManual      Origin = "manual"
	OriginRegenerated Origin = "regenerated"
	OriginViral       Origin = "viral"
	OriginPrompt      Origin = "prompt"
)

// Article is the single persisted entity of the service.
type Article struct {
	ID        int64
	Title     string
	Content   string
	ImageURL  string
	SourceRef string
	Origin    Origin
	PubDate   time.Time
	CreatedAt time.Time
	Deleted   bool
}

// Manual reports whether the row is anything other than a raw feed import.
func (a Article) Manual() bool {
	return a.Origin != OriginRSS
}

// FeedItem is a normalized entry pulled from one of the configured feeds.
type FeedItem struct {
	Title     string
	Content   string
	SourceURL string
	ImageURL  string
	PubDate   time.Time
}

// Rewrite is the title/content pair extracted from a model response.
type Rewrite struct {
	Title   string
	Content string
}

// Enrichment carries everything the prompt builder folds into a rewrite
// request besides the article itself.
type Enrichment struct {
	Entities      []string
	PrimaryTeam   string
	Standings     string
	SearchContext string
}

// Text flattens the enrichment into the blob embedded in the prompt.
func (e Enrichment) Text() string {
	var out string
	if e.PrimaryTeam != "" {
		out += "Echipa principală: " + e.PrimaryTeam + "\n"
	}
	if e.Standings != "" {
		out += e.Standings + "\n"
	}
	if e.SearchContext != "" {
		out += e.SearchContext + "\n"
	}
	return out
}

// Ref builders. The formats are load-bearing: existence checks compare
// against these exact strings, so changing them resets deduplication.

// RegeneratedRef keys a rewrite derived from a fetched item.
func RegeneratedRef(originalURL string) string {
	return "regenerated-from-url:" + url.QueryEscape(originalURL)
}

// ViralTopicRef keys an article generated from a trending topic.
func ViralTopicRef(topic string) string {
	return "viral-topic:" + url.QueryEscape(topic)
}

// PromptRef keys a free-form prompt-generated article. Timestamped, so
// every generation is a distinct row.
func PromptRef(at time.Time) string {
	return fmt.Sprintf("prompt-generated-article:%d", at.Unix())
}
