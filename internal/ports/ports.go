package ports

import (
	"context"

	"golazo/internal/domain"
)

// FeedSource pulls and normalizes items from all configured feeds. A
// failing feed contributes nothing instead of failing the batch; the
// returned error is reserved for context cancellation.
type FeedSource interface {
	FetchAll(ctx context.Context) ([]domain.FeedItem, error)
}

// ListFilter narrows article listings.
type ListFilter struct {
	Origin domain.Origin
	Limit  int
	Offset int
}

// ArticleRepository persists articles and answers dedup existence checks.
type ArticleRepository interface {
	ExistingRefs(ctx context.Context, refs []string) (map[string]bool, error)
	Insert(ctx context.Context, article domain.Article) (domain.Article, error)
	GetByID(ctx context.Context, id int64) (domain.Article, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Article, error)
	SoftDelete(ctx context.Context, id int64) error
}

// Translator converts text into the target language. Failure is silent:
// implementations return the input unchanged and log.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) string
}

// Enricher assembles search/standings/entity context for one item.
// It never fails; degraded enrichment is empty or filler text.
type Enricher interface {
	Enrich(ctx context.Context, item domain.FeedItem, withSearch bool) domain.Enrichment
}

// RewriteGenerator turns an item plus enrichment text into a fresh
// title/content pair via an external chat-completion API.
type RewriteGenerator interface {
	Generate(ctx context.Context, item domain.FeedItem, enrichment string) (domain.Rewrite, error)
}

// PageScraper retrieves the readable full text behind an item URL.
type PageScraper interface {
	FullText(ctx context.Context, pageURL string) (string, error)
}

// ListingCache fronts read endpoints with a shared TTL cache.
type ListingCache interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	Invalidate(ctx context.Context, prefix string) error
}
