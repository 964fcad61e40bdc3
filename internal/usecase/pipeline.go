package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"golazo/internal/domain"
	"golazo/internal/ports"
	"golazo/internal/storage"
)

// Fallback topic list used when a viral-generation request names none.
var defaultViralTopics = []string{
	"transferuri spectaculoase în fotbalul european",
	"derby-uri din Liga 1",
	"performanțe românești în cupele europene",
	"recorduri în Champions League",
}

// PipelineDeps wires all driven adapters into the orchestrators.
type PipelineDeps struct {
	Source     ports.FeedSource
	Repository ports.ArticleRepository
	Translator ports.Translator
	Enricher   ports.Enricher
	Generator  ports.RewriteGenerator
	Scraper    ports.PageScraper
	Cache      ports.ListingCache
	Logger     *slog.Logger

	MaxCandidates  int
	ScrapeLimit    int
	Concurrency    int
	TargetLanguage string
}

// Pipeline implements the ingestion/enrichment/rewrite workflows behind
// the generation endpoints.
type Pipeline struct {
	source     ports.FeedSource
	repository ports.ArticleRepository
	translator ports.Translator
	enricher   ports.Enricher
	generator  ports.RewriteGenerator
	scraper    ports.PageScraper
	cache      ports.ListingCache
	logger     *slog.Logger

	maxCandidates int
	scrapeLimit   int
	concurrency   int
	targetLang    string
	now           func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	maxCandidates := deps.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 5
	}
	scrapeLimit := deps.ScrapeLimit
	if scrapeLimit <= 0 {
		scrapeLimit = 10
	}
	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	targetLang := deps.TargetLanguage
	if targetLang == "" {
		targetLang = "ro"
	}

	return &Pipeline{
		source:        deps.Source,
		repository:    deps.Repository,
		translator:    deps.Translator,
		enricher:      deps.Enricher,
		generator:     deps.Generator,
		scraper:       deps.Scraper,
		cache:         deps.Cache,
		logger:        deps.Logger,
		maxCandidates: maxCandidates,
		scrapeLimit:   scrapeLimit,
		concurrency:   concurrency,
		targetLang:    targetLang,
		now:           time.Now,
	}
}

// GenerateOptions controls a GenerateNews run.
type GenerateOptions struct {
	ForceRefresh    bool
	CustomDate      time.Time
	EnableWebSearch bool
}

// ScrapeOptions controls a ScrapeArticles run.
type ScrapeOptions struct {
	ForceRefresh bool
	Limit        int
}

// ViralOptions controls a GenerateViral run.
type ViralOptions struct {
	Count        int
	ForceRefresh bool
	Topics       []string
}

// Result is the summary every generation endpoint returns.
type Result struct {
	Message  string
	Articles []domain.Article
}

// ImportResult summarizes a raw feed import.
type ImportResult struct {
	Message string
	Total   int
}

// GenerateNews runs the full pipeline over the latest feed items:
// translate, enrich, rewrite, persist. Per-candidate failures drop only
// that candidate.
func (p *Pipeline) GenerateNews(ctx context.Context, opts GenerateOptions) (Result, error) {
	items, err := p.source.FetchAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch feeds: %w", err)
	}
	if len(items) == 0 {
		return Result{Message: "niciun articol disponibil în fluxuri"}, nil
	}

	if len(items) > p.maxCandidates {
		items = items[:p.maxCandidates]
	}

	if !opts.CustomDate.IsZero() {
		for i := range items {
			items[i].PubDate = opts.CustomDate
		}
	}

	candidates, err := p.filterProcessed(ctx, items, domain.RegeneratedRef, opts.ForceRefresh)
	if err != nil {
		return Result{}, err
	}
	if len(candidates) == 0 {
		return Result{Message: "toate articolele au fost deja generate"}, nil
	}

	articles := p.rewriteAll(ctx, candidates, domain.OriginRegenerated, opts.EnableWebSearch)
	inserted, err := p.insertAll(ctx, articles)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Message:  fmt.Sprintf("am generat %d din %d articole", len(inserted), len(candidates)),
		Articles: inserted,
	}, nil
}

// ScrapeArticles is GenerateNews with the full article body pulled from
// the source page before rewriting, instead of the feed excerpt.
func (p *Pipeline) ScrapeArticles(ctx context.Context, opts ScrapeOptions) (Result, error) {
	items, err := p.source.FetchAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch feeds: %w", err)
	}
	if len(items) == 0 {
		return Result{Message: "niciun articol disponibil în fluxuri"}, nil
	}

	limit := opts.Limit
	if limit <= 0 || limit > p.scrapeLimit {
		limit = p.scrapeLimit
	}
	if len(items) > limit {
		items = items[:limit]
	}

	candidates, err := p.filterProcessed(ctx, items, domain.RegeneratedRef, opts.ForceRefresh)
	if err != nil {
		return Result{}, err
	}
	if len(candidates) == 0 {
		return Result{Message: "toate articolele au fost deja generate"}, nil
	}

	for i := range candidates {
		if p.scraper == nil {
			break
		}
		fullText, err := p.scraper.FullText(ctx, candidates[i].SourceURL)
		if err != nil {
			p.warn("scrape failed, using feed excerpt", "url", candidates[i].SourceURL, "error", err)
			continue
		}
		candidates[i].Content = fullText
	}

	articles := p.rewriteAll(ctx, candidates, domain.OriginRegenerated, false)
	inserted, err := p.insertAll(ctx, articles)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Message:  fmt.Sprintf("am generat %d din %d articole", len(inserted), len(candidates)),
		Articles: inserted,
	}, nil
}

// ImportRSS persists every fetched item verbatim with origin rss. The
// partial unique index backs the existence check, so a concurrent import
// of the same ref degrades to a skip instead of a duplicate.
func (p *Pipeline) ImportRSS(ctx context.Context) (ImportResult, error) {
	items, err := p.source.FetchAll(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("fetch feeds: %w", err)
	}
	if len(items) == 0 {
		return ImportResult{Message: "niciun articol disponibil în fluxuri"}, nil
	}

	refs := make([]string, len(items))
	for i, item := range items {
		refs[i] = item.SourceURL
	}
	existing, err := p.repository.ExistingRefs(ctx, refs)
	if err != nil {
		return ImportResult{}, fmt.Errorf("dedup check: %w", err)
	}

	total := 0
	for _, item := range items {
		if existing[item.SourceURL] {
			continue
		}

		_, err := p.repository.Insert(ctx, domain.Article{
			Title:     item.Title,
			Content:   item.Content,
			ImageURL:  item.ImageURL,
			SourceRef: item.SourceURL,
			Origin:    domain.OriginRSS,
			PubDate:   item.PubDate,
		})
		if errors.Is(err, storage.ErrDuplicateRef) {
			continue
		}
		if err != nil {
			p.warn("import insert failed", "url", item.SourceURL, "error", err)
			continue
		}
		total++
	}

	p.invalidateListings(ctx)
	return ImportResult{
		Message: fmt.Sprintf("am importat %d articole noi", total),
		Total:   total,
	}, nil
}

// GenerateViral builds articles from topic strings instead of feed items.
// Topics default to a static list; enrichment always includes web search
// because a bare topic carries no content of its own.
func (p *Pipeline) GenerateViral(ctx context.Context, opts ViralOptions) (Result, error) {
	topics := opts.Topics
	if len(topics) == 0 {
		topics = defaultViralTopics
	}
	if opts.Count > 0 && len(topics) > opts.Count {
		topics = topics[:opts.Count]
	}

	now := p.now()
	items := make([]domain.FeedItem, len(topics))
	for i, topic := range topics {
		items[i] = domain.FeedItem{
			Title:     topic,
			Content:   topic,
			SourceURL: topic,
			PubDate:   now,
		}
	}

	candidates, err := p.filterProcessed(ctx, items, domain.ViralTopicRef, opts.ForceRefresh)
	if err != nil {
		return Result{}, err
	}
	if len(candidates) == 0 {
		return Result{Message: "toate subiectele au fost deja generate"}, nil
	}

	articles := p.rewriteAll(ctx, candidates, domain.OriginViral, true)
	inserted, err := p.insertAll(ctx, articles)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Message:  fmt.Sprintf("am generat %d din %d articole virale", len(inserted), len(candidates)),
		Articles: inserted,
	}, nil
}

// PromptOptions controls a GenerateFromPrompt run.
type PromptOptions struct {
	Prompt          string
	EnableWebSearch bool
}

// GenerateFromPrompt builds a single article from a free-form prompt.
// The ref is timestamped, so every call yields a distinct row and no
// dedup applies.
func (p *Pipeline) GenerateFromPrompt(ctx context.Context, opts PromptOptions) (Result, error) {
	prompt := strings.TrimSpace(opts.Prompt)
	if prompt == "" {
		return Result{}, fmt.Errorf("empty prompt")
	}

	item := domain.FeedItem{
		Title:   prompt,
		Content: prompt,
		PubDate: p.now(),
	}

	article, err := p.rewriteOne(ctx, item, domain.OriginPrompt, opts.EnableWebSearch)
	if err != nil {
		return Result{}, fmt.Errorf("generate from prompt: %w", err)
	}

	inserted, err := p.insertAll(ctx, []domain.Article{article})
	if err != nil {
		return Result{}, err
	}

	return Result{
		Message:  fmt.Sprintf("am generat %d articole", len(inserted)),
		Articles: inserted,
	}, nil
}

// filterProcessed drops items whose derived ref already has a row, unless
// forced. Order is preserved.
func (p *Pipeline) filterProcessed(ctx context.Context, items []domain.FeedItem, ref func(string) string, force bool) ([]domain.FeedItem, error) {
	if force {
		return items, nil
	}

	refs := make([]string, len(items))
	for i, item := range items {
		refs[i] = ref(item.SourceURL)
	}

	existing, err := p.repository.ExistingRefs(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("dedup check: %w", err)
	}

	var fresh []domain.FeedItem
	for i, item := range items {
		if existing[refs[i]] {
			continue
		}
		fresh = append(fresh, item)
	}
	return fresh, nil
}

// rewriteAll runs translate+enrich+rewrite per candidate with bounded
// concurrency. Failed candidates leave a hole that is compacted away, so
// output order still follows input order.
func (p *Pipeline) rewriteAll(ctx context.Context, items []domain.FeedItem, origin domain.Origin, withSearch bool) []domain.Article {
	results := make([]*domain.Article, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, item := range items {
		g.Go(func() error {
			article, err := p.rewriteOne(gctx, item, origin, withSearch)
			if err != nil {
				p.warn("candidate dropped", "url", item.SourceURL, "error", err)
				return nil
			}
			results[i] = &article
			return nil
		})
	}
	_ = g.Wait()

	var articles []domain.Article
	for _, article := range results {
		if article != nil {
			articles = append(articles, *article)
		}
	}
	return articles
}

func (p *Pipeline) rewriteOne(ctx context.Context, item domain.FeedItem, origin domain.Origin, withSearch bool) (domain.Article, error) {
	if p.translator != nil {
		item.Title = p.translator.Translate(ctx, item.Title, p.targetLang)
		item.Content = p.translator.Translate(ctx, item.Content, p.targetLang)
	}

	var enrichment domain.Enrichment
	if p.enricher != nil {
		enrichment = p.enricher.Enrich(ctx, item, withSearch)
	}

	rw, err := p.generator.Generate(ctx, item, enrichment.Text())
	if err != nil {
		return domain.Article{}, err
	}

	ref := domain.RegeneratedRef(item.SourceURL)
	switch origin {
	case domain.OriginViral:
		ref = domain.ViralTopicRef(item.SourceURL)
	case domain.OriginPrompt:
		ref = domain.PromptRef(p.now())
	}

	return domain.Article{
		Title:     rw.Title,
		Content:   rw.Content,
		ImageURL:  item.ImageURL,
		SourceRef: ref,
		Origin:    origin,
		PubDate:   item.PubDate,
	}, nil
}

func (p *Pipeline) insertAll(ctx context.Context, articles []domain.Article) ([]domain.Article, error) {
	var inserted []domain.Article
	for _, article := range articles {
		stored, err := p.repository.Insert(ctx, article)
		if errors.Is(err, storage.ErrDuplicateRef) {
			continue
		}
		if err != nil {
			p.warn("insert failed", "ref", article.SourceRef, "error", err)
			continue
		}
		inserted = append(inserted, stored)
	}

	if len(inserted) > 0 {
		p.invalidateListings(ctx)
	}
	return inserted, nil
}

func (p *Pipeline) invalidateListings(ctx context.Context) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Invalidate(ctx, "articles:"); err != nil {
		p.warn("listing cache invalidation failed", "error", err)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
