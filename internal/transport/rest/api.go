package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"golazo/internal/domain"
	"golazo/internal/ports"
	"golazo/internal/storage"
	"golazo/internal/usecase"
)

// API exposes the pipeline and the article read path over HTTP.
type API struct {
	pipeline   *usecase.Pipeline
	repository ports.ArticleRepository
	cache      ports.ListingCache
	cronKey    string
	adminKey   string
	logger     *slog.Logger
}

// New wires the handler set.
func New(pipeline *usecase.Pipeline, repository ports.ArticleRepository, cache ports.ListingCache, cronKey, adminKey string, logger *slog.Logger) *API {
	return &API{
		pipeline:   pipeline,
		repository: repository,
		cache:      cache,
		cronKey:    cronKey,
		adminKey:   adminKey,
		logger:     logger,
	}
}

type articleView struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	SourceRef string    `json:"sourceRef"`
	Origin    string    `json:"origin"`
	IsManual  bool      `json:"isManual"`
	IsViral   bool      `json:"isViral"`
	PubDate   time.Time `json:"pubDate"`
	CreatedAt time.Time `json:"createdAt"`
}

func toView(a domain.Article) articleView {
	return articleView{
		ID:        a.ID,
		Title:     a.Title,
		Content:   a.Content,
		ImageURL:  a.ImageURL,
		SourceRef: a.SourceRef,
		Origin:    string(a.Origin),
		IsManual:  a.Manual(),
		IsViral:   a.Origin == domain.OriginViral,
		PubDate:   a.PubDate,
		CreatedAt: a.CreatedAt,
	}
}

func toViews(articles []domain.Article) []articleView {
	views := make([]articleView, 0, len(articles))
	for _, a := range articles {
		views = append(views, toView(a))
	}
	return views
}

// Health answers liveness probes.
func (a *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

type generateNewsRequest struct {
	ForceRefresh    bool   `json:"forceRefresh"`
	CustomDate      string `json:"customDate"`
	EnableWebSearch bool   `json:"enableWebSearch"`
}

// GenerateNews runs the rewrite pipeline over the freshest feed items.
func (a *API) GenerateNews(c *gin.Context) {
	// an empty body means default options
	var req generateNewsRequest
	_ = c.ShouldBindJSON(&req)

	opts := usecase.GenerateOptions{
		ForceRefresh:    req.ForceRefresh,
		EnableWebSearch: req.EnableWebSearch,
	}
	if req.CustomDate != "" {
		parsed, err := parseDate(req.CustomDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid customDate: %v", err)})
			return
		}
		opts.CustomDate = parsed
	}

	result, err := a.pipeline.GenerateNews(c.Request.Context(), opts)
	if err != nil {
		a.fail(c, "generateNews", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  result.Message,
		"articles": toViews(result.Articles),
	})
}

type scrapeRequest struct {
	ForceRefresh bool `json:"forceRefresh"`
	Limit        int  `json:"limit"`
}

// ScrapeArticles runs the pipeline over full scraped article bodies.
func (a *API) ScrapeArticles(c *gin.Context) {
	var req scrapeRequest
	_ = c.ShouldBindJSON(&req)

	result, err := a.pipeline.ScrapeArticles(c.Request.Context(), usecase.ScrapeOptions{
		ForceRefresh: req.ForceRefresh,
		Limit:        req.Limit,
	})
	if err != nil {
		a.fail(c, "scrapeArticles", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  result.Message,
		"articles": toViews(result.Articles),
	})
}

// ImportRSS persists raw feed items; guarded by the cron API key.
func (a *API) ImportRSS(c *gin.Context) {
	if !a.authorized(c, a.cronKey) {
		return
	}

	result, err := a.pipeline.ImportRSS(c.Request.Context())
	if err != nil {
		a.fail(c, "importRSS", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": result.Message,
		"total":   result.Total,
	})
}

type viralRequest struct {
	Count        int      `json:"count"`
	ForceRefresh bool     `json:"forceRefresh"`
	Topics       []string `json:"topics"`
}

// GenerateViral builds articles from trending topic strings.
func (a *API) GenerateViral(c *gin.Context) {
	var req viralRequest
	_ = c.ShouldBindJSON(&req)

	result, err := a.pipeline.GenerateViral(c.Request.Context(), usecase.ViralOptions{
		Count:        req.Count,
		ForceRefresh: req.ForceRefresh,
		Topics:       req.Topics,
	})
	if err != nil {
		a.fail(c, "generateViralArticles", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  result.Message,
		"articles": toViews(result.Articles),
	})
}

type promptRequest struct {
	Prompt          string `json:"prompt"`
	EnableWebSearch bool   `json:"enableWebSearch"`
}

// GenerateFromPrompt builds one article from a free-form prompt.
func (a *API) GenerateFromPrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	result, err := a.pipeline.GenerateFromPrompt(c.Request.Context(), usecase.PromptOptions{
		Prompt:          req.Prompt,
		EnableWebSearch: req.EnableWebSearch,
	})
	if err != nil {
		a.fail(c, "generateFromPrompt", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  result.Message,
		"articles": toViews(result.Articles),
	})
}

// CronGenerateNews is the external-scheduler entry point: generateNews
// with fixed options, guarded by the cron API key.
func (a *API) CronGenerateNews(c *gin.Context) {
	if !a.authorized(c, a.cronKey) {
		return
	}

	result, err := a.pipeline.GenerateNews(c.Request.Context(), usecase.GenerateOptions{
		EnableWebSearch: true,
	})
	if err != nil {
		a.fail(c, "cronGenerateNews", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  result.Message,
		"articles": toViews(result.Articles),
	})
}

// ListArticles serves the public read path, fronted by the listing cache.
func (a *API) ListArticles(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	origin := c.Query("origin")

	cacheKey := fmt.Sprintf("articles:list:%s:%d:%d", origin, limit, offset)
	if a.cache != nil {
		var cached []articleView
		if ok, err := a.cache.GetJSON(c.Request.Context(), cacheKey, &cached); err == nil && ok {
			c.JSON(http.StatusOK, gin.H{"articles": cached})
			return
		} else if err != nil {
			a.logger.Warn("listing cache read failed", "error", err)
		}
	}

	articles, err := a.repository.List(c.Request.Context(), ports.ListFilter{
		Origin: domain.Origin(origin),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		a.fail(c, "listArticles", err)
		return
	}

	views := toViews(articles)
	c.JSON(http.StatusOK, gin.H{"articles": views})

	if a.cache != nil {
		if err := a.cache.SetJSON(c.Request.Context(), cacheKey, views); err != nil {
			a.logger.Warn("listing cache write failed", "error", err)
		}
	}
}

// GetArticle serves one article by ID.
func (a *API) GetArticle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	article, err := a.repository.GetByID(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	if err != nil {
		a.fail(c, "getArticle", err)
		return
	}

	c.JSON(http.StatusOK, toView(article))
}

// DeleteArticle soft-deletes; guarded by the admin API key.
func (a *API) DeleteArticle(c *gin.Context) {
	if !a.authorized(c, a.adminKey) {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := a.repository.SoftDelete(c.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
			return
		}
		a.fail(c, "deleteArticle", err)
		return
	}

	if a.cache != nil {
		if err := a.cache.Invalidate(c.Request.Context(), "articles:"); err != nil {
			a.logger.Warn("listing cache invalidation failed", "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "article deleted"})
}

func (a *API) authorized(c *gin.Context, key string) bool {
	if key == "" || c.GetHeader("x-api-key") != key {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return false
	}
	return true
}

func (a *API) fail(c *gin.Context, op string, err error) {
	a.logger.Error("request failed", "op", op, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format %q", value)
}
